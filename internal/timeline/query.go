package timeline

import "sort"

// Clone returns a deep copy that shares no slices or pointers with t.
func (t Timeline) Clone() Timeline {
	out := t
	out.Tracks = make([]Track, len(t.Tracks))
	for i, tr := range t.Tracks {
		out.Tracks[i] = tr.Clone()
	}
	return out
}

func (tr Track) Clone() Track {
	out := tr
	out.Clips = make([]Clip, len(tr.Clips))
	for i, c := range tr.Clips {
		out.Clips[i] = c.Clone()
	}
	return out
}

func (c Clip) Clone() Clip {
	out := c
	if c.TransitionIn != nil {
		tr := *c.TransitionIn
		out.TransitionIn = &tr
	}
	if c.Filter != nil {
		f := *c.Filter
		out.Filter = &f
	}
	if c.Media != nil {
		m := *c.Media
		m.Opacity = c.Media.Opacity.clone()
		m.Volume = c.Media.Volume.clone()
		out.Media = &m
	}
	if c.Text != nil {
		tp := *c.Text
		tp.Opacity = c.Text.Opacity.clone()
		tp.Rotation = c.Text.Rotation.clone()
		tp.Scale = c.Text.Scale.clone()
		out.Text = &tp
	}
	if c.Shape != nil {
		sp := *c.Shape
		sp.Opacity = c.Shape.Opacity.clone()
		sp.Rotation = c.Shape.Rotation.clone()
		sp.Scale = c.Shape.Scale.clone()
		out.Shape = &sp
	}
	return out
}

// TrackIndex returns the vertical position of the track, or -1.
func (t *Timeline) TrackIndex(trackID string) int {
	for i := range t.Tracks {
		if t.Tracks[i].ID == trackID {
			return i
		}
	}
	return -1
}

func (t *Timeline) FindTrack(trackID string) *Track {
	if i := t.TrackIndex(trackID); i >= 0 {
		return &t.Tracks[i]
	}
	return nil
}

// Locate returns the track and clip indexes of a clip.
func (t *Timeline) Locate(clipID string) (trackIdx, clipIdx int, ok bool) {
	for ti := range t.Tracks {
		for ci := range t.Tracks[ti].Clips {
			if t.Tracks[ti].Clips[ci].ID == clipID {
				return ti, ci, true
			}
		}
	}
	return -1, -1, false
}

// FindClip returns a pointer into the timeline, or nil.
func (t *Timeline) FindClip(clipID string) *Clip {
	ti, ci, ok := t.Locate(clipID)
	if !ok {
		return nil
	}
	return &t.Tracks[ti].Clips[ci]
}

// ClipsOnTrack returns copies of the track's clips ordered by start time.
func (t *Timeline) ClipsOnTrack(trackID string) []Clip {
	tr := t.FindTrack(trackID)
	if tr == nil {
		return nil
	}
	out := make([]Clip, len(tr.Clips))
	for i, c := range tr.Clips {
		out[i] = c.Clone()
	}
	sortByStart(out)
	return out
}

// ClipsInRange returns copies of every clip intersecting [fromMs, toMs),
// ordered by track index and then start time.
func (t *Timeline) ClipsInRange(fromMs, toMs int64) []Clip {
	var out []Clip
	for _, tr := range t.Tracks {
		var hits []Clip
		for i := range tr.Clips {
			if tr.Clips[i].Intersects(fromMs, toMs) {
				hits = append(hits, tr.Clips[i].Clone())
			}
		}
		sortByStart(hits)
		out = append(out, hits...)
	}
	return out
}

// Keyframes returns a copy of a property's keyframe list. It is nil when the
// clip is unknown, the property does not apply, or the property is constant.
func (t *Timeline) Keyframes(clipID string, p Property) []Keyframe {
	c := t.FindClip(clipID)
	if c == nil {
		return nil
	}
	a, ok := c.Animatable(p)
	if !ok || a.Keyframes == nil {
		return nil
	}
	return a.clone().Keyframes
}

// MaxEndMs is the furthest clip end across all tracks.
func (t *Timeline) MaxEndMs() int64 {
	var end int64
	for _, tr := range t.Tracks {
		for _, c := range tr.Clips {
			if c.EndMs > end {
				end = c.EndMs
			}
		}
	}
	return end
}

func (t *Timeline) ClipCount() int {
	n := 0
	for _, tr := range t.Tracks {
		n += len(tr.Clips)
	}
	return n
}

func sortByStart(clips []Clip) {
	sort.SliceStable(clips, func(i, j int) bool {
		return clips[i].StartMs < clips[j].StartMs
	})
}
