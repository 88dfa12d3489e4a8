package edit

import (
	"github.com/heimdex/heimdex-timeline/internal/timeline"
)

// AddClip appends a clip to a track. The clip's id is kept when it is set
// and unused; its start is clamped to zero and its duration to the minimum.
type AddClip struct {
	TrackID string        `json:"trackId"`
	Clip    timeline.Clip `json:"clip"`
}

func (AddClip) Op() string { return "addClip" }

func (c AddClip) apply(tl *timeline.Timeline, env Env) Result {
	tr := tl.FindTrack(c.TrackID)
	if tr == nil || !c.Clip.Kind.Valid() {
		return Result{}
	}

	clip := c.Clip.Clone()
	if clip.ID == "" || idInUse(tl, clip.ID) {
		clip.ID = env.id()
	}
	clip.TrackID = tr.ID
	dur := clampTime(clip.EndMs) - clampTime(clip.StartMs)
	if dur < timeline.MinClipDurationMs {
		dur = timeline.MinClipDurationMs
	}
	clip.StartMs, clip.EndMs = placeSpan(clip.StartMs, dur)
	clip.NormalizePayload()
	if clip.Media != nil && clip.Media.SourceStartMs < 0 {
		clip.Media.SourceStartMs = 0
	}
	for _, p := range timeline.Properties(clip.Kind) {
		a, _ := clip.Animatable(p)
		for i := range a.Keyframes {
			if a.Keyframes[i].ID == "" {
				a.Keyframes[i].ID = env.id()
			}
			if !a.Keyframes[i].Easing.Valid() {
				a.Keyframes[i].Easing = timeline.EasingLinear
			}
		}
		a.SortKeyframes()
	}

	tr.Clips = append(tr.Clips, clip)
	return Result{Changed: true, CreatedID: clip.ID}
}

// MoveClip places a clip at a new start on a target track, keeping its
// duration. Overlaps with other clips on the target are allowed.
type MoveClip struct {
	ClipID  string `json:"clipId"`
	TrackID string `json:"trackId"`
	StartMs int64  `json:"startMs"`
}

func (MoveClip) Op() string { return "moveClip" }

func (c MoveClip) apply(tl *timeline.Timeline, env Env) Result {
	ti, ci, ok := tl.Locate(c.ClipID)
	if !ok {
		return Result{}
	}
	target := tl.TrackIndex(c.TrackID)
	if target < 0 {
		return Result{}
	}

	start, end := placeSpan(c.StartMs, tl.Tracks[ti].Clips[ci].DurationMs())
	if target == ti && tl.Tracks[ti].Clips[ci].StartMs == start {
		return Result{}
	}

	clip := removeClipAt(&tl.Tracks[ti], ci)
	clip.StartMs, clip.EndMs = start, end
	clip.TrackID = tl.Tracks[target].ID
	tl.Tracks[target].Clips = append(tl.Tracks[target].Clips, clip)
	return Result{Changed: true}
}

type Edge string

const (
	EdgeLeft  Edge = "left"
	EdgeRight Edge = "right"
)

// ResizeClip moves one boundary of a clip by DeltaMs. The proposed boundary is
// snapped first, then clamped so the clip keeps the minimum duration. Moving
// the left edge shifts the media source offset by the same amount so the
// played content stays put on the timeline.
type ResizeClip struct {
	ClipID  string `json:"clipId"`
	Edge    Edge   `json:"edge"`
	DeltaMs int64  `json:"deltaMs"`
}

func (ResizeClip) Op() string { return "resizeClip" }

func (c ResizeClip) apply(tl *timeline.Timeline, env Env) Result {
	clip := tl.FindClip(c.ClipID)
	if clip == nil {
		return Result{}
	}

	switch c.Edge {
	case EdgeRight:
		end := env.Snap.Resolve(tl, clampTime(addMs(clip.EndMs, c.DeltaMs)), clip.ID)
		if floor := clip.StartMs + timeline.MinClipDurationMs; end < floor {
			end = floor
		}
		if end > timeline.MaxTimeMs {
			end = timeline.MaxTimeMs
		}
		if end == clip.EndMs {
			return Result{}
		}
		clip.EndMs = end

	case EdgeLeft:
		start := env.Snap.Resolve(tl, clampTime(addMs(clip.StartMs, c.DeltaMs)), clip.ID)
		if ceil := clip.EndMs - timeline.MinClipDurationMs; start > ceil {
			start = ceil
		}
		start = clampStart(start)
		shift := start - clip.StartMs
		if shift == 0 {
			return Result{}
		}
		clip.StartMs = start
		if clip.Media != nil {
			clip.Media.SourceStartMs = clampStart(addMs(clip.Media.SourceStartMs, shift))
		}

	default:
		return Result{}
	}
	return Result{Changed: true}
}

// SplitClip cuts a clip in two at AtMs. The right part gets a fresh id, sits
// right after the left part in the track and becomes the selection. A cut that
// would leave either part shorter than the minimum duration is ignored.
type SplitClip struct {
	ClipID string `json:"clipId"`
	AtMs   int64  `json:"atMs"`
}

func (SplitClip) Op() string { return "splitClip" }

func (c SplitClip) apply(tl *timeline.Timeline, env Env) Result {
	ti, ci, ok := tl.Locate(c.ClipID)
	if !ok {
		return Result{}
	}
	left := &tl.Tracks[ti].Clips[ci]
	if c.AtMs <= left.StartMs || c.AtMs >= left.EndMs {
		return Result{}
	}
	if c.AtMs-left.StartMs < timeline.MinClipDurationMs || left.EndMs-c.AtMs < timeline.MinClipDurationMs {
		return Result{}
	}

	offset := c.AtMs - left.StartMs
	right := left.Clone()
	right.ID = env.id()
	right.StartMs = c.AtMs
	right.TransitionIn = nil
	if right.Media != nil {
		right.Media.SourceStartMs = left.Media.SourceStartMs + offset
	}
	for _, p := range timeline.Properties(right.Kind) {
		if a, ok := right.Animatable(p); ok && a.Animated() {
			*a = shiftKeyframes(*a, offset, env)
		}
	}
	for _, p := range timeline.Properties(left.Kind) {
		if a, ok := left.Animatable(p); ok && a.Animated() {
			*a = truncateKeyframes(*a, offset)
		}
	}
	left.EndMs = c.AtMs

	insertClipAt(&tl.Tracks[ti], ci+1, right)
	return Result{Changed: true, CreatedID: right.ID, Select: right.ID}
}

// shiftKeyframes re-bases a keyframe list onto a clip that starts offset ms
// later. Keyframes before the new origin are dropped; if none remain the
// property holds the last dropped value as a constant.
func shiftKeyframes(a timeline.Animatable, offset int64, env Env) timeline.Animatable {
	kept := []timeline.Keyframe{}
	var last *timeline.Keyframe
	for i := range a.Keyframes {
		kf := a.Keyframes[i]
		if kf.TimeMs < offset {
			last = &a.Keyframes[i]
			continue
		}
		kf.ID = env.id()
		kf.TimeMs -= offset
		kept = append(kept, kf)
	}
	if len(kept) == 0 {
		if last != nil {
			return timeline.Constant(last.Value)
		}
		return timeline.Constant(a.Value)
	}
	return timeline.Animatable{Keyframes: kept}
}

// truncateKeyframes drops keyframes at or after length, the clip-local end
// of a shortened clip. If none remain the property holds the first dropped
// value as a constant.
func truncateKeyframes(a timeline.Animatable, length int64) timeline.Animatable {
	kept := []timeline.Keyframe{}
	for _, kf := range a.Keyframes {
		if kf.TimeMs < length {
			kept = append(kept, kf)
		}
	}
	if len(kept) == 0 {
		return timeline.Constant(a.Keyframes[0].Value)
	}
	return timeline.Animatable{Keyframes: kept}
}

// DeleteClip removes a clip. Neighbours keep their timing; the gap stays.
type DeleteClip struct {
	ClipID string `json:"clipId"`
}

func (DeleteClip) Op() string { return "deleteClip" }

func (c DeleteClip) apply(tl *timeline.Timeline, env Env) Result {
	ti, ci, ok := tl.Locate(c.ClipID)
	if !ok {
		return Result{}
	}
	removeClipAt(&tl.Tracks[ti], ci)
	return Result{Changed: true}
}
