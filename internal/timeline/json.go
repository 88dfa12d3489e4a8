package timeline

import "encoding/json"

type trackJSON struct {
	ID       string    `json:"id"`
	Type     TrackType `json:"type"`
	Name     string    `json:"name"`
	Index    int       `json:"index"`
	IsMuted  bool      `json:"isMuted"`
	IsLocked bool      `json:"isLocked"`
	Clips    []Clip    `json:"clips"`
}

type timelineJSON struct {
	ID         string      `json:"id"`
	DurationMs int64       `json:"durationMs"`
	FPS        float64     `json:"fps"`
	Tracks     []trackJSON `json:"tracks"`
}

// MarshalJSON writes each track's index from its position in Tracks.
func (t Timeline) MarshalJSON() ([]byte, error) {
	out := timelineJSON{
		ID:         t.ID,
		DurationMs: t.DurationMs,
		FPS:        t.FPS,
		Tracks:     make([]trackJSON, len(t.Tracks)),
	}
	for i, tr := range t.Tracks {
		clips := tr.Clips
		if clips == nil {
			clips = []Clip{}
		}
		out.Tracks[i] = trackJSON{
			ID:       tr.ID,
			Type:     tr.Type,
			Name:     tr.Name,
			Index:    i,
			IsMuted:  tr.IsMuted,
			IsLocked: tr.IsLocked,
			Clips:    clips,
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON ignores stored index values; array order is authoritative.
func (t *Timeline) UnmarshalJSON(data []byte) error {
	var in timelineJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	t.ID = in.ID
	t.DurationMs = in.DurationMs
	t.FPS = in.FPS
	t.Tracks = make([]Track, len(in.Tracks))
	for i, tr := range in.Tracks {
		clips := tr.Clips
		if clips == nil {
			clips = []Clip{}
		}
		t.Tracks[i] = Track{
			ID:       tr.ID,
			Type:     tr.Type,
			Name:     tr.Name,
			IsMuted:  tr.IsMuted,
			IsLocked: tr.IsLocked,
			Clips:    clips,
		}
	}
	return nil
}
