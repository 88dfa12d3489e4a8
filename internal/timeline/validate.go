package timeline

import (
	"errors"
	"fmt"
)

var ErrInvalidTimeline = errors.New("invalid timeline")

// Validate checks a timeline that arrived from outside the engine, such as a
// stored project or an imported state. Timelines produced by internal/edit
// always pass.
func (t *Timeline) Validate() error {
	if t.DurationMs < 0 || t.DurationMs > MaxTimeMs {
		return fmt.Errorf("%w: duration %dms out of range", ErrInvalidTimeline, t.DurationMs)
	}
	if t.FPS <= 0 {
		return fmt.Errorf("%w: fps must be positive", ErrInvalidTimeline)
	}

	seen := make(map[string]bool)
	for i := range t.Tracks {
		tr := &t.Tracks[i]
		if tr.ID == "" {
			return fmt.Errorf("%w: track %d has empty id", ErrInvalidTimeline, i)
		}
		if seen[tr.ID] {
			return fmt.Errorf("%w: duplicate id %s", ErrInvalidTimeline, tr.ID)
		}
		seen[tr.ID] = true
		if !tr.Type.Valid() {
			return fmt.Errorf("%w: track %d has unknown type %q", ErrInvalidTimeline, i, tr.Type)
		}

		for j := range tr.Clips {
			c := &tr.Clips[j]
			if c.ID == "" {
				return fmt.Errorf("%w: clip %d on track %s has empty id", ErrInvalidTimeline, j, tr.ID)
			}
			if seen[c.ID] {
				return fmt.Errorf("%w: duplicate id %s", ErrInvalidTimeline, c.ID)
			}
			seen[c.ID] = true
			if err := validateClip(c, tr.ID); err != nil {
				return fmt.Errorf("%w: clip %s: %v", ErrInvalidTimeline, c.ID, err)
			}
		}
	}
	return nil
}

func validateClip(c *Clip, trackID string) error {
	if c.TrackID != trackID {
		return fmt.Errorf("trackId %q does not match owning track %q", c.TrackID, trackID)
	}
	if c.StartMs < 0 {
		return fmt.Errorf("negative start %d", c.StartMs)
	}
	if c.EndMs <= c.StartMs {
		return fmt.Errorf("end %d not after start %d", c.EndMs, c.StartMs)
	}
	if c.EndMs > MaxTimeMs {
		return fmt.Errorf("end %d beyond %dms", c.EndMs, MaxTimeMs)
	}
	if c.DurationMs() < MinClipDurationMs {
		return fmt.Errorf("duration %dms below minimum %dms", c.DurationMs(), MinClipDurationMs)
	}

	switch {
	case c.Kind.IsMedia():
		if c.Media == nil || c.Text != nil || c.Shape != nil {
			return fmt.Errorf("%s clip must carry only a media payload", c.Kind)
		}
		if c.Media.SourceStartMs < 0 {
			return fmt.Errorf("negative sourceStartMs %d", c.Media.SourceStartMs)
		}
	case c.Kind == KindText:
		if c.Text == nil || c.Media != nil || c.Shape != nil {
			return fmt.Errorf("text clip must carry only a text payload")
		}
	case c.Kind == KindShape:
		if c.Shape == nil || c.Media != nil || c.Text != nil {
			return fmt.Errorf("shape clip must carry only a shape payload")
		}
		if !c.Shape.ShapeType.Valid() {
			return fmt.Errorf("unknown shape type %q", c.Shape.ShapeType)
		}
	default:
		return fmt.Errorf("unknown clip type %q", c.Kind)
	}

	if c.TransitionIn != nil {
		if !c.TransitionIn.Type.Valid() {
			return fmt.Errorf("unknown transition %q", c.TransitionIn.Type)
		}
		if c.TransitionIn.DurationMs < 0 {
			return fmt.Errorf("negative transition duration")
		}
	}

	for _, p := range Properties(c.Kind) {
		a, _ := c.Animatable(p)
		for k, kf := range a.Keyframes {
			if !kf.Easing.Valid() {
				return fmt.Errorf("%s keyframe %s has unknown easing %q", p, kf.ID, kf.Easing)
			}
			if k > 0 && a.Keyframes[k-1].TimeMs > kf.TimeMs {
				return fmt.Errorf("%s keyframes not sorted by time", p)
			}
		}
	}
	return nil
}
