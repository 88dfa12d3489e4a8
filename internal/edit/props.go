package edit

import (
	"github.com/heimdex/heimdex-timeline/internal/timeline"
)

// SetClipTransition replaces the clip's incoming transition. A nil
// Transition clears it. The duration is clamped to the clip's length.
type SetClipTransition struct {
	ClipID     string               `json:"clipId"`
	Transition *timeline.Transition `json:"transition"`
}

func (SetClipTransition) Op() string { return "setClipTransition" }

func (c SetClipTransition) apply(tl *timeline.Timeline, env Env) Result {
	clip := tl.FindClip(c.ClipID)
	if clip == nil {
		return Result{}
	}
	if c.Transition == nil {
		if clip.TransitionIn == nil {
			return Result{}
		}
		clip.TransitionIn = nil
		return Result{Changed: true}
	}
	if !c.Transition.Type.Valid() {
		return Result{}
	}

	tr := *c.Transition
	tr.DurationMs = clampTime(tr.DurationMs)
	if d := clip.DurationMs(); tr.DurationMs > d {
		tr.DurationMs = d
	}
	if clip.TransitionIn != nil && *clip.TransitionIn == tr {
		return Result{}
	}
	clip.TransitionIn = &tr
	return Result{Changed: true}
}

// UpdateClipFilter merges the set fields into the clip's filter, starting
// from the identity filter on first write.
type UpdateClipFilter struct {
	ClipID     string   `json:"clipId"`
	Brightness *float64 `json:"brightness,omitempty"`
	Contrast   *float64 `json:"contrast,omitempty"`
	Saturation *float64 `json:"saturation,omitempty"`
	Grayscale  *float64 `json:"grayscale,omitempty"`
}

func (UpdateClipFilter) Op() string { return "updateClipFilter" }

func (c UpdateClipFilter) apply(tl *timeline.Timeline, env Env) Result {
	clip := tl.FindClip(c.ClipID)
	if clip == nil {
		return Result{}
	}

	f := timeline.IdentityFilter()
	if clip.Filter != nil {
		f = *clip.Filter
	}
	if c.Brightness != nil {
		f.Brightness = *c.Brightness
	}
	if c.Contrast != nil {
		f.Contrast = *c.Contrast
	}
	if c.Saturation != nil {
		f.Saturation = *c.Saturation
	}
	if c.Grayscale != nil {
		f.Grayscale = *c.Grayscale
	}
	if clip.Filter != nil && *clip.Filter == f {
		return Result{}
	}
	clip.Filter = &f
	return Result{Changed: true}
}

// UpdateClip edits the non-animated fields of a clip's variant payload.
// Fields that do not apply to the clip's variant are ignored.
type UpdateClip struct {
	ClipID     string               `json:"clipId"`
	Title      *string              `json:"title,omitempty"`
	Content    *string              `json:"content,omitempty"`
	TextStyle  *timeline.TextStyle  `json:"textStyle,omitempty"`
	ShapeStyle *timeline.ShapeStyle `json:"shapeStyle,omitempty"`
	ShapeType  *timeline.ShapeType  `json:"shapeType,omitempty"`
	Position   *timeline.Point      `json:"position,omitempty"`
	Size       *timeline.Size       `json:"size,omitempty"`
}

func (UpdateClip) Op() string { return "updateClip" }

func (c UpdateClip) apply(tl *timeline.Timeline, env Env) Result {
	clip := tl.FindClip(c.ClipID)
	if clip == nil {
		return Result{}
	}
	before := clip.Clone()

	switch clip.Kind {
	case timeline.KindVideo, timeline.KindAudio, timeline.KindImage:
		if clip.Media != nil && c.Title != nil {
			clip.Media.Title = *c.Title
		}
	case timeline.KindText:
		if clip.Text == nil {
			return Result{}
		}
		if c.Content != nil {
			clip.Text.Content = *c.Content
		}
		if c.TextStyle != nil {
			clip.Text.Style = *c.TextStyle
		}
		if c.Position != nil {
			clip.Text.Position = clampPoint(*c.Position)
		}
		if c.Size != nil {
			clip.Text.Size = clampSize(*c.Size)
		}
	case timeline.KindShape:
		if clip.Shape == nil {
			return Result{}
		}
		if c.ShapeStyle != nil {
			clip.Shape.Style = *c.ShapeStyle
		}
		if c.ShapeType != nil && c.ShapeType.Valid() {
			clip.Shape.ShapeType = *c.ShapeType
		}
		if c.Position != nil {
			clip.Shape.Position = clampPoint(*c.Position)
		}
		if c.Size != nil {
			clip.Shape.Size = clampSize(*c.Size)
		}
	}

	if !payloadChanged(before, *clip) {
		return Result{}
	}
	return Result{Changed: true}
}

func payloadChanged(a, b timeline.Clip) bool {
	switch {
	case a.Media != nil:
		return a.Media.Title != b.Media.Title
	case a.Text != nil:
		return a.Text.Content != b.Text.Content || a.Text.Style != b.Text.Style ||
			a.Text.Position != b.Text.Position || a.Text.Size != b.Text.Size
	case a.Shape != nil:
		return a.Shape.Style != b.Shape.Style || a.Shape.ShapeType != b.Shape.ShapeType ||
			a.Shape.Position != b.Shape.Position || a.Shape.Size != b.Shape.Size
	}
	return false
}

func clampPoint(p timeline.Point) timeline.Point {
	return timeline.Point{X: clampUnit(p.X), Y: clampUnit(p.Y)}
}

func clampSize(s timeline.Size) timeline.Size {
	return timeline.Size{Width: clampUnit(s.Width), Height: clampUnit(s.Height)}
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
