package edit

import (
	"github.com/heimdex/heimdex-timeline/internal/timeline"
)

// AddKeyframe adds a keyframe to a clip property. A constant property is
// promoted to a keyframe list first. The list stays sorted by time.
type AddKeyframe struct {
	ClipID   string            `json:"clipId"`
	Property timeline.Property `json:"property"`
	Keyframe timeline.Keyframe `json:"keyframe"`
}

func (AddKeyframe) Op() string { return "addKeyframe" }

func (c AddKeyframe) apply(tl *timeline.Timeline, env Env) Result {
	a := findProperty(tl, c.ClipID, c.Property)
	if a == nil {
		return Result{}
	}

	kf := c.Keyframe
	if kf.ID == "" || keyframeIndex(*a, kf.ID) >= 0 {
		kf.ID = env.id()
	}
	if !kf.Easing.Valid() {
		kf.Easing = timeline.EasingLinear
	}
	kf.TimeMs = clampTime(kf.TimeMs)

	if !a.Animated() {
		a.Keyframes = []timeline.Keyframe{}
	}
	a.Keyframes = append(a.Keyframes, kf)
	a.SortKeyframes()
	return Result{Changed: true, CreatedID: kf.ID}
}

// RemoveKeyframe drops a keyframe. Removing the last one turns the property
// back into a constant holding that keyframe's value.
type RemoveKeyframe struct {
	ClipID     string            `json:"clipId"`
	Property   timeline.Property `json:"property"`
	KeyframeID string            `json:"keyframeId"`
}

func (RemoveKeyframe) Op() string { return "removeKeyframe" }

func (c RemoveKeyframe) apply(tl *timeline.Timeline, env Env) Result {
	a := findProperty(tl, c.ClipID, c.Property)
	if a == nil {
		return Result{}
	}
	i := keyframeIndex(*a, c.KeyframeID)
	if i < 0 {
		return Result{}
	}

	removed := a.Keyframes[i]
	a.Keyframes = append(a.Keyframes[:i], a.Keyframes[i+1:]...)
	if len(a.Keyframes) == 0 {
		*a = timeline.Constant(removed.Value)
	}
	return Result{Changed: true}
}

// UpdateKeyframe merges the set fields into a keyframe and re-sorts the list
// when its time moved.
type UpdateKeyframe struct {
	ClipID     string            `json:"clipId"`
	Property   timeline.Property `json:"property"`
	KeyframeID string            `json:"keyframeId"`
	TimeMs     *int64            `json:"timeMs,omitempty"`
	Value      *float64          `json:"value,omitempty"`
	Easing     *timeline.Easing  `json:"easing,omitempty"`
}

func (UpdateKeyframe) Op() string { return "updateKeyframe" }

func (c UpdateKeyframe) apply(tl *timeline.Timeline, env Env) Result {
	a := findProperty(tl, c.ClipID, c.Property)
	if a == nil {
		return Result{}
	}
	i := keyframeIndex(*a, c.KeyframeID)
	if i < 0 {
		return Result{}
	}

	kf := &a.Keyframes[i]
	before := *kf
	if c.TimeMs != nil {
		kf.TimeMs = clampTime(*c.TimeMs)
	}
	if c.Value != nil {
		kf.Value = *c.Value
	}
	if c.Easing != nil && c.Easing.Valid() {
		kf.Easing = *c.Easing
	}
	if *kf == before {
		return Result{}
	}
	if kf.TimeMs != before.TimeMs {
		a.SortKeyframes()
	}
	return Result{Changed: true}
}

func findProperty(tl *timeline.Timeline, clipID string, p timeline.Property) *timeline.Animatable {
	clip := tl.FindClip(clipID)
	if clip == nil {
		return nil
	}
	a, ok := clip.Animatable(p)
	if !ok {
		return nil
	}
	return a
}

func keyframeIndex(a timeline.Animatable, id string) int {
	for i := range a.Keyframes {
		if a.Keyframes[i].ID == id {
			return i
		}
	}
	return -1
}
