package timeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Animatable is either a constant (Keyframes == nil) or a keyframe list.
// In JSON a constant is a bare number and a list is an array.
type Animatable struct {
	Value     float64
	Keyframes []Keyframe
}

func Constant(v float64) Animatable {
	return Animatable{Value: v}
}

func (a Animatable) Animated() bool {
	return a.Keyframes != nil
}

// SortKeyframes orders the list by local time. Equal times keep insertion order.
func (a *Animatable) SortKeyframes() {
	sort.SliceStable(a.Keyframes, func(i, j int) bool {
		return a.Keyframes[i].TimeMs < a.Keyframes[j].TimeMs
	})
}

func (a Animatable) clone() Animatable {
	if a.Keyframes == nil {
		return a
	}
	kfs := make([]Keyframe, len(a.Keyframes))
	copy(kfs, a.Keyframes)
	return Animatable{Value: a.Value, Keyframes: kfs}
}

func (a Animatable) MarshalJSON() ([]byte, error) {
	if a.Keyframes != nil {
		return json.Marshal(a.Keyframes)
	}
	return json.Marshal(a.Value)
}

func (a *Animatable) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		kfs := []Keyframe{}
		if err := json.Unmarshal(data, &kfs); err != nil {
			return fmt.Errorf("invalid keyframe list: %w", err)
		}
		a.Value = 0
		a.Keyframes = kfs
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("animatable must be a number or keyframe list: %w", err)
	}
	a.Value = v
	a.Keyframes = nil
	return nil
}

// Property names an animatable field of a clip.
type Property string

const (
	PropertyOpacity  Property = "opacity"
	PropertyVolume   Property = "volume"
	PropertyRotation Property = "rotation"
	PropertyScale    Property = "scale"
)

type accessor func(c *Clip) *Animatable

// properties maps (kind, property) to the field holding it. A missing entry
// means the variant has no such property.
var properties = map[ClipKind]map[Property]accessor{
	KindVideo: mediaProperties(true),
	KindAudio: mediaProperties(true),
	KindImage: mediaProperties(false),
	KindText: {
		PropertyOpacity:  func(c *Clip) *Animatable { return &c.Text.Opacity },
		PropertyRotation: func(c *Clip) *Animatable { return &c.Text.Rotation },
		PropertyScale:    func(c *Clip) *Animatable { return &c.Text.Scale },
	},
	KindShape: {
		PropertyOpacity:  func(c *Clip) *Animatable { return &c.Shape.Opacity },
		PropertyRotation: func(c *Clip) *Animatable { return &c.Shape.Rotation },
		PropertyScale:    func(c *Clip) *Animatable { return &c.Shape.Scale },
	},
}

func mediaProperties(withVolume bool) map[Property]accessor {
	m := map[Property]accessor{
		PropertyOpacity: func(c *Clip) *Animatable { return &c.Media.Opacity },
	}
	if withVolume {
		m[PropertyVolume] = func(c *Clip) *Animatable { return &c.Media.Volume }
	}
	return m
}

// Animatable returns a pointer to the named property of the clip, or false
// when the clip's variant has no such property or its payload is missing.
func (c *Clip) Animatable(p Property) (*Animatable, bool) {
	acc, ok := properties[c.Kind][p]
	if !ok {
		return nil, false
	}
	switch {
	case c.Kind.IsMedia() && c.Media == nil,
		c.Kind == KindText && c.Text == nil,
		c.Kind == KindShape && c.Shape == nil:
		return nil, false
	}
	return acc(c), true
}

// Properties lists the animatable properties of a clip kind in a stable order.
func Properties(kind ClipKind) []Property {
	var out []Property
	for _, p := range []Property{PropertyOpacity, PropertyVolume, PropertyRotation, PropertyScale} {
		if _, ok := properties[kind][p]; ok {
			out = append(out, p)
		}
	}
	return out
}
