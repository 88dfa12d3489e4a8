// Package timeline holds the data model of a multi-track composition: tracks,
// tagged clips, animatable properties and their keyframes.
//
// The model is plain data. Mutation lives in internal/edit, which treats a
// Timeline as a value: it clones, changes the clone and hands it back.
package timeline

import (
	"strings"

	"github.com/google/uuid"
)

const (
	// MinClipDurationMs is the shortest interval a clip may ever occupy.
	MinClipDurationMs int64 = 500

	// MaxTimeMs bounds every position on the timeline (24h).
	MaxTimeMs int64 = 24 * 60 * 60 * 1000

	DefaultFPS        = 30.0
	DefaultDurationMs = 60000
)

type TrackType string

const (
	TrackVideo TrackType = "video"
	TrackAudio TrackType = "audio"
	TrackText  TrackType = "text"
	TrackShape TrackType = "shape"
	TrackImage TrackType = "image"
)

var trackTypes = map[TrackType]bool{
	TrackVideo: true,
	TrackAudio: true,
	TrackText:  true,
	TrackShape: true,
	TrackImage: true,
}

func (t TrackType) Valid() bool {
	return trackTypes[t]
}

// Label is the capitalized form used in generated track names.
func (t TrackType) Label() string {
	s := string(t)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ClipKind discriminates the Clip sum type.
type ClipKind string

const (
	KindVideo ClipKind = "video"
	KindAudio ClipKind = "audio"
	KindImage ClipKind = "image"
	KindText  ClipKind = "text"
	KindShape ClipKind = "shape"
)

func (k ClipKind) Valid() bool {
	switch k {
	case KindVideo, KindAudio, KindImage, KindText, KindShape:
		return true
	}
	return false
}

// IsMedia reports whether clips of this kind carry a MediaProps payload.
func (k ClipKind) IsMedia() bool {
	return k == KindVideo || k == KindAudio || k == KindImage
}

type Easing string

const (
	EasingLinear    Easing = "linear"
	EasingEaseIn    Easing = "easeIn"
	EasingEaseOut   Easing = "easeOut"
	EasingEaseInOut Easing = "easeInOut"
	EasingBounce    Easing = "bounce"
)

func (e Easing) Valid() bool {
	switch e {
	case EasingLinear, EasingEaseIn, EasingEaseOut, EasingEaseInOut, EasingBounce:
		return true
	}
	return false
}

type TransitionType string

const (
	TransitionCrossDissolve TransitionType = "crossDissolve"
	TransitionWipe          TransitionType = "wipe"
)

func (t TransitionType) Valid() bool {
	return t == TransitionCrossDissolve || t == TransitionWipe
}

type ShapeType string

const (
	ShapeRectangle ShapeType = "rectangle"
	ShapeCircle    ShapeType = "circle"
)

func (s ShapeType) Valid() bool {
	return s == ShapeRectangle || s == ShapeCircle
}

type Timeline struct {
	ID         string
	DurationMs int64
	FPS        float64
	Tracks     []Track
}

// Track is a horizontal lane. Its index is its position in Timeline.Tracks.
type Track struct {
	ID       string    `json:"id"`
	Type     TrackType `json:"type"`
	Name     string    `json:"name"`
	IsMuted  bool      `json:"isMuted"`
	IsLocked bool      `json:"isLocked"`
	Clips    []Clip    `json:"clips"`
}

// Clip occupies the half-open interval [StartMs, EndMs) on its track.
// Exactly one of Media, Text or Shape is set, selected by Kind.
type Clip struct {
	ID           string      `json:"id"`
	TrackID      string      `json:"trackId"`
	Kind         ClipKind    `json:"type"`
	StartMs      int64       `json:"startMs"`
	EndMs        int64       `json:"endMs"`
	TransitionIn *Transition `json:"transitionIn,omitempty"`
	Filter       *Filter     `json:"filter,omitempty"`

	Media *MediaProps `json:"media,omitempty"`
	Text  *TextProps  `json:"text,omitempty"`
	Shape *ShapeProps `json:"shape,omitempty"`
}

func (c *Clip) DurationMs() int64 {
	return c.EndMs - c.StartMs
}

// Intersects reports whether the clip overlaps [fromMs, toMs).
func (c *Clip) Intersects(fromMs, toMs int64) bool {
	return c.StartMs < toMs && c.EndMs > fromMs
}

type MediaProps struct {
	AssetID       string     `json:"assetId"`
	SourceStartMs int64      `json:"sourceStartMs"`
	Title         string     `json:"title,omitempty"`
	Opacity       Animatable `json:"opacity"`
	Volume        Animatable `json:"volume"`
}

type TextStyle struct {
	FontFamily      string  `json:"fontFamily"`
	FontSize        float64 `json:"fontSize"`
	Color           string  `json:"color"`
	BackgroundColor string  `json:"backgroundColor,omitempty"`
	TextAlign       string  `json:"textAlign"`
	Bold            bool    `json:"bold,omitempty"`
	Italic          bool    `json:"italic,omitempty"`
}

type TextProps struct {
	Content  string     `json:"content"`
	Style    TextStyle  `json:"style"`
	Position Point      `json:"position"`
	Size     Size       `json:"size"`
	Opacity  Animatable `json:"opacity"`
	Rotation Animatable `json:"rotation"`
	Scale    Animatable `json:"scale"`
}

type ShapeStyle struct {
	FillColor   string  `json:"fillColor"`
	StrokeColor string  `json:"strokeColor,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
	Opacity     float64 `json:"opacity"`
}

type ShapeProps struct {
	ShapeType ShapeType  `json:"shapeType"`
	Style     ShapeStyle `json:"style"`
	Position  Point      `json:"position"`
	Size      Size       `json:"size"`
	Opacity   Animatable `json:"opacity"`
	Rotation  Animatable `json:"rotation"`
	Scale     Animatable `json:"scale"`
}

// Point and Size are normalized to the frame, 0..1 on each axis.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Transition is attached to the clip that fades in.
type Transition struct {
	Type       TransitionType `json:"type"`
	DurationMs int64          `json:"durationMs"`
}

type Filter struct {
	Brightness float64 `json:"brightness"`
	Contrast   float64 `json:"contrast"`
	Saturation float64 `json:"saturation"`
	Grayscale  float64 `json:"grayscale"`
}

func IdentityFilter() Filter {
	return Filter{Brightness: 1, Contrast: 1, Saturation: 1, Grayscale: 0}
}

type Keyframe struct {
	ID     string  `json:"id"`
	TimeMs int64   `json:"timeMs"`
	Value  float64 `json:"value"`
	Easing Easing  `json:"easing"`
}

func NewID() string {
	return uuid.NewString()
}

// New returns an empty timeline with default duration and frame rate.
func New(id string) Timeline {
	if id == "" {
		id = NewID()
	}
	return Timeline{ID: id, DurationMs: DefaultDurationMs, FPS: DefaultFPS, Tracks: []Track{}}
}

func defaultMedia() *MediaProps {
	return &MediaProps{Opacity: Constant(1), Volume: Constant(1)}
}

func defaultText() *TextProps {
	return &TextProps{
		Content: "Text",
		Style: TextStyle{
			FontFamily: "Inter",
			FontSize:   48,
			Color:      "#ffffff",
			TextAlign:  "center",
		},
		Position: Point{X: 0.5, Y: 0.5},
		Size:     Size{Width: 0.5, Height: 0.2},
		Opacity:  Constant(1),
		Rotation: Constant(0),
		Scale:    Constant(1),
	}
}

func defaultShape() *ShapeProps {
	return &ShapeProps{
		ShapeType: ShapeRectangle,
		Style:     ShapeStyle{FillColor: "#ffffff", Opacity: 1},
		Position:  Point{X: 0.5, Y: 0.5},
		Size:      Size{Width: 0.25, Height: 0.25},
		Opacity:   Constant(1),
		Rotation:  Constant(0),
		Scale:     Constant(1),
	}
}

// NormalizePayload makes the variant payload match Kind: the payload for Kind
// is created with defaults when missing and payloads of other variants are
// dropped.
func (c *Clip) NormalizePayload() {
	switch {
	case c.Kind.IsMedia():
		if c.Media == nil {
			c.Media = defaultMedia()
		}
		c.Text, c.Shape = nil, nil
	case c.Kind == KindText:
		if c.Text == nil {
			c.Text = defaultText()
		}
		c.Media, c.Shape = nil, nil
	case c.Kind == KindShape:
		if c.Shape == nil {
			c.Shape = defaultShape()
		}
		c.Media, c.Text = nil, nil
	}
}

func NewMediaClip(kind ClipKind, assetID string, startMs, endMs int64) Clip {
	m := defaultMedia()
	m.AssetID = assetID
	return Clip{Kind: kind, StartMs: startMs, EndMs: endMs, Media: m}
}

func NewTextClip(content string, startMs, endMs int64) Clip {
	t := defaultText()
	t.Content = content
	return Clip{Kind: KindText, StartMs: startMs, EndMs: endMs, Text: t}
}

func NewShapeClip(shape ShapeType, startMs, endMs int64) Clip {
	s := defaultShape()
	s.ShapeType = shape
	return Clip{Kind: KindShape, StartMs: startMs, EndMs: endMs, Shape: s}
}

// Compatible reports whether a clip of kind may sit on a track of type tt.
// Visual clips share the visual group; audio only lands on audio.
func Compatible(kind ClipKind, tt TrackType) bool {
	if kind == KindAudio || tt == TrackAudio {
		return kind == KindAudio && tt == TrackAudio
	}
	return kind.Valid() && tt.Valid()
}

// NaturalTrackType is the track type created for a clip that needs a new lane.
func NaturalTrackType(kind ClipKind) TrackType {
	switch kind {
	case KindAudio:
		return TrackAudio
	case KindImage:
		return TrackImage
	case KindText:
		return TrackText
	case KindShape:
		return TrackShape
	default:
		return TrackVideo
	}
}
