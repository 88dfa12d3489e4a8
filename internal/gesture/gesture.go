// Package gesture models a single pointer gesture on a clip as a small state
// machine: idle, dragging, or resizing one edge.
//
// A gesture captures the committed timeline when it starts and recomputes
// its preview from that baseline on every move, so deltas always refer to
// the gesture start and never accumulate rounding. The vertical component of
// a drag is resolved once, on release.
package gesture

import (
	"math"

	"github.com/heimdex/heimdex-timeline/internal/edit"
	"github.com/heimdex/heimdex-timeline/internal/snap"
	"github.com/heimdex/heimdex-timeline/internal/timeline"
)

type State int

const (
	Idle State = iota
	Dragging
	Resizing
)

func (s State) String() string {
	switch s {
	case Dragging:
		return "dragging"
	case Resizing:
		return "resizing"
	default:
		return "idle"
	}
}

// Handle is the part of a clip the pointer went down on.
type Handle string

const (
	HandleBody  Handle = "body"
	HandleLeft  Handle = "left"
	HandleRight Handle = "right"
)

// Geometry converts pointer pixels into timeline units.
type Geometry struct {
	PxPerMs         float64
	TrackHeightPx   float64
	SnapThresholdPx float64
}

// Capturer installs global pointer-move and pointer-up listeners for the
// duration of a gesture. The returned func removes them.
type Capturer interface {
	Capture() (release func())
}

// CapturerFunc adapts a plain function to Capturer.
type CapturerFunc func() func()

func (f CapturerFunc) Capture() func() { return f() }

// Press describes a pointer-down on a clip.
type Press struct {
	ClipID string
	Handle Handle
	X, Y   float64
}

// Outcome is what a finished gesture produced.
type Outcome struct {
	Before  timeline.Timeline
	After   timeline.Timeline
	Changed bool
	// TrackID is the track the clip ended up on.
	TrackID string
	// CreatedTrackID is set when dropping past the last track made a new one.
	CreatedTrackID string
}

type Machine struct {
	capturer Capturer

	state  State
	edge   edit.Edge
	clip   timeline.Clip
	origin [2]float64

	baseline timeline.Timeline
	preview  timeline.Timeline
	changed  bool

	geo     Geometry
	env     edit.Env
	release func()
}

// NewMachine returns an idle machine. A nil capturer is allowed.
func NewMachine(c Capturer) *Machine {
	return &Machine{capturer: c}
}

func (m *Machine) State() State { return m.state }

func (m *Machine) Active() bool { return m.state != Idle }

// ClipID is the clip under the active gesture, or "".
func (m *Machine) ClipID() string {
	if m.state == Idle {
		return ""
	}
	return m.clip.ID
}

// Edge is the edge being resized, or "".
func (m *Machine) Edge() edit.Edge {
	if m.state != Resizing {
		return ""
	}
	return m.edge
}

// Preview is the timeline as the active gesture currently shows it.
func (m *Machine) Preview() (timeline.Timeline, bool) {
	if m.state == Idle {
		return timeline.Timeline{}, false
	}
	return m.preview, true
}

// Down starts a gesture on a clip of tl. It is refused when a gesture is
// already active, the clip is unknown, or the clip's track is locked.
func (m *Machine) Down(tl timeline.Timeline, p Press, geo Geometry, env edit.Env) bool {
	if m.state != Idle {
		return false
	}
	ti, ci, ok := tl.Locate(p.ClipID)
	if !ok || tl.Tracks[ti].IsLocked {
		return false
	}

	switch p.Handle {
	case HandleBody:
		m.state = Dragging
	case HandleLeft:
		m.state, m.edge = Resizing, edit.EdgeLeft
	case HandleRight:
		m.state, m.edge = Resizing, edit.EdgeRight
	default:
		return false
	}

	if env.Snap != nil {
		r := *env.Snap
		r.ThresholdMs = snap.ThresholdFromPixels(geo.SnapThresholdPx, geo.PxPerMs)
		env.Snap = &r
	}

	m.clip = tl.Tracks[ti].Clips[ci].Clone()
	m.origin = [2]float64{p.X, p.Y}
	m.baseline = tl
	m.preview = tl
	m.changed = false
	m.geo = geo
	m.env = env
	if m.capturer != nil {
		m.release = m.capturer.Capture()
	}
	return true
}

// Move recomputes the preview for the pointer at (x, y). Only the time
// component is applied while dragging.
func (m *Machine) Move(x, y float64) (timeline.Timeline, bool) {
	if m.state == Idle {
		return timeline.Timeline{}, false
	}

	deltaMs := m.deltaMs(x)
	var res edit.Result
	switch m.state {
	case Dragging:
		start := m.dragStart(m.clip.StartMs + deltaMs)
		noSnap := m.env
		noSnap.Snap = nil
		m.preview, res = edit.Apply(m.baseline, edit.MoveClip{
			ClipID:  m.clip.ID,
			TrackID: m.clip.TrackID,
			StartMs: start,
		}, noSnap)
	case Resizing:
		m.preview, res = edit.Apply(m.baseline, edit.ResizeClip{
			ClipID:  m.clip.ID,
			Edge:    m.edge,
			DeltaMs: deltaMs,
		}, m.env)
	}
	m.changed = res.Changed
	return m.preview, true
}

// Up finishes the gesture at (x, y), releases the pointer capture and
// resolves any vertical track change of a drag.
func (m *Machine) Up(x, y float64) Outcome {
	if m.state == Idle {
		return Outcome{}
	}
	m.Move(x, y)

	out := Outcome{Before: m.baseline, TrackID: m.clip.TrackID}
	if m.state == Dragging {
		m.resolveTrack(y-m.origin[1], &out)
	}
	out.After = m.preview
	out.Changed = m.changed

	m.reset()
	return out
}

// Cancel abandons the gesture, e.g. when the hosting component is torn
// down, and returns the untouched baseline.
func (m *Machine) Cancel() (timeline.Timeline, bool) {
	if m.state == Idle {
		return timeline.Timeline{}, false
	}
	base := m.baseline
	m.reset()
	return base, true
}

func (m *Machine) resolveTrack(dy float64, out *Outcome) {
	if m.geo.TrackHeightPx <= 0 {
		return
	}
	delta := int(math.Round(dy / m.geo.TrackHeightPx))
	if delta == 0 {
		return
	}
	src := m.preview.TrackIndex(m.clip.TrackID)
	target := src + delta
	if src < 0 || target < 0 {
		return
	}

	moved := m.preview.FindClip(m.clip.ID)
	if moved == nil {
		return
	}
	start := moved.StartMs
	env := m.env
	env.Snap = nil

	var targetID string
	if target >= len(m.preview.Tracks) {
		next, res := edit.Apply(m.preview, edit.AddTrack{TrackType: timeline.NaturalTrackType(m.clip.Kind)}, env)
		if !res.Changed {
			return
		}
		m.preview = next
		targetID = res.CreatedID
		out.CreatedTrackID = targetID
	} else {
		tr := m.preview.Tracks[target]
		if tr.IsLocked || !timeline.Compatible(m.clip.Kind, tr.Type) {
			return
		}
		targetID = tr.ID
	}

	next, res := edit.Apply(m.preview, edit.MoveClip{ClipID: m.clip.ID, TrackID: targetID, StartMs: start}, env)
	if res.Changed {
		m.preview = next
		m.changed = true
		out.TrackID = targetID
	}
}

// dragStart snaps the proposed start, falling back to snapping the end
// only when the start hit nothing.
func (m *Machine) dragStart(proposed int64) int64 {
	if m.env.Snap == nil || !m.env.Snap.Enabled {
		return proposed
	}
	if start, ok := m.env.Snap.Snap(&m.baseline, proposed, m.clip.ID); ok {
		return start
	}
	dur := m.clip.DurationMs()
	end, _ := m.env.Snap.Snap(&m.baseline, proposed+dur, m.clip.ID)
	return end - dur
}

func (m *Machine) deltaMs(x float64) int64 {
	if m.geo.PxPerMs <= 0 {
		return 0
	}
	d := math.Round((x - m.origin[0]) / m.geo.PxPerMs)
	limit := float64(timeline.MaxTimeMs)
	switch {
	case math.IsNaN(d):
		return 0
	case d > limit:
		return timeline.MaxTimeMs
	case d < -limit:
		return -timeline.MaxTimeMs
	}
	return int64(d)
}

func (m *Machine) reset() {
	if m.release != nil {
		m.release()
		m.release = nil
	}
	m.state = Idle
	m.edge = ""
	m.clip = timeline.Clip{}
	m.baseline = timeline.Timeline{}
	m.preview = timeline.Timeline{}
	m.changed = false
}
