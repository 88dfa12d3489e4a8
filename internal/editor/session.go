// Package editor ties the engine together into an editing session: the
// committed state, the live gesture preview, selection, playhead and history.
//
// A Session is not safe for concurrent use. Callers that share one across
// goroutines must serialize access.
package editor

import (
	"fmt"
	"log/slog"

	"github.com/heimdex/heimdex-timeline/internal/edit"
	"github.com/heimdex/heimdex-timeline/internal/gesture"
	"github.com/heimdex/heimdex-timeline/internal/history"
	"github.com/heimdex/heimdex-timeline/internal/logging"
	"github.com/heimdex/heimdex-timeline/internal/snap"
	"github.com/heimdex/heimdex-timeline/internal/timeline"
)

// Zoom is expressed in pixels per second of timeline.
const (
	DefaultZoom = 100.0
	MinZoom     = 5.0
	MaxZoom     = 2000.0

	DefaultTrackHeightPx   = 64.0
	DefaultSnapThresholdPx = 10.0
)

// State is the durable part of a session. Playhead and selection are not
// persisted and never enter history.
type State struct {
	Timeline        timeline.Timeline `json:"timeline"`
	ZoomLevel       float64           `json:"zoomLevel"`
	SnappingEnabled bool              `json:"snappingEnabled"`
}

// NewState wraps tl with the default view settings.
func NewState(tl timeline.Timeline) State {
	return State{Timeline: tl, ZoomLevel: DefaultZoom, SnappingEnabled: true}
}

func (s State) Clone() State {
	s.Timeline = s.Timeline.Clone()
	return s
}

// Validate checks a decoded state before a session is opened on it.
func (s *State) Validate() error {
	if s.ZoomLevel <= 0 {
		return fmt.Errorf("%w: zoom level %v", timeline.ErrInvalidTimeline, s.ZoomLevel)
	}
	return s.Timeline.Validate()
}

func (s State) snapshot() history.Snapshot {
	return history.Snapshot{Timeline: s.Timeline, ZoomLevel: s.ZoomLevel, SnappingEnabled: s.SnappingEnabled}
}

func fromSnapshot(h history.Snapshot) State {
	return State{Timeline: h.Timeline, ZoomLevel: h.ZoomLevel, SnappingEnabled: h.SnappingEnabled}
}

type Options struct {
	HistoryLimit    int
	TrackHeightPx   float64
	SnapThresholdPx float64
	// NewID overrides id generation for created tracks, clips and keyframes.
	NewID    func() string
	Capturer gesture.Capturer
	Logger   *slog.Logger
	// OnCommit is called with a copy of the state after every change that
	// should be persisted. It must not call back into the session.
	OnCommit func(State)
}

type Session struct {
	state     State
	playhead  int64
	selection string

	history *history.Manager
	gesture *gesture.Machine
	opts    Options
	logger  *slog.Logger
}

func New(state State, opts Options) *Session {
	if opts.TrackHeightPx <= 0 {
		opts.TrackHeightPx = DefaultTrackHeightPx
	}
	if opts.SnapThresholdPx <= 0 {
		opts.SnapThresholdPx = DefaultSnapThresholdPx
	}
	if state.ZoomLevel <= 0 {
		state.ZoomLevel = DefaultZoom
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Session{
		state:   state.Clone(),
		history: history.New(opts.HistoryLimit),
		gesture: gesture.NewMachine(opts.Capturer),
		opts:    opts,
		logger:  logger,
	}
}

// State returns a copy of the committed state.
func (s *Session) State() State { return s.state.Clone() }

// View is the timeline to render: the gesture preview while one is active,
// otherwise the committed timeline.
func (s *Session) View() timeline.Timeline {
	if preview, ok := s.gesture.Preview(); ok {
		return preview.Clone()
	}
	return s.state.Timeline.Clone()
}

// Dispatch applies a discrete command. An active gesture is cancelled first
// so its baseline never goes stale.
func (s *Session) Dispatch(cmd edit.Command) edit.Result {
	s.PointerCancel()
	next, res := edit.Apply(s.state.Timeline, cmd, s.env())
	if !res.Changed {
		return res
	}
	s.commit(next, cmd.Op())
	if res.Select != "" {
		s.selection = res.Select
	}
	return res
}

// PointerDown selects the clip under the pointer and starts a gesture on it.
// Selection succeeds on locked tracks; the gesture does not. A press while
// another gesture is running changes nothing.
func (s *Session) PointerDown(p gesture.Press) bool {
	if s.gesture.Active() || s.state.Timeline.FindClip(p.ClipID) == nil {
		return false
	}
	s.selection = p.ClipID
	return s.gesture.Down(s.state.Timeline, p, s.Geometry(), s.env())
}

func (s *Session) PointerMove(x, y float64) (timeline.Timeline, bool) {
	preview, ok := s.gesture.Move(x, y)
	if !ok {
		return timeline.Timeline{}, false
	}
	return preview.Clone(), true
}

// PointerUp ends the gesture and commits its outcome as one history entry.
func (s *Session) PointerUp(x, y float64) gesture.Outcome {
	out := s.gesture.Up(x, y)
	if out.Changed {
		s.commit(out.After, "gesture")
	}
	return out
}

// PointerCancel drops an active gesture without committing it.
func (s *Session) PointerCancel() bool {
	_, ok := s.gesture.Cancel()
	return ok
}

func (s *Session) GestureState() gesture.State { return s.gesture.State() }

func (s *Session) Undo() bool {
	s.PointerCancel()
	prev, ok := s.history.Undo(s.state.snapshot())
	if !ok {
		return false
	}
	s.restore(fromSnapshot(prev), "undo")
	return true
}

func (s *Session) Redo() bool {
	s.PointerCancel()
	next, ok := s.history.Redo(s.state.snapshot())
	if !ok {
		return false
	}
	s.restore(fromSnapshot(next), "redo")
	return true
}

func (s *Session) CanUndo() bool { return s.history.CanUndo() }

func (s *Session) CanRedo() bool { return s.history.CanRedo() }

// HistoryDepth returns the number of undo and redo entries.
func (s *Session) HistoryDepth() (undo, redo int) { return s.history.Depth() }

// SetZoom changes pixels per second, clamped to [MinZoom, MaxZoom]. View
// changes are persisted but do not create history entries.
func (s *Session) SetZoom(z float64) {
	if z < MinZoom {
		z = MinZoom
	}
	if z > MaxZoom {
		z = MaxZoom
	}
	if z == s.state.ZoomLevel {
		return
	}
	s.state.ZoomLevel = z
	s.notify()
}

func (s *Session) SetSnapping(enabled bool) {
	if enabled == s.state.SnappingEnabled {
		return
	}
	s.state.SnappingEnabled = enabled
	s.notify()
}

func (s *Session) SetPlayhead(ms int64) {
	if ms < 0 {
		ms = 0
	}
	s.playhead = ms
}

func (s *Session) Playhead() int64 { return s.playhead }

// Select makes clipID the sole selection. An empty or unknown id clears it.
func (s *Session) Select(clipID string) {
	if s.state.Timeline.FindClip(clipID) == nil {
		s.selection = ""
		return
	}
	s.selection = clipID
}

func (s *Session) Selection() string { return s.selection }

// Geometry converts the current zoom into gesture units.
func (s *Session) Geometry() gesture.Geometry {
	return gesture.Geometry{
		PxPerMs:         s.state.ZoomLevel / 1000,
		TrackHeightPx:   s.opts.TrackHeightPx,
		SnapThresholdPx: s.opts.SnapThresholdPx,
	}
}

func (s *Session) env() edit.Env {
	g := s.Geometry()
	return edit.Env{
		NewID: s.opts.NewID,
		Snap: &snap.Resolver{
			Enabled:     s.state.SnappingEnabled,
			PlayheadMs:  s.playhead,
			ThresholdMs: snap.ThresholdFromPixels(g.SnapThresholdPx, g.PxPerMs),
		},
	}
}

func (s *Session) commit(next timeline.Timeline, op string) {
	s.history.Record(s.state.snapshot())
	s.state.Timeline = next
	s.pruneSelection()
	s.logger.Debug("timeline committed",
		"op", op,
		logging.TimelineAttrs(len(next.Tracks), next.ClipCount(), next.DurationMs),
	)
	s.notify()
}

func (s *Session) restore(st State, op string) {
	s.state = st
	s.pruneSelection()
	s.logger.Debug("history restored", "op", op, "clips", st.Timeline.ClipCount())
	s.notify()
}

func (s *Session) pruneSelection() {
	if s.selection != "" && s.state.Timeline.FindClip(s.selection) == nil {
		s.selection = ""
	}
}

func (s *Session) notify() {
	if s.opts.OnCommit != nil {
		s.opts.OnCommit(s.state.Clone())
	}
}
