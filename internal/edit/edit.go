// Package edit is the mutation engine. Every operation is a Command applied
// to a Timeline value with Apply, which never modifies its input and never
// fails: unknown ids and out-of-range requests clamp or leave the timeline
// untouched so an interactive gesture is never interrupted.
package edit

import (
	"math"

	"github.com/heimdex/heimdex-timeline/internal/snap"
	"github.com/heimdex/heimdex-timeline/internal/timeline"
)

// Env carries the collaborators a command may need.
type Env struct {
	// NewID generates ids for created tracks, clips and keyframes.
	// timeline.NewID is used when nil.
	NewID func() string
	// Snap resolves proposed resize boundaries. Nil disables snapping.
	Snap *snap.Resolver
}

func (e Env) id() string {
	if e.NewID != nil {
		return e.NewID()
	}
	return timeline.NewID()
}

// Result describes what a command did.
type Result struct {
	Changed bool
	// CreatedID is the id of the track, clip or keyframe the command created.
	CreatedID string
	// Select, when non-empty, is the clip that should become the sole selection.
	Select string
}

// Command is one operation of the mutation engine.
type Command interface {
	// Op is the command's wire discriminant.
	Op() string
	apply(tl *timeline.Timeline, env Env) Result
}

// Apply runs cmd against a copy of tl and returns the copy.
func Apply(tl timeline.Timeline, cmd Command, env Env) (timeline.Timeline, Result) {
	if cmd == nil {
		return tl, Result{}
	}
	next := tl.Clone()
	res := cmd.apply(&next, env)
	if !res.Changed {
		return tl, res
	}
	if end := next.MaxEndMs(); end > next.DurationMs {
		next.DurationMs = end
	}
	return next, res
}

func clampStart(ms int64) int64 {
	if ms < 0 {
		return 0
	}
	return ms
}

// clampTime bounds ms to [0, timeline.MaxTimeMs].
func clampTime(ms int64) int64 {
	if ms > timeline.MaxTimeMs {
		return timeline.MaxTimeMs
	}
	return clampStart(ms)
}

// addMs adds a wire-supplied delta without wrapping around.
func addMs(a, b int64) int64 {
	sum := a + b
	switch {
	case b > 0 && sum < a:
		return math.MaxInt64
	case b < 0 && sum > a:
		return math.MinInt64
	}
	return sum
}

// placeSpan puts an interval of length dur at start, moving start back when
// the interval would run past timeline.MaxTimeMs.
func placeSpan(start, dur int64) (int64, int64) {
	start = clampTime(start)
	if dur > timeline.MaxTimeMs {
		dur = timeline.MaxTimeMs
	}
	if start > timeline.MaxTimeMs-dur {
		start = timeline.MaxTimeMs - dur
	}
	return start, start + dur
}

func removeClipAt(tr *timeline.Track, idx int) timeline.Clip {
	c := tr.Clips[idx]
	tr.Clips = append(tr.Clips[:idx], tr.Clips[idx+1:]...)
	return c
}

func insertClipAt(tr *timeline.Track, idx int, c timeline.Clip) {
	tr.Clips = append(tr.Clips, timeline.Clip{})
	copy(tr.Clips[idx+1:], tr.Clips[idx:])
	tr.Clips[idx] = c
}
