// Package snap resolves dragged or resized clip boundaries onto nearby
// points of interest: the composition start, the playhead and the edges of
// other clips.
package snap

import (
	"math"

	"github.com/heimdex/heimdex-timeline/internal/timeline"
)

// MagnetMs pulls any resolved time below it to exactly zero.
const MagnetMs int64 = 100

type Resolver struct {
	Enabled     bool
	PlayheadMs  int64
	ThresholdMs float64
}

// ThresholdFromPixels converts a screen-space snap distance into
// milliseconds at the current zoom, so snapping feels the same at any scale.
func ThresholdFromPixels(px, pxPerMs float64) float64 {
	if pxPerMs <= 0 {
		return 0
	}
	return px / pxPerMs
}

// Candidates lists the snap points of tl, skipping the edges of excludeClipID.
func (r *Resolver) Candidates(tl *timeline.Timeline, excludeClipID string) []int64 {
	points := []int64{0, r.PlayheadMs}
	for _, tr := range tl.Tracks {
		for _, c := range tr.Clips {
			if c.ID == excludeClipID {
				continue
			}
			points = append(points, c.StartMs, c.EndMs)
		}
	}
	return points
}

// Resolve returns the candidate nearest to proposedMs when it lies within the
// threshold, or proposedMs itself. A nil or disabled resolver is a no-op.
func (r *Resolver) Resolve(tl *timeline.Timeline, proposedMs int64, excludeClipID string) int64 {
	ms, _ := r.Snap(tl, proposedMs, excludeClipID)
	return ms
}

// Snap is Resolve that also reports whether the result came from a
// candidate or the zero magnet. A proposal sitting exactly on a candidate
// counts as snapped.
func (r *Resolver) Snap(tl *timeline.Timeline, proposedMs int64, excludeClipID string) (int64, bool) {
	if r == nil || !r.Enabled {
		return proposedMs, false
	}

	result := proposedMs
	found := false
	var best float64
	for _, p := range r.Candidates(tl, excludeClipID) {
		d := math.Abs(float64(p) - float64(proposedMs))
		if d > r.ThresholdMs {
			continue
		}
		if !found || d < best {
			result, best, found = p, d, true
		}
	}

	if result < MagnetMs {
		return 0, true
	}
	return result, found
}
