// Package history keeps bounded undo and redo stacks of committed editor
// snapshots. Playback position and selection are never part of a snapshot,
// so moving through history does not displace the playhead.
package history

import (
	"github.com/heimdex/heimdex-timeline/internal/timeline"
)

const DefaultLimit = 100

// Snapshot is the history-scoped part of editor state.
type Snapshot struct {
	Timeline        timeline.Timeline
	ZoomLevel       float64
	SnappingEnabled bool
}

func (s Snapshot) clone() Snapshot {
	s.Timeline = s.Timeline.Clone()
	return s
}

type Manager struct {
	limit  int
	past   []Snapshot
	future []Snapshot
}

// New returns a manager holding at most limit undo entries. A non-positive
// limit selects DefaultLimit.
func New(limit int) *Manager {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Manager{limit: limit}
}

// Record pushes the state that existed before a committed change and clears
// the redo stack. The oldest entry is dropped once the limit is reached.
func (m *Manager) Record(prev Snapshot) {
	m.past = append(m.past, prev.clone())
	if over := len(m.past) - m.limit; over > 0 {
		m.past = append(m.past[:0], m.past[over:]...)
	}
	m.future = nil
}

// Undo swaps current with the most recent past entry.
func (m *Manager) Undo(current Snapshot) (Snapshot, bool) {
	if len(m.past) == 0 {
		return current, false
	}
	prev := m.past[len(m.past)-1]
	m.past = m.past[:len(m.past)-1]
	m.future = append(m.future, current.clone())
	return prev.clone(), true
}

// Redo swaps current with the most recently undone entry.
func (m *Manager) Redo(current Snapshot) (Snapshot, bool) {
	if len(m.future) == 0 {
		return current, false
	}
	next := m.future[len(m.future)-1]
	m.future = m.future[:len(m.future)-1]
	m.past = append(m.past, current.clone())
	return next.clone(), true
}

func (m *Manager) CanUndo() bool { return len(m.past) > 0 }

func (m *Manager) CanRedo() bool { return len(m.future) > 0 }

// Depth returns the sizes of the undo and redo stacks.
func (m *Manager) Depth() (undo, redo int) {
	return len(m.past), len(m.future)
}

func (m *Manager) Clear() {
	m.past = nil
	m.future = nil
}
