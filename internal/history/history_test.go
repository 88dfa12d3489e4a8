package history

import (
	"testing"

	"github.com/heimdex/heimdex-timeline/internal/timeline"
)

func snapAt(durationMs int64) Snapshot {
	tl := timeline.New("tl")
	tl.DurationMs = durationMs
	return Snapshot{Timeline: tl, ZoomLevel: 100, SnappingEnabled: true}
}

func TestUndoRedo(t *testing.T) {
	m := New(10)
	if m.CanUndo() || m.CanRedo() {
		t.Fatal("fresh manager should have nothing to undo or redo")
	}

	cur := snapAt(1)
	for d := int64(2); d <= 4; d++ {
		m.Record(cur)
		cur = snapAt(d)
	}

	for want := int64(3); want >= 1; want-- {
		var ok bool
		cur, ok = m.Undo(cur)
		if !ok || cur.Timeline.DurationMs != want {
			t.Fatalf("Undo() = %d,%v, want %d,true", cur.Timeline.DurationMs, ok, want)
		}
	}
	if m.CanUndo() {
		t.Error("CanUndo() = true after undoing everything")
	}
	if _, ok := m.Undo(cur); ok {
		t.Error("Undo() on empty stack reported success")
	}

	cur, ok := m.Redo(cur)
	if !ok || cur.Timeline.DurationMs != 2 {
		t.Fatalf("Redo() = %d,%v, want 2,true", cur.Timeline.DurationMs, ok)
	}
	if undo, redo := m.Depth(); undo != 1 || redo != 2 {
		t.Errorf("Depth() = %d,%d, want 1,2", undo, redo)
	}
}

func TestRecordClearsRedo(t *testing.T) {
	m := New(10)
	m.Record(snapAt(1))
	cur, _ := m.Undo(snapAt(2))
	if !m.CanRedo() {
		t.Fatal("expected redo entry")
	}
	m.Record(cur)
	if m.CanRedo() {
		t.Error("Record() should clear the redo stack")
	}
}

func TestLimit(t *testing.T) {
	m := New(3)
	for d := int64(1); d <= 5; d++ {
		m.Record(snapAt(d))
	}
	if undo, _ := m.Depth(); undo != 3 {
		t.Fatalf("undo depth = %d, want 3", undo)
	}

	cur := snapAt(6)
	for i := 0; i < 3; i++ {
		cur, _ = m.Undo(cur)
	}
	if cur.Timeline.DurationMs != 3 {
		t.Errorf("oldest retained entry = %d, want 3", cur.Timeline.DurationMs)
	}
}

func TestSnapshotsAreIsolated(t *testing.T) {
	m := New(0)
	s := snapAt(1)
	s.Timeline.Tracks = []timeline.Track{{ID: "t", Type: timeline.TrackVideo, Name: "Video 1"}}
	m.Record(s)
	s.Timeline.Tracks[0].Name = "changed"

	got, _ := m.Undo(snapAt(2))
	if got.Timeline.Tracks[0].Name != "Video 1" {
		t.Error("recorded snapshot shares storage with the caller")
	}
}
