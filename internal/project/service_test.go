package project

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/heimdex/heimdex-timeline/internal/db"
	"github.com/heimdex/heimdex-timeline/internal/edit"
	"github.com/heimdex/heimdex-timeline/internal/editor"
	"github.com/heimdex/heimdex-timeline/internal/timeline"
)

func setupTestDB(t *testing.T) (*db.DB, *SQLiteRepository) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	database, err := db.New(dbPath, nil)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	return database, NewRepository(database.Conn())
}

func newTestService(t *testing.T) (*Service, *SQLiteRepository) {
	t.Helper()
	_, repo := setupTestDB(t)
	return NewService(repo, SessionOptions{HistoryLimit: 10}, nil), repo
}

func TestService_CreateAndGet(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, "  Trailer  ", nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if p.ID == "" || p.Name != "Trailer" {
		t.Errorf("project = %+v", p)
	}
	if p.State.ZoomLevel != editor.DefaultZoom || !p.State.SnappingEnabled {
		t.Errorf("state defaults = %+v", p.State)
	}

	got, err := svc.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.State.Timeline.ID != p.State.Timeline.ID || got.State.Timeline.DurationMs != timeline.DefaultDurationMs {
		t.Errorf("stored timeline = %+v", got.State.Timeline)
	}

	if _, err := svc.Get(ctx, "missing"); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrProjectNotFound", err)
	}
}

func TestService_CreateRejectsInvalidState(t *testing.T) {
	svc, _ := newTestService(t)
	st := editor.NewState(timeline.New("tl"))
	bad := timeline.NewMediaClip(timeline.KindVideo, "a", 0, 100)
	bad.ID, bad.TrackID = "c", "v1"
	st.Timeline.Tracks = []timeline.Track{{ID: "v1", Type: timeline.TrackVideo, Name: "Video 1", Clips: []timeline.Clip{bad}}}

	if _, err := svc.Create(context.Background(), "bad", &st); !errors.Is(err, timeline.ErrInvalidTimeline) {
		t.Errorf("Create() error = %v, want ErrInvalidTimeline", err)
	}
}

func TestService_EditAndSave(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	p, _ := svc.Create(ctx, "Cut", nil)

	err := svc.WithSession(ctx, p.ID, func(s *editor.Session) error {
		res := s.Dispatch(edit.AddTrack{TrackType: timeline.TrackVideo, ID: "v1"})
		if !res.Changed {
			t.Error("AddTrack did not change the timeline")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithSession() error = %v", err)
	}
	if svc.OpenCount() != 1 {
		t.Errorf("OpenCount() = %d, want 1", svc.OpenCount())
	}

	live, _ := svc.Get(ctx, p.ID)
	if len(live.State.Timeline.Tracks) != 1 {
		t.Error("Get() does not reflect the open session")
	}
	stored, _ := repo.GetProject(ctx, p.ID)
	if len(stored.State.Timeline.Tracks) != 0 {
		t.Error("state reached storage before a save")
	}

	n, err := svc.SaveDirty(ctx)
	if err != nil || n != 1 {
		t.Fatalf("SaveDirty() = %d, %v; want 1, nil", n, err)
	}
	stored, _ = repo.GetProject(ctx, p.ID)
	if len(stored.State.Timeline.Tracks) != 1 || stored.Revision != 1 {
		t.Errorf("stored tracks=%d revision=%d, want 1/1", len(stored.State.Timeline.Tracks), stored.Revision)
	}

	if n, _ := svc.SaveDirty(ctx); n != 0 {
		t.Errorf("second SaveDirty() saved %d projects, want 0", n)
	}
}

// stallingRepo holds the first SaveState call until release is closed.
type stallingRepo struct {
	*SQLiteRepository
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (r *stallingRepo) SaveState(ctx context.Context, id string, state editor.State, updatedAt time.Time) (int64, error) {
	first := false
	r.once.Do(func() { first = true })
	if first {
		close(r.entered)
		<-r.release
	}
	return r.SQLiteRepository.SaveState(ctx, id, state, updatedAt)
}

func TestService_OverlappingSavesKeepNewestState(t *testing.T) {
	_, sqlRepo := setupTestDB(t)
	repo := &stallingRepo{SQLiteRepository: sqlRepo, entered: make(chan struct{}), release: make(chan struct{})}
	svc := NewService(repo, SessionOptions{HistoryLimit: 10}, nil)
	ctx := context.Background()
	p, _ := svc.Create(ctx, "Race", nil)

	addTrack := func(id string) {
		t.Helper()
		err := svc.WithSession(ctx, p.ID, func(s *editor.Session) error {
			s.Dispatch(edit.AddTrack{TrackType: timeline.TrackVideo, ID: id})
			return nil
		})
		if err != nil {
			t.Fatalf("WithSession() error = %v", err)
		}
	}

	addTrack("v1")
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		svc.SaveDirty(ctx)
	}()
	<-repo.entered

	// Edit while the first write is stalled, then start a second save.
	addTrack("v2")
	go func() {
		defer wg.Done()
		svc.SaveDirty(ctx)
	}()
	time.Sleep(20 * time.Millisecond)
	close(repo.release)
	wg.Wait()

	stored, err := sqlRepo.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProject() error = %v", err)
	}
	if got := len(stored.State.Timeline.Tracks); got != 2 {
		t.Fatalf("stored tracks = %d, want 2", got)
	}
	if n, _ := svc.SaveDirty(ctx); n != 0 {
		t.Errorf("SaveDirty() after catching up saved %d, want 0", n)
	}
}

func TestService_EditDuringSaveStaysDirty(t *testing.T) {
	_, sqlRepo := setupTestDB(t)
	repo := &stallingRepo{SQLiteRepository: sqlRepo, entered: make(chan struct{}), release: make(chan struct{})}
	svc := NewService(repo, SessionOptions{HistoryLimit: 10}, nil)
	ctx := context.Background()
	p, _ := svc.Create(ctx, "Race", nil)

	edit1 := func(s *editor.Session) error {
		s.Dispatch(edit.AddTrack{TrackType: timeline.TrackAudio})
		return nil
	}
	if err := svc.WithSession(ctx, p.ID, edit1); err != nil {
		t.Fatalf("WithSession() error = %v", err)
	}

	done := make(chan struct{})
	go func() {
		svc.SaveDirty(ctx)
		close(done)
	}()
	<-repo.entered
	if err := svc.WithSession(ctx, p.ID, edit1); err != nil {
		t.Fatalf("WithSession() error = %v", err)
	}
	close(repo.release)
	<-done

	n, err := svc.SaveDirty(ctx)
	if err != nil || n != 1 {
		t.Fatalf("SaveDirty() = %d, %v; want the later edit saved", n, err)
	}
	stored, _ := sqlRepo.GetProject(ctx, p.ID)
	if got := len(stored.State.Timeline.Tracks); got != 2 {
		t.Errorf("stored tracks = %d, want 2", got)
	}
}

func TestService_ViewChangesAreSaved(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	p, _ := svc.Create(ctx, "Zoom", nil)

	svc.WithSession(ctx, p.ID, func(s *editor.Session) error {
		s.SetZoom(300)
		s.SetPlayhead(1234)
		return nil
	})
	if err := svc.Save(ctx, p.ID); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	stored, _ := repo.GetProject(ctx, p.ID)
	if stored.State.ZoomLevel != 300 {
		t.Errorf("stored zoom = %v, want 300", stored.State.ZoomLevel)
	}
}

func TestService_WithSessionUnknownProject(t *testing.T) {
	svc, _ := newTestService(t)
	called := false
	err := svc.WithSession(context.Background(), "nope", func(*editor.Session) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrProjectNotFound) || called {
		t.Errorf("WithSession() error = %v called = %v", err, called)
	}
}

func TestService_ListRenameDelete(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a, _ := svc.Create(ctx, "A", nil)
	b, _ := svc.Create(ctx, "B", nil)

	if err := svc.Rename(ctx, a.ID, "Alpha"); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	if err := svc.Rename(ctx, "missing", "x"); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("Rename(missing) error = %v", err)
	}

	svc.WithSession(ctx, b.ID, func(*editor.Session) error { return nil })
	if err := svc.Delete(ctx, b.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if svc.OpenCount() != 0 {
		t.Error("Delete() left the session open")
	}
	if err := svc.Delete(ctx, b.ID); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("second Delete() error = %v", err)
	}

	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 1 || list[0].Name != "Alpha" {
		t.Errorf("List() = %+v", list)
	}
}

func TestService_EnsureAuthTokenStable(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.EnsureAuthToken(ctx)
	if err != nil {
		t.Fatalf("EnsureAuthToken() error = %v", err)
	}
	if len(first) != 64 {
		t.Errorf("token length = %d, want 64", len(first))
	}
	second, _ := svc.EnsureAuthToken(ctx)
	if first != second {
		t.Error("EnsureAuthToken() generated a new token on second call")
	}

	device, _ := svc.EnsureDeviceID(ctx)
	if device == "" || device == first {
		t.Errorf("device id = %q", device)
	}
}

func TestRepository_SaveStateMissingProject(t *testing.T) {
	_, repo := setupTestDB(t)
	_, err := repo.SaveState(context.Background(), "missing", editor.NewState(timeline.New("x")), time.Now())
	if !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("SaveState() error = %v, want ErrProjectNotFound", err)
	}
}
