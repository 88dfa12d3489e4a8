package project

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/heimdex/heimdex-timeline/internal/editor"
	"github.com/heimdex/heimdex-timeline/internal/logging"
	"github.com/heimdex/heimdex-timeline/internal/timeline"
)

// SessionOptions configures the editing sessions the service opens.
type SessionOptions struct {
	HistoryLimit    int
	TrackHeightPx   float64
	SnapThresholdPx float64
	// NewID overrides id generation inside sessions.
	NewID func() string
}

type ProjectService interface {
	Create(ctx context.Context, name string, state *editor.State) (*Project, error)
	Get(ctx context.Context, id string) (*Project, error)
	List(ctx context.Context) ([]*Summary, error)
	Rename(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
	WithSession(ctx context.Context, id string, fn func(*editor.Session) error) error
	Save(ctx context.Context, id string) error
	SaveDirty(ctx context.Context) (int, error)
	OpenCount() int
}

// openProject is a loaded session. mu serializes every use of session and
// guards dirty and commits, which the session's commit hook updates.
// saveMu is held from the state snapshot until the write finishes so saves
// of one project reach storage in order.
type openProject struct {
	mu      sync.Mutex
	saveMu  sync.Mutex
	id      string
	session *editor.Session
	dirty   bool
	commits uint64
}

type Service struct {
	repo   Repository
	opts   SessionOptions
	logger *slog.Logger

	mu   sync.Mutex
	open map[string]*openProject
}

func NewService(repo Repository, opts SessionOptions, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		opts:   opts,
		logger: logger,
		open:   make(map[string]*openProject),
	}
}

// Create stores a new project. A nil state starts an empty timeline.
func (s *Service) Create(ctx context.Context, name string, state *editor.State) (*Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Untitled"
	}

	var st editor.State
	if state != nil {
		st = state.Clone()
		if st.ZoomLevel == 0 {
			st.ZoomLevel = editor.DefaultZoom
		}
		if st.Timeline.ID == "" {
			st.Timeline.ID = timeline.NewID()
		}
		if err := st.Validate(); err != nil {
			return nil, err
		}
	} else {
		st = editor.NewState(timeline.New(timeline.NewID()))
	}

	now := time.Now().UTC()
	p := &Project{
		ID:        timeline.NewID(),
		Name:      name,
		State:     st,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateProject(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("project created", "project_id", p.ID, "name", p.Name)
	}
	return p, nil
}

// Get returns a project. For an open project the state is the live
// committed state, which may be newer than what is stored.
func (s *Service) Get(ctx context.Context, id string) (*Project, error) {
	p, err := s.repo.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProjectNotFound
	}

	s.mu.Lock()
	op := s.open[id]
	s.mu.Unlock()
	if op != nil {
		op.mu.Lock()
		p.State = op.session.State()
		op.mu.Unlock()
	}
	return p, nil
}

func (s *Service) List(ctx context.Context) ([]*Summary, error) {
	return s.repo.ListProjects(ctx)
}

func (s *Service) Rename(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("project name is required")
	}
	return s.repo.RenameProject(ctx, id, name)
}

// Delete closes the project's session without saving and removes it.
func (s *Service) Delete(ctx context.Context, id string) error {
	p, err := s.repo.GetProject(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrProjectNotFound
	}

	s.mu.Lock()
	delete(s.open, id)
	s.mu.Unlock()

	if err := s.repo.DeleteProject(ctx, id); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if s.logger != nil {
		s.logger.Info("project deleted", "project_id", id)
	}
	return nil
}

// WithSession runs fn with exclusive access to the project's editing
// session, opening it from storage on first use.
func (s *Service) WithSession(ctx context.Context, id string, fn func(*editor.Session) error) error {
	op, err := s.session(ctx, id)
	if err != nil {
		return err
	}
	op.mu.Lock()
	defer op.mu.Unlock()
	return fn(op.session)
}

func (s *Service) session(ctx context.Context, id string) (*openProject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if op, ok := s.open[id]; ok {
		return op, nil
	}

	p, err := s.repo.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProjectNotFound
	}
	if err := p.State.Validate(); err != nil {
		return nil, fmt.Errorf("project %s has invalid state: %w", id, err)
	}

	op := &openProject{id: id}
	var logger *slog.Logger
	if s.logger != nil {
		logger = logging.WithProjectID(logging.WithComponent(s.logger, "editor"), id)
	}
	op.session = editor.New(p.State, editor.Options{
		HistoryLimit:    s.opts.HistoryLimit,
		TrackHeightPx:   s.opts.TrackHeightPx,
		SnapThresholdPx: s.opts.SnapThresholdPx,
		NewID:           s.opts.NewID,
		Logger:          logger,
		// Runs inside WithSession, so op.mu is already held.
		OnCommit: func(editor.State) {
			op.dirty = true
			op.commits++
		},
	})
	s.open[id] = op

	if s.logger != nil {
		s.logger.Info("project opened", "project_id", id, "clips", p.State.Timeline.ClipCount())
	}
	return op, nil
}

// Save persists an open project if it has unsaved changes.
func (s *Service) Save(ctx context.Context, id string) error {
	s.mu.Lock()
	op := s.open[id]
	s.mu.Unlock()
	if op == nil {
		return nil
	}
	_, err := s.save(ctx, op)
	return err
}

// SaveDirty persists every open project with unsaved changes and reports how
// many were written. It keeps going past failures and returns the first one.
func (s *Service) SaveDirty(ctx context.Context) (int, error) {
	s.mu.Lock()
	open := make([]*openProject, 0, len(s.open))
	for _, op := range s.open {
		open = append(open, op)
	}
	s.mu.Unlock()

	saved := 0
	var firstErr error
	for _, op := range open {
		ok, err := s.save(ctx, op)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if ok {
			saved++
		}
	}
	return saved, firstErr
}

func (s *Service) save(ctx context.Context, op *openProject) (bool, error) {
	op.saveMu.Lock()
	defer op.saveMu.Unlock()

	op.mu.Lock()
	if !op.dirty {
		op.mu.Unlock()
		return false, nil
	}
	state := op.session.State()
	commits := op.commits
	op.mu.Unlock()

	revision, err := s.repo.SaveState(ctx, op.id, state, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("failed to save project %s: %w", op.id, err)
	}

	// Edits made during the write stay dirty for the next save.
	op.mu.Lock()
	if op.commits == commits {
		op.dirty = false
	}
	op.mu.Unlock()

	if s.logger != nil {
		s.logger.Debug("project saved", "project_id", op.id, "revision", revision)
	}
	return true, nil
}

// OpenCount is the number of projects with a live session.
func (s *Service) OpenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.open)
}

// EnsureAuthToken returns the API token, generating and storing one on
// first start.
func (s *Service) EnsureAuthToken(ctx context.Context) (string, error) {
	return s.ensureConfig(ctx, ConfigKeyAuthToken, 32)
}

func (s *Service) EnsureDeviceID(ctx context.Context) (string, error) {
	return s.ensureConfig(ctx, ConfigKeyDeviceID, 16)
}

func (s *Service) ensureConfig(ctx context.Context, key string, size int) (string, error) {
	value, err := s.repo.GetConfig(ctx, key)
	if err != nil {
		return "", err
	}
	if value != "" {
		return value, nil
	}

	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", key, err)
	}
	value = hex.EncodeToString(b)
	if err := s.repo.SetConfig(ctx, key, value); err != nil {
		return "", err
	}
	return value, nil
}
