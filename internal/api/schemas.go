package api

import (
	"encoding/json"
	"time"

	"github.com/heimdex/heimdex-timeline/internal/edit"
	"github.com/heimdex/heimdex-timeline/internal/editor"
	"github.com/heimdex/heimdex-timeline/internal/gesture"
	"github.com/heimdex/heimdex-timeline/internal/project"
	"github.com/heimdex/heimdex-timeline/internal/timeline"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	UptimeS  int64  `json:"uptime_s"`
	DeviceID string `json:"device_id"`
}

type StatusResponse struct {
	State          string `json:"state"`
	OpenProjects   int    `json:"open_projects"`
	AutosavePaused bool   `json:"autosave_paused"`
	Saves          int64  `json:"saves"`
}

type ProjectResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Revision  int64  `json:"revision"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type ProjectsResponse struct {
	Projects []ProjectResponse `json:"projects"`
}

type ProjectDetailResponse struct {
	ProjectResponse
	State editor.State `json:"state"`
}

type CreateProjectRequest struct {
	Name  string          `json:"name"`
	State json.RawMessage `json:"state,omitempty"`
}

type RenameProjectRequest struct {
	Name string `json:"name"`
}

// SessionResponse is the live view of an open project.
type SessionResponse struct {
	Timeline        timeline.Timeline `json:"timeline"`
	ZoomLevel       float64           `json:"zoom_level"`
	SnappingEnabled bool              `json:"snapping_enabled"`
	PlayheadMs      int64             `json:"playhead_ms"`
	Selection       string            `json:"selection,omitempty"`
	Gesture         string            `json:"gesture"`
	CanUndo         bool              `json:"can_undo"`
	CanRedo         bool              `json:"can_redo"`
}

type CommandResponse struct {
	Changed   bool            `json:"changed"`
	CreatedID string          `json:"created_id,omitempty"`
	Session   SessionResponse `json:"session"`
}

type HistoryResponse struct {
	Undo    int  `json:"undo"`
	Redo    int  `json:"redo"`
	CanUndo bool `json:"can_undo"`
	CanRedo bool `json:"can_redo"`
}

type ClipsResponse struct {
	Clips []timeline.Clip `json:"clips"`
}

type KeyframesResponse struct {
	ClipID    string              `json:"clip_id"`
	Property  timeline.Property   `json:"property"`
	Keyframes []timeline.Keyframe `json:"keyframes"`
}

// ViewRequest updates view settings. Absent fields are left unchanged.
type ViewRequest struct {
	ZoomLevel       *float64 `json:"zoom_level,omitempty"`
	SnappingEnabled *bool    `json:"snapping_enabled,omitempty"`
	PlayheadMs      *int64   `json:"playhead_ms,omitempty"`
	Selection       *string  `json:"selection,omitempty"`
}

type PointerRequest struct {
	ClipID string         `json:"clip_id,omitempty"`
	Handle gesture.Handle `json:"handle,omitempty"`
	X      float64        `json:"x"`
	Y      float64        `json:"y"`
}

type GestureResponse struct {
	Active         bool            `json:"active"`
	Changed        bool            `json:"changed,omitempty"`
	TrackID        string          `json:"track_id,omitempty"`
	CreatedTrackID string          `json:"created_track_id,omitempty"`
	Session        SessionResponse `json:"session"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func ProjectToResponse(s *project.Summary) ProjectResponse {
	return ProjectResponse{
		ID:        s.ID,
		Name:      s.Name,
		Revision:  s.Revision,
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
		UpdatedAt: s.UpdatedAt.Format(time.RFC3339),
	}
}

func SessionToResponse(s *editor.Session) SessionResponse {
	st := s.State()
	return SessionResponse{
		Timeline:        s.View(),
		ZoomLevel:       st.ZoomLevel,
		SnappingEnabled: st.SnappingEnabled,
		PlayheadMs:      s.Playhead(),
		Selection:       s.Selection(),
		Gesture:         s.GestureState().String(),
		CanUndo:         s.CanUndo(),
		CanRedo:         s.CanRedo(),
	}
}

func resultToResponse(res edit.Result, s *editor.Session) CommandResponse {
	return CommandResponse{
		Changed:   res.Changed,
		CreatedID: res.CreatedID,
		Session:   SessionToResponse(s),
	}
}
