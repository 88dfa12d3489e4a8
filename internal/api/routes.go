package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/heimdex/heimdex-timeline/internal/edit"
	"github.com/heimdex/heimdex-timeline/internal/editor"
	"github.com/heimdex/heimdex-timeline/internal/export"
	"github.com/heimdex/heimdex-timeline/internal/project"
	"github.com/heimdex/heimdex-timeline/internal/timeline"
)

const maxBodyBytes = 16 << 20

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(CORSAllowlist())

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Config, cfg.Logger))

		r.Get("/status", statusHandler(cfg))

		r.Get("/projects", listProjectsHandler(cfg))
		r.Post("/projects", createProjectHandler(cfg))

		r.Route("/projects/{id}", func(r chi.Router) {
			r.Get("/", getProjectHandler(cfg))
			r.Patch("/", renameProjectHandler(cfg))
			r.Delete("/", deleteProjectHandler(cfg))

			r.Get("/session", sessionHandler(cfg))
			r.Post("/commands", commandHandler(cfg))
			r.Post("/undo", undoHandler(cfg))
			r.Post("/redo", redoHandler(cfg))
			r.Get("/history", historyHandler(cfg))
			r.Get("/clips", clipsHandler(cfg))
			r.Get("/clips/{clipID}/keyframes/{property}", keyframesHandler(cfg))
			r.Put("/view", viewHandler(cfg))
			r.Post("/gesture/{action}", gestureHandler(cfg))

			r.Get("/export", downloadExportHandler(cfg))
			// Writes to the local filesystem, so only this machine may ask.
			r.With(LoopbackGuard()).Post("/export", writeExportHandler(cfg))
		})
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		version := cfg.Version
		if version == "" {
			version = "dev"
		}
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:   "ok",
			Version:  version,
			UptimeS:  int64(time.Since(cfg.StartTime).Seconds()),
			DeviceID: cfg.DeviceID,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := StatusResponse{
			State:        "idle",
			OpenProjects: cfg.Projects.OpenCount(),
		}
		if cfg.Runner != nil {
			resp.Saves = cfg.Runner.SaveCount()
			if cfg.Runner.IsRunning() {
				resp.State = "running"
			}
			if cfg.Runner.IsPaused() {
				resp.State = "paused"
				resp.AutosavePaused = true
			}
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func listProjectsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := cfg.Projects.List(r.Context())
		if err != nil {
			cfg.Logger.Error("failed to list projects", "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to list projects", "INTERNAL_ERROR")
			return
		}

		resp := ProjectsResponse{Projects: make([]ProjectResponse, len(list))}
		for i, p := range list {
			resp.Projects[i] = ProjectToResponse(p)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func createProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateProjectRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		var initial *editor.State
		if len(req.State) > 0 && string(req.State) != "null" {
			st, err := export.ParseState(req.State)
			if err != nil {
				WriteError(w, http.StatusBadRequest, err.Error(), "INVALID_TIMELINE")
				return
			}
			initial = &st
		}

		p, err := cfg.Projects.Create(r.Context(), req.Name, initial)
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusCreated, projectDetail(p))
	}
}

func getProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := cfg.Projects.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, projectDetail(p))
	}
}

func renameProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RenameProjectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			WriteError(w, http.StatusBadRequest, "name is required", "BAD_REQUEST")
			return
		}

		id := chi.URLParam(r, "id")
		if err := cfg.Projects.Rename(r.Context(), id, req.Name); err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		p, err := cfg.Projects.Get(r.Context(), id)
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, ProjectToResponse(p.Summary()))
	}
}

func deleteProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Projects.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func projectDetail(p *project.Project) ProjectDetailResponse {
	return ProjectDetailResponse{
		ProjectResponse: ProjectToResponse(p.Summary()),
		State:           p.State,
	}
}

// writeServiceError maps service and engine errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, project.ErrProjectNotFound):
		WriteError(w, http.StatusNotFound, "project not found", "NOT_FOUND")
	case errors.Is(err, timeline.ErrInvalidTimeline):
		WriteError(w, http.StatusBadRequest, err.Error(), "INVALID_TIMELINE")
	case errors.Is(err, edit.ErrUnknownCommand):
		WriteError(w, http.StatusBadRequest, err.Error(), "UNKNOWN_COMMAND")
	case errors.Is(err, export.ErrTrackNotFound):
		WriteError(w, http.StatusNotFound, err.Error(), "TRACK_NOT_FOUND")
	case errors.Is(err, export.ErrUnsupportedFormat):
		WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
	default:
		logger.Error("request failed", "error", err)
		WriteError(w, http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
