package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/heimdex/heimdex-timeline/internal/export"
	"github.com/heimdex/heimdex-timeline/internal/logging"
)

// downloadExportHandler streams a project export as an attachment.
func downloadExportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		format := r.URL.Query().Get("format")
		if format == "" {
			format = export.FormatEDL
		}

		p, err := cfg.Projects.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}

		f, err := export.Render(p.State, format, r.URL.Query().Get("track_id"), p.Name)
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}

		contentType := "text/plain; charset=utf-8"
		if f.Format == export.FormatYAML {
			contentType = "application/yaml"
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(f.Extension, p.Name)))
		w.WriteHeader(http.StatusOK)
		w.Write(f.Data)
	}
}

// writeExportHandler writes a project export into a directory on this machine.
func writeExportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req export.ExportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Format == "" {
			req.Format = export.FormatEDL
		}

		if err := export.ValidateOutputDir(req.OutputDir); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		p, err := cfg.Projects.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}

		f, err := export.Render(p.State, req.Format, req.TrackID, p.Name)
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}

		outputPath := filepath.Join(req.OutputDir, export.FileName(f.Extension, req.FileName, p.Name))
		if err := os.WriteFile(outputPath, f.Data, 0o644); err != nil {
			cfg.Logger.Error("failed to write export", "error", err, "path", logging.SanitizePath(outputPath))
			WriteError(w, http.StatusInternalServerError, "failed to write export file", "INTERNAL_ERROR")
			return
		}

		logging.WithProjectID(cfg.Logger, p.ID).Info("project exported",
			"format", f.Format,
			"events", f.EventCount,
			"path", logging.SanitizePath(outputPath),
		)

		WriteJSON(w, http.StatusOK, export.ExportResponse{
			Status:     "ok",
			Format:     f.Format,
			OutputPath: outputPath,
			EventCount: f.EventCount,
		})
	}
}
