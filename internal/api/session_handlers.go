package api

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/heimdex/heimdex-timeline/internal/edit"
	"github.com/heimdex/heimdex-timeline/internal/editor"
	"github.com/heimdex/heimdex-timeline/internal/gesture"
	"github.com/heimdex/heimdex-timeline/internal/timeline"
)

// requestError is returned from inside a session callback to answer with a
// specific status instead of the service error mapping.
type requestError struct {
	status  int
	message string
	code    string
}

func (e *requestError) Error() string { return e.message }

func badRequest(msg string) error {
	return &requestError{status: http.StatusBadRequest, message: msg, code: "BAD_REQUEST"}
}

// withSession runs fn against the project's session and writes either its
// response or the error.
func withSession(cfg ServerConfig, w http.ResponseWriter, r *http.Request, fn func(s *editor.Session) (interface{}, error)) {
	var resp interface{}
	err := cfg.Projects.WithSession(r.Context(), chi.URLParam(r, "id"), func(s *editor.Session) error {
		var err error
		resp, err = fn(s)
		return err
	})

	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		WriteError(w, reqErr.status, reqErr.message, reqErr.code)
	case err != nil:
		writeServiceError(w, cfg.Logger, err)
	default:
		WriteJSON(w, http.StatusOK, resp)
	}
}

func sessionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		withSession(cfg, w, r, func(s *editor.Session) (interface{}, error) {
			return SessionToResponse(s), nil
		})
	}
}

func commandHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		cmd, err := edit.Decode(body)
		if err != nil {
			if errors.Is(err, edit.ErrUnknownCommand) {
				WriteError(w, http.StatusBadRequest, err.Error(), "UNKNOWN_COMMAND")
				return
			}
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		withSession(cfg, w, r, func(s *editor.Session) (interface{}, error) {
			return resultToResponse(s.Dispatch(cmd), s), nil
		})
	}
}

func undoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		withSession(cfg, w, r, func(s *editor.Session) (interface{}, error) {
			changed := s.Undo()
			return CommandResponse{Changed: changed, Session: SessionToResponse(s)}, nil
		})
	}
}

func redoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		withSession(cfg, w, r, func(s *editor.Session) (interface{}, error) {
			changed := s.Redo()
			return CommandResponse{Changed: changed, Session: SessionToResponse(s)}, nil
		})
	}
}

func historyHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		withSession(cfg, w, r, func(s *editor.Session) (interface{}, error) {
			undo, redo := s.HistoryDepth()
			return HistoryResponse{Undo: undo, Redo: redo, CanUndo: s.CanUndo(), CanRedo: s.CanRedo()}, nil
		})
	}
}

// clipsHandler lists committed clips, optionally limited to one track and to
// those intersecting [from_ms, to_ms).
func clipsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		from, err := queryInt(q.Get("from_ms"), 0)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "from_ms must be an integer", "BAD_REQUEST")
			return
		}
		to, err := queryInt(q.Get("to_ms"), math.MaxInt64)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "to_ms must be an integer", "BAD_REQUEST")
			return
		}
		trackID := q.Get("track_id")

		withSession(cfg, w, r, func(s *editor.Session) (interface{}, error) {
			tl := s.State().Timeline

			var clips []timeline.Clip
			if trackID == "" {
				clips = tl.ClipsInRange(from, to)
			} else {
				if tl.FindTrack(trackID) == nil {
					return nil, &requestError{status: http.StatusNotFound, message: "track not found", code: "TRACK_NOT_FOUND"}
				}
				for _, c := range tl.ClipsOnTrack(trackID) {
					if c.Intersects(from, to) {
						clips = append(clips, c)
					}
				}
			}
			if clips == nil {
				clips = []timeline.Clip{}
			}
			return ClipsResponse{Clips: clips}, nil
		})
	}
}

func keyframesHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clipID := chi.URLParam(r, "clipID")
		prop := timeline.Property(chi.URLParam(r, "property"))

		withSession(cfg, w, r, func(s *editor.Session) (interface{}, error) {
			tl := s.State().Timeline
			c := tl.FindClip(clipID)
			if c == nil {
				return nil, &requestError{status: http.StatusNotFound, message: "clip not found", code: "CLIP_NOT_FOUND"}
			}
			if _, ok := c.Animatable(prop); !ok {
				return nil, badRequest("property " + string(prop) + " does not apply to " + string(c.Kind) + " clips")
			}
			kfs := tl.Keyframes(clipID, prop)
			if kfs == nil {
				kfs = []timeline.Keyframe{}
			}
			return KeyframesResponse{ClipID: clipID, Property: prop, Keyframes: kfs}, nil
		})
	}
}

func viewHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ViewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.ZoomLevel != nil && (*req.ZoomLevel <= 0 || math.IsNaN(*req.ZoomLevel)) {
			WriteError(w, http.StatusBadRequest, "zoom_level must be positive", "BAD_REQUEST")
			return
		}

		withSession(cfg, w, r, func(s *editor.Session) (interface{}, error) {
			if req.ZoomLevel != nil {
				s.SetZoom(*req.ZoomLevel)
			}
			if req.SnappingEnabled != nil {
				s.SetSnapping(*req.SnappingEnabled)
			}
			if req.PlayheadMs != nil {
				s.SetPlayhead(*req.PlayheadMs)
			}
			if req.Selection != nil {
				s.Select(*req.Selection)
			}
			return SessionToResponse(s), nil
		})
	}
}

// gestureHandler forwards pointer events. Coordinates are pixels relative to
// the timeline surface at the session's current zoom.
func gestureHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		action := chi.URLParam(r, "action")

		var req PointerRequest
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
				WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
				return
			}
		}

		withSession(cfg, w, r, func(s *editor.Session) (interface{}, error) {
			switch action {
			case "down":
				if req.ClipID == "" {
					return nil, badRequest("clip_id is required")
				}
				handle := req.Handle
				if handle == "" {
					handle = gesture.HandleBody
				}
				started := s.PointerDown(gesture.Press{ClipID: req.ClipID, Handle: handle, X: req.X, Y: req.Y})
				return GestureResponse{Active: started, Session: SessionToResponse(s)}, nil

			case "move":
				if _, ok := s.PointerMove(req.X, req.Y); !ok {
					return nil, noGesture()
				}
				return GestureResponse{Active: true, Session: SessionToResponse(s)}, nil

			case "up":
				if s.GestureState() == gesture.Idle {
					return nil, noGesture()
				}
				out := s.PointerUp(req.X, req.Y)
				return GestureResponse{
					Changed:        out.Changed,
					TrackID:        out.TrackID,
					CreatedTrackID: out.CreatedTrackID,
					Session:        SessionToResponse(s),
				}, nil

			case "cancel":
				s.PointerCancel()
				return GestureResponse{Session: SessionToResponse(s)}, nil
			}
			return nil, &requestError{status: http.StatusNotFound, message: "unknown gesture action", code: "NOT_FOUND"}
		})
	}
}

func noGesture() error {
	return &requestError{status: http.StatusConflict, message: "no gesture in progress", code: "NO_GESTURE"}
}

func queryInt(v string, def int64) (int64, error) {
	if v == "" {
		return def, nil
	}
	return strconv.ParseInt(v, 10, 64)
}
