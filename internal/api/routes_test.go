package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/heimdex/heimdex-timeline/internal/db"
	"github.com/heimdex/heimdex-timeline/internal/project"
)

type testEnv struct {
	router  http.Handler
	service *project.Service
	repo    *project.SQLiteRepository
	runner  *project.Runner
	token   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	database, err := db.New(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := project.NewRepository(database.Conn())
	svc := project.NewService(repo, project.SessionOptions{HistoryLimit: 50}, logger)

	token, err := svc.EnsureAuthToken(context.Background())
	if err != nil {
		t.Fatalf("EnsureAuthToken() error = %v", err)
	}

	runner := project.NewRunner(svc, time.Hour, logger)
	cfg := ServerConfig{
		Projects:  svc,
		Config:    repo,
		Runner:    runner,
		Logger:    logger,
		StartTime: time.Now().Add(-10 * time.Second),
		DeviceID:  "test-device",
		Version:   "1.2.3",
	}

	return &testEnv{router: NewRouter(cfg), service: svc, repo: repo, runner: runner, token: token}
}

// do sends an authenticated request from the loopback interface.
func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("json.Marshal error: %v", err)
		}
		r = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, r)
	req.RemoteAddr = "127.0.0.1:50000"
	req.Header.Set("Authorization", "Bearer "+e.token)
	if r != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) createProject(t *testing.T, name string) string {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/projects", map[string]string{"name": name})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create project status = %d body = %s", rr.Code, rr.Body.String())
	}
	return decodeJSONBody(t, rr)["id"].(string)
}

func decodeJSONBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response body: %v (%s)", err, rr.Body.String())
	}

	return body
}

func decodeInto(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response body: %v (%s)", err, rr.Body.String())
	}
}

func TestHealthHandler(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusOK)
	}
	body := decodeJSONBody(t, rr)
	if body["status"] != "ok" || body["version"] != "1.2.3" || body["device_id"] != "test-device" {
		t.Errorf("health body = %v", body)
	}
	if uptime, _ := body["uptime_s"].(float64); uptime < 10 {
		t.Errorf("uptime_s = %v, want >= 10", body["uptime_s"])
	}
}

func TestStatusHandler(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/status", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d", rr.Code)
	}
	body := decodeJSONBody(t, rr)
	if body["state"] != "idle" || body["autosave_paused"] != false || body["open_projects"] != float64(0) {
		t.Errorf("status body = %v", body)
	}

	env.runner.Pause()
	id := env.createProject(t, "Open")
	env.do(t, http.MethodGet, "/projects/"+id+"/session", nil)

	body = decodeJSONBody(t, env.do(t, http.MethodGet, "/status", nil))
	if body["state"] != "paused" || body["autosave_paused"] != true || body["open_projects"] != float64(1) {
		t.Errorf("status body after pause = %v", body)
	}
}

func TestStatusHandler_NilRunner(t *testing.T) {
	env := newTestEnv(t)
	cfg := ServerConfig{Projects: env.service, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	rr := httptest.NewRecorder()
	statusHandler(cfg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/status", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d", rr.Code)
	}
	if body := decodeJSONBody(t, rr); body["state"] != "idle" || body["saves"] != float64(0) {
		t.Errorf("status body = %v", body)
	}
}

func TestAuth_Required(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"wrong scheme", "Basic " + env.token},
		{"wrong token", "Bearer nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/projects", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			env.router.ServeHTTP(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
			}
			if code := decodeJSONBody(t, rr)["code"]; code != "UNAUTHORIZED" {
				t.Errorf("code = %v, want UNAUTHORIZED", code)
			}
		})
	}
}

func TestProjects_CRUD(t *testing.T) {
	env := newTestEnv(t)

	id := env.createProject(t, "  First Cut ")

	rr := env.do(t, http.MethodGet, "/projects/"+id, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get status = %d", rr.Code)
	}
	var detail ProjectDetailResponse
	decodeInto(t, rr, &detail)
	if detail.Name != "First Cut" || detail.State.ZoomLevel != 100 || !detail.State.SnappingEnabled {
		t.Errorf("project detail = %+v", detail)
	}

	rr = env.do(t, http.MethodPatch, "/projects/"+id, RenameProjectRequest{Name: "Final Cut"})
	if rr.Code != http.StatusOK {
		t.Fatalf("rename status = %d body = %s", rr.Code, rr.Body.String())
	}
	if name := decodeJSONBody(t, rr)["name"]; name != "Final Cut" {
		t.Errorf("renamed name = %v", name)
	}

	if rr := env.do(t, http.MethodPatch, "/projects/"+id, RenameProjectRequest{Name: "  "}); rr.Code != http.StatusBadRequest {
		t.Errorf("blank rename status = %d, want 400", rr.Code)
	}

	var list ProjectsResponse
	decodeInto(t, env.do(t, http.MethodGet, "/projects", nil), &list)
	if len(list.Projects) != 1 || list.Projects[0].ID != id {
		t.Errorf("projects = %+v", list.Projects)
	}

	if rr := env.do(t, http.MethodDelete, "/projects/"+id, nil); rr.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rr.Code)
	}
	rr = env.do(t, http.MethodGet, "/projects/"+id, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("get deleted status = %d, want 404", rr.Code)
	}
	if code := decodeJSONBody(t, rr)["code"]; code != "NOT_FOUND" {
		t.Errorf("code = %v", code)
	}
}

func TestCreateProject_WithState(t *testing.T) {
	env := newTestEnv(t)

	state := `{"name":"Imported","state":{"timeline":{"id":"tl","durationMs":60000,"fps":25,"tracks":[
		{"id":"v1","type":"video","name":"Video 1","clips":[
			{"id":"c1","trackId":"v1","type":"video","startMs":0,"endMs":2000,"media":{"assetId":"a1","sourceStartMs":0,"opacity":1,"volume":1}}
		]}
	]},"zoomLevel":250,"snappingEnabled":false}}`

	rr := env.do(t, http.MethodPost, "/projects", state)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body.String())
	}
	var detail ProjectDetailResponse
	decodeInto(t, rr, &detail)
	if detail.State.ZoomLevel != 250 || detail.State.SnappingEnabled || detail.State.Timeline.FPS != 25 {
		t.Errorf("state = %+v", detail.State)
	}
	if detail.State.Timeline.FindClip("c1") == nil {
		t.Error("imported clip missing")
	}
}

func TestCreateProject_InvalidState(t *testing.T) {
	env := newTestEnv(t)

	short := `{"name":"Bad","state":{"timeline":{"id":"tl","durationMs":60000,"fps":30,"tracks":[
		{"id":"v1","type":"video","name":"Video 1","clips":[
			{"id":"c1","trackId":"v1","type":"video","startMs":0,"endMs":100,"media":{"assetId":"a1","sourceStartMs":0,"opacity":1,"volume":1}}
		]}
	]}}}`

	rr := env.do(t, http.MethodPost, "/projects", short)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 (%s)", rr.Code, rr.Body.String())
	}
	if code := decodeJSONBody(t, rr)["code"]; code != "INVALID_TIMELINE" {
		t.Errorf("code = %v", code)
	}

	if rr := env.do(t, http.MethodPost, "/projects", "{not json"); rr.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d", rr.Code)
	}
}
