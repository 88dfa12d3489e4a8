package api

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/heimdex/heimdex-timeline/internal/export"
)

func TestDownloadExport_EDL(t *testing.T) {
	env := newTestEnv(t)
	id := env.seedProject(t)

	rr := env.do(t, http.MethodGet, "/projects/"+id+"/export?format=edl&track_id=v1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("Content-Disposition"); got != `attachment; filename="Seed.edl"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	body := rr.Body.String()
	if !strings.HasPrefix(body, "TITLE: Seed") {
		t.Errorf("EDL = %q", body)
	}
	if !strings.Contains(body, "001  AX       V     C        00:00:00:00 00:00:02:00 00:00:01:00 00:00:03:00") {
		t.Errorf("event line missing: %q", body)
	}
}

func TestDownloadExport_ReflectsLiveSession(t *testing.T) {
	env := newTestEnv(t)
	id := env.seedProject(t)
	env.command(t, id, `{"type":"moveClip","clipId":"m1","trackId":"a1","startMs":9000}`)

	rr := env.do(t, http.MethodGet, "/projects/"+id+"/export?track_id=a1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "001  AX       A     C        00:00:00:00 00:00:02:00 00:00:09:00 00:00:11:00") {
		t.Errorf("audio event should use the unsaved position: %q", rr.Body.String())
	}
}

func TestDownloadExport_YAML(t *testing.T) {
	env := newTestEnv(t)
	id := env.seedProject(t)

	rr := env.do(t, http.MethodGet, "/projects/"+id+"/export?format=yaml", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/yaml" {
		t.Errorf("Content-Type = %q", ct)
	}
	st, err := export.ParseState(rr.Body.Bytes())
	if err != nil {
		t.Fatalf("ParseState() error = %v", err)
	}
	if st.Timeline.ClipCount() != 2 {
		t.Errorf("clips = %d, want 2", st.Timeline.ClipCount())
	}
}

func TestDownloadExport_Errors(t *testing.T) {
	env := newTestEnv(t)
	id := env.seedProject(t)

	tests := []struct {
		query  string
		status int
	}{
		{"?format=xml", http.StatusBadRequest},
		{"?track_id=missing", http.StatusNotFound},
	}
	for _, tt := range tests {
		if rr := env.do(t, http.MethodGet, "/projects/"+id+"/export"+tt.query, nil); rr.Code != tt.status {
			t.Errorf("%s status = %d, want %d", tt.query, rr.Code, tt.status)
		}
	}
	if rr := env.do(t, http.MethodGet, "/projects/nope/export", nil); rr.Code != http.StatusNotFound {
		t.Errorf("unknown project status = %d", rr.Code)
	}
}

func TestWriteExport_HappyPath(t *testing.T) {
	env := newTestEnv(t)
	id := env.seedProject(t)
	outDir := t.TempDir()

	rr := env.do(t, http.MethodPost, "/projects/"+id+"/export", export.ExportRequest{
		Format:    "edl",
		TrackID:   "v1",
		OutputDir: outDir,
		FileName:  "my cut/../v1",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body.String())
	}

	var resp export.ExportResponse
	decodeInto(t, rr, &resp)
	if resp.Status != "ok" || resp.EventCount != 1 || filepath.Dir(resp.OutputPath) != outDir {
		t.Errorf("response = %+v", resp)
	}
	if strings.Contains(filepath.Base(resp.OutputPath), "/") || !strings.HasSuffix(resp.OutputPath, ".edl") {
		t.Errorf("output path = %q", resp.OutputPath)
	}
	data, err := os.ReadFile(resp.OutputPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "* SOURCE ASSET:  asset-1") {
		t.Errorf("written EDL = %q", data)
	}
}

func TestWriteExport_DefaultsToProjectName(t *testing.T) {
	env := newTestEnv(t)
	id := env.seedProject(t)
	outDir := t.TempDir()

	rr := env.do(t, http.MethodPost, "/projects/"+id+"/export", export.ExportRequest{Format: "yaml", OutputDir: outDir})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body.String())
	}
	if _, err := os.Stat(filepath.Join(outDir, "Seed.yaml")); err != nil {
		t.Errorf("Seed.yaml not written: %v", err)
	}
}

func TestWriteExport_InvalidOutputDir(t *testing.T) {
	env := newTestEnv(t)
	id := env.seedProject(t)

	for _, dir := range []string{"", "/definitely/not/here", "../escape", t.TempDir() + "/"} {
		rr := env.do(t, http.MethodPost, "/projects/"+id+"/export", export.ExportRequest{Format: "edl", OutputDir: dir})
		if rr.Code != http.StatusBadRequest {
			t.Errorf("output_dir %q status = %d, want 400", dir, rr.Code)
		}
	}
}

func TestWriteExport_LoopbackOnly(t *testing.T) {
	env := newTestEnv(t)
	id := env.seedProject(t)

	req := httptest.NewRequest(http.MethodPost, "/projects/"+id+"/export", strings.NewReader(`{"format":"edl"}`))
	req.RemoteAddr = "10.0.0.5:40000"
	req.Header.Set("Authorization", "Bearer "+env.token)
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rr.Code)
	}
}
