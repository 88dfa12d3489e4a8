package export

import (
	"errors"
	"strings"
	"testing"

	"github.com/heimdex/heimdex-timeline/internal/timeline"
)

func edlTimeline(fps float64) timeline.Timeline {
	tl := timeline.New("tl")
	tl.FPS = fps

	intro := timeline.NewMediaClip(timeline.KindVideo, "asset-intro", 0, 2000)
	intro.ID, intro.TrackID = "c1", "v1"
	intro.Media.Title = "Intro"

	body := timeline.NewMediaClip(timeline.KindVideo, "asset-body", 3000, 4500)
	body.ID, body.TrackID = "c2", "v1"
	body.Media.SourceStartMs = 10000

	title := timeline.NewTextClip("Hello", 500, 1500)
	title.ID, title.TrackID = "t1", "v1"

	music := timeline.NewMediaClip(timeline.KindAudio, "asset-music", 0, 1000)
	music.ID, music.TrackID = "m1", "a1"

	tl.Tracks = []timeline.Track{
		{ID: "v1", Type: timeline.TrackVideo, Name: "Video 1", Clips: []timeline.Clip{body, title, intro}},
		{ID: "a1", Type: timeline.TrackAudio, Name: "Audio 1", Clips: []timeline.Clip{music}},
	}
	return tl
}

func TestGenerateEDL_Track(t *testing.T) {
	edl, err := GenerateEDL(edlTimeline(30), "v1", "Project One")
	if err != nil {
		t.Fatalf("GenerateEDL() error = %v", err)
	}

	if !strings.Contains(edl, "TITLE: Project One") {
		t.Fatalf("missing title in EDL: %q", edl)
	}
	if !strings.Contains(edl, "FCM: NON-DROP FRAME") {
		t.Fatalf("missing non-drop-frame FCM: %q", edl)
	}
	if !strings.Contains(edl, "001  AX       V     C        00:00:00:00 00:00:02:00 00:00:00:00 00:00:02:00") {
		t.Fatalf("first event line mismatch: %q", edl)
	}
	if !strings.Contains(edl, "002  AX       V     C        00:00:10:00 00:00:11:15 00:00:03:00 00:00:04:15") {
		t.Fatalf("second event should use source offset and timeline position: %q", edl)
	}
	if !strings.Contains(edl, "* FROM CLIP NAME:  Intro") {
		t.Fatalf("missing clip name comment: %q", edl)
	}
	if !strings.Contains(edl, "* FROM CLIP NAME:  asset-body") {
		t.Fatalf("untitled clip should fall back to asset id: %q", edl)
	}
	if strings.Contains(edl, "\n003  ") {
		t.Fatalf("text clip should not produce an event: %q", edl)
	}
}

func TestGenerateEDL_AudioChannel(t *testing.T) {
	edl, err := GenerateEDL(edlTimeline(30), "a1", "Audio")
	if err != nil {
		t.Fatalf("GenerateEDL() error = %v", err)
	}
	if !strings.Contains(edl, "001  AX       A     C") {
		t.Fatalf("audio track should use channel A: %q", edl)
	}
}

func TestGenerateEDL_DropFrame(t *testing.T) {
	edl, err := GenerateEDL(edlTimeline(29.97), "v1", "Drop")
	if err != nil {
		t.Fatalf("GenerateEDL() error = %v", err)
	}
	if !strings.Contains(edl, "FCM: DROP FRAME") {
		t.Fatalf("expected drop frame FCM, got: %q", edl)
	}
}

func TestGenerateEDL_UnknownTrack(t *testing.T) {
	if _, err := GenerateEDL(edlTimeline(30), "nope", "x"); !errors.Is(err, ErrTrackNotFound) {
		t.Fatalf("error = %v, want ErrTrackNotFound", err)
	}
}

func TestMsToTimecode(t *testing.T) {
	tests := []struct {
		name string
		ms   int64
		fps  int
		want string
	}{
		{name: "zero", ms: 0, fps: 30, want: "00:00:00:00"},
		{name: "one second", ms: 1000, fps: 30, want: "00:00:01:00"},
		{name: "fractional second", ms: 500, fps: 30, want: "00:00:00:15"},
		{name: "one minute", ms: 60000, fps: 30, want: "00:01:00:00"},
		{name: "one hour", ms: 3600000, fps: 30, want: "01:00:00:00"},
		{name: "25 fps", ms: 1040, fps: 25, want: "00:00:01:01"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := msToTimecode(tc.ms, tc.fps)
			if got != tc.want {
				t.Fatalf("msToTimecode(%d, %d) = %q, want %q", tc.ms, tc.fps, got, tc.want)
			}
		})
	}
}
