package export

import (
	"errors"
	"strings"
	"testing"

	"github.com/heimdex/heimdex-timeline/internal/editor"
	"github.com/heimdex/heimdex-timeline/internal/timeline"
)

func TestRender_EDLDefaultsToFirstTrack(t *testing.T) {
	f, err := Render(editor.NewState(edlTimeline(30)), "EDL", "", "Cut")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if f.Format != FormatEDL || f.Extension != ".edl" {
		t.Errorf("format=%q ext=%q", f.Format, f.Extension)
	}
	if f.EventCount != 2 {
		t.Errorf("EventCount = %d, want 2", f.EventCount)
	}
	if !strings.HasPrefix(string(f.Data), "TITLE: Cut") {
		t.Errorf("data = %q", f.Data)
	}
}

func TestRender_YAML(t *testing.T) {
	f, err := Render(editor.NewState(edlTimeline(30)), "yml", "", "")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if f.Format != FormatYAML || f.Extension != ".yaml" {
		t.Errorf("format=%q ext=%q", f.Format, f.Extension)
	}
	back, err := ParseState(f.Data)
	if err != nil {
		t.Fatalf("ParseState() error = %v", err)
	}
	if back.Timeline.ClipCount() != 4 {
		t.Errorf("round trip clips = %d, want 4", back.Timeline.ClipCount())
	}
}

func TestRender_Errors(t *testing.T) {
	empty := editor.NewState(timeline.New("tl"))
	if _, err := Render(empty, FormatEDL, "", "x"); !errors.Is(err, ErrTrackNotFound) {
		t.Errorf("empty timeline error = %v, want ErrTrackNotFound", err)
	}
	if _, err := Render(empty, "xml", "", "x"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("xml error = %v, want ErrUnsupportedFormat", err)
	}
}
