package export

import (
	"fmt"
	"strings"

	"github.com/heimdex/heimdex-timeline/internal/editor"
)

// File is a rendered export ready to be written or streamed.
type File struct {
	Format     string
	Extension  string
	Data       []byte
	EventCount int
}

// Render exports a project state in the given format. EDL exports a single
// track; an empty trackID picks the first track.
func Render(state editor.State, format, trackID, title string) (*File, error) {
	switch strings.ToLower(format) {
	case FormatEDL:
		tl := state.Timeline
		if trackID == "" {
			if len(tl.Tracks) == 0 {
				return nil, ErrTrackNotFound
			}
			trackID = tl.Tracks[0].ID
		}
		events, err := Events(tl, trackID)
		if err != nil {
			return nil, err
		}
		edl, err := GenerateEDL(tl, trackID, title)
		if err != nil {
			return nil, err
		}
		return &File{Format: FormatEDL, Extension: ".edl", Data: []byte(edl), EventCount: len(events)}, nil
	case FormatYAML, "yml":
		data, err := YAML(state)
		if err != nil {
			return nil, err
		}
		return &File{Format: FormatYAML, Extension: ".yaml", Data: data}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
