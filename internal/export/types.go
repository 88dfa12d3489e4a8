package export

import "errors"

const (
	FormatEDL  = "edl"
	FormatYAML = "yaml"
)

var (
	ErrTrackNotFound     = errors.New("track not found")
	ErrUnsupportedFormat = errors.New("unsupported export format")
)

// ExportRequest asks the server to write an export file into OutputDir.
type ExportRequest struct {
	Format    string `json:"format"`
	TrackID   string `json:"track_id,omitempty"`
	OutputDir string `json:"output_dir"`
	FileName  string `json:"file_name,omitempty"`
}

// Event is one EDL line: a clip's source range placed at a record range.
type Event struct {
	Number      int
	Reel        string
	Channel     string
	ClipName    string
	AssetID     string
	SourceInMs  int64
	SourceOutMs int64
	RecordInMs  int64
	RecordOutMs int64
}

type ExportResponse struct {
	Status     string `json:"status"`
	Format     string `json:"format"`
	OutputPath string `json:"output_path"`
	EventCount int    `json:"event_count,omitempty"`
}
