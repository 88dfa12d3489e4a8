package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/heimdex/heimdex-timeline/internal/timeline"
)

// Events lists the media clips of one track in timeline order. Text and
// shape clips have no source media and are left out.
func Events(tl timeline.Timeline, trackID string) ([]Event, error) {
	tr := tl.FindTrack(trackID)
	if tr == nil {
		return nil, fmt.Errorf("%w: %s", ErrTrackNotFound, trackID)
	}

	channel := "V"
	if tr.Type == timeline.TrackAudio {
		channel = "A"
	}

	var events []Event
	for _, c := range tl.ClipsOnTrack(trackID) {
		if c.Media == nil {
			continue
		}
		name := SanitizeName(c.Media.Title, 160)
		if name == "" {
			name = c.Media.AssetID
		}
		events = append(events, Event{
			Number:      len(events) + 1,
			Reel:        "AX",
			Channel:     channel,
			ClipName:    name,
			AssetID:     c.Media.AssetID,
			SourceInMs:  c.Media.SourceStartMs,
			SourceOutMs: c.Media.SourceStartMs + c.DurationMs(),
			RecordInMs:  c.StartMs,
			RecordOutMs: c.EndMs,
		})
	}
	return events, nil
}

// GenerateEDL renders one track as a CMX3600 edit decision list. Record
// times are the clips' timeline positions, so gaps survive the round trip.
func GenerateEDL(tl timeline.Timeline, trackID, title string) (string, error) {
	events, err := Events(tl, trackID)
	if err != nil {
		return "", err
	}

	fps := int(math.Round(tl.FPS))
	if fps <= 0 {
		fps = int(timeline.DefaultFPS)
	}
	isDropFrame := math.Abs(tl.FPS-29.97) < 0.01 || math.Abs(tl.FPS-59.94) < 0.01

	lines := []string{fmt.Sprintf("TITLE: %s", title)}
	if isDropFrame {
		lines = append(lines, "FCM: DROP FRAME")
	} else {
		lines = append(lines, "FCM: NON-DROP FRAME")
	}
	lines = append(lines, "")

	for _, ev := range events {
		lines = append(lines,
			fmt.Sprintf("%03d  %-8s %-5s C        %s %s %s %s", ev.Number, ev.Reel, ev.Channel,
				msToTimecode(ev.SourceInMs, fps), msToTimecode(ev.SourceOutMs, fps),
				msToTimecode(ev.RecordInMs, fps), msToTimecode(ev.RecordOutMs, fps)),
			fmt.Sprintf("* FROM CLIP NAME:  %s", ev.ClipName),
			fmt.Sprintf("* SOURCE ASSET:  %s", ev.AssetID),
		)
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n"), nil
}

func msToTimecode(ms int64, fps int) string {
	totalFrames := int64(math.Round(float64(ms) * float64(fps) / 1000.0))
	f := int64(fps)
	frames := totalFrames % f
	totalSeconds := totalFrames / f
	seconds := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	minutes := totalMinutes % 60
	hours := totalMinutes / 60
	return fmt.Sprintf("%02d:%02d:%02d:%02d", hours, minutes, seconds, frames)
}
