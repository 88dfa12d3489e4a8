package edit

import (
	"fmt"

	"github.com/heimdex/heimdex-timeline/internal/timeline"
)

// AddTrack appends a track at the bottom of the stack.
type AddTrack struct {
	TrackType timeline.TrackType `json:"trackType"`
	ID        string             `json:"id,omitempty"`
	Name      string             `json:"name,omitempty"`
}

func (AddTrack) Op() string { return "addTrack" }

func (c AddTrack) apply(tl *timeline.Timeline, env Env) Result {
	if !c.TrackType.Valid() {
		return Result{}
	}
	id := c.ID
	if id == "" || idInUse(tl, id) {
		id = env.id()
	}
	name := c.Name
	if name == "" {
		n := 0
		for _, tr := range tl.Tracks {
			if tr.Type == c.TrackType {
				n++
			}
		}
		name = fmt.Sprintf("%s %d", c.TrackType.Label(), n+1)
	}
	tl.Tracks = append(tl.Tracks, timeline.Track{
		ID:    id,
		Type:  c.TrackType,
		Name:  name,
		Clips: []timeline.Clip{},
	})
	return Result{Changed: true, CreatedID: id}
}

// RemoveTrack deletes a track together with the clips it owns.
type RemoveTrack struct {
	TrackID string `json:"trackId"`
}

func (RemoveTrack) Op() string { return "removeTrack" }

func (c RemoveTrack) apply(tl *timeline.Timeline, env Env) Result {
	i := tl.TrackIndex(c.TrackID)
	if i < 0 {
		return Result{}
	}
	tl.Tracks = append(tl.Tracks[:i], tl.Tracks[i+1:]...)
	return Result{Changed: true}
}

type RenameTrack struct {
	TrackID string `json:"trackId"`
	Name    string `json:"name"`
}

func (RenameTrack) Op() string { return "renameTrack" }

func (c RenameTrack) apply(tl *timeline.Timeline, env Env) Result {
	tr := tl.FindTrack(c.TrackID)
	if tr == nil || c.Name == "" || tr.Name == c.Name {
		return Result{}
	}
	tr.Name = c.Name
	return Result{Changed: true}
}

// ToggleMuteTrack flips the mute flag read by the playback layer.
type ToggleMuteTrack struct {
	TrackID string `json:"trackId"`
}

func (ToggleMuteTrack) Op() string { return "toggleMuteTrack" }

func (c ToggleMuteTrack) apply(tl *timeline.Timeline, env Env) Result {
	tr := tl.FindTrack(c.TrackID)
	if tr == nil {
		return Result{}
	}
	tr.IsMuted = !tr.IsMuted
	return Result{Changed: true}
}

// ToggleLockTrack flips the lock flag. Gestures never start on, or land on,
// a locked track.
type ToggleLockTrack struct {
	TrackID string `json:"trackId"`
}

func (ToggleLockTrack) Op() string { return "toggleLockTrack" }

func (c ToggleLockTrack) apply(tl *timeline.Timeline, env Env) Result {
	tr := tl.FindTrack(c.TrackID)
	if tr == nil {
		return Result{}
	}
	tr.IsLocked = !tr.IsLocked
	return Result{Changed: true}
}

// SetDuration sets the composition length. It never cuts below the end of
// the last clip.
type SetDuration struct {
	DurationMs int64 `json:"durationMs"`
}

func (SetDuration) Op() string { return "setDuration" }

func (c SetDuration) apply(tl *timeline.Timeline, env Env) Result {
	d := c.DurationMs
	if end := tl.MaxEndMs(); d < end {
		d = end
	}
	d = clampTime(d)
	if d == tl.DurationMs {
		return Result{}
	}
	tl.DurationMs = d
	return Result{Changed: true}
}

func idInUse(tl *timeline.Timeline, id string) bool {
	if tl.TrackIndex(id) >= 0 {
		return true
	}
	_, _, ok := tl.Locate(id)
	return ok
}
