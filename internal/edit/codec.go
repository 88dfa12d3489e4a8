package edit

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrUnknownCommand = errors.New("unknown command")

var commands = map[string]func() Command{
	"addTrack":          func() Command { return &AddTrack{} },
	"removeTrack":       func() Command { return &RemoveTrack{} },
	"renameTrack":       func() Command { return &RenameTrack{} },
	"toggleMuteTrack":   func() Command { return &ToggleMuteTrack{} },
	"toggleLockTrack":   func() Command { return &ToggleLockTrack{} },
	"setDuration":       func() Command { return &SetDuration{} },
	"addClip":           func() Command { return &AddClip{} },
	"moveClip":          func() Command { return &MoveClip{} },
	"resizeClip":        func() Command { return &ResizeClip{} },
	"splitClip":         func() Command { return &SplitClip{} },
	"deleteClip":        func() Command { return &DeleteClip{} },
	"addKeyframe":       func() Command { return &AddKeyframe{} },
	"removeKeyframe":    func() Command { return &RemoveKeyframe{} },
	"updateKeyframe":    func() Command { return &UpdateKeyframe{} },
	"setClipTransition": func() Command { return &SetClipTransition{} },
	"updateClipFilter":  func() Command { return &UpdateClipFilter{} },
	"updateClip":        func() Command { return &UpdateClip{} },
}

// Decode parses a command body of the form {"type": "<op>", ...fields}.
func Decode(data []byte) (Command, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("invalid command: %w", err)
	}
	newCmd, ok := commands[head.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, head.Type)
	}
	cmd := newCmd()
	if err := json.Unmarshal(data, cmd); err != nil {
		return nil, fmt.Errorf("invalid %s command: %w", head.Type, err)
	}
	return cmd, nil
}

// Encode writes cmd with its "type" discriminant.
func Encode(cmd Command) ([]byte, error) {
	body, err := json.Marshal(cmd)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	op, _ := json.Marshal(cmd.Op())
	fields["type"] = op
	return json.Marshal(fields)
}
