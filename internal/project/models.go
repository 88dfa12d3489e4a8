package project

import (
	"errors"
	"time"

	"github.com/heimdex/heimdex-timeline/internal/editor"
)

var ErrProjectNotFound = errors.New("project not found")

// Config table keys.
const (
	ConfigKeyAuthToken = "auth_token"
	ConfigKeyDeviceID  = "device_id"
)

// Project is a persisted editing document.
type Project struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	State     editor.State `json:"state"`
	Revision  int64        `json:"revision"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Summary is a project without its state, for listings.
type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Revision  int64     `json:"revision"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Project) Summary() *Summary {
	return &Summary{
		ID:        p.ID,
		Name:      p.Name,
		Revision:  p.Revision,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
