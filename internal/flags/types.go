package flags

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("flag not found")

// Flag is a named on/off switch. Keys under "provider." toggle data providers.
type Flag struct {
	Key       string    `json:"key"`
	Value     bool      `json:"value"`
	Reason    string    `json:"reason,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
