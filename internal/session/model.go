// Package session tracks a device's activity window. One session exists
// per device; it may later be linked to a user identity without losing the
// device id.
package session

import "time"

type Session struct {
	ID         string         `json:"id"`
	DeviceID   string         `json:"device_id"`
	UserID     *string        `json:"user_id,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	LastActive time.Time      `json:"last_active"`
	Metadata   map[string]any `json:"metadata"`
}
