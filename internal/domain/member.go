/**
 * @description
 * This file defines the core domain model for channel membership.
 * A Member row is the single source of truth for whether a Telegram user
 * is currently entitled to be in the paid channel.
 */
package domain

import "time"

// Status enumerates the lifecycle states of a membership.
type Status string

const (
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
	// StatusBanned is reserved in the data model. No flow currently
	// transitions a member into it.
	StatusBanned Status = "banned"
)

// Member represents one paying member of the channel, keyed by their
// Telegram user ID. Exactly one row exists per user.
type Member struct {
	UserID    string    `json:"user_id"`
	Status    Status    `json:"status"`
	ExpiresAt time.Time `json:"expires_at"`
	JoinedAt  time.Time `json:"joined_at"`
}

// IsActive reports whether the membership grants access at the given instant.
func (m *Member) IsActive(now time.Time) bool {
	return m.Status == StatusActive && m.ExpiresAt.After(now)
}
