package domain

import "time"

// Routing keys for membership lifecycle events published to the topic
// exchange. Downstream consumers bind with patterns such as "member.*".
const (
	EventMemberApproved = "member.approved"
	EventMemberDeclined = "member.declined"
	EventMemberExpired  = "member.expired"
)

// MemberEvent is the payload published when a membership changes state.
type MemberEvent struct {
	UserID     string     `json:"user_id"`
	Status     string     `json:"status"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}
