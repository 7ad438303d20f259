package domain

import (
	"fmt"
	"strings"
)

// ActionKind identifies what the approver chose on a review prompt.
type ActionKind string

const (
	ActionApprove ActionKind = "approve_user"
	ActionDecline ActionKind = "decline_user"
)

// Action is the decoded payload of an inline keyboard button press. The
// payload travels through Telegram as an opaque string; it is decoded exactly
// once at the transport boundary and unknown tags are rejected there.
type Action struct {
	Kind   ActionKind
	UserID string
}

// Encode renders the action in the "<tag> <user id>" wire form used for
// callback data.
func (a Action) Encode() string {
	return fmt.Sprintf("%s %s", a.Kind, a.UserID)
}

// ParseAction decodes callback data into an Action. It returns an error for
// malformed payloads and for tags it does not recognize.
func ParseAction(data string) (Action, error) {
	parts := strings.SplitN(data, " ", 2)
	if len(parts) != 2 || parts[1] == "" {
		return Action{}, fmt.Errorf("malformed callback data %q", data)
	}
	kind := ActionKind(parts[0])
	switch kind {
	case ActionApprove, ActionDecline:
		return Action{Kind: kind, UserID: parts[1]}, nil
	default:
		return Action{}, fmt.Errorf("unknown callback action %q", parts[0])
	}
}
