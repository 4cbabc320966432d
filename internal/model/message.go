package model

import (
	"strings"
	"time"
)

// Role is the speaker of a transcript record.
type Role int

const (
	RoleOther Role = iota
	RoleUser
	RoleAssistant
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	default:
		return "other"
	}
}

// Short is the four-letter tag used in result listings.
func (r Role) Short() string {
	switch r {
	case RoleUser:
		return "USER"
	case RoleAssistant:
		return "ASST"
	default:
		return "OTHR"
	}
}

// ParseRole maps a transcript discriminator onto a Role.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user", "human":
		return RoleUser
	case "assistant", "ai", "model":
		return RoleAssistant
	default:
		return RoleOther
	}
}

// MessageRecord is one decoded transcript line. It is never persisted on its own.
type MessageRecord struct {
	Role      Role
	Text      string
	SessionID string
	Timestamp time.Time
}
