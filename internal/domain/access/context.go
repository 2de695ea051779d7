package access

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Context carries everything the policy engine needs to judge one access
// attempt. Geo and device data are pre-resolved by the caller; evaluation
// never reaches out to external lookups.
type Context struct {
	MessageID         uuid.UUID  `json:"message_id"`
	UserID            uuid.UUID  `json:"user_id"`
	IPAddress         string     `json:"ip_address"`
	DeviceFingerprint string     `json:"device_fingerprint"`
	Country           string     `json:"country"`
	Timezone          string     `json:"timezone,omitempty"`
	AccessType        Type       `json:"access_type"`
	AttemptedAt       time.Time  `json:"attempted_at"`
	SessionID         *uuid.UUID `json:"session_id,omitempty"`
}

type Type int

const (
	TypeView Type = iota
	TypeDownload
	TypePrint
	TypeForward
)

func (t Type) String() string {
	switch t {
	case TypeView:
		return "view"
	case TypeDownload:
		return "download"
	case TypePrint:
		return "print"
	case TypeForward:
		return "forward"
	default:
		return "unknown"
	}
}

func ParseType(s string) (Type, error) {
	switch s {
	case "view", "":
		return TypeView, nil
	case "download":
		return TypeDownload, nil
	case "print":
		return TypePrint, nil
	case "forward":
		return TypeForward, nil
	default:
		return TypeView, fmt.Errorf("invalid access type: %s", s)
	}
}

// Validate rejects attempts missing the fields evaluation depends on.
func (c *Context) Validate() error {
	if c.MessageID == uuid.Nil {
		return fmt.Errorf("message ID cannot be nil")
	}
	if c.UserID == uuid.Nil {
		return fmt.Errorf("user ID cannot be nil")
	}
	if c.AttemptedAt.IsZero() {
		return fmt.Errorf("attempt time cannot be zero")
	}
	return nil
}
