package access

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AttemptRecord is the immutable audit log entry written for every policy
// evaluation, grant or deny. Records are append-only; nothing in this package
// or its consumers mutates a record once built.
type AttemptRecord struct {
	ID                uuid.UUID    `json:"id"`
	MessageID         uuid.UUID    `json:"message_id"`
	UserID            uuid.UUID    `json:"user_id"`
	AttemptedAt       time.Time    `json:"attempted_at"`
	IPAddress         string       `json:"ip_address"`
	DeviceFingerprint string       `json:"device_fingerprint"`
	Country           string       `json:"country"`
	AccessType        Type         `json:"access_type"`
	Granted           bool         `json:"granted"`
	DenialReason      DenialReason `json:"denial_reason"`
	VerificationUsed  string       `json:"verification_used,omitempty"`
	RiskScore         float64      `json:"risk_score"`
	TriggeredAlert    bool         `json:"triggered_alert"`
	SessionID         *uuid.UUID   `json:"session_id,omitempty"`
}

// NewAttemptRecord builds an audit entry from the attempt context and the
// decision taken. A record always carries a decision; the audit layer rejects
// decision-less records so partial writes cannot become durable.
func NewAttemptRecord(attempt Context, granted bool, reason DenialReason, riskScore float64) *AttemptRecord {
	return &AttemptRecord{
		ID:                uuid.New(),
		MessageID:         attempt.MessageID,
		UserID:            attempt.UserID,
		AttemptedAt:       attempt.AttemptedAt,
		IPAddress:         attempt.IPAddress,
		DeviceFingerprint: attempt.DeviceFingerprint,
		Country:           attempt.Country,
		AccessType:        attempt.AccessType,
		Granted:           granted,
		DenialReason:      reason,
		RiskScore:         riskScore,
		SessionID:         attempt.SessionID,
	}
}

// Validate enforces that a record is complete enough to be durable.
func (r *AttemptRecord) Validate() error {
	if r.ID == uuid.Nil {
		return fmt.Errorf("record ID cannot be nil")
	}
	if r.MessageID == uuid.Nil {
		return fmt.Errorf("message ID cannot be nil")
	}
	if r.UserID == uuid.Nil {
		return fmt.Errorf("user ID cannot be nil")
	}
	if r.AttemptedAt.IsZero() {
		return fmt.Errorf("attempt time cannot be zero")
	}
	if !r.Granted && r.DenialReason == DenialNone {
		return fmt.Errorf("denied record must carry a denial reason")
	}
	if r.Granted && r.DenialReason != DenialNone {
		return fmt.Errorf("granted record cannot carry a denial reason")
	}
	return nil
}
