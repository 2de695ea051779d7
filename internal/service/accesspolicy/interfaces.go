package accesspolicy

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pawbridge/message-security-backend/internal/domain/access"
	"github.com/pawbridge/message-security-backend/internal/domain/incident"
	"github.com/pawbridge/message-security-backend/internal/domain/message"
)

// Service is the access policy engine: it configures message security and
// evaluates access attempts against it.
type Service interface {
	// Configure validates and installs the security config for a message,
	// replacing any previous one. One active config per message, always.
	Configure(ctx context.Context, cfg *message.SecurityConfig) (*message.SecurityConfig, error)

	// GetConfig returns the active config, or a not-found error.
	GetConfig(ctx context.Context, messageID uuid.UUID) (*message.SecurityConfig, error)

	// Evaluate runs the ordered policy checks for one attempt. Exactly one
	// audit record is written per call, before the result is returned; if
	// the record cannot be written the decision is withheld (fail closed).
	Evaluate(ctx context.Context, attempt access.Context) (*access.ValidationResult, error)
}

// ConfigStore persists message security configs.
type ConfigStore interface {
	// GetActive returns the active config for a message, or (nil, nil)
	// when the message is unprotected.
	GetActive(ctx context.Context, messageID uuid.UUID) (*message.SecurityConfig, error)
	Upsert(ctx context.Context, cfg *message.SecurityConfig) error
}

// MessageRef is the narrow view of a message this subsystem needs.
type MessageRef struct {
	ID             uuid.UUID
	SenderID       uuid.UUID
	ConversationID uuid.UUID
	Exists         bool
}

// MessageLookup is the boundary to the message/conversation subsystem.
type MessageLookup interface {
	GetMessage(ctx context.Context, id uuid.UUID) (*MessageRef, error)
	GetParticipants(ctx context.Context, conversationID uuid.UUID) ([]uuid.UUID, error)
}

// AnomalyReport describes a suspected violation detected during evaluation.
type AnomalyReport struct {
	MessageID   uuid.UUID
	UserID      uuid.UUID
	Type        incident.Type
	Severity    incident.Severity
	Description string
	RiskScore   float64
	OccurredAt  time.Time
}

// Reporter receives automated anomaly reports. Implementations must not
// block evaluation; reporting is fire-and-forget from the engine's side.
type Reporter interface {
	ReportAnomaly(ctx context.Context, report AnomalyReport)
}

// Notifier delivers fire-and-forget user notifications.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, event string)
}

// AttemptTracker maintains the per-user history and denial velocity windows
// the risk evaluator reads from.
type AttemptTracker interface {
	// RecordDenial appends a denial and returns the trailing-window count.
	RecordDenial(ctx context.Context, messageID, userID uuid.UUID) (int, error)
	// MarkSeen records the attempt's device, IP, and country as known for
	// the user after a granted access.
	MarkSeen(ctx context.Context, attempt access.Context) error
}
