package selfdestruct

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pawbridge/message-security-backend/internal/domain/selfdestruct"
)

// Service manages the self-destruct lifecycle of protected messages.
type Service interface {
	// Configure creates or replaces the self-destruct state for a message.
	// Rejects with an ALREADY_DESTROYED conflict if the message's current
	// state is terminal.
	Configure(ctx context.Context, messageID uuid.UUID, req ConfigureRequest) (*selfdestruct.State, error)

	// RecordView applies one granted view. It may start a first-read
	// timer, increment the view count, and destroy the message when the
	// view limit or a passed deadline fires. Calling it on a destroyed
	// message returns the unchanged state plus an ALREADY_DESTROYED
	// conflict.
	RecordView(ctx context.Context, messageID, userID uuid.UUID) (*selfdestruct.State, error)

	// Destroy forces destruction. Idempotent; destroying a destroyed
	// message is a no-op.
	Destroy(ctx context.Context, messageID uuid.UUID, method string) (*selfdestruct.State, error)

	// Get returns the current state, lazily destroying it first if a
	// deadline has passed.
	Get(ctx context.Context, messageID uuid.UUID) (*selfdestruct.State, error)
}

// ConfigureRequest carries the self-destruct settings for a message.
type ConfigureRequest struct {
	Mode                selfdestruct.Mode
	TriggerEvent        selfdestruct.TriggerEvent
	TimerSeconds        int
	MaxViews            *int
	ScheduledAt         *time.Time
	NotifyOnDestruction bool
	ShowCountdown       bool
	BlockScreenshot     bool
}

// Repository persists self-destruct states.
type Repository interface {
	// Get returns the state for a message, or (nil, nil) when none exists.
	Get(ctx context.Context, messageID uuid.UUID) (*selfdestruct.State, error)
	Save(ctx context.Context, state *selfdestruct.State) error
}

// Notifier delivers fire-and-forget destruction notifications. The
// notification layer resolves the recipient set from the message id.
type Notifier interface {
	NotifyDestruction(ctx context.Context, messageID uuid.UUID, method string)
}
