package risk

import (
	"context"

	"github.com/google/uuid"

	"github.com/pawbridge/message-security-backend/internal/domain/access"
	"github.com/pawbridge/message-security-backend/internal/domain/message"
)

// Scorer computes a 0-100 risk score for an access attempt.
type Scorer interface {
	// Score evaluates the attempt against the user's history and the
	// message's security config (nil when the message is unprotected) and
	// returns the clamped score plus the factors that contributed to it.
	Score(ctx context.Context, attempt access.Context, cfg *message.SecurityConfig) (*Assessment, error)
}

// HistoryProvider answers whether parts of the attempt context have been seen
// before for this user. Lookup failures are reported so the scorer can err
// toward caution.
type HistoryProvider interface {
	KnownDevice(ctx context.Context, userID uuid.UUID, fingerprint string) (bool, error)
	KnownIP(ctx context.Context, userID uuid.UUID, ip string) (bool, error)
	KnownCountry(ctx context.Context, userID uuid.UUID, country string) (bool, error)
}

// AttemptWindow exposes the trailing denial count for a message/user pair.
type AttemptWindow interface {
	RecentDenials(ctx context.Context, messageID, userID uuid.UUID) (int, error)
}

// Factor is one contribution to the final score.
type Factor struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// Assessment is the scorer's output.
type Assessment struct {
	Score    float64  `json:"score"`
	HighRisk bool     `json:"high_risk"`
	Factors  []Factor `json:"factors"`
}
