package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pawbridge/message-security-backend/internal/domain/access"
)

// Recorder persists access decisions. The log is append-only: there is no
// update or delete surface, and a failed write is fatal to the enclosing
// access evaluation.
type Recorder interface {
	Record(ctx context.Context, record *access.AttemptRecord) error
	Query(ctx context.Context, filters QueryFilters) (*Page, error)
}

// Repository is the storage behind the recorder.
type Repository interface {
	Insert(ctx context.Context, record *access.AttemptRecord) error
	Query(ctx context.Context, filters QueryFilters) ([]*access.AttemptRecord, int, error)
}

// QueryFilters narrows an access log query. Nil fields are ignored.
type QueryFilters struct {
	MessageID *uuid.UUID
	UserID    *uuid.UUID
	Granted   *bool
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// Page is one page of audit records.
type Page struct {
	Records []*access.AttemptRecord `json:"records"`
	Total   int                     `json:"total"`
	Limit   int                     `json:"limit"`
	Offset  int                     `json:"offset"`
}
