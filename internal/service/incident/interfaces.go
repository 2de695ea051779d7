package incident

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pawbridge/message-security-backend/internal/domain/incident"
)

// Service tracks security incidents through their investigation lifecycle.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*incident.Incident, error)
	Get(ctx context.Context, id uuid.UUID) (*incident.Incident, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*incident.Incident, error)
	Search(ctx context.Context, filters SearchFilters) (*Page, error)
}

// CreateRequest opens a new incident.
type CreateRequest struct {
	MessageID       *uuid.UUID
	UserID          *uuid.UUID
	Type            incident.Type
	Severity        incident.Severity
	Description     string
	DetectionMethod incident.DetectionMethod
	OccurredAt      time.Time
	RiskScore       float64
	NotifyOwner     bool
	NotifySecurity  bool
}

// UpdateRequest mutates an incident. Nil fields are left unchanged; a status
// change is validated against the lifecycle before anything is applied.
type UpdateRequest struct {
	Status             *incident.Status
	Severity           *incident.Severity
	AssignedTo         *uuid.UUID
	InvestigationNotes *string
	RemediationActions *string
	ResolutionSummary  *string
}

// SortField enumerates the supported search orderings.
type SortField string

const (
	SortBySeverity SortField = "severity"
	SortByDate     SortField = "date"
	SortByRisk     SortField = "risk"
)

// SearchFilters narrows an incident search. Nil fields are ignored.
type SearchFilters struct {
	MessageID *uuid.UUID
	UserID    *uuid.UUID
	Status    *incident.Status
	Severity  *incident.Severity
	Type      *incident.Type
	From      *time.Time
	To        *time.Time
	SortBy    SortField
	SortDesc  bool
	Limit     int
	Offset    int
}

// Page is one page of search results.
type Page struct {
	Incidents []*incident.Incident `json:"incidents"`
	Total     int                  `json:"total"`
	Limit     int                  `json:"limit"`
	Offset    int                  `json:"offset"`
}

// Repository persists incidents.
type Repository interface {
	Insert(ctx context.Context, inc *incident.Incident) error
	Update(ctx context.Context, inc *incident.Incident) error
	GetByID(ctx context.Context, id uuid.UUID) (*incident.Incident, error)
	Search(ctx context.Context, filters SearchFilters) ([]*incident.Incident, int, error)
}

// Notifier delivers fire-and-forget incident notifications.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, event string)
}
