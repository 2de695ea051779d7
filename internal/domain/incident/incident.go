package incident

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pawbridge/message-security-backend/internal/domain/errors"
)

type Type int

const (
	TypeUnauthorizedAccess Type = iota
	TypeGeoViolation
	TypeRapidAttempts
	TypeScreenshotAttempt
	TypePolicyBypass
	TypeOther
)

func (t Type) String() string {
	switch t {
	case TypeUnauthorizedAccess:
		return "unauthorized_access"
	case TypeGeoViolation:
		return "geo_violation"
	case TypeRapidAttempts:
		return "rapid_attempts"
	case TypeScreenshotAttempt:
		return "screenshot_attempt"
	case TypePolicyBypass:
		return "policy_bypass"
	case TypeOther:
		return "other"
	default:
		return "unknown"
	}
}

func ParseType(s string) (Type, error) {
	switch s {
	case "unauthorized_access":
		return TypeUnauthorizedAccess, nil
	case "geo_violation":
		return TypeGeoViolation, nil
	case "rapid_attempts":
		return TypeRapidAttempts, nil
	case "screenshot_attempt":
		return TypeScreenshotAttempt, nil
	case "policy_bypass":
		return TypePolicyBypass, nil
	case "other", "":
		return TypeOther, nil
	default:
		return TypeOther, fmt.Errorf("invalid incident type: %s", s)
	}
}

type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

func ParseSeverity(s string) (Severity, error) {
	switch s {
	case "low", "":
		return SeverityLow, nil
	case "medium":
		return SeverityMedium, nil
	case "high":
		return SeverityHigh, nil
	case "critical":
		return SeverityCritical, nil
	default:
		return SeverityLow, fmt.Errorf("invalid severity: %s", s)
	}
}

type Status int

const (
	StatusOpen Status = iota
	StatusInvestigating
	StatusResolved
	StatusClosed
	StatusFalsePositive
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusInvestigating:
		return "investigating"
	case StatusResolved:
		return "resolved"
	case StatusClosed:
		return "closed"
	case StatusFalsePositive:
		return "false_positive"
	default:
		return "unknown"
	}
}

func ParseStatus(s string) (Status, error) {
	switch s {
	case "open":
		return StatusOpen, nil
	case "investigating":
		return StatusInvestigating, nil
	case "resolved":
		return StatusResolved, nil
	case "closed":
		return StatusClosed, nil
	case "false_positive":
		return StatusFalsePositive, nil
	default:
		return StatusOpen, fmt.Errorf("invalid incident status: %s", s)
	}
}

type DetectionMethod int

const (
	DetectionManual DetectionMethod = iota
	DetectionAutomated
)

func (d DetectionMethod) String() string {
	switch d {
	case DetectionManual:
		return "Manual"
	case DetectionAutomated:
		return "Automated"
	default:
		return "unknown"
	}
}

// Incident tracks one detected abuse or policy violation through its
// investigation lifecycle.
//
// Transitions only move forward: Open -> Investigating -> (Resolved | Closed),
// with FalsePositive reachable directly from Open or Investigating. Resolved,
// Closed, and FalsePositive are terminal; reopening is not supported.
type Incident struct {
	ID        uuid.UUID  `json:"id"`
	MessageID *uuid.UUID `json:"message_id,omitempty"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`

	Type            Type            `json:"type"`
	Severity        Severity        `json:"severity"`
	Status          Status          `json:"status"`
	DetectionMethod DetectionMethod `json:"detection_method"`

	Description string    `json:"description"`
	OccurredAt  time.Time `json:"occurred_at"`
	DetectedAt  time.Time `json:"detected_at"`

	AssignedTo         *uuid.UUID `json:"assigned_to,omitempty"`
	InvestigationNotes string     `json:"investigation_notes,omitempty"`
	RemediationActions string     `json:"remediation_actions,omitempty"`
	ResolutionSummary  string     `json:"resolution_summary,omitempty"`
	ResolvedAt         *time.Time `json:"resolved_at,omitempty"`

	RiskScore      float64 `json:"risk_score"`
	NotifyOwner    bool    `json:"notify_owner"`
	NotifySecurity bool    `json:"notify_security"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates an incident in the Open state.
func New(incidentType Type, severity Severity, description string, detection DetectionMethod, occurredAt time.Time) (*Incident, error) {
	if description == "" {
		return nil, fmt.Errorf("description cannot be empty")
	}

	now := time.Now()
	if occurredAt.IsZero() {
		occurredAt = now
	}

	return &Incident{
		ID:              uuid.New(),
		Type:            incidentType,
		Severity:        severity,
		Status:          StatusOpen,
		DetectionMethod: detection,
		Description:     description,
		OccurredAt:      occurredAt,
		DetectedAt:      now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

var allowedTransitions = map[Status][]Status{
	StatusOpen:          {StatusInvestigating, StatusResolved, StatusClosed, StatusFalsePositive},
	StatusInvestigating: {StatusResolved, StatusClosed, StatusFalsePositive},
	StatusResolved:      {},
	StatusClosed:        {},
	StatusFalsePositive: {},
}

// CanTransitionTo reports whether the lifecycle permits the move.
func (i *Incident) CanTransitionTo(target Status) bool {
	if target == i.Status {
		return true
	}
	for _, allowed := range allowedTransitions[i.Status] {
		if allowed == target {
			return true
		}
	}
	return false
}

// TransitionTo moves the incident to the target status, rejecting anything
// outside the forward-only lifecycle with the current and requested states.
func (i *Incident) TransitionTo(target Status) error {
	if target == i.Status {
		return nil
	}
	if !i.CanTransitionTo(target) {
		return errors.NewIllegalTransitionError(i.Status.String(), target.String())
	}

	now := time.Now()
	i.Status = target
	i.UpdatedAt = now

	switch target {
	case StatusResolved, StatusClosed, StatusFalsePositive:
		i.ResolvedAt = &now
	}

	return nil
}

// IsTerminal reports whether the incident has reached a final state.
func (i *Incident) IsTerminal() bool {
	switch i.Status {
	case StatusResolved, StatusClosed, StatusFalsePositive:
		return true
	}
	return false
}

// Assign sets the investigator and moves an Open incident to Investigating.
func (i *Incident) Assign(investigator uuid.UUID) error {
	if i.IsTerminal() {
		return errors.NewIllegalTransitionError(i.Status.String(), StatusInvestigating.String())
	}
	i.AssignedTo = &investigator
	if i.Status == StatusOpen {
		return i.TransitionTo(StatusInvestigating)
	}
	i.UpdatedAt = time.Now()
	return nil
}
