package incident

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainerrors "github.com/pawbridge/message-security-backend/internal/domain/errors"
	"github.com/pawbridge/message-security-backend/internal/domain/incident"
	"github.com/pawbridge/message-security-backend/internal/metrics"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

type service struct {
	repo     Repository
	notifier Notifier
	logger   *zap.Logger
}

// NewService creates the incident tracker. notifier may be nil.
func NewService(repo Repository, notifier Notifier, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{repo: repo, notifier: notifier, logger: logger}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*incident.Incident, error) {
	inc, err := incident.New(req.Type, req.Severity, req.Description, req.DetectionMethod, req.OccurredAt)
	if err != nil {
		return nil, domainerrors.NewValidationError("INVALID_INCIDENT", err.Error())
	}

	inc.MessageID = req.MessageID
	inc.UserID = req.UserID
	inc.RiskScore = req.RiskScore
	inc.NotifyOwner = req.NotifyOwner
	inc.NotifySecurity = req.NotifySecurity

	if err := s.repo.Insert(ctx, inc); err != nil {
		return nil, domainerrors.NewInternalError("failed to store incident").WithCause(err)
	}

	metrics.IncidentsCreated.WithLabelValues(inc.Type.String(), inc.DetectionMethod.String()).Inc()
	s.logger.Info("security incident created",
		zap.String("incident_id", inc.ID.String()),
		zap.String("type", inc.Type.String()),
		zap.String("severity", inc.Severity.String()),
		zap.String("detection", inc.DetectionMethod.String()))

	if s.notifier != nil && inc.NotifyOwner && req.UserID != nil {
		s.notifier.Notify(ctx, *req.UserID, "incident.created")
	}

	return inc, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*incident.Incident, error) {
	inc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, domainerrors.NewInternalError("failed to load incident").WithCause(err)
	}
	if inc == nil {
		return nil, domainerrors.ErrIncidentNotFound
	}
	return inc, nil
}

// Update applies field changes after validating any status transition
// against the lifecycle. Terminal incidents reject all changes.
func (s *service) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*incident.Incident, error) {
	inc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Status != nil {
		if err := inc.TransitionTo(*req.Status); err != nil {
			return nil, err
		}
	} else if inc.IsTerminal() {
		return nil, domainerrors.NewIllegalTransitionError(inc.Status.String(), inc.Status.String())
	}

	if req.Severity != nil {
		inc.Severity = *req.Severity
	}
	if req.AssignedTo != nil {
		if err := inc.Assign(*req.AssignedTo); err != nil {
			return nil, err
		}
	}
	if req.InvestigationNotes != nil {
		inc.InvestigationNotes = *req.InvestigationNotes
	}
	if req.RemediationActions != nil {
		inc.RemediationActions = *req.RemediationActions
	}
	if req.ResolutionSummary != nil {
		inc.ResolutionSummary = *req.ResolutionSummary
	}

	if err := s.repo.Update(ctx, inc); err != nil {
		return nil, domainerrors.NewInternalError("failed to update incident").WithCause(err)
	}

	return inc, nil
}

func (s *service) Search(ctx context.Context, filters SearchFilters) (*Page, error) {
	switch filters.SortBy {
	case "", SortBySeverity, SortByDate, SortByRisk:
	default:
		return nil, domainerrors.NewValidationError("INVALID_SORT", "sort must be one of severity, date, risk")
	}
	if filters.SortBy == "" {
		filters.SortBy = SortByDate
		filters.SortDesc = true
	}
	if filters.Limit <= 0 {
		filters.Limit = defaultPageLimit
	}
	if filters.Limit > maxPageLimit {
		filters.Limit = maxPageLimit
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}

	incidents, total, err := s.repo.Search(ctx, filters)
	if err != nil {
		return nil, domainerrors.NewInternalError("failed to search incidents").WithCause(err)
	}

	return &Page{
		Incidents: incidents,
		Total:     total,
		Limit:     filters.Limit,
		Offset:    filters.Offset,
	}, nil
}
