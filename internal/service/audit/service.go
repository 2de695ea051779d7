package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/pawbridge/message-security-backend/internal/domain/errors"
	"github.com/pawbridge/message-security-backend/internal/domain/access"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 500
)

type service struct {
	repo   Repository
	logger *zap.Logger
}

// NewService creates the audit recorder.
func NewService(repo Repository, logger *zap.Logger) Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{repo: repo, logger: logger}
}

// Record appends one decision to the log. The record must carry a complete
// decision; a write failure surfaces as AUDIT_WRITE_FAILED so the caller
// fails closed instead of returning an unlogged decision.
func (s *service) Record(ctx context.Context, record *access.AttemptRecord) error {
	if record == nil {
		return errors.NewValidationError("INVALID_RECORD", "audit record cannot be nil")
	}
	if err := record.Validate(); err != nil {
		return errors.NewValidationError("INVALID_RECORD", err.Error())
	}

	if err := s.repo.Insert(ctx, record); err != nil {
		s.logger.Error("audit write failed",
			zap.String("message_id", record.MessageID.String()),
			zap.String("user_id", record.UserID.String()),
			zap.Bool("granted", record.Granted),
			zap.Error(err))
		return errors.NewAuditWriteError(err)
	}

	return nil
}

// Query returns a filtered, paged view of the log.
func (s *service) Query(ctx context.Context, filters QueryFilters) (*Page, error) {
	if filters.Limit <= 0 {
		filters.Limit = defaultPageLimit
	}
	if filters.Limit > maxPageLimit {
		filters.Limit = maxPageLimit
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}

	records, total, err := s.repo.Query(ctx, filters)
	if err != nil {
		return nil, errors.NewInternalError("failed to query access logs").WithCause(err)
	}

	return &Page{
		Records: records,
		Total:   total,
		Limit:   filters.Limit,
		Offset:  filters.Offset,
	}, nil
}
