package accesspolicy

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pawbridge/message-security-backend/internal/domain/access"
	domainerrors "github.com/pawbridge/message-security-backend/internal/domain/errors"
	"github.com/pawbridge/message-security-backend/internal/domain/incident"
	"github.com/pawbridge/message-security-backend/internal/domain/message"
	"github.com/pawbridge/message-security-backend/internal/metrics"
	"github.com/pawbridge/message-security-backend/internal/service/audit"
	"github.com/pawbridge/message-security-backend/internal/service/risk"
)

type service struct {
	configs  ConfigStore
	messages MessageLookup
	scorer   risk.Scorer
	recorder audit.Recorder
	tracker  AttemptTracker
	reporter Reporter
	notifier Notifier
	holidays message.HolidayCalendar

	denialLimit int
	logger      *zap.Logger
}

// NewService wires the policy engine. reporter, notifier, and tracker are
// optional; a nil tracker disables the velocity factor's bookkeeping.
func NewService(
	configs ConfigStore,
	messages MessageLookup,
	scorer risk.Scorer,
	recorder audit.Recorder,
	tracker AttemptTracker,
	reporter Reporter,
	notifier Notifier,
	holidays message.HolidayCalendar,
	denialLimit int,
	logger *zap.Logger,
) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if denialLimit <= 0 {
		denialLimit = risk.DefaultDenialLimit
	}
	return &service{
		configs:     configs,
		messages:    messages,
		scorer:      scorer,
		recorder:    recorder,
		tracker:     tracker,
		reporter:    reporter,
		notifier:    notifier,
		holidays:    holidays,
		denialLimit: denialLimit,
		logger:      logger,
	}
}

func (s *service) Configure(ctx context.Context, cfg *message.SecurityConfig) (*message.SecurityConfig, error) {
	if cfg == nil {
		return nil, domainerrors.NewValidationError("INVALID_CONFIG", "security config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, domainerrors.NewValidationError("INVALID_CONFIG", err.Error())
	}

	ref, err := s.messages.GetMessage(ctx, cfg.MessageID)
	if err != nil {
		return nil, domainerrors.NewExternalError("message", err.Error())
	}
	if ref == nil || !ref.Exists {
		return nil, domainerrors.ErrMessageNotFound
	}

	cfg.UpdatedAt = time.Now()
	if err := s.configs.Upsert(ctx, cfg); err != nil {
		return nil, domainerrors.NewInternalError("failed to store security config").WithCause(err)
	}

	s.logger.Info("security config installed",
		zap.String("message_id", cfg.MessageID.String()),
		zap.String("level", cfg.SecurityLevel.String()))

	return cfg, nil
}

func (s *service) GetConfig(ctx context.Context, messageID uuid.UUID) (*message.SecurityConfig, error) {
	cfg, err := s.configs.GetActive(ctx, messageID)
	if err != nil {
		return nil, domainerrors.NewInternalError("failed to load security config").WithCause(err)
	}
	if cfg == nil {
		return nil, domainerrors.ErrConfigNotFound
	}
	return cfg, nil
}

// Evaluate runs the decision order from the top: config existence, expiry,
// geography, time, IP blacklist, IP whitelist, device, risk. The first
// failing check denies with its specific reason. Both grants and denials are
// audited before the result leaves this method.
func (s *service) Evaluate(ctx context.Context, attempt access.Context) (*access.ValidationResult, error) {
	start := time.Now()
	defer func() {
		metrics.EvaluationDuration.Observe(time.Since(start).Seconds())
	}()

	if err := attempt.Validate(); err != nil {
		return nil, domainerrors.NewValidationError("INVALID_ATTEMPT", err.Error())
	}

	ref, err := s.messages.GetMessage(ctx, attempt.MessageID)
	if err != nil {
		return nil, domainerrors.NewExternalError("message", err.Error())
	}
	if ref == nil || !ref.Exists {
		return nil, domainerrors.ErrMessageNotFound
	}

	cfg, err := s.configs.GetActive(ctx, attempt.MessageID)
	if err != nil {
		return nil, domainerrors.NewInternalError("failed to load security config").WithCause(err)
	}

	// Unprotected messages are allowed; the attempt is still audited.
	if cfg == nil {
		result := access.Grant(attempt.MessageID, 0, nil)
		if err := s.audit(ctx, attempt, result, nil); err != nil {
			return nil, err
		}
		return result, nil
	}

	if reason := s.checkRestrictions(attempt, cfg); reason != access.DenialNone {
		return s.deny(ctx, attempt, cfg, reason)
	}

	assessment, err := s.scorer.Score(ctx, attempt, cfg)
	if err != nil {
		return nil, domainerrors.NewInternalError("risk evaluation failed").WithCause(err)
	}

	result := access.Grant(attempt.MessageID, assessment.Score, &access.ActiveRestrictions{
		BlockScreenshot:  cfg.BlockScreenshot,
		BlockCopyPaste:   cfg.BlockCopyPaste,
		BlockRightClick:  cfg.BlockRightClick,
		BlockForward:     cfg.BlockForward,
		AllowDownload:    cfg.AllowDownload,
		AllowPrint:       cfg.AllowPrint,
		WatermarkEnabled: cfg.WatermarkEnabled,
		WatermarkText:    cfg.WatermarkText,
	})

	// High risk forces verification regardless of the message config.
	if cfg.RequireVerification || assessment.HighRisk {
		result.RequiresVerification = true
		method := cfg.VerificationMethod
		if method == message.VerificationNone {
			method = message.VerificationEmail
		}
		result.VerificationMethod = method.String()
		challenge := uuid.New()
		result.ChallengeID = &challenge
	}

	if err := s.audit(ctx, attempt, result, cfg); err != nil {
		return nil, err
	}

	metrics.AccessDecisions.WithLabelValues("granted", "").Inc()

	if s.tracker != nil {
		if err := s.tracker.MarkSeen(ctx, attempt); err != nil {
			s.logger.Warn("failed to update attempt history", zap.Error(err))
		}
	}

	if assessment.HighRisk {
		s.reportAnomaly(ctx, AnomalyReport{
			MessageID:   attempt.MessageID,
			UserID:      attempt.UserID,
			Type:        incident.TypeUnauthorizedAccess,
			Severity:    incident.SeverityHigh,
			Description: fmt.Sprintf("high risk access attempt (score %.1f) on message %s", assessment.Score, attempt.MessageID),
			RiskScore:   assessment.Score,
			OccurredAt:  attempt.AttemptedAt,
		})
		s.notify(ctx, ref.SenderID, "message.access.high_risk", cfg)
	}

	return result, nil
}

// checkRestrictions applies checks 2-7 in order and returns the first
// failure.
func (s *service) checkRestrictions(attempt access.Context, cfg *message.SecurityConfig) access.DenialReason {
	if cfg.IsExpired(attempt.AttemptedAt) {
		return access.DenialAccessExpired
	}

	if !cfg.AllowsCountry(attempt.Country) {
		return access.DenialGeoRestricted
	}

	if cfg.TimeRestriction != nil {
		allowed, err := cfg.TimeRestriction.Allows(attempt.AttemptedAt, s.holidays)
		if err != nil {
			s.logger.Warn("time restriction evaluation failed",
				zap.String("message_id", attempt.MessageID.String()),
				zap.Error(err))
			// A broken restriction fails closed.
			return access.DenialTimeRestricted
		}
		if !allowed {
			return access.DenialTimeRestricted
		}
	}

	if cfg.IPBlacklisted(attempt.IPAddress) {
		return access.DenialIPBlacklisted
	}

	if !cfg.IPWhitelisted(attempt.IPAddress) {
		return access.DenialIPNotWhitelisted
	}

	if !cfg.DeviceAllowed(attempt.DeviceFingerprint) {
		return access.DenialDeviceNotAllowed
	}

	return access.DenialNone
}

func (s *service) deny(ctx context.Context, attempt access.Context, cfg *message.SecurityConfig, reason access.DenialReason) (*access.ValidationResult, error) {
	result := access.Deny(attempt.MessageID, reason, 0)

	if err := s.audit(ctx, attempt, result, cfg); err != nil {
		return nil, err
	}

	metrics.AccessDecisions.WithLabelValues("denied", reason.Code()).Inc()

	denials := 0
	if s.tracker != nil {
		var err error
		denials, err = s.tracker.RecordDenial(ctx, attempt.MessageID, attempt.UserID)
		if err != nil {
			s.logger.Warn("failed to record denial", zap.Error(err))
		}
	}

	if reason == access.DenialGeoRestricted {
		s.reportAnomaly(ctx, AnomalyReport{
			MessageID:   attempt.MessageID,
			UserID:      attempt.UserID,
			Type:        incident.TypeGeoViolation,
			Severity:    incident.SeverityMedium,
			Description: fmt.Sprintf("access to message %s denied from country %q", attempt.MessageID, attempt.Country),
			OccurredAt:  attempt.AttemptedAt,
		})
	}

	if denials > s.denialLimit {
		s.reportAnomaly(ctx, AnomalyReport{
			MessageID:   attempt.MessageID,
			UserID:      attempt.UserID,
			Type:        incident.TypeRapidAttempts,
			Severity:    incident.SeverityHigh,
			Description: fmt.Sprintf("%d denied attempts on message %s within the trailing window", denials, attempt.MessageID),
			OccurredAt:  attempt.AttemptedAt,
		})
	}

	if cfg != nil && cfg.EnableSuspiciousAlerts {
		s.notify(ctx, attempt.UserID, "message.access.denied", cfg)
	}

	return result, nil
}

// audit writes the single per-evaluation record. On failure the decision is
// withheld from the caller entirely.
func (s *service) audit(ctx context.Context, attempt access.Context, result *access.ValidationResult, cfg *message.SecurityConfig) error {
	record := access.NewAttemptRecord(attempt, result.Granted, result.DenialReason, result.RiskScore)
	record.VerificationUsed = result.VerificationMethod
	if cfg != nil && cfg.EnableSuspiciousAlerts {
		record.TriggeredAlert = !result.Granted || result.RequiresVerification
	}
	return s.recorder.Record(ctx, record)
}

func (s *service) reportAnomaly(ctx context.Context, report AnomalyReport) {
	if s.reporter == nil {
		return
	}
	s.reporter.ReportAnomaly(ctx, report)
}

func (s *service) notify(ctx context.Context, userID uuid.UUID, event string, cfg *message.SecurityConfig) {
	if s.notifier == nil || userID == uuid.Nil {
		return
	}
	if cfg != nil && !cfg.EnableSuspiciousAlerts {
		return
	}
	s.notifier.Notify(ctx, userID, event)
}
