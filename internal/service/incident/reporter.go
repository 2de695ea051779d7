package incident

import (
	"context"

	"go.uber.org/zap"

	"github.com/pawbridge/message-security-backend/internal/domain/incident"
	"github.com/pawbridge/message-security-backend/internal/service/accesspolicy"
)

// Reporter adapts the tracker to the policy engine's injectable anomaly hook:
// automated detections become incidents without blocking evaluation.
type Reporter struct {
	svc    Service
	logger *zap.Logger
}

func NewReporter(svc Service, logger *zap.Logger) *Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reporter{svc: svc, logger: logger}
}

func (r *Reporter) ReportAnomaly(ctx context.Context, report accesspolicy.AnomalyReport) {
	messageID := report.MessageID
	userID := report.UserID

	_, err := r.svc.Create(ctx, CreateRequest{
		MessageID:       &messageID,
		UserID:          &userID,
		Type:            report.Type,
		Severity:        report.Severity,
		Description:     report.Description,
		DetectionMethod: incident.DetectionAutomated,
		OccurredAt:      report.OccurredAt,
		RiskScore:       report.RiskScore,
		NotifySecurity:  true,
	})
	if err != nil {
		r.logger.Error("automated incident creation failed",
			zap.String("message_id", report.MessageID.String()),
			zap.Error(err))
	}
}
