package risk

import (
	"context"

	"go.uber.org/zap"

	"github.com/pawbridge/message-security-backend/internal/domain/access"
	"github.com/pawbridge/message-security-backend/internal/domain/message"
)

// service implements the Scorer interface as a weighted sum over independent
// factors, each bounded before summing, with the total clamped to [0, 100].
type service struct {
	history  HistoryProvider
	window   AttemptWindow
	holidays message.HolidayCalendar

	weights           Weights
	highRiskThreshold float64
	denialLimit       int

	logger *zap.Logger
}

// Config tunes the scorer.
type Config struct {
	Weights           Weights
	HighRiskThreshold float64
	DenialLimit       int
}

// NewService creates a risk scorer. history and window may be nil, in which
// case their factors always apply (no history means nothing is known).
func NewService(history HistoryProvider, window AttemptWindow, holidays message.HolidayCalendar, cfg *Config, logger *zap.Logger) Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &service{
		history:           history,
		window:            window,
		holidays:          holidays,
		weights:           DefaultWeights(),
		highRiskThreshold: DefaultHighRiskThreshold,
		denialLimit:       DefaultDenialLimit,
		logger:            logger,
	}
	if cfg != nil {
		s.weights = cfg.Weights
		if cfg.HighRiskThreshold > 0 {
			s.highRiskThreshold = cfg.HighRiskThreshold
		}
		if cfg.DenialLimit > 0 {
			s.denialLimit = cfg.DenialLimit
		}
	}
	return s
}

// Score evaluates the factors in their fixed order: device, IP, geography,
// time window, attempt velocity. Adding a factor can only raise the score.
func (s *service) Score(ctx context.Context, attempt access.Context, cfg *message.SecurityConfig) (*Assessment, error) {
	assessment := &Assessment{Factors: []Factor{}}

	if s.unknownDevice(ctx, attempt) {
		s.addFactor(assessment, FactorUnknownDevice, s.weights.UnknownDevice)
	}

	if s.unknownIP(ctx, attempt) {
		s.addFactor(assessment, FactorUnknownIP, s.weights.UnknownIP)
	}

	if s.unknownCountry(ctx, attempt) {
		s.addFactor(assessment, FactorUnknownCountry, s.weights.UnknownCountry)
	}

	if s.outsideTimeWindow(attempt, cfg) {
		s.addFactor(assessment, FactorOutsideWindow, s.weights.OutsideWindow)
	}

	if s.rapidAttempts(ctx, attempt) {
		s.addFactor(assessment, FactorRapidAttempts, s.weights.RapidAttempts)
	}

	if assessment.Score > ScoreMax {
		assessment.Score = ScoreMax
	}
	assessment.HighRisk = assessment.Score >= s.highRiskThreshold

	return assessment, nil
}

func (s *service) addFactor(a *Assessment, name string, weight float64) {
	if weight < 0 {
		weight = 0
	}
	if weight > ScoreMax {
		weight = ScoreMax
	}
	a.Score += weight
	a.Factors = append(a.Factors, Factor{Name: name, Weight: weight})
}

// History lookups err toward caution: a failed lookup counts as unknown.

func (s *service) unknownDevice(ctx context.Context, attempt access.Context) bool {
	if attempt.DeviceFingerprint == "" {
		return true
	}
	if s.history == nil {
		return true
	}
	known, err := s.history.KnownDevice(ctx, attempt.UserID, attempt.DeviceFingerprint)
	if err != nil {
		s.logger.Warn("device history lookup failed",
			zap.String("user_id", attempt.UserID.String()),
			zap.Error(err))
		return true
	}
	return !known
}

func (s *service) unknownIP(ctx context.Context, attempt access.Context) bool {
	if attempt.IPAddress == "" {
		return true
	}
	if s.history == nil {
		return true
	}
	known, err := s.history.KnownIP(ctx, attempt.UserID, attempt.IPAddress)
	if err != nil {
		s.logger.Warn("ip history lookup failed",
			zap.String("user_id", attempt.UserID.String()),
			zap.Error(err))
		return true
	}
	return !known
}

func (s *service) unknownCountry(ctx context.Context, attempt access.Context) bool {
	if attempt.Country == "" {
		return true
	}
	if s.history == nil {
		return true
	}
	known, err := s.history.KnownCountry(ctx, attempt.UserID, attempt.Country)
	if err != nil {
		s.logger.Warn("country history lookup failed",
			zap.String("user_id", attempt.UserID.String()),
			zap.Error(err))
		return true
	}
	return !known
}

// outsideTimeWindow only applies when the message actually configures a time
// restriction; an unrestricted message contributes nothing.
func (s *service) outsideTimeWindow(attempt access.Context, cfg *message.SecurityConfig) bool {
	if cfg == nil || cfg.TimeRestriction == nil {
		return false
	}
	allowed, err := cfg.TimeRestriction.Allows(attempt.AttemptedAt, s.holidays)
	if err != nil {
		s.logger.Warn("time restriction evaluation failed",
			zap.String("message_id", attempt.MessageID.String()),
			zap.Error(err))
		return true
	}
	return !allowed
}

func (s *service) rapidAttempts(ctx context.Context, attempt access.Context) bool {
	if s.window == nil {
		return false
	}
	denials, err := s.window.RecentDenials(ctx, attempt.MessageID, attempt.UserID)
	if err != nil {
		s.logger.Warn("denial window lookup failed",
			zap.String("message_id", attempt.MessageID.String()),
			zap.Error(err))
		return false
	}
	return denials > s.denialLimit
}
