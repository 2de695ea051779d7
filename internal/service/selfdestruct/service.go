package selfdestruct

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainerrors "github.com/pawbridge/message-security-backend/internal/domain/errors"
	"github.com/pawbridge/message-security-backend/internal/domain/selfdestruct"
	"github.com/pawbridge/message-security-backend/internal/metrics"
)

type service struct {
	repo     Repository
	notifier Notifier
	locks    *keyedMutex
	logger   *zap.Logger
}

// NewService creates the timer manager. notifier may be nil.
func NewService(repo Repository, notifier Notifier, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		repo:     repo,
		notifier: notifier,
		locks:    newKeyedMutex(),
		logger:   logger,
	}
}

func (s *service) Configure(ctx context.Context, messageID uuid.UUID, req ConfigureRequest) (*selfdestruct.State, error) {
	if messageID == uuid.Nil {
		return nil, domainerrors.NewValidationError("INVALID_MESSAGE_ID", "message ID cannot be nil")
	}

	unlock := s.locks.Lock(messageID)
	defer unlock()

	existing, err := s.repo.Get(ctx, messageID)
	if err != nil {
		return nil, domainerrors.NewInternalError("failed to load self-destruct state").WithCause(err)
	}
	if existing != nil && existing.Destroyed {
		return nil, domainerrors.NewAlreadyDestroyedError(messageID.String())
	}

	state, err := selfdestruct.New(messageID, selfdestruct.Params{
		Mode:                req.Mode,
		TriggerEvent:        req.TriggerEvent,
		TimerSeconds:        req.TimerSeconds,
		MaxViews:            req.MaxViews,
		ScheduledAt:         req.ScheduledAt,
		NotifyOnDestruction: req.NotifyOnDestruction,
		ShowCountdown:       req.ShowCountdown,
		BlockScreenshot:     req.BlockScreenshot,
	})
	if err != nil {
		return nil, domainerrors.NewValidationError("INVALID_DESTRUCT_CONFIG", err.Error())
	}

	if err := s.repo.Save(ctx, state); err != nil {
		return nil, domainerrors.NewInternalError("failed to store self-destruct state").WithCause(err)
	}

	s.logger.Info("self-destruct configured",
		zap.String("message_id", messageID.String()),
		zap.String("mode", state.Mode.String()),
		zap.String("trigger", state.TriggerEvent.String()))

	return state, nil
}

func (s *service) RecordView(ctx context.Context, messageID, userID uuid.UUID) (*selfdestruct.State, error) {
	if messageID == uuid.Nil {
		return nil, domainerrors.NewValidationError("INVALID_MESSAGE_ID", "message ID cannot be nil")
	}

	unlock := s.locks.Lock(messageID)
	defer unlock()

	state, err := s.repo.Get(ctx, messageID)
	if err != nil {
		return nil, domainerrors.NewInternalError("failed to load self-destruct state").WithCause(err)
	}
	if state == nil {
		return nil, domainerrors.ErrDestructNotFound
	}
	if state.Destroyed {
		// Terminal state: surface the conflict, never mutate.
		return state, domainerrors.NewAlreadyDestroyedError(messageID.String())
	}

	destroyed, method := state.RecordView()

	if err := s.repo.Save(ctx, state); err != nil {
		return nil, domainerrors.NewInternalError("failed to store self-destruct state").WithCause(err)
	}

	if destroyed {
		metrics.Destructions.WithLabelValues(method).Inc()
		s.logger.Info("message destroyed",
			zap.String("message_id", messageID.String()),
			zap.String("method", method),
			zap.Int("view_count", state.ViewCount))
		s.notifyDestruction(ctx, state)
	}

	return state, nil
}

func (s *service) Destroy(ctx context.Context, messageID uuid.UUID, method string) (*selfdestruct.State, error) {
	if messageID == uuid.Nil {
		return nil, domainerrors.NewValidationError("INVALID_MESSAGE_ID", "message ID cannot be nil")
	}
	if method == "" {
		method = selfdestruct.MethodManual
	}

	unlock := s.locks.Lock(messageID)
	defer unlock()

	state, err := s.repo.Get(ctx, messageID)
	if err != nil {
		return nil, domainerrors.NewInternalError("failed to load self-destruct state").WithCause(err)
	}
	if state == nil {
		return nil, domainerrors.ErrDestructNotFound
	}
	if state.Destroyed {
		return state, nil
	}

	state.Destroy(method)

	if err := s.repo.Save(ctx, state); err != nil {
		return nil, domainerrors.NewInternalError("failed to store self-destruct state").WithCause(err)
	}

	metrics.Destructions.WithLabelValues(method).Inc()
	s.logger.Info("message destroyed",
		zap.String("message_id", messageID.String()),
		zap.String("method", method))
	s.notifyDestruction(ctx, state)

	return state, nil
}

// Get lazily destroys a state whose deadline has passed before returning it.
// Destruction is only guaranteed to be observed on the next access or poll;
// there is no background sweep.
func (s *service) Get(ctx context.Context, messageID uuid.UUID) (*selfdestruct.State, error) {
	if messageID == uuid.Nil {
		return nil, domainerrors.NewValidationError("INVALID_MESSAGE_ID", "message ID cannot be nil")
	}

	unlock := s.locks.Lock(messageID)
	defer unlock()

	state, err := s.repo.Get(ctx, messageID)
	if err != nil {
		return nil, domainerrors.NewInternalError("failed to load self-destruct state").WithCause(err)
	}
	if state == nil {
		return nil, domainerrors.ErrDestructNotFound
	}

	if state.ShouldDestruct() {
		state.Destroy(selfdestruct.MethodTimerExpired)
		if err := s.repo.Save(ctx, state); err != nil {
			return nil, domainerrors.NewInternalError("failed to store self-destruct state").WithCause(err)
		}
		metrics.Destructions.WithLabelValues(selfdestruct.MethodTimerExpired).Inc()
		s.notifyDestruction(ctx, state)
	}

	return state, nil
}

func (s *service) notifyDestruction(ctx context.Context, state *selfdestruct.State) {
	if s.notifier == nil || !state.NotifyOnDestruction {
		return
	}
	s.notifier.NotifyDestruction(ctx, state.MessageID, state.DestructionMethod)
}
