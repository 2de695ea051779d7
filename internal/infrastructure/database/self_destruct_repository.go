package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pawbridge/message-security-backend/internal/domain/selfdestruct"
)

// SelfDestructRepository persists self-destruct states, one row per message.
type SelfDestructRepository struct {
	db *pgxpool.Pool
}

func NewSelfDestructRepository(db *pgxpool.Pool) *SelfDestructRepository {
	return &SelfDestructRepository{db: db}
}

func (r *SelfDestructRepository) Save(ctx context.Context, state *selfdestruct.State) error {
	query := `
		INSERT INTO self_destruct_states (
			id, message_id, mode, trigger_event, timer_seconds,
			timer_started_at, destruct_at, destroyed, destroyed_at, destruction_method,
			max_views, view_count, notify_on_destruction, show_countdown, block_screenshot,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (message_id) DO UPDATE SET
			id = EXCLUDED.id,
			mode = EXCLUDED.mode,
			trigger_event = EXCLUDED.trigger_event,
			timer_seconds = EXCLUDED.timer_seconds,
			timer_started_at = EXCLUDED.timer_started_at,
			destruct_at = EXCLUDED.destruct_at,
			destroyed = EXCLUDED.destroyed,
			destroyed_at = EXCLUDED.destroyed_at,
			destruction_method = EXCLUDED.destruction_method,
			max_views = EXCLUDED.max_views,
			view_count = EXCLUDED.view_count,
			notify_on_destruction = EXCLUDED.notify_on_destruction,
			show_countdown = EXCLUDED.show_countdown,
			block_screenshot = EXCLUDED.block_screenshot,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.Exec(ctx, query,
		state.ID, state.MessageID, state.Mode, state.TriggerEvent, state.TimerSeconds,
		state.TimerStartedAt, state.DestructAt, state.Destroyed, state.DestroyedAt, state.DestructionMethod,
		state.MaxViews, state.ViewCount, state.NotifyOnDestruction, state.ShowCountdown, state.BlockScreenshot,
		state.CreatedAt, state.UpdatedAt,
	)
	return err
}

// Get returns the state for a message, or (nil, nil) when none exists.
func (r *SelfDestructRepository) Get(ctx context.Context, messageID uuid.UUID) (*selfdestruct.State, error) {
	query := `
		SELECT id, message_id, mode, trigger_event, timer_seconds,
			timer_started_at, destruct_at, destroyed, destroyed_at, destruction_method,
			max_views, view_count, notify_on_destruction, show_countdown, block_screenshot,
			created_at, updated_at
		FROM self_destruct_states
		WHERE message_id = $1`

	var state selfdestruct.State
	err := r.db.QueryRow(ctx, query, messageID).Scan(
		&state.ID, &state.MessageID, &state.Mode, &state.TriggerEvent, &state.TimerSeconds,
		&state.TimerStartedAt, &state.DestructAt, &state.Destroyed, &state.DestroyedAt, &state.DestructionMethod,
		&state.MaxViews, &state.ViewCount, &state.NotifyOnDestruction, &state.ShowCountdown, &state.BlockScreenshot,
		&state.CreatedAt, &state.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &state, nil
}
