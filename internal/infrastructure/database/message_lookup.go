package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pawbridge/message-security-backend/internal/service/accesspolicy"
)

// MessageLookup reads message and conversation rows owned by the messaging
// service. This subsystem shares its database but only ever reads from these
// tables.
type MessageLookup struct {
	db *pgxpool.Pool
}

func NewMessageLookup(db *pgxpool.Pool) *MessageLookup {
	return &MessageLookup{db: db}
}

func (l *MessageLookup) GetMessage(ctx context.Context, id uuid.UUID) (*accesspolicy.MessageRef, error) {
	query := `SELECT id, sender_id, conversation_id FROM messages WHERE id = $1`

	ref := &accesspolicy.MessageRef{}
	err := l.db.QueryRow(ctx, query, id).Scan(&ref.ID, &ref.SenderID, &ref.ConversationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &accesspolicy.MessageRef{ID: id, Exists: false}, nil
		}
		return nil, err
	}
	ref.Exists = true
	return ref, nil
}

func (l *MessageLookup) GetParticipants(ctx context.Context, conversationID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT user_id FROM conversation_participants WHERE conversation_id = $1`

	rows, err := l.db.Query(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []uuid.UUID
	for rows.Next() {
		var userID uuid.UUID
		if err := rows.Scan(&userID); err != nil {
			return nil, err
		}
		participants = append(participants, userID)
	}
	return participants, rows.Err()
}
