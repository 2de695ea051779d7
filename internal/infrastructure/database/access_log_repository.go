package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pawbridge/message-security-backend/internal/domain/access"
	"github.com/pawbridge/message-security-backend/internal/service/audit"
)

// AccessLogRepository is the append-only store behind the audit recorder.
// There is deliberately no update or delete surface here.
type AccessLogRepository struct {
	db *pgxpool.Pool
}

func NewAccessLogRepository(db *pgxpool.Pool) *AccessLogRepository {
	return &AccessLogRepository{db: db}
}

func (r *AccessLogRepository) Insert(ctx context.Context, record *access.AttemptRecord) error {
	query := `
		INSERT INTO access_logs (
			id, message_id, user_id, attempted_at, ip_address, device_fingerprint,
			country, access_type, granted, denial_reason, verification_used,
			risk_score, triggered_alert, session_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.db.Exec(ctx, query,
		record.ID, record.MessageID, record.UserID, record.AttemptedAt,
		record.IPAddress, record.DeviceFingerprint, record.Country,
		record.AccessType, record.Granted, record.DenialReason,
		record.VerificationUsed, record.RiskScore, record.TriggeredAlert,
		record.SessionID,
	)
	return err
}

func (r *AccessLogRepository) Query(ctx context.Context, filters audit.QueryFilters) ([]*access.AttemptRecord, int, error) {
	var conditions []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filters.MessageID != nil {
		conditions = append(conditions, "message_id = "+arg(*filters.MessageID))
	}
	if filters.UserID != nil {
		conditions = append(conditions, "user_id = "+arg(*filters.UserID))
	}
	if filters.Granted != nil {
		conditions = append(conditions, "granted = "+arg(*filters.Granted))
	}
	if filters.From != nil {
		conditions = append(conditions, "attempted_at >= "+arg(*filters.From))
	}
	if filters.To != nil {
		conditions = append(conditions, "attempted_at <= "+arg(*filters.To))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM access_logs"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, message_id, user_id, attempted_at, ip_address, device_fingerprint,
			country, access_type, granted, denial_reason, verification_used,
			risk_score, triggered_alert, session_id
		FROM access_logs` + where +
		" ORDER BY attempted_at DESC LIMIT " + arg(filters.Limit) + " OFFSET " + arg(filters.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var records []*access.AttemptRecord
	for rows.Next() {
		var rec access.AttemptRecord
		if err := rows.Scan(
			&rec.ID, &rec.MessageID, &rec.UserID, &rec.AttemptedAt,
			&rec.IPAddress, &rec.DeviceFingerprint, &rec.Country,
			&rec.AccessType, &rec.Granted, &rec.DenialReason,
			&rec.VerificationUsed, &rec.RiskScore, &rec.TriggeredAlert,
			&rec.SessionID,
		); err != nil {
			return nil, 0, err
		}
		records = append(records, &rec)
	}

	return records, total, rows.Err()
}
