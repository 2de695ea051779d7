package database

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pawbridge/message-security-backend/internal/domain/errors"
	"github.com/pawbridge/message-security-backend/internal/domain/incident"
	incidentsvc "github.com/pawbridge/message-security-backend/internal/service/incident"
)

const incidentColumns = `id, message_id, user_id, incident_type, severity, status,
	detection_method, description, occurred_at, detected_at,
	assigned_to, investigation_notes, remediation_actions, resolution_summary, resolved_at,
	risk_score, notify_owner, notify_security, created_at, updated_at`

// IncidentRepository persists security incidents.
type IncidentRepository struct {
	db *pgxpool.Pool
}

func NewIncidentRepository(db *pgxpool.Pool) *IncidentRepository {
	return &IncidentRepository{db: db}
}

func (r *IncidentRepository) Insert(ctx context.Context, inc *incident.Incident) error {
	query := `
		INSERT INTO security_incidents (` + incidentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`

	_, err := r.db.Exec(ctx, query,
		inc.ID, inc.MessageID, inc.UserID, inc.Type, inc.Severity, inc.Status,
		inc.DetectionMethod, inc.Description, inc.OccurredAt, inc.DetectedAt,
		inc.AssignedTo, inc.InvestigationNotes, inc.RemediationActions, inc.ResolutionSummary, inc.ResolvedAt,
		inc.RiskScore, inc.NotifyOwner, inc.NotifySecurity, inc.CreatedAt, inc.UpdatedAt,
	)
	return err
}

func (r *IncidentRepository) Update(ctx context.Context, inc *incident.Incident) error {
	query := `
		UPDATE security_incidents SET
			severity = $2,
			status = $3,
			assigned_to = $4,
			investigation_notes = $5,
			remediation_actions = $6,
			resolution_summary = $7,
			resolved_at = $8,
			updated_at = $9
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		inc.ID, inc.Severity, inc.Status,
		inc.AssignedTo, inc.InvestigationNotes, inc.RemediationActions, inc.ResolutionSummary, inc.ResolvedAt,
		inc.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.ErrIncidentNotFound
	}
	return nil
}

func (r *IncidentRepository) GetByID(ctx context.Context, id uuid.UUID) (*incident.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM security_incidents WHERE id = $1`

	inc, err := scanIncident(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return inc, nil
}

func (r *IncidentRepository) Search(ctx context.Context, filters incidentsvc.SearchFilters) ([]*incident.Incident, int, error) {
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
	if filters.Status != nil {
		conditions = append(conditions, "status = "+arg(*filters.Status))
	}
	if filters.Severity != nil {
		conditions = append(conditions, "severity = "+arg(*filters.Severity))
	}
	if filters.Type != nil {
		conditions = append(conditions, "incident_type = "+arg(*filters.Type))
	}
	if filters.From != nil {
		conditions = append(conditions, "occurred_at >= "+arg(*filters.From))
	}
	if filters.To != nil {
		conditions = append(conditions, "occurred_at <= "+arg(*filters.To))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM security_incidents"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	orderCol := "occurred_at"
	switch filters.SortBy {
	case incidentsvc.SortBySeverity:
		orderCol = "severity"
	case incidentsvc.SortByRisk:
		orderCol = "risk_score"
	}
	direction := "ASC"
	if filters.SortDesc {
		direction = "DESC"
	}

	query := `SELECT ` + incidentColumns + ` FROM security_incidents` + where +
		fmt.Sprintf(" ORDER BY %s %s, id ASC LIMIT %s OFFSET %s",
			orderCol, direction, arg(filters.Limit), arg(filters.Offset))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var incidents []*incident.Incident
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, 0, err
		}
		incidents = append(incidents, inc)
	}

	return incidents, total, rows.Err()
}

func scanIncident(row pgx.Row) (*incident.Incident, error) {
	var inc incident.Incident
	err := row.Scan(
		&inc.ID, &inc.MessageID, &inc.UserID, &inc.Type, &inc.Severity, &inc.Status,
		&inc.DetectionMethod, &inc.Description, &inc.OccurredAt, &inc.DetectedAt,
		&inc.AssignedTo, &inc.InvestigationNotes, &inc.RemediationActions, &inc.ResolutionSummary, &inc.ResolvedAt,
		&inc.RiskScore, &inc.NotifyOwner, &inc.NotifySecurity, &inc.CreatedAt, &inc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inc, nil
}
