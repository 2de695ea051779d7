package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pawbridge/message-security-backend/internal/domain/message"
)

// SecurityConfigRepository persists message security configs. The message_id
// unique constraint enforces the one-active-config-per-message invariant at
// the storage layer; Upsert replaces, never duplicates.
type SecurityConfigRepository struct {
	db *pgxpool.Pool
}

func NewSecurityConfigRepository(db *pgxpool.Pool) *SecurityConfigRepository {
	return &SecurityConfigRepository{db: db}
}

func (r *SecurityConfigRepository) Upsert(ctx context.Context, cfg *message.SecurityConfig) error {
	geo, err := json.Marshal(cfg.GeographicRestrictions)
	if err != nil {
		return fmt.Errorf("marshaling geographic restrictions: %w", err)
	}
	whitelist, err := json.Marshal(cfg.IPWhitelist)
	if err != nil {
		return fmt.Errorf("marshaling ip whitelist: %w", err)
	}
	blacklist, err := json.Marshal(cfg.IPBlacklist)
	if err != nil {
		return fmt.Errorf("marshaling ip blacklist: %w", err)
	}
	devices, err := json.Marshal(cfg.AllowedDevices)
	if err != nil {
		return fmt.Errorf("marshaling allowed devices: %w", err)
	}

	var timeRestriction []byte
	if cfg.TimeRestriction != nil {
		timeRestriction, err = json.Marshal(cfg.TimeRestriction)
		if err != nil {
			return fmt.Errorf("marshaling time restriction: %w", err)
		}
	}

	query := `
		INSERT INTO message_security_configs (
			id, message_id, security_level, data_classification, required_clearance,
			require_authentication, require_verification, verification_method,
			block_screenshot, block_copy_paste, block_right_click, block_forward,
			allow_download, allow_print, watermark_enabled, watermark_text,
			access_expires_at, geographic_restrictions, time_restriction,
			ip_whitelist, ip_blacklist, allowed_devices,
			enable_audit_logging, enable_analytics, enable_suspicious_alerts,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27
		)
		ON CONFLICT (message_id) DO UPDATE SET
			security_level = EXCLUDED.security_level,
			data_classification = EXCLUDED.data_classification,
			required_clearance = EXCLUDED.required_clearance,
			require_authentication = EXCLUDED.require_authentication,
			require_verification = EXCLUDED.require_verification,
			verification_method = EXCLUDED.verification_method,
			block_screenshot = EXCLUDED.block_screenshot,
			block_copy_paste = EXCLUDED.block_copy_paste,
			block_right_click = EXCLUDED.block_right_click,
			block_forward = EXCLUDED.block_forward,
			allow_download = EXCLUDED.allow_download,
			allow_print = EXCLUDED.allow_print,
			watermark_enabled = EXCLUDED.watermark_enabled,
			watermark_text = EXCLUDED.watermark_text,
			access_expires_at = EXCLUDED.access_expires_at,
			geographic_restrictions = EXCLUDED.geographic_restrictions,
			time_restriction = EXCLUDED.time_restriction,
			ip_whitelist = EXCLUDED.ip_whitelist,
			ip_blacklist = EXCLUDED.ip_blacklist,
			allowed_devices = EXCLUDED.allowed_devices,
			enable_audit_logging = EXCLUDED.enable_audit_logging,
			enable_analytics = EXCLUDED.enable_analytics,
			enable_suspicious_alerts = EXCLUDED.enable_suspicious_alerts,
			updated_at = EXCLUDED.updated_at`

	_, err = r.db.Exec(ctx, query,
		cfg.ID, cfg.MessageID, cfg.SecurityLevel, cfg.DataClassification, cfg.RequiredClearance,
		cfg.RequireAuthentication, cfg.RequireVerification, cfg.VerificationMethod,
		cfg.BlockScreenshot, cfg.BlockCopyPaste, cfg.BlockRightClick, cfg.BlockForward,
		cfg.AllowDownload, cfg.AllowPrint, cfg.WatermarkEnabled, cfg.WatermarkText,
		cfg.AccessExpiresAt, geo, timeRestriction,
		whitelist, blacklist, devices,
		cfg.EnableAuditLogging, cfg.EnableAnalytics, cfg.EnableSuspiciousAlerts,
		cfg.CreatedAt, cfg.UpdatedAt,
	)
	return err
}

// GetActive returns the config for a message, or (nil, nil) when the message
// is unprotected.
func (r *SecurityConfigRepository) GetActive(ctx context.Context, messageID uuid.UUID) (*message.SecurityConfig, error) {
	query := `
		SELECT id, message_id, security_level, data_classification, required_clearance,
			require_authentication, require_verification, verification_method,
			block_screenshot, block_copy_paste, block_right_click, block_forward,
			allow_download, allow_print, watermark_enabled, watermark_text,
			access_expires_at, geographic_restrictions, time_restriction,
			ip_whitelist, ip_blacklist, allowed_devices,
			enable_audit_logging, enable_analytics, enable_suspicious_alerts,
			created_at, updated_at
		FROM message_security_configs
		WHERE message_id = $1`

	var cfg message.SecurityConfig
	var geo, whitelist, blacklist, devices, timeRestriction []byte

	err := r.db.QueryRow(ctx, query, messageID).Scan(
		&cfg.ID, &cfg.MessageID, &cfg.SecurityLevel, &cfg.DataClassification, &cfg.RequiredClearance,
		&cfg.RequireAuthentication, &cfg.RequireVerification, &cfg.VerificationMethod,
		&cfg.BlockScreenshot, &cfg.BlockCopyPaste, &cfg.BlockRightClick, &cfg.BlockForward,
		&cfg.AllowDownload, &cfg.AllowPrint, &cfg.WatermarkEnabled, &cfg.WatermarkText,
		&cfg.AccessExpiresAt, &geo, &timeRestriction,
		&whitelist, &blacklist, &devices,
		&cfg.EnableAuditLogging, &cfg.EnableAnalytics, &cfg.EnableSuspiciousAlerts,
		&cfg.CreatedAt, &cfg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if err := unmarshalInto(geo, &cfg.GeographicRestrictions); err != nil {
		return nil, err
	}
	if err := unmarshalInto(whitelist, &cfg.IPWhitelist); err != nil {
		return nil, err
	}
	if err := unmarshalInto(blacklist, &cfg.IPBlacklist); err != nil {
		return nil, err
	}
	if err := unmarshalInto(devices, &cfg.AllowedDevices); err != nil {
		return nil, err
	}
	if len(timeRestriction) > 0 {
		cfg.TimeRestriction = &message.TimeRestriction{}
		if err := json.Unmarshal(timeRestriction, cfg.TimeRestriction); err != nil {
			return nil, fmt.Errorf("unmarshaling time restriction: %w", err)
		}
	}

	return &cfg, nil
}

func unmarshalInto(data []byte, dest *[]string) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshaling list column: %w", err)
	}
	return nil
}
