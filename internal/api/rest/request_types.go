package rest

import (
	"time"

	"github.com/google/uuid"

	"github.com/pawbridge/message-security-backend/internal/domain/access"
	"github.com/pawbridge/message-security-backend/internal/domain/incident"
	"github.com/pawbridge/message-security-backend/internal/domain/message"
	"github.com/pawbridge/message-security-backend/internal/domain/selfdestruct"
	incidentsvc "github.com/pawbridge/message-security-backend/internal/service/incident"
	selfdestructsvc "github.com/pawbridge/message-security-backend/internal/service/selfdestruct"
)

// TimeRestrictionRequest mirrors message.TimeRestriction on the wire.
type TimeRestrictionRequest struct {
	AllowedDays      []int  `json:"allowed_days" validate:"dive,gte=0,lte=6"`
	AllowedTimeStart string `json:"allowed_time_start,omitempty"`
	AllowedTimeEnd   string `json:"allowed_time_end,omitempty"`
	Timezone         string `json:"timezone,omitempty"`
	BlockWeekends    bool   `json:"block_weekends"`
	BlockHolidays    bool   `json:"block_holidays"`
}

// ConfigureSecurityRequest installs or replaces a message's security config.
type ConfigureSecurityRequest struct {
	SecurityLevel      string `json:"security_level,omitempty" validate:"omitempty,oneof=standard elevated maximum"`
	DataClassification string `json:"data_classification,omitempty" validate:"omitempty,oneof=public internal confidential restricted"`
	RequiredClearance  int    `json:"required_clearance" validate:"gte=0"`

	RequireAuthentication bool   `json:"require_authentication"`
	RequireVerification   bool   `json:"require_verification"`
	VerificationMethod    string `json:"verification_method,omitempty" validate:"omitempty,oneof=none email sms totp biometric"`

	BlockScreenshot bool `json:"block_screenshot"`
	BlockCopyPaste  bool `json:"block_copy_paste"`
	BlockRightClick bool `json:"block_right_click"`
	BlockForward    bool `json:"block_forward"`
	AllowDownload   bool `json:"allow_download"`
	AllowPrint      bool `json:"allow_print"`

	WatermarkEnabled bool   `json:"watermark_enabled"`
	WatermarkText    string `json:"watermark_text,omitempty" validate:"max=256"`

	AccessExpiresAt        *time.Time              `json:"access_expires_at,omitempty"`
	GeographicRestrictions []string                `json:"geographic_restrictions,omitempty" validate:"dive,len=2"`
	TimeRestriction        *TimeRestrictionRequest `json:"time_restriction,omitempty"`
	IPWhitelist            []string                `json:"ip_whitelist,omitempty" validate:"dive,ip"`
	IPBlacklist            []string                `json:"ip_blacklist,omitempty" validate:"dive,ip"`
	AllowedDevices         []string                `json:"allowed_devices,omitempty"`

	EnableAuditLogging     *bool `json:"enable_audit_logging,omitempty"`
	EnableAnalytics        bool  `json:"enable_analytics"`
	EnableSuspiciousAlerts bool  `json:"enable_suspicious_alerts"`
}

// ToDomain converts the request to a domain config for the given message.
func (r *ConfigureSecurityRequest) ToDomain(messageID uuid.UUID) (*message.SecurityConfig, error) {
	level, err := message.ParseSecurityLevel(r.SecurityLevel)
	if err != nil {
		return nil, err
	}
	classification, err := message.ParseDataClassification(r.DataClassification)
	if err != nil {
		return nil, err
	}
	method, err := message.ParseVerificationMethod(r.VerificationMethod)
	if err != nil {
		return nil, err
	}

	cfg, err := message.NewSecurityConfig(messageID)
	if err != nil {
		return nil, err
	}

	cfg.SecurityLevel = level
	cfg.DataClassification = classification
	cfg.RequiredClearance = r.RequiredClearance
	cfg.RequireAuthentication = r.RequireAuthentication
	cfg.RequireVerification = r.RequireVerification
	cfg.VerificationMethod = method
	cfg.BlockScreenshot = r.BlockScreenshot
	cfg.BlockCopyPaste = r.BlockCopyPaste
	cfg.BlockRightClick = r.BlockRightClick
	cfg.BlockForward = r.BlockForward
	cfg.AllowDownload = r.AllowDownload
	cfg.AllowPrint = r.AllowPrint
	cfg.WatermarkEnabled = r.WatermarkEnabled
	cfg.WatermarkText = r.WatermarkText
	cfg.AccessExpiresAt = r.AccessExpiresAt
	cfg.GeographicRestrictions = r.GeographicRestrictions
	cfg.IPWhitelist = r.IPWhitelist
	cfg.IPBlacklist = r.IPBlacklist
	cfg.AllowedDevices = r.AllowedDevices
	cfg.EnableAnalytics = r.EnableAnalytics
	cfg.EnableSuspiciousAlerts = r.EnableSuspiciousAlerts
	if r.EnableAuditLogging != nil {
		cfg.EnableAuditLogging = *r.EnableAuditLogging
	}

	if r.TimeRestriction != nil {
		tr := &message.TimeRestriction{
			AllowedTimeStart: r.TimeRestriction.AllowedTimeStart,
			AllowedTimeEnd:   r.TimeRestriction.AllowedTimeEnd,
			Timezone:         r.TimeRestriction.Timezone,
			BlockWeekends:    r.TimeRestriction.BlockWeekends,
			BlockHolidays:    r.TimeRestriction.BlockHolidays,
		}
		for _, d := range r.TimeRestriction.AllowedDays {
			tr.AllowedDays = append(tr.AllowedDays, time.Weekday(d))
		}
		cfg.TimeRestriction = tr
	}

	return cfg, nil
}

// EvaluateAccessRequest describes one access attempt to judge.
type EvaluateAccessRequest struct {
	UserID            uuid.UUID  `json:"user_id" validate:"required"`
	IPAddress         string     `json:"ip_address" validate:"omitempty,ip"`
	DeviceFingerprint string     `json:"device_fingerprint,omitempty"`
	Country           string     `json:"country,omitempty" validate:"omitempty,len=2"`
	Timezone          string     `json:"timezone,omitempty"`
	AccessType        string     `json:"access_type,omitempty" validate:"omitempty,oneof=view download print forward"`
	SessionID         *uuid.UUID `json:"session_id,omitempty"`
}

// ToDomain converts the request to an attempt context, stamping the attempt
// time server-side.
func (r *EvaluateAccessRequest) ToDomain(messageID uuid.UUID) (access.Context, error) {
	accessType, err := access.ParseType(r.AccessType)
	if err != nil {
		return access.Context{}, err
	}

	return access.Context{
		MessageID:         messageID,
		UserID:            r.UserID,
		IPAddress:         r.IPAddress,
		DeviceFingerprint: r.DeviceFingerprint,
		Country:           r.Country,
		Timezone:          r.Timezone,
		AccessType:        accessType,
		AttemptedAt:       time.Now(),
		SessionID:         r.SessionID,
	}, nil
}

// ConfigureDestructRequest installs a message's self-destruct settings.
type ConfigureDestructRequest struct {
	Mode                string     `json:"mode,omitempty" validate:"omitempty,oneof=timer view_count scheduled_time combined"`
	TriggerEvent        string     `json:"trigger_event,omitempty" validate:"omitempty,oneof=first_read sent custom"`
	TimerSeconds        int        `json:"timer_seconds" validate:"gte=0"`
	MaxViews            *int       `json:"max_views,omitempty" validate:"omitempty,gt=0"`
	ScheduledAt         *time.Time `json:"scheduled_at,omitempty"`
	NotifyOnDestruction bool       `json:"notify_on_destruction"`
	ShowCountdown       bool       `json:"show_countdown"`
	BlockScreenshot     bool       `json:"block_screenshot"`
}

func (r *ConfigureDestructRequest) ToService() (selfdestructsvc.ConfigureRequest, error) {
	mode, err := selfdestruct.ParseMode(r.Mode)
	if err != nil {
		return selfdestructsvc.ConfigureRequest{}, err
	}
	trigger, err := selfdestruct.ParseTriggerEvent(r.TriggerEvent)
	if err != nil {
		return selfdestructsvc.ConfigureRequest{}, err
	}

	return selfdestructsvc.ConfigureRequest{
		Mode:                mode,
		TriggerEvent:        trigger,
		TimerSeconds:        r.TimerSeconds,
		MaxViews:            r.MaxViews,
		ScheduledAt:         r.ScheduledAt,
		NotifyOnDestruction: r.NotifyOnDestruction,
		ShowCountdown:       r.ShowCountdown,
		BlockScreenshot:     r.BlockScreenshot,
	}, nil
}

// RecordViewRequest applies one granted view to a message.
type RecordViewRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
}

// DestroyRequest forces destruction of a message.
type DestroyRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=256"`
}

// CreateIncidentRequest opens a security incident.
type CreateIncidentRequest struct {
	MessageID      *uuid.UUID `json:"message_id,omitempty"`
	UserID         *uuid.UUID `json:"user_id,omitempty"`
	Type           string     `json:"type" validate:"required,oneof=unauthorized_access geo_violation rapid_attempts screenshot_attempt policy_bypass other"`
	Severity       string     `json:"severity,omitempty" validate:"omitempty,oneof=low medium high critical"`
	Description    string     `json:"description" validate:"required,max=4096"`
	OccurredAt     time.Time  `json:"occurred_at,omitempty"`
	RiskScore      float64    `json:"risk_score" validate:"gte=0,lte=100"`
	NotifyOwner    bool       `json:"notify_owner"`
	NotifySecurity bool       `json:"notify_security"`
}

func (r *CreateIncidentRequest) ToService() (incidentsvc.CreateRequest, error) {
	incidentType, err := incident.ParseType(r.Type)
	if err != nil {
		return incidentsvc.CreateRequest{}, err
	}
	severity, err := incident.ParseSeverity(r.Severity)
	if err != nil {
		return incidentsvc.CreateRequest{}, err
	}

	return incidentsvc.CreateRequest{
		MessageID:       r.MessageID,
		UserID:          r.UserID,
		Type:            incidentType,
		Severity:        severity,
		Description:     r.Description,
		DetectionMethod: incident.DetectionManual,
		OccurredAt:      r.OccurredAt,
		RiskScore:       r.RiskScore,
		NotifyOwner:     r.NotifyOwner,
		NotifySecurity:  r.NotifySecurity,
	}, nil
}

// UpdateIncidentRequest mutates an incident; nil fields stay unchanged.
type UpdateIncidentRequest struct {
	Status             *string    `json:"status,omitempty" validate:"omitempty,oneof=open investigating resolved closed false_positive"`
	Severity           *string    `json:"severity,omitempty" validate:"omitempty,oneof=low medium high critical"`
	AssignedTo         *uuid.UUID `json:"assigned_to,omitempty"`
	InvestigationNotes *string    `json:"investigation_notes,omitempty"`
	RemediationActions *string    `json:"remediation_actions,omitempty"`
	ResolutionSummary  *string    `json:"resolution_summary,omitempty"`
}

func (r *UpdateIncidentRequest) ToService() (incidentsvc.UpdateRequest, error) {
	req := incidentsvc.UpdateRequest{
		AssignedTo:         r.AssignedTo,
		InvestigationNotes: r.InvestigationNotes,
		RemediationActions: r.RemediationActions,
		ResolutionSummary:  r.ResolutionSummary,
	}

	if r.Status != nil {
		status, err := incident.ParseStatus(*r.Status)
		if err != nil {
			return incidentsvc.UpdateRequest{}, err
		}
		req.Status = &status
	}
	if r.Severity != nil {
		severity, err := incident.ParseSeverity(*r.Severity)
		if err != nil {
			return incidentsvc.UpdateRequest{}, err
		}
		req.Severity = &severity
	}

	return req, nil
}
