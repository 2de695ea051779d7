package rest

import (
	"time"

	"github.com/google/uuid"

	"github.com/pawbridge/message-security-backend/internal/domain/access"
	"github.com/pawbridge/message-security-backend/internal/domain/incident"
	"github.com/pawbridge/message-security-backend/internal/domain/message"
	"github.com/pawbridge/message-security-backend/internal/domain/selfdestruct"
)

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// SecurityConfigResponse echoes an installed config with string enums.
type SecurityConfigResponse struct {
	ID                 uuid.UUID `json:"id"`
	MessageID          uuid.UUID `json:"message_id"`
	SecurityLevel      string    `json:"security_level"`
	DataClassification string    `json:"data_classification"`
	RequiredClearance  int       `json:"required_clearance"`

	RequireAuthentication bool   `json:"require_authentication"`
	RequireVerification   bool   `json:"require_verification"`
	VerificationMethod    string `json:"verification_method"`

	BlockScreenshot bool `json:"block_screenshot"`
	BlockCopyPaste  bool `json:"block_copy_paste"`
	BlockRightClick bool `json:"block_right_click"`
	BlockForward    bool `json:"block_forward"`
	AllowDownload   bool `json:"allow_download"`
	AllowPrint      bool `json:"allow_print"`

	WatermarkEnabled bool   `json:"watermark_enabled"`
	WatermarkText    string `json:"watermark_text,omitempty"`

	AccessExpiresAt        *time.Time               `json:"access_expires_at,omitempty"`
	GeographicRestrictions []string                 `json:"geographic_restrictions,omitempty"`
	TimeRestriction        *message.TimeRestriction `json:"time_restriction,omitempty"`
	IPWhitelist            []string                 `json:"ip_whitelist,omitempty"`
	IPBlacklist            []string                 `json:"ip_blacklist,omitempty"`
	AllowedDevices         []string                 `json:"allowed_devices,omitempty"`

	EnableAuditLogging     bool `json:"enable_audit_logging"`
	EnableAnalytics        bool `json:"enable_analytics"`
	EnableSuspiciousAlerts bool `json:"enable_suspicious_alerts"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewSecurityConfigResponse(cfg *message.SecurityConfig) *SecurityConfigResponse {
	return &SecurityConfigResponse{
		ID:                     cfg.ID,
		MessageID:              cfg.MessageID,
		SecurityLevel:          cfg.SecurityLevel.String(),
		DataClassification:     cfg.DataClassification.String(),
		RequiredClearance:      cfg.RequiredClearance,
		RequireAuthentication:  cfg.RequireAuthentication,
		RequireVerification:    cfg.RequireVerification,
		VerificationMethod:     cfg.VerificationMethod.String(),
		BlockScreenshot:        cfg.BlockScreenshot,
		BlockCopyPaste:         cfg.BlockCopyPaste,
		BlockRightClick:        cfg.BlockRightClick,
		BlockForward:           cfg.BlockForward,
		AllowDownload:          cfg.AllowDownload,
		AllowPrint:             cfg.AllowPrint,
		WatermarkEnabled:       cfg.WatermarkEnabled,
		WatermarkText:          cfg.WatermarkText,
		AccessExpiresAt:        cfg.AccessExpiresAt,
		GeographicRestrictions: cfg.GeographicRestrictions,
		TimeRestriction:        cfg.TimeRestriction,
		IPWhitelist:            cfg.IPWhitelist,
		IPBlacklist:            cfg.IPBlacklist,
		AllowedDevices:         cfg.AllowedDevices,
		EnableAuditLogging:     cfg.EnableAuditLogging,
		EnableAnalytics:        cfg.EnableAnalytics,
		EnableSuspiciousAlerts: cfg.EnableSuspiciousAlerts,
		CreatedAt:              cfg.CreatedAt,
		UpdatedAt:              cfg.UpdatedAt,
	}
}

// EvaluateAccessResponse reports the access decision.
type EvaluateAccessResponse struct {
	MessageID    uuid.UUID `json:"message_id"`
	Granted      bool      `json:"granted"`
	DenialReason string    `json:"denial_reason,omitempty"`
	DenialCode   string    `json:"denial_code,omitempty"`

	RequiresVerification bool       `json:"requires_verification"`
	VerificationMethod   string     `json:"verification_method,omitempty"`
	ChallengeID          *uuid.UUID `json:"challenge_id,omitempty"`

	RiskScore    float64                    `json:"risk_score"`
	Restrictions *access.ActiveRestrictions `json:"restrictions,omitempty"`
}

func NewEvaluateAccessResponse(result *access.ValidationResult) *EvaluateAccessResponse {
	return &EvaluateAccessResponse{
		MessageID:            result.MessageID,
		Granted:              result.Granted,
		DenialReason:         result.DenialReason.String(),
		DenialCode:           result.DenialReason.Code(),
		RequiresVerification: result.RequiresVerification,
		VerificationMethod:   result.VerificationMethod,
		ChallengeID:          result.ChallengeID,
		RiskScore:            result.RiskScore,
		Restrictions:         result.Restrictions,
	}
}

// DestructStateResponse reports a message's self-destruct state.
type DestructStateResponse struct {
	ID        uuid.UUID `json:"id"`
	MessageID uuid.UUID `json:"message_id"`

	Mode         string `json:"mode"`
	TriggerEvent string `json:"trigger_event"`
	TimerSeconds int    `json:"timer_seconds,omitempty"`

	TimerStartedAt *time.Time `json:"timer_started_at,omitempty"`
	DestructAt     *time.Time `json:"destruct_at,omitempty"`

	Destroyed         bool       `json:"destroyed"`
	DestroyedAt       *time.Time `json:"destroyed_at,omitempty"`
	DestructionMethod string     `json:"destruction_method,omitempty"`

	MaxViews       *int `json:"max_views,omitempty"`
	ViewCount      int  `json:"view_count"`
	RemainingViews *int `json:"remaining_views,omitempty"`

	NotifyOnDestruction bool `json:"notify_on_destruction"`
	ShowCountdown       bool `json:"show_countdown"`
	BlockScreenshot     bool `json:"block_screenshot"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewDestructStateResponse(state *selfdestruct.State) *DestructStateResponse {
	return &DestructStateResponse{
		ID:                  state.ID,
		MessageID:           state.MessageID,
		Mode:                state.Mode.String(),
		TriggerEvent:        state.TriggerEvent.String(),
		TimerSeconds:        state.TimerSeconds,
		TimerStartedAt:      state.TimerStartedAt,
		DestructAt:          state.DestructAt,
		Destroyed:           state.Destroyed,
		DestroyedAt:         state.DestroyedAt,
		DestructionMethod:   state.DestructionMethod,
		MaxViews:            state.MaxViews,
		ViewCount:           state.ViewCount,
		RemainingViews:      state.RemainingViews(),
		NotifyOnDestruction: state.NotifyOnDestruction,
		ShowCountdown:       state.ShowCountdown,
		BlockScreenshot:     state.BlockScreenshot,
		CreatedAt:           state.CreatedAt,
		UpdatedAt:           state.UpdatedAt,
	}
}

// IncidentResponse echoes an incident with string enums.
type IncidentResponse struct {
	ID        uuid.UUID  `json:"id"`
	MessageID *uuid.UUID `json:"message_id,omitempty"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`

	Type            string `json:"type"`
	Severity        string `json:"severity"`
	Status          string `json:"status"`
	DetectionMethod string `json:"detection_method"`

	Description string    `json:"description"`
	OccurredAt  time.Time `json:"occurred_at"`
	DetectedAt  time.Time `json:"detected_at"`

	AssignedTo         *uuid.UUID `json:"assigned_to,omitempty"`
	InvestigationNotes string     `json:"investigation_notes,omitempty"`
	RemediationActions string     `json:"remediation_actions,omitempty"`
	ResolutionSummary  string     `json:"resolution_summary,omitempty"`
	ResolvedAt         *time.Time `json:"resolved_at,omitempty"`

	RiskScore      float64 `json:"risk_score"`
	NotifyOwner    bool    `json:"notify_owner"`
	NotifySecurity bool    `json:"notify_security"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewIncidentResponse(inc *incident.Incident) *IncidentResponse {
	return &IncidentResponse{
		ID:                 inc.ID,
		MessageID:          inc.MessageID,
		UserID:             inc.UserID,
		Type:               inc.Type.String(),
		Severity:           inc.Severity.String(),
		Status:             inc.Status.String(),
		DetectionMethod:    inc.DetectionMethod.String(),
		Description:        inc.Description,
		OccurredAt:         inc.OccurredAt,
		DetectedAt:         inc.DetectedAt,
		AssignedTo:         inc.AssignedTo,
		InvestigationNotes: inc.InvestigationNotes,
		RemediationActions: inc.RemediationActions,
		ResolutionSummary:  inc.ResolutionSummary,
		ResolvedAt:         inc.ResolvedAt,
		RiskScore:          inc.RiskScore,
		NotifyOwner:        inc.NotifyOwner,
		NotifySecurity:     inc.NotifySecurity,
		CreatedAt:          inc.CreatedAt,
		UpdatedAt:          inc.UpdatedAt,
	}
}

// IncidentPageResponse is one page of incident search results.
type IncidentPageResponse struct {
	Incidents []*IncidentResponse `json:"incidents"`
	Total     int                 `json:"total"`
	Limit     int                 `json:"limit"`
	Offset    int                 `json:"offset"`
}

// AccessLogResponse is one audited attempt.
type AccessLogResponse struct {
	ID                uuid.UUID  `json:"id"`
	MessageID         uuid.UUID  `json:"message_id"`
	UserID            uuid.UUID  `json:"user_id"`
	AttemptedAt       time.Time  `json:"attempted_at"`
	IPAddress         string     `json:"ip_address,omitempty"`
	DeviceFingerprint string     `json:"device_fingerprint,omitempty"`
	Country           string     `json:"country,omitempty"`
	AccessType        string     `json:"access_type"`
	Granted           bool       `json:"granted"`
	DenialReason      string     `json:"denial_reason,omitempty"`
	VerificationUsed  string     `json:"verification_used,omitempty"`
	RiskScore         float64    `json:"risk_score"`
	TriggeredAlert    bool       `json:"triggered_alert"`
	SessionID         *uuid.UUID `json:"session_id,omitempty"`
}

func NewAccessLogResponse(rec *access.AttemptRecord) *AccessLogResponse {
	return &AccessLogResponse{
		ID:                rec.ID,
		MessageID:         rec.MessageID,
		UserID:            rec.UserID,
		AttemptedAt:       rec.AttemptedAt,
		IPAddress:         rec.IPAddress,
		DeviceFingerprint: rec.DeviceFingerprint,
		Country:           rec.Country,
		AccessType:        rec.AccessType.String(),
		Granted:           rec.Granted,
		DenialReason:      rec.DenialReason.Code(),
		VerificationUsed:  rec.VerificationUsed,
		RiskScore:         rec.RiskScore,
		TriggeredAlert:    rec.TriggeredAlert,
		SessionID:         rec.SessionID,
	}
}

// AccessLogPageResponse is one page of audit records.
type AccessLogPageResponse struct {
	Records []*AccessLogResponse `json:"records"`
	Total   int                  `json:"total"`
	Limit   int                  `json:"limit"`
	Offset  int                  `json:"offset"`
}

// HealthResponse reports service liveness and dependency status.
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}
