package message

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SecurityConfig is the active security policy for a single protected
// message. Exactly one config is active per message id; re-configuration
// replaces the previous config, it never duplicates it.
type SecurityConfig struct {
	ID        uuid.UUID `json:"id"`
	MessageID uuid.UUID `json:"message_id"`

	SecurityLevel      SecurityLevel      `json:"security_level"`
	DataClassification DataClassification `json:"data_classification"`
	RequiredClearance  int                `json:"required_clearance"`

	// Verification
	RequireAuthentication bool               `json:"require_authentication"`
	RequireVerification   bool               `json:"require_verification"`
	VerificationMethod    VerificationMethod `json:"verification_method"`

	// Client-enforced restrictions
	BlockScreenshot bool `json:"block_screenshot"`
	BlockCopyPaste  bool `json:"block_copy_paste"`
	BlockRightClick bool `json:"block_right_click"`
	BlockForward    bool `json:"block_forward"`
	AllowDownload   bool `json:"allow_download"`
	AllowPrint      bool `json:"allow_print"`

	// Watermarking
	WatermarkEnabled bool   `json:"watermark_enabled"`
	WatermarkText    string `json:"watermark_text,omitempty"`

	// Access constraints
	AccessExpiresAt        *time.Time       `json:"access_expires_at,omitempty"`
	GeographicRestrictions []string         `json:"geographic_restrictions,omitempty"`
	TimeRestriction        *TimeRestriction `json:"time_restriction,omitempty"`
	IPWhitelist            []string         `json:"ip_whitelist,omitempty"`
	IPBlacklist            []string         `json:"ip_blacklist,omitempty"`
	AllowedDevices         []string         `json:"allowed_devices,omitempty"`

	// Observability toggles
	EnableAuditLogging     bool `json:"enable_audit_logging"`
	EnableAnalytics        bool `json:"enable_analytics"`
	EnableSuspiciousAlerts bool `json:"enable_suspicious_alerts"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SecurityLevel int

const (
	SecurityLevelStandard SecurityLevel = iota
	SecurityLevelElevated
	SecurityLevelMaximum
)

func (l SecurityLevel) String() string {
	switch l {
	case SecurityLevelStandard:
		return "standard"
	case SecurityLevelElevated:
		return "elevated"
	case SecurityLevelMaximum:
		return "maximum"
	default:
		return "unknown"
	}
}

func ParseSecurityLevel(s string) (SecurityLevel, error) {
	switch s {
	case "standard", "":
		return SecurityLevelStandard, nil
	case "elevated":
		return SecurityLevelElevated, nil
	case "maximum":
		return SecurityLevelMaximum, nil
	default:
		return SecurityLevelStandard, fmt.Errorf("invalid security level: %s", s)
	}
}

type VerificationMethod int

const (
	VerificationNone VerificationMethod = iota
	VerificationEmail
	VerificationSMS
	VerificationTOTP
	VerificationBiometric
)

func (m VerificationMethod) String() string {
	switch m {
	case VerificationNone:
		return "none"
	case VerificationEmail:
		return "email"
	case VerificationSMS:
		return "sms"
	case VerificationTOTP:
		return "totp"
	case VerificationBiometric:
		return "biometric"
	default:
		return "unknown"
	}
}

func ParseVerificationMethod(s string) (VerificationMethod, error) {
	switch s {
	case "none", "":
		return VerificationNone, nil
	case "email":
		return VerificationEmail, nil
	case "sms":
		return VerificationSMS, nil
	case "totp":
		return VerificationTOTP, nil
	case "biometric":
		return VerificationBiometric, nil
	default:
		return VerificationNone, fmt.Errorf("invalid verification method: %s", s)
	}
}

type DataClassification int

const (
	ClassificationPublic DataClassification = iota
	ClassificationInternal
	ClassificationConfidential
	ClassificationRestricted
)

func (c DataClassification) String() string {
	switch c {
	case ClassificationPublic:
		return "public"
	case ClassificationInternal:
		return "internal"
	case ClassificationConfidential:
		return "confidential"
	case ClassificationRestricted:
		return "restricted"
	default:
		return "unknown"
	}
}

func ParseDataClassification(s string) (DataClassification, error) {
	switch s {
	case "public", "":
		return ClassificationPublic, nil
	case "internal":
		return ClassificationInternal, nil
	case "confidential":
		return ClassificationConfidential, nil
	case "restricted":
		return ClassificationRestricted, nil
	default:
		return ClassificationPublic, fmt.Errorf("invalid data classification: %s", s)
	}
}

// NewSecurityConfig builds a validated config for a message.
func NewSecurityConfig(messageID uuid.UUID) (*SecurityConfig, error) {
	if messageID == uuid.Nil {
		return nil, fmt.Errorf("message ID cannot be nil")
	}

	now := time.Now()
	return &SecurityConfig{
		ID:                 uuid.New(),
		MessageID:          messageID,
		SecurityLevel:      SecurityLevelStandard,
		VerificationMethod: VerificationNone,
		EnableAuditLogging: true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// Validate checks cross-field consistency before the config is persisted.
func (c *SecurityConfig) Validate() error {
	if c.MessageID == uuid.Nil {
		return fmt.Errorf("message ID cannot be nil")
	}

	if c.RequireVerification && c.VerificationMethod == VerificationNone {
		return fmt.Errorf("verification required but no verification method configured")
	}

	for _, country := range c.GeographicRestrictions {
		if len(country) != 2 {
			return fmt.Errorf("invalid country code: %q (expected ISO 3166-1 alpha-2)", country)
		}
	}

	if c.TimeRestriction != nil {
		if err := c.TimeRestriction.Validate(); err != nil {
			return fmt.Errorf("invalid time restriction: %w", err)
		}
	}

	if c.RequiredClearance < 0 {
		return fmt.Errorf("required clearance cannot be negative")
	}

	return nil
}

// IsExpired reports whether message access has expired at the given time.
// A nil expiry means the message never expires.
func (c *SecurityConfig) IsExpired(at time.Time) bool {
	return c.AccessExpiresAt != nil && at.After(*c.AccessExpiresAt)
}

// AllowsCountry reports whether an attempt from the given country passes the
// geographic restriction list. An empty list allows all countries.
func (c *SecurityConfig) AllowsCountry(country string) bool {
	if len(c.GeographicRestrictions) == 0 {
		return true
	}
	for _, allowed := range c.GeographicRestrictions {
		if allowed == country {
			return true
		}
	}
	return false
}

// IPBlacklisted reports whether the IP is explicitly blocked.
func (c *SecurityConfig) IPBlacklisted(ip string) bool {
	for _, blocked := range c.IPBlacklist {
		if blocked == ip {
			return true
		}
	}
	return false
}

// IPWhitelisted reports whether the IP passes the whitelist. An empty
// whitelist admits every IP.
func (c *SecurityConfig) IPWhitelisted(ip string) bool {
	if len(c.IPWhitelist) == 0 {
		return true
	}
	for _, allowed := range c.IPWhitelist {
		if allowed == ip {
			return true
		}
	}
	return false
}

// DeviceAllowed reports whether the device fingerprint passes the device
// restriction list. An empty list admits every device.
func (c *SecurityConfig) DeviceAllowed(fingerprint string) bool {
	if len(c.AllowedDevices) == 0 {
		return true
	}
	for _, allowed := range c.AllowedDevices {
		if allowed == fingerprint {
			return true
		}
	}
	return false
}
