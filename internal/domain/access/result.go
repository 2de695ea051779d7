package access

import (
	"fmt"

	"github.com/google/uuid"
)

// DenialReason is the closed set of reasons an attempt can be denied. The
// policy engine evaluates checks in a fixed order and reports the first
// failing one.
type DenialReason int

const (
	DenialNone DenialReason = iota
	DenialAccessExpired
	DenialGeoRestricted
	DenialTimeRestricted
	DenialIPBlacklisted
	DenialIPNotWhitelisted
	DenialDeviceNotAllowed
)

func (r DenialReason) String() string {
	switch r {
	case DenialNone:
		return ""
	case DenialAccessExpired:
		return "access window has expired"
	case DenialGeoRestricted:
		return "geographic restriction: country not permitted"
	case DenialTimeRestricted:
		return "access not permitted at this time"
	case DenialIPBlacklisted:
		return "IP address is blacklisted"
	case DenialIPNotWhitelisted:
		return "IP address is not on the whitelist"
	case DenialDeviceNotAllowed:
		return "device is not permitted for this message"
	default:
		return "unknown"
	}
}

// Code returns the stable machine-readable identifier for the reason.
func (r DenialReason) Code() string {
	switch r {
	case DenialNone:
		return ""
	case DenialAccessExpired:
		return "access_expired"
	case DenialGeoRestricted:
		return "geo_restricted"
	case DenialTimeRestricted:
		return "time_restricted"
	case DenialIPBlacklisted:
		return "ip_blacklisted"
	case DenialIPNotWhitelisted:
		return "ip_not_whitelisted"
	case DenialDeviceNotAllowed:
		return "device_not_allowed"
	default:
		return "unknown"
	}
}

// ActiveRestrictions echoes the client-enforced block flags back to the
// caller on a granted attempt.
type ActiveRestrictions struct {
	BlockScreenshot  bool   `json:"block_screenshot"`
	BlockCopyPaste   bool   `json:"block_copy_paste"`
	BlockRightClick  bool   `json:"block_right_click"`
	BlockForward     bool   `json:"block_forward"`
	AllowDownload    bool   `json:"allow_download"`
	AllowPrint       bool   `json:"allow_print"`
	WatermarkEnabled bool   `json:"watermark_enabled"`
	WatermarkText    string `json:"watermark_text,omitempty"`
}

// ValidationResult is the outcome of evaluating one access attempt. A denial
// is a first-class result, not an error.
type ValidationResult struct {
	MessageID    uuid.UUID    `json:"message_id"`
	Granted      bool         `json:"granted"`
	DenialReason DenialReason `json:"denial_reason,omitempty"`

	RequiresVerification bool       `json:"requires_verification"`
	VerificationMethod   string     `json:"verification_method,omitempty"`
	ChallengeID          *uuid.UUID `json:"challenge_id,omitempty"`

	RiskScore    float64             `json:"risk_score"`
	Restrictions *ActiveRestrictions `json:"restrictions,omitempty"`
}

// Deny builds a denial result for the given reason.
func Deny(messageID uuid.UUID, reason DenialReason, riskScore float64) *ValidationResult {
	return &ValidationResult{
		MessageID:    messageID,
		Granted:      false,
		DenialReason: reason,
		RiskScore:    riskScore,
	}
}

// Grant builds a granted result carrying the client-enforced restrictions.
func Grant(messageID uuid.UUID, riskScore float64, restrictions *ActiveRestrictions) *ValidationResult {
	return &ValidationResult{
		MessageID:    messageID,
		Granted:      true,
		RiskScore:    riskScore,
		Restrictions: restrictions,
	}
}

func (r *ValidationResult) String() string {
	if r.Granted {
		return fmt.Sprintf("granted (risk %.1f)", r.RiskScore)
	}
	return fmt.Sprintf("denied: %s (risk %.1f)", r.DenialReason, r.RiskScore)
}
