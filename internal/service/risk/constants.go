package risk

// Factor names, in the fixed evaluation order. Summation order is part of the
// contract so scores are deterministic.
const (
	FactorUnknownDevice  = "unknown_device"
	FactorUnknownIP      = "unknown_ip"
	FactorUnknownCountry = "unknown_country"
	FactorOutsideWindow  = "outside_time_window"
	FactorRapidAttempts  = "rapid_attempts"
)

// Weights are the per-factor score contributions. The defaults are tunable
// operational constants, not protocol values; deployments override them
// through configuration.
type Weights struct {
	UnknownDevice  float64 `koanf:"unknown_device"`
	UnknownIP      float64 `koanf:"unknown_ip"`
	UnknownCountry float64 `koanf:"unknown_country"`
	OutsideWindow  float64 `koanf:"outside_window"`
	RapidAttempts  float64 `koanf:"rapid_attempts"`
}

// DefaultWeights returns the standard factor weights.
func DefaultWeights() Weights {
	return Weights{
		UnknownDevice:  20,
		UnknownIP:      15,
		UnknownCountry: 25,
		OutsideWindow:  20,
		RapidAttempts:  20,
	}
}

const (
	// ScoreMax bounds the final score; no factor combination exceeds it.
	ScoreMax = 100.0

	// DefaultHighRiskThreshold is the score at or above which verification
	// is forced regardless of message config.
	DefaultHighRiskThreshold = 70.0

	// DefaultDenialLimit is the number of trailing-window denials beyond
	// which the rapid-attempts factor applies.
	DefaultDenialLimit = 3
)
