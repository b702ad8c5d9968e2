package rotor

import (
	"errors"
	"fmt"
)

const (
	DefaultRateLimitPerTick = 0.1
	DefaultMinSmoothPower   = 1e-5
)

// ErrInvalidConfig is returned for non-positive physical constants or an unknown smoothing policy.
var ErrInvalidConfig = errors.New("invalid rotor config")

// Smoothing selects how the commanded power is filtered into the smoothed power.
type Smoothing string

const (
	// SmoothingAsymmetric spins up at RateLimitPerTick and brakes at RateLimitPerTick*last/8.
	SmoothingAsymmetric Smoothing = "asymmetric"
	// SmoothingSymmetric uses RateLimitPerTick in both directions.
	SmoothingSymmetric Smoothing = "symmetric"
	// SmoothingNone copies the commanded power.
	SmoothingNone Smoothing = "none"
)

// Config holds the physical constants shared by the rotors of one vehicle.
// It is never mutated once a rotor references it.
type Config struct {
	MaxTorque        float64   `yaml:"maxTorque" mapstructure:"maxTorque"`
	MaxThrottle      float64   `yaml:"maxThrottle" mapstructure:"maxThrottle"`
	MaxRotationSpeed float64   `yaml:"maxRotationSpeed" mapstructure:"maxRotationSpeed"` // degrees/s, presentation only
	RateLimitPerTick float64   `yaml:"rateLimitPerTick" mapstructure:"rateLimitPerTick"`
	MinSmoothPower   float64   `yaml:"minSmoothPower" mapstructure:"minSmoothPower"`
	Smoothing        Smoothing `yaml:"smoothing" mapstructure:"smoothing"`
}

// WithDefaults fills the zero-valued tuning fields. Physical constants are left alone.
func (c Config) WithDefaults() Config {
	if c.RateLimitPerTick == 0 {
		c.RateLimitPerTick = DefaultRateLimitPerTick
	}
	if c.MinSmoothPower == 0 {
		c.MinSmoothPower = DefaultMinSmoothPower
	}
	if c.Smoothing == "" {
		c.Smoothing = SmoothingAsymmetric
	}

	return c
}

func (c Config) Validate() error {
	checks := []struct {
		name  string
		value float64
	}{
		{"maxTorque", c.MaxTorque},
		{"maxThrottle", c.MaxThrottle},
		{"maxRotationSpeed", c.MaxRotationSpeed},
		{"rateLimitPerTick", c.RateLimitPerTick},
		{"minSmoothPower", c.MinSmoothPower},
	}
	for _, check := range checks {
		// !(v > 0) also rejects NaN
		if !(check.value > 0) {
			return fmt.Errorf("%w: %s must be > 0, got %v", ErrInvalidConfig, check.name, check.value)
		}
	}

	switch c.Smoothing {
	case SmoothingAsymmetric, SmoothingSymmetric, SmoothingNone:
	default:
		return fmt.Errorf("%w: unknown smoothing %q", ErrInvalidConfig, c.Smoothing)
	}

	return nil
}
