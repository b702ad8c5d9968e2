// Package rotor models a single propeller unit: the power it is commanded to,
// the inertia-like smoothing of that power, and the throttle and reaction torque
// derived from the smoothed value.
package rotor

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// brakeDivisor scales the deceleration step relative to the current power.
const brakeDivisor = 8.0

// Spin is the rotation direction of a rotor seen from above.
type Spin int

const (
	Clockwise Spin = iota
	CounterClockwise
)

func (s Spin) String() string {
	if s == CounterClockwise {
		return "ccw"
	}
	return "cw"
}

// Sign is +1 for clockwise rotors and -1 for counter-clockwise ones.
func (s Spin) Sign() float64 {
	if s == CounterClockwise {
		return -1
	}
	return 1
}

// Rotor is one rotor of a vehicle. It is owned by a single controller and is not
// safe for concurrent mutation; presentation code may only call the read accessors.
type Rotor struct {
	config *Config
	spin   Spin
	mount  mgl64.Vec3

	commandedPower    float64
	smoothedPower     float64
	lastSmoothedPower float64
}

// New creates a resting rotor. mount is the rotor position in the vehicle body frame.
func New(config *Config, spin Spin, mount mgl64.Vec3) (*Rotor, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Rotor{
		config: config,
		spin:   spin,
		mount:  mount,
	}, nil
}

// Config returns a copy of the settings the rotor reads.
func (r *Rotor) Config() Config {
	return *r.config
}

// SharesConfig reports whether both rotors read the same settings by reference.
func (r *Rotor) SharesConfig(other *Rotor) bool {
	return other != nil && r.config == other.config
}

func (r *Rotor) Spin() Spin {
	return r.spin
}

func (r *Rotor) IsCounterClockwise() bool {
	return r.spin == CounterClockwise
}

func (r *Rotor) Mount() mgl64.Vec3 {
	return r.mount
}

// SetCommandedPower stores p clamped to [0,1].
func (r *Rotor) SetCommandedPower(p float64) {
	r.commandedPower = clamp01(p)
}

func (r *Rotor) CommandedPower() float64 {
	return r.commandedPower
}

// SmoothedPower is the power used by Throttle and Torque.
func (r *Rotor) SmoothedPower() float64 {
	return r.smoothedPower
}

// Advance runs one fixed tick of the smoothing filter.
func (r *Rotor) Advance() {
	r.commandedPower = clamp01(r.commandedPower)

	if r.config.Smoothing == SmoothingNone {
		r.smoothedPower = r.commandedPower
		r.lastSmoothedPower = math.Max(r.config.MinSmoothPower, r.smoothedPower)
		return
	}

	rate := r.config.RateLimitPerTick
	last := r.lastSmoothedPower
	diff := r.commandedPower - last

	brakeStep := rate * last / brakeDivisor
	switch {
	case r.config.Smoothing == SmoothingAsymmetric && diff < 0 && -diff > brakeStep:
		r.smoothedPower = last - brakeStep
	case math.Abs(diff) > rate:
		r.smoothedPower = stepTowards(last, r.commandedPower, rate)
	default:
		r.smoothedPower = r.commandedPower
	}

	r.smoothedPower = clamp01(r.smoothedPower)
	r.lastSmoothedPower = math.Max(r.config.MinSmoothPower, r.smoothedPower)
}

// Throttle is the upward force magnitude along the vehicle up axis, always >= 0.
func (r *Rotor) Throttle() float64 {
	return clamp01(r.smoothedPower) * r.config.MaxThrottle
}

// Torque is the signed moment the spinning propeller receives about the vehicle up axis:
// positive for clockwise rotors, negative for counter-clockwise ones.
// The body receives the opposite.
func (r *Rotor) Torque() float64 {
	return clamp01(r.smoothedPower) * r.config.MaxTorque * r.spin.Sign()
}

// RotationSpeed is the signed propeller speed in degrees/s for presentation readers.
func (r *Rotor) RotationSpeed() float64 {
	return clamp01(r.smoothedPower) * r.config.MaxRotationSpeed * r.spin.Sign()
}

// Reset brings the rotor back to rest.
func (r *Rotor) Reset() {
	r.commandedPower = 0
	r.smoothedPower = 0
	r.lastSmoothedPower = 0
}

// stepTowards moves from by at most step towards to, never past it.
func stepTowards(from, to, step float64) float64 {
	if to > from {
		return math.Min(from+step, to)
	}
	return math.Max(from-step, to)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
