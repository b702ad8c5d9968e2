package vehicle

import (
	"errors"
	"fmt"
	"io"

	"github.com/akmonengine/quadsim/rotor"
	"gopkg.in/yaml.v3"
)

const DefaultArmLength = 0.25

// YawModel selects how the vehicle turns about its up axis.
type YawModel string

const (
	// YawThrottleSum rotates the body directly by sum(throttle)*dt degrees every tick,
	// bypassing its rotational inertia. Matches the historical controller.
	YawThrottleSum YawModel = "throttle-sum"
	// YawTorque applies no direct rotation: the reaction torques of the rotors are the
	// only yaw source and the integrator resolves the angular velocity.
	YawTorque YawModel = "torque"
)

// Config is the immutable description of a vehicle, loaded once at spawn.
type Config struct {
	rotor.Config `yaml:",inline" mapstructure:",squash"`

	ArmLength float64  `yaml:"armLength" mapstructure:"armLength"`
	YawModel  YawModel `yaml:"yawModel" mapstructure:"yawModel"`
}

// DefaultConfig is a small quad whose four rotors hover a 2.04 kg body at half power.
func DefaultConfig() Config {
	return Config{
		Config: rotor.Config{
			MaxTorque:        2,
			MaxThrottle:      10,
			MaxRotationSpeed: 7200,
		},
	}.WithDefaults()
}

func (c Config) WithDefaults() Config {
	c.Config = c.Config.WithDefaults()
	if c.ArmLength == 0 {
		c.ArmLength = DefaultArmLength
	}
	if c.YawModel == "" {
		c.YawModel = YawThrottleSum
	}

	return c
}

func (c Config) Validate() error {
	if err := c.Config.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if !(c.ArmLength > 0) {
		return fmt.Errorf("%w: armLength must be > 0, got %v", ErrInvalidConfig, c.ArmLength)
	}
	if err := c.YawModel.validate(); err != nil {
		return err
	}

	return nil
}

// HoverMass is the body mass that four rotors at half power hold against gravity.
func (c Config) HoverMass(gravity float64) float64 {
	return 4 * 0.5 * c.MaxThrottle / gravity
}

func (m YawModel) validate() error {
	switch m {
	case YawThrottleSum, YawTorque:
		return nil
	}

	return fmt.Errorf("%w: unknown yaw model %q", ErrInvalidConfig, m)
}

// LoadConfig decodes a YAML vehicle definition, applies defaults and validates it.
func LoadConfig(r io.Reader) (Config, error) {
	var c Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: decode: %w", ErrInvalidConfig, err)
	}

	c = c.WithDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}

	return c, nil
}
