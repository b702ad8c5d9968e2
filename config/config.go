// Package config loads the run settings of the simulator through viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/akmonengine/quadsim/vehicle"
	"github.com/spf13/viper"
)

const (
	ConfigName = "quadsim"
	EnvPrefix  = "QUADSIM"
)

var ErrInvalidSettings = errors.New("invalid settings")

// SimConfig holds the world and scheduler settings
type SimConfig struct {
	FixedDelta       float64 `json:"fixedDelta" mapstructure:"fixedDelta"`
	Steps            int     `json:"steps" mapstructure:"steps"`
	Substeps         int     `json:"substeps" mapstructure:"substeps"`
	Workers          int     `json:"workers" mapstructure:"workers"`
	MaxStepsPerFrame int     `json:"maxStepsPerFrame" mapstructure:"maxStepsPerFrame"`
	Gravity          float64 `json:"gravity" mapstructure:"gravity"`
	GroundHeight     float64 `json:"groundHeight" mapstructure:"groundHeight"`
}

// VehicleConfig describes the spawned vehicles and the input they fly with.
// File points to a YAML vehicle definition; the inline definition is used when it is empty.
type VehicleConfig struct {
	File     string  `json:"file" mapstructure:"file"`
	Count    int     `json:"count" mapstructure:"count"`
	Spacing  float64 `json:"spacing" mapstructure:"spacing"`
	Altitude float64 `json:"altitude" mapstructure:"altitude"`
	Lift     float64 `json:"lift" mapstructure:"lift"`

	Definition vehicle.Config `json:"definition" mapstructure:",squash"`
}

type TelemetryConfig struct {
	// Every logs a telemetry snapshot every n steps, 0 disables it
	Every int `json:"every" mapstructure:"every"`
}

type Settings struct {
	LogLevel  string          `json:"logLevel" mapstructure:"logLevel"`
	Sim       SimConfig       `json:"sim" mapstructure:"sim"`
	Vehicle   VehicleConfig   `json:"vehicle" mapstructure:"vehicle"`
	Telemetry TelemetryConfig `json:"telemetry" mapstructure:"telemetry"`
}

// Load sets default values, then reads quadsim.yaml from configDir.
// Environment variables prefixed with QUADSIM_ override both, e.g. QUADSIM_SIM_STEPS.
func Load(configDir string) error {
	// Set default values
	viper.SetDefault("logLevel", "info")

	viper.SetDefault("sim.fixedDelta", 0.02)
	viper.SetDefault("sim.steps", 500)
	viper.SetDefault("sim.substeps", 4)
	viper.SetDefault("sim.workers", 1)
	viper.SetDefault("sim.maxStepsPerFrame", 5)
	viper.SetDefault("sim.gravity", 9.81)
	viper.SetDefault("sim.groundHeight", 0.0)

	defaults := vehicle.DefaultConfig()
	viper.SetDefault("vehicle.file", "")
	viper.SetDefault("vehicle.count", 1)
	viper.SetDefault("vehicle.spacing", 2.0)
	viper.SetDefault("vehicle.altitude", 0.0)
	viper.SetDefault("vehicle.lift", 0.0)
	viper.SetDefault("vehicle.maxTorque", defaults.MaxTorque)
	viper.SetDefault("vehicle.maxThrottle", defaults.MaxThrottle)
	viper.SetDefault("vehicle.maxRotationSpeed", defaults.MaxRotationSpeed)
	viper.SetDefault("vehicle.rateLimitPerTick", defaults.RateLimitPerTick)
	viper.SetDefault("vehicle.minSmoothPower", defaults.MinSmoothPower)
	viper.SetDefault("vehicle.smoothing", string(defaults.Smoothing))
	viper.SetDefault("vehicle.armLength", defaults.ArmLength)
	viper.SetDefault("vehicle.yawModel", string(defaults.YawModel))

	viper.SetDefault("telemetry.every", 50)

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName(ConfigName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("yaml")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// IsNotFound reports whether Load failed only because no config file exists.
func IsNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound)
}

// Get decodes the loaded values and validates them.
func Get() (Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}

	return s, nil
}

func (s Settings) Validate() error {
	switch {
	case !(s.Sim.FixedDelta > 0):
		return fmt.Errorf("%w: sim.fixedDelta must be > 0, got %v", ErrInvalidSettings, s.Sim.FixedDelta)
	case s.Sim.Steps < 0:
		return fmt.Errorf("%w: sim.steps must be >= 0, got %d", ErrInvalidSettings, s.Sim.Steps)
	case s.Sim.Substeps < 1:
		return fmt.Errorf("%w: sim.substeps must be >= 1, got %d", ErrInvalidSettings, s.Sim.Substeps)
	case s.Sim.Workers < 1:
		return fmt.Errorf("%w: sim.workers must be >= 1, got %d", ErrInvalidSettings, s.Sim.Workers)
	case !(s.Sim.Gravity > 0):
		// Vehicle bodies are sized against gravity
		return fmt.Errorf("%w: sim.gravity must be > 0, got %v", ErrInvalidSettings, s.Sim.Gravity)
	case s.Vehicle.Count < 1:
		return fmt.Errorf("%w: vehicle.count must be >= 1, got %d", ErrInvalidSettings, s.Vehicle.Count)
	case s.Vehicle.Lift < -1 || s.Vehicle.Lift > 1:
		return fmt.Errorf("%w: vehicle.lift must be in [-1,1], got %v", ErrInvalidSettings, s.Vehicle.Lift)
	}

	return nil
}

// VehicleDefinition returns the vehicle description to spawn: the YAML file when one is set,
// the inline values otherwise.
func (s Settings) VehicleDefinition() (vehicle.Config, error) {
	if s.Vehicle.File == "" {
		cfg := s.Vehicle.Definition.WithDefaults()
		if err := cfg.Validate(); err != nil {
			return vehicle.Config{}, err
		}
		return cfg, nil
	}

	f, err := os.Open(s.Vehicle.File)
	if err != nil {
		return vehicle.Config{}, fmt.Errorf("open vehicle definition: %w", err)
	}
	defer f.Close()

	cfg, err := vehicle.LoadConfig(f)
	if err != nil {
		return vehicle.Config{}, fmt.Errorf("%s: %w", s.Vehicle.File, err)
	}

	return cfg, nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}
