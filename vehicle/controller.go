// Package vehicle drives a four-rotor body: it turns pilot input into rotor power,
// applies the rotors' throttle and reaction torque to the body and steps the yaw model
// once per fixed tick.
package vehicle

import (
	"fmt"
	"math"

	"github.com/akmonengine/quadsim/rotor"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Rotor slots. The frame order around the vehicle is V1, O1, V2, O2 (CW1, CCW1, CW2, CCW2);
// slices are stored CW first.
const (
	CW1 = iota
	CW2
	CCW1
	CCW2
	RotorCount
)

var slotSpins = [RotorCount]rotor.Spin{rotor.Clockwise, rotor.Clockwise, rotor.CounterClockwise, rotor.CounterClockwise}

// PilotInput is written by the input mapping layer.
// Lift is read in [-1,1]; Yaw, Pitch and Roll are stored but do not drive rotor power.
type PilotInput struct {
	Yaw   float64
	Pitch float64
	Roll  float64
	Lift  float64
}

type Option func(*Controller)

func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithID(id uuid.UUID) Option {
	return func(c *Controller) {
		c.id = id
	}
}

func WithYawModel(model YawModel) Option {
	return func(c *Controller) {
		c.yawModel = model
	}
}

// Controller owns four rotors and the body they push. It is driven by FixedTick and is
// not safe for concurrent use.
type Controller struct {
	id       uuid.UUID
	body     Body
	yawModel YawModel
	rotors   [RotorCount]*rotor.Rotor

	input      PilotInput
	yawDegrees float64
	ticks      uint64

	logger *zap.Logger
}

// New validates cfg and builds the four rotors in X layout, ArmLength from the center.
func New(body Body, cfg Config, opts ...Option) (*Controller, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// One immutable copy shared by all four rotors
	shared := cfg.Config
	mounts := Mounts(cfg.ArmLength)

	var rotors [RotorCount]*rotor.Rotor
	for slot := range rotors {
		r, err := rotor.New(&shared, slotSpins[slot], mounts[slot])
		if err != nil {
			return nil, fmt.Errorf("%w: rotor %d: %w", ErrInvalidConfig, slot, err)
		}
		rotors[slot] = r
	}

	return NewWithRotors(body, rotors, append([]Option{WithYawModel(cfg.YawModel)}, opts...)...)
}

// NewWithRotors wires injected rotors. They must be four distinct non-nil rotors ordered
// CW1, CW2, CCW1, CCW2, all reading the same config.
func NewWithRotors(body Body, rotors [RotorCount]*rotor.Rotor, opts ...Option) (*Controller, error) {
	if body == nil {
		return nil, ErrNilBody
	}
	for slot, r := range rotors {
		if r == nil {
			return nil, fmt.Errorf("%w: slot %d", ErrMissingRotor, slot)
		}
		if r.Spin() != slotSpins[slot] {
			return nil, fmt.Errorf("%w: slot %d is %s", ErrRotorArrangement, slot, r.Spin())
		}
		for other := range slot {
			if rotors[other] == r {
				return nil, fmt.Errorf("%w: slots %d and %d hold the same rotor", ErrRotorArrangement, other, slot)
			}
		}
		if slot > 0 && !r.SharesConfig(rotors[0]) {
			return nil, fmt.Errorf("%w: slot %d", ErrRotorConfig, slot)
		}
	}

	c := &Controller{
		id:       uuid.New(),
		body:     body,
		yawModel: YawThrottleSum,
		rotors:   rotors,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.yawModel.validate(); err != nil {
		return nil, err
	}

	c.logger = c.logger.With(zap.Stringer("vehicle", c.id))
	c.logger.Info("vehicle spawned",
		zap.String("yawModel", string(c.yawModel)),
		zap.Float64("maxThrottle", rotors[CW1].Config().MaxThrottle),
		zap.Float64("maxTorque", rotors[CW1].Config().MaxTorque),
	)

	return c, nil
}

// Mounts returns the body frame rotor positions for an X frame, in slot order.
func Mounts(armLength float64) [RotorCount]mgl64.Vec3 {
	d := armLength / math.Sqrt2

	return [RotorCount]mgl64.Vec3{
		CW1:  {d, 0, d},
		CCW1: {-d, 0, d},
		CW2:  {-d, 0, -d},
		CCW2: {d, 0, -d},
	}
}

func (c *Controller) ID() uuid.UUID {
	return c.id
}

func (c *Controller) Body() Body {
	return c.body
}

func (c *Controller) YawModel() YawModel {
	return c.yawModel
}

func (c *Controller) Rotors() [RotorCount]*rotor.Rotor {
	return c.rotors
}

func (c *Controller) Rotor(slot int) *rotor.Rotor {
	return c.rotors[slot]
}

// SetPilotInput stores the input as is; range checks belong to the producer.
func (c *Controller) SetPilotInput(input PilotInput) {
	c.input = input
}

func (c *Controller) PilotInput() PilotInput {
	return c.input
}

// ApplyLift maps lift from [-1,1] to [0,1] and commands it to every rotor.
func (c *Controller) ApplyLift() {
	power := c.input.Lift/2 + 0.5
	for _, r := range c.rotors {
		r.SetCommandedPower(power)
	}
}

// ApplyYaw turns the body about its up axis according to the yaw model.
func (c *Controller) ApplyYaw(dt float64) {
	if c.yawModel != YawThrottleSum {
		return
	}

	angle := c.NetThrottle() * dt
	c.body.Rotate(c.body.Up(), angle)
	c.yawDegrees += angle
}

// FixedTick runs one physics step: lift, smoothing, force application, yaw.
// It must be called at a constant dt; pausing is done by not calling it.
func (c *Controller) FixedTick(dt float64) {
	if !(dt > 0) || math.IsInf(dt, 1) {
		c.logger.Warn("fixed tick ignored", zap.Float64("dt", dt))
		return
	}

	c.ApplyLift()

	for _, r := range c.rotors {
		r.Advance()
	}

	up := c.body.Up()
	for _, r := range c.rotors {
		c.body.AddForceAtPoint(up.Mul(r.Throttle()), c.body.LocalToWorld(r.Mount()))
		// Reaction: the body turns opposite to the propeller
		c.body.AddTorque(up.Mul(-r.Torque()))
	}

	c.ApplyYaw(dt)
	c.ticks++

	if ce := c.logger.Check(zap.DebugLevel, "fixed tick"); ce != nil {
		ce.Write(
			zap.Uint64("tick", c.ticks),
			zap.Float64("lift", c.input.Lift),
			zap.Float64("netThrottle", c.NetThrottle()),
			zap.Float64("netTorque", c.NetTorque()),
		)
	}
}

func (c *Controller) NetThrottle() float64 {
	var sum float64
	for _, r := range c.rotors {
		sum += r.Throttle()
	}
	return sum
}

// NetTorque is the sum of the rotors' signed torques. The body receives its negation.
func (c *Controller) NetTorque() float64 {
	var sum float64
	for _, r := range c.rotors {
		sum += r.Torque()
	}
	return sum
}

// YawDegrees is the cumulative direct rotation applied by the throttle-sum model.
func (c *Controller) YawDegrees() float64 {
	return c.yawDegrees
}

func (c *Controller) Ticks() uint64 {
	return c.ticks
}

// Reset brings the rotors to rest and clears the input, for a respawn.
func (c *Controller) Reset() {
	for _, r := range c.rotors {
		r.Reset()
	}
	c.input = PilotInput{}
	c.yawDegrees = 0
	c.ticks = 0
	c.logger.Info("vehicle reset")
}
