package main

import (
	"context"
	"fmt"
	"time"

	"github.com/akmonengine/quadsim"
	"github.com/akmonengine/quadsim/actor"
	"github.com/akmonengine/quadsim/config"
	"github.com/akmonengine/quadsim/constraint"
	"github.com/akmonengine/quadsim/vehicle"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

// frameHeight is the half height of the box standing in for a vehicle frame.
const frameHeight = 0.05

// simulation is one headless run: a world, its vehicles and the scheduler stepping them.
type simulation struct {
	world     *quadsim.World
	vehicles  []*vehicle.Controller
	scheduler *quadsim.Scheduler
	settings  config.Settings
	logger    *zap.Logger
}

func newSimulation(settings config.Settings, logger *zap.Logger) (*simulation, error) {
	definition, err := settings.VehicleDefinition()
	if err != nil {
		return nil, fmt.Errorf("vehicle definition: %w", err)
	}

	ground := actor.NewGroundPlane(settings.Sim.GroundHeight)
	world := &quadsim.World{
		Gravity:  mgl64.Vec3{0, -settings.Sim.Gravity, 0},
		Substeps: settings.Sim.Substeps,
		Ground:   &ground,
		GroundMaterial: constraint.GroundMaterial{
			Restitution:     0.1,
			StaticFriction:  0.8,
			DynamicFriction: 0.6,
		},
		Workers: settings.Sim.Workers,
		Events:  quadsim.NewEvents(),
	}

	s := &simulation{
		world:    world,
		settings: settings,
		logger:   logger,
	}

	for i := range settings.Vehicle.Count {
		v, err := s.spawn(definition, i)
		if err != nil {
			return nil, err
		}
		if err := world.AddVehicle(v); err != nil {
			return nil, err
		}
		s.vehicles = append(s.vehicles, v)
	}

	s.scheduler, err = quadsim.NewScheduler(world, settings.Sim.FixedDelta, logger)
	if err != nil {
		return nil, err
	}
	s.scheduler.MaxStepsPerFrame = settings.Sim.MaxStepsPerFrame

	s.subscribe()

	return s, nil
}

// spawn builds vehicle i on a line along X. Its body is sized so that half power hovers.
func (s *simulation) spawn(definition vehicle.Config, i int) (*vehicle.Controller, error) {
	box := &actor.Box{HalfExtents: mgl64.Vec3{definition.ArmLength, frameHeight, definition.ArmLength}}
	density := definition.HoverMass(s.settings.Sim.Gravity) / box.ComputeMass(1)

	position := mgl64.Vec3{
		float64(i) * s.settings.Vehicle.Spacing,
		s.settings.Sim.GroundHeight + s.settings.Vehicle.Altitude + frameHeight,
		0,
	}
	body := actor.NewRigidBody(actor.NewTransformAt(position, mgl64.QuatIdent()), box, actor.BodyTypeDynamic, density)
	body.Material.StaticFriction = 0.8
	body.Material.DynamicFriction = 0.6
	body.Material.LinearDamping = 0.01
	body.Material.AngularDamping = 0.05

	v, err := vehicle.New(body, definition, vehicle.WithLogger(s.logger))
	if err != nil {
		return nil, fmt.Errorf("spawn vehicle %d: %w", i, err)
	}
	v.SetPilotInput(vehicle.PilotInput{Lift: s.settings.Vehicle.Lift})

	return v, nil
}

func (s *simulation) subscribe() {
	s.world.Events.Subscribe(quadsim.GROUND_ENTER, func(event quadsim.Event) {
		e := event.(quadsim.GroundEnterEvent)
		s.logger.Info("touchdown", zap.Uint64("step", s.scheduler.Steps()), zap.Float64("x", e.Body.Transform.Position.X()))
	})
	s.world.Events.Subscribe(quadsim.GROUND_EXIT, func(event quadsim.Event) {
		e := event.(quadsim.GroundExitEvent)
		s.logger.Info("liftoff", zap.Uint64("step", s.scheduler.Steps()), zap.Float64("x", e.Body.Transform.Position.X()))
	})
	s.world.Events.Subscribe(quadsim.STEP, func(event quadsim.Event) {
		s.report(event.(quadsim.StepEvent).Step)
	})
}

// runSteps executes n fixed steps back to back.
func (s *simulation) runSteps(ctx context.Context, n int) error {
	for range n {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.scheduler.Run(1)
	}

	return nil
}

// runRealtime paces the fixed steps on the wall clock until n steps ran, or until ctx is
// done when n is 0.
func (s *simulation) runRealtime(ctx context.Context, n int) error {
	ticker := time.NewTicker(time.Duration(s.settings.Sim.FixedDelta * float64(time.Second)))
	defer ticker.Stop()

	last := time.Now()
	for n == 0 || s.scheduler.Steps() < uint64(n) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			s.scheduler.Advance(now.Sub(last).Seconds())
			last = now
		}
	}

	return nil
}

// report logs the telemetry of every vehicle when step falls on the configured cadence.
func (s *simulation) report(step uint64) {
	every := s.settings.Telemetry.Every
	if every <= 0 || step%uint64(every) != 0 {
		return
	}

	for _, v := range s.vehicles {
		s.logTelemetry(v)
	}
}

func (s *simulation) logTelemetry(v *vehicle.Controller) {
	t := v.Telemetry()
	body := v.Body().(*actor.RigidBody)

	smoothed := make([]float64, 0, len(t.Rotors))
	for _, r := range t.Rotors {
		smoothed = append(smoothed, r.SmoothedPower)
	}

	s.logger.Info("telemetry",
		zap.Stringer("vehicle", t.ID),
		zap.Uint64("tick", t.Tick),
		zap.Float64("altitude", body.Transform.Position.Y()-s.settings.Sim.GroundHeight-frameHeight),
		zap.Float64("verticalSpeed", body.Velocity.Y()),
		zap.Float64("netThrottle", t.NetThrottle),
		zap.Float64("netTorque", t.NetTorque),
		zap.Float64("yawDegrees", t.YawDegrees),
		zap.Float64s("smoothedPower", smoothed),
	)
}
