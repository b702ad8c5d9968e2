package quadsim

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
)

var (
	ErrInvalidDelta = errors.New("invalid fixed delta")
	ErrNilWorld     = errors.New("nil world")
)

// Scheduler runs World.Step at a constant FixedDelta, whatever the frame rate of its caller.
// Pausing happens here: a paused scheduler stops calling Step, rotors keep their state.
type Scheduler struct {
	FixedDelta float64
	// MaxStepsPerFrame bounds the catch-up after a long frame, 0 for no bound.
	// The backlog beyond it is dropped.
	MaxStepsPerFrame int

	world       *World
	accumulator float64
	paused      bool
	steps       uint64

	logger *zap.Logger
}

func NewScheduler(world *World, fixedDelta float64, logger *zap.Logger) (*Scheduler, error) {
	if world == nil {
		return nil, ErrNilWorld
	}
	if !(fixedDelta > 0) || math.IsInf(fixedDelta, 1) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDelta, fixedDelta)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		FixedDelta: fixedDelta,
		world:      world,
		logger:     logger,
	}, nil
}

// Advance accumulates frameDelta seconds and runs every whole fixed step it covers.
// It returns the number of steps run.
func (s *Scheduler) Advance(frameDelta float64) int {
	if s.paused || !(frameDelta > 0) || math.IsInf(frameDelta, 1) {
		return 0
	}

	s.accumulator += frameDelta
	// Absorbs the rounding of repeated decimal deltas
	tolerance := s.FixedDelta * 1e-9

	n := 0
	for s.accumulator+tolerance >= s.FixedDelta {
		if s.MaxStepsPerFrame > 0 && n >= s.MaxStepsPerFrame {
			s.logger.Warn("fixed steps dropped",
				zap.Int("steps", n),
				zap.Float64("backlog", s.accumulator),
			)
			s.accumulator = 0
			break
		}

		s.step()
		s.accumulator = math.Max(0, s.accumulator-s.FixedDelta)
		n++
	}

	return n
}

// Run executes n fixed steps back to back, for headless runs. It returns the number of
// steps run, 0 while paused.
func (s *Scheduler) Run(n int) int {
	if s.paused {
		return 0
	}
	for range n {
		s.step()
	}

	return max(n, 0)
}

// step runs one fixed step and announces it, so listeners see every step of a catch-up frame.
func (s *Scheduler) step() {
	s.world.Step(s.FixedDelta)
	s.steps++
	s.world.Events.dispatch(StepEvent{Step: s.steps})
}

func (s *Scheduler) Pause() {
	if s.paused {
		return
	}
	s.paused = true
	s.logger.Info("simulation paused", zap.Uint64("step", s.steps))
	s.world.Events.dispatch(PauseEvent{Step: s.steps})
}

func (s *Scheduler) Resume() {
	if !s.paused {
		return
	}
	s.paused = false
	s.logger.Info("simulation resumed", zap.Uint64("step", s.steps))
	s.world.Events.dispatch(ResumeEvent{Step: s.steps})
}

func (s *Scheduler) Paused() bool {
	return s.paused
}

// Steps is the number of fixed steps run since creation.
func (s *Scheduler) Steps() uint64 {
	return s.steps
}

// Interpolation is the fraction of a fixed step left in the accumulator, in [0,1),
// for presentation code blending the previous and current transforms.
func (s *Scheduler) Interpolation() float64 {
	return math.Min(s.accumulator/s.FixedDelta, 1)
}

func (s *Scheduler) World() *World {
	return s.world
}
