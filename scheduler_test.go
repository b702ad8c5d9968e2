package quadsim

import (
	"math"
	"testing"

	"github.com/akmonengine/quadsim/vehicle"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newTestScheduler(t *testing.T, fixedDelta float64) (*Scheduler, *vehicle.Controller) {
	t.Helper()

	w := newTestWorld(true)
	v := newHoverVehicle(t, mgl64.Vec3{0, 5, 0}, vehicle.DefaultConfig())
	require.NoError(t, w.AddVehicle(v))

	s, err := NewScheduler(w, fixedDelta, nil)
	require.NoError(t, err)

	return s, v
}

func TestNewScheduler_Errors(t *testing.T) {
	_, err := NewScheduler(nil, 0.02, nil)
	assert.ErrorIs(t, err, ErrNilWorld)

	for _, fixedDelta := range []float64{0, -0.02, math.NaN(), math.Inf(1)} {
		_, err := NewScheduler(&World{}, fixedDelta, nil)
		assert.ErrorIs(t, err, ErrInvalidDelta, "fixedDelta=%v", fixedDelta)
	}
}

func TestScheduler_Advance_WholeSteps(t *testing.T) {
	s, v := newTestScheduler(t, 0.25)

	assert.Equal(t, 4, s.Advance(1.0))
	assert.Equal(t, 0, s.Advance(0.125))
	assert.InDelta(t, 0.5, s.Interpolation(), 1e-12)
	assert.Equal(t, 1, s.Advance(0.125))
	assert.InDelta(t, 0, s.Interpolation(), 1e-12)
	assert.Equal(t, 2, s.Advance(0.625))
	assert.InDelta(t, 0.5, s.Interpolation(), 1e-12)

	assert.Equal(t, uint64(7), s.Steps())
	assert.Equal(t, uint64(7), v.Ticks())
}

func TestScheduler_Advance_DecimalDeltas(t *testing.T) {
	s, v := newTestScheduler(t, 0.02)

	total := 0
	for range 100 {
		total += s.Advance(0.01)
	}
	assert.Equal(t, 50, total)

	// One frame per fixed step
	total = 0
	for range 60 {
		total += s.Advance(0.02)
	}
	assert.Equal(t, 60, total)
	assert.Equal(t, uint64(110), v.Ticks())
}

func TestScheduler_Advance_IgnoresInvalidFrames(t *testing.T) {
	s, _ := newTestScheduler(t, 0.02)

	for _, frameDelta := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		assert.Zero(t, s.Advance(frameDelta), "frameDelta=%v", frameDelta)
	}
	assert.Zero(t, s.Interpolation())
}

func TestScheduler_MaxStepsPerFrame(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	w := newTestWorld(false)
	s, err := NewScheduler(w, 0.25, zap.New(core))
	require.NoError(t, err)
	s.MaxStepsPerFrame = 3

	assert.Equal(t, 3, s.Advance(10))
	assert.Zero(t, s.Interpolation())
	assert.Equal(t, 1, logs.FilterMessage("fixed steps dropped").Len())

	assert.Equal(t, 2, s.Advance(0.5))
}

func TestScheduler_PauseResume(t *testing.T) {
	s, v := newTestScheduler(t, 0.25)
	v.SetPilotInput(vehicle.PilotInput{Lift: 1})
	require.Equal(t, 2, s.Advance(0.5))

	var received []Event
	s.World().Events.Subscribe(PAUSE, func(e Event) { received = append(received, e) })
	s.World().Events.Subscribe(RESUME, func(e Event) { received = append(received, e) })

	smoothed := v.Rotor(vehicle.CW1).SmoothedPower()

	s.Pause()
	s.Pause()
	assert.True(t, s.Paused())
	assert.Zero(t, s.Advance(1.0))
	assert.Zero(t, s.Run(5))

	// Rotors keep their state while paused
	assert.Equal(t, smoothed, v.Rotor(vehicle.CW1).SmoothedPower())
	assert.Equal(t, uint64(2), v.Ticks())

	s.Resume()
	s.Resume()
	assert.False(t, s.Paused())
	// Time spent paused is not caught up
	assert.Equal(t, 1, s.Advance(0.25))

	require.Len(t, received, 2)
	assert.Equal(t, PauseEvent{Step: 2}, received[0])
	assert.Equal(t, ResumeEvent{Step: 2}, received[1])
}

func TestScheduler_StepEvents(t *testing.T) {
	s, v := newTestScheduler(t, 0.25)

	var steps []uint64
	s.World().Events.Subscribe(STEP, func(e Event) {
		step := e.(StepEvent).Step
		// Sent after the step ran
		assert.Equal(t, step, v.Ticks())
		steps = append(steps, step)
	})

	require.Equal(t, 3, s.Advance(0.75))
	require.Equal(t, 2, s.Run(2))
	s.Pause()
	s.Run(3)
	s.Advance(1)

	assert.Equal(t, []uint64{1, 2, 3, 4, 5}, steps)
}

func TestScheduler_Run(t *testing.T) {
	s, v := newTestScheduler(t, 0.02)

	assert.Equal(t, 25, s.Run(25))
	assert.Equal(t, 0, s.Run(-3))
	assert.Equal(t, uint64(25), s.Steps())
	assert.Equal(t, uint64(25), v.Ticks())
}
