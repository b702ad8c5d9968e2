package vehicle

import (
	"github.com/akmonengine/quadsim/rotor"
	"github.com/google/uuid"
)

type RotorTelemetry struct {
	Spin           rotor.Spin
	CommandedPower float64
	SmoothedPower  float64
	Throttle       float64
	Torque         float64
	RotationSpeed  float64
}

// Telemetry is a read-only snapshot for presentation and logging collaborators.
type Telemetry struct {
	ID          uuid.UUID
	Tick        uint64
	Input       PilotInput
	Rotors      [RotorCount]RotorTelemetry
	NetThrottle float64
	NetTorque   float64
	YawDegrees  float64
}

func (c *Controller) Telemetry() Telemetry {
	t := Telemetry{
		ID:          c.id,
		Tick:        c.ticks,
		Input:       c.input,
		NetThrottle: c.NetThrottle(),
		NetTorque:   c.NetTorque(),
		YawDegrees:  c.yawDegrees,
	}
	for slot, r := range c.rotors {
		t.Rotors[slot] = RotorTelemetry{
			Spin:           r.Spin(),
			CommandedPower: r.CommandedPower(),
			SmoothedPower:  r.SmoothedPower(),
			Throttle:       r.Throttle(),
			Torque:         r.Torque(),
			RotationSpeed:  r.RotationSpeed(),
		}
	}

	return t
}
