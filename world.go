// Package quadsim steps rigid bodies and the vehicles driving them at a fixed timestep,
// resolving their contacts with a flat ground.
package quadsim

import (
	"errors"
	"fmt"
	"math"

	"github.com/akmonengine/quadsim/actor"
	"github.com/akmonengine/quadsim/constraint"
	"github.com/akmonengine/quadsim/vehicle"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	DEFAULT_WORKERS  = 1
	DEFAULT_SUBSTEPS = 1
)

// ErrBodyInUse is returned when a vehicle drives a body another vehicle of the world already drives.
var ErrBodyInUse = errors.New("body already driven by a vehicle")

type World struct {
	// List of all rigid bodies in the world
	Bodies []*actor.RigidBody
	// Vehicles ticked once per Step, before the bodies are integrated
	Vehicles []*vehicle.Controller
	// Gravity acceleration (m/s², or N/kg)
	Gravity  mgl64.Vec3
	Substeps int
	// Ground is the static plane bodies rest on, nil for free fall
	Ground         *actor.Plane
	GroundMaterial constraint.GroundMaterial
	Workers        int

	Events Events
}

// bodyLoad holds the forces applied to a body during one Step, for every substep.
type bodyLoad struct {
	body   *actor.RigidBody
	force  mgl64.Vec3
	torque mgl64.Vec3
}

// AddBody adds a rigid body to the world
func (w *World) AddBody(body *actor.RigidBody) {
	for _, b := range w.Bodies {
		if b == body {
			return
		}
	}
	w.Bodies = append(w.Bodies, body)
}

// RemoveBody removes a rigid body from the world
func (w *World) RemoveBody(body *actor.RigidBody) {
	k := -1
	for i, b := range w.Bodies {
		if b == body {
			k = i
			break
		}
	}

	if k != -1 {
		w.Bodies = append(w.Bodies[:k], w.Bodies[k+1:]...)
	}

	w.Events.forget(body)
}

// AddVehicle adds a vehicle, and its body when it is a rigid body of this world.
// Adding the same vehicle twice is a no-op; a second vehicle on an already driven body is rejected.
func (w *World) AddVehicle(v *vehicle.Controller) error {
	for _, existing := range w.Vehicles {
		if existing == v {
			return nil
		}
		if existing.Body() == v.Body() {
			return fmt.Errorf("%w: vehicle %s, driven by %s", ErrBodyInUse, v.ID(), existing.ID())
		}
	}
	w.Vehicles = append(w.Vehicles, v)

	if body, ok := v.Body().(*actor.RigidBody); ok {
		w.AddBody(body)
	}

	return nil
}

// RemoveVehicle removes a vehicle and its body.
func (w *World) RemoveVehicle(v *vehicle.Controller) {
	k := -1
	for i, existing := range w.Vehicles {
		if existing == v {
			k = i
			break
		}
	}

	if k != -1 {
		w.Vehicles = append(w.Vehicles[:k], w.Vehicles[k+1:]...)
	}

	if body, ok := v.Body().(*actor.RigidBody); ok {
		w.RemoveBody(body)
	}
}

// Step advances the world by one fixed tick of dt seconds.
func (w *World) Step(dt float64) {
	if !(dt > 0) || math.IsInf(dt, 1) {
		return
	}

	w.Workers = max(DEFAULT_WORKERS, w.Workers)
	w.Substeps = max(DEFAULT_SUBSTEPS, w.Substeps)
	h := dt / float64(w.Substeps)

	// Phase 1: Vehicles, each one exclusively owns its body
	w.tickVehicles(dt)
	loads := w.collectLoads()

	for range w.Substeps {
		w.integrate(h, loads)

		// Phase 2: Ground contacts
		contacts := w.detectGroundContacts()
		w.Events.recordGroundContacts(contacts)

		// Phase 3: Solver, only one iteration is required thanks to substeps
		w.solvePosition(h, contacts)

		// Phase 4: Update Position & Velocity
		// Calculate final velocities and commit positions
		w.update(h)

		// Phase 5: Velocity
		w.solveVelocity(h, contacts)
	}

	w.Events.flush(w.Bodies)
}

func (w *World) tickVehicles(dt float64) {
	task(w.Workers, w.Vehicles, func(v *vehicle.Controller) {
		v.FixedTick(dt)
	})
}

// collectLoads moves the accumulated forces out of the bodies.
// Integrate clears the accumulators, so they are applied again on every substep.
func (w *World) collectLoads() []*bodyLoad {
	loads := make([]*bodyLoad, len(w.Bodies))
	for i, body := range w.Bodies {
		loads[i] = &bodyLoad{
			body:   body,
			force:  body.AccumulatedForce(),
			torque: body.AccumulatedTorque(),
		}
		body.ClearForces()
	}

	return loads
}

func (w *World) integrate(h float64, loads []*bodyLoad) {
	task(w.Workers, loads, func(load *bodyLoad) {
		load.body.AddForce(load.force)
		load.body.AddTorque(load.torque)
		load.body.Integrate(h, w.Gravity)
	})
}

func (w *World) detectGroundContacts() []*constraint.GroundContact {
	if w.Ground == nil {
		return nil
	}

	return NarrowPhase(BroadPhase(w.Bodies, *w.Ground, w.Workers), *w.Ground, w.GroundMaterial, w.Workers)
}

func (w *World) solvePosition(h float64, contacts []*constraint.GroundContact) {
	task(w.Workers, contacts, func(contact *constraint.GroundContact) {
		contact.SolvePosition(h)
	})
}

func (w *World) update(h float64) {
	task(w.Workers, w.Bodies, func(body *actor.RigidBody) {
		body.Update(h)
	})
}

func (w *World) solveVelocity(h float64, contacts []*constraint.GroundContact) {
	task(w.Workers, contacts, func(contact *constraint.GroundContact) {
		contact.SolveVelocity(h)
	})
}
