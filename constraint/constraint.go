package constraint

import (
	"math"

	"github.com/akmonengine/quadsim/actor"
	"github.com/go-gl/mathgl/mgl64"
)

type Constraint interface {
	SolvePosition(dt float64)
	SolveVelocity(dt float64)
}

// GroundMaterial holds the surface response of the static ground.
type GroundMaterial struct {
	Restitution     float64
	StaticFriction  float64
	DynamicFriction float64
}

func ComputeRestitution(body actor.Material, ground GroundMaterial) float64 {
	// Average, same mixing rule as body/body contacts
	return (body.Restitution + ground.Restitution) / 2.0
}

func ComputeStaticFriction(body actor.Material, ground GroundMaterial) float64 {
	// Geometric mean
	return math.Sqrt(body.StaticFriction * ground.StaticFriction)
}

func ComputeDynamicFriction(body actor.Material, ground GroundMaterial) float64 {
	return math.Sqrt(body.DynamicFriction * ground.DynamicFriction)
}

func clampSmallVelocities(rb *actor.RigidBody) {
	const velocityThreshold = 1e-5

	if rb.Velocity.Len() < velocityThreshold {
		rb.Velocity = mgl64.Vec3{0, 0, 0}
	}
	if rb.AngularVelocity.Len() < velocityThreshold {
		rb.AngularVelocity = mgl64.Vec3{0, 0, 0}
	}
}
