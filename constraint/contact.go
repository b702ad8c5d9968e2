package constraint

import (
	"math"

	"github.com/akmonengine/quadsim/actor"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// DefaultCompliance controls soft constraint stiffness for contact resolution.
	// Lower values = stiffer contacts (less penetration, potential jitter)
	// Higher values = softer contacts (more penetration, smoother)
	// Typical range: 1e-10 (very stiff) to 1e-6 (soft)
	DefaultCompliance = 1e-7
)

type ContactPoint struct {
	Position    mgl64.Vec3
	Penetration float64
}

// GroundContact binds a dynamic body to the static ground plane.
// Normal points from the ground towards the body.
type GroundContact struct {
	Body   *actor.RigidBody
	Ground GroundMaterial
	Normal mgl64.Vec3
	Points []ContactPoint
}

// NewGroundContact returns nil when the body does not touch the plane.
func NewGroundContact(body *actor.RigidBody, plane actor.Plane, ground GroundMaterial) *GroundContact {
	if body.BodyType == actor.BodyTypeStatic || !body.Shape.GetAABB().BelowPlane(plane) {
		return nil
	}

	collision, result := body.Shape.CollideWithPlane(plane, body.Transform)
	if !collision {
		return nil
	}

	points := make([]ContactPoint, 0, len(result))
	for _, point := range result {
		points = append(points, ContactPoint{Position: point.Position, Penetration: point.Penetration})
	}

	return &GroundContact{
		Body:   body,
		Ground: ground,
		Normal: plane.Normal,
		Points: points,
	}
}

// SolvePosition resolves penetration (PBD style, no lambda accumulation)
func (c *GroundContact) SolvePosition(dt float64) {
	if len(c.Points) == 0 || dt <= 0 {
		return
	}

	body := c.Body
	invMass := body.InverseMass()
	I_inv := body.GetInverseInertiaWorld()

	// ========== 1. Active points, reduced to their centroid ==========
	// Penetration against a plane is affine in position, so the centroid penetration is the mean.
	var centroid mgl64.Vec3
	var totalPenetration float64
	active := 0

	for _, point := range c.Points {
		if point.Penetration <= 1e-8 {
			continue
		}

		centroid = centroid.Add(point.Position)
		totalPenetration += point.Penetration
		active++
	}

	if active == 0 {
		return
	}

	centroid = centroid.Mul(1.0 / float64(active))
	penetration := totalPenetration / float64(active)

	r := centroid.Sub(body.Transform.Position)
	rCrossN := r.Cross(c.Normal)
	weight := invMass + I_inv.Mul3x1(rCrossN).Dot(rCrossN)
	if weight <= 1e-8 {
		return
	}

	// ========== 2. Single correction at the centroid ==========
	alphaTilde := DefaultCompliance / (dt * dt)
	deltaLambda := penetration / (weight + alphaTilde)
	impulse := c.Normal.Mul(deltaLambda)

	// ========== 3. Linear correction ==========
	body.Transform.Position = body.Transform.Position.Add(impulse.Mul(invMass))

	// ========== 4. Angular correction ==========
	// For a small angle δθ, q_delta ≈ [1, δθ/2]
	deltaRot := I_inv.Mul3x1(r.Cross(impulse))
	if deltaRot.Len() > 1e-10 {
		qDelta := mgl64.Quat{W: 1.0, V: deltaRot.Mul(0.5)}.Normalize()
		body.Transform.Rotation = qDelta.Mul(body.Transform.Rotation).Normalize()
		body.Transform.InverseRotation = body.Transform.Rotation.Inverse()
	}
}

// SolveVelocity applies restitution and Coulomb friction
func (c *GroundContact) SolveVelocity(dt float64) {
	if len(c.Points) == 0 {
		return
	}

	body := c.Body
	invMass := body.InverseMass()
	I_inv := body.GetInverseInertiaWorld()

	restitution := ComputeRestitution(body.Material, c.Ground)
	staticFriction := ComputeStaticFriction(body.Material, c.Ground)
	dynamicFriction := ComputeDynamicFriction(body.Material, c.Ground)

	var totalLinearImpulse mgl64.Vec3
	var totalAngularImpulse mgl64.Vec3

	for _, point := range c.Points {
		r := point.Position.Sub(body.Transform.Position)

		// The ground is static: the relative velocity is the body's own point velocity
		relativeVel := body.Velocity.Add(body.AngularVelocity.Cross(r))
		normalVel := relativeVel.Dot(c.Normal)

		relativeVelPrev := body.PresolveVelocity.Add(body.PresolveAngularVelocity.Cross(r))
		normalVelPrev := relativeVelPrev.Dot(c.Normal)

		// ========== NORMAL IMPULSE (restitution) ==========
		rCrossN := r.Cross(c.Normal)
		effectiveMassNormal := invMass + I_inv.Mul3x1(rCrossN).Dot(rCrossN)
		if effectiveMassNormal < 1e-10 {
			continue
		}

		targetVel := -restitution * math.Min(normalVelPrev, 0)
		lambdaNormal := (targetVel - normalVel) / effectiveMassNormal

		// Never pull the body towards the ground
		if lambdaNormal < 0 {
			lambdaNormal = 0
		}

		normalImpulse := c.Normal.Mul(lambdaNormal)
		totalLinearImpulse = totalLinearImpulse.Add(normalImpulse.Mul(invMass))
		totalAngularImpulse = totalAngularImpulse.Add(I_inv.Mul3x1(r.Cross(normalImpulse)))

		// ========== TANGENTIAL IMPULSE (friction) ==========
		if lambdaNormal == 0 {
			continue
		}

		tangentVel := relativeVel.Sub(c.Normal.Mul(normalVel))
		tangentSpeed := tangentVel.Len()
		if tangentSpeed <= 1e-6 {
			continue
		}

		tangentDir := tangentVel.Mul(1.0 / tangentSpeed)
		rCrossT := r.Cross(tangentDir)
		effectiveMassTangent := invMass + I_inv.Mul3x1(rCrossT).Dot(rCrossT)
		if effectiveMassTangent < 1e-10 {
			continue
		}

		lambdaTangent := tangentSpeed / effectiveMassTangent

		// Coulomb: |F_friction| ≤ μ * |F_normal|
		var frictionMagnitude float64
		if lambdaTangent <= staticFriction*lambdaNormal {
			frictionMagnitude = lambdaTangent
		} else {
			frictionMagnitude = dynamicFriction * lambdaNormal
		}

		frictionImpulse := tangentDir.Mul(-frictionMagnitude)
		totalLinearImpulse = totalLinearImpulse.Add(frictionImpulse.Mul(invMass))
		totalAngularImpulse = totalAngularImpulse.Add(I_inv.Mul3x1(r.Cross(frictionImpulse)))
	}

	body.Velocity = body.Velocity.Add(totalLinearImpulse)
	body.AngularVelocity = body.AngularVelocity.Add(totalAngularImpulse)

	clampSmallVelocities(body)
}
