package vehicle

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	ErrInvalidConfig    = errors.New("invalid vehicle config")
	ErrNilBody          = errors.New("vehicle has no body")
	ErrMissingRotor     = errors.New("missing rotor")
	ErrRotorArrangement = errors.New("rotors must be ordered CW1, CW2, CCW1, CCW2")
	ErrRotorConfig      = errors.New("rotors must share one config")
)

// Body is the rigid body a controller drives. The controller owns it exclusively.
// *actor.RigidBody satisfies it.
type Body interface {
	AddForceAtPoint(force, worldPoint mgl64.Vec3)
	AddTorque(torque mgl64.Vec3)
	// Up is the body's local up axis in world space.
	Up() mgl64.Vec3
	Rotate(axis mgl64.Vec3, angleDegrees float64)
	LocalToWorld(localPoint mgl64.Vec3) mgl64.Vec3
}
