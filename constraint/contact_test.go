package constraint

import (
	"math"
	"testing"

	"github.com/akmonengine/quadsim/actor"
	"github.com/go-gl/mathgl/mgl64"
)

func newBoxAt(y float64) *actor.RigidBody {
	box := &actor.Box{HalfExtents: mgl64.Vec3{1, 1, 1}}
	transform := actor.NewTransformAt(mgl64.Vec3{0, y, 0}, mgl64.QuatIdent())

	return actor.NewRigidBody(transform, box, actor.BodyTypeDynamic, 1.0)
}

// =============================================================================
// NewGroundContact Tests
// =============================================================================

func TestNewGroundContact(t *testing.T) {
	ground := actor.NewGroundPlane(0)

	tests := []struct {
		name       string
		body       *actor.RigidBody
		wantPoints int
	}{
		{name: "above ground", body: newBoxAt(2), wantPoints: 0},
		{name: "resting flat, penetrating", body: newBoxAt(0.95), wantPoints: 4},
		{
			name:       "static body",
			body:       actor.NewRigidBody(actor.NewTransform(), &actor.Sphere{Radius: 1}, actor.BodyTypeStatic, 1),
			wantPoints: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contact := NewGroundContact(tt.body, ground, GroundMaterial{})
			if tt.wantPoints == 0 {
				if contact != nil {
					t.Errorf("NewGroundContact() = %v, want nil", contact)
				}
				return
			}

			if contact == nil {
				t.Fatal("NewGroundContact() = nil, want a contact")
			}
			if len(contact.Points) != tt.wantPoints {
				t.Errorf("len(Points) = %d, want %d", len(contact.Points), tt.wantPoints)
			}
			if !contact.Normal.ApproxEqual(actor.WorldUp) {
				t.Errorf("Normal = %v, want %v", contact.Normal, actor.WorldUp)
			}
		})
	}
}

// =============================================================================
// Solver Tests
// =============================================================================

func TestGroundContact_SolvePosition_PushesOut(t *testing.T) {
	body := newBoxAt(0.95)
	contact := NewGroundContact(body, actor.NewGroundPlane(0), GroundMaterial{})

	contact.SolvePosition(0.01)

	// One solve removes the whole penetration, minus the compliance share
	alphaTilde := DefaultCompliance / (0.01 * 0.01)
	want := 0.95 + 0.05*body.InverseMass()/(body.InverseMass()+alphaTilde)
	if math.Abs(body.Transform.Position.Y()-want) > 1e-9 {
		t.Errorf("Position.Y = %v, want %v", body.Transform.Position.Y(), want)
	}
	if math.Abs(body.Transform.Position.Y()-1.0) > 1e-3 {
		t.Errorf("Position.Y = %v, want ~1.0", body.Transform.Position.Y())
	}
	// Flat contact must not tilt the box
	if !body.Transform.Rotation.ApproxEqualThreshold(mgl64.QuatIdent(), 1e-9) {
		t.Errorf("Rotation = %v, want identity", body.Transform.Rotation)
	}
}

func TestGroundContact_SolvePosition_TiltedEdge(t *testing.T) {
	// Tilted 30° about Z, the lowest edge sits 0.02 below the ground
	rotation := mgl64.QuatRotate(mgl64.DegToRad(30), mgl64.Vec3{0, 0, 1})
	lowest := math.Sin(mgl64.DegToRad(30)) + math.Cos(mgl64.DegToRad(30))
	transform := actor.NewTransformAt(mgl64.Vec3{0, lowest - 0.02, 0}, rotation)
	body := actor.NewRigidBody(transform, &actor.Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, actor.BodyTypeDynamic, 1.0)
	ground := actor.NewGroundPlane(0)

	contact := NewGroundContact(body, ground, GroundMaterial{})
	if contact == nil || len(contact.Points) != 2 {
		t.Fatalf("NewGroundContact() = %v, want the two corners of the lowest edge", contact)
	}

	contact.SolvePosition(0.01)

	if body.Transform.Rotation.ApproxEqualThreshold(rotation, 1e-9) {
		t.Error("Rotation unchanged, an off-center contact must turn the box")
	}

	body.Shape.ComputeAABB(body.Transform)
	after := NewGroundContact(body, ground, GroundMaterial{})
	if after == nil {
		return
	}
	for _, point := range after.Points {
		if point.Penetration > 1e-3 {
			t.Errorf("Penetration = %v after one solve, want < 1e-3", point.Penetration)
		}
	}
}

func TestGroundContact_SolveVelocity_StopsFall(t *testing.T) {
	body := newBoxAt(0.99)
	body.Velocity = mgl64.Vec3{0, -2, 0}
	body.PresolveVelocity = body.Velocity
	contact := NewGroundContact(body, actor.NewGroundPlane(0), GroundMaterial{})

	contact.SolveVelocity(0.01)

	if math.Abs(body.Velocity.Y()) > 1e-9 {
		t.Errorf("Velocity.Y = %v, want 0 without restitution", body.Velocity.Y())
	}
}

func TestGroundContact_SolveVelocity_Restitution(t *testing.T) {
	body := newBoxAt(0.99)
	body.Material.Restitution = 1.0
	body.Velocity = mgl64.Vec3{0, -2, 0}
	body.PresolveVelocity = body.Velocity
	contact := NewGroundContact(body, actor.NewGroundPlane(0), GroundMaterial{Restitution: 1.0})

	contact.SolveVelocity(0.01)

	if math.Abs(body.Velocity.Y()-2) > 1e-9 {
		t.Errorf("Velocity.Y = %v, want 2 with perfect restitution", body.Velocity.Y())
	}
}

func TestGroundContact_SolveVelocity_NoAttraction(t *testing.T) {
	body := newBoxAt(0.99)
	body.Velocity = mgl64.Vec3{0, 3, 0}
	body.PresolveVelocity = body.Velocity
	contact := NewGroundContact(body, actor.NewGroundPlane(0), GroundMaterial{})

	contact.SolveVelocity(0.01)

	if math.Abs(body.Velocity.Y()-3) > 1e-9 {
		t.Errorf("Velocity.Y = %v, a separating body must keep its velocity", body.Velocity.Y())
	}
}

func TestComputeMixing(t *testing.T) {
	body := actor.Material{Restitution: 0.4, StaticFriction: 0.5, DynamicFriction: 0.2}
	ground := GroundMaterial{Restitution: 0.8, StaticFriction: 0.5, DynamicFriction: 0.8}

	if got := ComputeRestitution(body, ground); math.Abs(got-0.6) > 1e-12 {
		t.Errorf("ComputeRestitution() = %v, want 0.6", got)
	}
	if got := ComputeStaticFriction(body, ground); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("ComputeStaticFriction() = %v, want 0.5", got)
	}
	if got := ComputeDynamicFriction(body, ground); math.Abs(got-0.4) > 1e-12 {
		t.Errorf("ComputeDynamicFriction() = %v, want 0.4", got)
	}
}
