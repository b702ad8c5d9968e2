package quadsim

import (
	"testing"

	"github.com/akmonengine/quadsim/actor"
	"github.com/akmonengine/quadsim/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

// Test helper functions
func createBox(position mgl64.Vec3, halfExtents mgl64.Vec3, bodyType actor.BodyType) *actor.RigidBody {
	return actor.NewRigidBody(
		actor.NewTransformAt(position, mgl64.QuatIdent()),
		&actor.Box{HalfExtents: halfExtents},
		bodyType,
		1.0,
	)
}

func createSphere(position mgl64.Vec3, radius float64, bodyType actor.BodyType) *actor.RigidBody {
	return actor.NewRigidBody(
		actor.NewTransformAt(position, mgl64.QuatIdent()),
		&actor.Sphere{Radius: radius},
		bodyType,
		1.0,
	)
}

func collect(candidates <-chan *actor.RigidBody) map[*actor.RigidBody]bool {
	seen := make(map[*actor.RigidBody]bool)
	for body := range candidates {
		seen[body] = true
	}
	return seen
}

// =============================================================================
// BroadPhase Tests
// =============================================================================

func TestBroadPhase(t *testing.T) {
	ground := actor.NewGroundPlane(0)

	touching := createBox(mgl64.Vec3{0, 0.9, 0}, mgl64.Vec3{1, 1, 1}, actor.BodyTypeDynamic)
	above := createBox(mgl64.Vec3{0, 3, 0}, mgl64.Vec3{1, 1, 1}, actor.BodyTypeDynamic)
	sphere := createSphere(mgl64.Vec3{5, 0.5, 0}, 1, actor.BodyTypeDynamic)
	static := createBox(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1}, actor.BodyTypeStatic)

	for _, workers := range []int{1, 4} {
		got := collect(BroadPhase([]*actor.RigidBody{touching, above, sphere, static}, ground, workers))

		if len(got) != 2 {
			t.Errorf("workers=%d: expected 2 candidates, got %d", workers, len(got))
		}
		if !got[touching] || !got[sphere] {
			t.Errorf("workers=%d: missing candidates, got %v", workers, got)
		}
		if got[above] || got[static] {
			t.Errorf("workers=%d: unexpected candidate", workers)
		}
	}
}

func TestBroadPhase_RaisedGround(t *testing.T) {
	ground := actor.NewGroundPlane(10)
	body := createSphere(mgl64.Vec3{0, 10.5, 0}, 1, actor.BodyTypeDynamic)

	if got := collect(BroadPhase([]*actor.RigidBody{body}, ground, 1)); !got[body] {
		t.Error("expected the sphere to reach a ground at height 10")
	}
}

// =============================================================================
// NarrowPhase Tests
// =============================================================================

func TestNarrowPhase(t *testing.T) {
	ground := actor.NewGroundPlane(0)
	material := constraint.GroundMaterial{Restitution: 0.2}

	flat := createBox(mgl64.Vec3{0, 0.9, 0}, mgl64.Vec3{1, 1, 1}, actor.BodyTypeDynamic)
	sphere := createSphere(mgl64.Vec3{5, 0.5, 0}, 1, actor.BodyTypeDynamic)

	tilted := createBox(mgl64.Vec3{-5, 1.2, 0}, mgl64.Vec3{1, 1, 1}, actor.BodyTypeDynamic)
	tilted.Transform = actor.NewTransformAt(tilted.Transform.Position, mgl64.QuatRotate(mgl64.DegToRad(45), mgl64.Vec3{0, 0, 1}))
	tilted.Shape.ComputeAABB(tilted.Transform)

	bodies := []*actor.RigidBody{flat, sphere, tilted}
	contacts := NarrowPhase(BroadPhase(bodies, ground, 2), ground, material, 2)

	if len(contacts) != 3 {
		t.Fatalf("expected 3 contacts, got %d", len(contacts))
	}

	wantPoints := map[*actor.RigidBody]int{flat: 4, sphere: 1, tilted: 2}
	for _, c := range contacts {
		if len(c.Points) != wantPoints[c.Body] {
			t.Errorf("body at %v: %d points, want %d", c.Body.Transform.Position, len(c.Points), wantPoints[c.Body])
		}
		if c.Ground != material {
			t.Errorf("contact material = %v, want %v", c.Ground, material)
		}
		if !c.Normal.ApproxEqual(actor.WorldUp) {
			t.Errorf("contact normal = %v, want %v", c.Normal, actor.WorldUp)
		}
	}
}

func TestNarrowPhase_NotTouching(t *testing.T) {
	ground := actor.NewGroundPlane(0)

	// Fed directly, bypassing the broad phase
	body := createSphere(mgl64.Vec3{0, 1.0000001, 0}, 1, actor.BodyTypeDynamic)
	candidates := make(chan *actor.RigidBody, 1)
	candidates <- body
	close(candidates)

	if contacts := NarrowPhase(candidates, ground, constraint.GroundMaterial{}, 1); len(contacts) != 0 {
		t.Errorf("expected no contact, got %d", len(contacts))
	}
}
