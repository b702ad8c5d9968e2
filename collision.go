package quadsim

import (
	"sync"

	"github.com/akmonengine/quadsim/actor"
	"github.com/akmonengine/quadsim/constraint"
)

// BroadPhase streams the dynamic bodies whose AABB reaches below the ground plane.
func BroadPhase(bodies []*actor.RigidBody, ground actor.Plane, workersCount int) <-chan *actor.RigidBody {
	candidates := make(chan *actor.RigidBody, workersCount)

	go func() {
		defer close(candidates)

		for _, body := range bodies {
			if body.BodyType == actor.BodyTypeStatic {
				continue
			}
			if body.Shape.GetAABB().BelowPlane(ground) {
				candidates <- body
			}
		}
	}()

	return candidates
}

// NarrowPhase builds one ground contact per candidate touching the plane.
// The returned order is not deterministic; each contact owns a distinct body.
func NarrowPhase(candidates <-chan *actor.RigidBody, ground actor.Plane, material constraint.GroundMaterial, workersCount int) []*constraint.GroundContact {
	ch := collideGround(candidates, ground, material, workersCount)

	contacts := make([]*constraint.GroundContact, 0)
	for c := range ch {
		contacts = append(contacts, c)
	}

	return contacts
}

func collideGround(candidates <-chan *actor.RigidBody, ground actor.Plane, material constraint.GroundMaterial, workersCount int) <-chan *constraint.GroundContact {
	ch := make(chan *constraint.GroundContact, workersCount)

	go func() {
		var wg sync.WaitGroup
		defer close(ch)

		for range workersCount {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for body := range candidates {
					if contact := constraint.NewGroundContact(body, ground, material); contact != nil {
						ch <- contact
					}
				}
			}()
		}

		wg.Wait()
	}()

	return ch
}
