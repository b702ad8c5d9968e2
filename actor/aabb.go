package actor

import "github.com/go-gl/mathgl/mgl64"

// AABB represents an axis-aligned bounding box
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// ContainsPoint checks if a point is inside the AABB
func (a AABB) ContainsPoint(point mgl64.Vec3) bool {
	return point.X() >= a.Min.X() && point.X() <= a.Max.X() &&
		point.Y() >= a.Min.Y() && point.Y() <= a.Max.Y() &&
		point.Z() >= a.Min.Z() && point.Z() <= a.Max.Z()
}

// BelowPlane reports whether any corner of the box lies on the negative side of the plane.
// It is the cheap rejection test run before exact plane contacts are generated.
func (a AABB) BelowPlane(plane Plane) bool {
	// Corner furthest along -normal
	corner := mgl64.Vec3{a.Max.X(), a.Max.Y(), a.Max.Z()}
	for i := 0; i < 3; i++ {
		if plane.Normal[i] > 0 {
			corner[i] = a.Min[i]
		}
	}

	return plane.SignedDistance(corner) <= 0
}
