package renderer

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Ray represents a ray in 3D space
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// At returns the point at parameter t along the ray.
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// RayIntersectSphere tests if a ray intersects a sphere
// Returns: (intersected, distance, intersection point)
func RayIntersectSphere(ray Ray, sphereCenter mgl32.Vec3, radius float32) (bool, float32, mgl32.Vec3) {
	oc := ray.Origin.Sub(sphereCenter)

	a := ray.Direction.Dot(ray.Direction)
	b := 2.0 * oc.Dot(ray.Direction)
	c := oc.Dot(oc) - radius*radius

	discriminant := b*b - 4*a*c
	if discriminant < 0 || a == 0 {
		return false, 0, mgl32.Vec3{}
	}

	sqrtDisc := float32(math.Sqrt(float64(discriminant)))
	t1 := (-b - sqrtDisc) / (2 * a)
	t2 := (-b + sqrtDisc) / (2 * a)

	// t1 <= t2; an origin inside the sphere reports the exit point.
	var t float32
	switch {
	case t1 > 0:
		t = t1
	case t2 > 0:
		t = t2
	default:
		return false, 0, mgl32.Vec3{}
	}

	return true, t, ray.At(t)
}

// RayIntersectModel is the coarse bounding-sphere test used before walking a
// model's triangles.
func RayIntersectModel(ray Ray, model *Model) (bool, float32, mgl32.Vec3) {
	return RayIntersectSphere(ray, model.BoundingSphereCenter, model.BoundingSphereRadius)
}

// RayIntersectAABB is the slab test. A ray starting inside the box hits at
// distance 0.
func RayIntersectAABB(ray Ray, min, max mgl32.Vec3) (bool, float32) {
	tNear := float32(math.Inf(-1))
	tFar := float32(math.Inf(1))

	for k := 0; k < 3; k++ {
		o, d := ray.Origin[k], ray.Direction[k]
		if d == 0 {
			if o < min[k] || o > max[k] {
				return false, 0
			}
			continue
		}
		t0 := (min[k] - o) / d
		t1 := (max[k] - o) / d
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tNear {
			tNear = t0
		}
		if t1 < tFar {
			tFar = t1
		}
		if tNear > tFar || tFar < 0 {
			return false, 0
		}
	}
	if tNear < 0 {
		tNear = 0
	}
	return true, tNear
}

// RayIntersectTriangle tests if a ray intersects a triangle
// Returns: (intersected, distance, intersection point)
// Uses Möller-Trumbore algorithm; both faces count as hits.
func RayIntersectTriangle(ray Ray, v0, v1, v2 mgl32.Vec3) (bool, float32, mgl32.Vec3) {
	const epsilon = 0.0000001

	edge1 := v1.Sub(v0)
	edge2 := v2.Sub(v0)
	h := ray.Direction.Cross(edge2)
	a := edge1.Dot(h)

	if a > -epsilon && a < epsilon {
		return false, 0, mgl32.Vec3{} // parallel
	}

	f := 1.0 / a
	s := ray.Origin.Sub(v0)
	u := f * s.Dot(h)
	if u < 0.0 || u > 1.0 {
		return false, 0, mgl32.Vec3{}
	}

	q := s.Cross(edge1)
	v := f * ray.Direction.Dot(q)
	if v < 0.0 || u+v > 1.0 {
		return false, 0, mgl32.Vec3{}
	}

	t := f * edge2.Dot(q)
	if t > epsilon {
		return true, t, ray.At(t)
	}

	return false, 0, mgl32.Vec3{} // behind the origin
}

// RayIntersectMesh returns the nearest hit against a flat triangle list whose
// positions are offset by origin.
func RayIntersectMesh(ray Ray, origin mgl32.Vec3, positions []float32, indices []uint32) (bool, float32, mgl32.Vec3) {
	vertex := func(i uint32) mgl32.Vec3 {
		return mgl32.Vec3{positions[i*3], positions[i*3+1], positions[i*3+2]}.Add(origin)
	}

	hit := false
	var best float32
	var point mgl32.Vec3
	for i := 0; i+2 < len(indices); i += 3 {
		ok, t, p := RayIntersectTriangle(ray, vertex(indices[i]), vertex(indices[i+1]), vertex(indices[i+2]))
		if ok && (!hit || t < best) {
			hit, best, point = true, t, p
		}
	}
	return hit, best, point
}
