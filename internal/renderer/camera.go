// camera.go
package renderer

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type Camera struct {
	// HOT DATA - read every tick for culling
	Position   mgl32.Vec3 // Camera position in world space
	Front      mgl32.Vec3 // Forward direction vector
	Up         mgl32.Vec3 // Up direction vector
	Right      mgl32.Vec3 // Right direction vector
	Projection mgl32.Mat4 // Projection matrix
	Pitch      float32    // Pitch angle in degrees
	Yaw        float32    // Yaw angle in degrees

	// COLD DATA - configuration
	WorldUp     mgl32.Vec3
	Speed       float32 // Movement speed in world units per second
	Sensitivity float32
	Fov         float32
	Near        float32
	Far         float32
	AspectRatio float32
}

type Plane struct {
	Normal   mgl32.Vec3
	Distance float32
}

type Frustum struct {
	Planes [6]Plane
}

func NewDefaultCamera(height int32, width int32) *Camera {
	camera := Camera{
		Position:    mgl32.Vec3{0, 0, 0},
		Front:       mgl32.Vec3{0, 0, -1},
		Up:          mgl32.Vec3{0, 1, 0},
		WorldUp:     mgl32.Vec3{0, 1, 0},
		Pitch:       0.0,
		Yaw:         -90.0,
		Speed:       20,
		Sensitivity: 0.1,
		Fov:         60.0,
		Near:        0.1,
		Far:         1000.0,
		AspectRatio: float32(width) / float32(height),
	}
	camera.updateCameraVectors()
	camera.UpdateProjection()
	return &camera
}

func (c *Camera) UpdateProjection() {
	c.Projection = mgl32.Perspective(mgl32.DegToRad(c.Fov), c.AspectRatio, c.Near, c.Far)
}

func (c *Camera) SetFar(far float32) {
	c.Far = far
	c.UpdateProjection()
}

func (c *Camera) SetFov(fov float32) {
	c.Fov = fov
	c.UpdateProjection()
}

func (c *Camera) GetViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Position.Add(c.Front), c.Up)
}

func (c *Camera) GetViewProjection() mgl32.Mat4 {
	return c.Projection.Mul4(c.GetViewMatrix())
}

// Move translates the camera along its own axes, scaled by Speed.
func (c *Camera) Move(forward, right, up, deltaTime float32) {
	velocity := c.Speed * deltaTime
	c.Position = c.Position.
		Add(c.Front.Mul(forward * velocity)).
		Add(c.Right.Mul(right * velocity)).
		Add(c.WorldUp.Mul(up * velocity))
}

func (c *Camera) ProcessMouseMovement(xoffset, yoffset float32, constrainPitch bool) {
	xoffset *= c.Sensitivity
	yoffset *= c.Sensitivity

	c.Yaw += xoffset
	c.Pitch += yoffset
	if constrainPitch {
		c.Pitch = mgl32.Clamp(c.Pitch, -89.0, 89.0)
	}
	c.updateCameraVectors()
}

// LookAt turns the camera towards target. Pitch is limited to ±89°.
func (c *Camera) LookAt(target mgl32.Vec3) {
	direction := target.Sub(c.Position)
	if direction.Len() == 0 {
		return
	}
	direction = direction.Normalize()
	c.Yaw = mgl32.RadToDeg(float32(math.Atan2(float64(direction.Z()), float64(direction.X()))))
	horizontal := math.Sqrt(float64(direction.X()*direction.X() + direction.Z()*direction.Z()))
	c.Pitch = mgl32.Clamp(mgl32.RadToDeg(float32(math.Atan2(float64(direction.Y()), horizontal))), -89.0, 89.0)
	c.updateCameraVectors()
}

func (c *Camera) updateCameraVectors() {
	yawRad := mgl32.DegToRad(c.Yaw)
	pitchRad := mgl32.DegToRad(c.Pitch)

	front := mgl32.Vec3{
		float32(math.Cos(float64(yawRad)) * math.Cos(float64(pitchRad))),
		float32(math.Sin(float64(pitchRad))),
		float32(math.Sin(float64(yawRad)) * math.Cos(float64(pitchRad))),
	}

	c.Front = front.Normalize()
	c.Right = c.Front.Cross(c.WorldUp).Normalize()
	c.Up = c.Right.Cross(c.Front).Normalize()
}

// CalculateFrustum extracts the six clip planes from the view-projection
// matrix. Plane normals point inwards.
func (c *Camera) CalculateFrustum() Frustum {
	var frustum Frustum
	vp := c.GetViewProjection()

	// Left, right, bottom, top, near, far
	frustum.Planes[0] = Plane{mgl32.Vec3{vp[3] + vp[0], vp[7] + vp[4], vp[11] + vp[8]}, vp[15] + vp[12]}
	frustum.Planes[1] = Plane{mgl32.Vec3{vp[3] - vp[0], vp[7] - vp[4], vp[11] - vp[8]}, vp[15] - vp[12]}
	frustum.Planes[2] = Plane{mgl32.Vec3{vp[3] + vp[1], vp[7] + vp[5], vp[11] + vp[9]}, vp[15] + vp[13]}
	frustum.Planes[3] = Plane{mgl32.Vec3{vp[3] - vp[1], vp[7] - vp[5], vp[11] - vp[9]}, vp[15] - vp[13]}
	frustum.Planes[4] = Plane{mgl32.Vec3{vp[3] + vp[2], vp[7] + vp[6], vp[11] + vp[10]}, vp[15] + vp[14]}
	frustum.Planes[5] = Plane{mgl32.Vec3{vp[3] - vp[2], vp[7] - vp[6], vp[11] - vp[10]}, vp[15] - vp[14]}

	for i := range frustum.Planes {
		length := frustum.Planes[i].Normal.Len()
		frustum.Planes[i].Normal = frustum.Planes[i].Normal.Mul(1.0 / length)
		frustum.Planes[i].Distance /= length
	}

	return frustum
}

func (p *Plane) DistanceToPoint(point mgl32.Vec3) float32 {
	return p.Normal.Dot(point) + p.Distance
}

func (f *Frustum) IntersectsSphere(center mgl32.Vec3, radius float32) bool {
	for _, plane := range f.Planes {
		if plane.DistanceToPoint(center) < -radius {
			return false
		}
	}
	return true
}

// IntersectsAABB is conservative: boxes straddling a frustum corner may be
// reported as visible.
func (f *Frustum) IntersectsAABB(min, max mgl32.Vec3) bool {
	for _, plane := range f.Planes {
		// Corner furthest along the plane normal.
		p := min
		for k := 0; k < 3; k++ {
			if plane.Normal[k] >= 0 {
				p[k] = max[k]
			}
		}
		if plane.DistanceToPoint(p) < 0 {
			return false
		}
	}
	return true
}
