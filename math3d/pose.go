package math3d

import (
	"fmt"
)

// Pose is the body's odometric position and orientation in the world frame.
// Orientation is tracked as a quaternion rather than a single heading float
// so that the §4.8 odometry update composes cleanly without gimbal issues.
type Pose struct {
	Position Vector3
	Rotation Quaternion
}

// IdentityPose is the pose at the origin, facing the rotation's identity.
var IdentityPose = Pose{Rotation: IdentityQuaternion}

func (p Pose) String() string {
	return fmt.Sprintf("Pose{pos=%s rot=%s}", p.Position, p.Rotation)
}

// Advance integrates one tick of body-frame horizontal velocity `linear` and
// yaw rate `angularVelocity` (rad/s) over `dt` seconds into the pose:
//
//	position += rotation·(linear.X·dt, linear.Y·dt, 0)
//	rotation *= axisAngle(0, 0, 1, -angularVelocity·dt)
//
// The yaw sign is negative because a positive angular velocity rotates the
// body frame toward the direction the legs are walking it away from.
func (p Pose) Advance(linear Vector2, angularVelocity float64, dt float64) Pose {
	step := Vector3{X: linear.X * dt, Y: linear.Y * dt}
	worldStep := p.Rotation.RotateVector(step)

	yaw := QuaternionFromAxisAngle(Vector3{Z: 1}, -angularVelocity*dt)

	return Pose{
		Position: *p.Position.Add(worldStep),
		Rotation: p.Rotation.Multiply(yaw),
	}
}
