package math3d

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// Quaternion is a unit quaternion used for the body's odometric rotation
// (§3, §4.8). It wraps gonum's quat.Number the way
// viamrobotics-rdk/spatialmath/orientation.go wraps the same package for its
// own Orientation implementations.
type Quaternion quat.Number

// IdentityQuaternion represents no rotation.
var IdentityQuaternion = Quaternion{Real: 1}

// QuaternionFromAxisAngle builds a unit quaternion representing a rotation of
// angle radians around axis (which need not be normalised).
func QuaternionFromAxisAngle(axis Vector3, angle float64) Quaternion {
	u := axis.Unit()
	s := math.Sin(angle / 2)
	return Quaternion{
		Real: math.Cos(angle / 2),
		Imag: u.X * s,
		Jmag: u.Y * s,
		Kmag: u.Z * s,
	}
}

func (q Quaternion) number() quat.Number {
	return quat.Number(q)
}

// Multiply returns q*qq, composing two rotations (qq applied first, then q).
func (q Quaternion) Multiply(qq Quaternion) Quaternion {
	return Quaternion(quat.Mul(q.number(), qq.number()))
}

// RotateVector rotates v by this quaternion: q*v*q⁻¹.
func (q Quaternion) RotateVector(v Vector3) Vector3 {
	vq := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	r := quat.Mul(quat.Mul(q.number(), vq), quat.Conj(q.number()))
	return Vector3{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}

func (q Quaternion) String() string {
	return fmt.Sprintf("&Quat{w=%+.4f x=%+.4f y=%+.4f z=%+.4f}", q.Real, q.Imag, q.Jmag, q.Kmag)
}
