package shape

import "github.com/go-gl/mathgl/mgl64"

// Isometry is a rigid transform: a rotation followed by a translation.
// Rotation must be a unit quaternion.
type Isometry struct {
	Translation mgl64.Vec3
	Rotation    mgl64.Quat
}

// Identity returns the identity transform.
func Identity() Isometry {
	return Isometry{Rotation: mgl64.QuatIdent()}
}

// Translation builds a pure translation.
func Translation(v mgl64.Vec3) Isometry {
	return Isometry{Translation: v, Rotation: mgl64.QuatIdent()}
}

// NewIsometry builds a transform from a translation and a rotation of angle
// radians around axis.
func NewIsometry(translation mgl64.Vec3, angle float64, axis mgl64.Vec3) Isometry {
	if axis.LenSqr() == 0 {
		return Translation(translation)
	}
	return Isometry{Translation: translation, Rotation: mgl64.QuatRotate(angle, axis.Normalize())}
}

// TransformPoint maps a local point into the parent frame.
func (m Isometry) TransformPoint(p mgl64.Vec3) mgl64.Vec3 {
	return m.Rotation.Rotate(p).Add(m.Translation)
}

// InverseTransformPoint maps a parent-frame point into the local frame.
func (m Isometry) InverseTransformPoint(p mgl64.Vec3) mgl64.Vec3 {
	return m.Rotation.Conjugate().Rotate(p.Sub(m.Translation))
}

// Rotate applies only the rotational part.
func (m Isometry) Rotate(v mgl64.Vec3) mgl64.Vec3 {
	return m.Rotation.Rotate(v)
}

// InverseRotate applies the inverse rotation.
func (m Isometry) InverseRotate(v mgl64.Vec3) mgl64.Vec3 {
	return m.Rotation.Conjugate().Rotate(v)
}

// Mul composes two transforms: the result applies other first, then m.
func (m Isometry) Mul(other Isometry) Isometry {
	return Isometry{
		Translation: m.TransformPoint(other.Translation),
		Rotation:    m.Rotation.Mul(other.Rotation).Normalize(),
	}
}

// Inverse returns the transform undoing m.
func (m Isometry) Inverse() Isometry {
	inv := m.Rotation.Conjugate()
	return Isometry{
		Translation: inv.Rotate(m.Translation).Mul(-1),
		Rotation:    inv,
	}
}

// RotationMatrix returns the 3x3 rotation matrix of m.
func (m Isometry) RotationMatrix() mgl64.Mat3 {
	return m.Rotation.Mat4().Mat3()
}
