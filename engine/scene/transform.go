package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// ComposeTransform builds a local matrix from translation, rotation and scale, applied in
// scale -> rotate -> translate order.
//
// Parameters:
//   - t: the translation
//   - r: the rotation
//   - s: the scale
//
// Returns:
//   - mgl32.Mat4: T * R * S
func ComposeTransform(t mgl32.Vec3, r mgl32.Quat, s mgl32.Vec3) mgl32.Mat4 {
	return mgl32.Translate3D(t.X(), t.Y(), t.Z()).
		Mul4(r.Normalize().Mat4()).
		Mul4(mgl32.Scale3D(s.X(), s.Y(), s.Z()))
}

// DecomposeTransform splits an affine matrix without shear into translation, rotation and scale.
// A negative determinant is folded into the X scale.
//
// Parameters:
//   - m: the matrix
//
// Returns:
//   - mgl32.Vec3: the translation
//   - mgl32.Quat: the rotation
//   - mgl32.Vec3: the scale
func DecomposeTransform(m mgl32.Mat4) (mgl32.Vec3, mgl32.Quat, mgl32.Vec3) {
	t := m.Col(3).Vec3()
	s := mgl32.Vec3{m.Col(0).Vec3().Len(), m.Col(1).Vec3().Len(), m.Col(2).Vec3().Len()}
	if m.Mat3().Det() < 0 {
		s[0] = -s[0]
	}

	rot := mgl32.Ident4()
	for i := 0; i < 3; i++ {
		if s[i] == 0 {
			return t, mgl32.QuatIdent(), s
		}
		rot.SetCol(i, m.Col(i).Vec3().Mul(1/s[i]).Vec4(0))
	}
	return t, mgl32.Mat4ToQuat(rot).Normalize(), s
}
