package model

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// CalculateBoundingBox computes the axis-aligned bounding box of the vertex positions.
//
// Parameters:
//   - vertices: the vertices
//
// Returns:
//   - [3]float32: the minimum corner, zero for an empty slice
//   - [3]float32: the maximum corner, zero for an empty slice
func CalculateBoundingBox(vertices []GPUVertex) ([3]float32, [3]float32) {
	if len(vertices) == 0 {
		return [3]float32{}, [3]float32{}
	}

	bmin := [3]float32{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	bmax := [3]float32{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
	for _, v := range vertices {
		for j := 0; j < 3; j++ {
			bmin[j] = min(bmin[j], v.Position[j])
			bmax[j] = max(bmax[j], v.Position[j])
		}
	}
	return bmin, bmax
}

// triangles calls fn for every triangle whose three indices are in range.
func triangles(vertexCount int, indices []uint32, fn func(i0, i1, i2 uint32)) {
	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		if int(i0) >= vertexCount || int(i1) >= vertexCount || int(i2) >= vertexCount {
			continue
		}
		fn(i0, i1, i2)
	}
}

// GenerateNormals computes smooth vertex normals from the triangle geometry. For each triangle the
// face normal (the cross product of two edges, so its length is proportional to the area) is
// accumulated onto every vertex of the triangle; the sums are normalized at the end.
// Vertices touched only by degenerate triangles get the up vector.
//
// Parameters:
//   - vertices: the vertex slice to write normal data into
//   - indices: the triangle index buffer
func GenerateNormals(vertices []GPUVertex, indices []uint32) {
	accum := make([]mgl32.Vec3, len(vertices))

	triangles(len(vertices), indices, func(i0, i1, i2 uint32) {
		p0 := mgl32.Vec3(vertices[i0].Position)
		edge1 := mgl32.Vec3(vertices[i1].Position).Sub(p0)
		edge2 := mgl32.Vec3(vertices[i2].Position).Sub(p0)
		face := edge1.Cross(edge2)

		accum[i0] = accum[i0].Add(face)
		accum[i1] = accum[i1].Add(face)
		accum[i2] = accum[i2].Add(face)
	})

	for i, n := range accum {
		if n.Len() < 1e-6 {
			vertices[i].Normal = [3]float32{0, 1, 0}
			continue
		}
		vertices[i].Normal = n.Normalize()
	}
}

// GenerateTangents computes per-vertex tangents with the UV-gradient method. Per-triangle tangents and
// bitangents are accumulated per vertex, the tangent is Gram-Schmidt orthonormalized against the vertex
// normal, and W stores the bitangent handedness (+1 or -1). Normals must already be present.
//
// Parameters:
//   - vertices: the vertex slice to write tangent data into
//   - indices: the triangle index buffer
func GenerateTangents(vertices []GPUVertex, indices []uint32) {
	tan := make([]mgl32.Vec3, len(vertices))
	btan := make([]mgl32.Vec3, len(vertices))

	triangles(len(vertices), indices, func(i0, i1, i2 uint32) {
		p0 := mgl32.Vec3(vertices[i0].Position)
		edge1 := mgl32.Vec3(vertices[i1].Position).Sub(p0)
		edge2 := mgl32.Vec3(vertices[i2].Position).Sub(p0)

		uv0 := mgl32.Vec2(vertices[i0].TexCoord)
		duv1 := mgl32.Vec2(vertices[i1].TexCoord).Sub(uv0)
		duv2 := mgl32.Vec2(vertices[i2].TexCoord).Sub(uv0)

		det := duv1.X()*duv2.Y() - duv1.Y()*duv2.X()
		if det == 0 {
			return
		}
		r := 1 / det

		t := edge1.Mul(duv2.Y()).Sub(edge2.Mul(duv1.Y())).Mul(r)
		b := edge2.Mul(duv1.X()).Sub(edge1.Mul(duv2.X())).Mul(r)

		for _, idx := range [3]uint32{i0, i1, i2} {
			tan[idx] = tan[idx].Add(t)
			btan[idx] = btan[idx].Add(b)
		}
	})

	for i := range vertices {
		n := mgl32.Vec3(vertices[i].Normal)
		ortho := tan[i].Sub(n.Mul(n.Dot(tan[i])))
		if ortho.Len() < 1e-6 {
			vertices[i].Tangent = [4]float32{1, 0, 0, 1}
			continue
		}
		ortho = ortho.Normalize()

		w := float32(1)
		if n.Cross(ortho).Dot(btan[i]) < 0 {
			w = -1
		}
		vertices[i].Tangent = ortho.Vec4(w)
	}
}

// TransformVertices applies a model matrix to positions, and its normal matrix to normals and tangents.
//
// Parameters:
//   - vertices: the vertices to transform in place
//   - m: the transform
func TransformVertices(vertices []GPUVertex, m mgl32.Mat4) {
	normalMat := m.Mat3().Inv().Transpose()
	for i := range vertices {
		v := &vertices[i]
		v.Position = mgl32.TransformCoordinate(mgl32.Vec3(v.Position), m)

		if n := normalMat.Mul3x1(mgl32.Vec3(v.Normal)); n.Len() > 1e-6 {
			v.Normal = n.Normalize()
		}
		t := mgl32.Vec3{v.Tangent[0], v.Tangent[1], v.Tangent[2]}
		if t = m.Mat3().Mul3x1(t); t.Len() > 1e-6 {
			v.Tangent = t.Normalize().Vec4(v.Tangent[3])
		}
	}
}
