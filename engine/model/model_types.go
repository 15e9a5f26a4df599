package model

import (
	"github.com/Carmen-Shannon/oxy-assets/common"
)

// --- Import Types ---

// ImportedModel represents a 3D model decoded from an external format before any textures are resolved.
// This is the universal format that format loaders (glTF, Collada, ...) produce.
type ImportedModel struct {
	// Name is the model identifier.
	Name string

	// Meshes contains all mesh data (one entry per primitive).
	Meshes []ImportedMesh

	// Materials are referenced by ImportedMesh.MaterialIndex.
	Materials []common.ImportedMaterial
}

// ImportedMesh represents a single mesh primitive within an imported model.
type ImportedMesh struct {
	// Name is the mesh identifier.
	Name string

	// Vertices are the mesh vertices.
	Vertices []GPUVertex

	// Indices are the triangle indices.
	Indices []uint32

	// MaterialIndex references ImportedModel.Materials, -1 when the primitive has no material.
	MaterialIndex int

	// HasNormals reports whether the source provided vertex normals.
	HasNormals bool

	// HasTangents reports whether the source provided vertex tangents.
	HasTangents bool

	// BoundingMin is the minimum corner of the axis-aligned bounding box.
	BoundingMin [3]float32

	// BoundingMax is the maximum corner of the axis-aligned bounding box.
	BoundingMax [3]float32
}

// Finalize fills in derived vertex data: smooth normals when the source had none, tangents when
// calculateTangents is set and the source had none, and the bounding box.
//
// Parameters:
//   - calculateTangents: whether tangents should be generated
func (m *ImportedMesh) Finalize(calculateTangents bool) {
	if !m.HasNormals && len(m.Indices) >= 3 {
		GenerateNormals(m.Vertices, m.Indices)
		m.HasNormals = true
	}
	if calculateTangents && !m.HasTangents && len(m.Indices) >= 3 {
		GenerateTangents(m.Vertices, m.Indices)
		m.HasTangents = true
	}
	m.BoundingMin, m.BoundingMax = CalculateBoundingBox(m.Vertices)
}
