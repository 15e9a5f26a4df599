package model

// mesh is the implementation of the Mesh interface.
type mesh struct {
	name           string
	vertices       []GPUVertex
	indices        []uint32
	material       Material
	boundingMin    [3]float32
	boundingMax    [3]float32
	boundingRadius float32
	vertexData     []byte
	indexData      []byte
}

// Mesh defines the interface for one drawable primitive of a loaded model: its geometry, packed GPU
// buffers and material.
//
// A Mesh is immutable once built and is shared, never copied, between every scene node that draws it.
// Instantiating a cached model clones nodes but hands the clones the same Mesh values.
type Mesh interface {
	// Name retrieves the mesh identifier.
	//
	// Returns:
	//   - string: the mesh name
	Name() string

	// Vertices returns the mesh vertices. Callers must not modify the slice.
	//
	// Returns:
	//   - []GPUVertex: the vertices
	Vertices() []GPUVertex

	// Indices returns the triangle indices. Callers must not modify the slice.
	//
	// Returns:
	//   - []uint32: the indices
	Indices() []uint32

	// IndexCount returns the number of indices in the mesh.
	//
	// Returns:
	//   - int: the index count
	IndexCount() int

	// VertexData returns the packed vertex buffer.
	//
	// Returns:
	//   - []byte: the vertex data
	VertexData() []byte

	// IndexData returns the packed index buffer.
	//
	// Returns:
	//   - []byte: the index data
	IndexData() []byte

	// Material returns the material the mesh is drawn with, or nil.
	//
	// Returns:
	//   - Material: the material
	Material() Material

	// Bounds returns the axis-aligned bounding box in model space.
	//
	// Returns:
	//   - [3]float32: the minimum corner
	//   - [3]float32: the maximum corner
	Bounds() ([3]float32, [3]float32)

	// BoundingRadius returns the bounding sphere radius for this mesh, measured as
	// the maximum vertex distance from the origin.
	//
	// Returns:
	//   - float32: the bounding radius
	BoundingRadius() float32
}

var _ Mesh = &mesh{}

// NewMesh creates a new Mesh with the specified options applied. Packed buffers, bounds and radius are
// derived from the vertices and indices unless set explicitly.
//
// Parameters:
//   - options: a variadic list of MeshBuilderOption functions to configure the Mesh
//
// Returns:
//   - Mesh: a new instance of Mesh configured with the provided options
func NewMesh(options ...MeshBuilderOption) Mesh {
	m := &mesh{boundingRadius: -1}
	for _, opt := range options {
		opt(m)
	}

	if m.boundingMin == ([3]float32{}) && m.boundingMax == ([3]float32{}) {
		m.boundingMin, m.boundingMax = CalculateBoundingBox(m.vertices)
	}
	if m.boundingRadius < 0 {
		m.boundingRadius = ComputeBoundingRadius(m.vertices)
	}
	m.vertexData = MarshalVertices(m.vertices)
	m.indexData = MarshalIndices(m.indices)
	return m
}

// NewMeshFromImported builds a Mesh from an imported primitive.
//
// Parameters:
//   - imported: the imported primitive
//   - material: the resolved material, or nil
//
// Returns:
//   - Mesh: the mesh
func NewMeshFromImported(imported ImportedMesh, material Material) Mesh {
	return NewMesh(
		WithMeshName(imported.Name),
		WithVertices(imported.Vertices),
		WithIndices(imported.Indices),
		WithMaterial(material),
		WithBounds(imported.BoundingMin, imported.BoundingMax),
	)
}

func (m *mesh) Name() string {
	return m.name
}

func (m *mesh) Vertices() []GPUVertex {
	return m.vertices
}

func (m *mesh) Indices() []uint32 {
	return m.indices
}

func (m *mesh) IndexCount() int {
	return len(m.indices)
}

func (m *mesh) VertexData() []byte {
	return m.vertexData
}

func (m *mesh) IndexData() []byte {
	return m.indexData
}

func (m *mesh) Material() Material {
	return m.material
}

func (m *mesh) Bounds() ([3]float32, [3]float32) {
	return m.boundingMin, m.boundingMax
}

func (m *mesh) BoundingRadius() float32 {
	return m.boundingRadius
}
