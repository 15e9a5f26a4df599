package loader

import (
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-assets/common"
	"github.com/Carmen-Shannon/oxy-assets/engine/scene"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestExtractMeshDerivesMissingData(t *testing.T) {
	doc, bin := chairDocument(t)
	path := writeGLTF(t, t.TempDir(), "chair.gltf", doc, bin)
	p := newGLTFParser()
	require.NoError(t, p.Parse(path))

	meshes, err := newGLTFMeshExtractor(p).ExtractMesh(0, true)
	require.NoError(t, err)
	require.Len(t, meshes, 1)

	m := meshes[0]
	assert.Equal(t, "tri", m.Name)
	assert.Equal(t, -1, m.MaterialIndex)
	assert.True(t, m.HasNormals)
	assert.True(t, m.HasTangents)
	assert.Equal(t, [3]float32{0, 0, 1}, m.Vertices[0].Normal)
	assert.Equal(t, [4]float32{1, 1, 1, 1}, m.Vertices[0].Color)
	assert.Equal(t, [3]float32{0, 0, 0}, m.BoundingMin)
	assert.Equal(t, [3]float32{1, 1, 0}, m.BoundingMax)

	meshes, err = newGLTFMeshExtractor(p).ExtractMesh(0, false)
	require.NoError(t, err)
	assert.False(t, meshes[0].HasTangents)

	_, err = newGLTFMeshExtractor(p).ExtractMesh(3, false)
	assert.Error(t, err)
}

func TestExtractMeshRejectsOutOfRangeIndices(t *testing.T) {
	doc, bin := chairDocument(t)
	bin[40] = 9 // third index
	path := writeGLTF(t, t.TempDir(), "chair.gltf", doc, bin)
	p := newGLTFParser()
	require.NoError(t, p.Parse(path))

	_, err := newGLTFMeshExtractor(p).ExtractAllMeshes(false)
	assert.ErrorContains(t, err, "exceeds vertex count")
}

func TestExtractMeshNormalizedColors(t *testing.T) {
	doc, bin := chairDocument(t)
	for i := 0; i < 3; i++ {
		bin = append(bin, 255, 0, 0, 255)
	}
	doc.BufferViews = append(doc.BufferViews, gltfBufferView{Buffer: 0, ByteOffset: 44, ByteLength: 12})
	doc.Accessors = append(doc.Accessors, gltfAccessor{
		BufferView: intPtr(2), ComponentType: gltfComponentTypeUnsignedByte, Normalized: true, Count: 3, Type: gltfAccessorTypeVec4,
	})
	doc.Meshes[0].Primitives[0].Attributes["COLOR_0"] = 2
	path := writeGLTF(t, t.TempDir(), "chair.gltf", doc, bin)

	p := newGLTFParser()
	require.NoError(t, p.Parse(path))
	meshes, err := newGLTFMeshExtractor(p).ExtractMesh(0, false)
	require.NoError(t, err)
	assert.Equal(t, [4]float32{1, 0, 0, 1}, meshes[0].Vertices[2].Color)
}

func TestGLTFLoaderBuildsHierarchy(t *testing.T) {
	doc, bin := chairDocument(t)
	path := writeGLTF(t, t.TempDir(), "chair.gltf", doc, bin)
	level := scene.NewScene("level")

	opts := common.DefaultLoadOptions()
	opts.ScaleFactor = 2
	root, err := NewGLTFLoader(nil, nil).Load(path, level, nil, opts)
	require.NoError(t, err)

	assert.Equal(t, "chair", root.Name())
	assert.Equal(t, path, root.Source())
	assert.Equal(t, mgl32.Vec3{2, 2, 2}, root.Scale())
	assert.Same(t, level.Root(), root.Parent())
	assert.Equal(t, 4, root.Count())

	frame := root.Children()[0]
	assert.Equal(t, "frame", frame.Name())
	assert.Equal(t, mgl32.Vec3{0, 0, 5}, frame.Translation())

	seat := root.Find("seat")
	back := root.Find("back")
	require.NotNil(t, seat)
	require.NotNil(t, back)
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, back.Translation())
	assert.Same(t, seat.Meshes()[0], back.Meshes()[0], "nodes referencing one glTF mesh share it")
	assert.Nil(t, seat.Meshes()[0].Material())
}

func TestGLTFLoaderWithoutScenes(t *testing.T) {
	dir := t.TempDir()

	doc, bin := chairDocument(t)
	doc.Scene = nil
	doc.Scenes = nil
	root, err := NewGLTFLoader(nil, nil).Load(writeGLTF(t, dir, "a.gltf", doc, bin), nil, nil, common.DefaultLoadOptions())
	require.NoError(t, err)
	assert.Equal(t, 4, root.Count(), "unreferenced nodes become roots")
	assert.Nil(t, root.Parent())

	doc, bin = chairDocument(t)
	doc.Scene = nil
	doc.Scenes = nil
	doc.Nodes = nil
	root, err = NewGLTFLoader(nil, nil).Load(writeGLTF(t, dir, "b.gltf", doc, bin), nil, nil, common.DefaultLoadOptions())
	require.NoError(t, err)
	assert.Len(t, root.Meshes(), 1, "meshes without nodes hang off the root")
}

func TestGLTFLoaderMatrixTransform(t *testing.T) {
	doc, bin := chairDocument(t)
	m := mgl32.Translate3D(3, 4, 5)
	mat := [16]float32(m)
	doc.Nodes[1].Matrix = &mat
	path := writeGLTF(t, t.TempDir(), "chair.gltf", doc, bin)

	root, err := NewGLTFLoader(nil, nil).Load(path, nil, nil, common.DefaultLoadOptions())
	require.NoError(t, err)
	assert.True(t, mgl32.Vec3{3, 4, 5}.ApproxEqual(root.Find("seat").Translation()))
}

func TestGLTFLoaderEmbeddedTexture(t *testing.T) {
	textures, _ := newTestTextures()
	doc, bin := chairDocument(t)
	bin = withEmbeddedImage(doc, bin, encodePNG(t))
	path := writeFile(t, t.TempDir(), "chair.glb", encodeGLB(t, doc, bin))

	root, err := NewGLTFLoader(textures, nil).Load(path, nil, nil, common.DefaultLoadOptions())
	require.NoError(t, err)

	mat := root.Find("seat").Meshes()[0].Material()
	require.NotNil(t, mat)
	assert.Equal(t, "wood", mat.Name())
	assert.Equal(t, [4]float32{1, 0.5, 0.5, 1}, mat.BaseColor())
	assert.Same(t, mat, root.Find("back").Meshes()[0].Material())

	diffuse := mat.DiffuseTexture()
	require.NotNil(t, diffuse)
	assert.False(t, diffuse.IsDefault())
	assert.Equal(t, uint32(2), diffuse.Width())

	cached, ok := textures.Lookup(path + "#image0")
	require.True(t, ok)
	assert.Same(t, cached, diffuse.Base(), "the material samples the cached image")

	sampler := diffuse.SamplerData()
	assert.Equal(t, wgpu.FilterModeNearest, sampler.MagFilter)
	assert.Equal(t, uint16(16), sampler.MaxAnisotropy)
	assert.Equal(t, wgpu.FilterModeLinear, cached.SamplerData().MagFilter, "the cached texture keeps its sampler")
}

func TestGLTFLoaderExternalTexture(t *testing.T) {
	dir := t.TempDir()
	textures, _ := newTestTextures()
	writeFile(t, dir, "textures/wood.png", encodePNG(t))

	doc, bin := chairDocument(t)
	withMaterial(doc, gltfImage{URI: "textures/wood.png"})
	path := writeGLTF(t, dir, "chair.gltf", doc, bin)

	loader := NewGLTFLoader(textures, nil)
	first, err := loader.Load(path, nil, nil, common.DefaultLoadOptions())
	require.NoError(t, err)
	diffuse := first.Find("seat").Meshes()[0].Material().DiffuseTexture()
	require.NotNil(t, diffuse)

	cached, ok := textures.Lookup(filepath.Join(dir, "textures", "wood.png"))
	require.True(t, ok)
	assert.Same(t, cached, diffuse.Base())
	assert.Equal(t, common.DefaultSamplerStagingData(), cached.SamplerData())

	second, err := loader.Load(path, nil, nil, common.DefaultLoadOptions())
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Same(t, diffuse, second.Find("seat").Meshes()[0].Material().DiffuseTexture(), "identically sampled textures are shared through the manager")
}

func TestGLTFLoaderLogsRejectedSampler(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	textures, backend := newTestTextures()
	backend.rejectCustomSamplers.Store(true)
	dir := t.TempDir()
	writeFile(t, dir, "wood.png", encodePNG(t))
	doc, bin := chairDocument(t)
	withMaterial(doc, gltfImage{URI: "wood.png"})
	path := writeGLTF(t, dir, "chair.gltf", doc, bin)

	root, err := NewGLTFLoader(textures, zap.New(core)).Load(path, nil, nil, common.DefaultLoadOptions())
	require.NoError(t, err)

	diffuse := root.Find("seat").Meshes()[0].Material().DiffuseTexture()
	require.NotNil(t, diffuse)
	cached, ok := textures.Lookup(filepath.Join(dir, "wood.png"))
	require.True(t, ok)
	assert.Same(t, cached, diffuse, "a rejected sampler keeps the managed texture")
	assert.Equal(t, 1, logs.FilterMessage("keeping existing sampler").Len())
}

func TestGLTFLoaderMissingTextureUsesDefault(t *testing.T) {
	textures, _ := newTestTextures()
	doc, bin := chairDocument(t)
	withMaterial(doc, gltfImage{URI: "missing.png"})
	path := writeGLTF(t, t.TempDir(), "chair.gltf", doc, bin)

	root, err := NewGLTFLoader(textures, nil).Load(path, nil, nil, common.DefaultLoadOptions())
	require.NoError(t, err)
	diffuse := root.Find("seat").Meshes()[0].Material().DiffuseTexture()
	require.NotNil(t, diffuse)
	assert.True(t, diffuse.IsDefault())
}

func TestGLTFLoaderErrors(t *testing.T) {
	dir := t.TempDir()
	l := NewGLTFLoader(nil, nil)
	level := scene.NewScene("level")

	_, err := l.Load(filepath.Join(dir, "chair.obj"), level, nil, common.DefaultLoadOptions())
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	empty := writeFile(t, dir, "empty.gltf", []byte(`{"asset":{"version":"2.0"}}`))
	_, err = l.Load(empty, level, nil, common.DefaultLoadOptions())
	assert.ErrorIs(t, err, ErrEmptyModel)

	doc, bin := chairDocument(t)
	doc.Nodes[2].Children = []int{0}
	_, err = l.Load(writeGLTF(t, dir, "cycle.gltf", doc, bin), level, nil, common.DefaultLoadOptions())
	assert.ErrorContains(t, err, "more than once")

	doc, bin = chairDocument(t)
	doc.Nodes[1].Mesh = intPtr(4)
	_, err = l.Load(writeGLTF(t, dir, "badmesh.gltf", doc, bin), level, nil, common.DefaultLoadOptions())
	assert.Error(t, err)

	_, err = l.Load(filepath.Join(dir, "missing.glb"), level, nil, common.DefaultLoadOptions())
	assert.Error(t, err)

	assert.Equal(t, 0, level.Count(), "failed loads attach nothing")
}

const crateDAE = `<?xml version="1.0" encoding="utf-8"?>
<COLLADA xmlns="http://www.collada.org/2005/11/COLLADASchema" version="1.4.1">
  <asset><up_axis>Y_UP</up_axis></asset>
  <library_geometries>
    <geometry id="crate-mesh" name="crate">
      <mesh>
        <source id="crate-mesh-positions">
          <float_array id="crate-mesh-positions-array" count="9">0 0 0 1 0 0 0 1 0</float_array>
          <technique_common><accessor source="#crate-mesh-positions-array" count="3" stride="3"/></technique_common>
        </source>
        <source id="crate-mesh-normals">
          <float_array id="crate-mesh-normals-array" count="3">0 0 1</float_array>
          <technique_common><accessor source="#crate-mesh-normals-array" count="1" stride="3"/></technique_common>
        </source>
        <source id="crate-mesh-map">
          <float_array id="crate-mesh-map-array" count="6">0 0 1 0 0 1</float_array>
          <technique_common><accessor source="#crate-mesh-map-array" count="3" stride="2"/></technique_common>
        </source>
        <vertices id="crate-mesh-vertices">
          <input semantic="POSITION" source="#crate-mesh-positions"/>
        </vertices>
        <triangles material="Wood-material" count="2">
          <input semantic="VERTEX" source="#crate-mesh-vertices" offset="0"/>
          <input semantic="NORMAL" source="#crate-mesh-normals" offset="1"/>
          <input semantic="TEXCOORD" source="#crate-mesh-map" offset="2" set="0"/>
          <p>0 0 0 1 0 1 2 0 2 2 0 2 1 0 1 0 0 0</p>
        </triangles>
      </mesh>
    </geometry>
  </library_geometries>
</COLLADA>`

func TestColladaLoader(t *testing.T) {
	path := writeFile(t, t.TempDir(), "crate.dae", []byte(crateDAE))
	level := scene.NewScene("level")

	l := NewColladaLoader()
	assert.True(t, l.SupportsFormat(".dae"))
	assert.False(t, l.SupportsFormat(".gltf"))

	root, err := l.Load(path, level, nil, common.DefaultLoadOptions())
	require.NoError(t, err)
	assert.Equal(t, "crate", root.Name())
	assert.Same(t, level.Root(), root.Parent())

	meshes := root.Meshes()
	require.Len(t, meshes, 1)
	m := meshes[0]
	assert.Len(t, m.Vertices(), 3, "repeated corners share a vertex")
	assert.Equal(t, []uint32{0, 1, 2, 2, 1, 0}, m.Indices())
	assert.Equal(t, [3]float32{0, 0, 1}, m.Vertices()[1].Normal)
	assert.Equal(t, [2]float32{0, 1}, m.Vertices()[0].TexCoord)
	assert.Equal(t, [2]float32{0, 0}, m.Vertices()[2].TexCoord)
	require.NotNil(t, m.Material())
	assert.Equal(t, "Wood-material", m.Material().Name())
}

func TestColladaLoaderErrors(t *testing.T) {
	dir := t.TempDir()
	l := NewColladaLoader()

	_, err := l.Load(writeFile(t, dir, "broken.dae", []byte("<COLLADA><library_geometries>")), nil, nil, common.DefaultLoadOptions())
	assert.Error(t, err)

	_, err = l.Load(writeFile(t, dir, "empty.dae", []byte("<COLLADA></COLLADA>")), nil, nil, common.DefaultLoadOptions())
	assert.ErrorIs(t, err, ErrEmptyModel)

	bad := []byte(`<COLLADA><library_geometries><geometry id="g"><mesh>
		<source id="p"><float_array>0 0 0</float_array></source>
		<vertices id="v"><input semantic="POSITION" source="#p"/></vertices>
		<triangles count="1"><input semantic="VERTEX" source="#v" offset="0"/><p>0 1 2</p></triangles>
	</mesh></geometry></library_geometries></COLLADA>`)
	_, err = l.Load(writeFile(t, dir, "short.dae", bad), nil, nil, common.DefaultLoadOptions())
	assert.ErrorContains(t, err, "out of range")
}
