package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/Carmen-Shannon/oxy-assets/common"
	"github.com/Carmen-Shannon/oxy-assets/engine/model"
	"github.com/Carmen-Shannon/oxy-assets/engine/scene"
	"github.com/Carmen-Shannon/oxy-assets/engine/texture"

	"github.com/stretchr/testify/require"
)

type nullGPUObject struct{}

func (nullGPUObject) Release() {}

// countingBackend is a texture backend that allocates nothing.
type countingBackend struct {
	textures atomic.Int32
	samplers atomic.Int32

	// rejectCustomSamplers fails every sampler that differs from the default configuration.
	rejectCustomSamplers atomic.Bool
}

func (b *countingBackend) CreateTexture(common.TextureStagingData) (texture.GPUTexture, error) {
	b.textures.Add(1)
	return nullGPUObject{}, nil
}

func (b *countingBackend) CreateSampler(_ string, data common.SamplerStagingData) (texture.GPUSampler, error) {
	if b.rejectCustomSamplers.Load() && data != common.DefaultSamplerStagingData() {
		return nil, errors.New("sampler limit reached")
	}
	b.samplers.Add(1)
	return nullGPUObject{}, nil
}

func newTestTextures() (texture.Manager, *countingBackend) {
	backend := &countingBackend{}
	return texture.NewManager(backend), backend
}

// fakeLoader builds a single-node subtree without reading the file.
type fakeLoader struct {
	name string
	ext  string
	mesh model.Mesh

	calls   atomic.Int32
	entered chan struct{}
	gate    chan struct{}
	fail    bool
	panics  bool
}

func newFakeLoader(name, ext string) *fakeLoader {
	return &fakeLoader{
		name: name,
		ext:  ext,
		mesh: model.NewMesh(
			model.WithMeshName(name),
			model.WithVertices([]model.GPUVertex{{}, {Position: [3]float32{1, 0, 0}}, {Position: [3]float32{0, 1, 0}}}),
			model.WithIndices([]uint32{0, 1, 2}),
		),
	}
}

// newGatedLoader returns a loader that signals entered and blocks until gate is closed.
func newGatedLoader(name, ext string) *fakeLoader {
	l := newFakeLoader(name, ext)
	l.entered = make(chan struct{}, 64)
	l.gate = make(chan struct{})
	return l
}

func (f *fakeLoader) Name() string {
	return f.name
}

func (f *fakeLoader) SupportsFormat(ext string) bool {
	return ext == f.ext
}

func (f *fakeLoader) Load(path string, target scene.Scene, parent *scene.Node, opts common.LoadOptions) (*scene.Node, error) {
	f.calls.Add(1)
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	if f.panics {
		panic("corrupt model")
	}
	if f.fail {
		return nil, errors.New("corrupt model")
	}

	s := opts.Scale()
	node := scene.NewNode(filepath.Base(path), scene.WithSource(path), scene.WithMeshes(f.mesh))
	node.SetScale(node.Scale().Mul(s))
	attach(node, target, parent)
	return node, nil
}

func intPtr(v int) *int {
	return &v
}

// encodePNG returns a small opaque PNG.
func encodePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.Set(x, y, color.NRGBA{R: 200, G: uint8(x * 100), B: uint8(y * 100), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// chairDocument returns a document with one triangle mesh referenced by two nodes under a "frame" node,
// plus the bytes of its only buffer.
func chairDocument(t *testing.T) (*gltfDocument, []byte) {
	t.Helper()

	var bin bytes.Buffer
	positions := [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	require.NoError(t, binary.Write(&bin, binary.LittleEndian, positions))
	require.NoError(t, binary.Write(&bin, binary.LittleEndian, []uint16{0, 1, 2, 0}))

	doc := &gltfDocument{
		Asset:  gltfAsset{Version: "2.0"},
		Scene:  intPtr(0),
		Scenes: []gltfScene{{Nodes: []int{0}}},
		Nodes: []gltfNode{
			{Name: "frame", Children: []int{1, 2}, Translation: &[3]float32{0, 0, 5}},
			{Name: "seat", Mesh: intPtr(0)},
			{Name: "back", Mesh: intPtr(0), Translation: &[3]float32{0, 1, 0}, Rotation: &[4]float32{0, 0, 0, 1}},
		},
		Meshes: []gltfMesh{{
			Name:       "tri",
			Primitives: []gltfPrimitive{{Attributes: map[string]int{"POSITION": 0}, Indices: intPtr(1)}},
		}},
		Accessors: []gltfAccessor{
			{BufferView: intPtr(0), ComponentType: gltfComponentTypeFloat, Count: 3, Type: gltfAccessorTypeVec3},
			{BufferView: intPtr(1), ComponentType: gltfComponentTypeUnsignedShort, Count: 3, Type: gltfAccessorTypeScalar},
		},
		BufferViews: []gltfBufferView{
			{Buffer: 0, ByteOffset: 0, ByteLength: 36},
			{Buffer: 0, ByteOffset: 36, ByteLength: 6},
		},
	}
	return doc, bin.Bytes()
}

// withMaterial gives every primitive a material whose base color texture is image 0 sampled with
// nearest magnification.
func withMaterial(doc *gltfDocument, img gltfImage) {
	doc.Materials = []gltfMaterial{{
		Name: "wood",
		PbrMetallicRoughness: &gltfPbrMetallicRoughness{
			BaseColorFactor:  &[4]float32{1, 0.5, 0.5, 1},
			BaseColorTexture: &gltfTextureInfo{Index: 0},
		},
	}}
	doc.Textures = []gltfTexture{{Source: intPtr(0), Sampler: intPtr(0)}}
	doc.Samplers = []gltfSampler{{MagFilter: intPtr(gltfFilterNearest)}}
	doc.Images = []gltfImage{img}
	for i := range doc.Meshes {
		for j := range doc.Meshes[i].Primitives {
			doc.Meshes[i].Primitives[j].Material = intPtr(0)
		}
	}
}

// withEmbeddedImage appends data to the buffer and references it as image 0.
func withEmbeddedImage(doc *gltfDocument, bin []byte, data []byte) []byte {
	for len(bin)%4 != 0 {
		bin = append(bin, 0)
	}
	doc.BufferViews = append(doc.BufferViews, gltfBufferView{Buffer: 0, ByteOffset: len(bin), ByteLength: len(data)})
	withMaterial(doc, gltfImage{BufferView: intPtr(len(doc.BufferViews) - 1), MimeType: "image/png"})
	return append(bin, data...)
}

// writeGLTF writes doc as a .gltf file with bin embedded as a data URI.
func writeGLTF(t *testing.T, dir, name string, doc *gltfDocument, bin []byte) string {
	t.Helper()
	doc.Buffers = []gltfBuffer{{
		ByteLength: len(bin),
		URI:        "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(bin),
	}}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	return writeFile(t, dir, name, data)
}

// encodeGLB packs doc and bin into a GLB container.
func encodeGLB(t *testing.T, doc *gltfDocument, bin []byte) []byte {
	t.Helper()
	for len(bin)%4 != 0 {
		bin = append(bin, 0)
	}
	doc.Buffers = []gltfBuffer{{ByteLength: len(bin)}}

	jsonData, err := json.Marshal(doc)
	require.NoError(t, err)
	for len(jsonData)%4 != 0 {
		jsonData = append(jsonData, ' ')
	}

	var out bytes.Buffer
	total := 12 + 8 + len(jsonData) + 8 + len(bin)
	require.NoError(t, binary.Write(&out, binary.LittleEndian, gltfGLBHeader{Magic: gltfGLBMagic, Version: gltfGLBVersion, Length: uint32(total)}))
	require.NoError(t, binary.Write(&out, binary.LittleEndian, gltfGLBChunkHeader{ChunkLength: uint32(len(jsonData)), ChunkType: gltfGLBChunkJSON}))
	out.Write(jsonData)
	require.NoError(t, binary.Write(&out, binary.LittleEndian, gltfGLBChunkHeader{ChunkLength: uint32(len(bin)), ChunkType: gltfGLBChunkBIN}))
	out.Write(bin)
	return out.Bytes()
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}
