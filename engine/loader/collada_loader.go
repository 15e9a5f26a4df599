package loader

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-assets/common"
	"github.com/Carmen-Shannon/oxy-assets/engine/model"
	"github.com/Carmen-Shannon/oxy-assets/engine/resource"
	"github.com/Carmen-Shannon/oxy-assets/engine/scene"

	"github.com/go-gl/mathgl/mgl32"
)

// colladaLoader is the ModelLoader for Collada (.dae) files. It reads the triangle lists of the first
// geometry; materials get a name but no textures.
type colladaLoader struct{}

var _ ModelLoader = &colladaLoader{}

// NewColladaLoader creates the Collada ModelLoader.
//
// Returns:
//   - ModelLoader: the Collada loader
func NewColladaLoader() ModelLoader {
	return &colladaLoader{}
}

func (l *colladaLoader) Name() string {
	return "collada"
}

func (l *colladaLoader) SupportsFormat(ext string) bool {
	return ext == ".dae"
}

func (l *colladaLoader) Load(path string, target scene.Scene, parent *scene.Node, opts common.LoadOptions) (*scene.Node, error) {
	if !l.SupportsFormat(resource.Ext(path)) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	data, err := resource.ReadAsset(path)
	if err != nil {
		return nil, err
	}

	imported, err := importCollada(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	s := opts.Scale()
	root := scene.NewNode(imported.Name,
		scene.WithSource(path),
		scene.WithScale(mgl32.Vec3{s, s, s}),
	)

	materials := make(map[string]model.Material)
	for _, mesh := range imported.Meshes {
		mesh.Finalize(opts.CalculateTangents)

		var mat model.Material
		if mesh.MaterialIndex >= 0 {
			name := imported.Materials[mesh.MaterialIndex].Name
			if mat = materials[name]; mat == nil {
				mat = model.NewMaterial(model.WithMaterialName(name))
				materials[name] = mat
			}
		}
		root.AddMesh(model.NewMeshFromImported(mesh, mat))
	}

	attach(root, target, parent)
	return root, nil
}

// importCollada decodes the first geometry of a Collada document. Every triangle corner with a distinct
// combination of indices becomes one vertex.
func importCollada(data []byte) (*model.ImportedModel, error) {
	var doc colladaDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse Collada XML: %w", err)
	}
	if len(doc.Geometries) == 0 {
		return nil, ErrEmptyModel
	}

	geom := &doc.Geometries[0]
	name := geom.Name
	if name == "" {
		name = geom.ID
	}

	result := &model.ImportedModel{Name: name}
	materialIndex := make(map[string]int)

	for ti := range geom.Mesh.Triangles {
		tris := &geom.Mesh.Triangles[ti]
		mesh, err := colladaTriangleMesh(&geom.Mesh, tris)
		if err != nil {
			return nil, fmt.Errorf("triangles %d: %w", ti, err)
		}
		mesh.Name = fmt.Sprintf("%s_%d", name, ti)

		mesh.MaterialIndex = -1
		if tris.Material != "" {
			idx, ok := materialIndex[tris.Material]
			if !ok {
				idx = len(result.Materials)
				materialIndex[tris.Material] = idx
				result.Materials = append(result.Materials, common.ImportedMaterial{
					Name:      tris.Material,
					BaseColor: [4]float32{1, 1, 1, 1},
					Roughness: 1.0,
				})
			}
			mesh.MaterialIndex = idx
		}
		result.Meshes = append(result.Meshes, *mesh)
	}

	if len(result.Meshes) == 0 {
		return nil, ErrEmptyModel
	}
	return result, nil
}

// colladaStream is one input of a triangle list resolved to its source.
type colladaStream struct {
	offset int
	source *colladaSource
	stride int
}

// element returns the first n floats of element i of the stream.
func (s *colladaStream) element(i, n int) ([]float32, error) {
	start := i * s.stride
	if i < 0 || start+n > len(s.source.Floats.Data) {
		return nil, fmt.Errorf("index %d out of range for source %q", i, s.source.ID)
	}
	return s.source.Floats.Data[start : start+n], nil
}

// colladaTriangleMesh converts a single triangle list into an ImportedMesh.
func colladaTriangleMesh(mesh *colladaMesh, tris *colladaTriangles) (*model.ImportedMesh, error) {
	var position, normal, texcoord *colladaStream
	tupleSize := 0

	for _, in := range tris.Inputs {
		tupleSize = max(tupleSize, in.Offset+1)
		switch in.Semantic {
		case "VERTEX":
			// VERTEX points at <vertices>, which carries POSITION (and sometimes NORMAL)
			for _, vin := range mesh.Vertices.Inputs {
				src, err := colladaFindSource(mesh, vin.Source)
				if err != nil {
					return nil, err
				}
				stream := &colladaStream{offset: in.Offset, source: src, stride: colladaStride(src, 3)}
				switch vin.Semantic {
				case "POSITION":
					position = stream
				case "NORMAL":
					normal = stream
				}
			}
		case "NORMAL":
			src, err := colladaFindSource(mesh, in.Source)
			if err != nil {
				return nil, err
			}
			normal = &colladaStream{offset: in.Offset, source: src, stride: colladaStride(src, 3)}
		case "TEXCOORD":
			if texcoord != nil && in.Set != 0 {
				continue
			}
			src, err := colladaFindSource(mesh, in.Source)
			if err != nil {
				return nil, err
			}
			texcoord = &colladaStream{offset: in.Offset, source: src, stride: colladaStride(src, 2)}
		}
	}

	if position == nil {
		return nil, fmt.Errorf("triangles have no POSITION input")
	}
	if tupleSize == 0 || len(tris.Indices)%(tupleSize*3) != 0 {
		return nil, fmt.Errorf("index list of %d entries is not a whole number of triangles", len(tris.Indices))
	}

	out := &model.ImportedMesh{HasNormals: normal != nil}
	seen := make(map[[3]int]uint32)

	for c := 0; c < len(tris.Indices)/tupleSize; c++ {
		tuple := tris.Indices[c*tupleSize : (c+1)*tupleSize]

		key := [3]int{tuple[position.offset], -1, -1}
		if normal != nil {
			key[1] = tuple[normal.offset]
		}
		if texcoord != nil {
			key[2] = tuple[texcoord.offset]
		}
		if idx, ok := seen[key]; ok {
			out.Indices = append(out.Indices, idx)
			continue
		}

		v := model.GPUVertex{Color: [4]float32{1, 1, 1, 1}}
		p, err := position.element(key[0], 3)
		if err != nil {
			return nil, err
		}
		copy(v.Position[:], p)

		if normal != nil {
			n, err := normal.element(key[1], 3)
			if err != nil {
				return nil, err
			}
			copy(v.Normal[:], n)
		}
		if texcoord != nil {
			uv, err := texcoord.element(key[2], 2)
			if err != nil {
				return nil, err
			}
			// Collada's V axis points up
			v.TexCoord = [2]float32{uv[0], 1 - uv[1]}
		}

		idx := uint32(len(out.Vertices))
		seen[key] = idx
		out.Vertices = append(out.Vertices, v)
		out.Indices = append(out.Indices, idx)
	}

	return out, nil
}

// colladaFindSource finds a source by URI fragment ("#id").
func colladaFindSource(mesh *colladaMesh, uri string) (*colladaSource, error) {
	id := strings.TrimPrefix(uri, "#")
	for i := range mesh.Sources {
		if mesh.Sources[i].ID == id {
			return &mesh.Sources[i], nil
		}
	}
	return nil, fmt.Errorf("source %q not found", uri)
}

// colladaStride returns the accessor stride of src, or fallback when it has none.
func colladaStride(src *colladaSource, fallback int) int {
	return common.Coalesce(src.Accessor.Stride, fallback)
}
