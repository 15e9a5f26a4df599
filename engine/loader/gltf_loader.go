package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-assets/common"
	"github.com/Carmen-Shannon/oxy-assets/engine/model"
	"github.com/Carmen-Shannon/oxy-assets/engine/resource"
	"github.com/Carmen-Shannon/oxy-assets/engine/scene"
	"github.com/Carmen-Shannon/oxy-assets/engine/texture"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// gltfLoader is the ModelLoader for glTF 2.0 files (.gltf JSON and .glb binary).
type gltfLoader struct {
	importer gltfImporter
	textures texture.Manager
	logger   *zap.Logger
}

var _ ModelLoader = &gltfLoader{}

// NewGLTFLoader creates the glTF/GLB ModelLoader. Images referenced by materials are loaded through
// textures; embedded images are registered under "<model path>#image<N>".
//
// Parameters:
//   - textures: the texture manager used for material textures; nil loads models without textures
//   - logger: receives texture sampling warnings; nil discards them
//
// Returns:
//   - ModelLoader: the glTF loader
func NewGLTFLoader(textures texture.Manager, logger *zap.Logger) ModelLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &gltfLoader{
		importer: newGLTFImporter(),
		textures: textures,
		logger:   logger,
	}
}

func (l *gltfLoader) Name() string {
	return "gltf"
}

func (l *gltfLoader) SupportsFormat(ext string) bool {
	return ext == ".gltf" || ext == ".glb"
}

func (l *gltfLoader) Load(path string, target scene.Scene, parent *scene.Node, opts common.LoadOptions) (*scene.Node, error) {
	if !l.SupportsFormat(resource.Ext(path)) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	result, err := l.importer.Import(path, opts.CalculateTangents)
	if err != nil {
		return nil, err
	}
	if len(result.Model.Meshes) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyModel, path)
	}

	resolver := newMaterialResolver(l.textures, l.logger, opts)
	materials := make([]model.Material, len(result.Model.Materials))
	for i, imported := range result.Model.Materials {
		materials[i] = resolver.Material(imported)
	}

	// one Mesh per primitive, shared by every node that references the glTF mesh
	meshes := make([][]model.Mesh, len(result.MeshPrimitives))
	for meshIndex, prims := range result.MeshPrimitives {
		for _, p := range prims {
			imported := result.Model.Meshes[p]
			var mat model.Material
			if imported.MaterialIndex >= 0 {
				mat = materials[imported.MaterialIndex]
			}
			meshes[meshIndex] = append(meshes[meshIndex], model.NewMeshFromImported(imported, mat))
		}
	}

	s := opts.Scale()
	root := scene.NewNode(result.Model.Name,
		scene.WithSource(path),
		scene.WithScale(mgl32.Vec3{s, s, s}),
	)

	doc := result.Document
	rootIndices := gltfRootNodes(doc)
	if len(rootIndices) == 0 {
		for _, group := range meshes {
			for _, m := range group {
				root.AddMesh(m)
			}
		}
	}

	visited := make(map[int]bool, len(doc.Nodes))
	for _, idx := range rootIndices {
		child, err := gltfBuildNode(doc, idx, meshes, visited)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		root.AddChild(child)
	}

	attach(root, target, parent)
	return root, nil
}

// gltfRootNodes returns the node indices at the top of the hierarchy: the default scene's nodes, the first
// scene's nodes, or every node that is nobody's child.
func gltfRootNodes(doc *gltfDocument) []int {
	if len(doc.Scenes) > 0 {
		sceneIndex := 0
		if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
			sceneIndex = *doc.Scene
		}
		return doc.Scenes[sceneIndex].Nodes
	}

	isChild := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(isChild) {
				isChild[c] = true
			}
		}
	}

	var roots []int
	for i, child := range isChild {
		if !child {
			roots = append(roots, i)
		}
	}
	return roots
}

// gltfBuildNode converts glTF node idx and its descendants into scene nodes.
func gltfBuildNode(doc *gltfDocument, idx int, meshes [][]model.Mesh, visited map[int]bool) (*scene.Node, error) {
	if idx < 0 || idx >= len(doc.Nodes) {
		return nil, fmt.Errorf("node index %d out of range", idx)
	}
	if visited[idx] {
		return nil, fmt.Errorf("node %d appears more than once in the hierarchy", idx)
	}
	visited[idx] = true

	gn := &doc.Nodes[idx]
	name := gn.Name
	if name == "" {
		name = fmt.Sprintf("node_%d", idx)
	}

	var opts []scene.NodeBuilderOption
	if gn.Matrix != nil {
		// glTF matrices are column-major, like mgl32
		opts = append(opts, scene.WithLocalTransform(mgl32.Mat4(*gn.Matrix)))
	} else {
		if gn.Translation != nil {
			opts = append(opts, scene.WithTranslation(mgl32.Vec3(*gn.Translation)))
		}
		if gn.Rotation != nil {
			r := *gn.Rotation
			opts = append(opts, scene.WithRotation(mgl32.Quat{W: r[3], V: mgl32.Vec3{r[0], r[1], r[2]}}.Normalize()))
		}
		if gn.Scale != nil {
			opts = append(opts, scene.WithScale(mgl32.Vec3(*gn.Scale)))
		}
	}

	if gn.Mesh != nil {
		if *gn.Mesh < 0 || *gn.Mesh >= len(meshes) {
			return nil, fmt.Errorf("node %d references mesh %d of %d", idx, *gn.Mesh, len(meshes))
		}
		opts = append(opts, scene.WithMeshes(meshes[*gn.Mesh]...))
	}

	node := scene.NewNode(name, opts...)
	for _, c := range gn.Children {
		child, err := gltfBuildNode(doc, c, meshes, visited)
		if err != nil {
			return nil, err
		}
		node.AddChild(child)
	}
	return node, nil
}
