package loader

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-assets/common"
	"github.com/Carmen-Shannon/oxy-assets/engine/model"
	"github.com/Carmen-Shannon/oxy-assets/engine/scene"
	"github.com/Carmen-Shannon/oxy-assets/engine/texture"

	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

var (
	// ErrNoLoader is returned when no registered ModelLoader supports a file's extension.
	ErrNoLoader = errors.New("no model loader registered for format")

	// ErrUnsupportedFormat is returned by a ModelLoader asked to load a file it does not understand.
	ErrUnsupportedFormat = errors.New("unsupported model format")

	// ErrEmptyModel is returned when a model file decodes to no geometry.
	ErrEmptyModel = errors.New("model contains no meshes")
)

// ModelLoader is a format strategy registered with a ModelManager. The manager hands a load to the first
// registered loader whose SupportsFormat accepts the file's extension.
type ModelLoader interface {
	// Name returns a short identifier for logs.
	//
	// Returns:
	//   - string: the loader name
	Name() string

	// SupportsFormat reports whether the loader can read files with the given extension.
	//
	// Parameters:
	//   - ext: the lower-cased extension including the leading dot, compression suffix removed
	//
	// Returns:
	//   - bool: true if supported
	SupportsFormat(ext string) bool

	// Load reads path and builds a scene subtree for it. When target is not nil the subtree is attached
	// under parent, or under the scene root when parent is nil.
	//
	// Parameters:
	//   - path: the resolved file path
	//   - target: the scene to attach to, may be nil
	//   - parent: the attachment point, may be nil
	//   - opts: the load options
	//
	// Returns:
	//   - *scene.Node: the root of the loaded subtree
	//   - error: error if loading fails; nothing is attached in that case
	Load(path string, target scene.Scene, parent *scene.Node, opts common.LoadOptions) (*scene.Node, error)
}

// attach places node under parent, or under the scene root when parent is nil. Without a scene, a non-nil
// parent still receives the node.
func attach(node *scene.Node, target scene.Scene, parent *scene.Node) {
	switch {
	case target != nil:
		target.Attach(node, parent)
	case parent != nil:
		parent.AddChild(node)
	}
}

// materialResolver converts imported materials into engine materials, loading their textures through a
// texture manager. A resolver is used for a single model load.
type materialResolver struct {
	textures texture.Manager
	logger   *zap.Logger
	opts     common.LoadOptions
}

// newMaterialResolver creates a resolver. textures may be nil, in which case materials carry no textures.
func newMaterialResolver(textures texture.Manager, logger *zap.Logger, opts common.LoadOptions) *materialResolver {
	return &materialResolver{textures: textures, logger: logger, opts: opts}
}

// Material builds an engine material from imported data.
//
// Parameters:
//   - imported: the imported material
//
// Returns:
//   - model.Material: the material with its textures loaded
func (r *materialResolver) Material(imported common.ImportedMaterial) model.Material {
	return model.NewMaterial(
		model.WithMaterialName(imported.Name),
		model.WithBaseColor(imported.BaseColor),
		model.WithMetallic(imported.Metallic),
		model.WithRoughness(imported.Roughness),
		model.WithDiffuseTexture(r.Texture(imported.DiffuseTexture, wgpu.TextureFormatRGBA8UnormSrgb)),
		model.WithNormalTexture(r.Texture(imported.NormalTexture, wgpu.TextureFormatRGBA8Unorm)),
		model.WithMetallicRoughnessTexture(r.Texture(imported.MetallicRoughnessTexture, wgpu.TextureFormatRGBA8Unorm)),
	)
}

// Texture loads an imported texture: embedded bytes through LoadFromMemory, external files through
// GetOrLoad. Sampler parameters carried by the model file yield a sampled view; the cached texture
// keeps its own sampler.
//
// Parameters:
//   - imported: the imported texture, may be nil
//   - format: the GPU format for the texture's role
//
// Returns:
//   - *texture.Texture: the texture, the default texture on failure, or nil when there is nothing to load
func (r *materialResolver) Texture(imported *common.ImportedTexture, format wgpu.TextureFormat) *texture.Texture {
	if r.textures == nil || imported == nil {
		return nil
	}

	var tex *texture.Texture
	switch {
	case imported.Embedded():
		tex = r.textures.LoadFromMemory(imported.Name, imported.Data, r.opts.GenerateMipmaps, format)
	case imported.Path != "":
		tex = r.textures.GetOrLoad(imported.Path, r.opts.GenerateMipmaps, format)
	default:
		return nil
	}

	if tex == nil || tex.IsDefault() || imported.SamplerData == nil {
		return tex
	}

	sampler := *imported.SamplerData
	if r.opts.AnisotropicFiltering {
		sampler.MaxAnisotropy = 16
	}
	sampled, err := r.textures.Sampled(tex, sampler)
	if err != nil {
		r.logger.Warn("keeping existing sampler", zap.String("texture", tex.Name()), zap.Error(err))
	}
	return sampled
}
