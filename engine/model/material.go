package model

import (
	"github.com/Carmen-Shannon/oxy-assets/engine/texture"
)

// material is the implementation of the Material interface.
type material struct {
	name                     string
	baseColor                [4]float32
	metallic                 float32
	roughness                float32
	diffuseTexture           *texture.Texture
	normalTexture            *texture.Texture
	metallicRoughnessTexture *texture.Texture
}

// Material defines the interface for a surface description shared by the meshes of a loaded model.
//
// A Material holds its textures strongly: as long as any mesh using the material is reachable, its
// textures stay alive, and the texture cache entries for them stay valid. Surface properties are set at
// load time and are read-only.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// BaseColor retrieves the albedo/diffuse RGBA color of the material.
	//
	// Returns:
	//   - [4]float32: the base color as RGBA values
	BaseColor() [4]float32

	// Metallic retrieves the metallic factor of the material.
	// A value of 0.0 represents a dielectric surface, 1.0 represents a fully metallic surface.
	//
	// Returns:
	//   - float32: the metallic factor
	Metallic() float32

	// Roughness retrieves the roughness factor of the material.
	// A value of 0.0 represents a perfectly smooth surface, 1.0 represents a fully rough surface.
	//
	// Returns:
	//   - float32: the roughness factor
	Roughness() float32

	// DiffuseTexture retrieves the diffuse/albedo texture, or nil if none is set.
	//
	// Returns:
	//   - *texture.Texture: the diffuse texture, or nil
	DiffuseTexture() *texture.Texture

	// NormalTexture retrieves the normal map texture, or nil if none is set.
	//
	// Returns:
	//   - *texture.Texture: the normal texture, or nil
	NormalTexture() *texture.Texture

	// MetallicRoughnessTexture retrieves the metallic-roughness texture, or nil if none is set.
	//
	// Returns:
	//   - *texture.Texture: the metallic-roughness texture, or nil
	MetallicRoughnessTexture() *texture.Texture

	// Textures returns every texture the material references, skipping unset slots.
	//
	// Returns:
	//   - []*texture.Texture: the textures
	Textures() []*texture.Texture
}

var _ Material = &material{}

// NewMaterial creates a new Material with the specified options applied.
// Unset properties default to opaque white, fully rough and non-metallic.
//
// Parameters:
//   - options: a variadic list of MaterialBuilderOption functions to configure the Material
//
// Returns:
//   - Material: a new instance of Material configured with the provided options
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		baseColor: [4]float32{1, 1, 1, 1},
		roughness: 1,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) BaseColor() [4]float32 {
	return m.baseColor
}

func (m *material) Metallic() float32 {
	return m.metallic
}

func (m *material) Roughness() float32 {
	return m.roughness
}

func (m *material) DiffuseTexture() *texture.Texture {
	return m.diffuseTexture
}

func (m *material) NormalTexture() *texture.Texture {
	return m.normalTexture
}

func (m *material) MetallicRoughnessTexture() *texture.Texture {
	return m.metallicRoughnessTexture
}

func (m *material) Textures() []*texture.Texture {
	var out []*texture.Texture
	for _, t := range []*texture.Texture{m.diffuseTexture, m.normalTexture, m.metallicRoughnessTexture} {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}
