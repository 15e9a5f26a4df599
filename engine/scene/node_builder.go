package scene

import (
	"github.com/Carmen-Shannon/oxy-assets/engine/model"

	"github.com/go-gl/mathgl/mgl32"
)

// NodeBuilderOption is a functional option for configuring a Node via NewNode.
type NodeBuilderOption func(*Node)

// WithTranslation sets the local translation of the node.
//
// Parameters:
//   - t: the translation
//
// Returns:
//   - NodeBuilderOption: option function to apply
func WithTranslation(t mgl32.Vec3) NodeBuilderOption {
	return func(n *Node) {
		n.translation = t
	}
}

// WithRotation sets the local rotation of the node.
//
// Parameters:
//   - r: the rotation
//
// Returns:
//   - NodeBuilderOption: option function to apply
func WithRotation(r mgl32.Quat) NodeBuilderOption {
	return func(n *Node) {
		n.rotation = r
	}
}

// WithScale sets the local scale of the node.
//
// Parameters:
//   - s: the scale
//
// Returns:
//   - NodeBuilderOption: option function to apply
func WithScale(s mgl32.Vec3) NodeBuilderOption {
	return func(n *Node) {
		n.scale = s
	}
}

// WithLocalTransform sets translation, rotation and scale from a matrix.
//
// Parameters:
//   - m: an affine matrix without shear
//
// Returns:
//   - NodeBuilderOption: option function to apply
func WithLocalTransform(m mgl32.Mat4) NodeBuilderOption {
	return func(n *Node) {
		n.translation, n.rotation, n.scale = DecomposeTransform(m)
	}
}

// WithMeshes sets the meshes drawn at the node.
//
// Parameters:
//   - meshes: the meshes
//
// Returns:
//   - NodeBuilderOption: option function to apply
func WithMeshes(meshes ...model.Mesh) NodeBuilderOption {
	return func(n *Node) {
		n.meshes = append(n.meshes, meshes...)
	}
}

// WithSource records the asset path the node was loaded from.
//
// Parameters:
//   - source: the resolved asset path
//
// Returns:
//   - NodeBuilderOption: option function to apply
func WithSource(source string) NodeBuilderOption {
	return func(n *Node) {
		n.source = source
	}
}

// WithChildren attaches children to the node.
//
// Parameters:
//   - children: the child nodes
//
// Returns:
//   - NodeBuilderOption: option function to apply
func WithChildren(children ...*Node) NodeBuilderOption {
	return func(n *Node) {
		for _, c := range children {
			n.AddChild(c)
		}
	}
}
