package scene

import (
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-assets/engine/model"

	"github.com/go-gl/mathgl/mgl32"
)

// Node is one element of a scene hierarchy: a local transform, the meshes drawn at it and its children.
//
// A node is owned by whoever attaches it: its parent's child list, a Scene root, or the caller. Model
// caches only ever hold weak references to loaded subtree roots, so a subtree that is detached and
// dropped becomes collectible.
//
// Node methods are safe for concurrent use. Structural changes to the same node (attaching it under two
// parents at once) must be serialized by the caller.
type Node struct {
	mu sync.RWMutex

	name        string
	source      string
	translation mgl32.Vec3
	rotation    mgl32.Quat
	scale       mgl32.Vec3
	meshes      []model.Mesh

	parent   *Node
	children []*Node
}

// NewNode creates a detached node with an identity transform and the specified options applied.
//
// Parameters:
//   - name: the node name
//   - options: a variadic list of NodeBuilderOption functions to configure the Node
//
// Returns:
//   - *Node: the new node
func NewNode(name string, options ...NodeBuilderOption) *Node {
	n := &Node{
		name:     name,
		rotation: mgl32.QuatIdent(),
		scale:    mgl32.Vec3{1, 1, 1},
	}
	for _, option := range options {
		option(n)
	}
	return n
}

// Name returns the node name.
//
// Returns:
//   - string: the name
func (n *Node) Name() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.name
}

// SetName sets the node name.
//
// Parameters:
//   - name: the name
func (n *Node) SetName(name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.name = name
}

// Source returns the resolved asset path this node's subtree was loaded from, or "" for nodes created
// in code.
//
// Returns:
//   - string: the source key
func (n *Node) Source() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.source
}

// Translation returns the local translation.
//
// Returns:
//   - mgl32.Vec3: the translation
func (n *Node) Translation() mgl32.Vec3 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.translation
}

// SetTranslation sets the local translation.
//
// Parameters:
//   - t: the translation
func (n *Node) SetTranslation(t mgl32.Vec3) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.translation = t
}

// Rotation returns the local rotation.
//
// Returns:
//   - mgl32.Quat: the rotation
func (n *Node) Rotation() mgl32.Quat {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.rotation
}

// SetRotation sets the local rotation.
//
// Parameters:
//   - r: the rotation
func (n *Node) SetRotation(r mgl32.Quat) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rotation = r
}

// Scale returns the local scale.
//
// Returns:
//   - mgl32.Vec3: the scale
func (n *Node) Scale() mgl32.Vec3 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.scale
}

// SetScale sets the local scale.
//
// Parameters:
//   - s: the scale
func (n *Node) SetScale(s mgl32.Vec3) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.scale = s
}

// SetLocalTransform replaces translation, rotation and scale with the decomposition of m.
//
// Parameters:
//   - m: an affine matrix without shear
func (n *Node) SetLocalTransform(m mgl32.Mat4) {
	t, r, s := DecomposeTransform(m)
	n.mu.Lock()
	defer n.mu.Unlock()
	n.translation, n.rotation, n.scale = t, r, s
}

// LocalTransform returns the node's transform relative to its parent.
//
// Returns:
//   - mgl32.Mat4: the local matrix
func (n *Node) LocalTransform() mgl32.Mat4 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return ComposeTransform(n.translation, n.rotation, n.scale)
}

// WorldTransform returns the node's transform relative to the root of its hierarchy.
//
// Returns:
//   - mgl32.Mat4: the world matrix
func (n *Node) WorldTransform() mgl32.Mat4 {
	world := n.LocalTransform()
	for p := n.Parent(); p != nil; p = p.Parent() {
		world = p.LocalTransform().Mul4(world)
	}
	return world
}

// Meshes returns the meshes drawn at this node. The returned slice is a copy; the meshes are shared.
//
// Returns:
//   - []model.Mesh: the meshes
func (n *Node) Meshes() []model.Mesh {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return slices.Clone(n.meshes)
}

// AddMesh appends a mesh drawn at this node.
//
// Parameters:
//   - m: the mesh (must not be nil)
func (n *Node) AddMesh(m model.Mesh) {
	if m == nil {
		panic("scene: AddMesh requires a mesh")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.meshes = append(n.meshes, m)
}

// Parent returns the node this node is attached to, or nil.
//
// Returns:
//   - *Node: the parent
func (n *Node) Parent() *Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.parent
}

// Children returns a copy of the node's child list.
//
// Returns:
//   - []*Node: the children
func (n *Node) Children() []*Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return slices.Clone(n.children)
}

// AddChild attaches child under n, detaching it from its current parent first.
//
// Parameters:
//   - child: the node to attach (must not be nil, n, or an ancestor of n)
func (n *Node) AddChild(child *Node) {
	if child == nil {
		panic("scene: AddChild requires a child")
	}
	for a := n; a != nil; a = a.Parent() {
		if a == child {
			panic("scene: AddChild would create a cycle")
		}
	}

	child.Detach()

	n.mu.Lock()
	n.children = append(n.children, child)
	n.mu.Unlock()

	child.mu.Lock()
	child.parent = n
	child.mu.Unlock()
}

// RemoveChild detaches child from n.
//
// Parameters:
//   - child: the node to remove
//
// Returns:
//   - bool: true if child was a child of n
func (n *Node) RemoveChild(child *Node) bool {
	if child == nil {
		return false
	}

	n.mu.Lock()
	idx := slices.Index(n.children, child)
	if idx < 0 {
		n.mu.Unlock()
		return false
	}
	n.children = slices.Delete(n.children, idx, idx+1)
	n.mu.Unlock()

	child.mu.Lock()
	if child.parent == n {
		child.parent = nil
	}
	child.mu.Unlock()
	return true
}

// Detach removes n from its parent, if any.
func (n *Node) Detach() {
	if p := n.Parent(); p != nil {
		p.RemoveChild(n)
	}
}

// Clone deep-copies the subtree rooted at n. Names, transforms and sources are copied; meshes are shared
// by reference. The clone is detached.
//
// Returns:
//   - *Node: the cloned subtree root
func (n *Node) Clone() *Node {
	n.mu.RLock()
	clone := &Node{
		name:        n.name,
		source:      n.source,
		translation: n.translation,
		rotation:    n.rotation,
		scale:       n.scale,
		meshes:      slices.Clone(n.meshes),
	}
	children := slices.Clone(n.children)
	n.mu.RUnlock()

	for _, child := range children {
		c := child.Clone()
		c.parent = clone
		clone.children = append(clone.children, c)
	}
	return clone
}

// Walk visits n and its descendants depth-first, parents before children. Returning false from fn
// skips the visited node's children.
//
// Parameters:
//   - fn: the visitor
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, child := range n.Children() {
		child.Walk(fn)
	}
}

// Find returns the first node in the subtree with the given name, or nil.
//
// Parameters:
//   - name: the node name
//
// Returns:
//   - *Node: the node, or nil
func (n *Node) Find(name string) *Node {
	var found *Node
	n.Walk(func(node *Node) bool {
		if found != nil {
			return false
		}
		if node.Name() == name {
			found = node
			return false
		}
		return true
	})
	return found
}

// Count returns the number of nodes in the subtree, including n.
//
// Returns:
//   - int: the node count
func (n *Node) Count() int {
	count := 0
	n.Walk(func(*Node) bool {
		count++
		return true
	})
	return count
}
