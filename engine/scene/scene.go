// Package scene holds the node hierarchy that loaded models are attached to.
package scene

import (
	"sync"
)

// scene is the implementation of the Scene interface.
type scene struct {
	mu *sync.RWMutex

	name   string
	active bool
	root   *Node
}

// Scene defines the interface for a named node hierarchy. The scene's root node owns every subtree
// attached to it; detaching a subtree hands ownership back to the caller.
type Scene interface {
	// Name returns the scene name.
	//
	// Returns:
	//   - string: the name
	Name() string

	// SetName sets the scene name.
	//
	// Parameters:
	//   - name: the name
	SetName(name string)

	// Active reports whether the scene is active.
	//
	// Returns:
	//   - bool: true if active
	Active() bool

	// SetActive sets whether the scene is active.
	//
	// Parameters:
	//   - active: whether the scene is active
	SetActive(active bool)

	// Root returns the scene's root node.
	//
	// Returns:
	//   - *Node: the root
	Root() *Node

	// Attach attaches node under parent, or under the root when parent is nil.
	//
	// Parameters:
	//   - node: the node to attach (must not be nil)
	//   - parent: the attachment point, or nil
	Attach(node, parent *Node)

	// Detach removes node from its parent.
	//
	// Parameters:
	//   - node: the node to detach
	//
	// Returns:
	//   - bool: true if the node was attached
	Detach(node *Node) bool

	// Find returns the first node with the given name, or nil.
	//
	// Parameters:
	//   - name: the node name
	//
	// Returns:
	//   - *Node: the node, or nil
	Find(name string) *Node

	// Count returns the number of nodes below the root.
	//
	// Returns:
	//   - int: the node count, excluding the root
	Count() int

	// Clear detaches every node from the root.
	Clear()
}

var _ Scene = &scene{}

// NewScene creates a new Scene with an empty root and the specified options applied.
//
// Parameters:
//   - name: the name of the scene
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:   &sync.RWMutex{},
		name: name,
		root: NewNode(name),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Root() *Node {
	return s.root
}

func (s *scene) Attach(node, parent *Node) {
	if node == nil {
		panic("scene: Attach requires a node")
	}
	if parent == nil {
		parent = s.root
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	parent.AddChild(node)
}

func (s *scene) Detach(node *Node) bool {
	if node == nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p := node.Parent()
	if p == nil {
		return false
	}
	return p.RemoveChild(node)
}

func (s *scene) Find(name string) *Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, child := range s.root.Children() {
		if found := child.Find(name); found != nil {
			return found
		}
	}
	return nil
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root.Count() - 1
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, child := range s.root.Children() {
		s.root.RemoveChild(child)
	}
}
