package scene

import (
	"errors"
	"fmt"
)

// NodeID is a stable node handle. Ids are assigned from a monotonically
// increasing counter and never reused within one graph lifetime, so a
// destroyed id can never alias a live node and staleness checks stay
// reliable. Zero is never a valid id.
type NodeID int64

// ErrStaleNode signals that a handle refers to a node that has been
// destroyed (or never existed). Callers holding long-lived handles must
// treat this as recoverable.
var ErrStaleNode = errors.New("stale node handle")

// Graph is the arena of scene nodes.
type Graph struct {
	nodes map[NodeID]*Node
	next  NodeID
}

// NewGraph creates an empty scene graph.
func NewGraph() *Graph {
	return &Graph{nodes: make(map[NodeID]*Node), next: 1}
}

// AddNode inserts a node and returns its id.
func (g *Graph) AddNode(n *Node) NodeID {
	id := g.next
	g.next++
	g.nodes[id] = n
	return id
}

// Node returns the node for id, or nil when the id is destroyed or never
// existed.
func (g *Graph) Node(id NodeID) *Node {
	return g.nodes[id]
}

// EnsureAlive reports whether id still resolves to a live node. Every
// long-lived external handle must call this before dereferencing.
func (g *Graph) EnsureAlive(id NodeID) error {
	if g.nodes[id] == nil {
		return fmt.Errorf("node %d: %w", id, ErrStaleNode)
	}
	return nil
}

// Len returns the number of live nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Destroy detaches the node from its parent, recursively destroys its
// children (a node's lifetime does not outlive its parent) and marks the id
// permanently dead. Destroying a dead id is a no-op.
func (g *Graph) Destroy(id NodeID) {
	node := g.nodes[id]
	if node == nil {
		return
	}

	if node.Parent != 0 {
		g.RemoveChild(node.Parent, id)
	}

	children := make([]NodeID, len(node.Children))
	copy(children, node.Children)
	for _, child := range children {
		g.Destroy(child)
	}

	delete(g.nodes, id)
}

// AddChild establishes a parent-child relationship. Missing nodes,
// self-parenting and cycles are rejected. Reparenting detaches the child
// from its previous parent first.
func (g *Graph) AddChild(parent, child NodeID) error {
	if parent == child {
		return fmt.Errorf("node %d cannot parent itself", parent)
	}
	if err := g.EnsureAlive(parent); err != nil {
		return err
	}
	if err := g.EnsureAlive(child); err != nil {
		return err
	}

	// Reject cycles: child must not be an ancestor of parent.
	for current := parent; current != 0; {
		if current == child {
			return fmt.Errorf("adding node %d under %d would create a cycle", child, parent)
		}
		current = g.nodes[current].Parent
	}

	childNode := g.nodes[child]
	if childNode.Parent == parent {
		return nil
	}
	if childNode.Parent != 0 {
		g.RemoveChild(childNode.Parent, child)
	}

	parentNode := g.nodes[parent]
	parentNode.Children = append(parentNode.Children, child)
	childNode.Parent = parent
	return nil
}

// RemoveChild removes child from parent's child list and clears the child's
// parent pointer when it points at this parent.
func (g *Graph) RemoveChild(parent, child NodeID) {
	if p := g.nodes[parent]; p != nil {
		for i, c := range p.Children {
			if c == child {
				p.Children = append(p.Children[:i], p.Children[i+1:]...)
				break
			}
		}
	}
	if c := g.nodes[child]; c != nil && c.Parent == parent {
		c.Parent = 0
	}
}
