// Package navigation models the navigation tree shown for a server: nodes
// for databases and their objects, and the catalog queries that populate
// them.
package navigation

import (
	"encoding/base64"
	"strings"
)

// NodeType distinguishes renderable database objects from purely structural
// containers ("Tables", "Views").
type NodeType int

const (
	// Object is a node with a database-object identity.
	Object NodeType = iota

	// Container is a grouping node with no database-object identity.
	Container
)

// Node is one entry in the navigation tree. Nodes are built per request
// while rendering the tree and never persisted.
type Node struct {
	// Name is the display name, possibly group-folded.
	Name string

	// RealName is the unescaped identifying name of the underlying object.
	RealName string

	// Type marks the node as a container or a concrete object.
	Type NodeType

	// IsGroup marks nodes synthesized by prefix grouping.
	IsGroup bool

	// Icon and Link carry rendering metadata for the UI.
	Icon string
	Link string

	// Pos2 and Pos3 are pagination offsets for the second and third tree
	// levels below this node.
	Pos2 int
	Pos3 int

	parent   *Node
	children []*Node
}

// New creates a node whose display and real names coincide.
func New(name string, typ NodeType) *Node {
	return &Node{Name: name, RealName: name, Type: typ}
}

// NewGroup creates a group node for the given prefix.
func NewGroup(name string) *Node {
	return &Node{Name: name, RealName: name, Type: Container, IsGroup: true}
}

// AddChild attaches child to n. Both sides of the relation are set here so
// the parent pointer and the child collection cannot diverge.
func (n *Node) AddChild(child *Node) {
	child.parent = n
	n.children = append(n.children, child)
}

// Parent returns the owning node, nil at the root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the owned nodes in insertion order.
func (n *Node) Children() []*Node {
	return n.children
}

// Child returns the child with the given display name, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// NumChildren counts renderable descendants: containers are transparent,
// their object children count toward the parent.
func (n *Node) NumChildren() int {
	sum := 0
	for _, c := range n.children {
		if c.Type == Object {
			sum++
			continue
		}
		sum += c.NumChildren()
	}
	return sum
}

// HasChildren reports whether any descendant would render. Containers only
// count when countEmpty is set.
func (n *Node) HasChildren(countEmpty bool) bool {
	for _, c := range n.children {
		if c.Type == Object || countEmpty {
			return true
		}
		if c.HasChildren(countEmpty) {
			return true
		}
	}
	return false
}

// HasSiblings reports whether the node is rendered next to other expandable
// entries, which decides indentation in the tree.
func (n *Node) HasSiblings() bool {
	if n.parent == nil {
		return false
	}
	for _, c := range n.parent.children {
		if c == n {
			continue
		}
		if c.Type == Object || c.HasChildren(false) {
			return true
		}
	}
	return false
}

// Parents walks the ancestor chain nearest-first. self includes the node
// itself, containers includes Container nodes, groups includes group nodes;
// excluded nodes are skipped but the walk continues through them.
func (n *Node) Parents(self, containers, groups bool) []*Node {
	var parents []*Node
	if self && (n.Type != Container || containers) && (!n.IsGroup || groups) {
		parents = append(parents, n)
	}
	p := n.parent
	for p != nil {
		if (p.Type != Container || containers) && (!p.IsGroup || groups) {
			parents = append(parents, p)
		}
		p = p.parent
	}
	return parents
}

// RealParent returns the nearest ancestor carrying a database-object
// identity, or nil when there is none.
func (n *Node) RealParent() *Node {
	parents := n.Parents(false, false, false)
	if len(parents) == 0 {
		return nil
	}
	return parents[0]
}

// Paths holds the two encodings of a node's position. The real path
// identifies the node by the objects it belongs to; the virtual path uses
// display names, which fold grouped prefixes. Both come dot-joined with
// base64-encoded components and as plain ordered lists, root first.
type Paths struct {
	Real         string
	RealParts    []string
	Virtual      string
	VirtualParts []string
}

// GetPaths computes both path encodings by walking parent links to the
// root. Containers are always included; group nodes are excluded from both
// encodings.
func (n *Node) GetPaths() Paths {
	chain := n.Parents(true, true, false)

	var p Paths
	for i := len(chain) - 1; i >= 0; i-- {
		p.RealParts = append(p.RealParts, chain[i].RealName)
		p.VirtualParts = append(p.VirtualParts, chain[i].Name)
	}
	p.Real = encodePath(p.RealParts)
	p.Virtual = encodePath(p.VirtualParts)
	return p
}

func encodePath(parts []string) string {
	enc := make([]string, len(parts))
	for i, part := range parts {
		enc[i] = base64.StdEncoding.EncodeToString([]byte(part))
	}
	return strings.Join(enc, ".")
}

// DecodePath reverses the dot-joined base64 encoding. Unparseable
// components abort the whole path.
func DecodePath(path string) ([]string, bool) {
	if path == "" {
		return nil, true
	}
	raw := strings.Split(path, ".")
	parts := make([]string, len(raw))
	for i, r := range raw {
		b, err := base64.StdEncoding.DecodeString(r)
		if err != nil {
			return nil, false
		}
		parts[i] = string(b)
	}
	return parts, true
}
