package glbuild

import (
	"errors"
	"fmt"
	"slices"
)

// Handle addresses a node inside a [Graph].
type Handle uint32

// NoNode marks an absent optional child.
const NoNode Handle = ^Handle(0)

// Valid reports whether h refers to a node, i.e. is not [NoNode].
func (h Handle) Valid() bool { return h != NoNode }

// Node is one shading operation of a material graph. Nodes are immutable once
// added to a [Graph] and hold no generation state: all of it lives in the
// [Context] reached through [Scope].
type Node interface {
	// Type is the declared type of the expression the node generates.
	Type() VarType
	// ForEachChild calls fn on every child handle, absent ones included.
	ForEachChild(fn func(child Handle) error) error
	// AppendExpr appends the node's expression to dst and returns the result
	// and true. It returns false when the effect does not apply to the
	// material being compiled; callers discard whatever was appended.
	AppendExpr(dst []byte, s *Scope) ([]byte, bool)
}

// Graph is an append-only arena of nodes. A node may only reference nodes
// added before it so the graph is acyclic by construction, while one child
// handle may be shared by several parents.
type Graph struct {
	nodes []Node
}

// Add appends n to the arena and returns its handle.
func (g *Graph) Add(n Node) (Handle, error) {
	if n == nil {
		return NoNode, errors.New("nil node")
	}
	next := Handle(len(g.nodes))
	if next == NoNode {
		return NoNode, errors.New("graph full")
	}
	err := n.ForEachChild(func(child Handle) error {
		if child != NoNode && child >= next {
			return fmt.Errorf("%w: %T references %d, arena has %d nodes", ErrBadHandle, n, child, next)
		}
		return nil
	})
	if err != nil {
		return NoNode, err
	}
	g.nodes = append(g.nodes, n)
	return next, nil
}

// Node returns the node addressed by h or nil if h is not in the arena.
func (g *Graph) Node(h Handle) Node {
	if int(h) >= len(g.nodes) {
		return nil
	}
	return g.nodes[h]
}

// Len returns the number of nodes in the arena.
func (g *Graph) Len() int { return len(g.nodes) }

// ShaderDef maps output channel names of one stage to the root nodes that
// produce them. It is immutable and shared by reference.
type ShaderDef struct {
	graph    *Graph
	channels []string
	roots    map[string]Handle
}

// NewShaderDef returns a definition of the channels in def over graph g.
// The map is copied.
func NewShaderDef(g *Graph, def map[string]Handle) (*ShaderDef, error) {
	if g == nil {
		return nil, errors.New("nil graph")
	}
	sd := &ShaderDef{graph: g, roots: make(map[string]Handle, len(def))}
	for name, h := range def {
		if !ValidIdent(name) {
			return nil, fmt.Errorf("invalid channel name %q", name)
		} else if g.Node(h) == nil {
			return nil, fmt.Errorf("%w: channel %q", ErrBadHandle, name)
		}
		sd.roots[name] = h
		sd.channels = append(sd.channels, name)
	}
	slices.Sort(sd.channels)
	return sd, nil
}

// Graph returns the arena the definition's roots live in.
func (sd *ShaderDef) Graph() *Graph { return sd.graph }

// Channels returns the channel names in sorted order.
func (sd *ShaderDef) Channels() []string { return slices.Clone(sd.channels) }

// Root returns the root handle of channel.
func (sd *ShaderDef) Root(channel string) (Handle, bool) {
	h, ok := sd.roots[channel]
	return h, ok
}

// ForEachNode calls fn once for every node reachable from the definition's
// roots in depth first order, children before parents.
func (sd *ShaderDef) ForEachNode(fn func(h Handle, n Node) error) error {
	seen := make([]bool, sd.graph.Len())
	var visit func(h Handle) error
	visit = func(h Handle) error {
		if h == NoNode || seen[h] {
			return nil
		}
		seen[h] = true
		n := sd.graph.Node(h)
		err := n.ForEachChild(visit)
		if err != nil {
			return err
		}
		return fn(h, n)
	}
	for _, ch := range sd.channels {
		if err := visit(sd.roots[ch]); err != nil {
			return err
		}
	}
	return nil
}
