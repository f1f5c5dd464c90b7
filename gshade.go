// Package gshade builds material shading graphs out of nodes that each emit a
// GLSL expression, or fail when the effect they implement does not apply to
// the material being compiled. Graphs are compiled with [glbuild.Context].
package gshade

import (
	"errors"
	"fmt"

	"github.com/soypat/gshade/glbuild"
)

// Flags is a bitmask of values to control the behavior of a [Builder].
type Flags uint64

const (
	// FlagNoPanic makes the builder accumulate construction errors instead
	// of panicking. Errors are returned by [Builder.Err].
	FlagNoPanic Flags = 1 << iota
)

// Builder owns the node arena of one or more shader definitions and wraps
// the construction of every node variant. Provides error handling strategies
// with panics or error accumulation during graph construction.
//
// A Builder is not safe for concurrent use while nodes are added. Once the
// definitions are built the graph is read-only and may be compiled by
// several goroutines, each with its own [glbuild.Context].
type Builder struct {
	Flags     Flags
	graph     glbuild.Graph
	accumErrs []error
}

// Err returns the construction errors accumulated so far joined together,
// or nil if there were none.
func (bld *Builder) Err() error {
	if len(bld.accumErrs) == 0 {
		return nil
	}
	return errors.Join(bld.accumErrs...)
}

// ClearErrors discards accumulated errors.
func (bld *Builder) ClearErrors() {
	bld.accumErrs = bld.accumErrs[:0]
}

// Graph returns the arena nodes are added to.
func (bld *Builder) Graph() *glbuild.Graph { return &bld.graph }

// ShaderDef returns a definition of the given output channels over the
// builder's graph.
func (bld *Builder) ShaderDef(channels map[string]glbuild.Handle) (*glbuild.ShaderDef, error) {
	return glbuild.NewShaderDef(&bld.graph, channels)
}

// Generate compiles material m with the vertex and pixel definitions vs and
// ps using a new [glbuild.Context].
func Generate(vs, ps *glbuild.ShaderDef, m glbuild.Material, cfg glbuild.Config) (*glbuild.ShaderPair, error) {
	ctx, err := glbuild.NewContext(vs, ps, cfg)
	if err != nil {
		return nil, err
	}
	return ctx.Generate(m)
}

func (bld *Builder) nodeErrorf(msg string, args ...any) {
	err := fmt.Errorf(msg, args...)
	if bld.Flags&FlagNoPanic == 0 {
		panic(err)
	}
	bld.accumErrs = append(bld.accumErrs, err)
}

// add appends n to the arena. On failure NoNode is returned so that parents
// built from it fail to construct too.
func (bld *Builder) add(n glbuild.Node) glbuild.Handle {
	h, err := bld.graph.Add(n)
	if err != nil {
		bld.nodeErrorf("%T: %w", n, err)
		return glbuild.NoNode
	}
	return h
}

func (bld *Builder) typeOf(h glbuild.Handle) glbuild.VarType {
	n := bld.graph.Node(h)
	if n == nil {
		return glbuild.Invalid
	}
	return n.Type()
}

// need checks the mandatory child h of node exists and has one of the given
// types. No types accepts any.
func (bld *Builder) need(node, arg string, h glbuild.Handle, types ...glbuild.VarType) bool {
	if h == glbuild.NoNode || bld.graph.Node(h) == nil {
		bld.nodeErrorf("%s: missing %s: %w", node, arg, glbuild.ErrBadHandle)
		return false
	}
	return bld.checkType(node, arg, h, types)
}

// opt is like need for optional children, NoNode is accepted.
func (bld *Builder) opt(node, arg string, h glbuild.Handle, types ...glbuild.VarType) bool {
	if h == glbuild.NoNode {
		return true
	} else if bld.graph.Node(h) == nil {
		bld.nodeErrorf("%s: %s: %w", node, arg, glbuild.ErrBadHandle)
		return false
	}
	return bld.checkType(node, arg, h, types)
}

func (bld *Builder) checkType(node, arg string, h glbuild.Handle, types []glbuild.VarType) bool {
	if len(types) == 0 {
		return true
	}
	got := bld.typeOf(h)
	for _, t := range types {
		if got == t {
			return true
		}
	}
	bld.nodeErrorf("%s: %s is %s, want %v: %w", node, arg, got, types, glbuild.ErrTypeMismatch)
	return false
}

func (bld *Builder) ident(node, name string) bool {
	if !glbuild.ValidIdent(name) {
		bld.nodeErrorf("%s: invalid identifier %q", node, name)
		return false
	}
	return true
}

func appendCall(dst []byte, fn string, args ...[]byte) []byte {
	dst = append(dst, fn...)
	dst = append(dst, '(')
	for i, arg := range args {
		dst = append(dst, arg...)
		if i != len(args)-1 {
			dst = append(dst, ", "...)
		}
	}
	return append(dst, ')')
}

// exprs generates every handle in order into a separate buffer. It stops at
// the first failing child.
func exprs(s *glbuild.Scope, handles ...glbuild.Handle) ([][]byte, bool) {
	out := make([][]byte, len(handles))
	for i, h := range handles {
		var ok bool
		out[i], ok = s.Expr(nil, h)
		if !ok {
			return nil, false
		}
	}
	return out, true
}

func forEach(fn func(glbuild.Handle) error, handles ...glbuild.Handle) error {
	for _, h := range handles {
		err := fn(h)
		if err != nil {
			return err
		}
	}
	return nil
}
