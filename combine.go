package gshade

import (
	"strconv"

	"github.com/soypat/gshade/glbuild"
)

type op struct {
	t          glbuild.VarType
	n1, n2     glbuild.Handle
	op         string
	isOperator bool
	needsAll   bool
}

// Op combines n1 and n2 as the infix expression (n1 op n2) when isOperator is
// set, or the call op(n1, n2) otherwise. When needsAll is set both operands
// must succeed. Otherwise a single succeeding operand is the result on its
// own, as if the missing one were the identity of op. The result type is
// inferred from the operands; use [Builder.OpType] when it cannot be.
func (bld *Builder) Op(n1, n2 glbuild.Handle, operator string, isOperator, needsAll bool) glbuild.Handle {
	if !bld.need("Op", "n1", n1) || !bld.need("Op", "n2", n2) {
		return glbuild.NoNode
	}
	t := inferOpType(bld.typeOf(n1), bld.typeOf(n2))
	if t == glbuild.Invalid {
		bld.nodeErrorf("Op %q: cannot combine %s and %s: %w", operator, bld.typeOf(n1), bld.typeOf(n2), glbuild.ErrTypeMismatch)
		return glbuild.NoNode
	}
	return bld.OpType(t, n1, n2, operator, isOperator, needsAll)
}

// OpType is [Builder.Op] with an explicit result type, as needed by calls
// such as dot or distance that reduce vectors to a scalar.
func (bld *Builder) OpType(t glbuild.VarType, n1, n2 glbuild.Handle, operator string, isOperator, needsAll bool) glbuild.Handle {
	if !bld.need("Op", "n1", n1) || !bld.need("Op", "n2", n2) {
		return glbuild.NoNode
	} else if operator == "" {
		bld.nodeErrorf("Op: empty operator")
		return glbuild.NoNode
	}
	return bld.add(&op{t: t, n1: n1, n2: n2, op: operator, isOperator: isOperator, needsAll: needsAll})
}

// inferOpType returns the type of a binary arithmetic expression in GLSL.
func inferOpType(a, b glbuild.VarType) glbuild.VarType {
	switch {
	case a == b:
		return a
	case a == glbuild.Float && b.Components() > 1:
		return b
	case b == glbuild.Float && a.Components() > 1:
		return a
	case a == glbuild.Mat2 && b == glbuild.Float2,
		a == glbuild.Mat3 && b == glbuild.Float3,
		a == glbuild.Mat4 && b == glbuild.Float4:
		return b
	}
	return glbuild.Invalid
}

func (n *op) Type() glbuild.VarType { return n.t }

func (n *op) ForEachChild(fn func(glbuild.Handle) error) error { return forEach(fn, n.n1, n.n2) }

func (n *op) AppendExpr(dst []byte, s *glbuild.Scope) ([]byte, bool) {
	a, okA := s.Expr(nil, n.n1)
	if !okA && n.needsAll {
		return dst, false
	}
	b, okB := s.Expr(nil, n.n2)
	switch {
	case okA && okB:
		if n.isOperator {
			dst = append(dst, '(')
			dst = append(dst, a...)
			dst = append(dst, ' ')
			dst = append(dst, n.op...)
			dst = append(dst, ' ')
			dst = append(dst, b...)
			return append(dst, ')'), true
		}
		return appendCall(dst, n.op, a, b), true
	case n.needsAll:
		return dst, false
	// A lone operand is emitted as is only when it already has the node's
	// type. A scalar is wrapped as vecN(s) instead, keeping the node's type at
	// the cost of not being the operand's bare expression.
	case okA:
		return n.appendSingle(dst, s, n.n1, a)
	case okB:
		return n.appendSingle(dst, s, n.n2, b)
	}
	return dst, false
}

// appendSingle emits a lone operand. A scalar standing in for a vector
// result is splatted. Any other operand of a type other than the node's,
// such as the matrix of a matrix-vector product, fails the node.
func (n *op) appendSingle(dst []byte, s *glbuild.Scope, h glbuild.Handle, expr []byte) ([]byte, bool) {
	t := s.NodeType(h)
	switch {
	case t == n.t:
		return append(dst, expr...), true
	case t == glbuild.Float && n.t.Components() > 1:
		return appendCall(dst, n.t.String(), expr), true
	}
	return dst, false
}

type additive struct {
	t     glbuild.VarType
	nodes []glbuild.Handle
}

// AdditiveCombiner sums the expressions of the nodes that succeed, skipping
// those that fail. It fails only when no node succeeds. All nodes must share
// one type.
func (bld *Builder) AdditiveCombiner(nodes ...glbuild.Handle) glbuild.Handle {
	if len(nodes) == 0 {
		bld.nodeErrorf("AdditiveCombiner: no nodes")
		return glbuild.NoNode
	}
	t := bld.typeOf(nodes[0])
	for _, h := range nodes {
		if !bld.need("AdditiveCombiner", "node", h, t) {
			return glbuild.NoNode
		}
	}
	return bld.add(&additive{t: t, nodes: append([]glbuild.Handle(nil), nodes...)})
}

// AddNode returns a node adding a and b where either may fail. It is
// shorthand for AdditiveCombiner(a, b).
func (bld *Builder) AddNode(a, b glbuild.Handle) glbuild.Handle {
	return bld.AdditiveCombiner(a, b)
}

func (n *additive) Type() glbuild.VarType { return n.t }

func (n *additive) ForEachChild(fn func(glbuild.Handle) error) error {
	return forEach(fn, n.nodes...)
}

func (n *additive) AppendExpr(dst []byte, s *glbuild.Scope) ([]byte, bool) {
	start := len(dst)
	dst = append(dst, '(')
	succeeded := 0
	for _, h := range n.nodes {
		mark := len(dst)
		if succeeded > 0 {
			dst = append(dst, " + "...)
		}
		var ok bool
		dst, ok = s.Expr(dst, h)
		if !ok {
			dst = dst[:mark]
			continue
		}
		succeeded++
	}
	switch succeeded {
	case 0:
		return dst[:start], false
	case 1:
		// No operator was emitted, drop the opening parenthesis.
		copy(dst[start:], dst[start+1:])
		return dst[:len(dst)-1], true
	}
	return append(dst, ')'), true
}

type affineBlend struct {
	t             glbuild.VarType
	blend, n1, n2 glbuild.Handle
}

// AffineBlend linearly interpolates from n1 to n2 by blend, mix(n1, n2, blend).
// n2 is mandatory: when it fails the node fails. When blend or n1 fail the
// result is n2 alone.
func (bld *Builder) AffineBlend(blend, n1, n2 glbuild.Handle) glbuild.Handle {
	if !bld.need("AffineBlend", "n2", n2) {
		return glbuild.NoNode
	}
	t := bld.typeOf(n2)
	if !bld.opt("AffineBlend", "n1", n1, t) || !bld.opt("AffineBlend", "blend", blend, glbuild.Float, t) {
		return glbuild.NoNode
	}
	return bld.add(&affineBlend{t: t, blend: blend, n1: n1, n2: n2})
}

func (n *affineBlend) Type() glbuild.VarType { return n.t }

func (n *affineBlend) ForEachChild(fn func(glbuild.Handle) error) error {
	return forEach(fn, n.blend, n.n1, n.n2)
}

func (n *affineBlend) AppendExpr(dst []byte, s *glbuild.Scope) ([]byte, bool) {
	b, ok := s.Expr(nil, n.n2)
	if !ok {
		return dst, false
	}
	f, okBlend := s.Expr(nil, n.blend)
	var a []byte
	okA := okBlend
	if okBlend {
		a, okA = s.Expr(nil, n.n1)
	}
	if !okA {
		return append(dst, b...), true
	}
	return appendCall(dst, "mix", a, b, f), true
}

type tempRef struct {
	t    glbuild.VarType
	name string
	body glbuild.Handle
	kind glbuild.TempKind
}

// TempRef hoists body into the value temporary name, declared once at the
// top of main and referenced by name. Parents sharing the returned handle
// evaluate body once. The node fails iff body fails, in which case nothing
// is registered.
func (bld *Builder) TempRef(name string, body glbuild.Handle) glbuild.Handle {
	return bld.tempRef("TempRef", glbuild.TempValue, name, body)
}

// TempFuncRef is like [Builder.TempRef] but hoists body into a parameterless
// function so it is only evaluated where it is used.
func (bld *Builder) TempFuncRef(name string, body glbuild.Handle) glbuild.Handle {
	return bld.tempRef("TempFuncRef", glbuild.TempFunc, name, body)
}

func (bld *Builder) tempRef(node string, kind glbuild.TempKind, name string, body glbuild.Handle) glbuild.Handle {
	if !bld.ident(node, name) || !bld.need(node, "body", body) {
		return glbuild.NoNode
	}
	t := bld.typeOf(body)
	if t.IsSampler() {
		bld.nodeErrorf("%s %q: cannot hold %s: %w", node, name, t, glbuild.ErrTypeMismatch)
		return glbuild.NoNode
	}
	return bld.add(&tempRef{t: t, name: name, body: body, kind: kind})
}

func (n *tempRef) Type() glbuild.VarType { return n.t }

func (n *tempRef) ForEachChild(fn func(glbuild.Handle) error) error { return fn(n.body) }

func (n *tempRef) AppendExpr(dst []byte, s *glbuild.Scope) ([]byte, bool) {
	return s.AppendTemp(dst, n.kind, n.t, n.name, n.body)
}

type custom struct {
	t             glbuild.VarType
	before, after string
	inner         glbuild.Handle
}

// Custom emits before, the expression of inner, then after. With inner set
// to [glbuild.NoNode] the node is the fixed text before+after and always
// succeeds; otherwise it fails iff inner fails.
func (bld *Builder) Custom(t glbuild.VarType, before, after string, inner glbuild.Handle) glbuild.Handle {
	if t == glbuild.Invalid {
		bld.nodeErrorf("Custom %q: invalid type", before+after)
		return glbuild.NoNode
	} else if !bld.opt("Custom", "inner", inner) {
		return glbuild.NoNode
	} else if inner == glbuild.NoNode && before+after == "" {
		bld.nodeErrorf("Custom: empty literal")
		return glbuild.NoNode
	}
	return bld.add(&custom{t: t, before: before, after: after, inner: inner})
}

// Literal returns a node emitting text verbatim with type t.
func (bld *Builder) Literal(t glbuild.VarType, text string) glbuild.Handle {
	return bld.Custom(t, text, "", glbuild.NoNode)
}

// Int returns an int literal node.
func (bld *Builder) Int(v int) glbuild.Handle {
	return bld.Literal(glbuild.Int, strconv.Itoa(v))
}

func (n *custom) Type() glbuild.VarType { return n.t }

func (n *custom) ForEachChild(fn func(glbuild.Handle) error) error { return fn(n.inner) }

func (n *custom) AppendExpr(dst []byte, s *glbuild.Scope) ([]byte, bool) {
	start := len(dst)
	dst = append(dst, n.before...)
	if n.inner != glbuild.NoNode {
		var ok bool
		dst, ok = s.Expr(dst, n.inner)
		if !ok {
			return dst[:start], false
		}
	}
	return append(dst, n.after...), true
}
