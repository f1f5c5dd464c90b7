package gshade

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/gshade/glbuild"
)

type ivarCheck struct {
	name  string
	inner glbuild.Handle
	t     glbuild.VarType
}

// IVarCheck gates inner behind the integer switch name of the material.
// The node fails when the switch is zero or unset and otherwise generates inner.
func (bld *Builder) IVarCheck(name string, inner glbuild.Handle) glbuild.Handle {
	if !bld.need("IVarCheck", "inner", inner) {
		return glbuild.NoNode
	}
	return bld.add(&ivarCheck{name: name, inner: inner, t: bld.typeOf(inner)})
}

func (n *ivarCheck) Type() glbuild.VarType { return n.t }

func (n *ivarCheck) ForEachChild(fn func(glbuild.Handle) error) error { return fn(n.inner) }

func (n *ivarCheck) AppendExpr(dst []byte, s *glbuild.Scope) ([]byte, bool) {
	if s.IVar(n.name, 0) == 0 {
		return dst, false
	}
	return s.Expr(dst, n.inner)
}

type varRef struct {
	t        glbuild.VarType
	names    [2]string
	constant string
}

// VarRef references the variable name of type t when visible to the stage.
// Otherwise the node generates constant, or fails when constant is empty.
func (bld *Builder) VarRef(t glbuild.VarType, name, constant string) glbuild.Handle {
	if !bld.ident("VarRef", name) {
		return glbuild.NoNode
	}
	return bld.add(&varRef{t: t, names: [2]string{name}, constant: constant})
}

// FallbackRef is a [Builder.VarRef] trying two variable names in order before
// resorting to constant.
func (bld *Builder) FallbackRef(t glbuild.VarType, first, second, constant string) glbuild.Handle {
	if !bld.ident("FallbackRef", first) || !bld.ident("FallbackRef", second) {
		return glbuild.NoNode
	}
	return bld.add(&varRef{t: t, names: [2]string{first, second}, constant: constant})
}

func (n *varRef) Type() glbuild.VarType { return n.t }

func (n *varRef) ForEachChild(func(glbuild.Handle) error) error { return nil }

func (n *varRef) AppendExpr(dst []byte, s *glbuild.Scope) ([]byte, bool) {
	for _, name := range n.names {
		if name != "" && s.UseVar(n.t, name) {
			return append(dst, name...), true
		}
	}
	if n.constant == "" {
		return dst, false
	}
	return append(dst, n.constant...), true
}

type fallback struct {
	t     glbuild.VarType
	nodes []glbuild.Handle
}

// Fallback generates the first of nodes that succeeds and fails only when
// all of them fail. All nodes must share one type.
func (bld *Builder) Fallback(nodes ...glbuild.Handle) glbuild.Handle {
	if len(nodes) == 0 {
		bld.nodeErrorf("Fallback: no nodes")
		return glbuild.NoNode
	}
	t := bld.typeOf(nodes[0])
	for _, h := range nodes {
		if !bld.need("Fallback", "node", h, t) {
			return glbuild.NoNode
		}
	}
	return bld.add(&fallback{t: t, nodes: append([]glbuild.Handle(nil), nodes...)})
}

func (n *fallback) Type() glbuild.VarType { return n.t }

func (n *fallback) ForEachChild(fn func(glbuild.Handle) error) error {
	return forEach(fn, n.nodes...)
}

func (n *fallback) AppendExpr(dst []byte, s *glbuild.Scope) ([]byte, bool) {
	for _, h := range n.nodes {
		if out, ok := s.Expr(dst, h); ok {
			return out, true
		}
	}
	return dst, false
}

type posRef struct {
	position, mvp string
}

// PosRef transforms the vertex position attribute by the model-view-projection
// uniform mvp. The position is mandatory: when the material does not list
// it, it is declared as a vec4 attribute. A vec3 position is extended with w=1.
// The node belongs in the vertex stage; using it in the pixel stage is a
// build error.
func (bld *Builder) PosRef(position, mvp string) glbuild.Handle {
	if !bld.ident("PosRef", position) || !bld.ident("PosRef", mvp) {
		return glbuild.NoNode
	}
	return bld.add(&posRef{position: position, mvp: mvp})
}

func (n *posRef) Type() glbuild.VarType { return glbuild.Float4 }

func (n *posRef) ForEachChild(func(glbuild.Handle) error) error { return nil }

func (n *posRef) AppendExpr(dst []byte, s *glbuild.Scope) ([]byte, bool) {
	if !vertexOnly(s, n.position) {
		return dst, false
	}
	s.Require(glbuild.Var{Name: n.mvp, Type: glbuild.Mat4, Kind: glbuild.Uniform})
	dst = append(dst, '(')
	dst = append(dst, n.mvp...)
	dst = append(dst, " * "...)
	if usePosition(s, n.position) == glbuild.Float3 {
		dst = append(dst, "vec4("...)
		dst = append(dst, n.position...)
		dst = append(dst, ", 1.0)"...)
	} else {
		dst = append(dst, n.position...)
	}
	return append(dst, ')'), true
}

type vertexPos struct {
	position string
}

// VertexPos is the untransformed vertex position as a vec3. A vec4 position
// is swizzled to its xyz components. Like [Builder.PosRef] it declares a
// missing position as a vec4 attribute and fails in the pixel stage.
func (bld *Builder) VertexPos(position string) glbuild.Handle {
	if !bld.ident("VertexPos", position) {
		return glbuild.NoNode
	}
	return bld.add(&vertexPos{position: position})
}

func (n *vertexPos) Type() glbuild.VarType { return glbuild.Float3 }

func (n *vertexPos) ForEachChild(func(glbuild.Handle) error) error { return nil }

func (n *vertexPos) AppendExpr(dst []byte, s *glbuild.Scope) ([]byte, bool) {
	if !vertexOnly(s, n.position) {
		return dst, false
	}
	dst = append(dst, n.position...)
	if usePosition(s, n.position) != glbuild.Float3 {
		dst = append(dst, ".xyz"...)
	}
	return dst, true
}

func vertexOnly(s *glbuild.Scope, position string) bool {
	if s.Stage() != glbuild.StageVertex {
		s.Errorf("position reference %q in %s stage", position, s.Stage())
		return false
	}
	return true
}

// usePosition marks the position attribute used and returns its type, vec3
// or vec4. An undeclared position is required as a vec4.
func usePosition(s *glbuild.Scope, position string) glbuild.VarType {
	if v, ok := s.Layout().Lookup(position); ok && v.Type == glbuild.Float3 {
		s.UseVar(glbuild.Float3, position)
		return glbuild.Float3
	}
	s.Require(glbuild.Var{Name: position, Type: glbuild.Float4, Kind: glbuild.Attribute})
	return glbuild.Float4
}

type tempUse struct {
	t    glbuild.VarType
	name string
}

// TempUse references the value temporary name registered by some other node
// of the same stage, typically a [Builder.TempRef] generated first. A name no
// node registers is a build error.
func (bld *Builder) TempUse(t glbuild.VarType, name string) glbuild.Handle {
	if !bld.ident("TempUse", name) {
		return glbuild.NoNode
	}
	return bld.add(&tempUse{t: t, name: name})
}

func (n *tempUse) Type() glbuild.VarType { return n.t }

func (n *tempUse) ForEachChild(func(glbuild.Handle) error) error { return nil }

func (n *tempUse) AppendExpr(dst []byte, s *glbuild.Scope) ([]byte, bool) {
	if v, ok := s.Layout().Lookup(n.name); ok && v.Type != n.t {
		s.Errorf("temporary %q is %s, used as %s: %w", n.name, v.Type, n.t, glbuild.ErrTypeMismatch)
		return dst, false
	}
	return s.UseTemp(dst, n.name), true
}

// constant is a literal value. It always succeeds.
type constant struct {
	t    glbuild.VarType
	text string
}

func (n *constant) Type() glbuild.VarType { return n.t }

func (n *constant) ForEachChild(func(glbuild.Handle) error) error { return nil }

func (n *constant) AppendExpr(dst []byte, s *glbuild.Scope) ([]byte, bool) {
	return append(dst, n.text...), true
}

// Float returns a float literal node.
func (bld *Builder) Float(v float32) glbuild.Handle {
	if !bld.finite("Float", v) {
		return glbuild.NoNode
	}
	return bld.add(&constant{t: glbuild.Float, text: string(glbuild.AppendFloatLiteral(nil, v))})
}

// Vec2 returns a vec2 literal node.
func (bld *Builder) Vec2(v ms2.Vec) glbuild.Handle {
	if !bld.finite("Vec2", v.X, v.Y) {
		return glbuild.NoNode
	}
	return bld.add(&constant{t: glbuild.Float2, text: string(glbuild.AppendVec2Literal(nil, v))})
}

// Vec3 returns a vec3 literal node.
func (bld *Builder) Vec3(v ms3.Vec) glbuild.Handle {
	if !bld.finite("Vec3", v.X, v.Y, v.Z) {
		return glbuild.NoNode
	}
	return bld.add(&constant{t: glbuild.Float3, text: string(glbuild.AppendVec3Literal(nil, v))})
}

// Vec4 returns a vec4 literal node, i.e. an RGBA color.
func (bld *Builder) Vec4(v [4]float32) glbuild.Handle {
	if !bld.finite("Vec4", v[:]...) {
		return glbuild.NoNode
	}
	return bld.add(&constant{t: glbuild.Float4, text: string(glbuild.AppendVec4Literal(nil, v))})
}

func (bld *Builder) finite(node string, s ...float32) bool {
	for _, v := range s {
		if math32.IsNaN(v) || math32.IsInf(v, 0) {
			bld.nodeErrorf("%s: non-finite literal %v", node, v)
			return false
		}
	}
	return true
}
