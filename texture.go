package gshade

import (
	"github.com/soypat/gshade/glbuild"
)

// TexMode selects how a texture sample combines with the color it is
// chained to. Materials select it per texture through an integer switch.
type TexMode int

const (
	// TexReplace discards the chained color.
	TexReplace TexMode = iota
	// TexModulate multiplies the sample with the chained color.
	TexModulate
	// TexDecal blends the sample over the chained color by the sample's alpha.
	TexDecal
)

func (m TexMode) String() string {
	switch m {
	case TexReplace:
		return "replace"
	case TexModulate:
		return "modulate"
	case TexDecal:
		return "decal"
	}
	return "TexMode(invalid)"
}

type texRef struct {
	tex       string
	sampler   glbuild.VarType
	modeVar   string
	defMode   TexMode
	uv, next  glbuild.Handle
	reflAlpha glbuild.Handle
}

// TexRef samples the 2D texture tex at the coordinates generated by uv and
// combines the sample with next according to the material switch modeVar,
// [TexModulate] when unset. When uv fails or the material has no such
// texture the node falls through to next, and fails if next is NoNode.
func (bld *Builder) TexRef(tex, modeVar string, uv, next glbuild.Handle) glbuild.Handle {
	if !bld.texArgs("TexRef", tex, modeVar, uv, next, glbuild.Float2) {
		return glbuild.NoNode
	}
	return bld.add(&texRef{tex: tex, sampler: glbuild.Sampler2D, modeVar: modeVar, defMode: TexModulate,
		uv: uv, next: next, reflAlpha: glbuild.NoNode})
}

// CubeRef is a [Builder.TexRef] sampling the cube map tex along the
// direction uv, usually a reflection vector. The sample's alpha is reflAlpha,
// or 1 when reflAlpha is NoNode or fails, so the default [TexDecal] mode
// blends the reflected color over next by that factor.
func (bld *Builder) CubeRef(tex, modeVar string, reflAlpha, uv, next glbuild.Handle) glbuild.Handle {
	if !bld.texArgs("CubeRef", tex, modeVar, uv, next, glbuild.Float3) ||
		!bld.opt("CubeRef", "reflAlpha", reflAlpha, glbuild.Float) {
		return glbuild.NoNode
	}
	return bld.add(&texRef{tex: tex, sampler: glbuild.SamplerCube, modeVar: modeVar, defMode: TexDecal,
		uv: uv, next: next, reflAlpha: reflAlpha})
}

func (bld *Builder) texArgs(node, tex, modeVar string, uv, next glbuild.Handle, uvType glbuild.VarType) bool {
	return bld.ident(node, tex) &&
		(modeVar == "" || bld.ident(node, modeVar)) &&
		bld.need(node, "uv", uv, uvType) &&
		bld.opt(node, "next", next, glbuild.Float4)
}

func (n *texRef) Type() glbuild.VarType { return glbuild.Float4 }

func (n *texRef) ForEachChild(fn func(glbuild.Handle) error) error {
	return forEach(fn, n.uv, n.next, n.reflAlpha)
}

func (n *texRef) AppendExpr(dst []byte, s *glbuild.Scope) ([]byte, bool) {
	uv, ok := s.Expr(nil, n.uv)
	if ok {
		ok = s.UseVar(n.sampler, n.tex)
	}
	if !ok {
		return s.Expr(dst, n.next)
	}
	sample := n.appendLookup(nil, s, uv)
	next, ok := s.Expr(nil, n.next)
	if !ok {
		return append(dst, sample...), true
	}
	mode := n.defMode
	if n.modeVar != "" {
		mode = TexMode(s.IVar(n.modeVar, int(n.defMode)))
	}
	switch mode {
	case TexReplace:
		dst = append(dst, sample...)
	case TexModulate:
		dst = append(dst, '(')
		dst = append(dst, sample...)
		dst = append(dst, " * "...)
		dst = glbuild.AppendOperand(dst, next)
		dst = append(dst, ')')
	case TexDecal:
		// vec4(mix(next.rgb, sample.rgb, sample.a), next.a)
		next = glbuild.AppendOperand(nil, next)
		dst = append(dst, "vec4(mix("...)
		dst = append(dst, next...)
		dst = append(dst, ".rgb, "...)
		dst = append(dst, sample...)
		dst = append(dst, ".rgb, "...)
		dst = append(dst, sample...)
		dst = append(dst, ".a), "...)
		dst = append(dst, next...)
		dst = append(dst, ".a)"...)
	default:
		s.Errorf("texture %q: switch %q selects unknown mode %d", n.tex, n.modeVar, mode)
		return dst, false
	}
	return dst, true
}

// appendLookup appends the sampling expression of the texture.
func (n *texRef) appendLookup(dst []byte, s *glbuild.Scope, uv []byte) []byte {
	lookup := appendCall(nil, "texture", []byte(n.tex), uv)
	if n.sampler != glbuild.SamplerCube {
		return append(dst, lookup...)
	}
	alpha, ok := s.Expr(nil, n.reflAlpha)
	if !ok {
		alpha = []byte("1.0")
	}
	lookup = append(lookup, ".rgb"...)
	return appendCall(dst, "vec4", lookup, alpha)
}

type specularTex struct {
	tex      string
	uv, next glbuild.Handle
}

// SpecularTex samples the specular color map tex at uv, multiplied by next
// when next succeeds. When uv fails or the material has no such texture the
// node falls through to next, and fails if next is NoNode.
func (bld *Builder) SpecularTex(tex string, uv, next glbuild.Handle) glbuild.Handle {
	if !bld.ident("SpecularTex", tex) || !bld.need("SpecularTex", "uv", uv, glbuild.Float2) ||
		!bld.opt("SpecularTex", "next", next, glbuild.Float3) {
		return glbuild.NoNode
	}
	return bld.add(&specularTex{tex: tex, uv: uv, next: next})
}

func (n *specularTex) Type() glbuild.VarType { return glbuild.Float3 }

func (n *specularTex) ForEachChild(fn func(glbuild.Handle) error) error {
	return forEach(fn, n.uv, n.next)
}

func (n *specularTex) AppendExpr(dst []byte, s *glbuild.Scope) ([]byte, bool) {
	uv, ok := s.Expr(nil, n.uv)
	if ok {
		ok = s.UseVar(glbuild.Sampler2D, n.tex)
	}
	if !ok {
		return s.Expr(dst, n.next)
	}
	sample := appendCall(nil, "texture", []byte(n.tex), uv)
	sample = append(sample, ".rgb"...)
	next, ok := s.Expr(nil, n.next)
	if !ok {
		return append(dst, sample...), true
	}
	dst = append(dst, '(')
	dst = append(dst, sample...)
	dst = append(dst, " * "...)
	dst = glbuild.AppendOperand(dst, next)
	return append(dst, ')'), true
}
