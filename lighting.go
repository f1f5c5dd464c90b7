package gshade

import (
	"github.com/soypat/gshade/glbuild"
	"github.com/soypat/gshade/glbuild/glsllib"
)

// DefaultSpecularPower is the shininess exponent of [Builder.SpecLighter].
const DefaultSpecularPower float32 = 16

type attenuator struct {
	toLight, atten glbuild.Handle
}

// Attenuator is the distance falloff 1/(c + l*d + q*d*d) of a point light
// where d is the length of the vector toLight and atten holds the constant,
// linear and quadratic coefficients. Fails iff either input fails.
func (bld *Builder) Attenuator(toLight, atten glbuild.Handle) glbuild.Handle {
	if !bld.need("Attenuator", "toLight", toLight, glbuild.Float3) ||
		!bld.need("Attenuator", "atten", atten, glbuild.Float3) {
		return glbuild.NoNode
	}
	return bld.add(&attenuator{toLight: toLight, atten: atten})
}

func (n *attenuator) Type() glbuild.VarType { return glbuild.Float }

func (n *attenuator) ForEachChild(fn func(glbuild.Handle) error) error {
	return forEach(fn, n.toLight, n.atten)
}

func (n *attenuator) AppendExpr(dst []byte, s *glbuild.Scope) ([]byte, bool) {
	args, ok := exprs(s, n.toLight, n.atten)
	if !ok {
		return dst, false
	}
	obj := glsllib.Attenuation()
	s.UseFunction(obj)
	return appendCall(dst, string(obj.NamePtr), args...), true
}

type spotlightAtten struct {
	lightDir, params, dir glbuild.Handle
}

// SpotlightAtten is the cone falloff of a spotlight pointing along dir for a
// surface lit along lightDir. params holds the cosine of the cutoff angle and
// the falloff exponent. Fails iff any input fails.
func (bld *Builder) SpotlightAtten(lightDir, params, dir glbuild.Handle) glbuild.Handle {
	if !bld.need("SpotlightAtten", "lightDir", lightDir, glbuild.Float3) ||
		!bld.need("SpotlightAtten", "params", params, glbuild.Float2) ||
		!bld.need("SpotlightAtten", "dir", dir, glbuild.Float3) {
		return glbuild.NoNode
	}
	return bld.add(&spotlightAtten{lightDir: lightDir, params: params, dir: dir})
}

func (n *spotlightAtten) Type() glbuild.VarType { return glbuild.Float }

func (n *spotlightAtten) ForEachChild(fn func(glbuild.Handle) error) error {
	return forEach(fn, n.lightDir, n.params, n.dir)
}

func (n *spotlightAtten) AppendExpr(dst []byte, s *glbuild.Scope) ([]byte, bool) {
	args, ok := exprs(s, n.lightDir, n.dir, n.params)
	if !ok {
		return dst, false
	}
	obj := glsllib.Spotlight()
	s.UseFunction(obj)
	return appendCall(dst, string(obj.NamePtr), args...), true
}

type refl struct {
	norm, src glbuild.Handle
}

// Refl reflects src about the normal norm. Fails iff either input fails.
func (bld *Builder) Refl(norm, src glbuild.Handle) glbuild.Handle {
	if !bld.need("Refl", "norm", norm, glbuild.Float3) || !bld.need("Refl", "src", src, glbuild.Float3) {
		return glbuild.NoNode
	}
	return bld.add(&refl{norm: norm, src: src})
}

func (n *refl) Type() glbuild.VarType { return glbuild.Float3 }

func (n *refl) ForEachChild(fn func(glbuild.Handle) error) error { return forEach(fn, n.norm, n.src) }

func (n *refl) AppendExpr(dst []byte, s *glbuild.Scope) ([]byte, bool) {
	args, ok := exprs(s, n.src, n.norm)
	if !ok {
		return dst, false
	}
	return appendCall(dst, "reflect", args...), true
}

type lighter struct {
	t                           glbuild.VarType
	lightDir, cameraDir, normal glbuild.Handle
	color, atten, power         glbuild.Handle
	specular                    bool
}

// Lighter is the diffuse contribution max(dot(normal, lightDir), 0)*atten*color
// of one light. The result has the type of color. Fails iff any input fails.
func (bld *Builder) Lighter(lightDir, normal, color, atten glbuild.Handle) glbuild.Handle {
	if !bld.lightArgs("Lighter", lightDir, normal, color, atten) {
		return glbuild.NoNode
	}
	return bld.add(&lighter{t: bld.typeOf(color), lightDir: lightDir, normal: normal, color: color, atten: atten,
		cameraDir: glbuild.NoNode, power: glbuild.NoNode})
}

// SpecLighter is the Blinn specular contribution of one light seen from
// cameraDir, scaled by atten*color, with [DefaultSpecularPower].
// Fails iff any input fails.
func (bld *Builder) SpecLighter(lightDir, cameraDir, normal, color, atten glbuild.Handle) glbuild.Handle {
	return bld.SpecLighterPow(lightDir, cameraDir, normal, color, atten, glbuild.NoNode)
}

// SpecLighterPow is [Builder.SpecLighter] with the shininess exponent given
// by the float node power. When power fails the default exponent is used.
func (bld *Builder) SpecLighterPow(lightDir, cameraDir, normal, color, atten, power glbuild.Handle) glbuild.Handle {
	if !bld.lightArgs("SpecLighter", lightDir, normal, color, atten) ||
		!bld.need("SpecLighter", "cameraDir", cameraDir, glbuild.Float3) ||
		!bld.opt("SpecLighter", "power", power, glbuild.Float) {
		return glbuild.NoNode
	}
	return bld.add(&lighter{t: bld.typeOf(color), lightDir: lightDir, cameraDir: cameraDir, normal: normal,
		color: color, atten: atten, power: power, specular: true})
}

func (bld *Builder) lightArgs(node string, lightDir, normal, color, atten glbuild.Handle) bool {
	return bld.need(node, "lightDir", lightDir, glbuild.Float3) &&
		bld.need(node, "normal", normal, glbuild.Float3) &&
		bld.need(node, "color", color, glbuild.Float3, glbuild.Float4) &&
		bld.need(node, "atten", atten, glbuild.Float)
}

func (n *lighter) Type() glbuild.VarType { return n.t }

func (n *lighter) ForEachChild(fn func(glbuild.Handle) error) error {
	return forEach(fn, n.lightDir, n.cameraDir, n.normal, n.color, n.atten, n.power)
}

func (n *lighter) AppendExpr(dst []byte, s *glbuild.Scope) ([]byte, bool) {
	args, ok := exprs(s, n.lightDir, n.normal, n.color, n.atten)
	if !ok {
		return dst, false
	}
	lightDir, normal, color, atten := args[0], args[1], args[2], args[3]
	dst = append(dst, '(')
	if n.specular {
		cameraDir, ok := s.Expr(nil, n.cameraDir)
		if !ok {
			return dst[:len(dst)-1], false
		}
		power, ok := s.Expr(nil, n.power)
		if !ok {
			power = glbuild.AppendFloatLiteral(nil, DefaultSpecularPower)
		}
		obj := glsllib.Specular()
		s.UseFunction(obj)
		dst = appendCall(dst, string(obj.NamePtr), normal, lightDir, cameraDir, power)
	} else {
		dst = append(dst, "max("...)
		dst = appendCall(dst, "dot", normal, lightDir)
		dst = append(dst, ", 0.0)"...)
	}
	dst = append(dst, " * "...)
	dst = glbuild.AppendOperand(dst, atten)
	dst = append(dst, " * "...)
	dst = glbuild.AppendOperand(dst, color)
	return append(dst, ')'), true
}

type linearFog struct {
	depth, params glbuild.Handle
}

// LinearFog is the fog visibility factor clamp((end - depth)/(end - start), 0, 1)
// where params holds the fog start and end distances, (0, 1) when params is
// NoNode or fails. Fails iff depth fails.
func (bld *Builder) LinearFog(depth, fogParams glbuild.Handle) glbuild.Handle {
	if !bld.need("LinearFog", "depth", depth, glbuild.Float) ||
		!bld.opt("LinearFog", "fogParams", fogParams, glbuild.Float2) {
		return glbuild.NoNode
	}
	return bld.add(&linearFog{depth: depth, params: fogParams})
}

func (n *linearFog) Type() glbuild.VarType { return glbuild.Float }

func (n *linearFog) ForEachChild(fn func(glbuild.Handle) error) error {
	return forEach(fn, n.depth, n.params)
}

func (n *linearFog) AppendExpr(dst []byte, s *glbuild.Scope) ([]byte, bool) {
	z, ok := s.Expr(nil, n.depth)
	if !ok {
		return dst, false
	}
	p, ok := s.Expr(nil, n.params)
	if !ok {
		p = []byte("vec2(0.0, 1.0)")
	}
	p = glbuild.AppendOperand(nil, p)
	// clamp((p.y - z) / (p.y - p.x), 0.0, 1.0)
	dst = append(dst, "clamp(("...)
	dst = append(dst, p...)
	dst = append(dst, ".y - "...)
	dst = glbuild.AppendOperand(dst, z)
	dst = append(dst, ") / ("...)
	dst = append(dst, p...)
	dst = append(dst, ".y - "...)
	dst = append(dst, p...)
	dst = append(dst, ".x), 0.0, 1.0)"...)
	return dst, true
}

type expFog struct {
	depth, density glbuild.Handle
	squared        bool
}

// ExpFog is the exponential fog visibility factor exp(-(density*depth)), or
// exp(-(density*depth)^2) when squared is set. Fails iff either input fails.
func (bld *Builder) ExpFog(depth, density glbuild.Handle, squared bool) glbuild.Handle {
	if !bld.need("ExpFog", "depth", depth, glbuild.Float) || !bld.need("ExpFog", "density", density, glbuild.Float) {
		return glbuild.NoNode
	}
	return bld.add(&expFog{depth: depth, density: density, squared: squared})
}

func (n *expFog) Type() glbuild.VarType { return glbuild.Float }

func (n *expFog) ForEachChild(fn func(glbuild.Handle) error) error {
	return forEach(fn, n.depth, n.density)
}

func (n *expFog) AppendExpr(dst []byte, s *glbuild.Scope) ([]byte, bool) {
	args, ok := exprs(s, n.depth, n.density)
	if !ok {
		return dst, false
	}
	var dz []byte
	dz = glbuild.AppendOperand(dz, args[1])
	dz = append(dz, " * "...)
	dz = glbuild.AppendOperand(dz, args[0])
	if n.squared {
		dst = append(dst, "exp(-pow("...)
		dst = append(dst, dz...)
		return append(dst, ", 2.0))"...), true
	}
	dst = append(dst, "exp(-("...)
	dst = append(dst, dz...)
	return append(dst, "))"...), true
}
