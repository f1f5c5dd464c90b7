// Package effects holds ready made shading graphs built with [gshade.Builder].
package effects

import (
	"github.com/soypat/gshade"
	"github.com/soypat/gshade/glbuild"
)

// Inputs read by [StandardEffect]. Attributes and uniforms a material does
// not supply disable the effects that need them.
//
// Light positions and directions are in the space uNormalMatrix maps normals
// into. A material supplying uNormalMatrix supplies uModelView as well;
// without both, lighting happens in object space.
const (
	AttrPosition = "aPosition" // vec3 or vec4
	AttrNormal   = "aNormal"   // vec3
	AttrTexCoord = "aTexCoord" // vec2
	AttrColor    = "aColor"    // vec4

	UniformMVP          = "uMVP"          // mat4
	UniformModelView    = "uModelView"    // mat4
	UniformNormalMatrix = "uNormalMatrix" // mat3
	UniformDiffuseColor = "uDiffuseColor" // vec4
	UniformAmbient      = "uAmbient"      // vec4
	UniformLightDir     = "uLightDir"     // vec3, directional light
	UniformLightPos     = "uLightPos"     // vec3, point light
	UniformLightColor   = "uLightColor"   // vec4
	UniformLightAtten   = "uLightAtten"   // vec3, constant/linear/quadratic
	UniformSpotDir      = "uSpotDir"      // vec3
	UniformSpotParams   = "uSpotParams"   // vec2, cos(cutoff) and exponent
	UniformEyeDir       = "uEyeDir"       // vec3
	UniformSpecular     = "uSpecColor"    // vec3
	UniformShininess    = "uShininess"    // float
	UniformReflectivity = "uReflectivity" // float
	UniformFogColor     = "uFogColor"     // vec4
	UniformFogRange     = "uFogRange"     // vec2, start and end
	UniformFogDensity   = "uFogDensity"   // float

	TexDiffuse  = "uDiffuseMap"  // sampler2D
	TexSpecular = "uSpecularMap" // sampler2D
	TexEnv      = "uEnvMap"      // samplerCube
)

// Integer switches read by [StandardEffect].
const (
	SwitchPerVertexLighting = "perVertexLighting"
	SwitchPerPixelLighting  = "perPixelLighting"
	SwitchSpecular          = "specularEnabled"
	SwitchSpotlight         = "spotEnabled"
	SwitchFogLinear         = "fogLinear"
	SwitchFogExp            = "fogExp"
	SwitchFogExp2           = "fogExp2"
	// SwitchDiffuseMode and SwitchEnvMode select a [gshade.TexMode].
	SwitchDiffuseMode = "diffuseMode"
	SwitchEnvMode     = "envMode"
)

// Output channels of [StandardEffect].
const (
	ChannelFragColor = "fragColor"
	varyingTexCoord  = "vTexCoord"
	varyingColor     = "vColor"
	varyingNormal    = "vNormal"
	varyingToLight   = "vToLight"
	varyingLitColor  = "vLitColor"
	varyingFogDepth  = "vFogDepth"
)

// StandardEffect is a fixed-function style lit material: an optionally
// textured base color lit per vertex or per pixel by one directional, point
// or spot light with optional specular highlights, followed by cube map
// reflections and fog. Which of these end up in the shaders depends on the
// inputs and switches of the material compiled.
type StandardEffect struct {
	bld    gshade.Builder
	vs, ps *glbuild.ShaderDef
}

// NewStandardEffect builds the shading graph of the standard effect.
func NewStandardEffect() (*StandardEffect, error) {
	e := &StandardEffect{bld: gshade.Builder{Flags: gshade.FlagNoPanic}}
	vs := e.vertexChannels()
	ps := e.pixelChannels()
	if err := e.bld.Err(); err != nil {
		return nil, err
	}
	var err error
	e.vs, err = e.bld.ShaderDef(vs)
	if err != nil {
		return nil, err
	}
	e.ps, err = e.bld.ShaderDef(ps)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Vertex returns the vertex stage definition.
func (e *StandardEffect) Vertex() *glbuild.ShaderDef { return e.vs }

// Pixel returns the pixel stage definition.
func (e *StandardEffect) Pixel() *glbuild.ShaderDef { return e.ps }

// Generate compiles m into a shader pair. It is safe to call from several
// goroutines.
func (e *StandardEffect) Generate(m glbuild.Material, cfg glbuild.Config) (*glbuild.ShaderPair, error) {
	return gshade.Generate(e.vs, e.ps, m, cfg)
}

func (e *StandardEffect) vertexChannels() map[string]glbuild.Handle {
	bld := &e.bld
	clipPos := bld.TempRef("clipPos", bld.PosRef(AttrPosition, UniformMVP))
	aNormal := bld.VarRef(glbuild.Float3, AttrNormal, "")
	normal := bld.TempRef("eyeNormal", bld.Custom(glbuild.Float3, "normalize(", ")", bld.Fallback(
		bld.OpType(glbuild.Float3, bld.VarRef(glbuild.Mat3, UniformNormalMatrix, ""), aNormal, "*", true, true),
		aNormal,
	)))
	// The light vector is taken in the space of the normal, eye space when
	// the material supplies the model-view and normal matrices.
	objPos := bld.VertexPos(AttrPosition)
	eyePos := bld.Fallback(
		bld.Custom(glbuild.Float3, "(", ").xyz", bld.OpType(glbuild.Float4,
			bld.VarRef(glbuild.Mat4, UniformModelView, ""),
			bld.Custom(glbuild.Float4, "vec4(", ", 1.0)", objPos), "*", true, true)),
		objPos,
	)
	lit := bld.Lighter(
		bld.VarRef(glbuild.Float3, UniformLightDir, ""),
		normal,
		bld.VarRef(glbuild.Float4, UniformLightColor, "vec4(1.0)"),
		bld.Float(1),
	)
	return map[string]glbuild.Handle{
		glbuild.ChannelPosition: clipPos,
		varyingTexCoord:         bld.VarRef(glbuild.Float2, AttrTexCoord, ""),
		varyingColor:            bld.VarRef(glbuild.Float4, AttrColor, ""),
		varyingNormal:           normal,
		varyingToLight: bld.OpType(glbuild.Float3,
			bld.VarRef(glbuild.Float3, UniformLightPos, ""), eyePos, "-", true, true),
		varyingLitColor: bld.IVarCheck(SwitchPerVertexLighting, lit),
		varyingFogDepth: bld.Custom(glbuild.Float, "", ".w", clipPos),
	}
}

func (e *StandardEffect) pixelChannels() map[string]glbuild.Handle {
	bld := &e.bld
	texCoord := bld.VarRef(glbuild.Float2, varyingTexCoord, "")
	base := bld.TexRef(TexDiffuse, SwitchDiffuseMode, texCoord,
		bld.FallbackRef(glbuild.Float4, varyingColor, UniformDiffuseColor, "vec4(1.0)"))

	normal := bld.TempRef("tNormal", bld.Custom(glbuild.Float3, "normalize(", ")",
		bld.VarRef(glbuild.Float3, varyingNormal, "")))
	toLight := bld.VarRef(glbuild.Float3, varyingToLight, "")
	lightDir := bld.Fallback(
		bld.TempRef("tLightDir", bld.Custom(glbuild.Float3, "normalize(", ")", toLight)),
		bld.VarRef(glbuild.Float3, UniformLightDir, ""),
	)
	spot := bld.IVarCheck(SwitchSpotlight, bld.SpotlightAtten(lightDir,
		bld.VarRef(glbuild.Float2, UniformSpotParams, ""),
		bld.VarRef(glbuild.Float3, UniformSpotDir, "")))
	atten := bld.TempRef("tAtten", bld.Fallback(
		bld.OpType(glbuild.Float, bld.Attenuator(toLight, bld.VarRef(glbuild.Float3, UniformLightAtten, "")), spot, "*", true, false),
		bld.Float(1),
	))
	lightColor := bld.VarRef(glbuild.Float4, UniformLightColor, "vec4(1.0)")
	eyeDir := bld.VarRef(glbuild.Float3, UniformEyeDir, "vec3(0.0, 0.0, 1.0)")

	specColor := bld.Custom(glbuild.Float4, "vec4(", ", 1.0)", bld.SpecularTex(TexSpecular, texCoord,
		bld.VarRef(glbuild.Float3, UniformSpecular, "")))
	specular := bld.IVarCheck(SwitchSpecular, bld.SpecLighterPow(lightDir, eyeDir, normal, specColor, atten,
		bld.VarRef(glbuild.Float, UniformShininess, "")))
	perPixel := bld.IVarCheck(SwitchPerPixelLighting, bld.AdditiveCombiner(
		bld.Lighter(lightDir, normal, lightColor, atten),
		specular,
	))
	lit := bld.AdditiveCombiner(
		bld.VarRef(glbuild.Float4, UniformAmbient, ""),
		bld.IVarCheck(SwitchPerVertexLighting, bld.VarRef(glbuild.Float4, varyingLitColor, "")),
		perPixel,
	)
	shaded := bld.Op(base, lit, "*", true, false)

	reflDir := bld.Refl(normal, bld.Custom(glbuild.Float3, "-", "", eyeDir))
	reflected := bld.CubeRef(TexEnv, SwitchEnvMode, bld.VarRef(glbuild.Float, UniformReflectivity, ""), reflDir, shaded)

	depth := bld.VarRef(glbuild.Float, varyingFogDepth, "")
	density := bld.VarRef(glbuild.Float, UniformFogDensity, "")
	fog := bld.Fallback(
		bld.IVarCheck(SwitchFogLinear, bld.LinearFog(depth, bld.VarRef(glbuild.Float2, UniformFogRange, ""))),
		bld.IVarCheck(SwitchFogExp, bld.ExpFog(depth, density, false)),
		bld.IVarCheck(SwitchFogExp2, bld.ExpFog(depth, density, true)),
	)
	final := bld.AffineBlend(fog, bld.VarRef(glbuild.Float4, UniformFogColor, "vec4(1.0)"), reflected)
	return map[string]glbuild.Handle{ChannelFragColor: final}
}
