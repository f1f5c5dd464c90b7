package glsllib

import (
	_ "embed"

	"github.com/soypat/gshade/glbuild"
)

//go:embed atten.glsl
var attenSrc []byte

// Attenuation is the distance falloff of a point light. atten holds the
// constant, linear and quadratic coefficients:
//
//	float gshadeAtten(vec3 toLight, vec3 atten)
func Attenuation() glbuild.ShaderObject {
	obj, _ := glbuild.MakeShaderFunction(attenSrc)
	return obj
}

//go:embed spot.glsl
var spotSrc []byte

// Spotlight is the cone falloff of a spotlight pointing along dir. params
// holds the cosine of the cutoff angle and the falloff exponent:
//
//	float gshadeSpot(vec3 lightDir, vec3 dir, vec2 params)
func Spotlight() glbuild.ShaderObject {
	obj, _ := glbuild.MakeShaderFunction(spotSrc)
	return obj
}

//go:embed specular.glsl
var specularSrc []byte

// Specular is the Blinn half-vector specular term for normal n, light
// direction l and eye direction e raised to power p:
//
//	float gshadeSpecular(vec3 n, vec3 l, vec3 e, float p)
func Specular() glbuild.ShaderObject {
	obj, _ := glbuild.MakeShaderFunction(specularSrc)
	return obj
}
