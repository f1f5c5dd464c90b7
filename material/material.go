// Package material implements the input side of shader compilation: the
// attributes, uniforms and textures a renderable supplies to each stage and
// the integer switches that enable optional effects. Materials are usually
// loaded from TOML or YAML files.
package material

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/gshade/glbuild"
)

// Stage visibility of a uniform or texture.
const (
	StageBoth   = ""
	StageVertex = "vertex"
	StagePixel  = "pixel"
)

// Texture kinds.
const (
	Texture2D   = "2d"
	TextureCube = "cube"
)

// Material is a concrete set of shader inputs. It implements [glbuild.Material].
type Material struct {
	Name string `toml:"name" yaml:"name"`
	// Attributes are per-vertex inputs, visible to the vertex stage only.
	Attributes []Input `toml:"attributes,omitempty" yaml:"attributes,omitempty"`
	// Uniforms are per-draw constants.
	Uniforms []Input `toml:"uniforms,omitempty" yaml:"uniforms,omitempty"`
	// Textures are sampler uniforms.
	Textures []Texture `toml:"textures,omitempty" yaml:"textures,omitempty"`
	// Switches are the integer feature switches queried by the shading graph.
	Switches map[string]int `toml:"switches,omitempty" yaml:"switches,omitempty"`
}

// Input is a named, typed shader input with an optional default value.
type Input struct {
	Name string `toml:"name" yaml:"name"`
	// Type is the GLSL type name, i.e. "vec3".
	Type string `toml:"type" yaml:"type"`
	// Stage restricts a uniform to "vertex" or "pixel". Empty is both.
	Stage string `toml:"stage,omitempty" yaml:"stage,omitempty"`
	// Default holds the value components, column major for matrices.
	Default []float32 `toml:"default,omitempty" yaml:"default,omitempty"`
}

// Texture is a sampler uniform.
type Texture struct {
	Name string `toml:"name" yaml:"name"`
	// Kind is "2d" or "cube". Empty is "2d".
	Kind string `toml:"kind,omitempty" yaml:"kind,omitempty"`
	// Stage restricts the texture to "vertex" or "pixel". Empty is both.
	Stage string `toml:"stage,omitempty" yaml:"stage,omitempty"`
	// Path is the image file the host loads into the texture unit.
	Path string `toml:"path,omitempty" yaml:"path,omitempty"`
}

var _ glbuild.Material = (*Material)(nil)

// Inputs implements [glbuild.Material]. Inputs with invalid types are
// skipped, see [Material.Validate].
func (m *Material) Inputs(stage glbuild.Stage) []glbuild.Var {
	var vars []glbuild.Var
	if stage == glbuild.StageVertex {
		for _, in := range m.Attributes {
			t, err := glbuild.ParseVarType(in.Type)
			if err == nil {
				vars = append(vars, glbuild.Var{Name: in.Name, Type: t, Kind: glbuild.Attribute})
			}
		}
	}
	for _, in := range m.Uniforms {
		t, err := glbuild.ParseVarType(in.Type)
		if err == nil && visible(in.Stage, stage) {
			vars = append(vars, glbuild.Var{Name: in.Name, Type: t, Kind: glbuild.Uniform})
		}
	}
	for _, tex := range m.Textures {
		t, err := tex.VarType()
		if err == nil && visible(tex.Stage, stage) {
			vars = append(vars, glbuild.Var{Name: tex.Name, Type: t, Kind: glbuild.Uniform})
		}
	}
	return vars
}

func visible(inputStage string, stage glbuild.Stage) bool {
	return inputStage == StageBoth || inputStage == stage.String()
}

// IVar implements [glbuild.Material].
func (m *Material) IVar(name string) (int, bool) {
	v, ok := m.Switches[name]
	return v, ok
}

// SetSwitch sets the integer switch name to v.
func (m *Material) SetSwitch(name string, v int) {
	if m.Switches == nil {
		m.Switches = make(map[string]int)
	}
	m.Switches[name] = v
}

// SwitchNames returns the names of the set switches in sorted order.
func (m *Material) SwitchNames() []string {
	return slices.Sorted(maps.Keys(m.Switches))
}

// Uniform returns the uniform named name.
func (m *Material) Uniform(name string) (Input, bool) {
	for _, in := range m.Uniforms {
		if in.Name == name {
			return in, true
		}
	}
	return Input{}, false
}

// Validate checks names are valid identifiers declared once, types are
// known and defaults have as many components as their type.
func (m *Material) Validate() error {
	var errs []error
	seen := make(glbuild.StrSet)
	checkName := func(kind, name string) {
		if !glbuild.ValidIdent(name) {
			errs = append(errs, fmt.Errorf("%s: invalid name %q", kind, name))
		} else if seen.Has(name) {
			errs = append(errs, fmt.Errorf("%s %q declared twice", kind, name))
		}
		seen.Add(name)
	}
	checkStage := func(kind, name, stage string) {
		switch stage {
		case StageBoth, StageVertex, StagePixel:
		default:
			errs = append(errs, fmt.Errorf("%s %q: unknown stage %q", kind, name, stage))
		}
	}
	for _, in := range m.Attributes {
		checkName("attribute", in.Name)
		if in.Stage != StageBoth && in.Stage != StageVertex {
			errs = append(errs, fmt.Errorf("attribute %q: attributes are vertex stage inputs", in.Name))
		}
		if err := in.validate(); err != nil {
			errs = append(errs, fmt.Errorf("attribute %q: %w", in.Name, err))
		}
	}
	for _, in := range m.Uniforms {
		checkName("uniform", in.Name)
		checkStage("uniform", in.Name, in.Stage)
		if err := in.validate(); err != nil {
			errs = append(errs, fmt.Errorf("uniform %q: %w", in.Name, err))
		}
	}
	for _, tex := range m.Textures {
		checkName("texture", tex.Name)
		checkStage("texture", tex.Name, tex.Stage)
		if _, err := tex.VarType(); err != nil {
			errs = append(errs, fmt.Errorf("texture %q: %w", tex.Name, err))
		}
	}
	for name := range m.Switches {
		if !glbuild.ValidIdent(name) {
			errs = append(errs, fmt.Errorf("switch: invalid name %q", name))
		}
	}
	return errors.Join(errs...)
}

func (in Input) validate() error {
	t, err := in.VarType()
	if err != nil {
		return err
	} else if t.IsSampler() {
		return fmt.Errorf("%s must be declared as a texture", t)
	}
	if len(in.Default) > 0 && len(in.Default) != components(t) {
		return fmt.Errorf("%s default has %d components, want %d", t, len(in.Default), components(t))
	}
	return nil
}

func components(t glbuild.VarType) int {
	switch t {
	case glbuild.Mat2:
		return 4
	case glbuild.Mat3:
		return 9
	case glbuild.Mat4:
		return 16
	}
	return t.Components()
}

// VarType returns the parsed type of the input.
func (in Input) VarType() (glbuild.VarType, error) {
	return glbuild.ParseVarType(in.Type)
}

// VarType returns the sampler type of the texture.
func (tex Texture) VarType() (glbuild.VarType, error) {
	switch tex.Kind {
	case "", Texture2D:
		return glbuild.Sampler2D, nil
	case TextureCube:
		return glbuild.SamplerCube, nil
	}
	return glbuild.Invalid, fmt.Errorf("unknown texture kind %q", tex.Kind)
}

// Float returns the default of a float input.
func (in Input) Float() (float32, bool) {
	if in.Type != "float" || len(in.Default) != 1 {
		return 0, false
	}
	return in.Default[0], true
}

// Vec2 returns the default of a vec2 input.
func (in Input) Vec2() (ms2.Vec, bool) {
	if in.Type != "vec2" || len(in.Default) != 2 {
		return ms2.Vec{}, false
	}
	return ms2.Vec{X: in.Default[0], Y: in.Default[1]}, true
}

// Vec3 returns the default of a vec3 input.
func (in Input) Vec3() (ms3.Vec, bool) {
	if in.Type != "vec3" || len(in.Default) != 3 {
		return ms3.Vec{}, false
	}
	return ms3.Vec{X: in.Default[0], Y: in.Default[1], Z: in.Default[2]}, true
}

// Vec4 returns the default of a vec4 input.
func (in Input) Vec4() ([4]float32, bool) {
	if in.Type != "vec4" || len(in.Default) != 4 {
		return [4]float32{}, false
	}
	return [4]float32(in.Default), true
}
