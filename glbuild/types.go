package glbuild

import (
	"errors"
	"fmt"
)

// VarType is the closed set of shading value types a node or variable may have.
type VarType uint8

const (
	Invalid VarType = iota
	Float
	Float2
	Float3
	Float4
	Mat2
	Mat3
	Mat4
	Int
	Sampler2D
	SamplerCube
)

var typeNames = [...]string{
	Invalid:     "invalid",
	Float:       "float",
	Float2:      "vec2",
	Float3:      "vec3",
	Float4:      "vec4",
	Mat2:        "mat2",
	Mat3:        "mat3",
	Mat4:        "mat4",
	Int:         "int",
	Sampler2D:   "sampler2D",
	SamplerCube: "samplerCube",
}

// String returns the GLSL type name of t.
func (t VarType) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("VarType(%d)", uint8(t))
}

// IsSampler reports whether t is an opaque texture sampler type.
func (t VarType) IsSampler() bool { return t == Sampler2D || t == SamplerCube }

// Components returns the number of scalar components of a vector or scalar type
// and 0 for matrices, samplers and invalid types.
func (t VarType) Components() int {
	switch t {
	case Float, Int:
		return 1
	case Float2:
		return 2
	case Float3:
		return 3
	case Float4:
		return 4
	}
	return 0
}

// ParseVarType returns the VarType with GLSL name s.
func ParseVarType(s string) (VarType, error) {
	for i := Float; int(i) < len(typeNames); i++ {
		if typeNames[i] == s {
			return i, nil
		}
	}
	return Invalid, fmt.Errorf("unknown GLSL type %q", s)
}

// Stage is a programmable pipeline stage.
type Stage uint8

const (
	StageVertex Stage = iota
	StagePixel
	numStages
)

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StagePixel:
		return "pixel"
	}
	return fmt.Sprintf("Stage(%d)", uint8(s))
}

// VarKind classifies where a variable visible to a stage comes from.
type VarKind uint8

const (
	// Attribute is a per-vertex input. Only visible in the vertex stage.
	Attribute VarKind = iota
	// Uniform is a per-draw constant, including texture samplers.
	Uniform
	// Varying is a vertex stage output interpolated into the pixel stage.
	Varying
	// Temp is a temporary hoisted by the generator.
	Temp
	// Output is a pixel stage output.
	Output
)

func (k VarKind) String() string {
	switch k {
	case Attribute:
		return "attribute"
	case Uniform:
		return "uniform"
	case Varying:
		return "varying"
	case Temp:
		return "temp"
	case Output:
		return "output"
	}
	return fmt.Sprintf("VarKind(%d)", uint8(k))
}

// Var is a named, typed variable.
type Var struct {
	Name string
	Type VarType
	Kind VarKind
}

// Material is the input side of a compilation: the variables a renderable
// supplies to each stage and its integer feature switches.
type Material interface {
	// Inputs returns the variables visible to the stage.
	Inputs(stage Stage) []Var
	// IVar returns the integer switch name and whether it is set.
	IVar(name string) (int, bool)
}

// Build-time inconsistencies. These indicate a malformed graph, never a
// material that lacks some input.
var (
	ErrTempCycle     = errors.New("temporary dependency cycle")
	ErrDuplicateTemp = errors.New("duplicate temporary name")
	ErrUnknownTemp   = errors.New("reference to unregistered temporary")
	ErrTempScope     = errors.New("function temporary references value temporary")
	ErrTypeMismatch  = errors.New("type mismatch")
	ErrBadHandle     = errors.New("invalid node handle")
	ErrContextReused = errors.New("shader context already generated")
)

// ValidIdent reports whether name is a usable GLSL identifier that does
// not collide with the reserved gl_ prefix.
func ValidIdent(name string) bool {
	if name == "" || len(name) > 1024 {
		return false
	}
	if len(name) > 3 && name[:3] == "gl_" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if !isIdentChar(c) || (i == 0 && c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

func isIdentChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// AppendOperand appends expr to dst, enclosed in parentheses unless it is
// already an atom such as an identifier, a literal, a call or a parenthesized
// expression, optionally followed by member selectors. The result can be
// used as the operand of any operator or swizzle.
func AppendOperand(dst, expr []byte) []byte {
	if isAtom(expr) {
		return append(dst, expr...)
	}
	dst = append(dst, '(')
	dst = append(dst, expr...)
	return append(dst, ')')
}

func isAtom(expr []byte) bool {
	if len(expr) == 0 {
		return false
	}
	depth := 0
	for _, c := range expr {
		switch {
		case c == '(' || c == '[':
			depth++
		case c == ')' || c == ']':
			depth--
			if depth < 0 {
				return false
			}
		case depth == 0 && !isIdentChar(c) && c != '.':
			return false
		}
	}
	return depth == 0
}
