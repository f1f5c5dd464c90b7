package glbuild

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
)

// ShaderObject is a GLSL library function a node needs declared before main,
// such as the attenuation helpers of glsllib.
type ShaderObject struct {
	// NamePtr is the name of the function inside its source.
	NamePtr []byte
	// funcSource is the complete function definition.
	funcSource []byte
}

// MakeShaderFunction parses the name of the function defined in shaderDef
// and returns it as a [ShaderObject].
func MakeShaderFunction(shaderDef []byte) (sf ShaderObject, err error) {
	shaderDef = bytes.TrimSpace(shaderDef)
	fnNameEnd := bytes.IndexByte(shaderDef, '(')
	fnNameStart := bytes.IndexByte(shaderDef, ' ')
	if fnNameEnd < 0 || fnNameStart < 0 || fnNameStart > fnNameEnd {
		return ShaderObject{}, errors.New("unable to parse function name")
	}
	name := shaderDef[fnNameStart:fnNameEnd]
	name = bytes.TrimSpace(name)
	if len(name) == 0 {
		return ShaderObject{}, errors.New("empty function name")
	}
	sf = ShaderObject{
		NamePtr:    name,
		funcSource: shaderDef,
	}
	return sf, nil
}

// Validate checks the object holds a named function definition.
func (obj ShaderObject) Validate() error {
	if len(obj.NamePtr) == 0 {
		return errors.New("shader object zero-length name")
	} else if len(obj.funcSource) == 0 {
		return fmt.Errorf("shader object %q has no function source", obj.NamePtr)
	}
	return nil
}

// addFunction appends obj to the stage's library functions unless an
// identical function with the same name was already added.
func (st *stageState) addFunction(obj ShaderObject) error {
	err := obj.Validate()
	if err != nil {
		return err
	}
	nameHash := hash(obj.NamePtr, 0)
	bodyHash := hash(obj.funcSource, nameHash) // Body hash mixes name as well.
	gotBodyHash, nameConflict := st.libNames[nameHash]
	if nameConflict {
		if gotBodyHash == bodyHash {
			return nil // Function already added and is identical, skip.
		}
		return fmt.Errorf("duplicate function name %q w/ distinct body:\n%s", obj.NamePtr, obj.funcSource)
	}
	st.libNames[nameHash] = bodyHash
	st.libs = append(st.libs, obj)
	return nil
}

// ShaderPair is the result of compiling a material: the source text of both
// stages and the variables each declares, so a host can bind them.
type ShaderPair struct {
	Vertex string
	Pixel  string
	// VertexInputs are the attributes and uniforms the vertex stage reads.
	VertexInputs []Var
	// PixelInputs are the uniforms and samplers the pixel stage reads.
	PixelInputs []Var
	// Varyings are written by the vertex stage and read by the pixel stage.
	Varyings []Var
	// Outputs are the pixel stage outputs.
	Outputs []Var
}

// Hash returns a key identifying the sources of the pair, suitable for
// caching compiled programs of materials that generate identical shaders.
func (sp *ShaderPair) Hash() uint64 {
	h := hash([]byte(sp.Vertex), 0)
	return hash([]byte(sp.Pixel), h)
}

// Uniforms returns the uniforms of both stages, each name once.
func (sp *ShaderPair) Uniforms() []Var {
	var vars []Var
	seen := make(StrSet)
	for _, v := range append(sp.VertexInputs[:len(sp.VertexInputs):len(sp.VertexInputs)], sp.PixelInputs...) {
		if v.Kind == Uniform && !seen.Has(v.Name) {
			seen.Add(v.Name)
			vars = append(vars, v)
		}
	}
	return vars
}

// AppendFloatLiteral appends the shortest GLSL float literal representing v.
// Integral values keep a trailing ".0" so the literal is never parsed as an int.
func AppendFloatLiteral(b []byte, v float32) []byte {
	start := len(b)
	b = strconv.AppendFloat(b, float64(v), 'f', -1, 32)
	if bytes.IndexByte(b[start:], '.') < 0 {
		b = append(b, ".0"...)
	}
	return b
}

// AppendVec2Literal appends v as a vec2 constructor.
func AppendVec2Literal(b []byte, v ms2.Vec) []byte {
	return appendVecLiteral(b, "vec2(", v.X, v.Y)
}

// AppendVec3Literal appends v as a vec3 constructor.
func AppendVec3Literal(b []byte, v ms3.Vec) []byte {
	return appendVecLiteral(b, "vec3(", v.X, v.Y, v.Z)
}

// AppendVec4Literal appends v as a vec4 constructor.
func AppendVec4Literal(b []byte, v [4]float32) []byte {
	return appendVecLiteral(b, "vec4(", v[:]...)
}

func appendVecLiteral(b []byte, ctor string, s ...float32) []byte {
	b = append(b, ctor...)
	for i, v := range s {
		b = AppendFloatLiteral(b, v)
		if i != len(s)-1 {
			b = append(b, ", "...)
		}
	}
	return append(b, ')')
}

func hash(b []byte, in uint64) uint64 {
	x := in
	for len(b) >= 8 {
		x ^= binary.LittleEndian.Uint64(b)
		x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
		x = (x ^ (x >> 27)) * 0x94d049bb133111eb
		x ^= x >> 31
		b = b[8:]

	}
	if len(b) > 0 {
		var buf [8]byte
		copy(buf[:], b)
		x ^= binary.LittleEndian.Uint64(buf[:])
		x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
		x = (x ^ (x >> 27)) * 0x94d049bb133111eb
		x ^= x >> 31
	}
	return x
}

// FormatGraph returns a compact description of the node tree rooted at h,
// i.e. "opNode(varRef,texRef(varRef))". Shared nodes are printed at each use.
func FormatGraph(g *Graph, h Handle) string {
	var sb strings.Builder
	var visit func(h Handle)
	visit = func(h Handle) {
		n := g.Node(h)
		if n == nil {
			sb.WriteString("nil")
			return
		}
		tp := reflect.TypeOf(n)
		if tp.Kind() == reflect.Pointer {
			tp = tp.Elem()
		}
		sb.WriteString(tp.Name())
		first := true
		n.ForEachChild(func(child Handle) error {
			if child == NoNode {
				return nil
			}
			if first {
				sb.WriteByte('(')
				first = false
			} else {
				sb.WriteByte(',')
			}
			visit(child)
			return nil
		})
		if !first {
			sb.WriteByte(')')
		}
	}
	visit(h)
	return sb.String()
}
