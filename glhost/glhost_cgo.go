//go:build !tinygo && cgo

package glhost

import (
	"errors"
	"fmt"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/soypat/glgl/v4.6-core/glgl"
	"github.com/soypat/gshade/glbuild"
	"github.com/soypat/gshade/material"
)

// InitWindow opens a window with a current OpenGL 4.6 context. A 1x1
// window is enough to compile programs. terminate must be called when done.
func InitWindow(title string, width, height int) (terminate func(), err error) {
	_, terminate, err = glgl.InitWithCurrentWindow33(glgl.WindowConfig{
		Title:   title,
		Version: [2]int{4, 6},
		Width:   width,
		Height:  height,
	})
	if err != nil {
		return nil, err
	}
	if glfw.GetCurrentContext() == nil {
		terminate()
		return nil, errors.New("no current OpenGL context after init")
	}
	return terminate, nil
}

// Program is a linked vertex and pixel shader program.
type Program struct {
	prog glgl.Program
	pair *glbuild.ShaderPair
}

// Compile compiles and links pair. It requires a current OpenGL context.
func Compile(pair *glbuild.ShaderPair) (*Program, error) {
	prog, err := glgl.CompileProgram(glgl.ShaderSource{
		Vertex:   pair.Vertex + "\x00",
		Fragment: pair.Pixel + "\x00",
	})
	if err != nil {
		return nil, fmt.Errorf("%s\n%s\n%w", pair.Vertex, pair.Pixel, err)
	}
	return &Program{prog: prog, pair: pair}, nil
}

// Pair returns the sources the program was compiled from.
func (p *Program) Pair() *glbuild.ShaderPair { return p.pair }

func (p *Program) Bind() { p.prog.Bind() }
func (p *Program) Unbind() { p.prog.Unbind() }

// Delete releases the program. It must not be used after.
func (p *Program) Delete() { p.prog.Delete() }

// ApplyDefaults binds the program and uploads the defaults of m and the
// texture unit of each sampler, see [Defaults] and [Samplers].
func (p *Program) ApplyDefaults(m *material.Material) error {
	p.Bind()
	defer p.Unbind()
	err := p.SetUniforms(Defaults(m, p.pair)...)
	if err != nil {
		return err
	}
	for unit, name := range Samplers(p.pair) {
		loc, err := p.prog.UniformLocation(name + "\x00")
		if err != nil {
			return err
		}
		gl.Uniform1i(loc, int32(unit))
	}
	return glgl.Err()
}

// SetUniforms uploads vals to the bound program.
func (p *Program) SetUniforms(vals ...UniformValue) error {
	for _, val := range vals {
		err := val.validate()
		if err != nil {
			return err
		}
		loc, err := p.prog.UniformLocation(val.Name + "\x00")
		if err != nil {
			return err
		}
		v := val.Value
		switch val.Type {
		case glbuild.Float:
			gl.Uniform1f(loc, v[0])
		case glbuild.Float2:
			gl.Uniform2f(loc, v[0], v[1])
		case glbuild.Float3:
			gl.Uniform3f(loc, v[0], v[1], v[2])
		case glbuild.Float4:
			gl.Uniform4f(loc, v[0], v[1], v[2], v[3])
		case glbuild.Mat2:
			gl.UniformMatrix2fv(loc, 1, false, &v[0])
		case glbuild.Mat3:
			gl.UniformMatrix3fv(loc, 1, false, &v[0])
		case glbuild.Mat4:
			gl.UniformMatrix4fv(loc, 1, false, &v[0])
		case glbuild.Int:
			gl.Uniform1i(loc, int32(v[0]))
		default:
			return fmt.Errorf("uniform %q: cannot upload %s", val.Name, val.Type)
		}
		err = glgl.Err()
		if err != nil {
			return fmt.Errorf("uniform %q: %w", val.Name, err)
		}
	}
	return nil
}
