//go:build tinygo || !cgo

package glhost

import (
	"github.com/soypat/gshade/glbuild"
	"github.com/soypat/gshade/material"
)

// Program is a linked vertex and pixel shader program.
type Program struct {
	pair *glbuild.ShaderPair
}

// InitWindow opens a window with a current OpenGL 4.6 context.
func InitWindow(title string, width, height int) (terminate func(), err error) {
	return nil, errNoCGO
}

// Compile compiles and links pair. It requires a current OpenGL context.
func Compile(pair *glbuild.ShaderPair) (*Program, error) {
	return nil, errNoCGO
}

func (p *Program) Pair() *glbuild.ShaderPair { return p.pair }
func (p *Program) Bind() {}
func (p *Program) Unbind() {}
func (p *Program) Delete() {}

func (p *Program) ApplyDefaults(m *material.Material) error { return errNoCGO }

func (p *Program) SetUniforms(vals ...UniformValue) error { return errNoCGO }
