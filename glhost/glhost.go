// Package glhost loads generated shader pairs into OpenGL programs and
// uploads material defaults to them. Compiling requires CGo and a current
// OpenGL 4.6 context, see [InitWindow].
package glhost

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/soypat/gshade/glbuild"
	"github.com/soypat/gshade/material"
)

var errNoCGO = errors.New("OpenGL host requires CGo and is not supported on TinyGo")

// UniformValue is a value to upload to a uniform of a program.
type UniformValue struct {
	Name  string
	Type  glbuild.VarType
	Value []float32
}

// validate checks that v holds exactly the number of components of its type.
func (v UniformValue) validate() error {
	want := 0
	switch v.Type {
	case glbuild.Mat2:
		want = 4
	case glbuild.Mat3:
		want = 9
	case glbuild.Mat4:
		want = 16
	default:
		want = v.Type.Components()
	}
	if want == 0 {
		return fmt.Errorf("uniform %q: cannot upload %s", v.Name, v.Type)
	} else if len(v.Value) != want {
		return fmt.Errorf("uniform %q: %s wants %d values, got %d", v.Name, v.Type, want, len(v.Value))
	}
	return nil
}

// Defaults returns the default values m declares for the uniforms pair
// reads, in the order of [glbuild.ShaderPair.Uniforms]. Uniforms without a
// default, whose declared type differs from the generated one, or whose
// default has the wrong number of components are skipped.
func Defaults(m *material.Material, pair *glbuild.ShaderPair) []UniformValue {
	var vals []UniformValue
	for _, v := range pair.Uniforms() {
		in, ok := m.Uniform(v.Name)
		if !ok || len(in.Default) == 0 {
			continue
		}
		t, err := in.VarType()
		if err != nil || t != v.Type {
			continue
		}
		uv := UniformValue{Name: v.Name, Type: t, Value: in.Default}
		if uv.validate() != nil {
			continue
		}
		vals = append(vals, uv)
	}
	return vals
}

// Samplers returns the sampler uniforms of pair. A sampler is bound to the
// texture unit of its index.
func Samplers(pair *glbuild.ShaderPair) []string {
	var names []string
	for _, v := range pair.Uniforms() {
		if v.Type.IsSampler() {
			names = append(names, v.Name)
		}
	}
	return names
}

// Cache holds compiled programs keyed by [glbuild.ShaderPair.Hash] so that
// materials generating identical sources share one program.
type Cache struct {
	mu      sync.Mutex
	progs   map[uint64]*Program
	compile func(*glbuild.ShaderPair) (*Program, error)
	log     *slog.Logger
}

// NewCache returns an empty program cache. A nil logger uses slog.Default.
func NewCache(logger *slog.Logger) *Cache {
	return newCache(Compile, logger)
}

func newCache(compile func(*glbuild.ShaderPair) (*Program, error), logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{progs: make(map[uint64]*Program), compile: compile, log: logger}
}

// Program returns the program compiled from pair, compiling it on first use.
func (c *Cache) Program(pair *glbuild.ShaderPair) (*Program, error) {
	key := pair.Hash()
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.progs[key]; ok {
		if p.pair.Vertex == pair.Vertex && p.pair.Pixel == pair.Pixel {
			return p, nil
		}
		c.log.Warn("shader hash collision, compiling uncached", slog.Uint64("hash", key))
		return c.compile(pair)
	}
	p, err := c.compile(pair)
	if err != nil {
		return nil, err
	}
	c.log.Debug("program compiled", slog.Uint64("hash", key), slog.Int("cached", len(c.progs)+1))
	c.progs[key] = p
	return p, nil
}

// Len returns the number of cached programs.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.progs)
}

// Delete deletes every cached program and empties the cache.
func (c *Cache) Delete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, p := range c.progs {
		p.Delete()
		delete(c.progs, key)
	}
}
