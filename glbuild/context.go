package glbuild

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"slices"
)

// ChannelPosition is the vertex stage channel written to gl_Position.
const ChannelPosition = "position"

// VersionStr is the default version directive of generated sources.
const VersionStr = "#version 330 core\n"

// Config controls the text the [Context] assembles.
type Config struct {
	// Version is the version directive written first in both stages.
	Version string
	// Precision, if set, is the default float precision of the pixel stage
	// ("lowp", "mediump" or "highp") and qualifies its temporaries.
	Precision string
	// Logger receives debug records about generation decisions. Nil uses slog.Default.
	Logger *slog.Logger
}

// DefaultConfig returns a configuration targeting desktop GLSL 3.30 core.
func DefaultConfig() Config {
	return Config{Version: VersionStr}
}

func (cfg Config) validate() error {
	switch cfg.Precision {
	case "", "lowp", "mediump", "highp":
	default:
		return fmt.Errorf("invalid precision %q", cfg.Precision)
	}
	return nil
}

// Context compiles one material against a vertex and a pixel [ShaderDef].
// It owns every piece of mutable generation state: the temporaries of each
// stage, the library functions in use and the build errors found so far.
// A Context generates once; compile each material with a new one.
type Context struct {
	cfg       Config
	log       *slog.Logger
	vs, ps    *ShaderDef
	material  Material
	stages    [numStages]stageState
	errs      []error
	generated bool
}

type stageState struct {
	funcs, vals TempMap
	memo        map[tempKey]tempMemo
	tempUses    []string
	libs        []ShaderObject
	libNames    map[uint64]uint64
}

// NewContext returns a context compiling materials with the vertex
// definition vs and the pixel definition ps.
func NewContext(vs, ps *ShaderDef, cfg Config) (*Context, error) {
	if vs == nil || ps == nil {
		return nil, errors.New("nil shader definition")
	}
	err := cfg.validate()
	if err != nil {
		return nil, err
	}
	if cfg.Version == "" {
		cfg.Version = VersionStr
	}
	c := &Context{cfg: cfg, vs: vs, ps: ps, log: cfg.Logger}
	if c.log == nil {
		c.log = slog.Default()
	}
	for i := range c.stages {
		c.stages[i].memo = make(map[tempKey]tempMemo)
		c.stages[i].libNames = make(map[uint64]uint64)
	}
	return c, nil
}

// AddTempFunc registers a function temporary in stage. Names are unique
// per stage across both temporary kinds.
func (c *Context) AddTempFunc(stage Stage, t VarType, name, body string) error {
	return c.addTemp(stage, TempFunc, t, name, body)
}

// AddTempVal registers a value temporary in stage. Names are unique per
// stage across both temporary kinds.
func (c *Context) AddTempVal(stage Stage, t VarType, name, body string) error {
	return c.addTemp(stage, TempValue, t, name, body)
}

func (c *Context) addTemp(stage Stage, kind TempKind, t VarType, name, body string) error {
	if stage >= numStages {
		return fmt.Errorf("invalid stage %d", stage)
	} else if t == Invalid || t.IsSampler() {
		return fmt.Errorf("temporary %q: %w: cannot hold %s", name, ErrTypeMismatch, t)
	}
	st := &c.stages[stage]
	_, isFunc := st.funcs.Get(name)
	_, isVal := st.vals.Get(name)
	if isFunc || isVal {
		return fmt.Errorf("%w: %q", ErrDuplicateTemp, name)
	}
	dst := &st.vals
	if kind == TempFunc {
		dst = &st.funcs
	}
	err := dst.Add(name, TempInfo{Type: t, Body: body})
	if err != nil {
		return err
	}
	c.log.Debug("temporary registered", slog.String("stage", stage.String()), slog.String("name", name), slog.Bool("func", kind == TempFunc))
	return nil
}

// IVar returns the material's integer switch name, or def if the material
// does not set it or no material is being compiled.
func (c *Context) IVar(name string, def int) int {
	if c.material == nil {
		return def
	}
	v, ok := c.material.IVar(name)
	if !ok {
		return def
	}
	return v
}

// Temps returns the value and function temporaries registered in stage.
func (c *Context) Temps(stage Stage) (vals, funcs *TempMap) {
	return &c.stages[stage].vals, &c.stages[stage].funcs
}

// channelExpr is a successfully generated output channel.
type channelExpr struct {
	v    Var
	expr string
}

// generateStage generates every channel of def against inputs. Channels
// whose root fails are omitted. Successful channels other than the vertex
// position are added to outputs with the given kind.
func (c *Context) generateStage(stage Stage, outputs, inputs *Layout, def *ShaderDef, kind VarKind) []channelExpr {
	s := &Scope{ctx: c, graph: def.graph, stage: stage, layout: inputs, channels: def.channels}
	var exprs []channelExpr
	var buf []byte
	for _, ch := range def.channels {
		h := def.roots[ch]
		var ok bool
		buf, ok = s.Expr(buf[:0], h)
		if !ok {
			c.log.Debug("channel omitted", slog.String("stage", stage.String()), slog.String("channel", ch))
			continue
		}
		out := channelExpr{v: Var{Name: ch, Type: def.graph.Node(h).Type(), Kind: kind}, expr: string(buf)}
		if out.v.Type.IsSampler() || out.v.Type == Invalid {
			s.Errorf("%s stage output %q: %w: cannot output %s", stage, ch, ErrTypeMismatch, out.v.Type)
			continue
		}
		if v, ok := inputs.Lookup(ch); ok {
			if v.Kind == Temp {
				s.Errorf("%w: %s stage output %q shadowed by temporary", ErrDuplicateTemp, stage, ch)
			} else {
				s.Errorf("%s stage output %q shadows %s", stage, ch, v.Kind)
			}
			continue
		}
		if stage == StageVertex && ch == ChannelPosition {
			if out.v.Type != Float4 {
				s.Errorf("%w: vertex position is %s, want vec4", ErrTypeMismatch, out.v.Type)
				continue
			}
			out.v.Name = "gl_Position"
		} else if err := outputs.Add(out.v); err != nil {
			s.Errorf("%s stage output: %w", stage, err)
			continue
		}
		exprs = append(exprs, out)
	}
	st := &c.stages[stage]
	for _, out := range exprs {
		// Temporaries registered on the context directly never enter the layout.
		_, isVal := st.vals.Get(out.v.Name)
		_, isFunc := st.funcs.Get(out.v.Name)
		if isVal || isFunc {
			s.Errorf("%w: %s stage output %q shadowed by temporary", ErrDuplicateTemp, stage, out.v.Name)
		}
	}
	for _, name := range st.tempUses {
		if _, ok := st.vals.Get(name); !ok {
			s.Errorf("%w: %s stage uses %q", ErrUnknownTemp, stage, name)
		}
	}
	return exprs
}

// Generate compiles m into a vertex and pixel source pair. The vertex stage
// is generated first; its outputs become pixel stage inputs, and those the
// pixel stage never reads are dropped from the vertex source along with the
// temporaries only they referenced.
func (c *Context) Generate(m Material) (*ShaderPair, error) {
	if c.generated {
		return nil, ErrContextReused
	} else if m == nil {
		return nil, errors.New("nil material")
	}
	c.generated = true
	c.material = m

	vsIn := c.stageInputs(m, StageVertex)
	varyings := &Layout{}
	vsExprs := c.generateStage(StageVertex, varyings, vsIn, c.vs, Varying)

	psIn := c.stageInputs(m, StagePixel)
	for _, v := range varyings.vars {
		if _, ok := psIn.Lookup(v.Name); ok {
			c.errs = append(c.errs, fmt.Errorf("vertex output %q shadows pixel stage input", v.Name))
			continue
		}
		if err := psIn.Add(v); err != nil {
			c.errs = append(c.errs, fmt.Errorf("pixel stage input: %w", err))
		}
	}
	outputs := &Layout{}
	psExprs := c.generateStage(StagePixel, outputs, psIn, c.ps, Output)
	c.finishStage(StagePixel, psExprs)
	psUsed := c.stages[StagePixel].referenced(psExprs)

	kept := vsExprs[:0]
	for _, ce := range vsExprs {
		if ce.v.Name == "gl_Position" || (psIn.IsUsed(ce.v.Name) && psUsed.Has(ce.v.Name)) {
			kept = append(kept, ce)
			continue
		}
		c.log.Debug("vertex output dropped", slog.String("channel", ce.v.Name))
	}
	vsExprs = kept
	c.finishStage(StageVertex, vsExprs)
	if len(c.errs) > 0 {
		return nil, errors.Join(c.errs...)
	}
	vsUsed := c.stages[StageVertex].referenced(vsExprs)

	var pair ShaderPair
	pair.VertexInputs = filterUsed(vsIn, vsUsed, Attribute, Uniform)
	pair.Varyings = filterVars(vsExprs, Varying)
	pair.PixelInputs = filterUsed(psIn, psUsed, Uniform)
	pair.Outputs = filterVars(psExprs, Output)

	var err error
	var src []byte
	src, err = c.appendStageSource(src, StageVertex, vsExprs, pair.VertexInputs, pair.Varyings)
	if err != nil {
		return nil, err
	}
	pair.Vertex = string(src)
	inputs := append(filterUsed(psIn, psUsed, Varying), pair.PixelInputs...)
	src, err = c.appendStageSource(src[:0], StagePixel, psExprs, inputs, pair.Outputs)
	if err != nil {
		return nil, err
	}
	pair.Pixel = string(src)
	return &pair, nil
}

// stageInputs returns the layout of the material inputs visible to stage.
// Inputs that cannot be declared are build errors.
func (c *Context) stageInputs(m Material, stage Stage) *Layout {
	vars := m.Inputs(stage)
	l := &Layout{}
	for _, v := range vars {
		if stage == StagePixel && v.Kind == Attribute {
			continue // Attributes never reach the pixel stage directly.
		}
		if _, ok := l.Lookup(v.Name); ok {
			continue
		}
		if err := l.Add(v); err != nil {
			c.errs = append(c.errs, fmt.Errorf("%s stage input: %w", stage, err))
		}
	}
	return l
}

// finishStage validates the temporaries of stage and prunes those the
// channel expressions do not reach.
func (c *Context) finishStage(stage Stage, exprs []channelExpr) {
	st := &c.stages[stage]
	err := st.checkTemps()
	if err != nil {
		c.errs = append(c.errs, fmt.Errorf("%s stage: %w", stage, err))
		return
	}
	roots := make([]string, 0, len(exprs)+st.vals.Len())
	for _, ce := range exprs {
		roots = append(roots, ce.expr)
	}
	pruned := pruneTemps(&st.vals, roots)
	for _, name := range st.vals.order {
		roots = append(roots, st.vals.m[name].Body)
	}
	pruned = append(pruned, pruneTemps(&st.funcs, roots)...)
	if len(pruned) > 0 {
		c.log.Debug("unreferenced temporaries pruned", slog.String("stage", stage.String()), slog.Any("names", pruned))
	}
}

// checkTemps validates temporaries before any is pruned so that
// inconsistencies in dead code are reported too.
func (st *stageState) checkTemps() error {
	_, err := OrderTemps(&st.vals)
	if err != nil {
		return err
	}
	_, err = OrderTemps(&st.funcs)
	if err != nil {
		return err
	}
	vals := st.vals.set()
	for _, name := range st.funcs.order {
		if st.funcs.m[name].DependsOn(vals) {
			return fmt.Errorf("%w: %q", ErrTempScope, name)
		}
	}
	return nil
}

// referenced returns the identifiers found in channel expressions and
// remaining temporaries.
func (st *stageState) referenced(exprs []channelExpr) StrSet {
	set := make(StrSet)
	collect := func(text string) {
		forEachIdent(text, func(id string) bool {
			set.Add(id)
			return true
		})
	}
	for _, ce := range exprs {
		collect(ce.expr)
	}
	for _, tm := range []*TempMap{&st.vals, &st.funcs} {
		for _, name := range tm.order {
			collect(tm.m[name].Body)
		}
	}
	return set
}

func filterUsed(l *Layout, referenced StrSet, kinds ...VarKind) []Var {
	var vars []Var
	for i, v := range l.vars {
		if l.used[i] && referenced.Has(v.Name) && slices.Contains(kinds, v.Kind) {
			vars = append(vars, v)
		}
	}
	return vars
}

func filterVars(exprs []channelExpr, kind VarKind) []Var {
	var vars []Var
	for _, ce := range exprs {
		if ce.v.Kind == kind && ce.v.Name != "gl_Position" {
			vars = append(vars, ce.v)
		}
	}
	return vars
}

// appendStageSource assembles the source text of a stage:
//
//	<version>
//	[precision <p> float;]
//	in/uniform/out declarations
//	library functions
//	function temporaries
//	void main() {
//		value temporaries
//		channel assignments
//	}
func (c *Context) appendStageSource(dst []byte, stage Stage, exprs []channelExpr, inputs, outputs []Var) ([]byte, error) {
	st := &c.stages[stage]
	precision := ""
	if stage == StagePixel {
		precision = c.cfg.Precision
	}
	dst = append(dst, c.cfg.Version...)
	if len(c.cfg.Version) > 0 && c.cfg.Version[len(c.cfg.Version)-1] != '\n' {
		dst = append(dst, '\n')
	}
	if precision != "" {
		dst = append(dst, "precision "...)
		dst = append(dst, precision...)
		dst = append(dst, " float;\n"...)
	}
	dst = append(dst, '\n')
	for _, v := range inputs {
		switch v.Kind {
		case Attribute, Varying:
			dst = AppendVarDecl(dst, "in", v)
		case Uniform:
			dst = AppendVarDecl(dst, "uniform", v)
		}
	}
	for _, v := range outputs {
		dst = AppendVarDecl(dst, "out", v)
	}
	dst = append(dst, '\n')
	for _, obj := range st.libs {
		dst = append(dst, obj.funcSource...)
		dst = append(dst, '\n')
	}
	var err error
	dst, err = AppendOrderedTempFuncs(dst, &st.funcs)
	if err != nil {
		return dst, err
	}
	if st.funcs.Len() > 0 || len(st.libs) > 0 {
		dst = append(dst, '\n')
	}
	dst = append(dst, "void main() {\n"...)
	dst, err = AppendOrderedTempVals(dst, &st.vals, precision)
	if err != nil {
		return dst, err
	}
	for _, ce := range exprs {
		dst = append(dst, '\t')
		dst = append(dst, ce.v.Name...)
		dst = append(dst, " = "...)
		dst = append(dst, ce.expr...)
		dst = append(dst, ";\n"...)
	}
	dst = append(dst, "}\n"...)
	if bytes.IndexByte(dst, 0) >= 0 {
		return dst, errors.New("generated source contains NUL byte")
	}
	return dst, nil
}

// AppendVarDecl appends a global declaration of v with the given storage qualifier:
//
//	<qualifier> <type> <name>;
func AppendVarDecl(dst []byte, qualifier string, v Var) []byte {
	dst = append(dst, qualifier...)
	dst = append(dst, ' ')
	dst = append(dst, v.Type.String()...)
	dst = append(dst, ' ')
	dst = append(dst, v.Name...)
	dst = append(dst, ";\n"...)
	return dst
}
