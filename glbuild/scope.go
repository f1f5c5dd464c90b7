package glbuild

import (
	"fmt"
	"slices"
)

// TempKind selects how a temporary is emitted.
type TempKind uint8

const (
	// TempValue temporaries are declared at the top of main and always evaluated.
	TempValue TempKind = iota
	// TempFunc temporaries are emitted as parameterless functions and
	// evaluated at each use site.
	TempFunc
)

// Scope is the view of a compilation a node generates against: the stage
// being generated, the layout of variables visible to it and the context
// that collects temporaries and build errors. The stage is explicit, nodes
// never consult ambient state to learn it.
type Scope struct {
	ctx    *Context
	graph  *Graph
	stage  Stage
	layout *Layout
	// channels are the output names of the stage, unavailable to temporaries.
	channels []string
}

type tempKey struct {
	kind TempKind
	name string
}

type tempMemo struct {
	body Handle
	ok   bool
}

// Stage returns the stage being generated.
func (s *Scope) Stage() Stage { return s.stage }

// Layout returns the variables visible to the stage.
func (s *Scope) Layout() *Layout { return s.layout }

// Expr appends the expression of node h to dst. On failure dst is returned
// unmodified together with false. NoNode always fails.
func (s *Scope) Expr(dst []byte, h Handle) ([]byte, bool) {
	if h == NoNode {
		return dst, false
	}
	n := s.graph.Node(h)
	if n == nil {
		s.Errorf("%w: %d not in graph", ErrBadHandle, h)
		return dst, false
	}
	start := len(dst)
	out, ok := n.AppendExpr(dst, s)
	if !ok {
		return dst[:start], false
	}
	return out, true
}

// NodeType returns the declared type of node h, or Invalid if h is not in the graph.
func (s *Scope) NodeType(h Handle) VarType {
	n := s.graph.Node(h)
	if n == nil {
		return Invalid
	}
	return n.Type()
}

// ExprString is a convenience wrapper around Expr returning a new string.
func (s *Scope) ExprString(h Handle) (string, bool) {
	b, ok := s.Expr(nil, h)
	return string(b), ok
}

// IVar returns the material's integer switch name or def if unset.
func (s *Scope) IVar(name string, def int) int { return s.ctx.IVar(name, def) }

// UseVar looks name up in the layout, marking it used on success. A variable
// present with a type other than t is a build error and reported as absent.
func (s *Scope) UseVar(t VarType, name string) bool {
	v, ok := s.layout.Lookup(name)
	if !ok {
		return false
	}
	if t != Invalid && v.Type != t {
		s.Errorf("%w: %s variable %q is %s, referenced as %s", ErrTypeMismatch, s.stage, name, v.Type, t)
		return false
	}
	s.layout.Use(name)
	return true
}

// Require adds v to the layout, marked used, unless it is already present.
func (s *Scope) Require(v Var) {
	if err := s.layout.Add(v); err != nil {
		s.Errorf("%s stage: %w", s.stage, err)
		return
	}
	s.layout.Use(v.Name)
}

// AddTempVal registers a value temporary in the current stage and makes it
// visible through the layout.
func (s *Scope) AddTempVal(t VarType, name, body string) error {
	if v, ok := s.layout.Lookup(name); ok {
		return fmt.Errorf("%w: %q already names a %s", ErrDuplicateTemp, name, v.Kind)
	} else if err := s.checkChannel(name); err != nil {
		return err
	}
	err := s.ctx.AddTempVal(s.stage, t, name, body)
	if err != nil {
		return err
	}
	err = s.layout.Add(Var{Name: name, Type: t, Kind: Temp})
	if err != nil {
		return err
	}
	s.layout.Use(name)
	return nil
}

// AddTempFunc registers a function temporary in the current stage.
func (s *Scope) AddTempFunc(t VarType, name, body string) error {
	if err := s.checkChannel(name); err != nil {
		return err
	}
	return s.ctx.AddTempFunc(s.stage, t, name, body)
}

func (s *Scope) checkChannel(name string) error {
	if slices.Contains(s.channels, name) {
		return fmt.Errorf("%w: %q already names a %s stage output", ErrDuplicateTemp, name, s.stage)
	}
	return nil
}

// AppendTemp generates body once per stage, registers it as a temporary
// named name and appends a reference to it. Visiting the same temporary
// again in the same stage reuses the first registration, or the first
// failure. Registering a different body under a name already taken is a
// build error.
func (s *Scope) AppendTemp(dst []byte, kind TempKind, t VarType, name string, body Handle) ([]byte, bool) {
	st := &s.ctx.stages[s.stage]
	key := tempKey{kind: kind, name: name}
	if memo, ok := st.memo[key]; ok {
		if memo.body != body {
			s.Errorf("%w: %s temporary %q bound to nodes %d and %d", ErrDuplicateTemp, s.stage, name, memo.body, body)
			return dst, false
		} else if !memo.ok {
			return dst, false
		}
		return appendTempRef(dst, kind, name), true
	}
	expr, ok := s.ExprString(body)
	st.memo[key] = tempMemo{body: body, ok: ok}
	if !ok {
		return dst, false
	}
	var err error
	if kind == TempFunc {
		err = s.AddTempFunc(t, name, expr)
	} else {
		err = s.AddTempVal(t, name, expr)
	}
	if err != nil {
		s.Errorf("%s stage: %w", s.stage, err)
		return dst, false
	}
	return appendTempRef(dst, kind, name), true
}

func appendTempRef(dst []byte, kind TempKind, name string) []byte {
	dst = append(dst, name...)
	if kind == TempFunc {
		dst = append(dst, "()"...)
	}
	return dst
}

// UseTemp appends a reference to a value temporary registered by some other
// node of the same stage. A name still unregistered once the stage finishes
// generating is reported as [ErrUnknownTemp].
func (s *Scope) UseTemp(dst []byte, name string) []byte {
	st := &s.ctx.stages[s.stage]
	st.tempUses = append(st.tempUses, name)
	return append(dst, name...)
}

// UseFunction makes a library function available to the stage. Functions
// are deduplicated by name; two distinct sources under one name are a build
// error.
func (s *Scope) UseFunction(obj ShaderObject) {
	err := s.ctx.stages[s.stage].addFunction(obj)
	if err != nil {
		s.Errorf("%s stage: %w", s.stage, err)
	}
}

// Errorf records a build-time inconsistency. Generation carries on so that
// every inconsistency of a graph is reported at once.
func (s *Scope) Errorf(format string, args ...any) {
	s.ctx.errs = append(s.ctx.errs, fmt.Errorf(format, args...))
}
