package glbuild

import "fmt"

// Layout is the ordered set of variables visible at a point in generation.
// Nodes query it to decide whether they apply and grow it with the
// temporaries they introduce. Entries looked up through [Layout.Use] are
// marked as used so the assembler only declares what the source references.
type Layout struct {
	vars  []Var
	used  []bool
	index map[string]int
}

// NewLayout returns a layout containing vars in order. Later duplicates are ignored.
func NewLayout(vars ...Var) *Layout {
	l := &Layout{}
	for _, v := range vars {
		if _, ok := l.Lookup(v.Name); ok {
			continue
		}
		l.Add(v)
	}
	return l
}

// Len returns the number of variables in the layout.
func (l *Layout) Len() int { return len(l.vars) }

// Lookup returns the variable with the given name without marking it used.
func (l *Layout) Lookup(name string) (Var, bool) {
	i, ok := l.index[name]
	if !ok {
		return Var{}, false
	}
	return l.vars[i], true
}

// Use looks up name and marks it as used on success.
func (l *Layout) Use(name string) (Var, bool) {
	i, ok := l.index[name]
	if !ok {
		return Var{}, false
	}
	l.used[i] = true
	return l.vars[i], true
}

// IsUsed reports whether name is in the layout and has been marked used.
func (l *Layout) IsUsed(name string) bool {
	i, ok := l.index[name]
	return ok && l.used[i]
}

// Add grows the layout with v. Adding a name that already exists with the
// same type is a no-op; a different type is an error.
func (l *Layout) Add(v Var) error {
	if !ValidIdent(v.Name) {
		return fmt.Errorf("invalid variable name %q", v.Name)
	}
	if i, ok := l.index[v.Name]; ok {
		if l.vars[i].Type != v.Type {
			return fmt.Errorf("%w: %q declared %s, redeclared %s", ErrTypeMismatch, v.Name, l.vars[i].Type, v.Type)
		}
		return nil
	}
	if l.index == nil {
		l.index = make(map[string]int)
	}
	l.index[v.Name] = len(l.vars)
	l.vars = append(l.vars, v)
	l.used = append(l.used, false)
	return nil
}

// Vars appends all variables in layout order to dst and returns the result.
func (l *Layout) Vars(dst []Var) []Var {
	return append(dst, l.vars...)
}

// Used appends the used variables of the given kind in layout order to dst.
func (l *Layout) Used(dst []Var, kind VarKind) []Var {
	for i, v := range l.vars {
		if l.used[i] && v.Kind == kind {
			dst = append(dst, v)
		}
	}
	return dst
}
