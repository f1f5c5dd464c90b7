package glbuild

import (
	"fmt"
	"strings"
)

// StrSet is a set of identifiers.
type StrSet map[string]struct{}

// Add adds names to the set.
func (s StrSet) Add(names ...string) {
	for _, name := range names {
		s[name] = struct{}{}
	}
}

// Has reports whether name is in the set.
func (s StrSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// TempInfo is one hoisted intermediate value: its type and generated body.
type TempInfo struct {
	Type VarType
	Body string
}

// DependsOn reports whether the body references any identifier in set.
// The match is textual on identifier boundaries, so a temp named t1 is not
// matched by t10 nor by a swizzle such as v.t1.
func (ti TempInfo) DependsOn(set StrSet) bool {
	if len(set) == 0 {
		return false
	}
	found := false
	forEachIdent(ti.Body, func(id string) bool {
		found = set.Has(id)
		return !found
	})
	return found
}

// TempMap maps temporary names to their info and preserves insertion order,
// which makes the emitted source deterministic.
type TempMap struct {
	order []string
	m     map[string]TempInfo
}

// Len returns the number of temporaries.
func (tm *TempMap) Len() int { return len(tm.order) }

// Get returns the temporary registered under name.
func (tm *TempMap) Get(name string) (TempInfo, bool) {
	ti, ok := tm.m[name]
	return ti, ok
}

// Names returns the temporary names in registration order.
func (tm *TempMap) Names() []string { return append([]string(nil), tm.order...) }

// Add registers a temporary. Registering an existing name is rejected.
func (tm *TempMap) Add(name string, ti TempInfo) error {
	if !ValidIdent(name) {
		return fmt.Errorf("invalid temporary name %q", name)
	}
	if _, ok := tm.m[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateTemp, name)
	}
	if tm.m == nil {
		tm.m = make(map[string]TempInfo)
	}
	tm.m[name] = ti
	tm.order = append(tm.order, name)
	return nil
}

func (tm *TempMap) set() StrSet {
	s := make(StrSet, len(tm.order))
	s.Add(tm.order...)
	return s
}

// OrderTemps returns the names of temps ordered so that every temporary comes
// after the temporaries its body references. The pass is stable: temps with
// no ordering constraint between them keep their registration order.
// Temporaries that can never be emitted form a dependency cycle and are
// reported with [ErrTempCycle].
func OrderTemps(temps *TempMap) ([]string, error) {
	pending := temps.Names()
	unresolved := temps.set()
	order := make([]string, 0, len(pending))
	for len(pending) > 0 {
		remaining := pending[:0]
		for _, name := range pending {
			if temps.m[name].DependsOn(unresolved) {
				remaining = append(remaining, name)
				continue
			}
			order = append(order, name)
			delete(unresolved, name)
		}
		if len(remaining) == len(pending) {
			return order, fmt.Errorf("%w among %s", ErrTempCycle, strings.Join(remaining, ", "))
		}
		pending = remaining
	}
	return order, nil
}

// AppendOrderedTempVals appends one declaration per value temporary in
// dependency order:
//
//	[precision ]<type> <name> = <body>;
func AppendOrderedTempVals(dst []byte, temps *TempMap, precision string) ([]byte, error) {
	order, err := OrderTemps(temps)
	if err != nil {
		return dst, err
	}
	for _, name := range order {
		ti := temps.m[name]
		dst = append(dst, '\t')
		if precision != "" && !ti.Type.IsSampler() && ti.Type != Int {
			dst = append(dst, precision...)
			dst = append(dst, ' ')
		}
		dst = append(dst, ti.Type.String()...)
		dst = append(dst, ' ')
		dst = append(dst, name...)
		dst = append(dst, " = "...)
		dst = append(dst, ti.Body...)
		dst = append(dst, ";\n"...)
	}
	return dst, nil
}

// AppendOrderedTempFuncs appends one parameterless function per function
// temporary in dependency order:
//
//	<type> <name>() { return <body>; }
func AppendOrderedTempFuncs(dst []byte, temps *TempMap) ([]byte, error) {
	order, err := OrderTemps(temps)
	if err != nil {
		return dst, err
	}
	for _, name := range order {
		ti := temps.m[name]
		dst = append(dst, ti.Type.String()...)
		dst = append(dst, ' ')
		dst = append(dst, name...)
		dst = append(dst, "() { return "...)
		dst = append(dst, ti.Body...)
		dst = append(dst, "; }\n"...)
	}
	return dst, nil
}

// pruneTemps removes the temporaries not reachable from roots, following
// references between temps transitively. It returns the removed names.
func pruneTemps(temps *TempMap, roots []string) (removed []string) {
	all := temps.set()
	live := make(StrSet)
	var mark func(text string)
	mark = func(text string) {
		forEachIdent(text, func(id string) bool {
			if all.Has(id) && !live.Has(id) {
				live.Add(id)
				mark(temps.m[id].Body)
			}
			return true
		})
	}
	for _, root := range roots {
		mark(root)
	}
	kept := temps.order[:0]
	for _, name := range temps.order {
		if live.Has(name) {
			kept = append(kept, name)
		} else {
			delete(temps.m, name)
			removed = append(removed, name)
		}
	}
	temps.order = kept
	return removed
}

// forEachIdent calls fn with every identifier token in src. Numeric literals
// and swizzle/member selectors following a '.' are skipped. Iteration stops
// when fn returns false.
func forEachIdent(src string, fn func(id string) bool) {
	for i := 0; i < len(src); {
		c := src[i]
		if !isIdentChar(c) {
			i++
			continue
		}
		start := i
		for i < len(src) && isIdentChar(src[i]) {
			i++
		}
		isNumber := c >= '0' && c <= '9'
		if isNumber {
			// Exponent and fraction parts: 1.5e-3.
			for i < len(src) && (isIdentChar(src[i]) || src[i] == '.' ||
				((src[i] == '-' || src[i] == '+') && (src[i-1] == 'e' || src[i-1] == 'E'))) {
				i++
			}
			continue
		}
		if start > 0 && src[start-1] == '.' {
			continue // Member or swizzle.
		}
		if !fn(src[start:i]) {
			return
		}
	}
}
