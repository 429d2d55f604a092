package inventory

import (
	"fmt"
	"regexp"
	"strings"
)

// Rendered is the resolved (classes, parameters) pair spec.md §4.3 requires
// the Inventory Renderer to produce for a target class name.
type Rendered struct {
	Classes    []string
	Parameters Value
}

// CycleError is returned when class includes form a cycle.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("inventory: class include cycle: %s", strings.Join(e.Chain, " -> "))
}

// Renderer implements spec.md §4.3 (C3): depth-first, left-to-right class
// inclusion with first-occurrence deduplication, reclass-style deep merge,
// and a bounded reference-resolution pass.
type Renderer struct {
	store        *Store
	allowMissing bool
}

// NewRenderer creates a Renderer reading classes from store.
func NewRenderer(store *Store, allowMissing bool) *Renderer {
	return &Renderer{store: store, allowMissing: allowMissing}
}

// Render resolves the class hierarchy rooted at the given seed class names,
// included in the order given (spec.md: seeds are e.g. params.cluster,
// global, tenant, then the target's own component/package classes).
func (r *Renderer) Render(seeds []string) (*Rendered, error) {
	order := make([]string, 0, 32)
	seen := make(map[string]bool)
	params := MapValue(NewOrderedMap())

	for _, seed := range seeds {
		var err error
		order, params, err = r.include(seed, order, seen, params, nil)
		if err != nil {
			return nil, err
		}
	}

	resolved, err := ResolveReferences(params)
	if err != nil {
		return nil, err
	}

	return &Rendered{Classes: order, Parameters: resolved}, nil
}

func (r *Renderer) include(name string, order []string, seen map[string]bool, params Value, stack []string) ([]string, Value, error) {
	if seen[name] {
		return order, params, nil
	}
	for _, s := range stack {
		if s == name {
			return nil, Value{}, &CycleError{Chain: append(append([]string{}, stack...), name)}
		}
	}

	class, err := r.store.Get(name, r.allowMissing)
	if err != nil {
		return nil, Value{}, err
	}

	seen[name] = true
	stack = append(stack, name)

	for _, inc := range class.Includes {
		var err error
		order, params, err = r.include(inc, order, seen, params, stack)
		if err != nil {
			return nil, Value{}, err
		}
	}

	order = append(order, name)

	merged, err := Merge(params, class.Params, "")
	if err != nil {
		return nil, Value{}, fmt.Errorf("inventory: rendering class %s: %w", name, err)
	}

	return order, merged, nil
}

var refPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// maxRefPasses bounds reference resolution iterations (spec.md §4.3:
// "unresolved references after a bounded number of passes are errors").
const maxRefPasses = 10

// UnresolvedReferenceError is returned when references remain after the
// bounded number of resolution passes.
type UnresolvedReferenceError struct {
	Refs []string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("inventory: unresolved references after %d passes: %s", maxRefPasses, strings.Join(e.Refs, ", "))
}

// ResolveReferences resolves "${a:b:c}" strings against the parameter tree
// itself, iterating until a fixed point or maxRefPasses is reached. Nested
// references (a reference whose resolution is itself a string containing a
// reference) are supported by iterating.
func ResolveReferences(root Value) (Value, error) {
	current := root
	for pass := 0; pass < maxRefPasses; pass++ {
		next, changed, unresolved := resolvePass(current, current)
		if !changed {
			if len(unresolved) > 0 {
				return Value{}, &UnresolvedReferenceError{Refs: unresolved}
			}
			return next, nil
		}
		current = next
	}
	_, _, unresolved := resolvePass(current, current)
	return Value{}, &UnresolvedReferenceError{Refs: unresolved}
}

func resolvePass(v, root Value) (Value, bool, []string) {
	switch v.Kind {
	case KindString:
		return resolveString(v, root)
	case KindList:
		changedAny := false
		var allUnresolved []string
		out := make([]Value, len(v.List))
		for i, e := range v.List {
			nv, changed, unresolved := resolvePass(e, root)
			out[i] = nv
			changedAny = changedAny || changed
			allUnresolved = append(allUnresolved, unresolved...)
		}
		nv := ListValue(out)
		nv.Const = v.Const
		return nv, changedAny, allUnresolved
	case KindMap:
		changedAny := false
		var allUnresolved []string
		out := NewOrderedMap()
		for _, k := range v.Map.Keys() {
			e, _ := v.Map.Get(k)
			nv, changed, unresolved := resolvePass(e, root)
			nv.Const = e.Const
			out.Set(k, nv)
			changedAny = changedAny || changed
			allUnresolved = append(allUnresolved, unresolved...)
		}
		nv := MapValue(out)
		nv.Const = v.Const
		return nv, changedAny, allUnresolved
	default:
		return v, false, nil
	}
}

func resolveString(v Value, root Value) (Value, bool, []string) {
	if !strings.Contains(v.Str, "${") {
		return v, false, nil
	}

	matches := refPattern.FindAllStringSubmatchIndex(v.Str, -1)
	if len(matches) == 0 {
		return v, false, nil
	}

	// Whole-string reference: preserve the referenced value's type.
	if len(matches) == 1 && matches[0][0] == 0 && matches[0][1] == len(v.Str) {
		path := v.Str[matches[0][2]:matches[0][3]]
		resolved, ok := lookupPath(root, path)
		if !ok {
			return v, false, []string{path}
		}
		return resolved, true, nil
	}

	var sb strings.Builder
	last := 0
	changed := false
	var unresolved []string
	for _, m := range matches {
		sb.WriteString(v.Str[last:m[0]])
		path := v.Str[m[2]:m[3]]
		resolved, ok := lookupPath(root, path)
		if !ok {
			sb.WriteString(v.Str[m[0]:m[1]])
			unresolved = append(unresolved, path)
		} else {
			sb.WriteString(scalarString(resolved))
			changed = true
		}
		last = m[1]
	}
	sb.WriteString(v.Str[last:])
	nv := StringValue(sb.String())
	nv.Const = v.Const
	return nv, changed, unresolved
}

func scalarString(v Value) string {
	switch v.Kind {
	case KindString:
		return v.Str
	default:
		return v.String()
	}
}

// lookupPath resolves a colon-separated path ("a:b:c") against root.
func lookupPath(root Value, path string) (Value, bool) {
	parts := strings.Split(path, ":")
	cur := root
	for _, p := range parts {
		if cur.Kind != KindMap {
			return Value{}, false
		}
		v, ok := cur.Map.Get(p)
		if !ok {
			return Value{}, false
		}
		cur = v
	}
	if cur.Kind == KindString && strings.Contains(cur.Str, "${") {
		return Value{}, false
	}
	return cur, true
}
