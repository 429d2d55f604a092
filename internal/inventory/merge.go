package inventory

import (
	"fmt"
	"strings"
)

// ConstOverrideError is returned when a later class attempts to override a
// key previously marked constant ("=key"), per spec.md §4.3 and the
// "Constant parameters" testable property (§8).
type ConstOverrideError struct {
	Path string
}

func (e *ConstOverrideError) Error() string {
	return fmt.Sprintf("inventory: cannot override constant parameter %q", e.Path)
}

// Merge deep-merges overlay onto base following reclass semantics
// (spec.md §4.3 "Parameter merging"):
//
//   - maps deep-merge key by key;
//   - scalars and lists from overlay replace the base value, UNLESS the key
//     is suffixed with "+", in which case lists append and maps deep-merge
//     (the "+" is stripped from the merged key);
//   - a key previously marked Const cannot be reassigned by a later class.
//
// path is used only for error messages.
func Merge(base, overlay Value, path string) (Value, error) {
	if overlay.IsZero() {
		return base, nil
	}
	if base.Kind != KindMap || overlay.Kind != KindMap {
		if base.Const {
			return Value{}, &ConstOverrideError{Path: path}
		}
		return overlay, nil
	}

	result := base.Clone()
	if result.Map == nil {
		result.Map = NewOrderedMap()
	}

	for _, rawKey := range overlay.Map.Keys() {
		ov, _ := overlay.Map.Get(rawKey)

		appendOp := strings.HasSuffix(rawKey, "+")
		key := strings.TrimSuffix(rawKey, "+")

		childPath := key
		if path != "" {
			childPath = path + "." + key
		}

		bv, existed := result.Map.Get(key)
		if !existed {
			result.Map.Set(key, ov)
			continue
		}

		if bv.Const && !appendOp {
			return Value{}, &ConstOverrideError{Path: childPath}
		}

		switch {
		case appendOp && bv.Kind == KindList && ov.Kind == KindList:
			merged := append(append([]Value{}, bv.List...), ov.List...)
			nv := ListValue(merged)
			nv.Const = bv.Const
			result.Map.Set(key, nv)
		case appendOp && bv.Kind == KindMap && ov.Kind == KindMap:
			merged, err := Merge(bv, ov, childPath)
			if err != nil {
				return Value{}, err
			}
			result.Map.Set(key, merged)
		case bv.Kind == KindMap && ov.Kind == KindMap:
			merged, err := Merge(bv, ov, childPath)
			if err != nil {
				return Value{}, err
			}
			result.Map.Set(key, merged)
		default:
			if bv.Const {
				return Value{}, &ConstOverrideError{Path: childPath}
			}
			nv := ov
			result.Map.Set(key, nv)
		}
	}

	return result, nil
}

// ApplyApplicationsOperator resolves the "applications" list operator
// semantics from spec.md §4.3/§8: a string prefixed with "~" removes its
// LAST occurrence; the result is order-preserving over what remains.
//
// Matches "Applications semantics" (§8 invariant 5): the filtered list
// equals the set of strings whose last occurrence in L is not
// "~"-prefixed — implemented here as a literal last-occurrence-wins
// removal pass so declaration order is preserved for the survivors.
func ApplyApplicationsOperator(items []string) []string {
	// lastIndex tracks, for each bare name, the highest index at which it
	// (or its "~" form) occurs - the last occurrence decides add vs remove.
	type occ struct {
		idx     int
		removed bool
	}
	last := make(map[string]occ)
	order := make([]string, 0, len(items))

	for i, raw := range items {
		removed := strings.HasPrefix(raw, "~")
		name := strings.TrimPrefix(raw, "~")
		if _, seen := last[name]; !seen {
			order = append(order, name)
		}
		last[name] = occ{idx: i, removed: removed}
	}

	out := make([]string, 0, len(order))
	for _, name := range order {
		if !last[name].removed {
			out = append(out, name)
		}
	}
	return out
}
