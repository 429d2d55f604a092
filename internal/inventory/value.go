// Package inventory implements the reclass-style hierarchical class store
// and renderer: the pair of concerns spec.md calls the Inventory Store (C2)
// and the Inventory Renderer (C3).
package inventory

import "fmt"

// Kind tags the dynamic type carried by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindMap
)

// Value is the tagged-variant representation of the reclass parameter tree
// (spec.md §9, "Dynamic runtime inventory tree"). Scalars, lists and maps
// decode directly from YAML; Const marks a key that later classes may not
// override (the "=key" prefix); references ("${a:b:c}") are resolved in a
// later pass and are represented as plain strings until then.
type Value struct {
	Kind  Kind
	Bool  bool
	Int   int64
	Float float64
	Str   string
	List  []Value
	Map   *OrderedMap

	// Const marks that this value was assigned through a "=key" and cannot
	// be overridden by a later class (spec.md §4.3 "Constant keys").
	Const bool
}

// OrderedMap preserves insertion order for deterministic iteration
// (spec.md §4.3 "deterministic iteration order over map keys").
type OrderedMap struct {
	keys   []string
	values map[string]Value
}

// NewOrderedMap returns an empty OrderedMap.
func NewOrderedMap() *OrderedMap {
	return &OrderedMap{values: make(map[string]Value)}
}

// Keys returns the map's keys in insertion order.
func (m *OrderedMap) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Get looks up a key.
func (m *OrderedMap) Get(key string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Set inserts or replaces a key, appending to the key order on first
// insertion only.
func (m *OrderedMap) Set(key string, v Value) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Delete removes a key.
func (m *OrderedMap) Delete(key string) {
	if _, exists := m.values[key]; !exists {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of keys.
func (m *OrderedMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Clone returns a deep copy.
func (m *OrderedMap) Clone() *OrderedMap {
	if m == nil {
		return nil
	}
	out := NewOrderedMap()
	for _, k := range m.keys {
		out.Set(k, m.values[k].Clone())
	}
	return out
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	switch v.Kind {
	case KindList:
		out := make([]Value, len(v.List))
		for i, e := range v.List {
			out[i] = e.Clone()
		}
		v.List = out
	case KindMap:
		v.Map = v.Map.Clone()
	}
	return v
}

// String renders v for diagnostics; it is not the YAML encoding.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("%v", v.Bool)
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindFloat:
		return fmt.Sprintf("%g", v.Float)
	case KindString:
		return v.Str
	case KindList:
		return fmt.Sprintf("[%d items]", len(v.List))
	case KindMap:
		return fmt.Sprintf("{%d keys}", v.Map.Len())
	default:
		return "?"
	}
}

// IsZero reports whether v is a non-constant KindNull Value. The
// uninitialized zero Value and a YAML-authored `null` both report true.
func (v Value) IsZero() bool {
	return v.Kind == KindNull && !v.Const
}

// Field looks up a single key on a map Value, returning ok=false if v is
// not a map or the key is absent.
func (v Value) Field(key string) (Value, bool) {
	if v.Kind != KindMap {
		return Value{}, false
	}
	return v.Map.Get(key)
}

// Path walks a sequence of map keys, returning ok=false as soon as any
// segment is missing or the current value is not a map.
func (v Value) Path(parts ...string) (Value, bool) {
	cur := v
	for _, p := range parts {
		next, ok := cur.Field(p)
		if !ok {
			return Value{}, false
		}
		cur = next
	}
	return cur, true
}

// AsString returns v's string content and whether v is a KindString.
func (v Value) AsString() (string, bool) {
	if v.Kind != KindString {
		return "", false
	}
	return v.Str, true
}

// AsBool returns v's bool content and whether v is a KindBool.
func (v Value) AsBool() (bool, bool) {
	if v.Kind != KindBool {
		return false, false
	}
	return v.Bool, true
}

// AsList returns v's element slice and whether v is a KindList.
func (v Value) AsList() ([]Value, bool) {
	if v.Kind != KindList {
		return nil, false
	}
	return v.List, true
}

func StringValue(s string) Value  { return Value{Kind: KindString, Str: s} }
func BoolValue(b bool) Value      { return Value{Kind: KindBool, Bool: b} }
func IntValue(i int64) Value      { return Value{Kind: KindInt, Int: i} }
func FloatValue(f float64) Value  { return Value{Kind: KindFloat, Float: f} }
func ListValue(vs []Value) Value  { return Value{Kind: KindList, List: vs} }
func MapValue(m *OrderedMap) Value { return Value{Kind: KindMap, Map: m} }
func NullValue() Value            { return Value{Kind: KindNull} }
