package inventory

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// decodeYAMLValue converts a decoded yaml.v3 node into a Value, preserving
// map key order and tagging "=key" map keys as constants and list entries
// that are untouched by the "+"/"~" operators (those are resolved later,
// during merge/render — decoding only establishes the raw tree).
func decodeYAMLValue(node *yaml.Node) (Value, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return NullValue(), nil
		}
		return decodeYAMLValue(node.Content[0])
	case yaml.ScalarNode:
		return decodeScalar(node)
	case yaml.SequenceNode:
		items := make([]Value, 0, len(node.Content))
		for _, c := range node.Content {
			v, err := decodeYAMLValue(c)
			if err != nil {
				return Value{}, err
			}
			items = append(items, v)
		}
		return ListValue(items), nil
	case yaml.MappingNode:
		m := NewOrderedMap()
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode := node.Content[i]
			valNode := node.Content[i+1]
			key := keyNode.Value
			v, err := decodeYAMLValue(valNode)
			if err != nil {
				return Value{}, err
			}
			if strings.HasPrefix(key, "=") {
				key = strings.TrimPrefix(key, "=")
				v.Const = true
			}
			m.Set(key, v)
		}
		return MapValue(m), nil
	case yaml.AliasNode:
		return decodeYAMLValue(node.Alias)
	default:
		return Value{}, fmt.Errorf("inventory: unsupported yaml node kind %d", node.Kind)
	}
}

func decodeScalar(node *yaml.Node) (Value, error) {
	var raw interface{}
	if err := node.Decode(&raw); err != nil {
		return Value{}, err
	}
	switch t := raw.(type) {
	case nil:
		return NullValue(), nil
	case bool:
		return BoolValue(t), nil
	case int:
		return IntValue(int64(t)), nil
	case int64:
		return IntValue(t), nil
	case float64:
		return FloatValue(t), nil
	case string:
		return StringValue(t), nil
	default:
		return StringValue(fmt.Sprintf("%v", t)), nil
	}
}

// ParseClassYAML parses the bytes of a class file into classes (includes)
// and parameters, per spec.md §3 "Inventory Class".
func ParseClassYAML(data []byte) (includes []string, params Value, err error) {
	var root yaml.Node
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, MapValue(NewOrderedMap()), nil
	}
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, Value{}, fmt.Errorf("parsing class yaml: %w", err)
	}
	v, err := decodeYAMLValue(&root)
	if err != nil {
		return nil, Value{}, err
	}
	if v.Kind != KindMap {
		return nil, MapValue(NewOrderedMap()), nil
	}
	if classesV, ok := v.Map.Get("classes"); ok && classesV.Kind == KindList {
		for _, c := range classesV.List {
			if c.Kind == KindString {
				includes = append(includes, c.Str)
			}
		}
	}
	params, _ = v.Map.Get("parameters")
	if params.Kind != KindMap {
		params = MapValue(NewOrderedMap())
	}
	return includes, params, nil
}

// ToPlain converts a Value back into a plain interface{} tree suitable
// for yaml.Marshal (used by the render driver to write target manifests).
func ToPlain(v Value) interface{} {
	switch v.Kind {
	case KindNull:
		return nil
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	case KindString:
		return v.Str
	case KindList:
		out := make([]interface{}, len(v.List))
		for i, e := range v.List {
			out[i] = ToPlain(e)
		}
		return out
	case KindMap:
		out := make(map[string]interface{}, v.Map.Len())
		for _, k := range v.Map.Keys() {
			e, _ := v.Map.Get(k)
			out[k] = ToPlain(e)
		}
		return out
	default:
		return nil
	}
}
