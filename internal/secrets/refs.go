// Package secrets implements the Secret Reference Manager (spec §4.8, C8):
// a visitor over the pre-render parameter tree that collects every secret
// reference token and materializes one deterministic file per unique
// reference under catalog/refs/.
//
// Grounded on the original Python Commodore's RefBuilder
// (_examples/original_source/commodore/refs.py): a recursive visitor over
// dict/list/scalar leaves that dedups by reference string. The on-disk
// format here follows spec §6.7/§4.8 exactly (a generic "path:field" YAML
// document), which is simpler than the original's base64-mangled
// vaultkv-specific encoding — spec.md is explicit here, so it governs.
package secrets

import (
	"regexp"
	"sort"
	"strings"

	"github.com/projectsyn/commodore/internal/inventory"
)

// refPattern matches "?{<backend>:<keypath>}" tokens (spec §3 "Secret
// Reference").
var refPattern = regexp.MustCompile(`\?\{([^:}]+):([^}]+)\}`)

// Ref is a single (backend, keypath) pair discovered in the parameter tree.
type Ref struct {
	Backend string
	KeyPath string
}

// FileName is the path under catalog/refs/ this reference materializes to.
func (r Ref) FileName() string {
	return r.KeyPath
}

// Find walks params and returns every unique secret reference, sorted by
// (backend, keypath) for deterministic downstream processing.
func Find(params inventory.Value) []Ref {
	seen := map[Ref]bool{}
	visit(params, seen)

	out := make([]Ref, 0, len(seen))
	for r := range seen {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Backend != out[j].Backend {
			return out[i].Backend < out[j].Backend
		}
		return out[i].KeyPath < out[j].KeyPath
	})
	return out
}

func visit(v inventory.Value, seen map[Ref]bool) {
	switch v.Kind {
	case inventory.KindString:
		for _, m := range refPattern.FindAllStringSubmatch(v.Str, -1) {
			seen[Ref{Backend: m[1], KeyPath: m[2]}] = true
		}
	case inventory.KindList:
		for _, e := range v.List {
			visit(e, seen)
		}
	case inventory.KindMap:
		for _, k := range v.Map.Keys() {
			e, _ := v.Map.Get(k)
			visit(e, seen)
		}
	}
}

// Field resolves the last '/'-separated segment of a keypath, used as the
// default vaultkv field name when one isn't explicit (spec §4.8).
func Field(keyPath string) string {
	if idx := strings.LastIndex(keyPath, "/"); idx >= 0 {
		return keyPath[idx+1:]
	}
	return keyPath
}
