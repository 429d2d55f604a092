package postprocess

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	k8syaml "sigs.k8s.io/yaml"

	"github.com/projectsyn/commodore/internal/commodoreerrors"
	"github.com/projectsyn/commodore/internal/inventory"
)

// helmNamespaceFilter implements the builtin "helm_namespace" filter
// (spec §4.7): patches metadata.namespace into every object under a
// filter's path, optionally injecting a Namespace object, skipping any
// (kind, name) pair listed in exclude_objects.
type helmNamespaceFilter struct {
	namespace       string
	createNamespace bool
	excluded        map[string]bool // "kind/name"
}

func newHelmNamespaceFilter(args inventory.Value) (Filter, error) {
	namespace, ok := stringField(args, "namespace")
	if !ok || namespace == "" {
		return nil, commodoreerrors.New(commodoreerrors.ErrFilter, "helm_namespace: filterargs.namespace is required")
	}

	createNamespace := false
	if v, ok := args.Field("create_namespace"); ok {
		createNamespace, _ = v.AsBool()
	}

	excluded := map[string]bool{}
	if v, ok := args.Field("exclude_objects"); ok {
		if list, ok := v.AsList(); ok {
			for _, item := range list {
				kind, _ := stringField(item, "kind")
				name, _ := stringField(item, "name")
				excluded[kind+"/"+name] = true
			}
		}
	}

	return &helmNamespaceFilter{namespace: namespace, createNamespace: createNamespace, excluded: excluded}, nil
}

func (f *helmNamespaceFilter) Apply(_ context.Context, dir string) error {
	files, err := yamlFilesUnder(dir)
	if err != nil {
		return commodoreerrors.Wrap(commodoreerrors.ErrFilter, "listing manifests", err)
	}

	for _, file := range files {
		if err := f.patchFile(file); err != nil {
			return commodoreerrors.Wrap(commodoreerrors.ErrFilter, fmt.Sprintf("patching %s", file), err)
		}
	}

	if f.createNamespace {
		if err := f.writeNamespaceObject(dir); err != nil {
			return commodoreerrors.Wrap(commodoreerrors.ErrFilter, "writing namespace object", err)
		}
	}

	return nil
}

func (f *helmNamespaceFilter) patchFile(path string) error {
	docs, err := readMultiDocYAML(path)
	if err != nil {
		return err
	}

	changed := false
	for _, doc := range docs {
		obj := &unstructured.Unstructured{Object: doc}
		if obj.GetKind() == "" {
			continue
		}
		key := obj.GetKind() + "/" + obj.GetName()
		if f.excluded[key] {
			continue
		}
		if obj.GetNamespace() == f.namespace {
			continue
		}
		obj.SetNamespace(f.namespace)
		changed = true
	}

	if !changed {
		return nil
	}

	return writeMultiDocYAML(path, docs)
}

func (f *helmNamespaceFilter) writeNamespaceObject(dir string) error {
	ns := map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "Namespace",
		"metadata": map[string]interface{}{
			"name": f.namespace,
		},
	}
	data, err := k8syaml.Marshal(ns)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "00_namespace.yaml"), data, 0o644)
}

func yamlFilesUnder(dir string) ([]string, error) {
	var out []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".yaml" || ext == ".yml" {
			out = append(out, path)
		}
		return nil
	})
	return out, err
}

func readMultiDocYAML(path string) ([]map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var docs []map[string]interface{}
	for _, raw := range strings.Split(string(data), "\n---\n") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		var obj map[string]interface{}
		if err := k8syaml.Unmarshal([]byte(raw), &obj); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
		if obj != nil {
			docs = append(docs, obj)
		}
	}
	return docs, nil
}

func writeMultiDocYAML(path string, docs []map[string]interface{}) error {
	var sb strings.Builder
	for i, doc := range docs {
		if i > 0 {
			sb.WriteString("---\n")
		}
		data, err := k8syaml.Marshal(doc)
		if err != nil {
			return err
		}
		sb.Write(data)
	}
	return os.WriteFile(path, []byte(sb.String()), 0o644)
}
