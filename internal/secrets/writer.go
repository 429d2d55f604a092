package secrets

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/projectsyn/commodore/internal/commodoreerrors"
	"github.com/projectsyn/commodore/internal/inventory"
)

// vaultkvDoc is the deterministic on-disk shape for a vaultkv reference
// file (spec §6.7: "sorted keys, trailing newline"). Field order here is
// fixed by struct declaration order, which yaml.v3 preserves, giving byte-
// for-byte stable output across runs for an unchanged reference.
type vaultkvDoc struct {
	Backend string `yaml:"backend"`
	Field   string `yaml:"field"`
	Path    string `yaml:"path"`
}

// BackendConfig holds a backend name only. Nothing in this package reads
// parameters.secret_management or applies per-reference overrides; every
// reference is rendered from its own "<backend>:<key>" string.
type BackendConfig struct {
	Backend string
}

// Sync writes one reference file per unique Ref found in params, skipping
// files whose content is already correct, and removes any file under
// refsDir that no longer corresponds to a discovered reference (spec §4.8
// invariant: "no orphan files remain").
func Sync(params inventory.Value, refsDir string) error {
	refs := Find(params)

	wanted := make(map[string]bool, len(refs))
	for _, r := range refs {
		content, err := render(r)
		if err != nil {
			return commodoreerrors.Wrap(commodoreerrors.ErrConfig,
				fmt.Sprintf("rendering secret reference %s:%s", r.Backend, r.KeyPath), err)
		}

		path := filepath.Join(refsDir, r.FileName())
		wanted[path] = true

		if existing, err := os.ReadFile(path); err == nil && string(existing) == content {
			continue
		}

		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return commodoreerrors.Wrap(commodoreerrors.ErrConfig, "creating refs directory", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return commodoreerrors.Wrap(commodoreerrors.ErrConfig, fmt.Sprintf("writing ref file %s", path), err)
		}
	}

	return removeOrphans(refsDir, wanted)
}

func render(r Ref) (string, error) {
	switch r.Backend {
	case "vaultkv":
		path, field := splitVaultKV(r.KeyPath)
		data, err := yaml.Marshal(vaultkvDoc{Backend: r.Backend, Path: path, Field: field})
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		// Any other backend still gets the same deterministic three-field
		// shape; spec §3 only mandates vaultkv support explicitly, but a
		// uniform representation keeps refs/ homogeneous for unsupported
		// backends discovered in inventory.
		data, err := yaml.Marshal(vaultkvDoc{Backend: r.Backend, Path: r.KeyPath, Field: Field(r.KeyPath)})
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

// splitVaultKV separates "<path>[:<field>]" into its path and field parts,
// defaulting field to the last '/'-segment of path when not explicit
// (spec §3 "Secret Reference": "vaultkv:<path>[:<field>]").
func splitVaultKV(keyPath string) (path, field string) {
	for i := len(keyPath) - 1; i >= 0; i-- {
		if keyPath[i] == ':' {
			return keyPath[:i], keyPath[i+1:]
		}
	}
	return keyPath, Field(keyPath)
}

func removeOrphans(refsDir string, wanted map[string]bool) error {
	if _, err := os.Stat(refsDir); os.IsNotExist(err) {
		return nil
	}

	var orphans []string
	err := filepath.Walk(refsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if !wanted[path] {
			orphans = append(orphans, path)
		}
		return nil
	})
	if err != nil {
		return commodoreerrors.Wrap(commodoreerrors.ErrConfig, "scanning refs directory", err)
	}

	for _, o := range orphans {
		if err := os.Remove(o); err != nil {
			return commodoreerrors.Wrap(commodoreerrors.ErrConfig, fmt.Sprintf("removing orphan ref %s", o), err)
		}
	}
	return nil
}
