package resolver

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// walkYAMLFiles returns every "*.yml"/"*.yaml" path under dir, relative to
// dir, used to discover a package's exposed class files (spec §6.3:
// "one or more class files (any *.yml)"). A missing dir yields no files.
func walkYAMLFiles(dir string) ([]string, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	var out []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".yml" && ext != ".yaml" {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		out = append(out, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// listDir lists the basenames of regular files directly inside dir. A
// missing directory yields an empty list rather than an error, since
// lib/, postprocess/ and jsonnetfile.json are all optional per component.
func listDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() {
			out = append(out, e.Name())
		}
	}
	return out, nil
}
