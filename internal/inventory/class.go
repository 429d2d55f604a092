package inventory

import (
	"fmt"
	"os"
	"path/filepath"
)

// Class is a named reclass-style document: an ordered include list plus a
// parameter tree (spec.md §3 "Inventory Class").
type Class struct {
	Name     string
	Includes []string
	Params   Value
	Path     string // source file, for error messages
}

// Store persists class files under a root directory and exposes them by
// name, implementing spec.md §4.2 (Inventory Store, C2).
//
// Layout mirrors §6.1: classes/defaults/<component>.yml (symlinked, included
// before the global layer), classes/components/<component>.yml (included via
// the target), classes/<package>/... and the reserved params.cluster class.
type Store struct {
	root    string
	classes map[string]*Class
}

// NewStore creates a Store rooted at dir (normally "<wd>/inventory/classes").
func NewStore(dir string) *Store {
	return &Store{root: dir, classes: make(map[string]*Class)}
}

// Root returns the store's class directory.
func (s *Store) Root() string { return s.root }

// AddClass registers a parsed class under name, overwriting any previous
// registration (later seeds/symlinks win, matching last-writer-wins
// semantics for re-registered synthetic classes like params.cluster).
func (s *Store) AddClass(name string, c *Class) {
	c.Name = name
	s.classes[name] = c
}

// Get returns the named class, or an error if it has not been loaded and
// allowMissing is false.
func (s *Store) Get(name string, allowMissing bool) (*Class, error) {
	c, ok := s.classes[name]
	if !ok {
		if allowMissing {
			return &Class{Name: name, Params: MapValue(NewOrderedMap())}, nil
		}
		return nil, fmt.Errorf("inventory: class not found: %s", name)
	}
	return c, nil
}

// LoadFile parses a class file from disk and registers it under name.
func (s *Store) LoadFile(name, path string) (*Class, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("inventory: reading class %s: %w", name, err)
	}
	includes, params, err := ParseClassYAML(data)
	if err != nil {
		return nil, fmt.Errorf("inventory: class %s: %w", name, err)
	}
	c := &Class{Name: name, Includes: includes, Params: params, Path: path}
	s.classes[name] = c
	return c, nil
}

// SymlinkComponentDefaults places a component's class/defaults.yml under
// classes/defaults/<component>.yml (spec.md §4.2 class placement rules).
func (s *Store) SymlinkComponentDefaults(component, sourceFile string) (string, error) {
	return s.symlinkInto(filepath.Join(s.root, "defaults"), component+".yml", sourceFile)
}

// SymlinkComponentClass places a component's class/<component>.yml under
// classes/components/<component>.yml.
func (s *Store) SymlinkComponentClass(component, sourceFile string) (string, error) {
	return s.symlinkInto(filepath.Join(s.root, "components"), component+".yml", sourceFile)
}

// SymlinkPackage places a package's class directory under classes/<pkg>/.
func (s *Store) SymlinkPackage(pkgName, sourceDir string) (string, error) {
	dest := filepath.Join(s.root, pkgName)
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return "", err
	}
	_ = os.Remove(dest)
	if err := os.Symlink(sourceDir, dest); err != nil {
		return "", fmt.Errorf("inventory: symlinking package %s: %w", pkgName, err)
	}
	return dest, nil
}

func (s *Store) symlinkInto(dir, name, sourceFile string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	dest := filepath.Join(dir, name)
	_ = os.Remove(dest)
	if err := os.Symlink(sourceFile, dest); err != nil {
		return "", fmt.Errorf("inventory: symlinking %s: %w", dest, err)
	}
	return dest, nil
}

// PackageClassName builds the "<pkg-name>.<relative-class-path>" name a
// package's class files are exposed under (spec.md §6.3).
func PackageClassName(pkgName, relPath string) string {
	rel := relPath
	ext := filepath.Ext(rel)
	rel = rel[:len(rel)-len(ext)]
	return pkgName + "." + filepathToDotted(rel)
}

func filepathToDotted(rel string) string {
	out := make([]byte, 0, len(rel))
	for i := 0; i < len(rel); i++ {
		if rel[i] == '/' || rel[i] == os.PathSeparator {
			out = append(out, '.')
		} else {
			out = append(out, rel[i])
		}
	}
	return string(out)
}
