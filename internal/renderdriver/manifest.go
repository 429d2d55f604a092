package renderdriver

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/projectsyn/commodore/internal/inventory"
	"github.com/projectsyn/commodore/internal/target"
)

// targetDoc is the on-disk shape of a single target manifest the engine
// reads from --targets-path (spec §6.4).
type targetDoc struct {
	Classes    []string               `yaml:"classes"`
	Parameters map[string]interface{} `yaml:"parameters"`
	Compile    []compileEntry         `yaml:"compile,omitempty"`
}

type compileEntry struct {
	InputType  string   `yaml:"input_type"`
	InputPaths []string `yaml:"input_paths"`
	OutputPath string   `yaml:"output_path"`
}

func writeTargetManifests(dir string, targets []*target.Target) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating targets directory: %w", err)
	}

	for _, t := range targets {
		plain, ok := inventory.ToPlain(t.Parameters).(map[string]interface{})
		if !ok {
			return fmt.Errorf("target %s: parameters is not a map", t.Name)
		}

		doc := targetDoc{
			Classes:    t.Classes,
			Parameters: plain,
		}
		for _, rs := range t.RenderSpec {
			doc.Compile = append(doc.Compile, compileEntry{
				InputType:  rs.InputType,
				InputPaths: rs.InputPaths,
				OutputPath: rs.OutputPath,
			})
		}

		data, err := yaml.Marshal(doc)
		if err != nil {
			return fmt.Errorf("marshaling target %s: %w", t.Name, err)
		}

		path := filepath.Join(dir, t.Name+".yml")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("writing target manifest %s: %w", path, err)
		}
	}

	return nil
}
