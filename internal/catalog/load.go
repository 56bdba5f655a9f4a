package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// overrideFile is the on-disk shape of a catalog override document: a map
// from violation id to entry. Jurisdictions tune codes and remediation text
// without rebuilding the binary.
type overrideFile struct {
	Violations map[string]Entry `yaml:"violations"`
}

// LoadOverrides reads a YAML override file and merges it into the catalog.
func (c *Catalog) LoadOverrides(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("catalog: read overrides %s: %w", path, err)
	}
	var doc overrideFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("catalog: parse overrides %s: %w", path, err)
	}
	c.Merge(doc.Violations)
	return nil
}
