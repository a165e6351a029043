package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk shape of a catalog override:
//
//	employees: [Anna, Boris]
//	tiers:
//	  - amount: 50
//	    reasons: [damage]
type File struct {
	Employees []string `yaml:"employees"`
	Tiers     []Tier   `yaml:"tiers"`
}

func Parse(b []byte) (*Catalog, error) {
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	return New(f.Employees, f.Tiers)
}

// Load reads a YAML catalog. An empty path yields Default().
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	c, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("parse catalog file %s: %w", path, err)
	}
	return c, nil
}
