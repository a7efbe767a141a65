package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// catalogFile is the YAML wire format of a rule catalog.
type catalogFile struct {
	Version   string            `yaml:"version"`
	Languages []string          `yaml:"languages"`
	Policies  map[string]string `yaml:"policies"`
	Rules     []Rule            `yaml:"rules"`
}

// LoadCatalog reads and validates a YAML rule catalog.
func LoadCatalog(path string) (*Catalog, error) {
	// #nosec G304 -- path comes from operator-configured catalog path.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog builds a catalog from raw YAML bytes.
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	catalog, err := NewCatalog(file.Version, file.Languages, file.Rules, file.Policies)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return catalog, nil
}
