package openapi

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is a loaded API description with its dialect detected. The
// underlying tree is never mutated after parsing, so a Document can be shared
// freely across goroutines.
type Document struct {
	root    map[string]any
	dialect Dialect
}

// Load reads and parses the specification file at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSpecNotFound, path, err)
	}
	return Parse(data, filepath.Base(path))
}

// Parse decodes a specification document. The name is used only as a format
// hint: a .json extension selects JSON, .yaml or .yml selects YAML, anything
// else tries JSON first and falls back to YAML.
func Parse(data []byte, name string) (*Document, error) {
	root, err := decode(data, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSpecParse, name, err)
	}

	dialect, err := detectDialect(root)
	if err != nil {
		return nil, err
	}

	// Both dialects require paths and info at the top level.
	if _, ok := root["paths"].(map[string]any); !ok {
		return nil, fmt.Errorf("%w: missing paths section", ErrSpecStructure)
	}
	if _, ok := root["info"]; !ok {
		return nil, fmt.Errorf("%w: missing info section", ErrSpecStructure)
	}

	return &Document{root: root, dialect: dialect}, nil
}

func decode(data []byte, name string) (map[string]any, error) {
	var root map[string]any
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		if err := json.Unmarshal(data, &root); err != nil {
			return nil, err
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &root); err != nil {
			return nil, err
		}
	default:
		if jsonErr := json.Unmarshal(data, &root); jsonErr != nil {
			if yamlErr := yaml.Unmarshal(data, &root); yamlErr != nil {
				return nil, fmt.Errorf("not JSON (%v) and not YAML (%v)", jsonErr, yamlErr)
			}
		}
	}
	return root, nil
}

func detectDialect(root map[string]any) (Dialect, error) {
	if v, ok := root["openapi"].(string); ok && strings.HasPrefix(v, "3.") {
		return DialectV3, nil
	}
	if v, ok := root["swagger"].(string); ok && v == "2.0" {
		return DialectV2, nil
	}
	return "", fmt.Errorf("%w: neither openapi 3.x nor swagger 2.0", ErrSpecStructure)
}

// Dialect reports the detected description format.
func (d *Document) Dialect() Dialect {
	return d.dialect
}

// Info returns the document's info section.
func (d *Document) Info() map[string]any {
	info, _ := d.root["info"].(map[string]any)
	return info
}

func (d *Document) paths() map[string]any {
	paths, _ := d.root["paths"].(map[string]any)
	return paths
}
