package graphspec

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseJSON validates and decodes a JSON spec.
func ParseJSON(data []byte) (Spec, error) {
	if err := Validate(data); err != nil {
		return Spec{}, err
	}
	var spec Spec
	if err := json.Unmarshal(data, &spec); err != nil {
		return Spec{}, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}
	return spec, nil
}

// ParseYAML validates and decodes a YAML spec.
func ParseYAML(data []byte) (Spec, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Spec{}, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	if err := validateValue(doc); err != nil {
		return Spec{}, err
	}

	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return Spec{}, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}
	return spec, nil
}

// Load reads a spec file, choosing the format by extension.
// Supported extensions: .yaml, .yml, .json
func Load(path string) (Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Spec{}, fmt.Errorf("read spec file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return ParseYAML(data)
	case ".json":
		return ParseJSON(data)
	default:
		return Spec{}, fmt.Errorf("unsupported spec file extension: %s", ext)
	}
}
