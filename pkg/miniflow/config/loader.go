package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load builds the layered configuration miniflow runs with: defaults,
// then the file at path (skipped when path is empty), then overrides.
// Override keys are dotted paths such as "store.backend".
func Load(defaults map[string]any, path string, overrides map[string]any) (Config, error) {
	cfg := New(defaults)
	if path != "" {
		file, err := FromFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg = cfg.Merge(file)
	}
	return cfg.Merge(FromDotted(overrides)), nil
}

// FromFile reads a config file. The extension picks the parser:
// .yaml and .yml for YAML, .json for JSON.
func FromFile(path string) (Config, error) {
	var parse func([]byte) (Config, error)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		parse = FromYAML
	case ".json":
		parse = FromJSON
	default:
		return Config{}, fmt.Errorf("config %s: unsupported extension %q", path, ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	cfg, err := parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// FromYAML parses a YAML mapping. An empty document yields an empty Config.
func FromYAML(data []byte) (Config, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Config{}, fmt.Errorf("parse yaml: %w", err)
	}
	return New(m), nil
}

// FromJSON parses a JSON object. A null document yields an empty Config.
func FromJSON(data []byte) (Config, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return Config{}, fmt.Errorf("parse json: %w", err)
	}
	return New(m), nil
}

// FromDotted nests flat keys on their dots, so {"store.backend": "redis"}
// becomes {"store": {"backend": "redis"}}. A later key that needs a map
// where a scalar sits replaces the scalar.
func FromDotted(flat map[string]any) Config {
	out := make(map[string]any, len(flat))
	for key, v := range flat {
		parts := strings.Split(key, ".")
		m := out
		for _, p := range parts[:len(parts)-1] {
			next, ok := m[p].(map[string]any)
			if !ok {
				next = make(map[string]any)
				m[p] = next
			}
			m = next
		}
		m[parts[len(parts)-1]] = v
	}
	return New(out)
}
