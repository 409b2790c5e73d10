package dictionary

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Load reads a dictionary from a YAML (.yaml, .yml) or TOML (.toml) file.
func Load(path string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}
	var spec Spec
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &spec); err != nil {
			return nil, fmt.Errorf("parse dictionary yaml: %w", err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &spec); err != nil {
			return nil, fmt.Errorf("parse dictionary toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported dictionary format %q", ext)
	}
	d, err := New(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid dictionary %s: %w", path, err)
	}
	return d, nil
}

// LoadOrDefault returns the built-in dictionary when path is empty.
func LoadOrDefault(path string) (*Dictionary, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	return Load(path)
}
