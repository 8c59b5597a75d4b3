package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Load reads and validates a manifest file, picking the format from the
// file extension (.yaml/.yml, .toml, .json).
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file %s: %w", path, err)
	}

	format := strings.TrimPrefix(filepath.Ext(path), ".")
	m, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("manifest file %s: %w", path, err)
	}
	return m, nil
}

// Parse decodes and validates manifest bytes in the named format
// ("yaml"/"yml", "toml" or "json").
func Parse(data []byte, format string) (*Manifest, error) {
	m := &Manifest{}
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, m); err != nil {
			return nil, fmt.Errorf("failed to parse yaml manifest: %w", err)
		}
	case "toml":
		if _, err := toml.Decode(string(data), m); err != nil {
			return nil, fmt.Errorf("failed to parse toml manifest: %w", err)
		}
	case "json":
		if err := json.Unmarshal(data, m); err != nil {
			return nil, fmt.Errorf("failed to parse json manifest: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}
