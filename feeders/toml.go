package feeders

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// TomlFeeder is a feeder that reads TOML files
type TomlFeeder struct {
	Path string
}

// NewTomlFeeder creates a new TomlFeeder that reads from the specified TOML file
func NewTomlFeeder(filePath string) TomlFeeder {
	return TomlFeeder{Path: filePath}
}

// Feed reads the whole TOML document into the provided structure.
func (t TomlFeeder) Feed(structure interface{}) error {
	if structure == nil {
		return ErrTomlInvalidStructure
	}

	if _, err := toml.DecodeFile(t.Path, structure); err != nil {
		return fmt.Errorf("failed to decode TOML file %s: %w", t.Path, err)
	}
	return nil
}

// FeedKey reads a TOML file and extracts a specific top-level table
func (t TomlFeeder) FeedKey(key string, target interface{}) error {
	var allData map[string]interface{}
	if err := t.Feed(&allData); err != nil {
		return err
	}

	value, exists := allData[key]
	if !exists {
		return nil
	}

	// Re-encode the section and decode it into the target to handle type
	// conversions.
	var buf strings.Builder
	if err := toml.NewEncoder(&buf).Encode(value); err != nil {
		return fmt.Errorf("failed to encode value: %w", err)
	}

	if _, err := toml.Decode(buf.String(), target); err != nil {
		return fmt.Errorf("failed to decode value to target: %w", err)
	}

	return nil
}
