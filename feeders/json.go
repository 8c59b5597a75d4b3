package feeders

import (
	"encoding/json"
	"fmt"
	"os"
)

// JSONFeeder is a feeder that reads JSON files
type JSONFeeder struct {
	Path string
}

// NewJSONFeeder creates a new JSONFeeder that reads from the specified JSON file
func NewJSONFeeder(filePath string) JSONFeeder {
	return JSONFeeder{Path: filePath}
}

// Feed reads the whole JSON document into the provided structure.
func (j JSONFeeder) Feed(structure interface{}) error {
	if structure == nil {
		return ErrJSONInvalidStructure
	}

	data, err := os.ReadFile(j.Path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file %s: %w", j.Path, err)
	}

	if err := json.Unmarshal(data, structure); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return nil
}

// FeedKey reads a JSON file and extracts a specific top-level key
func (j JSONFeeder) FeedKey(key string, target interface{}) error {
	data, err := os.ReadFile(j.Path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file %s: %w", j.Path, err)
	}

	var allData map[string]json.RawMessage
	if err := json.Unmarshal(data, &allData); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	raw, exists := allData[key]
	if !exists {
		return nil
	}

	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("failed to unmarshal value to target: %w", err)
	}

	return nil
}
