package feeders

import (
	"os"
	"testing"
)

func TestTomlFeeder_Feed(t *testing.T) {
	tempFile, err := os.CreateTemp("", "test-*.toml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tempFile.Name())

	tomlContent := `
[Shell]
Name = "TestShell"
Version = "1.0"
Debug = true
`
	if _, err := tempFile.Write([]byte(tomlContent)); err != nil {
		t.Fatalf("Failed to write to temp file: %v", err)
	}
	tempFile.Close()

	type Config struct {
		Shell struct {
			Name    string `toml:"Name"`
			Version string `toml:"Version"`
			Debug   bool   `toml:"Debug"`
		}
	}

	var config Config
	feeder := NewTomlFeeder(tempFile.Name())
	err = feeder.Feed(&config)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if config.Shell.Name != "TestShell" {
		t.Errorf("Expected Name to be 'TestShell', got '%s'", config.Shell.Name)
	}
	if config.Shell.Version != "1.0" {
		t.Errorf("Expected Version to be '1.0', got '%s'", config.Shell.Version)
	}
	if !config.Shell.Debug {
		t.Errorf("Expected Debug to be true, got false")
	}
}

func TestTomlFeeder_FeedKey(t *testing.T) {
	tempFile, err := os.CreateTemp("", "test-*.toml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tempFile.Name())

	tomlContent := `
[shell]
historyCapacity = 64

[resync]
schedule = "0 3 * * *"
`
	if _, err := tempFile.Write([]byte(tomlContent)); err != nil {
		t.Fatalf("Failed to write to temp file: %v", err)
	}
	tempFile.Close()

	type ResyncSection struct {
		Schedule string `toml:"schedule"`
	}

	var section ResyncSection
	feeder := NewTomlFeeder(tempFile.Name())
	if err := feeder.FeedKey("resync", &section); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if section.Schedule != "0 3 * * *" {
		t.Errorf("Expected Schedule to be '0 3 * * *', got '%s'", section.Schedule)
	}

	var missing ResyncSection
	if err := feeder.FeedKey("absent", &missing); err != nil {
		t.Fatalf("Expected no error for a missing table, got %v", err)
	}
}

func TestTomlFeeder_Errors(t *testing.T) {
	feeder := NewTomlFeeder("/definitely/not/there.toml")
	var config struct{}
	if err := feeder.Feed(&config); err == nil {
		t.Error("Expected an error for a missing file")
	}

	if err := feeder.Feed(nil); err == nil {
		t.Error("Expected an error for a nil target")
	}
}
