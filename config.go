package appshell

import (
	"fmt"
	"time"
)

// ConfigProvider defines the interface for providing configuration objects
type ConfigProvider interface {
	// GetConfig returns the configuration object
	GetConfig() any
}

// StdConfigProvider provides a standard implementation of ConfigProvider
type StdConfigProvider struct {
	cfg any
}

// GetConfig returns the configuration object
func (s *StdConfigProvider) GetConfig() any {
	return s.cfg
}

// NewStdConfigProvider creates a new standard configuration provider
func NewStdConfigProvider(cfg any) *StdConfigProvider {
	return &StdConfigProvider{cfg: cfg}
}

// Feeder populates a configuration struct from one source. Implementations
// live in the feeders package: environment variables, YAML, TOML and JSON
// files.
type Feeder interface {
	Feed(structure interface{}) error
}

// ComplexFeeder extends the basic Feeder interface with per-section
// feeding for sources that hold several named configurations in one
// document.
type ComplexFeeder interface {
	Feeder
	FeedKey(string, interface{}) error
}

// Config combines feeders with target structures. Feeders are applied in
// order, so later sources override earlier ones; after feeding, every
// target is defaulted and validated.
type Config struct {
	Feeders    []Feeder
	Structs    []interface{}
	StructKeys map[string]interface{}
}

// NewConfig creates a new configuration builder
func NewConfig() *Config {
	return &Config{StructKeys: make(map[string]interface{})}
}

// AddFeeder appends a configuration source.
func (c *Config) AddFeeder(f Feeder) *Config {
	c.Feeders = append(c.Feeders, f)
	return c
}

// AddStruct adds a structure fed from the document root.
func (c *Config) AddStruct(target interface{}) *Config {
	c.Structs = append(c.Structs, target)
	return c
}

// AddStructKey adds a structure fed from the named section of each
// ComplexFeeder source.
func (c *Config) AddStructKey(key string, target interface{}) *Config {
	c.StructKeys[key] = target
	return c
}

// Feed applies every feeder to every target, then applies defaults and
// validates each target.
func (c *Config) Feed() error {
	for _, target := range c.Structs {
		for _, f := range c.Feeders {
			if err := f.Feed(target); err != nil {
				return fmt.Errorf("config feed error: %w", err)
			}
		}
		if err := ValidateConfig(target); err != nil {
			return fmt.Errorf("config validation error: %w", err)
		}
	}

	for key, target := range c.StructKeys {
		for _, f := range c.Feeders {
			cf, ok := f.(ComplexFeeder)
			if !ok {
				continue
			}
			if err := cf.FeedKey(key, target); err != nil {
				return fmt.Errorf("config feeder error for %s: %w", key, err)
			}
		}
		if err := ValidateConfig(target); err != nil {
			return fmt.Errorf("config validation error for %s: %w", key, err)
		}
	}

	return nil
}

// ShellConfig is the declarative configuration for a Shell, for hosts that
// drive construction from fed configuration instead of code. Apply it with
// WithShellConfig.
type ShellConfig struct {
	// OperationTimeout bounds each lifecycle step. Zero disables the
	// bound; a hanging module then blocks only its own application.
	OperationTimeout time.Duration `yaml:"operationTimeout" json:"operationTimeout" toml:"operationTimeout" env:"OPERATION_TIMEOUT" default:"30s" desc:"Upper bound for a single lifecycle step"`

	// HistoryCapacity is how many transition events History retains.
	HistoryCapacity int `yaml:"historyCapacity" json:"historyCapacity" toml:"historyCapacity" env:"HISTORY_CAPACITY" default:"256" desc:"Transition events retained for History queries"`
}

// Validate implements ConfigValidator.
func (c *ShellConfig) Validate() error {
	if c.OperationTimeout < 0 {
		return fmt.Errorf("%w: operationTimeout cannot be negative", ErrConfigValidationFailed)
	}
	if c.HistoryCapacity < 0 {
		return fmt.Errorf("%w: historyCapacity cannot be negative", ErrConfigValidationFailed)
	}
	return nil
}
