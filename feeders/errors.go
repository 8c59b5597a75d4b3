package feeders

import "errors"

// Static error definitions for feeders to comply with linting rules

// Env feeder errors
var (
	ErrEnvInvalidStructure = errors.New("env: expected pointer to struct")
	ErrEnvFieldCannotBeSet = errors.New("env: field cannot be set")
)

// File-based feeder errors
var (
	ErrYamlInvalidStructure = errors.New("yaml: expected non-nil target")
	ErrTomlInvalidStructure = errors.New("toml: expected non-nil target")
	ErrJSONInvalidStructure = errors.New("json: expected non-nil target")
)
