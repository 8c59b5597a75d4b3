// Package feeders provides configuration feeders for reading data from
// various sources including environment variables and YAML, TOML and JSON
// files.
package feeders

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/golobby/cast"
)

// EnvFeeder populates struct fields tagged `env:"NAME"` from environment
// variables. Prefix and Suffix, when set, are joined to the tag name with
// underscores, so Prefix "APPSHELL" turns `env:"TIMEOUT"` into
// APPSHELL_TIMEOUT. Empty variables are skipped, leaving defaults intact.
type EnvFeeder struct {
	Prefix string
	Suffix string
}

// NewEnvFeeder creates an EnvFeeder without prefix or suffix.
func NewEnvFeeder() EnvFeeder {
	return EnvFeeder{}
}

// NewAffixedEnvFeeder creates an EnvFeeder with the given prefix and
// suffix, for hosts running several instances from one environment.
func NewAffixedEnvFeeder(prefix, suffix string) EnvFeeder {
	return EnvFeeder{Prefix: prefix, Suffix: suffix}
}

// Feed reads environment variables and populates the provided structure
func (f EnvFeeder) Feed(structure interface{}) error {
	v := reflect.ValueOf(structure)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w, got %T", ErrEnvInvalidStructure, structure)
	}
	return f.fillStruct(v.Elem())
}

func (f EnvFeeder) fillStruct(rv reflect.Value) error {
	for i := 0; i < rv.NumField(); i++ {
		field := rv.Field(i)
		fieldType := rv.Type().Field(i)

		if err := f.fillField(field, &fieldType); err != nil {
			return fmt.Errorf("error in field '%s': %w", fieldType.Name, err)
		}
	}
	return nil
}

func (f EnvFeeder) fillField(field reflect.Value, fieldType *reflect.StructField) error {
	// Nested structs are walked; only tagged leaves read the environment.
	if field.Kind() == reflect.Struct {
		return f.fillStruct(field)
	}
	if field.Kind() == reflect.Ptr && !field.IsNil() && field.Elem().Kind() == reflect.Struct {
		return f.fillStruct(field.Elem())
	}

	envTag, exists := fieldType.Tag.Lookup("env")
	if !exists {
		return nil
	}

	envName := strings.ToUpper(envTag)
	if f.Prefix != "" {
		envName = strings.ToUpper(f.Prefix) + "_" + envName
	}
	if f.Suffix != "" {
		envName = envName + "_" + strings.ToUpper(f.Suffix)
	}

	envValue := os.Getenv(envName)
	if envValue == "" {
		return nil
	}
	return setFieldValue(field, envValue)
}

// setFieldValue converts and sets a field value
func setFieldValue(field reflect.Value, strValue string) error {
	convertedValue, err := cast.FromType(strValue, field.Type())
	if err != nil {
		return fmt.Errorf("cannot convert value to type %v: %w", field.Type(), err)
	}

	if !field.CanSet() {
		return ErrEnvFieldCannotBeSet
	}

	field.Set(reflect.ValueOf(convertedValue))
	return nil
}
