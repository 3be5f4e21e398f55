package config

import "fmt"

// ConfigError means configuration failed to parse or a required field was
// missing. Fatal at startup, exit code 2 (spec.md §6/§7).
type ConfigError struct{ Err error }

func (e *ConfigError) Error() string { return fmt.Sprintf("config: %v", e.Err) }
func (e *ConfigError) Unwrap() error  { return e.Err }
