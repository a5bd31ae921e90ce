// Package config loads and validates feedwatch configuration.
//
// Config files are YAML with ${VAR} environment expansion. Loading is
// layered: Load parses, LoadWithDefaults fills optional fields, and
// LoadAndValidate additionally checks required fields and ranges.
package config
