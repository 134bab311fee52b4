// Package config loads process configuration from the environment and
// exposes the runtime settings kept in the settings table.
package config
