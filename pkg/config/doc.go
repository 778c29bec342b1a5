// Package config loads service configuration.
//
// Values are resolved in three layers: built-in defaults, then an optional YAML
// file named by CCADMIN_CONFIG_FILE, then CCADMIN_* environment variables.
// Watch re-reads the YAML file on change so that runtime-safe settings such as
// the log level can be applied without a restart.
package config
