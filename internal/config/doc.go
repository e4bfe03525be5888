// Package config provides configuration loading and validation for the
// translation relay service. It handles YAML-based configuration with
// struct validation covering the HTTP server, the upstream model endpoint,
// audio format contracts, inference parameters, and logging.
package config
