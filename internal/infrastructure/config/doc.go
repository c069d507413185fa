// Package config handles loading and validating sensornode configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Resolving a per-location entry into an immutable RuntimeConfig
//
// Security Considerations:
//   - Wi-Fi and broker passwords should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Performance Characteristics:
//   - Configuration is loaded once at startup
//   - No runtime overhead after initial load
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	rc, err := cfg.Resolve("HOME")
package config
