// Package config handles loading and validating portalctl configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// The config file is optional for the CLI: when the default location has no
// file, portalctl runs on defaults plus PORTAL_* environment variables.
//
// Usage:
//
//	cfg, err := config.Load(config.DefaultPath(), true)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Backend.BaseURL)
package config
