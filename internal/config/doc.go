// Package config loads the quantkit configuration.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//  1. Environment variables (highest priority)
//  2. YAML configuration file
//  3. Default values (lowest priority)
//
// The file is taken from QUANTKIT_CONFIG, else quantkit.yaml or
// configs/quantkit.yaml in the working directory.
//
// # Environment Variables
//
// All environment variables follow the pattern QUANTKIT_<SECTION>_<FIELD>:
//
//	QUANTKIT_LOGGING_LEVEL=debug
//	QUANTKIT_FETCH_TIMEOUT=5s
//	QUANTKIT_FETCH_PROXIES=10.0.0.1:8080,10.0.0.2:8080
//	QUANTKIT_TELEMETRY_TRACE_EXPORTER=stdout
//
// # Testing
//
// Use Default to get a valid configuration without touching the environment.
package config
