package config

import "time"

// Application constants
const (
	// Application Info
	AppName    = "quantkit"
	AppVersion = "0.3.0"

	// EnvPrefix namespaces every environment variable, e.g. QUANTKIT_FETCH_TIMEOUT
	EnvPrefix = "QUANTKIT"

	// Fetch defaults
	DefaultFetchTimeout       = 2 * time.Second
	DefaultRetryDelay         = 1 * time.Second
	DefaultConcurrency        = 8
	DefaultMaxBodyBytes int64 = 32 << 20

	// Logging
	DefaultLogFile = "logs/quantkit.log"
)
