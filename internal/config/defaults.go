// Package config provides configuration loading and defaults for cropflow.
package config

import "time"

// DefaultConfigDir is the default location for cropflow configuration.
const DefaultConfigDir = "~/.config/cropflow"

// DefaultDBName is the filename for the SQLite database.
const DefaultDBName = "cropflow.db"

// DefaultConfigFile is the filename for the YAML config.
const DefaultConfigFile = "config.yaml"

// DefaultEnvFile is read from the working directory before the environment
// is consulted. Variables already set are not overridden.
const DefaultEnvFile = ".env"

// EnvPrefix prefixes every environment override, e.g. CROPFLOW_SERVER_ADDR.
const EnvPrefix = "CROPFLOW"

// DefaultDistance holds the default distance provider settings.
var DefaultDistance = Distance{
	MapsURL:     "https://maps.googleapis.com/maps/api/distancematrix/json",
	Timeout:     15 * time.Second,
	Concurrency: 4,
}

// DefaultAdvisory holds the default advisory service settings.
var DefaultAdvisory = Advisory{
	Enabled: true,
	Model:   "claude-sonnet-4-20250514",
	URL:     "https://api.anthropic.com/v1/messages",
	TopN:    10,
	Timeout: 60 * time.Second,
}

// DefaultMatching holds the default matching policy.
var DefaultMatching = Matching{
	ConserveBalances: false,
	TransactionLimit: 20,
	StrategyLimit:    20,
}

// DefaultServer holds the default HTTP server settings.
var DefaultServer = Server{
	Addr:           ":8080",
	AllowedOrigins: []string{"*"},
}

// DefaultOutput holds the default output preferences.
var DefaultOutput = Output{
	Color: true,
	Width: 100,
}
