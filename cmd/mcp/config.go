package main

import (
	"os"

	"github.com/cloudledger/costsync/config"
)

// LoadConfig resolves configuration for the MCP server. A config file
// path in COSTSYNC_CONFIG wins; otherwise everything comes from
// environment variables, the usual setup for an MCP host launching the
// server as a subprocess.
func LoadConfig() (*config.Config, error) {
	if path := os.Getenv("COSTSYNC_CONFIG"); path != "" {
		return config.Load(path)
	}
	return config.FromEnv()
}
