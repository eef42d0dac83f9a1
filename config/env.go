package config

import (
	"os"
	"strings"
)

// ApplyEnv overrides file settings from the environment
func (c *Config) ApplyEnv() {
	if port := os.Getenv("PORT"); port != "" {
		if strings.Contains(port, ":") {
			c.Server.Addr = port
		} else {
			c.Server.Addr = ":" + port
		}
	}
	if v := os.Getenv("DB_TYPE"); v != "" {
		c.Storage.Type = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Storage.DatabaseURL = v
	}
	if v := os.Getenv("DB_FILE"); v != "" {
		c.Storage.JSONFile = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("SERVER_URL"); v != "" {
		c.Client.ServerURL = v
	}
}
