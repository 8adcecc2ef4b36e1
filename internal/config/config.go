package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	DefaultKumaURL    = "http://localhost:3001"
	DefaultDomainFile = "domain.txt"
	DefaultTimeout    = 30 * time.Second
)

type Config struct {
	KumaURL      string
	Username     string
	Password     string
	TeamsWebhook string

	DomainFile     string
	VerboseLogging bool
	Timeout        time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		KumaURL:      getEnvString("UPTIME_KUMA_URL", DefaultKumaURL),
		Username:     os.Getenv("UPTIME_KUMA_USERNAME"),
		Password:     os.Getenv("UPTIME_KUMA_PASSWORD"),
		TeamsWebhook: os.Getenv("TEAMS_WEBHOOK"),

		DomainFile:     getEnvString("DOMAIN_FILE", defaultDomainFile()),
		VerboseLogging: getEnvBool("VERBOSE_LOGGING", false),
		Timeout:        time.Duration(getEnvInt("KUMA_TIMEOUT_SECONDS", int(DefaultTimeout/time.Second))) * time.Second,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports the first missing required variable, in the order
// username, password, webhook.
func (c *Config) Validate() error {
	switch {
	case c.Username == "":
		return fmt.Errorf("UPTIME_KUMA_USERNAME is not set in .env file")
	case c.Password == "":
		return fmt.Errorf("UPTIME_KUMA_PASSWORD is not set in .env file")
	case c.TeamsWebhook == "":
		return fmt.Errorf("TEAMS_WEBHOOK is not set in .env file")
	}
	return nil
}

// defaultDomainFile resolves domain.txt next to the running executable,
// falling back to the working directory.
func defaultDomainFile() string {
	exe, err := os.Executable()
	if err != nil {
		return DefaultDomainFile
	}
	return filepath.Join(filepath.Dir(exe), DefaultDomainFile)
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}
