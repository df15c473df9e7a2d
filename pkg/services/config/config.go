package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/ini.v1"
)

const (
	DefaultAzureProfile = "default"

	DefaultMaxResources          = 100
	DefaultMaxMetricsPerResource = 5
	DefaultRetentionDays         = 90
)

type Config struct {
	SubscriptionID string
	Scope          string

	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string

	MaxResources          int
	MaxMetricsPerResource int
	RetentionDays         int
	TagKeys               []string
}

// Load reads configuration from the environment. The subscription ID falls
// back to the local Azure CLI profile when the env var is absent. Missing
// required values are a startup failure; no partial run is attempted.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("MAX_RESOURCES", DefaultMaxResources)
	v.SetDefault("MAX_METRICS_PER_RESOURCE", DefaultMaxMetricsPerResource)
	v.SetDefault("RETENTION_DAYS", DefaultRetentionDays)

	cfg := &Config{
		SubscriptionID:        v.GetString("AZURE_SUBSCRIPTION_ID"),
		Scope:                 v.GetString("AZURE_SCOPE"),
		DBHost:                v.GetString("DB_HOST"),
		DBPort:                v.GetString("DB_PORT"),
		DBName:                v.GetString("DB_NAME"),
		DBUser:                v.GetString("DB_USER"),
		DBPassword:            v.GetString("DB_PASSWORD"),
		MaxResources:          v.GetInt("MAX_RESOURCES"),
		MaxMetricsPerResource: v.GetInt("MAX_METRICS_PER_RESOURCE"),
		RetentionDays:         v.GetInt("RETENTION_DAYS"),
		TagKeys:               splitTagKeys(v.GetString("COST_TAG_KEYS")),
	}

	if cfg.SubscriptionID == "" {
		sub, err := subscriptionFromAzureProfile(DefaultAzureProfile)
		if err == nil {
			cfg.SubscriptionID = sub
		}
	}
	if cfg.SubscriptionID == "" {
		return nil, fmt.Errorf("AZURE_SUBSCRIPTION_ID is required")
	}

	if cfg.Scope == "" {
		cfg.Scope = fmt.Sprintf("/subscriptions/%s", cfg.SubscriptionID)
	}

	var missing []string
	for _, field := range []struct {
		name  string
		value string
	}{
		{"DB_HOST", cfg.DBHost},
		{"DB_NAME", cfg.DBName},
		{"DB_USER", cfg.DBUser},
		{"DB_PASSWORD", cfg.DBPassword},
	} {
		if field.value == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required database configuration: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

func splitTagKeys(raw string) []string {
	if raw == "" {
		return nil
	}
	var keys []string
	for _, key := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(key); trimmed != "" {
			keys = append(keys, trimmed)
		}
	}
	return keys
}

// subscriptionFromAzureProfile reads the subscription from ~/.azure/config,
// the same profile format the Azure CLI maintains.
func subscriptionFromAzureProfile(profile string) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("unable to get home directory: %w", err)
	}

	configPath := filepath.Join(homeDir, ".azure", "config")
	cfg, err := ini.Load(configPath)
	if err != nil {
		return "", fmt.Errorf("unable to load Azure config file: %w", err)
	}

	section, err := cfg.GetSection(profile)
	if err != nil {
		return "", fmt.Errorf("profile %s not found in Azure config: %w", profile, err)
	}

	sub := section.Key("subscription").String()
	if sub == "" {
		return "", fmt.Errorf("subscription ID not found in profile %s", profile)
	}
	return sub, nil
}
