// Package config loads Settings, clawguard's ambient application
// configuration, from CLAWGUARD_-prefixed environment variables, with an
// optional YAML defaults file layered underneath via viper.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Settings is the service's top-level runtime configuration, loaded once
// at startup in main().
type Settings struct {
	Host    string
	Port    int
	Debug   bool
	LogLevel string

	DataDir    string
	PolicyPath string

	Database DatabaseConfig

	AuthDisabled bool
	AuthSecret   string

	RedisURL string
}

// DatabaseConfig assembles the audit store's Postgres connection
// parameters, the way the gateway assembles db.Config in main().
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxConnections  int
	IdleConnections int
	MaxLifetime     time.Duration
}

// Load reads Settings from the environment. An optional YAML file
// (CLAWGUARD_CONFIG_FILE, defaulting to config/clawguard.yaml if present)
// is layered underneath via viper so operators can set defaults without
// environment variables, but every field can always be overridden by its
// CLAWGUARD_ env var.
func Load() (*Settings, error) {
	v := viper.New()
	v.SetEnvPrefix("CLAWGUARD")
	v.AutomaticEnv()

	cfgFile := os.Getenv("CLAWGUARD_CONFIG_FILE")
	if cfgFile == "" {
		cfgFile = "config/clawguard.yaml"
	}
	if _, err := os.Stat(cfgFile); err == nil {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	home, _ := os.UserHomeDir()
	dataDir := filepath.Join(home, ".config", "clawguard")

	s := &Settings{
		Host:         getEnvString("CLAWGUARD_HOST", "0.0.0.0"),
		Port:         getEnvInt("CLAWGUARD_PORT", 8642),
		Debug:        getEnvBool("CLAWGUARD_DEBUG", false),
		LogLevel:     getEnvString("CLAWGUARD_LOG_LEVEL", "info"),
		DataDir:      getEnvString("CLAWGUARD_DATA_DIR", dataDir),
		AuthDisabled: getEnvBool("CLAWGUARD_AUTH_DISABLED", true),
		AuthSecret:   getEnvString("CLAWGUARD_AUTH_SECRET", ""),
		RedisURL:     getEnvString("CLAWGUARD_REDIS_URL", ""),
	}
	s.PolicyPath = getEnvString("CLAWGUARD_POLICY_PATH", filepath.Join(s.DataDir, "policy.yaml"))

	s.Database = DatabaseConfig{
		Host:            getEnvString("CLAWGUARD_DB_HOST", "localhost"),
		Port:            getEnvInt("CLAWGUARD_DB_PORT", 5432),
		User:            getEnvString("CLAWGUARD_DB_USER", "clawguard"),
		Password:        getEnvString("CLAWGUARD_DB_PASSWORD", ""),
		Database:        getEnvString("CLAWGUARD_DB_NAME", "clawguard"),
		SSLMode:         getEnvString("CLAWGUARD_DB_SSLMODE", "disable"),
		MaxConnections:  getEnvInt("CLAWGUARD_DB_MAX_CONNECTIONS", 25),
		IdleConnections: getEnvInt("CLAWGUARD_DB_IDLE_CONNECTIONS", 5),
		MaxLifetime:     5 * time.Minute,
	}

	return s, nil
}

func getEnvString(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if val := os.Getenv(key); val != "" {
		switch strings.ToLower(val) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return defaultValue
}
