package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Server holds the credentials for one tracking server.
type Server struct {
	URL     string `yaml:"url"`
	APIUser string `yaml:"api_user"`
	APIKey  string `yaml:"api_key"`
}

// Configured reports whether all three credential fields are set.
func (s Server) Configured() bool {
	return s.URL != "" && s.APIUser != "" && s.APIKey != ""
}

// Config represents the application configuration.
type Config struct {
	Primary     Server `yaml:"primary"`
	Partner     Server `yaml:"partner"`
	LedgerPath  string `yaml:"ledger_path"`
	LockPath    string `yaml:"lock_path"`
	LogLevel    string `yaml:"log_level"`
	TaskFilter  string `yaml:"task_filter"`
	WebhookURLs string `yaml:"webhook_urls"`
}

// Load loads configuration from multiple sources with precedence:
// 1. Environment variables
// 2. ./.env.local (dotenv) - walks up parent directories to find it
// 3. ~/.config/showsync/config.yaml (YAML)
func Load() (*Config, error) {
	cfg := &Config{
		LogLevel:   "info",
		TaskFilter: "asset-request",
	}

	// Load .env.local if it exists (walking up parent directories)
	if envPath := findEnvLocal(); envPath != "" {
		_ = godotenv.Load(envPath)
	}

	// Load ~/.config/showsync/config.yaml if it exists; the file is optional
	_ = loadYAMLConfig(cfg)

	// Override with environment variables
	if v := os.Getenv("TRACK_SERVER"); v != "" {
		cfg.Primary.URL = v
	}
	if v := os.Getenv("TRACK_API_USER"); v != "" {
		cfg.Primary.APIUser = v
	}
	if v := getEnvOrFile("TRACK_API_KEY", "TRACK_API_KEY_FILE"); v != "" {
		cfg.Primary.APIKey = v
	}
	if v := os.Getenv("PARTNER_TRACK_SERVER"); v != "" {
		cfg.Partner.URL = v
	}
	if v := os.Getenv("PARTNER_TRACK_API_USER"); v != "" {
		cfg.Partner.APIUser = v
	}
	if v := getEnvOrFile("PARTNER_TRACK_API_KEY", "PARTNER_TRACK_API_KEY_FILE"); v != "" {
		cfg.Partner.APIKey = v
	}
	if v := os.Getenv("SHOWSYNC_LEDGER_PATH"); v != "" {
		cfg.LedgerPath = v
	}
	if v := os.Getenv("SHOWSYNC_LOCK_PATH"); v != "" {
		cfg.LockPath = v
	}
	if v := os.Getenv("SHOWSYNC_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("SHOWSYNC_TASK_FILTER"); v != "" {
		cfg.TaskFilter = v
	}
	if v := os.Getenv("SHOWSYNC_WEBHOOK_URLS"); v != "" {
		cfg.WebhookURLs = v
	}

	// Set defaults if not configured
	if cfg.LedgerPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		cfg.LedgerPath = filepath.Join(homeDir, ".local", "share", "showsync", "ledger.db")
	}
	if cfg.LockPath == "" {
		cfg.LockPath = filepath.Join(os.TempDir(), "showsync_copy_in_progress.lock")
	}

	return cfg, nil
}

// Validate checks that the primary server credentials are present. The
// partner server is optional; without it the mirror handlers are disabled.
func (c *Config) Validate() error {
	var missing []string
	if c.Primary.URL == "" {
		missing = append(missing, "TRACK_SERVER")
	}
	if c.Primary.APIUser == "" {
		missing = append(missing, "TRACK_API_USER")
	}
	if c.Primary.APIKey == "" {
		missing = append(missing, "TRACK_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// SlogLevel parses the configured log level into a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Webhooks returns the configured webhook URLs as a slice.
func (c *Config) Webhooks() []string {
	if c.WebhookURLs == "" {
		return nil
	}
	var urls []string
	for _, u := range strings.Split(c.WebhookURLs, ",") {
		if trimmed := strings.TrimSpace(u); trimmed != "" {
			urls = append(urls, trimmed)
		}
	}
	return urls
}

// loadYAMLConfig loads configuration from ~/.config/showsync/config.yaml
func loadYAMLConfig(cfg *Config) error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(homeDir, ".config", "showsync", "config.yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

// getEnvOrFile gets an environment variable value, or reads it from a file
// if the _FILE variant is set
func getEnvOrFile(envVar, fileVar string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}

	if filePath := os.Getenv(fileVar); filePath != "" {
		data, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(data))
		}
	}

	return ""
}

// findEnvLocal searches for .env.local starting from cwd and walking up
// parent directories. Stops at the user's home directory.
// Returns the path to .env.local if found, empty string otherwise.
func findEnvLocal() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// If we can't get home dir, just check cwd
		if _, err := os.Stat(".env.local"); err == nil {
			return ".env.local"
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	// Clean paths for reliable comparison
	homeDir = filepath.Clean(homeDir)
	dir := filepath.Clean(cwd)

	for {
		envPath := filepath.Join(dir, ".env.local")
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}

		// Stop if we've reached home directory
		if dir == homeDir {
			break
		}

		// Get parent directory
		parent := filepath.Dir(dir)

		// Stop if we've reached the filesystem root
		if parent == dir {
			break
		}

		dir = parent
	}

	return ""
}
