package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Share backends
const (
	ShareBackendBolt   = "bolt"
	ShareBackendSQLite = "sqlite"
	ShareBackendRedis  = "redis"
)

// Config holds all application configuration
type Config struct {
	// Festival
	FestivalBaseURL string
	FestivalName    string
	FestivalStart   time.Time
	FestivalEnd     time.Time
	ParseCacheTTL   time.Duration

	// Notion (optional, both or neither)
	NotionAPIKey     string
	NotionDatabaseID string
	SyncTimeout      time.Duration

	// Sharing
	ShareBackend  string // "bolt", "sqlite" or "redis"
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Jobs
	RefreshSchedule string // cron spec for the availability refresh

	// Server
	ServerPort string
	PublicURL  string

	// Paths
	DatabaseFile string // $CONFIG_DIR/festplan.db
	SharesFile   string // $CONFIG_DIR/shares.db (sqlite backend)
	VenuesFile   string // $CONFIG_DIR/venues.txt

	// Logging
	LogLevel  string
	LogFormat string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Setup viper FIRST to load .env file
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = viper.ReadInConfig()

	setDefaults()

	// NOW read CONFIG_DIR from viper (which has loaded .env file)
	configDir := viper.GetString("CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "festplan")
	} else {
		// Convert relative path to absolute path
		absPath, err := filepath.Abs(configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for CONFIG_DIR: %w", err)
		}
		configDir = absPath
	}

	// Create config directory if it doesn't exist
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	return fromViper(configDir)
}

func setDefaults() {
	viper.SetDefault("FESTIVAL_BASE_URL", "https://iffr.com")
	viper.SetDefault("FESTIVAL_NAME", "IFFR")
	viper.SetDefault("FESTIVAL_START", "2026-01-29")
	viper.SetDefault("FESTIVAL_END", "2026-02-08")
	viper.SetDefault("PARSE_CACHE_TTL_MINUTES", 10)
	viper.SetDefault("SYNC_TIMEOUT_SECONDS", 15)
	viper.SetDefault("SHARE_BACKEND", ShareBackendBolt)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REFRESH_SCHEDULE", "0 */2 * * *")
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("PUBLIC_URL", "http://localhost:8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "text")
}

func fromViper(configDir string) (*Config, error) {
	start, err := time.Parse("2006-01-02", viper.GetString("FESTIVAL_START"))
	if err != nil {
		return nil, fmt.Errorf("invalid FESTIVAL_START: %w", err)
	}
	end, err := time.Parse("2006-01-02", viper.GetString("FESTIVAL_END"))
	if err != nil {
		return nil, fmt.Errorf("invalid FESTIVAL_END: %w", err)
	}

	config := &Config{
		// Festival
		FestivalBaseURL: strings.TrimRight(viper.GetString("FESTIVAL_BASE_URL"), "/"),
		FestivalName:    viper.GetString("FESTIVAL_NAME"),
		FestivalStart:   start,
		FestivalEnd:     end,
		ParseCacheTTL:   time.Duration(viper.GetInt("PARSE_CACHE_TTL_MINUTES")) * time.Minute,

		// Notion
		NotionAPIKey:     viper.GetString("NOTION_API_KEY"),
		NotionDatabaseID: viper.GetString("NOTION_DATABASE_ID"),
		SyncTimeout:      time.Duration(viper.GetInt("SYNC_TIMEOUT_SECONDS")) * time.Second,

		// Sharing
		ShareBackend:  strings.ToLower(viper.GetString("SHARE_BACKEND")),
		RedisAddr:     viper.GetString("REDIS_ADDR"),
		RedisPassword: viper.GetString("REDIS_PASSWORD"),
		RedisDB:       viper.GetInt("REDIS_DB"),

		// Jobs
		RefreshSchedule: viper.GetString("REFRESH_SCHEDULE"),

		// Server
		ServerPort: viper.GetString("SERVER_PORT"),
		PublicURL:  strings.TrimRight(viper.GetString("PUBLIC_URL"), "/"),

		// Paths
		DatabaseFile: filepath.Join(configDir, "festplan.db"),
		SharesFile:   filepath.Join(configDir, "shares.db"),
		VenuesFile:   filepath.Join(configDir, "venues.txt"),

		// Logging
		LogLevel:  viper.GetString("LOG_LEVEL"),
		LogFormat: viper.GetString("LOG_FORMAT"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks field combinations
func (c *Config) Validate() error {
	if (c.NotionAPIKey == "") != (c.NotionDatabaseID == "") {
		return fmt.Errorf("NOTION_API_KEY and NOTION_DATABASE_ID must both be set or both be empty")
	}
	if !c.FestivalEnd.After(c.FestivalStart) {
		return fmt.Errorf("FESTIVAL_END must be after FESTIVAL_START")
	}
	switch c.ShareBackend {
	case ShareBackendBolt, ShareBackendSQLite, ShareBackendRedis:
	default:
		return fmt.Errorf("unknown SHARE_BACKEND %q", c.ShareBackend)
	}
	if c.ParseCacheTTL < 0 {
		return fmt.Errorf("PARSE_CACHE_TTL_MINUTES must not be negative")
	}
	return nil
}

// NotionConfigured reports whether server-side credentials are present
func (c *Config) NotionConfigured() bool {
	return c.NotionAPIKey != "" && c.NotionDatabaseID != ""
}
