package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration in a structured way.
type Config struct {
	App        AppConfig
	Paths      PathsConfig
	Access     AccessConfig
	Transport  TransportConfig
	Scraper    ScraperConfig
	WorkerPool WorkerPoolConfig
}

type AppConfig struct {
	Version        string
	Port           string
	Debug          bool
	Environment    string
	BasePath       string
	BasicAuth      []string
	TrustedProxies []string
}

type PathsConfig struct {
	Storages       string
	PermissionFile string
	AuditDB        string
}

type AccessConfig struct {
	// AdminID seeds the permission store when the persisted record has
	// no admin yet. Zero means never configured: every gated action is
	// denied until an admin is set.
	AdminID int64
	// StatusLegacyGrant reproduces the upstream behavior where checking
	// status appended the caller to the allow-list. Off by default.
	StatusLegacyGrant bool
	DefaultFetchCount int
}

type TransportConfig struct {
	SendURL    string
	ProfileURL string
	Timeout    time.Duration
}

type ScraperConfig struct {
	BaseURL  string
	Username string
	Password string
}

type WorkerPoolConfig struct {
	Size      int
	QueueSize int
}

// Global provides access to the loaded configuration globally.
var Global *Config

// LoadConfig loads configuration from environment variables or defaults.
// A .env file in the working directory is honored when present.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	storages := getEnv("APP_STORAGES_DIR", "storages")

	debug := false
	if v := os.Getenv("APP_DEBUG"); v == "true" || v == "1" || v == "on" {
		debug = true
	}

	cfg := &Config{
		App: AppConfig{
			Version:     "v1.2.0",
			Port:        getEnv("APP_PORT", "3000"),
			Debug:       debug,
			Environment: getEnv("APP_ENV", "development"),
			BasePath:    getEnv("APP_BASE_PATH", ""),
		},
		Paths: PathsConfig{
			Storages:       storages,
			PermissionFile: getEnv("ACCESS_STORE_FILE", filepath.Join(storages, "permissions.json")),
			AuditDB:        getEnv("ACCESS_AUDIT_DB", filepath.Join(storages, "audit.db")),
		},
		Access: AccessConfig{
			AdminID:           getEnvInt64("ACCESS_ADMIN_ID", 0),
			StatusLegacyGrant: getEnvBool("ACCESS_STATUS_LEGACY_GRANT", false),
			DefaultFetchCount: getEnvInt("ACCESS_DEFAULT_FETCH_COUNT", 10),
		},
		Transport: TransportConfig{
			SendURL:    getEnv("TRANSPORT_SEND_URL", ""),
			ProfileURL: getEnv("TRANSPORT_PROFILE_URL", ""),
			Timeout:    time.Duration(getEnvInt("TRANSPORT_TIMEOUT_SECONDS", 15)) * time.Second,
		},
		Scraper: ScraperConfig{
			BaseURL:  getEnv("SCRAPER_BASE_URL", "https://www.instagram.com"),
			Username: getEnv("INSTAGRAM_USERNAME", ""),
			Password: getEnv("INSTAGRAM_PASSWORD", ""),
		},
		WorkerPool: WorkerPoolConfig{
			Size:      getEnvInt("MESSAGE_WORKER_POOL_SIZE", 20),
			QueueSize: getEnvInt("MESSAGE_WORKER_QUEUE_SIZE", 1000),
		},
	}

	Global = cfg
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	switch os.Getenv(key) {
	case "true", "1", "on", "yes":
		return true
	case "false", "0", "off", "no":
		return false
	}
	return fallback
}
