package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Browser  BrowserConfig
	Scraper  ScraperConfig
	Storage  StorageConfig
	Download DownloadConfig
	Log      LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Chrome process and the browser context pool.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxContexts is the number of incognito contexts that may be leased at once.
	MaxContexts int // default: 4

	// AcquireTimeout is how long a request waits for a free context before
	// it is rejected.
	AcquireTimeout time.Duration // default: 5s

	// Proxy is passed to Chrome as --proxy-server.
	Proxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string
}

// ScraperConfig controls a single page visit.
type ScraperConfig struct {
	// NavigationTimeout bounds navigation up to DOMContentLoaded.
	NavigationTimeout time.Duration // default: 30s

	// HeadingTimeout bounds the best-effort wait for the community heading.
	HeadingTimeout time.Duration // default: 10s

	// RequestTimeout is the hard deadline for the whole page visit.
	RequestTimeout time.Duration // default: 60s

	// Stealth injects anti-automation-detection JS before navigation.
	Stealth bool // default: true

	// BlockedResourceTypes lists resource types to block.
	// default: ["Font", "Media"]
	BlockedResourceTypes []string

	// AcceptLanguage is sent with every page request.
	AcceptLanguage string // default: "en-US,en;q=0.9"
}

// StorageConfig controls where downloaded images are kept.
type StorageConfig struct {
	// Dir is the flat directory images are written to.
	Dir string // default: "images"

	// PublicPrefix is the URL prefix images are served under.
	PublicPrefix string // default: "/images"

	// Retention deletes images older than this. Zero keeps them forever.
	Retention time.Duration // default: 0

	// SweepInterval is how often retention runs.
	SweepInterval time.Duration // default: 1h
}

// DownloadConfig controls the image download client.
type DownloadConfig struct {
	Timeout  time.Duration // default: 30s
	MaxBytes int64         // default: 10 MiB
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"

	// File, when set, also writes logs to a size-rotated file.
	File string
}

// Load reads configuration from environment variables with sane defaults.
// A .env file in the working directory is loaded first when present;
// variables already set in the environment win.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("config: could not read .env", "error", err)
	}

	return &Config{
		Server: ServerConfig{
			Host: envOr("XC_HOST", "0.0.0.0"),
			Port: envIntOr("XC_PORT", envIntOr("PORT", 8080)),
			Mode: envOr("XC_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:       envBoolOr("XC_HEADLESS", true),
			MaxContexts:    envIntOr("BROWSER_MAX_CONTEXTS", 4),
			AcquireTimeout: envDurationOr("BROWSER_ACQUIRE_TIMEOUT", 5*time.Second),
			Proxy:          os.Getenv("XC_PROXY"),
			NoSandbox:      envBoolOr("XC_NO_SANDBOX", false),
			BrowserBin:     os.Getenv("XC_BROWSER_BIN"),
		},
		Scraper: ScraperConfig{
			NavigationTimeout:    envDurationOr("XC_NAV_TIMEOUT", 30*time.Second),
			HeadingTimeout:       envDurationOr("XC_HEADING_TIMEOUT", 10*time.Second),
			RequestTimeout:       envDurationOr("XC_REQUEST_TIMEOUT", 60*time.Second),
			Stealth:              envBoolOr("XC_STEALTH", true),
			BlockedResourceTypes: envSliceOr("XC_BLOCKED_RESOURCES", []string{"Font", "Media"}),
			AcceptLanguage:       envOr("XC_ACCEPT_LANGUAGE", "en-US,en;q=0.9"),
		},
		Storage: StorageConfig{
			Dir:           envOr("STORAGE_DIR", "images"),
			PublicPrefix:  strings.TrimRight(envOr("STORAGE_PUBLIC_PREFIX", "/images"), "/"),
			Retention:     envDurationOr("STORAGE_RETENTION", 0),
			SweepInterval: envDurationOr("STORAGE_SWEEP_INTERVAL", time.Hour),
		},
		Download: DownloadConfig{
			Timeout:  envDurationOr("DOWNLOAD_TIMEOUT", 30*time.Second),
			MaxBytes: envInt64Or("DOWNLOAD_MAX_BYTES", 10<<20),
		},
		Log: LogConfig{
			Level:  envOr("XC_LOG_LEVEL", "info"),
			Format: envOr("XC_LOG_FORMAT", "json"),
			File:   os.Getenv("XC_LOG_FILE"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envInt64Or(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
