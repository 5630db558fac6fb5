package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingToken is returned by Load when TELEGRAM_BOT_TOKEN is not set.
var ErrMissingToken = errors.New("TELEGRAM_BOT_TOKEN must be set")

const (
	defaultWebAppURL     = "https://philippthedeveloper.github.io/TelegramLocationMiniApp/"
	defaultWebAppVersion = "7"
	defaultGeocoderURL   = "https://nominatim.openstreetmap.org"
	defaultUserAgent     = "TelegramLocationMiniApp/1.0"
)

type Config struct {
	BotToken      string
	TelegramDebug bool

	// WebAppURL is the mini-app address without the cache-busting version.
	WebAppURL     string
	WebAppVersion string

	City              string
	GeocoderURL       string
	GeocoderUserAgent string
	GeocoderTimeout   time.Duration

	// SearchDBPath enables the SQLite search journal when non-empty.
	SearchDBPath string

	LogLevel  string
	LogFormat string

	StartupRetries    int
	StartupRetryDelay time.Duration
}

// LoadConfig loads variables from a .env file if one exists.
func LoadConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Error loading .env file: %v", err)
	}
}

// GetEnv returns the trimmed value of an environment variable.
func GetEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// Load reads the whole configuration from the environment.
func Load() (*Config, error) {
	LoadConfig()

	cfg := &Config{
		BotToken:      GetEnv("TELEGRAM_BOT_TOKEN"),
		TelegramDebug: getEnvAsBool("TELEGRAM_DEBUG", false),

		WebAppURL:     getEnv("WEBAPP_URL", defaultWebAppURL),
		WebAppVersion: getEnv("WEBAPP_VERSION", defaultWebAppVersion),

		City:              getEnv("CITY", "Berlin"),
		GeocoderURL:       strings.TrimRight(getEnv("GEOCODER_URL", defaultGeocoderURL), "/"),
		GeocoderUserAgent: getEnv("GEOCODER_USER_AGENT", defaultUserAgent),
		GeocoderTimeout:   getEnvAsDuration("GEOCODER_TIMEOUT", 10*time.Second),

		SearchDBPath: GetEnv("SEARCH_DB_PATH"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		StartupRetries:    getEnvAsInt("STARTUP_RETRIES", 5),
		StartupRetryDelay: getEnvAsDuration("STARTUP_RETRY_DELAY", 3*time.Second),
	}

	if cfg.BotToken == "" {
		return nil, ErrMissingToken
	}
	if cfg.StartupRetries < 1 {
		cfg.StartupRetries = 1
	}

	return cfg, nil
}

// VersionedWebAppURL appends the cache-busting build version to the mini-app URL.
func (c *Config) VersionedWebAppURL() string {
	if c.WebAppVersion == "" {
		return c.WebAppURL
	}
	sep := "?"
	if strings.Contains(c.WebAppURL, "?") {
		sep = "&"
	}
	return c.WebAppURL + sep + "v=" + c.WebAppVersion
}

func getEnv(key, def string) string {
	if v := GetEnv(key); v != "" {
		return v
	}
	return def
}

func getEnvAsInt(key string, def int) int {
	v, err := strconv.Atoi(GetEnv(key))
	if err != nil {
		return def
	}
	return v
}

func getEnvAsBool(key string, def bool) bool {
	v, err := strconv.ParseBool(GetEnv(key))
	if err != nil {
		return def
	}
	return v
}

func getEnvAsDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(GetEnv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
