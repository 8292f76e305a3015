// Package config reads JOIN_* settings from the environment and an optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendHTTP     = "http"
	BackendFirebase = "firebase"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
)

type Config struct {
	StoreBackend         string
	StoreURL             string
	StoreAuth            string
	HTTPTimeout          time.Duration
	FirebaseCredentials  string
	SQLitePath           string
	RedisURL             string
	CacheTTL             time.Duration
	SessionFile          string
	// SessionSecret signs the session file. Empty means a random per-install key kept
	// in SessionKeyPath.
	SessionSecret        string
	LogLevel             string
	LogFile              string
	ListenAddr           string
	DeadlineBuffer       int
	DesktopNotifications bool
}

func Default() Config {
	return Config{
		StoreBackend:         BackendSQLite,
		HTTPTimeout:          15 * time.Second,
		SQLitePath:           "join.db",
		CacheTTL:             30 * time.Second,
		SessionFile:          ".join_session",
		LogLevel:             "info",
		LogFile:              "join.log",
		ListenAddr:           ":8787",
		DeadlineBuffer:       64,
		DesktopNotifications: false,
	}
}

// Load applies .env (when present) to the process environment, then reads it.
// Variables already set in the environment win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}
	cfg := FromEnv(Default())
	return cfg, cfg.Validate()
}

func FromEnv(base Config) Config {
	cfg := base
	if v, ok := getEnv("JOIN_STORE_BACKEND"); ok {
		cfg.StoreBackend = strings.ToLower(v)
	}
	if v, ok := getEnv("JOIN_STORE_URL"); ok {
		cfg.StoreURL = v
	}
	if v, ok := getEnv("JOIN_STORE_AUTH"); ok {
		cfg.StoreAuth = v
	}
	if v, ok := getEnvDuration("JOIN_HTTP_TIMEOUT"); ok && v > 0 {
		cfg.HTTPTimeout = v
	}
	if v, ok := getEnv("JOIN_FIREBASE_CREDENTIALS"); ok {
		cfg.FirebaseCredentials = v
	}
	if v, ok := getEnv("JOIN_SQLITE_PATH"); ok {
		cfg.SQLitePath = v
	}
	if v, ok := getEnv("JOIN_REDIS_URL"); ok {
		cfg.RedisURL = v
	}
	if v, ok := getEnvDuration("JOIN_CACHE_TTL"); ok && v >= 0 {
		cfg.CacheTTL = v
	}
	if v, ok := getEnv("JOIN_SESSION_FILE"); ok {
		cfg.SessionFile = v
	}
	if v, ok := getEnv("JOIN_SESSION_SECRET"); ok {
		cfg.SessionSecret = v
	}
	if v, ok := getEnv("JOIN_LOG_LEVEL"); ok {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v, ok := getEnv("JOIN_LOG_FILE"); ok {
		cfg.LogFile = v
	}
	if v, ok := getEnv("JOIN_LISTEN_ADDR"); ok {
		cfg.ListenAddr = v
	}
	if v, ok := getEnvInt("JOIN_DEADLINE_BUFFER"); ok && v > 0 {
		cfg.DeadlineBuffer = v
	}
	if v, ok := getEnvBool("JOIN_DESKTOP_NOTIFICATIONS"); ok {
		cfg.DesktopNotifications = v
	}
	return cfg
}

func (c Config) Validate() error {
	switch c.StoreBackend {
	case BackendHTTP, BackendFirebase:
		if strings.TrimSpace(c.StoreURL) == "" {
			return fmt.Errorf("config: JOIN_STORE_URL is required for the %s backend", c.StoreBackend)
		}
	case BackendSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("config: JOIN_SQLITE_PATH is required for the sqlite backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("config: unknown store backend %q", c.StoreBackend)
	}
	return nil
}

// SessionKeyPath is where the generated session key lives, next to the session file.
func (c Config) SessionKeyPath() string {
	if strings.TrimSpace(c.SessionFile) == "" {
		return ""
	}
	return c.SessionFile + ".key"
}

func getEnv(name string) (string, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	return raw, raw != ""
}

func getEnvInt(name string) (int, bool) {
	raw, ok := getEnv(name)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

// getEnvDuration accepts a Go duration or a plain number of seconds.
func getEnvDuration(name string) (time.Duration, bool) {
	raw, ok := getEnv(name)
	if !ok {
		return 0, false
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, true
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, false
	}
	return d, true
}

func getEnvBool(name string) (bool, bool) {
	raw, ok := getEnv(name)
	if !ok {
		return false, false
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
