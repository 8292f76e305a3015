package config

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/sandeepkv93/joinboard/internal/store"
)

// OpenStore builds the configured backend, wrapped in the Redis cache when
// JOIN_REDIS_URL is set. The returned close func releases every resource it opened.
func (c Config) OpenStore(ctx context.Context, logger log.FieldLogger) (store.Store, func() error, error) {
	var (
		base    store.Store
		closers []func() error
	)
	switch c.StoreBackend {
	case BackendHTTP:
		s, err := store.NewHTTPStore(c.StoreURL, store.WithAuthToken(c.StoreAuth), store.WithTimeout(c.HTTPTimeout))
		if err != nil {
			return nil, nil, err
		}
		base = s
	case BackendFirebase:
		s, err := store.NewFirebaseStore(ctx, store.FirebaseConfig{DatabaseURL: c.StoreURL, CredentialsFile: c.FirebaseCredentials})
		if err != nil {
			return nil, nil, err
		}
		base = s
	case BackendSQLite:
		s, err := store.OpenSQLite(c.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		base = s
		closers = append(closers, s.Close)
	case BackendMemory:
		base = store.NewMemoryStore(nil)
	default:
		return nil, nil, fmt.Errorf("config: unknown store backend %q", c.StoreBackend)
	}

	closeAll := func() error {
		var first error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil && first == nil {
				first = err
			}
		}
		return first
	}

	if c.RedisURL == "" {
		return base, closeAll, nil
	}
	opts, err := redis.ParseURL(c.RedisURL)
	if err != nil {
		_ = closeAll()
		return nil, nil, fmt.Errorf("config: parse JOIN_REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	closers = append(closers, client.Close)
	return store.NewCachedStore(base, client, c.CacheTTL, logger), closeAll, nil
}

// NewLogger returns a logrus logger at the configured level. With a log file the
// output goes there; otherwise to stderr.
func (c Config) NewLogger() (*log.Logger, io.Closer, error) {
	logger := log.New()
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("config: JOIN_LOG_LEVEL: %w", err)
	}
	logger.SetLevel(level)
	if c.LogFile == "" {
		logger.SetOutput(os.Stderr)
		return logger, nopCloser{}, nil
	}
	if dir := filepath.Dir(c.LogFile); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, err
		}
	}
	f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("config: open log file: %w", err)
	}
	logger.SetOutput(f)
	return logger, f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
