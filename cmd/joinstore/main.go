package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/sandeepkv93/joinboard/internal/config"
	"github.com/sandeepkv93/joinboard/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "joinstore failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.StoreBackend == config.BackendHTTP {
		return fmt.Errorf("joinstore serves a local backend, JOIN_STORE_BACKEND is %q", cfg.StoreBackend)
	}

	logger := log.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, closeStore, err := cfg.OpenStore(ctx, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.WithError(err).Warn("close store failed")
		}
	}()

	var opts []server.Option
	if cfg.StoreAuth != "" {
		opts = append(opts, server.WithAuthToken(cfg.StoreAuth))
	}
	logger.WithField("backend", cfg.StoreBackend).Info("joinstore starting")
	return server.New(s, logger, opts...).ListenAndServe(ctx, cfg.ListenAddr)
}
