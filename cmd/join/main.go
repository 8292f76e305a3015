package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"github.com/sandeepkv93/joinboard/internal/auth"
	"github.com/sandeepkv93/joinboard/internal/cache"
	"github.com/sandeepkv93/joinboard/internal/config"
	"github.com/sandeepkv93/joinboard/internal/deadline"
	"github.com/sandeepkv93/joinboard/internal/mutation"
	"github.com/sandeepkv93/joinboard/internal/update"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "join failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, logFile, err := cfg.NewLogger()
	if err != nil {
		return err
	}
	defer logFile.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, closeStore, err := cfg.OpenStore(ctx, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.WithError(err).Warn("close store failed")
		}
	}()

	collections := cache.New(s)
	coord := mutation.New(s, collections, logger)
	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		if secret, err = auth.LoadOrCreateSecret(cfg.SessionKeyPath()); err != nil {
			return err
		}
	}
	sessions := auth.NewSessionFile(cfg.SessionFile, secret)
	accounts := auth.NewService(s, collections, sessions, logger)

	deadlines := deadline.NewEngine(cfg.DeadlineBuffer)
	deadlines.Start()
	defer deadlines.Stop()

	session, restored := accounts.Restore(ctx)
	logger.WithFields(log.Fields{
		"backend":  cfg.StoreBackend,
		"restored": restored,
		"guest":    session.Guest,
	}).Info("join starting")

	var notifier update.DesktopNotifier = update.NoopDesktopNotifier{}
	if cfg.DesktopNotifications {
		notifier = update.ExecDesktopNotifier{}
	}

	model := update.NewModel(update.Deps{
		Context:              ctx,
		Cache:                collections,
		Mutations:            coord,
		Auth:                 accounts,
		Deadlines:            deadlines,
		Notifier:             notifier,
		Logger:               logger,
		DesktopNotifications: cfg.DesktopNotifications,
	}, session)

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	coord.OnChange(func(gen uint64) {
		program.Send(update.DataChangedMsg{Generation: gen})
	})
	if _, err := program.Run(); err != nil {
		return err
	}
	logger.Info("join stopped")
	return nil
}
