package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/shashwatraajsingh/TRADEETH/internal/dialog"
	"github.com/shashwatraajsingh/TRADEETH/internal/logger"
	"github.com/shashwatraajsingh/TRADEETH/internal/monitor"
	"github.com/shashwatraajsingh/TRADEETH/internal/session"
	"github.com/shashwatraajsingh/TRADEETH/internal/store"
	"github.com/shashwatraajsingh/TRADEETH/internal/telegram"
	"github.com/shashwatraajsingh/TRADEETH/internal/trace"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	if err := initializeSystem(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	initializeJournal(ctx, cfg)

	st, err := store.Open(cfg.DataFile)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to open account store", err, "path", cfg.DataFile)
		return err
	}

	tg, err := initializeTelegram(cfg)
	if err != nil {
		return err
	}

	oracle := initializeOracle(ctx, cfg)
	sessions := session.NewManager(time.Duration(cfg.Session.TTLHours) * time.Hour)
	engine := dialog.New(cfg, st, oracle, sessions, tg)
	scanner := initializeMonitor(st, oracle, tg)
	poller := telegram.NewPoller(tg, engine)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		monitor.Run(ctx, scanner, time.Duration(cfg.Monitor.IntervalSeconds)*time.Second)
	}()
	go func() {
		defer wg.Done()
		sessions.SweepLoop(ctx, time.Hour)
	}()
	go func() {
		defer wg.Done()
		poller.Run(ctx)
	}()

	logger.Info(ctx, "Bot started",
		"network", cfg.Network,
		"data_file", cfg.DataFile,
		"monitor_interval_s", cfg.Monitor.IntervalSeconds)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc

	logger.Info(ctx, "Shutting down...")
	cancel()
	wg.Wait()

	if err := trace.Shutdown(context.Background()); err != nil {
		logger.Warn(ctx, "Tracer shutdown failed", "error", err)
	}
	return nil
}
