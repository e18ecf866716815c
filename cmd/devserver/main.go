// Command devserver runs the local stand-in for the remote table service.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/itsDongki/quicknotes/internal/config"
	"github.com/itsDongki/quicknotes/internal/devserver"
	"github.com/itsDongki/quicknotes/internal/devserver/deps"
	"github.com/itsDongki/quicknotes/internal/devserver/seed"
	"github.com/itsDongki/quicknotes/internal/devserver/store"
	"github.com/itsDongki/quicknotes/internal/devserver/store/memory"
	redisstore "github.com/itsDongki/quicknotes/internal/devserver/store/redis"
	"github.com/itsDongki/quicknotes/internal/logger"
	"github.com/itsDongki/quicknotes/internal/version"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("devserver failed: %v", err)
	}
}

func run() error {
	cfg, err := config.LoadServer()
	if err != nil {
		return err
	}

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)
	defer func() { _ = loggerClient.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		st          store.Store
		redisClient *goredis.Client
	)
	if cfg.RedisAddr != "" {
		loggerClient.Infof("connecting to redis at %s", cfg.RedisAddr)
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return fmt.Errorf("redis unavailable at %s: %w", cfg.RedisAddr, err)
		}
		st = redisstore.New(redisClient)
	} else {
		loggerClient.Info("no redis configured, using in-memory store")
		st = memory.New()
	}

	if cfg.SeedFile != "" {
		count, err := seed.NewLoader(cfg.SeedFile).Apply(ctx, st)
		if err != nil {
			return fmt.Errorf("seed load failed: %w", err)
		}
		loggerClient.Info("seed notes loaded",
			logger.String("file", cfg.SeedFile),
			logger.Int("count", count))
	}

	d := deps.Deps{
		Logger:    loggerClient,
		StartTime: time.Now(),
		Version:   version.Version,
		Commit:    version.Commit,
		BuildDate: version.BuildDate,
		GoVersion: version.GoVersion,
		Store:     st,
		JWTSecret: []byte(cfg.JWTSecret),
		TokenTTL:  cfg.TokenTTL,
	}

	server := devserver.New(cfg, loggerClient, d)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		loggerClient.Info("shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			loggerClient.Warnf("failed to close redis: %v", err)
		}
	}

	loggerClient.Info("devserver stopped cleanly")
	return nil
}
