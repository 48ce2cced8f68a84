package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/env"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/logger"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/metrics"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/zoneserver"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/zonestore"
)

func main() {
	cfg := zoneserver.DefaultConfig()

	flag.StringVar(&cfg.Addr, "http", cfg.Addr, "HTTP server address")
	flag.StringVar(&cfg.Store, "store", cfg.Store, "Zone store backend (file, redis)")
	flag.StringVar(&cfg.ZoneFile, "zone-file", cfg.ZoneFile, "Zone polygon file for the file store")
	flag.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "Redis address for the redis store")
	flag.StringVar(&cfg.RedisPassword, "redis-password", cfg.RedisPassword, "Redis password")
	flag.IntVar(&cfg.RedisDB, "redis-db", cfg.RedisDB, "Redis database")
	flag.StringVar(&cfg.RedisKey, "redis-key", cfg.RedisKey, "Redis key holding the zone")
	envFile := flag.String("env-file", ".env", "Optional .env file")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error, silent)")
	logColor := flag.Bool("log-color", true, "Enable colored log output")
	logFile := flag.String("log-file", "", "Also write logs to this rotating file")
	flag.Parse()

	level, err := logger.ParseLevel(*logLevel)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}
	logger.InitWithFile(level, os.Stderr, *logColor, *logFile)

	if err := env.Load(*envFile); err != nil {
		log.Fatalf("Failed to load %s: %v", *envFile, err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		log.Fatalf("Invalid environment: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("%v", err)
	}

	logger.Info("Main", "Zone server starting...")
	logger.Info("Main", "Log level: %s", level)

	var store zonestore.Store
	switch cfg.Store {
	case "redis":
		store, err = zonestore.NewRedisStore(zonestore.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Key:      cfg.RedisKey,
		})
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
	default:
		store = zonestore.NewFileStore(cfg.ZoneFile)
	}

	srv, err := zoneserver.New(cfg, store, metrics.New())
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}
	if err := srv.Start(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Main", "Shutting down...")
	if err := srv.Shutdown(); err != nil {
		logger.Error("Main", "Error during shutdown: %v", err)
	}
	logger.Info("Main", "Server stopped")
}
