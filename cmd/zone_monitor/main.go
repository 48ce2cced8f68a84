package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/env"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/logger"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/metrics"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/webmonitor"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/zone-monitor/internal/webrtc"
)

func main() {
	cfg := webmonitor.DefaultConfig()

	var logLevel, logFile, envFile, stunServers string
	var logColor bool

	flag.StringVar(&cfg.Addr, "http", cfg.Addr, "HTTP server address")
	flag.StringVar(&cfg.AssetsDir, "assets", cfg.AssetsDir, "Directory with monitor.css / monitor.js overrides")
	flag.StringVar(&cfg.PushURL, "push", cfg.PushURL, "Push channel websocket URL (empty to disable)")
	flag.StringVar(&cfg.ZoneAPIBaseURL, "zone-api", cfg.ZoneAPIBaseURL, "Zone API base URL")
	flag.IntVar(&cfg.DisplayWidth, "width", cfg.DisplayWidth, "Initial display width")
	flag.IntVar(&cfg.DisplayHeight, "height", cfg.DisplayHeight, "Initial display height")
	flag.IntVar(&cfg.JPEGQuality, "jpeg-quality", cfg.JPEGQuality, "MJPEG quality (1-100)")
	flag.IntVar(&cfg.SaveRetries, "save-retries", cfg.SaveRetries, "Attempts per zone API call")
	flag.IntVar(&cfg.MaxWebRTCClients, "max-clients", cfg.MaxWebRTCClients, "Maximum WebRTC input peers (0 disables)")
	flag.StringVar(&stunServers, "stun", strings.Join(cfg.STUNServers, ","), "STUN server URLs (comma-separated)")
	flag.StringVar(&cfg.ColorSpace, "color-space", cfg.ColorSpace, "Channel order of configured colours (rgb, bgr)")
	flag.StringVar(&envFile, "env-file", ".env", "Optional .env file")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error, silent)")
	flag.BoolVar(&logColor, "log-color", true, "Enable colored log output")
	flag.StringVar(&logFile, "log-file", "", "Also write logs to this rotating file")
	flag.Parse()
	cfg.STUNServers = env.Split(stunServers)

	// Initialize logger
	level, err := logger.ParseLevel(logLevel)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}
	logger.InitWithFile(level, os.Stderr, logColor, logFile)

	if err := env.Load(envFile); err != nil {
		log.Fatalf("Failed to load %s: %v", envFile, err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		log.Fatalf("Invalid environment: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("%v", err)
	}

	m := metrics.New()
	mon, err := webmonitor.NewMonitor(cfg, nil, m)
	if err != nil {
		log.Fatalf("Failed to create monitor: %v", err)
	}

	var rtc *webrtc.Server
	if cfg.MaxWebRTCClients > 0 {
		rtc = webrtc.NewServer(cfg.STUNServers, cfg.MaxWebRTCClients, mon.Loop, m)
	}
	server := webmonitor.NewServer(cfg, mon, rtc)

	logger.Info("Main", "Zone monitor listening on %s", cfg.Addr)
	logger.Info("Main", "Push channel: %s, zone API: %s", cfg.PushURL, cfg.ZoneAPIBaseURL)
	logger.Info("Main", "Log level: %s", level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mon.Start(ctx)
	if err := server.Start(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Main", "Shutting down...")
	if err := server.Shutdown(); err != nil {
		logger.Error("Main", "Error during shutdown: %v", err)
	}
	mon.Stop()
	logger.Info("Main", "Monitor stopped")
}
