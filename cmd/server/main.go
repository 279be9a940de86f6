package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/infrastructure/server"
)

const (
	connectTimeout  = 10 * time.Second
	shutdownTimeout = 15 * time.Second
)

func main() {
	configFile := flag.String("config", os.Getenv("CONFIG_FILE"), "YAML or TOML file of environment settings")
	port := flag.String("port", "", "Server port")
	version := flag.String("version", "", "Frame build version")
	localDev := flag.Bool("local-dev", false, "Serve bootstrap frames from the local dev server")
	frameDir := flag.String("frames", "", "Local frame build to serve under /dist.3p (local dev only)")
	redisURL := flag.String("redis", "", "Redis URL for the shared bootstrap URL cache")
	dev := flag.Bool("dev", false, "Development logging (colored, debug level)")
	flag.Parse()

	if *configFile != "" {
		applied, err := config.ApplyFile(*configFile)
		if err != nil {
			log.Fatalf("Failed to apply config file: %v", err)
		}
		log.Printf("Applied %d settings from %s", len(applied), *configFile)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Flags override environment variables
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Server.Port = *port
		case "version":
			cfg.Frames.Version = *version
		case "local-dev":
			cfg.Frames.LocalDev = *localDev
		case "frames":
			cfg.Frames.DevFrameDir = *frameDir
		case "redis":
			cfg.Cache.RedisURL = *redisURL
		case "dev":
			if *dev {
				cfg.Logging.Development = true
				cfg.Logging.Level = "debug"
			}
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	srv, err := server.NewServer(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run()
	}()

	select {
	case <-sigChan:
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	case err := <-errChan:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}
}
