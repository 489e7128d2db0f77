package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Layr-Labs/tweetproof-go/pkg/config"
	"github.com/Layr-Labs/tweetproof-go/pkg/logger"
	"github.com/Layr-Labs/tweetproof-go/pkg/server"
	"github.com/urfave/cli/v2"
)

const shutdownTimeout = 10 * time.Second

func main() {
	app := &cli.App{
		Name:  "tweetproof-server",
		Usage: "Tweetproof remote verification service",
		Description: `Answers signature verification requests for signed short posts.

The service only ever receives public keys. It exposes:
- POST /api/verify
- GET /healthz
- GET /metrics`,
		Version: server.Version,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Value:   config.DefaultServerPort,
				Usage:   "HTTP server port",
				EnvVars: []string{config.EnvTweetproofPort},
			},
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Path to a YAML config file",
				EnvVars: []string{config.EnvTweetproofConfig},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "Enable verbose logging",
				EnvVars: []string{config.EnvTweetproofVerbose},
			},
		},
		Action: runServer,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func runServer(c *cli.Context) error {
	cfg, err := parseServerConfig(c)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Debug})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	srv, err := server.NewServer(&cfg.Server, l)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	if cfg.Debug {
		l.Sugar().Infow("Server configuration",
			"port", cfg.Server.Port,
			"read_timeout", cfg.Server.ReadTimeout,
			"write_timeout", cfg.Server.WriteTimeout,
			"max_body_bytes", cfg.Server.MaxBodyBytes)
	}

	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	l.Sugar().Infow("Tweetproof server running", "address", srv.Addr(), "version", server.Version)
	l.Sugar().Infow("Available endpoints",
		"verify", "POST /api/verify",
		"health", "GET /healthz",
		"metrics", "GET /metrics")
	l.Sugar().Info("Press Ctrl+C to stop")

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	l.Sugar().Infow("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

// parseServerConfig layers the optional config file and the flags over the defaults
func parseServerConfig(c *cli.Context) (*config.Config, error) {
	// the server keeps no seeds, so the storage section only needs to validate
	cfg := config.DefaultConfig(os.TempDir())
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.LoadConfigFile(path, os.TempDir()); err != nil {
			return nil, err
		}
	}

	if c.IsSet("port") || c.String("config") == "" {
		cfg.Server.Port = c.Int("port")
	}
	if c.Bool("verbose") {
		cfg.Debug = true
	}
	return cfg, nil
}
