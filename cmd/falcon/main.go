package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rickgao/falcon/internal/config"
	"github.com/rickgao/falcon/internal/connection"
	"github.com/rickgao/falcon/internal/feed"
	"github.com/rickgao/falcon/internal/logging"
	"github.com/rickgao/falcon/internal/supervisor"
	"github.com/rickgao/falcon/internal/version"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func main() {
	app := &cli.App{
		Name:    "falcon",
		Usage:   "latency-instrumented Polymarket CLOB WebSocket client",
		Version: version.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to YAML config file (optional; POLY_* env vars are used when absent)",
				EnvVars: []string{"FALCON_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "override log.level (debug, info, warn, error)",
				EnvVars: []string{"FALCON_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "override log.format (json, text)",
				EnvVars: []string{"FALCON_LOG_FORMAT"},
			},
			&cli.BoolFlag{
				Name:  "no-feed",
				Usage: "disable the reference price feed",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "falcon:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.LoadWithDefaults(c.String("config"))
	if err != nil {
		return err
	}
	if v := c.String("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v := c.String("log-format"); v != "" {
		cfg.Log.Format = v
	}
	if c.Bool("no-feed") {
		disabled := false
		cfg.Feed.Enabled = &disabled
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)
	if err != nil {
		return err
	}

	creds := cfg.AuthCredentials()
	logger.Info("starting falcon",
		version.Attr(),
		"ws_url", cfg.Exchange.WSURL,
		"credentials", creds,
		"feed_enabled", cfg.Feed.IsEnabled(),
	)

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	var latest feed.Latest
	if cfg.Feed.IsEnabled() {
		feedLogger := logger.With("component", "feed", "product_id", cfg.Feed.ProductID)
		quotes := feed.NewChannel(cfg.Feed.BufferSize)
		ticker := feed.NewCoinbaseTicker(cfg.CoinbaseConfig(), quotes, feedLogger)

		g.Go(func() error {
			return supervisor.New(ticker, cfg.FeedRestartPolicy(), feedLogger).Run(gctx)
		})
		g.Go(func() error {
			return feed.Drain(gctx, quotes, &latest)
		})
	}

	sessionLogger := logger.With("component", "exchange")
	session := connection.NewSession(cfg.SessionConfig(), creds, sessionLogger,
		connection.WithReference(&latest),
	)
	g.Go(func() error {
		return supervisor.New(session, cfg.RestartPolicy(), sessionLogger).Run(gctx)
	})

	err = g.Wait()
	stats := session.Stats()
	logger.Info("falcon stopped",
		"confirmations", stats.Confirmations,
		"heartbeats_answered", stats.HeartbeatsAnswered,
		"ignored_frames", stats.IgnoredFrames,
		"malformed_frames", stats.MalformedFrames,
	)

	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}
