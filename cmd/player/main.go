// Package main provides the interactive player entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/osa030/cueline/internal/app/filter"
	"github.com/osa030/cueline/internal/app/notification"
	"github.com/osa030/cueline/internal/app/playback"
	"github.com/osa030/cueline/internal/app/session"
	"github.com/osa030/cueline/internal/app/source"
	"github.com/osa030/cueline/internal/infra/config"
	"github.com/osa030/cueline/internal/infra/logger"
	"github.com/osa030/cueline/internal/infra/sink"
	"github.com/osa030/cueline/internal/infra/spotify"
)

var (
	app        = kingpin.New("cueline", "Queue-aware music player")
	configPath = app.Flag("config", "Path to config file").Default("config/player.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stderr)").String()

	listSourcesCmd = app.Command("list-sources", "List the contexts of every configured source and exit")
	listFiltersCmd = app.Command("list-filters", "List available filters and exit")
)

func init() {
	app.Command("start", "Start the interactive player (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if command == listFiltersCmd.FullCommand() {
		printFilters()
		return
	}

	loggerConfig := logger.Config{Level: "info", File: *logfile}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	closer, err := logger.Init(loggerConfig)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer closer.Close()

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if command == listSourcesCmd.FullCommand() {
		err = listSources(ctx, cfg)
	} else {
		err = run(ctx, cfg)
	}
	if err != nil {
		zlog.Error().Msgf("Player error: %v", err)
		os.Exit(1)
	}
}

// run executes the interactive player. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(ctx context.Context, cfg *config.Config) error {
	sources, err := buildSources(ctx, cfg)
	if err != nil {
		return err
	}

	out := sink.NewSimulated(sink.Options{
		TickInterval:     cfg.Sink.TickInterval(),
		FallbackDuration: cfg.Sink.FallbackDuration(),
	})
	defer out.Close()

	mgr := session.NewManager(out, sources, playback.Config{
		InitialVolume: cfg.Player.InitialVolume,
		EventBuffer:   cfg.Player.EventBuffer,
	})
	out.SetListener(mgr)

	if err := mgr.Start(ctx); err != nil {
		return errors.Wrap(err, "failed to start session")
	}
	defer mgr.Close()

	subID := mgr.Notifications().Subscribe(notification.StreamFunc(func(n *notification.Notification) error {
		printNotification(os.Stdout, n)
		return nil
	}))
	defer mgr.Notifications().Unsubscribe(subID)

	r := newREPL(mgr, sources, os.Stdout)
	errCh := make(chan error, 1)
	go func() {
		errCh <- r.run(ctx, os.Stdin)
	}()

	select {
	case <-ctx.Done():
		zlog.Info().Msg("Received shutdown signal...")
	case <-mgr.Done():
		zlog.Info().Msg("Session ended, shutting down...")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	zlog.Info().Msg("Player stopped")
	return nil
}

// buildSources creates the source chain, connecting to Spotify only when a
// spotify source is configured.
func buildSources(ctx context.Context, cfg *config.Config) (*source.Chain, error) {
	var client source.SpotifyClient
	if cfg.HasSourceType(config.SourceTypeSpotify) {
		c, err := spotify.New(ctx, spotify.Config{
			ClientID:     cfg.Spotify.ClientID,
			ClientSecret: cfg.Spotify.ClientSecret,
			RefreshToken: cfg.Spotify.RefreshToken,
			Market:       cfg.Spotify.Market,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to create Spotify client")
		}
		client = c
	}

	sources, err := source.NewChainFromConfig(cfg, client, afero.NewOsFs())
	if err != nil {
		return nil, errors.Wrap(err, "failed to create sources")
	}
	return sources, nil
}

func listSources(ctx context.Context, cfg *config.Config) error {
	sources, err := buildSources(ctx, cfg)
	if err != nil {
		return err
	}
	printListings(os.Stdout, sources.List(ctx))
	return nil
}

// printFilters prints available filters.
func printFilters() {
	fmt.Println("Available Filters:")
	registry := filter.GetRegistered()
	for _, name := range filter.RegisteredNames() {
		f := registry[name]()
		codes := strings.Join(f.ReturnCodes(), ", ")
		fmt.Printf("  %-30s - %s [codes: %s]\n", f.Name(), f.Description(), codes)
	}
}
