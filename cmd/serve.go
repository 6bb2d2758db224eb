package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/antonioabatte/spotizip/internal/repositories"
	"github.com/antonioabatte/spotizip/internal/server"
	"github.com/antonioabatte/spotizip/internal/services"
	"github.com/antonioabatte/spotizip/internal/session"
	"github.com/antonioabatte/spotizip/internal/shared"
	"github.com/antonioabatte/spotizip/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Serve wires the full application together and runs the web server until
// the process is interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd.String("config"))

	if host := cmd.String("host"); host != "" {
		config.Server.Host = host
	}
	if port := cmd.Int("port"); port > 0 {
		config.Server.Port = port
	}

	if err := config.Validate(); err != nil {
		return fmt.Errorf("configuration invalid, run 'spotizip setup' first: %w", err)
	}

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	tokens := repositories.NewTokenRepository(db)
	searches := repositories.NewSearchRepository(db)

	auth, err := services.NewSpotifyAuthenticator(config)
	if err != nil {
		return fmt.Errorf("failed to configure Spotify auth: %w", err)
	}

	if config.Downloads.InstallYTDLP {
		r.logger.Info("ensuring yt-dlp is installed")
		if err := services.InstallYTDLP(ctx); err != nil {
			r.logger.Warn("yt-dlp install failed, downloads may not work", "error", err)
		}
	}

	spotify := services.NewSpotifyService(r.httpClient)
	youtube := services.NewYouTubeService(config.Downloads, repositories.NewSearchCacheAdapter(searches))
	engine := tasks.NewPipelineEngine(spotify, youtube, config.Downloads)

	manager := session.NewManager(auth, config.Server.SessionTTL())
	defer manager.Close()

	srv, err := server.NewServer(config, r.logger, manager, auth, spotify, engine, tokens)
	if err != nil {
		return fmt.Errorf("failed to build server: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	appURL := fmt.Sprintf("http://%s", config.Server.Addr())
	if config.Server.OpenBrowser && !cmd.Bool("no-browser") {
		go func() {
			// Give the listener a moment to come up.
			time.Sleep(300 * time.Millisecond)
			if err := shared.OpenBrowser(appURL); err != nil {
				r.logger.Warn("failed to open browser", "error", err)
			}
		}()
	}

	r.logger.Info("starting server", "url", appURL)
	r.writePlain("Spotify playlist downloader running at %s\n", appURL)
	r.writePlain("Press Ctrl+C to stop.\n")

	return srv.Start(ctx)
}
