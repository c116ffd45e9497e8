package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	founderwebui "github.com/MegaGrindStone/founder-web-ui"
	"github.com/MegaGrindStone/founder-web-ui/internal/handlers"
	"github.com/MegaGrindStone/founder-web-ui/internal/services"
	"github.com/MegaGrindStone/founder-web-ui/internal/session"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const errLoggerKey = "err"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var cfgPath string

	rootCmd := &cobra.Command{
		Use:           "founder-web-ui",
		Short:         "Web assistant for early stage founders",
		SilenceUsage:  true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			// A missing .env file is not an error, the environment may be set already.
			_ = godotenv.Load()

			if cfgPath != "" {
				return nil
			}
			p, err := defaultConfigPath()
			if err != nil {
				return err
			}
			cfgPath = p
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(cfgPath)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, logger)
		},
	}
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to the config file")

	rootCmd.AddCommand(newAskCommand(&cfgPath))

	return rootCmd
}

func setup(cfgPath string) (config, *slog.Logger, error) {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return config{}, nil, err
	}

	level, err := cfg.logLevel()
	if err != nil {
		return config{}, nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	return cfg, logger, nil
}

func serve(ctx context.Context, cfg config, logger *slog.Logger) error {
	advisor, err := cfg.Advisor.advisor(logger)
	if err != nil {
		return fmt.Errorf("error creating advisor: %w", err)
	}
	news := services.NewNews(cfg.News.BaseURL, cfg.News.Source, cfg.News.Timeout, logger)

	registry := session.NewRegistry(logger)
	registry.SetEvictionConfig(cfg.Session.IdleTimeout, cfg.Session.EvictInterval)

	m, err := handlers.NewMain(advisor, news, registry, cfg.Session.TipDelay, logger)
	if err != nil {
		return fmt.Errorf("error creating handlers: %w", err)
	}

	mux, err := newMux(m)
	if err != nil {
		return err
	}

	// Create custom server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	srv.RegisterOnShutdown(func() {
		if err := m.Shutdown(context.Background()); err != nil {
			logger.Error("Failed to shutdown sse server", slog.String(errLoggerKey, err.Error()))
		}
		registry.CloseAll()
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	registry.StartEvictionLoop(gctx)

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Start shutdown")

		// Create context with timeout for shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		// Gracefully shutdown the server
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Graceful shutdown failed", slog.String(errLoggerKey, err.Error()))
			if err := srv.Close(); err != nil {
				logger.Error("Forcing server close", slog.String(errLoggerKey, err.Error()))
			}
		}
		return nil
	})

	return g.Wait()
}

func newMux(m handlers.Main) (*http.ServeMux, error) {
	// Serve static files
	staticFS, err := fs.Sub(founderwebui.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("error opening static files: %w", err)
	}
	fileServer := http.FileServer(http.FS(staticFS))

	mux := http.NewServeMux()
	mux.Handle("/static/", http.StripPrefix("/static/", fileServer))
	mux.HandleFunc("/", m.HandleLanding)
	mux.HandleFunc("/dashboard", m.HandleDashboard)
	mux.HandleFunc("/news", m.HandleNews)
	mux.HandleFunc("/find-cofounder", m.HandleFindCofounder)
	mux.HandleFunc("/idea-validation", m.HandleAssistant)
	mux.HandleFunc("GET /idea-validation/{id}/chatbox", m.HandleChatbox)
	mux.HandleFunc("/idea-validation/{id}/topic", m.HandleTopic)
	mux.HandleFunc("/idea-validation/{id}/messages", m.HandleMessages)
	mux.HandleFunc("/idea-validation/{id}/examples/{index}", m.HandleExample)
	mux.HandleFunc("/idea-validation/{id}/close", m.HandleClose)
	mux.HandleFunc("/sse/assistant", m.HandleSSE)

	return mux, nil
}
