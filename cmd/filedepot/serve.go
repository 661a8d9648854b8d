package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ykulikov/filedepot"
	"github.com/ykulikov/filedepot/config"
	"github.com/ykulikov/filedepot/database"
	"github.com/ykulikov/filedepot/filesystem"
	depothttp "github.com/ykulikov/filedepot/http"
	"github.com/ykulikov/filedepot/s3"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP gateway",
	Long:  `Start the filedepot HTTP gateway.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 5708, "HTTP server port")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	repo, closeDB, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer closeDB()
	slog.Info("connected to database", "type", cfg.Database.Type)

	store, closeStore, err := buildStore(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("open object store: %w", err)
	}
	defer closeStore()
	slog.Info("object store ready", "type", cfg.Storage.Type)

	service, err := filedepot.NewService(repo, store, filedepot.ServiceConfig{
		DefaultSearchLimit: cfg.Service.DefaultSearchLimit,
		MaxSearchLimit:     cfg.Service.MaxSearchLimit,
	})
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}

	verifier, err := filedepot.NewTokenVerifier(filedepot.AuthConfig{
		Secret:   cfg.Auth.Secret,
		Lifetime: cfg.Auth.TokenLifetime,
	})
	if err != nil {
		return fmt.Errorf("create token verifier: %w", err)
	}

	handlerConfig := depothttp.HandlerConfig{
		Verifier:       verifier,
		CORS:           cfg.CORS,
		MaxUploadBytes: cfg.Server.MaxUploadSize,
	}

	handler := depothttp.NewHandler(&handlerConfig, service)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	server := &http.Server{
		Addr:        addr,
		Handler:     handler.Router(),
		ReadTimeout: 30 * time.Second,
		// Archive downloads stream for as long as the client reads; only
		// the idle and header phases get bounded.
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		cancel()
	}()

	slog.Info("starting server", "addr", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

func buildStore(ctx context.Context, cfg config.StorageConfig) (filedepot.ObjectStore, func(), error) {
	switch cfg.Type {
	case "s3":
		store, err := s3.New(ctx, cfg.S3)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil

	case "filesystem":
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, nil, fmt.Errorf("create storage directory: %w", err)
		}

		root, err := os.OpenRoot(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open storage root: %w", err)
		}

		cleanup := func() { _ = root.Close() }
		return filesystem.New(root), cleanup, nil

	default:
		return nil, nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
