package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kdimtricp/framecast/internal/api"
	"github.com/kdimtricp/framecast/internal/config"
	"github.com/kdimtricp/framecast/internal/database"
	"github.com/kdimtricp/framecast/internal/ingest"
	"github.com/kdimtricp/framecast/internal/logging"
	"github.com/kdimtricp/framecast/internal/media"
	"github.com/kdimtricp/framecast/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "framecast: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()

	store, err := storage.NewLocalStore(cfg.UploadDir, logger)
	if err != nil {
		return err
	}

	db, err := database.NewDB(database.Config{
		Type:       cfg.DBType,
		Host:       cfg.DBHost,
		Port:       cfg.DBPort,
		User:       cfg.DBUser,
		Password:   cfg.DBPassword,
		Name:       cfg.DBName,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	migrator := database.NewMigrator(db.Conn(), cfg.DBType, logger)
	if err := migrator.Run(cfg.MigrationsPath); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}

	engine, err := media.NewFFmpeg(logger)
	if err != nil {
		return err
	}

	videos := database.NewVideoRepository(db)
	frames := database.NewFrameRepository(db)
	annotations := database.NewAnnotationRepository(db)

	pipeline := ingest.New(store, db, videos, frames, annotations, engine, logger,
		ingest.Options{Workers: cfg.ExtractWorkers, JPEGQuality: cfg.JPEGQuality})

	app := &api.App{
		Pipeline:      pipeline,
		VideoRepo:     videos,
		FrameRepo:     frames,
		Store:         store,
		MaxUploadSize: cfg.MaxUploadSize,
		Logger:        logger,
	}

	server := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     api.NewRouter(app),
		ReadTimeout: 30 * time.Second,
		// No write timeout: video streams and extraction runs legitimately
		// hold a response open for minutes.
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.Int("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
