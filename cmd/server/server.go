package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"guestbook-server/internal/config"
	domain "guestbook-server/internal/domain/media"
	"guestbook-server/internal/infrastructure/logger"
	"guestbook-server/internal/infrastructure/metaindex"
	"guestbook-server/internal/infrastructure/observability"
	"guestbook-server/internal/infrastructure/storage"
	"guestbook-server/internal/interfaces/httpserver"
)

// @title Guestbook Server
// @version 1.0
// @description Media storage and metadata synchronization service for an event guestbook
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
type Application struct {
	httpServer *httpserver.HttpServer
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	selector, err := buildStorageStacks(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize storage")
	}

	mediaService := domain.NewService(cfg, selector, log)

	httpServer := httpserver.New(cfg, log, mediaService)
	app := NewApplication(httpServer, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

// buildStorageStacks assembles the local backend and, when configured, the
// S3 backend, each paired with its own metadata index. Falls back to local
// if the configured backend cannot serve.
func buildStorageStacks(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*domain.Selector, error) {
	localBackend, err := storage.NewLocalBackend(cfg, log)
	if err != nil {
		return nil, err
	}
	localDoc := metaindex.NewFileDocument(filepath.Join(cfg.LocalStoragePath, "metadata.json"))
	stacks := map[string]domain.Stack{
		"local": {Backend: localBackend, Index: metaindex.NewStore(localDoc, log)},
	}

	s3Backend, err := storage.NewS3Backend(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	if client, ok := s3Backend.Client(); ok {
		s3Doc := metaindex.NewS3Document(client, cfg.S3Bucket, cfg.MetadataKey)
		stacks["s3"] = domain.Stack{Backend: s3Backend, Index: metaindex.NewStore(s3Doc, log)}
	}

	initial := cfg.StorageBackend
	if _, ok := stacks[initial]; !ok {
		log.Warn().Str("backend", initial).Msg("configured storage backend unavailable, falling back to local")
		initial = "local"
	}

	return domain.NewSelector(initial, stacks)
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
