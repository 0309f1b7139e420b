//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"guestbook-server/internal/config"
	domain "guestbook-server/internal/domain/media"
	"guestbook-server/internal/infrastructure/logger"
	"guestbook-server/internal/interfaces/httpserver"
)

var mediaSet = wire.NewSet(
	buildStorageStacks,
	domain.NewService,
)

// BuildApplication assembles the guestbook server with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		mediaSet,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}
