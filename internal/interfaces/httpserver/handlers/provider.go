package handlers

import (
	"github.com/rs/zerolog"

	"guestbook-server/internal/config"
	domain "guestbook-server/internal/domain/media"
)

// Provider wires HTTP handlers.
type Provider struct {
	Auth   *AuthHandler
	Media  *MediaHandler
	Stream *StreamHandler
}

func NewProvider(cfg *config.Config, service *domain.Service, log zerolog.Logger) *Provider {
	return &Provider{
		Auth:   NewAuthHandler(cfg, log),
		Media:  NewMediaHandler(cfg, service, log),
		Stream: NewStreamHandler(service, log),
	}
}
