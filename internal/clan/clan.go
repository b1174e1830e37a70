package clan

import (
	"log/slog"

	"clanhub/internal/clan/handler"
	"clanhub/internal/clan/service"
)

// Service exposes the clan repository operations.
type Service = service.Service

// Handler wires HTTP endpoints to the clan service.
type Handler = handler.Handler

// NewService constructs the clan service over store.
func NewService(store service.Store, opts ...service.Option) *Service {
	return service.New(store, opts...)
}

// NewHandler constructs the HTTP handler for /clans routes.
func NewHandler(s *Service, logger *slog.Logger) *Handler {
	return handler.New(s, logger)
}
