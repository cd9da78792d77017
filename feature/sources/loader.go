package sources

import (
	"connector-service/core/directory"
	"connector-service/core/service"
	"connector-service/core/source"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	handler *Handler
}

// NewFeature creates a new sources feature.
func NewFeature(connectors directory.ConnectorDirectory, registry *source.Registry, features service.Features, logger *zap.Logger) *Feature {
	return &Feature{handler: NewHandler(NewService(connectors, registry, features, logger))}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "sources"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
