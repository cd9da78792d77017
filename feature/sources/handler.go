package sources

import (
	"errors"

	"connector-service/core/directory"
	"connector-service/core/logger"
	"connector-service/core/source"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for document sources.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the sources routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/sources")
	group.Get("/", h.HandleList)
	group.Get("/:id/ping", h.HandlePing)
	group.Post("/:id/filtering/validate", h.HandleValidateFiltering)
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, directory.ErrConnectorNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, source.ErrServiceTypeNotConfigured), errors.Is(err, source.ErrServiceTypeNotSupported):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusBadGateway
	}
}

// HandleList lists connectors and registered service types.
// @Summary List Sources
// @Description Lists every connector of the registry and whether a document source is registered for its service type.
// @Tags sources
// @Produce json
// @Success 200 {object} Listing "Connectors"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /sources [get]
func (h *Handler) HandleList(c *fiber.Ctx) error {
	listing, err := h.service.List(c.Context())
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Listing connectors failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(listing)
}

// HandlePing checks a connector's backend.
// @Summary Ping Source
// @Description Connects once to the backend of a connector, without retrying.
// @Tags sources
// @Produce json
// @Param id path string true "Connector ID"
// @Success 200 {object} map[string]string "Reachable"
// @Failure 404 {object} map[string]string "Unknown connector"
// @Failure 422 {object} map[string]string "Unsupported service type"
// @Failure 502 {object} map[string]string "Backend unreachable"
// @Router /sources/{id}/ping [get]
func (h *Handler) HandlePing(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.service.Ping(c.Context(), id); err != nil {
		logger.WithRayID(h.service.logger, c).Warn("Ping failed", zap.String("connector_id", id), zap.Error(err))
		return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// HandleValidateFiltering validates advanced rules.
// @Summary Validate Advanced Rules
// @Description Validates advanced filtering rules against the backend of a connector. The body is the raw advanced rule document.
// @Tags sources
// @Accept json
// @Produce json
// @Param id path string true "Connector ID"
// @Success 200 {array} source.FilteringValidationResult "Validation Results"
// @Failure 400 {object} map[string]string "Malformed body"
// @Failure 404 {object} map[string]string "Unknown connector"
// @Failure 502 {object} map[string]string "Backend unreachable"
// @Router /sources/{id}/filtering/validate [post]
func (h *Handler) HandleValidateFiltering(c *fiber.Ctx) error {
	id := c.Params("id")
	body := c.Body()
	if len(body) > 0 && !json.Valid(body) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "body is not valid JSON"})
	}

	results, err := h.service.ValidateFiltering(c.Context(), id, json.RawMessage(body))
	if err != nil {
		logger.WithRayID(h.service.logger, c).Warn("Filtering validation failed", zap.String("connector_id", id), zap.Error(err))
		return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(results)
}
