package cleanup

import (
	"errors"

	"connector-service/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the reconciliation sweep.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the cleanup routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/cleanup")
	group.Post("/run", h.HandleRun)
	group.Get("/last", h.HandleLast)
}

// HandleRun runs one reconciliation sweep.
// @Summary Run Job Cleanup
// @Description Deletes sync jobs of removed connectors and fails jobs that stopped reporting. Use dry_run to only report what would change.
// @Tags cleanup
// @Produce json
// @Param dry_run query boolean false "Plan without changing anything"
// @Param orphans_only query boolean false "Only run the orphan sweep"
// @Param stuck_only query boolean false "Only run the stuck sweep"
// @Success 200 {object} reconcile.Report "Sweep Report"
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /cleanup/run [post]
func (h *Handler) HandleRun(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	dryRun := c.QueryBool("dry_run")

	l.Info("Triggering job cleanup", zap.Bool("dry_run", dryRun))
	report, err := h.service.Run(c.Context(), dryRun, c.QueryBool("orphans_only"), c.QueryBool("stuck_only"))
	if errors.Is(err, ErrConflictingScope) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		l.Error("Job cleanup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":  err.Error(),
			"report": report,
		})
	}

	return c.JSON(report)
}

// HandleLast returns the last sweep report.
// @Summary Last Job Cleanup
// @Description Returns the report of the most recent sweep, periodic or on demand.
// @Tags cleanup
// @Produce json
// @Success 200 {object} reconcile.Report "Sweep Report"
// @Failure 404 {object} map[string]string "No sweep has run yet"
// @Router /cleanup/last [get]
func (h *Handler) HandleLast(c *fiber.Ctx) error {
	report, ok := h.service.Last()
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no sweep has run yet"})
	}
	return c.JSON(report)
}
