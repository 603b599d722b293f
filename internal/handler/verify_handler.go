package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/educasol/educasol-api/internal/service"
	"github.com/educasol/educasol-api/internal/utils"
)

// VerifyHandler serves the public verification endpoint. It is mounted
// outside the authenticated API surface.
type VerifyHandler struct {
	service service.VerificationService
	logger  zerolog.Logger
}

// NewVerifyHandler builds a verify handler instance.
func NewVerifyHandler(service service.VerificationService, logger zerolog.Logger) *VerifyHandler {
	return &VerifyHandler{
		service: service,
		logger:  logger.With().Str("component", "verify_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *VerifyHandler) Register(router fiber.Router) {
	router.Get("/:token", h.verify)
}

func (h *VerifyHandler) verify(c *fiber.Ctx) error {
	record, err := h.service.Verify(c.Context(), c.Params("token"))
	if err != nil {
		if errors.Is(err, service.ErrVerificationNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "verification record not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "verification record retrieved", record)
}
