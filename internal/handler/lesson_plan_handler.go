package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/educasol/educasol-api/internal/dto"
	"github.com/educasol/educasol-api/internal/service"
	"github.com/educasol/educasol-api/internal/utils"
)

// LessonPlanHandler manages AI lesson plan endpoints.
type LessonPlanHandler struct {
	service service.LessonPlanService
	logger  zerolog.Logger
}

// NewLessonPlanHandler builds a lesson plan handler instance.
func NewLessonPlanHandler(service service.LessonPlanService, logger zerolog.Logger) *LessonPlanHandler {
	return &LessonPlanHandler{
		service: service,
		logger:  logger.With().Str("component", "lesson_plan_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *LessonPlanHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("/generate", h.generate)
	router.Get("/:id", h.get)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
}

func (h *LessonPlanHandler) list(c *fiber.Ctx) error {
	plans, err := h.service.List(c.Context(), actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "lesson plans retrieved", plans)
}

func (h *LessonPlanHandler) generate(c *fiber.Ctx) error {
	var payload dto.LessonPlanGenerateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	plan, err := h.service.Generate(c.Context(), actorFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "lesson plan generated", plan)
}

func (h *LessonPlanHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	plan, err := h.service.Get(c.Context(), actorFromContext(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "lesson plan retrieved", plan)
}

func (h *LessonPlanHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.LessonPlanUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	plan, err := h.service.Update(c.Context(), actorFromContext(c), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "lesson plan updated", plan)
}

func (h *LessonPlanHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), actorFromContext(c), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "lesson plan deleted", nil)
}

func (h *LessonPlanHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrLessonPlanNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "lesson plan not found")
	case errors.Is(err, service.ErrAccessDenied):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
