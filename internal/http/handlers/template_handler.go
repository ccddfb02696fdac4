package handlers

import (
	"github.com/adreach/backend/internal/composer"
	"github.com/adreach/backend/internal/http/dto"
	"github.com/adreach/backend/internal/middleware"
	"github.com/adreach/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TemplateHandler struct {
	templateService *services.TemplateService
	manager         *composer.Manager
	log             *zap.Logger
}

func NewTemplateHandler(templateService *services.TemplateService, manager *composer.Manager, log *zap.Logger) *TemplateHandler {
	return &TemplateHandler{templateService: templateService, manager: manager, log: log}
}

// SaveFromSession stores the live draft as a reusable template.
func (h *TemplateHandler) SaveFromSession(c *fiber.Ctx) error {
	var req dto.SaveTemplateRequest
	_ = c.BodyParser(&req)

	userID := middleware.GetUserID(c)
	s, ok := h.manager.Get(userID)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "no active session"})
	}

	t, err := h.templateService.Save(c.Context(), userID, req.Name, s.Draft())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: t})
}

func (h *TemplateHandler) ListTemplates(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	templates, err := h.templateService.List(c.Context(), userID)
	if err != nil {
		h.log.Error("list templates failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: templates})
}

func (h *TemplateHandler) GetTemplate(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid template id"})
	}

	userID := middleware.GetUserID(c)
	t, err := h.templateService.Get(c.Context(), id, userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "template not found"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: t})
}

func (h *TemplateHandler) RenameTemplate(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid template id"})
	}

	var req dto.RenameTemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	userID := middleware.GetUserID(c)
	if err := h.templateService.Rename(c.Context(), id, userID, req.Name); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *TemplateHandler) DeleteTemplate(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid template id"})
	}

	userID := middleware.GetUserID(c)
	if err := h.templateService.Delete(c.Context(), id, userID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}
