package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/kardex-fifo/internal/application/audit"
	"github.com/tu-usuario/kardex-fifo/internal/application/dto"
)

// AuditHandler expone la pista de auditoría (solo admin).
type AuditHandler struct {
	svc *audit.Service
}

// NewAuditHandler construye el handler.
func NewAuditHandler(svc *audit.Service) *AuditHandler {
	return &AuditHandler{svc: svc}
}

// List godoc
// @Summary      Pista de auditoría
// @Description  Eventos de auditoría paginados, más recientes primero. Solo admin.
// @Tags         audit
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "máximo de eventos (default 50)"
// @Param        offset  query  int  false  "offset de paginación"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/audit [get]
func (h *AuditHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "paginación inválida"})
	}
	page.DefaultPage()
	logs, err := h.svc.List(c.Context(), page.Limit, page.Offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(fiber.Map{"total": len(logs), "events": logs})
}
