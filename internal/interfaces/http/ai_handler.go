package http

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/kardex-fifo/internal/application/dto"
	"github.com/tu-usuario/kardex-fifo/internal/application/ports"
)

// AIHandler maneja la extracción de documentos asistida por IA.
type AIHandler struct {
	llm ports.LLMService
}

// NewAIHandler construye el handler.
func NewAIHandler(llm ports.LLMService) *AIHandler {
	return &AIHandler{llm: llm}
}

// ExtractDocument godoc
// @Summary      Extraer borrador de entrada desde un documento con IA
// @Description  Analiza el texto de una factura o liquidación de importación
//
//	y devuelve un borrador de entrada (ítem, cantidad, costos) con
//	puntaje de confianza. El borrador NUNCA se escribe al kardex:
//	el usuario lo revisa y lo envía como entrada normal.
//	Timeout interno de 20 s.
//
// @Tags         ai
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ExtractDocumentRequest  true  "document_text (obligatorio)"
// @Success      200   {object}  dto.ExtractedReceiptDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      408   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/ai/extract-document [post]
func (h *AIHandler) ExtractDocument(c *fiber.Ctx) error {
	var req dto.ExtractDocumentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "INVALID_BODY", Message: "cuerpo de la petición inválido",
		})
	}
	if strings.TrimSpace(req.DocumentText) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "VALIDATION", Message: "document_text es obligatorio",
		})
	}

	ctx, cancel := context.WithTimeout(c.Context(), 20*time.Second)
	defer cancel()

	result, err := h.llm.ExtractReceipt(ctx, req.DocumentText)
	if err != nil {
		if isTimeout(err) {
			return c.Status(fiber.StatusRequestTimeout).JSON(dto.ErrorResponse{
				Code: "TIMEOUT", Message: "el servicio de IA tardó demasiado; intenta de nuevo",
			})
		}
		// API key no configurada
		if strings.Contains(err.Error(), "ANTHROPIC_API_KEY") {
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Code: "AI_UNAVAILABLE", Message: "el servicio de extracción IA no está configurado",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Code: "INTERNAL", Message: err.Error(),
		})
	}

	return c.JSON(result)
}

// isTimeout detecta errores de timeout/cancelación de contexto en el mensaje de error.
func isTimeout(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "deadline exceeded") ||
		strings.Contains(msg, "cancelación")
}
