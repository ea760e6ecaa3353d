package ports

import (
	"context"

	"github.com/tu-usuario/kardex-fifo/internal/application/dto"
)

// LLMService define el puerto de salida para los servicios de inteligencia
// artificial. Cualquier adaptador (Anthropic, OpenAI, Ollama, mock) debe
// implementar esta interfaz: la capa de aplicación solo conoce este contrato,
// no la implementación concreta.
type LLMService interface {
	// ExtractReceipt analiza el texto de una factura o documento de compra y
	// extrae los campos de una entrada de inventario (ítem, cantidad, costo
	// unitario, costos de importación) con un puntaje de confianza. El
	// contexto debe llevar un timeout para evitar bloqueos en llamadas
	// externas.
	ExtractReceipt(ctx context.Context, documentText string) (*dto.ExtractedReceiptDTO, error)
}
