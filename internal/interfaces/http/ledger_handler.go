package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/kardex-fifo/internal/application/dto"
	"github.com/tu-usuario/kardex-fifo/internal/application/ledger"
	"github.com/tu-usuario/kardex-fifo/internal/domain"
	"github.com/tu-usuario/kardex-fifo/internal/domain/entity"
)

// LedgerHandler maneja las peticiones HTTP del kardex (protegido).
type LedgerHandler struct {
	uc *ledger.UseCase
}

// NewLedgerHandler construye el handler.
func NewLedgerHandler(uc *ledger.UseCase) *LedgerHandler {
	return &LedgerHandler{uc: uc}
}

// RecordReceipt godoc
// @Summary      Registrar entrada de inventario
// @Description  Crea un lote nuevo al final de la cola FIFO del ítem. El costo
//
//	final por unidad incluye los costos de importación prorrateados.
//
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReceiptRequest  true  "date, item_id, quantity, unit_cost, landed_cost_total (opcional)"
// @Success      201   {object}  dto.EntryResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/ledger/receipts [post]
func (h *LedgerHandler) RecordReceipt(c *fiber.Ctx) error {
	var in dto.ReceiptRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	entry, err := h.uc.RecordReceipt(c.Context(), in, GetUserName(c), c.IP())
	if err != nil {
		return ledgerError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(entryToResponse(entry))
}

// RecordIssue godoc
// @Summary      Registrar salida de inventario
// @Description  Costea la salida por FIFO. Si no hay stock suficiente la
//
//	operación NO falla: la entry queda PARTIAL con shortfall_qty.
//
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.IssueRequest  true  "date, item_id, quantity, customer, sell_price (opcional)"
// @Success      201   {object}  dto.EntryResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/ledger/issues [post]
func (h *LedgerHandler) RecordIssue(c *fiber.Ctx) error {
	var in dto.IssueRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	entry, err := h.uc.RecordIssue(c.Context(), in, GetUserName(c), c.IP())
	if err != nil {
		return ledgerError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(entryToResponse(entry))
}

// ListItems godoc
// @Summary      Ítems conocidos por el kardex
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/ledger/items [get]
func (h *LedgerHandler) ListItems(c *fiber.Ctx) error {
	items := h.uc.Items()
	return c.JSON(fiber.Map{"total": len(items), "items": items})
}

// GetStock godoc
// @Summary      Stock y valorización actual de un ítem
// @Description  Un ítem nunca visto responde cantidad y valor cero, no 404.
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        item  path  string  true  "ID del ítem"
// @Success      200   {object}  dto.ItemStockResponse
// @Router       /api/ledger/items/{item}/stock [get]
func (h *LedgerHandler) GetStock(c *fiber.Ctx) error {
	return c.JSON(h.uc.Stock(c.Params("item")))
}

// GetLots godoc
// @Summary      Lotes con saldo de un ítem en orden FIFO
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        item  path  string  true  "ID del ítem"
// @Success      200   {object}  map[string]interface{}
// @Router       /api/ledger/items/{item}/lots [get]
func (h *LedgerHandler) GetLots(c *fiber.Ctx) error {
	lots := h.uc.Lots(c.Params("item"))
	return c.JSON(fiber.Map{"total": len(lots), "lots": lots})
}

// GetHistory godoc
// @Summary      Historial de transacciones de un ítem
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        item    path   string  true   "ID del ítem"
// @Param        limit   query  int     false  "máximo de entries (default 50)"
// @Param        offset  query  int     false  "offset de paginación"
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/ledger/items/{item}/entries [get]
func (h *LedgerHandler) GetHistory(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "paginación inválida"})
	}
	page.DefaultPage()
	entries, err := h.uc.History(c.Context(), c.Params("item"), page)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	out := make([]dto.EntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryToResponse(e))
	}
	return c.JSON(fiber.Map{"total": len(out), "entries": out})
}

// ExportLog godoc
// @Summary      Exportar el log completo del kardex
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/ledger/entries [get]
func (h *LedgerHandler) ExportLog(c *fiber.Ctx) error {
	log := h.uc.ExportLog()
	out := make([]dto.EntryResponse, 0, len(log))
	for i := range log {
		out = append(out, entryToResponse(&log[i]))
	}
	return c.JSON(fiber.Map{"total": len(out), "entries": out})
}

// Replay godoc
// @Summary      Reconstruir el kardex desde el log persistido
// @Description  Borra el estado en memoria y reproduce el log completo en
//
//	orden cronológico. Idempotente. Solo admin.
//
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.ReplayResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/ledger/replay [post]
func (h *LedgerHandler) Replay(c *fiber.Ctx) error {
	out, err := h.uc.Rebuild(c.Context(), GetUserName(c), c.IP())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(out)
}

func ledgerError(c *fiber.Ctx, err error) error {
	if errors.Is(err, domain.ErrDuplicate) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: "transacción duplicada (mismo contenido ya registrado)"})
	}
	if errors.Is(err, domain.ErrInvalidQuantity) || errors.Is(err, domain.ErrInvalidInput) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}

func entryToResponse(e *entity.TransactionEntry) dto.EntryResponse {
	return dto.EntryResponse{
		ID:              e.ID,
		Date:            e.Date,
		ItemID:          e.ItemID,
		Kind:            e.Kind,
		SubType:         e.SubType,
		Customer:        e.Customer,
		Quantity:        e.Quantity,
		RawUnitCost:     e.RawUnitCost,
		LandedCostTotal: e.LandedCostTotal,
		FinalUnitCost:   e.FinalUnitCost,
		SellPrice:       e.SellPrice,
		COGS:            e.COGS,
		Status:          e.Status,
		ShortfallQty:    e.ShortfallQty,
		Detail:          e.Detail,
		CreatedAt:       e.CreatedAt,
	}
}
