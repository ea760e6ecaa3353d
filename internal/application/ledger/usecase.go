// Package ledger expone los casos de uso del kardex: registrar entradas y
// salidas contra el motor FIFO, persistir cada entry en el log append-only
// y reconstruir el estado en memoria desde la persistencia.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/kardex-fifo/internal/application/dto"
	"github.com/tu-usuario/kardex-fifo/internal/application/identity"
	"github.com/tu-usuario/kardex-fifo/internal/domain"
	"github.com/tu-usuario/kardex-fifo/internal/domain/entity"
	"github.com/tu-usuario/kardex-fifo/internal/domain/fifo"
	"github.com/tu-usuario/kardex-fifo/internal/domain/repository"
	"github.com/tu-usuario/kardex-fifo/pkg/logger"
)

// UseCase procesa todas las transacciones del kardex por una única cola
// secuencial: el mutex serializa el ciclo completo dedup → motor →
// persistencia, de modo que el estado en memoria y el log en DB avanzan
// juntos. Las transacciones entre ítems distintos no tienen dependencia de
// orden, pero las del mismo ítem sí, y un solo escritor cubre ambos casos.
type UseCase struct {
	mu      sync.Mutex
	engine  *fifo.LedgerEngine
	entries repository.TransactionEntryRepository
	audit   AuditRecorder
	log     *logger.Logger
}

// NewUseCase construye el caso de uso.
func NewUseCase(engine *fifo.LedgerEngine, entries repository.TransactionEntryRepository, audit AuditRecorder, log *logger.Logger) *UseCase {
	if audit == nil {
		audit = NopAuditRecorder{}
	}
	if log == nil {
		log = logger.New(logger.Config{Level: "error"})
	}
	return &UseCase{engine: engine, entries: entries, audit: audit, log: log}
}

// RecordReceipt registra una entrada manual: dedup por hash de contenido,
// prorrateo FIFO en el motor y persistencia de la entry. Deja rastro en el
// paper trail.
func (uc *UseCase) RecordReceipt(ctx context.Context, in dto.ReceiptRequest, actor, ip string) (*entity.TransactionEntry, error) {
	if in.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if in.ItemID == "" || in.Date.IsZero() {
		return nil, domain.ErrInvalidInput
	}

	landed := decimal.Zero
	if in.LandedCostTotal != nil {
		landed = *in.LandedCostTotal
	}
	subType := in.SubType
	if subType == "" {
		subType = entity.SubTypeImport
	}

	input := fifo.TransactionInput{
		RowHash:         identity.RowHash(in.Date, in.ItemID, entity.KindReceipt, in.Quantity, in.Supplier),
		Date:            in.Date,
		ItemID:          in.ItemID,
		Kind:            entity.KindReceipt,
		SubType:         subType,
		Customer:        in.Supplier,
		Quantity:        in.Quantity,
		UnitCost:        in.UnitCost,
		LandedCostTotal: landed,
		CreatedBy:       actor,
	}

	entry, err := uc.apply(ctx, input)
	if err != nil {
		return nil, err
	}
	uc.audit.Record(ctx, actor, ip, "RECEIPT",
		fmt.Sprintf("ítem %s | %d uds | costo final %s/u", entry.ItemID, entry.Quantity, entry.FinalUnitCost))
	return entry, nil
}

// RecordIssue registra una salida manual costeada por FIFO. El faltante de
// stock no es error: queda en Status/ShortfallQty de la entry devuelta.
func (uc *UseCase) RecordIssue(ctx context.Context, in dto.IssueRequest, actor, ip string) (*entity.TransactionEntry, error) {
	if in.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if in.ItemID == "" || in.Date.IsZero() {
		return nil, domain.ErrInvalidInput
	}

	sellPrice := decimal.Zero
	if in.SellPrice != nil {
		sellPrice = *in.SellPrice
	}
	subType := in.SubType
	if subType == "" {
		subType = entity.SubTypeSale
	}

	input := fifo.TransactionInput{
		RowHash:   identity.RowHash(in.Date, in.ItemID, entity.KindIssue, in.Quantity, in.Customer),
		Date:      in.Date,
		ItemID:    in.ItemID,
		Kind:      entity.KindIssue,
		SubType:   subType,
		Customer:  in.Customer,
		Quantity:  in.Quantity,
		SellPrice: sellPrice,
		CreatedBy: actor,
	}

	entry, err := uc.apply(ctx, input)
	if err != nil {
		return nil, err
	}
	uc.audit.Record(ctx, actor, ip, "ISSUE",
		fmt.Sprintf("ítem %s | %d uds | COGS %s | %s", entry.ItemID, entry.Quantity, entry.COGS, entry.Status))
	return entry, nil
}

// ApplyNew aplica un input ya validado y con RowHash calculado (lo usa la
// ingesta masiva, que hace su propio filtrado previo de duplicados).
func (uc *UseCase) ApplyNew(ctx context.Context, input fifo.TransactionInput) (*entity.TransactionEntry, error) {
	return uc.apply(ctx, input)
}

// apply es el ciclo transaccional único: verificar duplicado, mutar el
// motor y anexar al log persistido. Si la persistencia falla después de
// mutar el motor, el estado en memoria quedó adelantado respecto a la DB:
// se detecta la discrepancia y se reconstruye desde el log persistido antes
// de devolver el error.
func (uc *UseCase) apply(ctx context.Context, input fifo.TransactionInput) (*entity.TransactionEntry, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	exists, err := uc.entries.ExistsHash(ctx, input.RowHash)
	if err != nil {
		return nil, fmt.Errorf("verificar hash: %w", err)
	}
	if exists {
		return nil, domain.ErrDuplicate
	}

	var entry *entity.TransactionEntry
	switch input.Kind {
	case entity.KindReceipt:
		entry, err = uc.engine.RecordReceipt(input)
	case entity.KindIssue:
		entry, err = uc.engine.RecordIssue(input)
	default:
		err = fmt.Errorf("%w: tipo %q", domain.ErrInvalidInput, input.Kind)
	}
	if err != nil {
		return nil, err
	}

	if err := uc.entries.Append(ctx, entry); err != nil {
		if rerr := uc.rebuildLocked(ctx); rerr != nil {
			uc.log.Error().Err(rerr).Msg("reconstrucción tras falla de persistencia")
		}
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, err
		}
		return nil, fmt.Errorf("persistir entry: %w", err)
	}
	return entry, nil
}

// Rebuild reconstruye todas las colas FIFO reproduciendo el log persistido
// en orden de fecha. Es una operación nombrada y disparable bajo demanda
// (arranque, o tras detectar una discrepancia), no un efecto secundario.
// Queda registrada en el paper trail con el actor que la disparó ("System"
// en el arranque).
func (uc *UseCase) Rebuild(ctx context.Context, actor, ip string) (dto.ReplayResponse, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if err := uc.rebuildLocked(ctx); err != nil {
		return dto.ReplayResponse{}, err
	}
	out := dto.ReplayResponse{
		EntriesReplayed: len(uc.engine.ExportLog()),
		Items:           len(uc.engine.Items()),
	}
	uc.audit.Record(ctx, actor, ip, "REPLAY",
		fmt.Sprintf("%d entries reproducidas | %d ítems", out.EntriesReplayed, out.Items))
	return out, nil
}

func (uc *UseCase) rebuildLocked(ctx context.Context) error {
	persisted, err := uc.entries.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("leer log persistido: %w", err)
	}
	inputs := make([]fifo.TransactionInput, 0, len(persisted))
	for _, e := range persisted {
		inputs = append(inputs, entryToInput(e))
	}
	if err := uc.engine.ReplayFrom(inputs); err != nil {
		return fmt.Errorf("replay: %w", err)
	}
	uc.log.Info().Int("entries", len(inputs)).Msg("kardex reconstruido desde el log")
	return nil
}

// Stock devuelve el nivel y la valorización actual del ítem (cero si nunca
// visto; no es error).
func (uc *UseCase) Stock(itemID string) dto.ItemStockResponse {
	return dto.ItemStockResponse{
		ItemID:   itemID,
		Quantity: uc.engine.CurrentStockLevel(itemID),
		Value:    uc.engine.CurrentStockValue(itemID),
	}
}

// Lots devuelve los lotes con saldo del ítem en orden FIFO.
func (uc *UseCase) Lots(itemID string) []dto.LotDTO {
	lots := uc.engine.LotsFor(itemID)
	out := make([]dto.LotDTO, 0, len(lots))
	for _, l := range lots {
		out = append(out, dto.LotDTO{
			ReceivedDate: l.ReceivedDate,
			RemainingQty: l.RemainingQty,
			UnitCost:     l.UnitCost,
			Value:        l.Value(),
		})
	}
	return out
}

// Items devuelve los ítems conocidos.
func (uc *UseCase) Items() []string { return uc.engine.Items() }

// ExportLog devuelve el log completo en orden de inserción.
func (uc *UseCase) ExportLog() []entity.TransactionEntry { return uc.engine.ExportLog() }

// KnownHashes devuelve los hashes ya persistidos (filtro previo de la ingesta).
func (uc *UseCase) KnownHashes(ctx context.Context) (map[string]struct{}, error) {
	return uc.entries.ListHashes(ctx)
}

// History devuelve las entries persistidas de un ítem, más recientes primero.
func (uc *UseCase) History(ctx context.Context, itemID string, page dto.PageRequest) ([]*entity.TransactionEntry, error) {
	return uc.entries.ListByItem(ctx, itemID, page.Limit, page.Offset)
}

// IssuesSince devuelve las salidas persistidas desde una fecha (reportes).
func (uc *UseCase) IssuesSince(ctx context.Context, since time.Time) ([]*entity.TransactionEntry, error) {
	return uc.entries.ListIssuesSince(ctx, since)
}

// entryToInput proyecta una entry persistida al input que el motor necesita
// para reproducirla conservando identidad y metadatos.
func entryToInput(e *entity.TransactionEntry) fifo.TransactionInput {
	return fifo.TransactionInput{
		ID:              e.ID,
		RowHash:         e.RowHash,
		Date:            e.Date,
		ItemID:          e.ItemID,
		Kind:            e.Kind,
		SubType:         e.SubType,
		Customer:        e.Customer,
		Quantity:        e.Quantity,
		UnitCost:        e.RawUnitCost,
		LandedCostTotal: e.LandedCostTotal,
		SellPrice:       e.SellPrice,
		CreatedAt:       e.CreatedAt,
		CreatedBy:       e.CreatedBy,
	}
}
