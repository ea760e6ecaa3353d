package fifo

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/kardex-fifo/internal/domain"
	"github.com/tu-usuario/kardex-fifo/internal/domain/entity"
)

// TransactionInput son los datos crudos de una transacción antes de pasar
// por el motor. ID, RowHash, CreatedAt y CreatedBy son opcionales: si vienen
// (caso replay desde el log persistido) se conservan tal cual para que el
// log reconstruido sea idéntico al original.
type TransactionInput struct {
	ID       string
	RowHash  string
	Date     time.Time
	ItemID   string
	Kind     string // entity.KindReceipt | entity.KindIssue
	SubType  string
	Customer string
	Quantity int64

	UnitCost        decimal.Decimal // costo unitario puro (RECEIPT)
	LandedCostTotal decimal.Decimal // total de costos de importación del lote (RECEIPT)
	SellPrice       decimal.Decimal // precio de venta unitario (ISSUE, informativo)

	CreatedAt time.Time
	CreatedBy string
}

// LedgerEngine orquesta las transacciones entre ítems: una LotQueue por
// ítem más el log ordenado e inmutable de TransactionEntry. Todas las
// mutaciones pasan por un único mutex (un solo escritor lógico): Consume y
// Receive son operaciones de varios pasos y no deben intercalarse.
// El motor no hace deduplicación: asume que todo input que recibe es nuevo.
type LedgerEngine struct {
	mu      sync.Mutex
	queues  map[string]*LotQueue
	entries []entity.TransactionEntry
}

// NewLedgerEngine crea un motor vacío.
func NewLedgerEngine() *LedgerEngine {
	return &LedgerEngine{queues: make(map[string]*LotQueue)}
}

// RecordReceipt registra una entrada: prorratea los costos de importación
// entre las unidades del lote, lo anexa a la cola del ítem y deja la entry
// en el log. Falla con ErrInvalidQuantity si la cantidad no es positiva
// (el prorrateo exige denominador positivo) sin mutar ningún estado.
func (e *LedgerEngine) RecordReceipt(in TransactionInput) (*entity.TransactionEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recordReceiptLocked(in)
}

func (e *LedgerEngine) recordReceiptLocked(in TransactionInput) (*entity.TransactionEntry, error) {
	if in.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if in.ItemID == "" || in.UnitCost.IsNegative() || in.LandedCostTotal.IsNegative() {
		return nil, domain.ErrInvalidInput
	}

	perUnitLanded := decimal.Zero
	if in.LandedCostTotal.IsPositive() {
		perUnitLanded = in.LandedCostTotal.Div(decimal.NewFromInt(in.Quantity))
	}
	finalUnitCost := in.UnitCost.Add(perUnitLanded)

	e.queueFor(in.ItemID).Receive(in.Quantity, finalUnitCost, in.Date)

	entry := e.newEntry(in)
	entry.Kind = entity.KindReceipt
	entry.RawUnitCost = in.UnitCost
	entry.LandedCostTotal = in.LandedCostTotal
	entry.FinalUnitCost = finalUnitCost
	entry.Status = entity.StatusFulfilled
	entry.Detail = fmt.Sprintf("[%s] costo final %s/u (base %s + %s/u prorrateado)",
		entry.SubType, finalUnitCost.String(), in.UnitCost.String(), perUnitLanded.String())

	e.entries = append(e.entries, entry)
	return &entry, nil
}

// RecordIssue registra una salida costeada por FIFO. Un ítem sin cola o con
// cola vacía produce una entry de costo cero con faltante total; el faltante
// es dato (Status/ShortfallQty), nunca un error: el kardex debe reflejar
// fielmente lo ocurrido, incluida la demanda no cubierta.
func (e *LedgerEngine) RecordIssue(in TransactionInput) (*entity.TransactionEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recordIssueLocked(in)
}

func (e *LedgerEngine) recordIssueLocked(in TransactionInput) (*entity.TransactionEntry, error) {
	if in.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if in.ItemID == "" {
		return nil, domain.ErrInvalidInput
	}

	result := e.queueFor(in.ItemID).Consume(in.Quantity)

	entry := e.newEntry(in)
	entry.Kind = entity.KindIssue
	entry.SellPrice = in.SellPrice
	entry.COGS = result.TotalCost
	entry.ShortfallQty = result.UnfulfilledQty
	if result.Fulfilled() {
		entry.Status = entity.StatusFulfilled
	} else {
		entry.Status = entity.StatusPartial
	}
	entry.Detail = issueDetail(entry.SubType, result)

	e.entries = append(e.entries, entry)
	return &entry, nil
}

// ReplayFrom reconstruye todo el estado desde una secuencia de inputs:
// vacía las colas y el log, ordena por fecha con sort estable (empates de
// fecha conservan el orden original de inserción) y vuelve a aplicar cada
// transacción. Mismo orden de entrada => estado bit a bit idéntico, por lo
// que es seguro invocarlo repetidamente (restauración al arrancar, o tras
// detectar una discrepancia con la persistencia). La deduplicación de
// inputs solapados es responsabilidad del caller (hash de contenido).
func (e *LedgerEngine) ReplayFrom(inputs []TransactionInput) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	sorted := make([]TransactionInput, len(inputs))
	copy(sorted, inputs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	e.queues = make(map[string]*LotQueue)
	e.entries = e.entries[:0]

	for _, in := range sorted {
		var err error
		switch in.Kind {
		case entity.KindReceipt:
			_, err = e.recordReceiptLocked(in)
		case entity.KindIssue:
			_, err = e.recordIssueLocked(in)
		default:
			err = fmt.Errorf("%w: tipo de transacción %q", domain.ErrInvalidInput, in.Kind)
		}
		if err != nil {
			return fmt.Errorf("replay ítem %s (%s): %w", in.ItemID, in.Date.Format("2006-01-02"), err)
		}
	}
	return nil
}

// CurrentStockLevel devuelve el stock actual del ítem. Un ítem nunca visto
// devuelve 0: para el kardex "sin stock" y "desconocido" son equivalentes.
func (e *LedgerEngine) CurrentStockLevel(itemID string) int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	q, ok := e.queues[itemID]
	if !ok {
		return 0
	}
	return q.CurrentQuantity()
}

// CurrentStockValue devuelve la valorización actual del ítem (0 si nunca visto).
func (e *LedgerEngine) CurrentStockValue(itemID string) decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	q, ok := e.queues[itemID]
	if !ok {
		return decimal.Zero
	}
	return q.CurrentValue()
}

// LotsFor devuelve los lotes con saldo del ítem en orden FIFO (copia).
func (e *LedgerEngine) LotsFor(itemID string) []Lot {
	e.mu.Lock()
	defer e.mu.Unlock()
	q, ok := e.queues[itemID]
	if !ok {
		return nil
	}
	return q.Lots()
}

// Items devuelve los ítems conocidos por el motor, ordenados.
func (e *LedgerEngine) Items() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	items := make([]string, 0, len(e.queues))
	for id := range e.queues {
		items = append(items, id)
	}
	sort.Strings(items)
	return items
}

// ExportLog devuelve una copia del log completo en orden de inserción.
func (e *LedgerEngine) ExportLog() []entity.TransactionEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]entity.TransactionEntry, len(e.entries))
	copy(out, e.entries)
	return out
}

// queueFor devuelve la cola del ítem, creándola si no existe.
func (e *LedgerEngine) queueFor(itemID string) *LotQueue {
	q, ok := e.queues[itemID]
	if !ok {
		q = NewLotQueue()
		e.queues[itemID] = q
	}
	return q
}

// newEntry construye la entry base conservando identidad y metadatos si el
// input los trae (replay); si no, los genera.
func (e *LedgerEngine) newEntry(in TransactionInput) entity.TransactionEntry {
	entry := entity.TransactionEntry{
		ID:        in.ID,
		RowHash:   in.RowHash,
		Date:      in.Date,
		ItemID:    in.ItemID,
		SubType:   in.SubType,
		Customer:  in.Customer,
		Quantity:  in.Quantity,
		CreatedAt: in.CreatedAt,
		CreatedBy: in.CreatedBy,
	}
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	return entry
}

// issueDetail arma el texto de desglose FIFO de una salida, línea por lote.
func issueDetail(subType string, r ConsumptionResult) string {
	if len(r.Lines) == 0 {
		return fmt.Sprintf("[%s] sin stock disponible", subType)
	}
	parts := make([]string, 0, len(r.Lines)+1)
	for _, line := range r.Lines {
		parts = append(parts, fmt.Sprintf("%d uds @%s (lote %s)",
			line.Quantity, line.UnitCost.String(), line.LotDate.Format("2006-01-02")))
	}
	if r.UnfulfilledQty > 0 {
		parts = append(parts, fmt.Sprintf("faltante %d uds", r.UnfulfilledQty))
	}
	return fmt.Sprintf("[%s] %s", subType, strings.Join(parts, "; "))
}
