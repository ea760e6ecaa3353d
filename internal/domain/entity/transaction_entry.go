package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de transacción del kardex.
const (
	KindReceipt = "RECEIPT" // entrada (compra / importación)
	KindIssue   = "ISSUE"   // salida (venta / consumo)
)

// Estados de una transacción de salida.
const (
	StatusFulfilled = "FULFILLED" // salida cubierta en su totalidad
	StatusPartial   = "PARTIAL"   // stock insuficiente: salida parcial
)

// Subtipos habituales (texto libre; estos son los que genera la UI/ingesta).
const (
	SubTypeImport   = "IMPORTACION"
	SubTypePurchase = "COMPRA"
	SubTypeSale     = "VENTA"
	SubTypeConsume  = "CONSUMO"
)

// TransactionEntry es el registro inmutable de una entrada o salida del kardex.
// Se anexa una sola vez y nunca se modifica ni se borra: la secuencia ordenada
// de entries es la fuente de verdad desde la que se reconstruyen las colas FIFO.
type TransactionEntry struct {
	ID      string
	RowHash string // hash de contenido para deduplicación (lo calcula la capa de ingesta)

	Date     time.Time
	ItemID   string
	Kind     string // RECEIPT | ISSUE
	SubType  string // IMPORTACION, COMPRA, VENTA, CONSUMO, ...
	Customer string // proveedor en entradas, cliente en salidas
	Quantity int64  // siempre positiva

	// Campos de entrada (RECEIPT)
	RawUnitCost     decimal.Decimal // costo unitario puro, sin fletes
	LandedCostTotal decimal.Decimal // total de costos de importación/logística del lote
	FinalUnitCost   decimal.Decimal // RawUnitCost + LandedCostTotal/Quantity (costo del lote)

	// Campos de salida (ISSUE)
	SellPrice    decimal.Decimal // precio de venta unitario (informativo)
	COGS         decimal.Decimal // costo de venta calculado por FIFO
	Status       string          // FULFILLED | PARTIAL
	ShortfallQty int64           // unidades no cubiertas por stock (0 si FULFILLED)

	Detail    string // desglose FIFO en texto libre, para auditoría
	CreatedAt time.Time
	CreatedBy string // UserID (vacío en cargas del sistema)
}

// IsShortage indica si la transacción quedó sin cubrir total o parcialmente.
func (e *TransactionEntry) IsShortage() bool {
	return e.Kind == KindIssue && e.ShortfallQty > 0
}
