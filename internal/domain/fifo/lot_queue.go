// Package fifo implementa el motor de kardex por lotes con costeo PEPS
// (primeras entradas, primeras salidas): cada salida se costea contra los
// lotes de entrada más antiguos que aún tengan saldo.
package fifo

import (
	"time"

	"github.com/shopspring/decimal"
)

// Lot es una entrada de stock aún no consumida por completo. Pertenece en
// exclusiva a la LotQueue de su ítem; nadie más guarda referencias a él.
type Lot struct {
	ReceivedDate time.Time
	RemainingQty int64           // > 0 mientras el lote esté en cola
	UnitCost     decimal.Decimal // fijo al ingresar (incluye costos de importación prorrateados)
}

// Value devuelve el valor del saldo del lote (RemainingQty * UnitCost).
func (l Lot) Value() decimal.Decimal {
	return decimal.NewFromInt(l.RemainingQty).Mul(l.UnitCost)
}

// ConsumptionLine es una línea del desglose FIFO de una salida: cuánto se
// tomó de qué lote y a qué costo.
type ConsumptionLine struct {
	LotDate  time.Time
	Quantity int64
	UnitCost decimal.Decimal
	LineCost decimal.Decimal // Quantity * UnitCost
}

// ConsumptionResult es el resultado de consumir stock de una cola.
// UnfulfilledQty > 0 no es un error: señala faltante de stock; el costo
// acumulado corresponde a lo que sí se pudo consumir.
type ConsumptionResult struct {
	TotalCost      decimal.Decimal
	Lines          []ConsumptionLine // en orden de consumo, lote más antiguo primero
	UnfulfilledQty int64
}

// Fulfilled indica si la salida se cubrió por completo.
func (r ConsumptionResult) Fulfilled() bool { return r.UnfulfilledQty == 0 }

// LotQueue es la cola ordenada de lotes de un ítem: orden de inserción =
// orden de fecha de entrada (el más antiguo al frente) siempre que las
// transacciones se procesen en orden de fecha, que es responsabilidad del
// LedgerEngine. Invariante: todo lote en cola tiene RemainingQty > 0.
type LotQueue struct {
	lots []Lot
}

// NewLotQueue crea una cola vacía.
func NewLotQueue() *LotQueue { return &LotQueue{} }

// Receive anexa un lote nuevo al final de la cola. Nunca falla y nunca
// fusiona lotes: dos entradas con la misma fecha y costo siguen siendo dos
// lotes, para conservar la trazabilidad de auditoría.
func (q *LotQueue) Receive(qty int64, unitCost decimal.Decimal, date time.Time) {
	q.lots = append(q.lots, Lot{ReceivedDate: date, RemainingQty: qty, UnitCost: unitCost})
}

// Consume retira qty unidades empezando por el lote más antiguo, acumulando
// el costo exacto de cada tramo. El costo se acumula con decimales exactos;
// cualquier redondeo es responsabilidad de la capa de presentación.
func (q *LotQueue) Consume(qty int64) ConsumptionResult {
	result := ConsumptionResult{TotalCost: decimal.Zero}
	stillNeeded := qty

	for stillNeeded > 0 && len(q.lots) > 0 {
		head := &q.lots[0]

		if head.RemainingQty <= stillNeeded {
			// El lote se consume completo y sale de la cola.
			used := head.RemainingQty
			lineCost := decimal.NewFromInt(used).Mul(head.UnitCost)
			result.TotalCost = result.TotalCost.Add(lineCost)
			result.Lines = append(result.Lines, ConsumptionLine{
				LotDate:  head.ReceivedDate,
				Quantity: used,
				UnitCost: head.UnitCost,
				LineCost: lineCost,
			})
			stillNeeded -= used
			q.lots = q.lots[1:]
			continue
		}

		// Consumo parcial: el lote queda al frente con el saldo.
		lineCost := decimal.NewFromInt(stillNeeded).Mul(head.UnitCost)
		result.TotalCost = result.TotalCost.Add(lineCost)
		result.Lines = append(result.Lines, ConsumptionLine{
			LotDate:  head.ReceivedDate,
			Quantity: stillNeeded,
			UnitCost: head.UnitCost,
			LineCost: lineCost,
		})
		head.RemainingQty -= stillNeeded
		stillNeeded = 0
	}

	result.UnfulfilledQty = stillNeeded
	return result
}

// CurrentQuantity devuelve el total de unidades en cola.
func (q *LotQueue) CurrentQuantity() int64 {
	var total int64
	for _, l := range q.lots {
		total += l.RemainingQty
	}
	return total
}

// CurrentValue devuelve la valorización del stock en cola
// (suma de RemainingQty * UnitCost por lote).
func (q *LotQueue) CurrentValue() decimal.Decimal {
	total := decimal.Zero
	for _, l := range q.lots {
		total = total.Add(l.Value())
	}
	return total
}

// Lots devuelve una copia de los lotes en orden (para vistas de estado de
// lotes; los originales siguen siendo propiedad exclusiva de la cola).
func (q *LotQueue) Lots() []Lot {
	out := make([]Lot, len(q.lots))
	copy(out, q.lots)
	return out
}

// Len devuelve el número de lotes con saldo.
func (q *LotQueue) Len() int { return len(q.lots) }
