package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReceiptRequest body para POST /api/ledger/receipts.
type ReceiptRequest struct {
	Date            time.Time        `json:"date"`
	ItemID          string           `json:"item_id"`
	SubType         string           `json:"sub_type,omitempty"` // IMPORTACION | COMPRA
	Supplier        string           `json:"supplier,omitempty"`
	Quantity        int64            `json:"quantity"`
	UnitCost        decimal.Decimal  `json:"unit_cost"`
	LandedCostTotal *decimal.Decimal `json:"landed_cost_total,omitempty"`
}

// IssueRequest body para POST /api/ledger/issues.
type IssueRequest struct {
	Date      time.Time        `json:"date"`
	ItemID    string           `json:"item_id"`
	SubType   string           `json:"sub_type,omitempty"` // VENTA | CONSUMO
	Customer  string           `json:"customer,omitempty"`
	Quantity  int64            `json:"quantity"`
	SellPrice *decimal.Decimal `json:"sell_price,omitempty"`
}

// EntryResponse una entry del log en respuestas HTTP.
type EntryResponse struct {
	ID              string          `json:"id"`
	Date            time.Time       `json:"date"`
	ItemID          string          `json:"item_id"`
	Kind            string          `json:"kind"`
	SubType         string          `json:"sub_type,omitempty"`
	Customer        string          `json:"customer,omitempty"`
	Quantity        int64           `json:"quantity"`
	RawUnitCost     decimal.Decimal `json:"raw_unit_cost"`
	LandedCostTotal decimal.Decimal `json:"landed_cost_total"`
	FinalUnitCost   decimal.Decimal `json:"final_unit_cost"`
	SellPrice       decimal.Decimal `json:"sell_price"`
	COGS            decimal.Decimal `json:"cogs"`
	Status          string          `json:"status"`
	ShortfallQty    int64           `json:"shortfall_qty"`
	Detail          string          `json:"detail,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// LotDTO saldo de un lote en la vista de estado de lotes.
type LotDTO struct {
	ReceivedDate time.Time       `json:"received_date"`
	RemainingQty int64           `json:"remaining_qty"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	Value        decimal.Decimal `json:"value"`
}

// ItemStockResponse stock y valorización actual de un ítem.
type ItemStockResponse struct {
	ItemID   string          `json:"item_id"`
	Quantity int64           `json:"quantity"`
	Value    decimal.Decimal `json:"value"`
}

// ReplayResponse resultado de la reconstrucción bajo demanda.
type ReplayResponse struct {
	EntriesReplayed int `json:"entries_replayed"`
	Items           int `json:"items"`
}
