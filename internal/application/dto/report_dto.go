package dto

import "github.com/shopspring/decimal"

// ItemSummaryDTO línea del resumen de bodega por ítem.
type ItemSummaryDTO struct {
	ItemID     string          `json:"item_id"`
	Quantity   int64           `json:"quantity"`
	StockValue decimal.Decimal `json:"stock_value"`
}

// InventorySummaryDTO resumen de activos de la bodega.
type InventorySummaryDTO struct {
	ItemCount  int              `json:"item_count"`
	TotalUnits int64            `json:"total_units"`
	TotalValue decimal.Decimal  `json:"total_value"`
	Items      []ItemSummaryDTO `json:"items"` // ordenados por valor descendente
}

// ReorderAlertDTO análisis de reorden por ítem: promedios de consumo
// trailing 90/365 días y meses de stock al ritmo de los últimos 3 meses.
type ReorderAlertDTO struct {
	ItemID        string          `json:"item_id"`
	CurrentStock  int64           `json:"current_stock"`
	AvgMonthly3M  decimal.Decimal `json:"avg_monthly_3m"`  // salidas 90d / 3
	AvgMonthly12M decimal.Decimal `json:"avg_monthly_12m"` // salidas 365d / 12
	StockMonths   decimal.Decimal `json:"stock_months"`    // stock / AvgMonthly3M (0 si sin ventas)
	NeedsReorder  bool            `json:"needs_reorder"`   // StockMonths < umbral configurado
}
