package dto

import "github.com/shopspring/decimal"

// ExtractDocumentRequest body para POST /api/ai/extract-document: texto
// plano del documento de importación (factura, BL, liquidación aduanera).
type ExtractDocumentRequest struct {
	DocumentText string `json:"document_text"`
}

// ExtractedReceiptDTO borrador de entrada extraído por el LLM. Nunca se
// escribe directo al kardex: el usuario lo revisa y lo envía como
// ReceiptRequest normal.
type ExtractedReceiptDTO struct {
	Date            string          `json:"date"` // YYYY-MM-DD tal como viene del documento
	ItemID          string          `json:"item_id"`
	Supplier        string          `json:"supplier"`
	Quantity        int64           `json:"quantity"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	LandedCostTotal decimal.Decimal `json:"landed_cost_total"`
	ConfidenceScore float64         `json:"confidence_score"`
	Reasoning       string          `json:"reasoning"`
}
