// Package report arma los reportes de valorización y las alertas de reorden
// a partir del estado en memoria del kardex y del log de transacciones.
package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/kardex-fifo/internal/application/dto"
	"github.com/tu-usuario/kardex-fifo/internal/application/ledger"
	"github.com/tu-usuario/kardex-fifo/pkg/logger"
)

// PDFGenerator genera el reporte de valorización en PDF.
type PDFGenerator interface {
	ValuationReport(summary dto.InventorySummaryDTO, alerts []dto.ReorderAlertDTO, generatedAt time.Time) ([]byte, error)
}

// UseCase calcula resúmenes y alertas sobre el kardex.
type UseCase struct {
	ledger    *ledger.UseCase
	pdf       PDFGenerator
	threshold decimal.Decimal // meses de stock bajo los que se alerta reorden
	log       *logger.Logger
	now       func() time.Time
}

// NewUseCase construye el caso de uso de reportes. thresholdMonths es el
// umbral de meses de stock (típicamente 1.5) bajo el cual un ítem con ventas
// recientes dispara alerta.
func NewUseCase(ledgerUC *ledger.UseCase, pdf PDFGenerator, thresholdMonths float64, log *logger.Logger) *UseCase {
	if log == nil {
		log = logger.New(logger.Config{Level: "error"})
	}
	return &UseCase{
		ledger:    ledgerUC,
		pdf:       pdf,
		threshold: decimal.NewFromFloat(thresholdMonths),
		log:       log,
		now:       time.Now,
	}
}

// Summary devuelve la valorización actual de la bodega, ítems ordenados por
// valor descendente.
func (uc *UseCase) Summary(ctx context.Context) dto.InventorySummaryDTO {
	var summary dto.InventorySummaryDTO
	summary.TotalValue = decimal.Zero

	for _, itemID := range uc.ledger.Items() {
		stock := uc.ledger.Stock(itemID)
		summary.Items = append(summary.Items, dto.ItemSummaryDTO{
			ItemID:     itemID,
			Quantity:   stock.Quantity,
			StockValue: stock.Value,
		})
		summary.TotalUnits += stock.Quantity
		summary.TotalValue = summary.TotalValue.Add(stock.Value)
	}
	summary.ItemCount = len(summary.Items)

	sort.SliceStable(summary.Items, func(i, j int) bool {
		return summary.Items[i].StockValue.GreaterThan(summary.Items[j].StockValue)
	})
	return summary
}

// ReorderAlerts calcula, por ítem, el consumo promedio mensual trailing de
// 90 y 365 días y cuántos meses de stock quedan al ritmo reciente. Ítems sin
// salidas en 90 días no alertan aunque tengan poco stock.
func (uc *UseCase) ReorderAlerts(ctx context.Context) ([]dto.ReorderAlertDTO, error) {
	now := uc.now()
	issues12M, err := uc.ledger.IssuesSince(ctx, now.AddDate(0, 0, -365))
	if err != nil {
		return nil, fmt.Errorf("leer salidas del último año: %w", err)
	}

	cutoff3M := now.AddDate(0, 0, -90)
	qty3M := make(map[string]int64)
	qty12M := make(map[string]int64)
	for _, e := range issues12M {
		qty12M[e.ItemID] += e.Quantity
		if !e.Date.Before(cutoff3M) {
			qty3M[e.ItemID] += e.Quantity
		}
	}

	three := decimal.NewFromInt(3)
	twelve := decimal.NewFromInt(12)

	var alerts []dto.ReorderAlertDTO
	for _, itemID := range uc.ledger.Items() {
		stock := uc.ledger.Stock(itemID)
		alert := dto.ReorderAlertDTO{
			ItemID:        itemID,
			CurrentStock:  stock.Quantity,
			AvgMonthly3M:  decimal.NewFromInt(qty3M[itemID]).Div(three),
			AvgMonthly12M: decimal.NewFromInt(qty12M[itemID]).Div(twelve),
			StockMonths:   decimal.Zero,
		}
		if alert.AvgMonthly3M.IsPositive() {
			alert.StockMonths = decimal.NewFromInt(stock.Quantity).Div(alert.AvgMonthly3M)
			alert.NeedsReorder = alert.StockMonths.LessThan(uc.threshold)
		}
		alerts = append(alerts, alert)
	}
	return alerts, nil
}

// ValuationPDF genera el reporte combinado (valorización + reorden) en PDF.
func (uc *UseCase) ValuationPDF(ctx context.Context) ([]byte, error) {
	if uc.pdf == nil {
		return nil, fmt.Errorf("generador PDF no configurado")
	}
	alerts, err := uc.ReorderAlerts(ctx)
	if err != nil {
		return nil, err
	}
	data, err := uc.pdf.ValuationReport(uc.Summary(ctx), alerts, uc.now())
	if err != nil {
		return nil, fmt.Errorf("generar PDF de valorización: %w", err)
	}
	uc.log.Info().Int("bytes", len(data)).Msg("reporte de valorización generado")
	return data, nil
}
