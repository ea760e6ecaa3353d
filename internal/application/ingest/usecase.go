// Package ingest implementa la carga masiva de transacciones desde CSV
// (exportes del ERP anterior): valida columnas, filtra duplicados por hash
// de contenido contra el log persistido, ordena por fecha y alimenta el
// kardex fila por fila.
package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/tu-usuario/kardex-fifo/internal/application/dto"
	"github.com/tu-usuario/kardex-fifo/internal/application/identity"
	"github.com/tu-usuario/kardex-fifo/internal/application/ledger"
	"github.com/tu-usuario/kardex-fifo/internal/domain"
	"github.com/tu-usuario/kardex-fifo/internal/domain/entity"
	"github.com/tu-usuario/kardex-fifo/internal/domain/fifo"
	"github.com/tu-usuario/kardex-fifo/pkg/logger"
)

// Columnas requeridas del CSV (el orden no importa; se resuelven por nombre).
var requiredColumns = []string{
	"fecha", "cliente", "item", "tipo", "subtipo",
	"cantidad", "costo_unitario", "costos_importacion", "precio_venta",
}

// Template devuelve el encabezado del CSV de carga, para descarga desde la UI.
func Template() string {
	return strings.Join(requiredColumns, ",") + "\n"
}

// UseCase orquesta la carga masiva contra el caso de uso del kardex.
type UseCase struct {
	ledger *ledger.UseCase
	audit  ledger.AuditRecorder
	log    *logger.Logger
}

// NewUseCase construye el caso de uso de ingesta.
func NewUseCase(ledgerUC *ledger.UseCase, audit ledger.AuditRecorder, log *logger.Logger) *UseCase {
	if audit == nil {
		audit = ledger.NopAuditRecorder{}
	}
	if log == nil {
		log = logger.New(logger.Config{Level: "error"})
	}
	return &UseCase{ledger: ledgerUC, audit: audit, log: log}
}

// ImportCSV procesa el archivo completo. latin1 habilita la transcodificación
// ISO-8859-1 (exportes de Excel en locale es-CO suelen venir así). Las filas
// duplicadas (hash ya en el log o repetido dentro del archivo) se saltan; las
// inválidas se reportan con su número de línea sin abortar el resto.
func (uc *UseCase) ImportCSV(ctx context.Context, r io.Reader, latin1 bool, actor, ip string) (dto.ImportResult, error) {
	if latin1 {
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return dto.ImportResult{}, fmt.Errorf("%w: CSV sin encabezado", domain.ErrInvalidInput)
	}
	cols, err := resolveColumns(header)
	if err != nil {
		return dto.ImportResult{}, err
	}

	known, err := uc.ledger.KnownHashes(ctx)
	if err != nil {
		return dto.ImportResult{}, fmt.Errorf("leer hashes persistidos: %w", err)
	}

	var result dto.ImportResult
	type pendingRow struct {
		line  int
		input fifo.TransactionInput
	}
	var pending []pendingRow

	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Failed = append(result.Failed, dto.ImportRowError{Line: line, Reason: "fila malformada"})
			continue
		}
		input, perr := parseRow(cols, record, actor)
		if perr != nil {
			result.Failed = append(result.Failed, dto.ImportRowError{Line: line, Reason: perr.Error()})
			continue
		}
		if _, dup := known[input.RowHash]; dup {
			result.Skipped++
			continue
		}
		known[input.RowHash] = struct{}{} // dedup también dentro del archivo
		pending = append(pending, pendingRow{line: line, input: input})
	}

	// El kardex exige orden cronológico; dentro del archivo el sort estable
	// conserva el orden original para empates de fecha.
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].input.Date.Before(pending[j].input.Date)
	})

	for _, row := range pending {
		if _, err := uc.ledger.ApplyNew(ctx, row.input); err != nil {
			result.Failed = append(result.Failed, dto.ImportRowError{Line: row.line, Reason: err.Error()})
			continue
		}
		result.Imported++
	}

	uc.audit.Record(ctx, actor, ip, "IMPORT",
		fmt.Sprintf("CSV: %d importadas, %d duplicadas, %d con error",
			result.Imported, result.Skipped, len(result.Failed)))
	uc.log.Info().
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Int("failed", len(result.Failed)).
		Msg("carga masiva procesada")

	return result, nil
}

// resolveColumns valida que estén todas las columnas requeridas y devuelve
// el índice de cada una.
func resolveColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: faltan columnas %s", domain.ErrInvalidInput, strings.Join(missing, ", "))
	}
	return cols, nil
}

// parseRow convierte una fila del CSV en el input del motor, con el hash de
// contenido ya calculado.
func parseRow(cols map[string]int, record []string, actor string) (fifo.TransactionInput, error) {
	field := func(name string) string {
		idx := cols[name]
		if idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	date, err := parseDate(field("fecha"))
	if err != nil {
		return fifo.TransactionInput{}, err
	}

	kind, err := parseKind(field("tipo"))
	if err != nil {
		return fifo.TransactionInput{}, err
	}

	itemID := field("item")
	if itemID == "" {
		return fifo.TransactionInput{}, fmt.Errorf("item vacío")
	}

	qty, err := strconv.ParseInt(field("cantidad"), 10, 64)
	if err != nil || qty <= 0 {
		return fifo.TransactionInput{}, fmt.Errorf("cantidad inválida %q", field("cantidad"))
	}

	customer := field("cliente")
	input := fifo.TransactionInput{
		RowHash:   identity.RowHash(date, itemID, kind, qty, customer),
		Date:      date,
		ItemID:    itemID,
		Kind:      kind,
		SubType:   strings.ToUpper(field("subtipo")),
		Customer:  customer,
		Quantity:  qty,
		CreatedBy: actor,
	}

	switch kind {
	case entity.KindReceipt:
		if input.UnitCost, err = parseDecimal(field("costo_unitario")); err != nil {
			return fifo.TransactionInput{}, err
		}
		if input.LandedCostTotal, err = parseDecimal(field("costos_importacion")); err != nil {
			return fifo.TransactionInput{}, err
		}
	case entity.KindIssue:
		if input.SellPrice, err = parseDecimal(field("precio_venta")); err != nil {
			return fifo.TransactionInput{}, err
		}
	}
	return input, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "02/01/2006", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("fecha inválida %q", s)
}

func parseKind(s string) (string, error) {
	switch strings.ToUpper(s) {
	case "ENTRADA", entity.KindReceipt:
		return entity.KindReceipt, nil
	case "SALIDA", entity.KindIssue:
		return entity.KindIssue, nil
	}
	return "", fmt.Errorf("tipo inválido %q (ENTRADA o SALIDA)", s)
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero, fmt.Errorf("monto inválido %q", s)
	}
	return d, nil
}
