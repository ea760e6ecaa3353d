package ingest

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/tu-usuario/kardex-fifo/internal/application/ledger"
	"github.com/tu-usuario/kardex-fifo/internal/domain"
	"github.com/tu-usuario/kardex-fifo/internal/domain/entity"
	"github.com/tu-usuario/kardex-fifo/internal/domain/fifo"
)

type memEntryRepo struct {
	entries []*entity.TransactionEntry
}

func (r *memEntryRepo) Append(ctx context.Context, e *entity.TransactionEntry) error {
	for _, existing := range r.entries {
		if existing.RowHash == e.RowHash {
			return domain.ErrDuplicate
		}
	}
	cp := *e
	r.entries = append(r.entries, &cp)
	return nil
}

func (r *memEntryRepo) ListAll(ctx context.Context) ([]*entity.TransactionEntry, error) {
	out := make([]*entity.TransactionEntry, len(r.entries))
	copy(out, r.entries)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *memEntryRepo) ListByItem(ctx context.Context, itemID string, limit, offset int) ([]*entity.TransactionEntry, error) {
	var out []*entity.TransactionEntry
	for _, e := range r.entries {
		if e.ItemID == itemID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memEntryRepo) ListHashes(ctx context.Context) (map[string]struct{}, error) {
	hashes := make(map[string]struct{}, len(r.entries))
	for _, e := range r.entries {
		hashes[e.RowHash] = struct{}{}
	}
	return hashes, nil
}

func (r *memEntryRepo) ExistsHash(ctx context.Context, rowHash string) (bool, error) {
	for _, e := range r.entries {
		if e.RowHash == rowHash {
			return true, nil
		}
	}
	return false, nil
}

func (r *memEntryRepo) ListIssuesSince(ctx context.Context, since time.Time) ([]*entity.TransactionEntry, error) {
	var out []*entity.TransactionEntry
	for _, e := range r.entries {
		if e.Kind == entity.KindIssue && !e.Date.Before(since) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memEntryRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(r.entries)), nil
}

func newTestUseCase(t *testing.T) (*UseCase, *ledger.UseCase, *memEntryRepo) {
	t.Helper()
	repo := &memEntryRepo{}
	ledgerUC := ledger.NewUseCase(fifo.NewLedgerEngine(), repo, nil, nil)
	return NewUseCase(ledgerUC, nil, nil), ledgerUC, repo
}

const csvHeader = "fecha,cliente,item,tipo,subtipo,cantidad,costo_unitario,costos_importacion,precio_venta\n"

func TestImportCSV_BasicFlow(t *testing.T) {
	uc, ledgerUC, _ := newTestUseCase(t)

	// La salida va primera en el archivo; la ingesta debe reordenar por fecha
	// antes de aplicar, o el kardex registraría un faltante espurio.
	csvData := csvHeader +
		"2024-02-01,ACME,TORNILLO-M4,SALIDA,VENTA,60,,,150\n" +
		"2024-01-10,PROVEEDOR SA,TORNILLO-M4,ENTRADA,IMPORTACION,100,100,500,\n"

	result, err := uc.ImportCSV(context.Background(), strings.NewReader(csvData), false, "admin@test.com", "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 0, result.Skipped)
	assert.Empty(t, result.Failed)

	stock := ledgerUC.Stock("TORNILLO-M4")
	assert.Equal(t, int64(40), stock.Quantity)
	// Costo aterrizado: 100 + 500/100 = 105/u; quedan 40 uds.
	assert.Equal(t, "4200", stock.Value.String())
}

func TestImportCSV_SkipsDuplicates(t *testing.T) {
	uc, _, _ := newTestUseCase(t)

	row := "2024-01-10,PROVEEDOR SA,TORNILLO-M4,ENTRADA,COMPRA,100,100,,\n"
	first, err := uc.ImportCSV(context.Background(), strings.NewReader(csvHeader+row+row), false, "admin@test.com", "")
	require.NoError(t, err)
	assert.Equal(t, 1, first.Imported)
	assert.Equal(t, 1, first.Skipped)

	// Re-subir el mismo archivo no duplica contra el log persistido.
	second, err := uc.ImportCSV(context.Background(), strings.NewReader(csvHeader+row), false, "admin@test.com", "")
	require.NoError(t, err)
	assert.Equal(t, 0, second.Imported)
	assert.Equal(t, 1, second.Skipped)
}

func TestImportCSV_ReportsInvalidRows(t *testing.T) {
	uc, _, _ := newTestUseCase(t)

	csvData := csvHeader +
		"2024-01-10,ACME,TORNILLO-M4,ENTRADA,COMPRA,100,100,,\n" +
		"no-es-fecha,ACME,TORNILLO-M4,ENTRADA,COMPRA,10,5,,\n" +
		"2024-01-11,ACME,,ENTRADA,COMPRA,10,5,,\n" +
		"2024-01-12,ACME,TORNILLO-M4,TRASLADO,COMPRA,10,5,,\n" +
		"2024-01-13,ACME,TORNILLO-M4,ENTRADA,COMPRA,-3,5,,\n"

	result, err := uc.ImportCSV(context.Background(), strings.NewReader(csvData), false, "admin@test.com", "")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	require.Len(t, result.Failed, 4)
	assert.Equal(t, 3, result.Failed[0].Line)
	assert.Contains(t, result.Failed[0].Reason, "fecha inválida")
	assert.Contains(t, result.Failed[1].Reason, "item vacío")
	assert.Contains(t, result.Failed[2].Reason, "tipo inválido")
	assert.Contains(t, result.Failed[3].Reason, "cantidad inválida")
}

func TestImportCSV_MissingColumns(t *testing.T) {
	uc, _, _ := newTestUseCase(t)

	_, err := uc.ImportCSV(context.Background(), strings.NewReader("fecha,item\n"), false, "admin@test.com", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "cantidad")
}

func TestImportCSV_Latin1Transcode(t *testing.T) {
	uc, ledgerUC, repo := newTestUseCase(t)

	csvData := csvHeader + "2024-01-10,Construcción Ltda,TORNILLO-M4,ENTRADA,COMPRA,10,100,,\n"
	encoded, err := charmap.ISO8859_1.NewEncoder().String(csvData)
	require.NoError(t, err)

	result, err := uc.ImportCSV(context.Background(), strings.NewReader(encoded), false, "admin@test.com", "")
	require.NoError(t, err)
	require.Len(t, result.Failed, 0)
	assert.Equal(t, 1, result.Imported)
	// Sin transcodificar, el cliente queda con bytes crudos.
	assert.NotEqual(t, "Construcción Ltda", repo.entries[0].Customer)

	// Con latin1=true el texto llega en UTF-8 correcto.
	repo2 := &memEntryRepo{}
	ledgerUC = ledger.NewUseCase(fifo.NewLedgerEngine(), repo2, nil, nil)
	uc = NewUseCase(ledgerUC, nil, nil)
	result, err = uc.ImportCSV(context.Background(), strings.NewReader(encoded), true, "admin@test.com", "")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, "Construcción Ltda", repo2.entries[0].Customer)
}

func TestTemplate_ContainsAllColumns(t *testing.T) {
	tmpl := Template()
	for _, col := range requiredColumns {
		assert.Contains(t, tmpl, col)
	}
}
