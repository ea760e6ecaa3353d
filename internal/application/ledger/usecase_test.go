package ledger

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/kardex-fifo/internal/application/dto"
	"github.com/tu-usuario/kardex-fifo/internal/domain"
	"github.com/tu-usuario/kardex-fifo/internal/domain/entity"
	"github.com/tu-usuario/kardex-fifo/internal/domain/fifo"
)

// memEntryRepo implementación en memoria del log para tests.
type memEntryRepo struct {
	entries  []*entity.TransactionEntry
	failNext error // fuerza una falla en el próximo Append
}

func (r *memEntryRepo) Append(_ context.Context, e *entity.TransactionEntry) error {
	if r.failNext != nil {
		err := r.failNext
		r.failNext = nil
		return err
	}
	for _, ex := range r.entries {
		if ex.RowHash == e.RowHash {
			return domain.ErrDuplicate
		}
	}
	cp := *e
	r.entries = append(r.entries, &cp)
	return nil
}

func (r *memEntryRepo) ListAll(context.Context) ([]*entity.TransactionEntry, error) {
	out := make([]*entity.TransactionEntry, len(r.entries))
	copy(out, r.entries)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *memEntryRepo) ListByItem(_ context.Context, itemID string, limit, offset int) ([]*entity.TransactionEntry, error) {
	var out []*entity.TransactionEntry
	for _, e := range r.entries {
		if e.ItemID == itemID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memEntryRepo) ListHashes(context.Context) (map[string]struct{}, error) {
	out := make(map[string]struct{}, len(r.entries))
	for _, e := range r.entries {
		out[e.RowHash] = struct{}{}
	}
	return out, nil
}

func (r *memEntryRepo) ExistsHash(_ context.Context, h string) (bool, error) {
	for _, e := range r.entries {
		if e.RowHash == h {
			return true, nil
		}
	}
	return false, nil
}

func (r *memEntryRepo) ListIssuesSince(_ context.Context, since time.Time) ([]*entity.TransactionEntry, error) {
	var out []*entity.TransactionEntry
	for _, e := range r.entries {
		if e.Kind == entity.KindIssue && !e.Date.Before(since) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memEntryRepo) Count(context.Context) (int64, error) { return int64(len(r.entries)), nil }

func day(n int) time.Time {
	return time.Date(2024, time.March, n, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newUC(repo *memEntryRepo) *UseCase {
	return NewUseCase(fifo.NewLedgerEngine(), repo, nil, nil)
}

func TestRecordReceipt_PersistsAndApplies(t *testing.T) {
	repo := &memEntryRepo{}
	uc := newUC(repo)

	landed := dec("50")
	entry, err := uc.RecordReceipt(context.Background(), dto.ReceiptRequest{
		Date: day(1), ItemID: "PET-01", Quantity: 5, UnitCost: dec("100"),
		LandedCostTotal: &landed, Supplier: "ACME GmbH",
	}, "tester", "127.0.0.1")
	require.NoError(t, err)

	assert.True(t, dec("110").Equal(entry.FinalUnitCost))
	require.Len(t, repo.entries, 1, "la entry debe quedar persistida")
	assert.Equal(t, entry.RowHash, repo.entries[0].RowHash)
	assert.Equal(t, int64(5), uc.Stock("PET-01").Quantity)
	assert.True(t, dec("550").Equal(uc.Stock("PET-01").Value))
}

func TestRecordReceipt_RejectsZeroQuantityWithoutSideEffects(t *testing.T) {
	repo := &memEntryRepo{}
	uc := newUC(repo)

	_, err := uc.RecordReceipt(context.Background(), dto.ReceiptRequest{
		Date: day(1), ItemID: "PET-01", Quantity: 0, UnitCost: dec("100"),
	}, "tester", "")
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	assert.Empty(t, repo.entries, "no debe persistirse nada")
	assert.Empty(t, uc.ExportLog(), "el log en memoria debe quedar intacto")
}

// La misma transacción (mismo payload de hash) dos veces: la segunda se
// rechaza con ErrDuplicate sin mutar el motor.
func TestRecordReceipt_DuplicateByContentHash(t *testing.T) {
	repo := &memEntryRepo{}
	uc := newUC(repo)
	req := dto.ReceiptRequest{Date: day(1), ItemID: "PET-01", Quantity: 5, UnitCost: dec("100"), Supplier: "ACME"}

	_, err := uc.RecordReceipt(context.Background(), req, "tester", "")
	require.NoError(t, err)
	_, err = uc.RecordReceipt(context.Background(), req, "tester", "")
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	assert.Equal(t, int64(5), uc.Stock("PET-01").Quantity, "el duplicado no debe sumar stock")
	assert.Len(t, repo.entries, 1)
}

func TestRecordIssue_ShortageIsReturnedAsData(t *testing.T) {
	repo := &memEntryRepo{}
	uc := newUC(repo)

	_, err := uc.RecordReceipt(context.Background(), dto.ReceiptRequest{
		Date: day(1), ItemID: "PET-01", Quantity: 10, UnitCost: dec("100"),
	}, "tester", "")
	require.NoError(t, err)

	entry, err := uc.RecordIssue(context.Background(), dto.IssueRequest{
		Date: day(2), ItemID: "PET-01", Quantity: 15, Customer: "A-Mart",
	}, "tester", "")
	require.NoError(t, err, "el faltante no es un error")
	assert.Equal(t, entity.StatusPartial, entry.Status)
	assert.Equal(t, int64(5), entry.ShortfallQty)
	assert.True(t, dec("1000").Equal(entry.COGS))
}

// Si la persistencia falla después de aplicar en el motor, el use case
// reconstruye desde el log persistido: el motor no queda adelantado.
func TestApply_PersistFailureTriggersRebuild(t *testing.T) {
	repo := &memEntryRepo{}
	uc := newUC(repo)

	_, err := uc.RecordReceipt(context.Background(), dto.ReceiptRequest{
		Date: day(1), ItemID: "PET-01", Quantity: 10, UnitCost: dec("100"),
	}, "tester", "")
	require.NoError(t, err)

	repo.failNext = errors.New("conexión perdida")
	_, err = uc.RecordIssue(context.Background(), dto.IssueRequest{
		Date: day(2), ItemID: "PET-01", Quantity: 4,
	}, "tester", "")
	require.Error(t, err)

	// La salida fallida no debe haber descontado stock.
	assert.Equal(t, int64(10), uc.Stock("PET-01").Quantity)
	assert.Len(t, uc.ExportLog(), 1)
}

func TestRebuild_RestoresStateFromPersistedLog(t *testing.T) {
	repo := &memEntryRepo{}
	uc := newUC(repo)
	ctx := context.Background()

	_, err := uc.RecordReceipt(ctx, dto.ReceiptRequest{Date: day(1), ItemID: "A", Quantity: 10, UnitCost: dec("100")}, "t", "")
	require.NoError(t, err)
	_, err = uc.RecordReceipt(ctx, dto.ReceiptRequest{Date: day(2), ItemID: "A", Quantity: 10, UnitCost: dec("200")}, "t", "")
	require.NoError(t, err)
	_, err = uc.RecordIssue(ctx, dto.IssueRequest{Date: day(3), ItemID: "A", Quantity: 15}, "t", "")
	require.NoError(t, err)

	wantLots := uc.Lots("A")
	wantLog := uc.ExportLog()

	// Motor nuevo, mismo repo: Rebuild debe reproducir estado idéntico.
	uc2 := newUC(repo)
	res, err := uc2.Rebuild(ctx, "tester", "")
	require.NoError(t, err)
	assert.Equal(t, 3, res.EntriesReplayed)
	assert.Equal(t, 1, res.Items)
	assert.Equal(t, wantLots, uc2.Lots("A"))
	assert.Equal(t, wantLog, uc2.ExportLog())
	assert.Equal(t, int64(5), uc2.Stock("A").Quantity)

	// Y es idempotente: repetirlo no cambia nada.
	_, err = uc2.Rebuild(ctx, "tester", "")
	require.NoError(t, err)
	assert.Equal(t, wantLog, uc2.ExportLog())
}

type memAudit struct {
	actions []string
	actors  []string
}

func (a *memAudit) Record(_ context.Context, actor, _, action, _ string) {
	a.actors = append(a.actors, actor)
	a.actions = append(a.actions, action)
}

func TestRebuild_RecordsAuditEntry(t *testing.T) {
	ctx := context.Background()
	repo := &memEntryRepo{}
	audit := &memAudit{}
	uc := NewUseCase(fifo.NewLedgerEngine(), repo, audit, nil)

	_, err := uc.RecordReceipt(ctx, dto.ReceiptRequest{
		Date: day(1), ItemID: "PET-01", Quantity: 10, UnitCost: dec("100"),
	}, "tester", "127.0.0.1")
	require.NoError(t, err)

	_, err = uc.Rebuild(ctx, "admin", "10.0.0.9")
	require.NoError(t, err)

	require.NotEmpty(t, audit.actions)
	assert.Equal(t, "REPLAY", audit.actions[len(audit.actions)-1])
	assert.Equal(t, "admin", audit.actors[len(audit.actors)-1])
}
