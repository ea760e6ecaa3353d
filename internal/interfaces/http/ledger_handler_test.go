package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/kardex-fifo/internal/application/dto"
	"github.com/tu-usuario/kardex-fifo/internal/application/ledger"
	"github.com/tu-usuario/kardex-fifo/internal/domain"
	"github.com/tu-usuario/kardex-fifo/internal/domain/entity"
	"github.com/tu-usuario/kardex-fifo/internal/domain/fifo"
	apphttp "github.com/tu-usuario/kardex-fifo/internal/interfaces/http"
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

// buildLedgerApp monta la app con las rutas del kardex sobre un repo en memoria.
func buildLedgerApp(t *testing.T, role string) (*fiber.App, string) {
	t.Helper()
	uc := ledger.NewUseCase(fifo.NewLedgerEngine(), &memEntryRepo{}, nil, nil)
	app := fiber.New()

	group := app.Group("/api/ledger", apphttp.AuthMiddleware(testJWTSecret))
	h := apphttp.NewLedgerHandler(uc)
	group.Post("/receipts", h.RecordReceipt)
	group.Post("/issues", h.RecordIssue)
	group.Get("/items/:item/stock", h.GetStock)
	group.Get("/items/:item/lots", h.GetLots)
	group.Post("/replay", apphttp.RequireRole(entity.RoleAdmin), h.Replay)

	return app, tokenForRole(t, role)
}

func postJSON(t *testing.T, app *fiber.App, token, path string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func getJSON(t *testing.T, app *fiber.App, token, path string, out any) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestLedgerAPI_ReceiptThenIssue(t *testing.T) {
	app, token := buildLedgerApp(t, entity.RoleStaff)

	resp := postJSON(t, app, token, "/api/ledger/receipts", fiber.Map{
		"date":              "2024-01-10T00:00:00Z",
		"item_id":           "TORNILLO-M4",
		"quantity":          100,
		"unit_cost":         "100",
		"landed_cost_total": "500",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var entry dto.EntryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entry))
	assert.Equal(t, "105", entry.FinalUnitCost.String())
	assert.Equal(t, entity.StatusFulfilled, entry.Status)

	resp2 := postJSON(t, app, token, "/api/ledger/issues", fiber.Map{
		"date":     "2024-02-01T00:00:00Z",
		"item_id":  "TORNILLO-M4",
		"customer": "ACME",
		"quantity": 40,
	})
	defer resp2.Body.Close()
	require.Equal(t, http.StatusCreated, resp2.StatusCode)

	var issue dto.EntryResponse
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&issue))
	assert.Equal(t, "4200", issue.COGS.String())

	var stock dto.ItemStockResponse
	getResp := getJSON(t, app, token, "/api/ledger/items/TORNILLO-M4/stock", &stock)
	defer getResp.Body.Close()
	assert.Equal(t, int64(60), stock.Quantity)
	assert.Equal(t, "6300", stock.Value.String())
}

func TestLedgerAPI_ShortageIsNotAnError(t *testing.T) {
	app, token := buildLedgerApp(t, entity.RoleStaff)

	resp := postJSON(t, app, token, "/api/ledger/issues", fiber.Map{
		"date":     "2024-02-01T00:00:00Z",
		"item_id":  "NUNCA-VISTO",
		"quantity": 5,
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var entry dto.EntryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entry))
	assert.Equal(t, entity.StatusPartial, entry.Status)
	assert.Equal(t, int64(5), entry.ShortfallQty)
	assert.True(t, entry.COGS.IsZero())
}

func TestLedgerAPI_DuplicateReturns409(t *testing.T) {
	app, token := buildLedgerApp(t, entity.RoleStaff)

	body := fiber.Map{
		"date":      "2024-01-10T00:00:00Z",
		"item_id":   "TORNILLO-M4",
		"quantity":  100,
		"unit_cost": "100",
	}
	resp := postJSON(t, app, token, "/api/ledger/receipts", body)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp2 := postJSON(t, app, token, "/api/ledger/receipts", body)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusConflict, resp2.StatusCode)
}

func TestLedgerAPI_InvalidQuantityReturns400(t *testing.T) {
	app, token := buildLedgerApp(t, entity.RoleStaff)

	resp := postJSON(t, app, token, "/api/ledger/receipts", fiber.Map{
		"date":      "2024-01-10T00:00:00Z",
		"item_id":   "TORNILLO-M4",
		"quantity":  0,
		"unit_cost": "100",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLedgerAPI_ReplayRequiresAdmin(t *testing.T) {
	app, staffToken := buildLedgerApp(t, entity.RoleStaff)

	resp := postJSON(t, app, staffToken, "/api/ledger/replay", fiber.Map{})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestLedgerAPI_ReplayAsAdmin(t *testing.T) {
	app, adminToken := buildLedgerApp(t, entity.RoleAdmin)

	resp := postJSON(t, app, adminToken, "/api/ledger/receipts", fiber.Map{
		"date":      "2024-01-10T00:00:00Z",
		"item_id":   "TORNILLO-M4",
		"quantity":  10,
		"unit_cost": "50",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out dto.ReplayResponse
	raw, err := json.Marshal(fiber.Map{})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/ledger/replay", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", adminToken)
	resp2, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&out))
	assert.Equal(t, 1, out.EntriesReplayed)
	assert.Equal(t, 1, out.Items)
}
