package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tu-usuario/kardex-fifo/internal/domain"
	"github.com/tu-usuario/kardex-fifo/internal/domain/entity"
	"github.com/tu-usuario/kardex-fifo/internal/domain/repository"
)

var _ repository.TransactionEntryRepository = (*TransactionEntryRepo)(nil)

// TransactionEntryRepo implementación del log de transacciones sobre
// PostgreSQL. La columna position (BIGSERIAL) conserva el orden de inserción
// y sirve de desempate estable para entries con la misma fecha.
type TransactionEntryRepo struct {
	pool *pgxpool.Pool
}

// NewTransactionEntryRepository construye el adaptador del log de transacciones.
func NewTransactionEntryRepository(pool *pgxpool.Pool) *TransactionEntryRepo {
	return &TransactionEntryRepo{pool: pool}
}

const entryColumns = `
	id, row_hash, date, item_id, kind, sub_type, customer, quantity,
	raw_unit_cost, landed_cost_total, final_unit_cost, sell_price, cogs,
	status, shortfall_qty, detail, created_at, created_by`

// Append inserta una entry al final del log. Devuelve ErrDuplicate si el
// row_hash ya existe.
func (r *TransactionEntryRepo) Append(ctx context.Context, e *entity.TransactionEntry) error {
	query := `
		INSERT INTO transaction_entries (
			id, row_hash, date, item_id, kind, sub_type, customer, quantity,
			raw_unit_cost, landed_cost_total, final_unit_cost, sell_price, cogs,
			status, shortfall_qty, detail, created_at, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err := r.pool.Exec(ctx, query,
		e.ID, e.RowHash, e.Date, e.ItemID, e.Kind, e.SubType, e.Customer, e.Quantity,
		e.RawUnitCost, e.LandedCostTotal, e.FinalUnitCost, e.SellPrice, e.COGS,
		e.Status, e.ShortfallQty, e.Detail, e.CreatedAt, e.CreatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert transaction entry: %w", err)
	}
	return nil
}

// ListAll devuelve el log completo en orden cronológico, con el orden de
// inserción como desempate.
func (r *TransactionEntryRepo) ListAll(ctx context.Context) ([]*entity.TransactionEntry, error) {
	query := `SELECT` + entryColumns + `
		FROM transaction_entries ORDER BY date ASC, position ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list transaction entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// ListByItem lista las entries de un ítem, más recientes primero.
func (r *TransactionEntryRepo) ListByItem(ctx context.Context, itemID string, limit, offset int) ([]*entity.TransactionEntry, error) {
	query := `SELECT` + entryColumns + `
		FROM transaction_entries WHERE item_id = $1
		ORDER BY date DESC, position DESC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, itemID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list entries by item: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// ListHashes devuelve el conjunto de hashes de contenido persistidos.
func (r *TransactionEntryRepo) ListHashes(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.pool.Query(ctx, `SELECT row_hash FROM transaction_entries`)
	if err != nil {
		return nil, fmt.Errorf("list row hashes: %w", err)
	}
	defer rows.Close()
	hashes := make(map[string]struct{})
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("scan row hash: %w", err)
		}
		hashes[h] = struct{}{}
	}
	return hashes, rows.Err()
}

// ExistsHash responde si un hash de contenido ya está en el log.
func (r *TransactionEntryRepo) ExistsHash(ctx context.Context, rowHash string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM transaction_entries WHERE row_hash = $1)`, rowHash,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists row hash: %w", err)
	}
	return exists, nil
}

// ListIssuesSince lista las salidas desde una fecha (inclusive), en orden
// cronológico.
func (r *TransactionEntryRepo) ListIssuesSince(ctx context.Context, since time.Time) ([]*entity.TransactionEntry, error) {
	query := `SELECT` + entryColumns + `
		FROM transaction_entries WHERE kind = $1 AND date >= $2
		ORDER BY date ASC, position ASC`
	rows, err := r.pool.Query(ctx, query, entity.KindIssue, since)
	if err != nil {
		return nil, fmt.Errorf("list issues since: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Count devuelve el total de entries del log.
func (r *TransactionEntryRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transaction_entries`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count transaction entries: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanEntries(rows rowScanner) ([]*entity.TransactionEntry, error) {
	var list []*entity.TransactionEntry
	for rows.Next() {
		var e entity.TransactionEntry
		if err := rows.Scan(
			&e.ID, &e.RowHash, &e.Date, &e.ItemID, &e.Kind, &e.SubType, &e.Customer, &e.Quantity,
			&e.RawUnitCost, &e.LandedCostTotal, &e.FinalUnitCost, &e.SellPrice, &e.COGS,
			&e.Status, &e.ShortfallQty, &e.Detail, &e.CreatedAt, &e.CreatedBy,
		); err != nil {
			return nil, fmt.Errorf("scan transaction entry: %w", err)
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}
