package repository

import (
	"context"
	"time"

	"github.com/tu-usuario/kardex-fifo/internal/domain/entity"
)

// TransactionEntryRepository define el puerto de persistencia del log del
// kardex. El log es append-only: no hay Update ni Delete.
type TransactionEntryRepository interface {
	// Append persiste una entry nueva. Devuelve domain.ErrDuplicate si ya
	// existe una entry con el mismo RowHash.
	Append(ctx context.Context, entry *entity.TransactionEntry) error

	// ListAll devuelve el log completo en orden de fecha y, a igualdad de
	// fecha, en orden de inserción. Es la entrada del replay al arrancar.
	ListAll(ctx context.Context) ([]*entity.TransactionEntry, error)

	// ListByItem devuelve las entries de un ítem, más recientes primero.
	ListByItem(ctx context.Context, itemID string, limit, offset int) ([]*entity.TransactionEntry, error)

	// ListHashes devuelve los RowHash ya persistidos (filtro de dedup de la
	// capa de ingesta).
	ListHashes(ctx context.Context) (map[string]struct{}, error)

	// ExistsHash indica si ya hay una entry persistida con ese RowHash.
	ExistsHash(ctx context.Context, rowHash string) (bool, error)

	// ListIssuesSince devuelve las salidas desde una fecha (para promedios
	// de consumo del módulo de reportes).
	ListIssuesSince(ctx context.Context, since time.Time) ([]*entity.TransactionEntry, error)

	// Count devuelve el total de entries persistidas.
	Count(ctx context.Context) (int64, error)
}
