package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// isUniqueViolation detecta el código 23505 de Postgres. Lo disparan los
// constraints únicos de transaction_entries (row_hash e id) y el email de
// users; los repos lo traducen a los errores de dominio correspondientes.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	// Algunos poolers intermedios devuelven el error ya aplanado a texto.
	return strings.Contains(err.Error(), "23505")
}
