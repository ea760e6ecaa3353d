// Package identity implementa el servicio de identidad/deduplicación: un
// hash de contenido estable por transacción. El motor FIFO no deduplica;
// este hash es lo que permite filtrar filas ya presentes en el log antes de
// llamarlo (cargas de CSV repetidas, reintentos).
package identity

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"
)

// RowHash calcula el hash de contenido de una transacción a partir de los
// campos que la identifican: fecha (día), ítem, tipo, cantidad y cliente.
// Dos filas con el mismo payload son la misma transacción a efectos de
// dedup, aunque lleguen en archivos distintos.
func RowHash(date time.Time, itemID, kind string, quantity int64, customer string) string {
	payload := fmt.Sprintf("%s%s%s%d%s", date.Format("2006-01-02"), itemID, kind, quantity, customer)
	sum := md5.Sum([]byte(payload))
	return hex.EncodeToString(sum[:])
}
