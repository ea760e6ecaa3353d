package dto

// ImportRowError detalle de una fila de CSV rechazada.
type ImportRowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// ImportResult resumen de una carga masiva de CSV.
type ImportResult struct {
	Imported int              `json:"imported"`
	Skipped  int              `json:"skipped"` // duplicados filtrados por hash
	Failed   []ImportRowError `json:"failed,omitempty"`
}
