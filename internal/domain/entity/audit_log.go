package entity

import "time"

// AuditLog registro de auditoría (paper trail). Solo se inserta, nunca se
// actualiza ni se borra; el endpoint de consulta es solo para admin.
type AuditLog struct {
	ID        string
	Timestamp time.Time
	Actor     string // nombre/ID del usuario, "System" en procesos internos
	IP        string
	Action    string // LOGIN, RECEIPT, ISSUE, IMPORT, REPLAY, ...
	Details   string
}
