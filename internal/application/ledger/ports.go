package ledger

import "context"

// AuditRecorder deja constancia de las operaciones del kardex en el paper
// trail. Una falla de auditoría no debe tumbar la transacción: las
// implementaciones loguean y siguen.
type AuditRecorder interface {
	Record(ctx context.Context, actor, ip, action, details string)
}

// NopAuditRecorder descarta los registros (tests y herramientas).
type NopAuditRecorder struct{}

func (NopAuditRecorder) Record(context.Context, string, string, string, string) {}
