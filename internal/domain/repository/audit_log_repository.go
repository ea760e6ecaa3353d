package repository

import (
	"context"

	"github.com/tu-usuario/kardex-fifo/internal/domain/entity"
)

// AuditLogRepository puerto de persistencia del paper trail (solo inserción
// y lectura; la tabla no admite updates ni deletes).
type AuditLogRepository interface {
	Create(ctx context.Context, log *entity.AuditLog) error
	List(ctx context.Context, limit, offset int) ([]*entity.AuditLog, error)
}
