// Package audit registra la pista de auditoría de las operaciones del kardex:
// quién hizo qué, desde qué IP y cuándo.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tu-usuario/kardex-fifo/internal/domain/entity"
	"github.com/tu-usuario/kardex-fifo/internal/domain/repository"
	"github.com/tu-usuario/kardex-fifo/pkg/logger"
)

// Service escribe eventos de auditoría. Implementa ledger.AuditRecorder.
// Un fallo al persistir se loguea y no interrumpe la operación de negocio.
type Service struct {
	repo repository.AuditLogRepository
	log  *logger.Logger
}

// NewService construye el servicio de auditoría.
func NewService(repo repository.AuditLogRepository, log *logger.Logger) *Service {
	if log == nil {
		log = logger.New(logger.Config{Level: "error"})
	}
	return &Service{repo: repo, log: log}
}

// Record persiste un evento de auditoría.
func (s *Service) Record(ctx context.Context, actor, ip, action, details string) {
	entry := &entity.AuditLog{
		ID:        uuid.New().String(),
		Timestamp: time.Now(),
		Actor:     actor,
		IP:        ip,
		Action:    action,
		Details:   details,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		s.log.Error().Err(err).
			Str("actor", actor).
			Str("action", action).
			Msg("no se pudo persistir evento de auditoría")
	}
}

// List devuelve los eventos más recientes primero.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*entity.AuditLog, error) {
	return s.repo.List(ctx, limit, offset)
}
