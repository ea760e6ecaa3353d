package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/kardex-fifo/internal/application/audit"
	"github.com/tu-usuario/kardex-fifo/internal/application/auth"
	"github.com/tu-usuario/kardex-fifo/internal/application/ingest"
	"github.com/tu-usuario/kardex-fifo/internal/application/ledger"
	"github.com/tu-usuario/kardex-fifo/internal/application/ports"
	"github.com/tu-usuario/kardex-fifo/internal/application/report"
	"github.com/tu-usuario/kardex-fifo/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC    *auth.UseCase
	LedgerUC  *ledger.UseCase
	IngestUC  *ingest.UseCase
	ReportUC  *report.UseCase
	AuditSvc  *audit.Service
	LLM       ports.LLMService
	JWTSecret string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Kardex (protegido)
	ledgerGroup := protected.Group("/ledger")
	ledgerHandler := NewLedgerHandler(deps.LedgerUC)
	ledgerGroup.Post("/receipts", ledgerHandler.RecordReceipt)
	ledgerGroup.Post("/issues", ledgerHandler.RecordIssue)
	ledgerGroup.Get("/items", ledgerHandler.ListItems)
	ledgerGroup.Get("/items/:item/stock", ledgerHandler.GetStock)
	ledgerGroup.Get("/items/:item/lots", ledgerHandler.GetLots)
	ledgerGroup.Get("/items/:item/entries", ledgerHandler.GetHistory)
	ledgerGroup.Get("/entries", ledgerHandler.ExportLog)
	// La reconstrucción borra y reproduce el estado completo: solo admin.
	ledgerGroup.Post("/replay", RequireRole(entity.RoleAdmin), ledgerHandler.Replay)

	// Carga masiva CSV (protegido)
	importGroup := protected.Group("/import")
	importHandler := NewImportHandler(deps.IngestUC)
	importGroup.Post("/csv", importHandler.Upload)
	importGroup.Get("/template", importHandler.Template)

	// Reportes (protegido)
	reports := protected.Group("/reports")
	reportHandler := NewReportHandler(deps.ReportUC)
	reports.Get("/summary", reportHandler.Summary)
	reports.Get("/reorder", reportHandler.ReorderAlerts)
	reports.Get("/valuation.pdf", reportHandler.ValuationPDF)

	// Extracción de documentos con IA (protegido)
	aiGroup := protected.Group("/ai")
	aiHandler := NewAIHandler(deps.LLM)
	aiGroup.Post("/extract-document", aiHandler.ExtractDocument)

	// Pista de auditoría (solo admin)
	auditHandler := NewAuditHandler(deps.AuditSvc)
	protected.Get("/audit", RequireRole(entity.RoleAdmin), auditHandler.List)
}
