package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/tu-usuario/kardex-fifo/internal/application/audit"
	"github.com/tu-usuario/kardex-fifo/internal/application/auth"
	"github.com/tu-usuario/kardex-fifo/internal/application/ingest"
	"github.com/tu-usuario/kardex-fifo/internal/application/ledger"
	"github.com/tu-usuario/kardex-fifo/internal/application/report"
	"github.com/tu-usuario/kardex-fifo/internal/domain/fifo"
	infraai "github.com/tu-usuario/kardex-fifo/internal/infrastructure/ai"
	infrapdf "github.com/tu-usuario/kardex-fifo/internal/infrastructure/pdf"
	"github.com/tu-usuario/kardex-fifo/internal/infrastructure/postgres"
	httpRouter "github.com/tu-usuario/kardex-fifo/internal/interfaces/http"
	"github.com/tu-usuario/kardex-fifo/pkg/config"
	"github.com/tu-usuario/kardex-fifo/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	entryRepo := postgres.NewTransactionEntryRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	auditRepo := postgres.NewAuditLogRepository(pool)

	auditSvc := audit.NewService(auditRepo, log)
	ledgerUC := ledger.NewUseCase(fifo.NewLedgerEngine(), entryRepo, auditSvc, log)

	// El kardex vive en memoria: reconstruirlo desde el log persistido antes
	// de aceptar tráfico.
	replay, err := ledgerUC.Rebuild(ctx, "System", "")
	if err != nil {
		log.Fatal().Err(err).Msg("reconstrucción inicial del kardex")
	}
	log.Info().
		Int("entries", replay.EntriesReplayed).
		Int("items", replay.Items).
		Msg("kardex reconstruido")

	ingestUC := ingest.NewUseCase(ledgerUC, auditSvc, log)
	pdfGenerator := infrapdf.NewMarotoPDFGenerator()
	reportUC := report.NewUseCase(ledgerUC, pdfGenerator, cfg.Report.ReorderThresholdMonths, log)
	anthropicSvc := infraai.NewAnthropicService(cfg.AI.AnthropicAPIKey, cfg.AI.AnthropicModel)
	authUC := auth.NewUseCase(userRepo, auditSvc, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Kardex FIFO API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:    authUC,
		LedgerUC:  ledgerUC,
		IngestUC:  ingestUC,
		ReportUC:  reportUC,
		AuditSvc:  auditSvc,
		LLM:       anthropicSvc,
		JWTSecret: cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
