// kardex_import carga un export CSV del ERP anterior directamente al log de
// transacciones, sin pasar por la API HTTP. Útil para la migración inicial.
//
// Uso: go run ./cmd/kardex_import [-latin1] ruta/export.csv
// -latin1 transcodifica el archivo desde ISO-8859-1 (exportes de Excel es-CO).
//
// Las filas duplicadas (hash de contenido ya registrado) se saltan, así que
// es seguro re-ejecutar con el mismo archivo.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/tu-usuario/kardex-fifo/internal/application/ingest"
	"github.com/tu-usuario/kardex-fifo/internal/application/ledger"
	"github.com/tu-usuario/kardex-fifo/internal/domain/fifo"
	"github.com/tu-usuario/kardex-fifo/internal/infrastructure/postgres"
	"github.com/tu-usuario/kardex-fifo/pkg/config"
	"github.com/tu-usuario/kardex-fifo/pkg/logger"
)

func main() {
	latin1 := flag.Bool("latin1", false, "transcodificar el CSV desde ISO-8859-1")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "uso: kardex_import [-latin1] ruta/export.csv")
		os.Exit(2)
	}
	csvPath := flag.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: "info"})

	f, err := os.Open(csvPath)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir CSV")
	}
	defer f.Close()

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	entryRepo := postgres.NewTransactionEntryRepository(pool)
	ledgerUC := ledger.NewUseCase(fifo.NewLedgerEngine(), entryRepo, nil, log)
	if _, err := ledgerUC.Rebuild(ctx, "kardex_import", "cli"); err != nil {
		log.Fatal().Err(err).Msg("reconstrucción inicial del kardex")
	}

	ingestUC := ingest.NewUseCase(ledgerUC, nil, log)
	result, err := ingestUC.ImportCSV(ctx, f, *latin1, "kardex_import", "cli")
	if err != nil {
		log.Fatal().Err(err).Msg("carga masiva")
	}

	fmt.Printf("Importadas %d filas, %d duplicadas saltadas, %d con error\n",
		result.Imported, result.Skipped, len(result.Failed))
	for _, fe := range result.Failed {
		fmt.Printf("  línea %d: %s\n", fe.Line, fe.Reason)
	}
	if len(result.Failed) > 0 {
		os.Exit(1)
	}
}
