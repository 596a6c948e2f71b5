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

	"github.com/jhoicas/Cartera-api/internal/application/billing"
	"github.com/jhoicas/Cartera-api/internal/application/reporting"
	"github.com/jhoicas/Cartera-api/internal/application/statement"
	"github.com/jhoicas/Cartera-api/internal/domain/pricing"
	infraexcel "github.com/jhoicas/Cartera-api/internal/infrastructure/excel"
	infralock "github.com/jhoicas/Cartera-api/internal/infrastructure/lock"
	infrapdf "github.com/jhoicas/Cartera-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Cartera-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Cartera-api/internal/interfaces/http"
	"github.com/jhoicas/Cartera-api/pkg/config"
	"github.com/jhoicas/Cartera-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB, cfg.App.Name)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	// Candado por documento: Redis si hay dirección configurada, si no en memoria.
	var locker billing.InvoiceLocker
	if cfg.Redis.Enabled() {
		rdb, err := infralock.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer func() { _ = rdb.Close() }()
		locker = infralock.NewRedisLocker(rdb, cfg.Ledger.LockTTL, log)
		log.Info().Str("redis", cfg.Redis.Address).Msg("candados distribuidos en Redis")
	} else {
		locker = infralock.NewLocalLocker()
		log.Warn().Msg("REDIS_ADDRESS vacío: candados en memoria, usar una sola instancia")
	}

	invoiceRepo := postgres.NewInvoiceRepository(pool)
	creditRepo := postgres.NewCreditNoteRepository(pool)
	paymentRepo := postgres.NewPaymentRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	pricer := pricing.NewLinePricer(pricing.NewUnitConverter(cfg.Ledger.DefaultKgPerBag))

	invoiceUC := billing.NewInvoiceUseCase(txRunner, locker, invoiceRepo, pricer, log)
	creditNoteUC := billing.NewCreditNoteUseCase(txRunner, locker, creditRepo, pricer, cfg.Ledger.DefaultVATPercent, log)
	statementUC := statement.NewUseCase(
		customerRepo, invoiceRepo, paymentRepo, creditRepo,
		infrapdf.NewStatementRenderer(cfg.App.Name),
		cfg.Ledger.StatementParallelism, log,
	)
	reportUC := reporting.NewUseCase(invoiceRepo, creditRepo, paymentRepo, infraexcel.NewReportExporter(), log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Cartera API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Invoices:    invoiceUC,
		CreditNotes: creditNoteUC,
		Statements:  statementUC,
		Reports:     reportUC,
		JWTSecret:   cfg.JWT.Secret,
		JWTIssuer:   cfg.JWT.Issuer,
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
