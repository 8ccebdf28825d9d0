package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"esign/internal/config"
	handlers "esign/internal/http/handler"
	"esign/internal/http/middleware"
	"esign/internal/logging"
	"esign/internal/otel"
	"esign/internal/service"
	"esign/internal/signer"
	"esign/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// @title E-Sign Ledger API
// @version 1.0
// @description Signs documents with an ECDSA P-256 key and verifies them against an append-only ledger.
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	log, err := logging.New(cfg.Log)
	if err != nil {
		// logger itself failed; fall back to a bare production logger
		zap.Must(zap.NewProduction()).Fatal("logger init failed", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.AppConfig, log *zap.Logger) (err error) {
	shutdownTracing, err := otel.Init(ctx, cfg.ServiceName, log)
	if err != nil {
		return err
	}

	var closers []func() error
	defer func() {
		tctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		for i := len(closers) - 1; i >= 0; i-- {
			err = multierr.Append(err, closers[i]())
		}
		err = multierr.Append(err, shutdownTracing(tctx))
	}()

	ledger, err := openLedger(ctx, cfg, log)
	if err != nil {
		return err
	}
	closers = append(closers, ledger.close)

	keys, err := signer.Load(cfg.Keys)
	if err != nil {
		return err
	}
	if !keys.CanSign() {
		log.Warn("signing key not loaded; running verify-only", zap.String("component", "signer"))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return err
	}
	metrics, err := service.NewMetrics(reg)
	if err != nil {
		return err
	}

	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(metrics),
		service.WithProof(cfg.Proof.VerifyBaseURL, cfg.Proof.QRSize),
	}
	if cfg.MinIO.Enabled() {
		store, err := storage.NewMinIO(ctx, cfg.MinIO)
		if err != nil {
			return err
		}
		opts = append(opts, service.WithArchive(store, 15*time.Minute))
		log.Info("document archive enabled", zap.String("bucket", cfg.MinIO.Bucket))
	}
	signatures := service.NewSignatureService(ledger.repo, keys, opts...)

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(),
		BodyLimit:             (cfg.MaxUploadMB + 1) << 20, // headroom for multipart framing
		DisableStartupMessage: true,
	})

	// Register global middleware
	app.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(prom.Handler())

	handlers.RegisterRoutes(app, handlers.Deps{
		Ledger:         ledger.pinger,
		Signatures:     signatures,
		Gatherer:       reg,
		MaxUploadBytes: int64(cfg.MaxUploadMB) << 20,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", ":"+cfg.Port), zap.String("ledger", cfg.Ledger.Backend))
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(sctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
