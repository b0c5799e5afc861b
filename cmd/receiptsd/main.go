package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/sirsalvo/easyreceipts/internal/artifacts"
	"github.com/sirsalvo/easyreceipts/internal/categories"
	"github.com/sirsalvo/easyreceipts/internal/common"
	"github.com/sirsalvo/easyreceipts/internal/export"
	"github.com/sirsalvo/easyreceipts/internal/receipts"
	"github.com/sirsalvo/easyreceipts/internal/repository"
	"github.com/sirsalvo/easyreceipts/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	fs := ff.NewFlagSet("receiptsd")
	var (
		addr    = fs.StringLong("addr", "", "HTTP listen address (overrides HTTP_ADDR)")
		dbURL   = fs.StringLong("db", "", "record store DSN (overrides DB_URL)")
		dataDir = fs.StringLong("artifacts", "", "artifact directory (overrides ARTIFACTS_DIR)")
		debug   = fs.BoolLong("debug", "enable debug logging")
	)
	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("RECEIPTSD")); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		return err
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dbURL != "" {
		cfg.Database.DSN = *dbURL
	}
	if *dataDir != "" {
		cfg.Artifacts.Dir = *dataDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, repository.Config{
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		return fmt.Errorf("opening record store: %w", err)
	}
	defer db.Close(logger)

	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("record store health: %w", err)
	}
	if err := repository.Migrate(ctx, db, logger); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("record store ready", "dialect", db.Dialect)

	// Secrets flow through a parameter cache so a secrets-manager loader
	// can replace the env loader without touching the call sites.
	params := common.NewParamCache(func(name string) (string, error) {
		if v := os.Getenv(name); v != "" {
			return v, nil
		}
		return "", fmt.Errorf("parameter %s is not set", name)
	})
	signingSecret, err := params.Get("URL_SIGNING_SECRET")
	if err != nil {
		return err
	}
	jwtSecret, err := params.Get("JWT_SECRET")
	if err != nil {
		return err
	}

	signer := artifacts.NewSigner(signingSecret, cfg.Server.PublicBaseURL)
	store, err := artifacts.NewLocalStore(cfg.Artifacts.Dir, signer, logger)
	if err != nil {
		return fmt.Errorf("opening artifact store: %w", err)
	}

	receiptRepo := repository.NewReceiptRepository(db, logger)
	categoryRepo := repository.NewCategoryRepository(db, logger)

	receiptSvc := receipts.NewService(receiptRepo, store, cfg.Artifacts.PresignTTL, logger)
	categorySvc := categories.NewService(categoryRepo, logger)
	exportSvc := export.NewService(receiptRepo, logger)

	srv := server.New(receiptSvc, categorySvc, exportSvc, store, signer, db, jwtSecret, logger)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           http.TimeoutHandler(srv.Handler(), cfg.Server.RequestTimeout, `{"error":"internal_error","message":"request timed out"}`),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("stopped")
	return nil
}
