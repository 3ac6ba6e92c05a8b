package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sheikh-saqib/org-finance-ledger/internal/api"
	"github.com/sheikh-saqib/org-finance-ledger/internal/auth"
	"github.com/sheikh-saqib/org-finance-ledger/internal/config"
	"github.com/sheikh-saqib/org-finance-ledger/internal/events/kafka"
	memevents "github.com/sheikh-saqib/org-finance-ledger/internal/events/memory"
	"github.com/sheikh-saqib/org-finance-ledger/internal/interfaces"
	"github.com/sheikh-saqib/org-finance-ledger/internal/ledger"
	"github.com/sheikh-saqib/org-finance-ledger/internal/logging"
	"github.com/sheikh-saqib/org-finance-ledger/internal/payout"
	"github.com/sheikh-saqib/org-finance-ledger/internal/rates"
	"github.com/sheikh-saqib/org-finance-ledger/internal/storage/memory"
	"github.com/sheikh-saqib/org-finance-ledger/internal/storage/postgres"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "ledger server:", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadEnv(); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, zap.String("service", "ledger"))
	if err != nil {
		return err
	}
	defer logger.Sync()

	authority, err := auth.New(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store interfaces.LedgerStore = memory.NewMemoryLedgerStore()
	if cfg.DatabaseURL != "" {
		db, err := postgres.Connect(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := postgres.Migrate(ctx, db, logger); err != nil {
			return err
		}
		store = postgres.NewPostgresLedgerStore(db)
	} else {
		logger.Warn("DATABASE_URL not set, ledger state lives in memory only")
	}

	// Without brokers events only reach the log; the in-process buffer is bounded.
	var publisher interfaces.EventPublisher = memevents.NewPublisher(logger)
	if len(cfg.KafkaBrokers) > 0 {
		kp := kafka.NewPublisher(cfg.KafkaBrokers)
		defer kp.Close()
		publisher = kp
	}

	var transferer interfaces.Transferer
	if cfg.PayoutGatewayURL != "" {
		transferer = payout.NewGateway(cfg.PayoutGatewayURL, nil, logger)
	} else {
		logger.Warn("PAYOUT_GATEWAY_URL not set, expenses settle in the in-memory payout book")
		transferer = payout.NewBook(logger)
	}

	l, err := ledger.Open(ctx, cfg.Owner, store,
		ledger.WithTransferer(transferer),
		ledger.WithPublisher(publisher),
		ledger.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	if err := l.Verify(); err != nil {
		return err
	}

	var cache rates.Cache = rates.NewMemoryCache()
	if cfg.RedisAddr != "" {
		rc := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rc.Close()
		cache = rates.NewRedisCache(rc, "ledger:rates:ethereum:php")
	}
	quoter := rates.NewService(rates.NewCoinGecko(cfg.PriceAPIURL, "ethereum", "php", nil, logger), cache, cfg.PriceTTL, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewServer(l, authority, api.WithQuoter(quoter), api.WithLogger(logger)).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}
