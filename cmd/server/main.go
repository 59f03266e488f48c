package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"bank-core/internal/config"
	"bank-core/internal/httpapi"
	"bank-core/internal/ledger"
	"bank-core/internal/service"
	"bank-core/internal/store"
	"bank-core/internal/store/memstore"
	"bank-core/internal/store/pgstore"
)

// Demo customers, opened through the public service path when
// BANK_SEED=1 so seeded state obeys the same invariants as live state.
var seedCustomers = []string{
	"Basudev Tyagi", "Arjun Upadhyay", "Sonam Sauntiyal", "Kartik Singhal",
	"Anjali Dabral", "Tanishka Rana", "Himanshu Negi", "Garvit Chawla",
	"Vivek Chamoli", "Ashish Karki",
}

func main() {
	start := time.Now()
	cfg := config.Load()

	log.Printf("[startup] begin addr=%s backend=%s migrate=%t seed=%t",
		cfg.HTTPAddr, cfg.StoreBackend, cfg.Migrate, cfg.Seed)

	startCtx, startCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer startCancel()

	var st store.Store
	switch cfg.StoreBackend {
	case config.BackendMemory:
		st = memstore.New(cfg.MonetaryScale)

	case config.BackendPostgres:
		log.Printf("[startup] parsing DB config")
		pgCfg, err := pgxpool.ParseConfig(cfg.DSN)
		if err != nil {
			log.Fatalf("[startup] parse dsn failed: %v", err)
		}
		pgCfg.MaxConns = int32(cfg.MaxConns)
		pgCfg.MinConns = 1
		pgCfg.HealthCheckPeriod = 10 * time.Second
		pgCfg.MaxConnLifetime = 30 * time.Minute
		pgCfg.MaxConnIdleTime = 5 * time.Minute

		log.Printf("[startup] connecting to DB maxConns=%d", cfg.MaxConns)
		pool, err := pgxpool.NewWithConfig(startCtx, pgCfg)
		if err != nil {
			log.Fatalf("[startup] db connect failed: %v", err)
		}
		defer pool.Close()

		if err := pool.Ping(startCtx); err != nil {
			log.Fatalf("[startup] db ping failed: %v", err)
		}

		if cfg.Migrate {
			log.Printf("[startup] running migrations")
			if err := pgstore.Migrate(startCtx, pool); err != nil {
				log.Fatalf("[startup] migrations failed: %v", err)
			}
			log.Printf("[startup] migrations complete")
		} else {
			log.Printf("[startup] migrations disabled")
		}

		st = pgstore.New(pool, cfg.MonetaryScale)

	default:
		log.Fatalf("[startup] unknown store backend %q", cfg.StoreBackend)
	}

	lg := ledger.New(st, cfg.MonetaryScale)
	svc := service.New(st, lg, cfg.RecentTransactionsLimit)

	if cfg.Seed {
		if err := seed(startCtx, svc); err != nil {
			log.Fatalf("[seed] failed: %v", err)
		}
	}

	h := httpapi.NewHandlers(svc)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: httpapi.Router(h, cfg.MaxInflight),

		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf(
		"[startup] ready in %s, listening on %s",
		time.Since(start).Truncate(time.Millisecond),
		cfg.HTTPAddr,
	)

	log.Fatal(srv.ListenAndServe())
}

func seed(ctx context.Context, svc *service.Service) error {
	opening := decimal.NewFromInt(1000)

	for _, name := range seedCustomers {
		acct, err := svc.CreateAccount(ctx, name)
		if err != nil {
			return err
		}
		if _, err := svc.Deposit(ctx, acct.AccountNo, opening); err != nil {
			return err
		}
		log.Printf("[seed] opened account %s for %q", acct.AccountNo, name)
	}
	return nil
}
