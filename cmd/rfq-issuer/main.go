// Command rfq-issuer runs the maker-side RFQ issuance service: it wires
// the Chains Registry, Token Metadata Cache, Pair Admission Store,
// Strategy Catalog & Chain State, Pricing/Strategy clients, Nonce
// Allocator, Signer, and Quote Orchestrator behind the Transport
// Surface, following the teacher's cmd/pincex/main.go bootstrap shape
// (godotenv + config -> logger -> chains registry -> datastore ->
// services -> HTTP server -> signal-driven shutdown).
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aquaprotocol/rfq-issuer/internal/chains"
	"github.com/aquaprotocol/rfq-issuer/internal/config"
	"github.com/aquaprotocol/rfq-issuer/internal/logging"
	"github.com/aquaprotocol/rfq-issuer/internal/nonce"
	"github.com/aquaprotocol/rfq-issuer/internal/orchestrator"
	"github.com/aquaprotocol/rfq-issuer/internal/pairs"
	"github.com/aquaprotocol/rfq-issuer/internal/pricing"
	"github.com/aquaprotocol/rfq-issuer/internal/quotestore"
	"github.com/aquaprotocol/rfq-issuer/internal/signer"
	"github.com/aquaprotocol/rfq-issuer/internal/strategy"
	"github.com/aquaprotocol/rfq-issuer/internal/strategyclient"
	"github.com/aquaprotocol/rfq-issuer/internal/tokens"
	"github.com/aquaprotocol/rfq-issuer/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "building logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	registry, err := chains.Load(cfg.ChainsConfigPath, chains.Options{
		DefaultPricingURL:  cfg.PricingURL,
		DefaultStrategyURL: cfg.StrategyURL,
	})
	if err != nil {
		log.Fatal("loading chains registry", zap.Error(err))
	}

	ctx := context.Background()

	pairStore, strategyStore, tokenStoreBase, nonceAllocator, quoteStore := buildStores(ctx, cfg, log)

	var tokenStore tokens.Store = tokenStoreBase
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal("parsing REDIS_URL", zap.Error(err))
		}
		rdb := redis.NewClient(opt)
		tokenStore = tokens.NewRedisCachedStore(tokenStoreBase, rdb, log, "rfq:token", 24*time.Hour)
	}

	tokenCache := tokens.NewCache(tokenStore, tokens.NewProviderCache())
	pricingClient := pricing.NewClient(cfg.RequestTimeout, log)
	strategyClient := strategyclient.NewClient(cfg.RequestTimeout, log)
	sign := signer.New()

	orch := orchestrator.New(
		registry,
		tokenCache,
		pairStore,
		strategyStore,
		pricingClient,
		strategyClient,
		nonceAllocator,
		sign,
		quoteStore,
		log,
	)

	srv := transport.NewServer(log, orch, registry, pairStore, strategyStore, tokenStore, transport.Options{
		GlobalTimeout: cfg.GlobalTimeout,
	})

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: srv.Router(),
	}

	go func() {
		log.Info("starting rfq-issuer", zap.Int("port", cfg.Port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}

// buildStores selects the Postgres-backed implementations when
// DATABASE_URL is set, falling back to the in-memory implementations
// otherwise (e.g. local development without a database).
func buildStores(ctx context.Context, cfg *config.Config, log *zap.Logger) (
	pairs.Store, strategy.Store, tokens.Store, nonce.Allocator, quotestore.Store,
) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL unset, using in-memory stores")
		return pairs.NewMemoryStore(), strategy.NewMemoryStore(), tokens.NewMemoryStore(),
			nonce.NewMemoryAllocator(), quotestore.NewMemoryStore()
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("connecting to postgres", zap.Error(err))
	}

	return pairs.NewPgStore(pool), strategy.NewPgStore(pool), tokens.NewPgStore(pool),
		nonce.NewPgAllocator(pool), quotestore.NewPgStore(pool)
}
