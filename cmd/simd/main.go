package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/arborfi/simtrade/internal/audit"
	"github.com/arborfi/simtrade/internal/config"
	"github.com/arborfi/simtrade/internal/httpapi"
	"github.com/arborfi/simtrade/internal/pricecache"
	"github.com/arborfi/simtrade/internal/sim"
	"github.com/arborfi/simtrade/internal/venue"
)

func main() {
	configPath := flag.String("config", "simd.yaml", "path to the startup config file")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("zap: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("config load failed", zap.Error(err))
	}

	currency, commodity, err := cfg.Balances()
	if err != nil {
		logger.Fatal("invalid starting balances", zap.Error(err))
	}

	exchange, err := buildExchange(cfg)
	if err != nil {
		logger.Fatal("venue setup failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var observer sim.MatchObserver
	if cfg.DatabaseURL != "" {
		pool, err := audit.NewPool(ctx)
		if err != nil {
			logger.Warn("audit ledger disabled: could not connect", zap.Error(err))
		} else {
			defer pool.Close()
			observer = audit.NewLedger(pool, logger)
		}
	}

	s := sim.CreateSim(ctx, sim.Config{
		CycleDelay:       cfg.CycleDelay(),
		CurrencyBalance:  currency,
		CommodityBalance: commodity,
		Exchange:         exchange,
	}, logger, observer)
	defer sim.DestroySim(s)

	cache := pricecache.New()
	go pricecache.StartUpdater(ctx, exchange, cache, cfg.CycleDelay(), logger)

	router := httpapi.NewRouter(s, cache)
	server := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		<-ctx.Done()
		_ = server.Close()
	}()

	logger.Info("listening", zap.String("addr", cfg.HTTPAddr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func buildExchange(cfg config.Config) (sim.Exchange, error) {
	switch cfg.Venue.Kind {
	case "binance", "":
		symbol := cfg.Venue.Symbol
		if symbol == "" {
			symbol = "BTCUSDT"
		}
		return venue.NewBinance(symbol), nil
	case "memory":
		return venue.NewMemory(), nil
	default:
		return nil, &unknownVenueError{cfg.Venue.Kind}
	}
}

type unknownVenueError struct{ kind string }

func (e *unknownVenueError) Error() string { return "unknown venue kind: " + e.kind }
