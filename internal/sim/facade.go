package sim

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/arborfi/simtrade/internal/fixed"
)

// Config is supplied at construction and never read from files or the
// environment by the core; loading it from disk is the caller's job
// (internal/config).
type Config struct {
	CycleDelay       time.Duration
	CurrencyBalance  fixed.D
	CommodityBalance fixed.D
	Exchange         Exchange
}

// Sim is the Trading Facade: the operations exposed to clients. It wraps an
// Exchange, delegating market-data pass-through unchanged and overriding
// spot trading with the simulation engine.
type Sim struct {
	store    *Store
	exchange Exchange
	runner   *Runner
	logger   *zap.Logger
}

// CreateSim constructs a Sim with the given starting endowment and starts
// its background matching worker. DestroySim must be called to release it.
func CreateSim(ctx context.Context, cfg Config, logger *zap.Logger, observer MatchObserver) *Sim {
	if logger == nil {
		logger = zap.NewNop()
	}
	store := NewStore(cfg.CurrencyBalance, cfg.CommodityBalance)
	runner := StartRunner(ctx, store, cfg.Exchange, cfg.CycleDelay, logger, observer)

	return &Sim{
		store:    store,
		exchange: cfg.Exchange,
		runner:   runner,
		logger:   logger,
	}
}

// DestroySim cancels the background worker and returns promptly.
func DestroySim(s *Sim) {
	s.runner.Stop()
}

// Balances returns the current currency and commodity balances.
func (s *Sim) Balances() Balances {
	state := s.store.Snapshot()
	return Balances{Currency: state.CurrencyBalance, Commodity: state.CommodityBalance}
}

// CurrentOpenOrders lists every pending limit order as its public
// projection. Market orders are never listed: they settle or refund within
// a single matching cycle and are never "open".
func (s *Sim) CurrentOpenOrders() []Order {
	state := s.store.Snapshot()
	orders := make([]Order, 0, len(state.PendingLimitOrders))
	for _, o := range state.PendingLimitOrders {
		orders = append(orders, Order{
			ID:          o.ID,
			Side:        o.Side,
			TimestampMs: o.TimestampMs,
			Volume:      o.Volume,
			UnitPrice:   o.UnitPrice,
		})
	}
	return orders
}

// PlaceLimitOrder allocates an ID, timestamps the order with the current
// wall clock, and reserves its committed side. It returns
// ErrInsufficientBalance if the reserved side cannot cover it.
func (s *Sim) PlaceLimitOrder(side Side, volume, unitPrice fixed.D) (string, error) {
	id := s.store.NewID()
	order := PendingLimitOrder{
		ID:          id,
		Side:        side,
		TimestampMs: time.Now().UnixMilli(),
		Volume:      volume,
		UnitPrice:   unitPrice,
	}
	if !s.store.AddLimitOrder(order) {
		return "", ErrInsufficientBalance
	}
	return id, nil
}

// PlaceMarketOrder allocates an ID, timestamps the order with the current
// wall clock, and reserves amount from the committed side. It returns
// ErrInsufficientBalance if the reserved side cannot cover it.
func (s *Sim) PlaceMarketOrder(side Side, amount fixed.D) (string, error) {
	id := s.store.NewID()
	order := PendingMarketOrder{
		ID:          id,
		Side:        side,
		TimestampMs: time.Now().UnixMilli(),
		Amount:      amount,
	}
	if !s.store.AddMarketOrder(order) {
		return "", ErrInsufficientBalance
	}
	return id, nil
}

// CancelOrder cancels a pending limit order. Cancelling an unknown or
// already-settled ID is a no-op, not an error. Market orders cannot be
// cancelled.
func (s *Sim) CancelOrder(id string) {
	s.store.CancelLimitOrder(id)
}

// Ticker passes through to the wrapped exchange unchanged.
func (s *Sim) Ticker(ctx context.Context) (Ticker, error) {
	t, err := s.exchange.Ticker(ctx)
	if err != nil {
		return Ticker{}, fmt.Errorf("%w: ticker: %v", ErrUpstream, err)
	}
	return t, nil
}

// Candles passes through to the wrapped exchange unchanged.
func (s *Sim) Candles(ctx context.Context, interval string) ([]Candle, error) {
	c, err := s.exchange.Candles(ctx, interval)
	if err != nil {
		return nil, fmt.Errorf("%w: candles: %v", ErrUpstream, err)
	}
	return c, nil
}

// OrderBook passes through to the wrapped exchange unchanged.
func (s *Sim) OrderBook(ctx context.Context) (OrderBook, error) {
	b, err := s.exchange.OrderBook(ctx)
	if err != nil {
		return OrderBook{}, fmt.Errorf("%w: order book: %v", ErrUpstream, err)
	}
	return b, nil
}

// TradeHistory passes through to the wrapped exchange unchanged.
func (s *Sim) TradeHistory(ctx context.Context) ([]Trade, error) {
	t, err := s.exchange.TradeHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: trade history: %v", ErrUpstream, err)
	}
	return t, nil
}
