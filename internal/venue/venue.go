// Package venue holds concrete sim.Exchange adapters: each converts one
// venue's wire shapes into the core's domain types at the edge, so the
// simulation core never has to know about a particular venue's encoding.
package venue

import (
	"context"
	"sync"

	"github.com/arborfi/simtrade/internal/sim"
)

// Memory is a deterministic, in-process sim.Exchange used by tests and by
// cmd/simd's "memory" venue: its book and trade history are whatever was last set,
// with no network or wall-clock dependency.
type Memory struct {
	mu     sync.Mutex
	book   sim.OrderBook
	trades []sim.Trade
	ticker sim.Ticker
	candle []sim.Candle
}

// NewMemory returns an empty adapter; use SetBook/SetTrades to drive it.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) SetBook(book sim.OrderBook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.book = book
}

func (m *Memory) SetTrades(trades []sim.Trade) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trades = trades
}

func (m *Memory) SetTicker(t sim.Ticker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticker = t
}

func (m *Memory) SetCandles(c []sim.Candle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.candle = c
}

func (m *Memory) OrderBook(ctx context.Context) (sim.OrderBook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.book, nil
}

func (m *Memory) TradeHistory(ctx context.Context) ([]sim.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sim.Trade(nil), m.trades...), nil
}

func (m *Memory) Ticker(ctx context.Context) (sim.Ticker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ticker, nil
}

func (m *Memory) Candles(ctx context.Context, interval string) ([]sim.Candle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sim.Candle(nil), m.candle...), nil
}

var _ sim.Exchange = (*Memory)(nil)
