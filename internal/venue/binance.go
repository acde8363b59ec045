package venue

import (
	"context"
	"fmt"

	"github.com/adshao/go-binance/v2"

	"github.com/arborfi/simtrade/internal/fixed"
	"github.com/arborfi/simtrade/internal/sim"
)

// Binance wraps the public Binance REST API as a sim.Exchange. It is
// constructed without API keys: only public market-data endpoints are
// used, so no real order is ever at risk of being placed through it.
// Modeled on the unauthenticated wrapping pattern other simulate clients in
// this ecosystem use.
type Binance struct {
	client *binance.Client
	symbol string
}

// NewBinance returns an adapter for the given trading pair symbol, e.g.
// "BTCUSDT".
func NewBinance(symbol string) *Binance {
	return &Binance{
		client: binance.NewClient("", ""),
		symbol: symbol,
	}
}

func (b *Binance) OrderBook(ctx context.Context) (sim.OrderBook, error) {
	depth, err := b.client.NewDepthService().Symbol(b.symbol).Do(ctx)
	if err != nil {
		return sim.OrderBook{}, fmt.Errorf("binance: depth: %w", err)
	}

	book := sim.OrderBook{
		Bids: make([]sim.OrderBookEntry, 0, len(depth.Bids)),
		Asks: make([]sim.OrderBookEntry, 0, len(depth.Asks)),
	}
	for _, lvl := range depth.Bids {
		entry, err := toEntry(lvl.Price, lvl.Quantity)
		if err != nil {
			return sim.OrderBook{}, err
		}
		book.Bids = append(book.Bids, entry)
	}
	for _, lvl := range depth.Asks {
		entry, err := toEntry(lvl.Price, lvl.Quantity)
		if err != nil {
			return sim.OrderBook{}, err
		}
		book.Asks = append(book.Asks, entry)
	}
	return book, nil
}

func (b *Binance) TradeHistory(ctx context.Context) ([]sim.Trade, error) {
	raw, err := b.client.NewAggTradesService().Symbol(b.symbol).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance: agg trades: %w", err)
	}

	trades := make([]sim.Trade, 0, len(raw))
	for _, t := range raw {
		price, err := fixed.Parse(t.Price)
		if err != nil {
			return nil, fmt.Errorf("binance: trade price: %w", err)
		}
		volume, err := fixed.Parse(t.Quantity)
		if err != nil {
			return nil, fmt.Errorf("binance: trade quantity: %w", err)
		}

		// Binance reports IsBuyerMaker: true when the resting order was a
		// buy, meaning the aggressor sold into it.
		side := sim.Bid
		if t.IsBuyerMaker {
			side = sim.Ask
		}

		trades = append(trades, sim.Trade{
			TimestampMs: t.Timestamp,
			Side:        side,
			UnitPrice:   price,
			Volume:      volume,
		})
	}
	return trades, nil
}

func (b *Binance) Ticker(ctx context.Context) (sim.Ticker, error) {
	stats, err := b.client.NewListPriceChangeStatsService().Symbol(b.symbol).Do(ctx)
	if err != nil {
		return sim.Ticker{}, fmt.Errorf("binance: ticker: %w", err)
	}
	if len(stats) == 0 {
		return sim.Ticker{}, fmt.Errorf("binance: ticker: no stats for %s", b.symbol)
	}
	s := stats[0]

	last, err := fixed.Parse(s.LastPrice)
	if err != nil {
		return sim.Ticker{}, fmt.Errorf("binance: last price: %w", err)
	}
	bid, err := fixed.Parse(s.BidPrice)
	if err != nil {
		return sim.Ticker{}, fmt.Errorf("binance: bid price: %w", err)
	}
	ask, err := fixed.Parse(s.AskPrice)
	if err != nil {
		return sim.Ticker{}, fmt.Errorf("binance: ask price: %w", err)
	}
	return sim.Ticker{LastPrice: last, BidPrice: bid, AskPrice: ask}, nil
}

func (b *Binance) Candles(ctx context.Context, interval string) ([]sim.Candle, error) {
	raw, err := b.client.NewKlinesService().Symbol(b.symbol).Interval(interval).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance: klines: %w", err)
	}

	candles := make([]sim.Candle, 0, len(raw))
	for _, k := range raw {
		open, err := fixed.Parse(k.Open)
		if err != nil {
			return nil, fmt.Errorf("binance: candle open: %w", err)
		}
		high, err := fixed.Parse(k.High)
		if err != nil {
			return nil, fmt.Errorf("binance: candle high: %w", err)
		}
		low, err := fixed.Parse(k.Low)
		if err != nil {
			return nil, fmt.Errorf("binance: candle low: %w", err)
		}
		close, err := fixed.Parse(k.Close)
		if err != nil {
			return nil, fmt.Errorf("binance: candle close: %w", err)
		}
		volume, err := fixed.Parse(k.Volume)
		if err != nil {
			return nil, fmt.Errorf("binance: candle volume: %w", err)
		}
		candles = append(candles, sim.Candle{
			OpenTimeMs: k.OpenTime,
			Open:       open,
			High:       high,
			Low:        low,
			Close:      close,
			Volume:     volume,
		})
	}
	return candles, nil
}

func toEntry(price, quantity string) (sim.OrderBookEntry, error) {
	p, err := fixed.Parse(price)
	if err != nil {
		return sim.OrderBookEntry{}, fmt.Errorf("binance: price: %w", err)
	}
	q, err := fixed.Parse(quantity)
	if err != nil {
		return sim.OrderBookEntry{}, fmt.Errorf("binance: quantity: %w", err)
	}
	return sim.OrderBookEntry{Price: p, Volume: q}, nil
}

var _ sim.Exchange = (*Binance)(nil)
