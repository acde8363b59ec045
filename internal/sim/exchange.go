package sim

import (
	"context"

	"github.com/arborfi/simtrade/internal/fixed"
)

// Ticker is the latest best-price snapshot passed through unchanged from
// the wrapped exchange.
type Ticker struct {
	LastPrice fixed.D
	BidPrice  fixed.D
	AskPrice  fixed.D
}

// Candle is one OHLCV bar passed through unchanged from the wrapped
// exchange.
type Candle struct {
	OpenTimeMs int64
	Open       fixed.D
	High       fixed.D
	Low        fixed.D
	Close      fixed.D
	Volume     fixed.D
}

// MarketDataFeed is the only capability the matching loop needs from the
// wrapped exchange: a current book and recent trade history.
type MarketDataFeed interface {
	OrderBook(ctx context.Context) (OrderBook, error)
	TradeHistory(ctx context.Context) ([]Trade, error)
}

// Exchange is the full venue capability set the Trading Facade wraps: spot
// trading is simulated by Sim, everything else passes through unchanged.
// Concrete adapters (internal/venue) satisfy this by converting their
// venue-specific wire shapes into these domain types at the edge.
type Exchange interface {
	MarketDataFeed
	Ticker(ctx context.Context) (Ticker, error)
	Candles(ctx context.Context, interval string) ([]Candle, error)
}
