package sim

import "errors"

// ErrInsufficientBalance is returned by PlaceLimitOrder/PlaceMarketOrder
// when the reserved side lacks sufficient balance. It is non-fatal: the
// client may retry with a smaller size.
var ErrInsufficientBalance = errors.New("simtrade: insufficient balance")

// ErrUpstream wraps a failure from a pass-through market-data call
// (Ticker, Candles, OrderBook, TradeHistory) at the wrapped exchange. The
// Runner never surfaces this to clients: a failed matching-cycle fetch is
// swallowed and the cycle is skipped.
var ErrUpstream = errors.New("simtrade: upstream error")
