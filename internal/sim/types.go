// Package sim implements the simulated spot-trading exchange adapter: an
// in-memory account and pending-order store, a matching engine that sweeps
// it against an observed order book, and the facade clients call into.
package sim

import "github.com/arborfi/simtrade/internal/fixed"

// Side is the side of an order or trade from the placer's perspective.
type Side int

const (
	Bid Side = iota // buy commodity
	Ask             // sell commodity
)

func (s Side) String() string {
	if s == Bid {
		return "BID"
	}
	return "ASK"
}

// OrderBookEntry is one price level: a non-negative price and volume.
type OrderBookEntry struct {
	Price  fixed.D
	Volume fixed.D
}

// OrderBook is a snapshot of resting bids and asks observed at a venue.
// Order within each slice is arbitrary at ingress; the pricing calculator
// sorts on demand.
type OrderBook struct {
	Bids []OrderBookEntry
	Asks []OrderBookEntry
}

// Trade is one recently printed trade observed at the venue.
type Trade struct {
	TimestampMs int64 // 0 means absent
	Side        Side
	UnitPrice   fixed.D
	Volume      fixed.D
}

// PendingLimitOrder rests until it fills against the observed book or is
// cancelled.
type PendingLimitOrder struct {
	ID          string
	Side        Side
	TimestampMs int64
	Volume      fixed.D // commodity units
	UnitPrice   fixed.D // currency per commodity unit
}

// PendingMarketOrder executes at whatever price the observed book offers.
// Amount is currency to spend for a BID, commodity to sell for an ASK.
type PendingMarketOrder struct {
	ID          string
	Side        Side
	TimestampMs int64
	Amount      fixed.D
}

// Order is the public projection of a PendingLimitOrder returned by
// CurrentOpenOrders.
type Order struct {
	ID          string
	Side        Side
	TimestampMs int64
	Volume      fixed.D
	UnitPrice   fixed.D
}

// Balances is a read-only view of the account's currency and commodity
// holdings.
type Balances struct {
	Currency  fixed.D
	Commodity fixed.D
}

// SimState is the central aggregate: the sole source of truth for balances
// and pending orders. It is always handled by value through the Store so
// every transition is an atomic swap; see store.go.
type SimState struct {
	IDGen               int64
	UpdatedUtcMs        int64
	CurrencyBalance     fixed.D
	CommodityBalance    fixed.D
	PendingLimitOrders  []PendingLimitOrder
	PendingMarketOrders []PendingMarketOrder
}
