// simbench manually drives the matching engine against a fixed, in-memory
// book with no network or background worker involved — a tiny smoke test
// in the same spirit as the teacher's cmd/engine demo.
package main

import (
	"fmt"

	"github.com/arborfi/simtrade/internal/fixed"
	"github.com/arborfi/simtrade/internal/sim"
)

func main() {
	currency, _ := fixed.FromFloat64(1000)
	store := sim.NewStore(currency, fixed.Zero)

	price, _ := fixed.FromFloat64(10)
	volume, _ := fixed.FromFloat64(5)
	limit, _ := fixed.FromFloat64(12)

	store.AddLimitOrder(sim.PendingLimitOrder{
		ID:        store.NewID(),
		Side:      sim.Bid,
		Volume:    volume,
		UnitPrice: limit,
	})

	book := sim.OrderBook{Asks: []sim.OrderBookEntry{{Price: price, Volume: volume}}}

	store.ComputeAndCommit(func(state sim.SimState) sim.SimState {
		return sim.RunMatchingCycle(book, nil, state)
	})

	final := store.Snapshot()
	fmt.Printf("currency=%s commodity=%s open_orders=%d\n",
		final.CurrencyBalance, final.CommodityBalance, len(final.PendingLimitOrders))
}
