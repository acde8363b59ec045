package sim

import (
	"sort"
	"strconv"

	"github.com/arborfi/simtrade/internal/fixed"
)

// RunMatchingCycle is the matching engine: given a freshly observed book,
// recent trades and the current state, it produces the next state by
// attempting to satisfy every pending order against the observed depth.
// It is pure and side-effect free so it can be handed directly to
// Store.ComputeAndCommit.
func RunMatchingCycle(book OrderBook, trades []Trade, state SimState) SimState {
	watermark := watermarkFor(state)
	effective := synthesizeBook(book, trades, watermark)
	working := newWorkingBook(effective)

	state = settleMarketOrders(working, state)
	state = settleLimitOrders(working, state)

	state.UpdatedUtcMs = watermark
	return state
}

// watermarkFor computes the cutoff below which recent trades are ignored as
// already accounted for by a previous matching cycle.
func watermarkFor(state SimState) int64 {
	earliestLimit := earliestTimestamp(limitTimestamps(state.PendingLimitOrders), state.UpdatedUtcMs)
	earliestMarket := earliestTimestamp(marketTimestamps(state.PendingMarketOrders), state.UpdatedUtcMs)

	minEarliest := earliestLimit
	if earliestMarket < minEarliest {
		minEarliest = earliestMarket
	}

	if state.UpdatedUtcMs > minEarliest {
		return state.UpdatedUtcMs
	}
	return minEarliest
}

func limitTimestamps(orders []PendingLimitOrder) []int64 {
	ts := make([]int64, len(orders))
	for i, o := range orders {
		ts[i] = o.TimestampMs
	}
	return ts
}

func marketTimestamps(orders []PendingMarketOrder) []int64 {
	ts := make([]int64, len(orders))
	for i, o := range orders {
		ts[i] = o.TimestampMs
	}
	return ts
}

func earliestTimestamp(ts []int64, fallback int64) int64 {
	if len(ts) == 0 {
		return fallback
	}
	min := ts[0]
	for _, t := range ts[1:] {
		if t < min {
			min = t
		}
	}
	return min
}

// synthesizeBook folds recently printed trades newer than watermark into the
// observed book as additional depth: a trade that printed represents
// counterparty willingness at that level, available again this cycle.
func synthesizeBook(book OrderBook, trades []Trade, watermark int64) OrderBook {
	out := OrderBook{
		Bids: append([]OrderBookEntry(nil), book.Bids...),
		Asks: append([]OrderBookEntry(nil), book.Asks...),
	}
	for _, tr := range trades {
		if tr.TimestampMs <= watermark {
			continue
		}
		syn := OrderBookEntry{Price: tr.UnitPrice, Volume: tr.Volume}
		switch tr.Side {
		case Bid:
			out.Bids = append(out.Bids, syn)
		case Ask:
			out.Asks = append(out.Asks, syn)
		}
	}
	return out
}

// byIDDescending sorts anything with a decimal-text ID newest first. IDs
// that fail to parse sort last; newID always produces parseable IDs, so
// this only matters for orders constructed outside the normal path (tests).
func byIDDescending(ids []string) []int {
	idx := make([]int, len(ids))
	val := make([]int64, len(ids))
	for i, id := range ids {
		idx[i] = i
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			n = -1 << 62
		}
		val[i] = n
	}
	sort.Slice(idx, func(a, b int) bool { return val[idx[a]] > val[idx[b]] })
	return idx
}

// settleMarketOrders processes every pending market order, newest first,
// against book, consuming its depth in place so the limit-order sweep that
// follows sees the same depleted book. Every order leaves the queue: it
// either settles or is refunded if the book is too thin to absorb it.
func settleMarketOrders(book *workingBook, state SimState) SimState {
	orders := state.PendingMarketOrders
	if len(orders) == 0 {
		return state
	}

	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}

	for _, i := range byIDDescending(ids) {
		order := orders[i]
		switch order.Side {
		case Bid:
			v, ok := volumeBuyableFor(order.Amount, book.snapshot())
			if ok {
				state.CommodityBalance = state.CommodityBalance.Add(v)
				book.consumeAsksNotional(order.Amount)
			} else {
				state.CurrencyBalance = state.CurrencyBalance.Add(order.Amount)
			}
		case Ask:
			p, ok := priceToSell(order.Amount, book.snapshot())
			if ok {
				state.CurrencyBalance = state.CurrencyBalance.Add(p)
				book.consumeBids(order.Amount)
			} else {
				state.CommodityBalance = state.CommodityBalance.Add(order.Amount)
			}
		}
	}

	state.PendingMarketOrders = nil
	return state
}

// settleLimitOrders processes every pending limit order, newest first,
// against book, which already reflects whatever depth settleMarketOrders
// consumed earlier in the same cycle. An order that cannot clear within its
// limit price stays resting, still reserved.
func settleLimitOrders(book *workingBook, state SimState) SimState {
	orders := state.PendingLimitOrders
	if len(orders) == 0 {
		return state
	}

	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}

	kept := make([]PendingLimitOrder, 0, len(orders))
	filled := make(map[string]bool, len(orders))

	for _, i := range byIDDescending(ids) {
		order := orders[i]
		switch order.Side {
		case Bid:
			maxCost := order.Volume.Mul(order.UnitPrice)
			cost, ok := priceToBuy(order.Volume, book.snapshot())
			if ok && !cost.Gt(maxCost) {
				state.CommodityBalance = state.CommodityBalance.Add(order.Volume)
				state.CurrencyBalance = state.CurrencyBalance.Add(maxCost.Sub(cost))
				book.consumeAsks(order.Volume)
				filled[order.ID] = true
			}
		case Ask:
			minProceeds := order.Volume.Mul(order.UnitPrice)
			proceeds, ok := priceToSell(order.Volume, book.snapshot())
			if ok && !proceeds.Lt(minProceeds) {
				state.CurrencyBalance = state.CurrencyBalance.Add(proceeds)
				book.consumeBids(order.Volume)
				filled[order.ID] = true
			}
		}
	}

	for _, o := range orders {
		if !filled[o.ID] {
			kept = append(kept, o)
		}
	}
	state.PendingLimitOrders = kept
	return state
}

// ClassifyMarketOrders reports, for each pending market order, whether it
// would fill against book (true) or be refunded for lack of depth (false).
// It makes the same decision settleMarketOrders does, exposed so observers
// outside the pure transformer (internal/audit) can tell a fill from a
// refund instead of inferring it from a queue diff that sees both as "the
// order left the queue."
func ClassifyMarketOrders(book OrderBook, orders []PendingMarketOrder) map[string]bool {
	filled := make(map[string]bool, len(orders))
	if len(orders) == 0 {
		return filled
	}

	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	working := newWorkingBook(book)

	for _, i := range byIDDescending(ids) {
		order := orders[i]
		switch order.Side {
		case Bid:
			_, ok := volumeBuyableFor(order.Amount, working.snapshot())
			filled[order.ID] = ok
			if ok {
				working.consumeAsksNotional(order.Amount)
			}
		case Ask:
			_, ok := priceToSell(order.Amount, working.snapshot())
			filled[order.ID] = ok
			if ok {
				working.consumeBids(order.Amount)
			}
		}
	}
	return filled
}

// workingBook is the engine's mutable view of the effective book: as orders
// fill within a cycle, the levels they consumed are no longer available to
// the next order in the same cycle. The pure pricing calculator functions
// remain the source of truth for pricing a sweep; workingBook only tracks
// how much depth has already been spent.
type workingBook struct {
	asks []OrderBookEntry // ascending
	bids []OrderBookEntry // descending
}

func newWorkingBook(book OrderBook) *workingBook {
	return &workingBook{asks: sortedAsks(book), bids: sortedBidsDesc(book)}
}

func (w *workingBook) snapshot() OrderBook {
	return OrderBook{Asks: w.asks, Bids: w.bids}
}

func (w *workingBook) consumeAsks(volume fixed.D) {
	w.asks = consumeLevels(w.asks, volume)
}

func (w *workingBook) consumeBids(volume fixed.D) {
	w.bids = consumeLevels(w.bids, volume)
}

// consumeAsksNotional consumes ask-side depth by currency amount rather
// than commodity volume, mirroring volumeBuyableFor's cost-based sweep.
func (w *workingBook) consumeAsksNotional(amount fixed.D) {
	remaining := amount
	out := make([]OrderBookEntry, 0, len(w.asks))
	for _, lvl := range w.asks {
		if !remaining.Gt(fixed.Zero) || lvl.Volume.IsZero() || lvl.Price.IsZero() {
			out = append(out, lvl)
			continue
		}
		levelCost := lvl.Price.Mul(lvl.Volume)
		paid := remaining.Min(levelCost)
		lvl.Volume = lvl.Volume.Sub(paid.Div(lvl.Price))
		remaining = remaining.Sub(paid)
		out = append(out, lvl)
	}
	w.asks = out
}

func consumeLevels(levels []OrderBookEntry, volume fixed.D) []OrderBookEntry {
	remaining := volume
	out := make([]OrderBookEntry, 0, len(levels))
	for _, lvl := range levels {
		if remaining.IsZero() || lvl.Volume.IsZero() {
			out = append(out, lvl)
			continue
		}
		take := remaining.Min(lvl.Volume)
		lvl.Volume = lvl.Volume.Sub(take)
		remaining = remaining.Sub(take)
		out = append(out, lvl)
	}
	return out
}
