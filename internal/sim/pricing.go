package sim

import (
	"sort"

	"github.com/arborfi/simtrade/internal/fixed"
)

// sortedAsks returns book.Asks sorted ascending by price, cheapest first.
func sortedAsks(book OrderBook) []OrderBookEntry {
	asks := append([]OrderBookEntry(nil), book.Asks...)
	sort.Slice(asks, func(i, j int) bool { return asks[i].Price.Lt(asks[j].Price) })
	return asks
}

// sortedBidsDesc returns book.Bids sorted descending by price, richest first.
func sortedBidsDesc(book OrderBook) []OrderBookEntry {
	bids := append([]OrderBookEntry(nil), book.Bids...)
	sort.Slice(bids, func(i, j int) bool { return bids[i].Price.Gt(bids[j].Price) })
	return bids
}

// priceToBuy sweeps the ask side ascending and returns the total currency
// cost to acquire volume units of commodity, or absent if the book is too
// thin to fill the whole request.
func priceToBuy(volume fixed.D, book OrderBook) (fixed.D, bool) {
	remaining := volume
	total := fixed.Zero

	for _, level := range sortedAsks(book) {
		if remaining.IsZero() {
			break
		}
		if level.Volume.IsZero() {
			continue
		}
		consumed := remaining.Min(level.Volume)
		total = total.Add(consumed.Mul(level.Price))
		remaining = remaining.Sub(consumed)
	}

	if !remaining.IsZero() {
		return fixed.Zero, false
	}
	return total, true
}

// priceToSell sweeps the bid side descending and returns the total currency
// proceeds from selling volume units of commodity, or absent if too thin.
func priceToSell(volume fixed.D, book OrderBook) (fixed.D, bool) {
	remaining := volume
	total := fixed.Zero

	for _, level := range sortedBidsDesc(book) {
		if remaining.IsZero() {
			break
		}
		if level.Volume.IsZero() {
			continue
		}
		consumed := remaining.Min(level.Volume)
		total = total.Add(consumed.Mul(level.Price))
		remaining = remaining.Sub(consumed)
	}

	if !remaining.IsZero() {
		return fixed.Zero, false
	}
	return total, true
}

// volumeBuyableFor sweeps the ask side ascending and returns how much
// commodity `amount` currency can buy, or absent if the book is too thin to
// absorb the whole amount.
func volumeBuyableFor(amount fixed.D, book OrderBook) (fixed.D, bool) {
	remaining := amount
	total := fixed.Zero

	for _, level := range sortedAsks(book) {
		if !remaining.Gt(fixed.Zero) {
			break
		}
		if level.Volume.IsZero() || level.Price.IsZero() {
			continue
		}
		levelCost := level.Price.Mul(level.Volume)
		paid := remaining.Min(levelCost)
		total = total.Add(paid.Div(level.Price))
		remaining = remaining.Sub(paid)
	}

	if remaining.Gt(fixed.Zero) {
		return fixed.Zero, false
	}
	return total, true
}
