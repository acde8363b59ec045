package sim

import (
	"testing"

	"github.com/arborfi/simtrade/internal/fixed"
)

func mustD(t *testing.T, v float64) fixed.D {
	t.Helper()
	d, err := fixed.FromFloat64(v)
	if err != nil {
		t.Fatalf("fixed.FromFloat64(%v): %v", v, err)
	}
	return d
}

func entry(t *testing.T, price, volume float64) OrderBookEntry {
	return OrderBookEntry{Price: mustD(t, price), Volume: mustD(t, volume)}
}

func TestPriceToBuySweepsAscending(t *testing.T) {
	book := OrderBook{Asks: []OrderBookEntry{
		entry(t, 11, 2),
		entry(t, 10, 5),
	}}

	got, ok := priceToBuy(mustD(t, 6), book)
	if !ok {
		t.Fatalf("expected a price, got absent")
	}
	// 5 @ 10 + 1 @ 11 = 61
	want := mustD(t, 61)
	if !got.Eq(want) {
		t.Fatalf("priceToBuy = %s, want %s", got, want)
	}
}

func TestPriceToBuyThinBookIsAbsent(t *testing.T) {
	book := OrderBook{Asks: []OrderBookEntry{entry(t, 10, 5)}}

	_, ok := priceToBuy(mustD(t, 10), book)
	if ok {
		t.Fatalf("expected absent for a book thinner than the request")
	}
}

func TestPriceToBuyZeroVolumeIsZero(t *testing.T) {
	book := OrderBook{Asks: []OrderBookEntry{entry(t, 10, 5)}}

	got, ok := priceToBuy(fixed.Zero, book)
	if !ok {
		t.Fatalf("expected a price for zero volume")
	}
	if !got.IsZero() {
		t.Fatalf("priceToBuy(0) = %s, want 0", got)
	}
}

func TestPriceToSellSweepsDescending(t *testing.T) {
	book := OrderBook{Bids: []OrderBookEntry{
		entry(t, 8, 5),
		entry(t, 9, 5),
	}}

	got, ok := priceToSell(mustD(t, 7), book)
	if !ok {
		t.Fatalf("expected a price, got absent")
	}
	// 5 @ 9 + 2 @ 8 = 61
	want := mustD(t, 61)
	if !got.Eq(want) {
		t.Fatalf("priceToSell = %s, want %s", got, want)
	}
}

func TestZeroVolumeLevelsAreSkipped(t *testing.T) {
	book := OrderBook{Asks: []OrderBookEntry{
		entry(t, 5, 0),
		entry(t, 10, 5),
	}}

	got, ok := priceToBuy(mustD(t, 5), book)
	if !ok {
		t.Fatalf("expected a price, got absent")
	}
	want := mustD(t, 50)
	if !got.Eq(want) {
		t.Fatalf("priceToBuy = %s, want %s", got, want)
	}
}

func TestVolumeBuyableForSweepsAndConverts(t *testing.T) {
	book := OrderBook{Asks: []OrderBookEntry{
		entry(t, 1, 10), // notional 10
		entry(t, 2, 10), // notional 20
	}}

	got, ok := volumeBuyableFor(mustD(t, 15), book)
	if !ok {
		t.Fatalf("expected a volume, got absent")
	}
	// 10 @ 1 spends 10 for 10 units, remaining 5 @ 2 buys 2.5 units
	want := mustD(t, 12.5)
	if !got.Eq(want) {
		t.Fatalf("volumeBuyableFor = %s, want %s", got, want)
	}
}

func TestVolumeBuyableForThinBookIsAbsent(t *testing.T) {
	book := OrderBook{Asks: []OrderBookEntry{entry(t, 1, 10)}}

	_, ok := volumeBuyableFor(mustD(t, 100), book)
	if ok {
		t.Fatalf("expected absent: book notional is only 10")
	}
}
