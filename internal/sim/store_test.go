package sim

import (
	"strconv"
	"testing"

	"github.com/arborfi/simtrade/internal/fixed"
)

func TestNewIDMonotonicAndUnique(t *testing.T) {
	store := NewStore(fixed.Zero, fixed.Zero)

	seen := map[string]bool{}
	var prev int64 = -1
	for i := 0; i < 50; i++ {
		id := store.NewID()
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true

		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			t.Fatalf("id %q is not decimal: %v", id, err)
		}
		if n <= prev {
			t.Fatalf("id %d did not strictly increase from %d", n, prev)
		}
		prev = n
	}
}

func TestAddLimitOrderBidReservesCurrency(t *testing.T) {
	store := NewStore(mustD(t, 1000), fixed.Zero)

	ok := store.AddLimitOrder(PendingLimitOrder{ID: "1", Side: Bid, Volume: mustD(t, 5), UnitPrice: mustD(t, 12)})
	if !ok {
		t.Fatalf("expected order to be accepted")
	}

	bal := store.Snapshot()
	want := mustD(t, 940)
	if !bal.CurrencyBalance.Eq(want) {
		t.Fatalf("currency balance = %s, want %s", bal.CurrencyBalance, want)
	}
	if !bal.CommodityBalance.IsZero() {
		t.Fatalf("commodity balance should be unaffected by a BID reservation")
	}
	if len(bal.PendingLimitOrders) != 1 {
		t.Fatalf("expected one pending limit order, got %d", len(bal.PendingLimitOrders))
	}
}

func TestAddLimitOrderInsufficientBalanceLeavesStateUnchanged(t *testing.T) {
	store := NewStore(mustD(t, 10), fixed.Zero)

	ok := store.AddLimitOrder(PendingLimitOrder{ID: "1", Side: Bid, Volume: mustD(t, 2), UnitPrice: mustD(t, 10)})
	if ok {
		t.Fatalf("expected insufficient balance to reject the order")
	}

	bal := store.Snapshot()
	if !bal.CurrencyBalance.Eq(mustD(t, 10)) {
		t.Fatalf("currency balance should be untouched, got %s", bal.CurrencyBalance)
	}
	if len(bal.PendingLimitOrders) != 0 {
		t.Fatalf("expected no pending orders after rejection")
	}
}

func TestCancelLimitOrderRefundsAndIsIdempotent(t *testing.T) {
	store := NewStore(mustD(t, 1000), fixed.Zero)
	store.AddLimitOrder(PendingLimitOrder{ID: "1", Side: Bid, Volume: mustD(t, 5), UnitPrice: mustD(t, 12)})

	store.CancelLimitOrder("1")
	bal := store.Snapshot()
	if !bal.CurrencyBalance.Eq(mustD(t, 1000)) {
		t.Fatalf("currency balance after cancel = %s, want 1000", bal.CurrencyBalance)
	}
	if len(bal.PendingLimitOrders) != 0 {
		t.Fatalf("expected order to be removed")
	}

	// Cancelling again is a silent no-op, not an error.
	store.CancelLimitOrder("1")
	bal2 := store.Snapshot()
	if !bal2.CurrencyBalance.Eq(bal.CurrencyBalance) {
		t.Fatalf("second cancel mutated balance: %s vs %s", bal2.CurrencyBalance, bal.CurrencyBalance)
	}
}

func TestCancelUnknownIDIsNoOp(t *testing.T) {
	store := NewStore(mustD(t, 100), fixed.Zero)
	store.CancelLimitOrder("does-not-exist")

	bal := store.Snapshot()
	if !bal.CurrencyBalance.Eq(mustD(t, 100)) {
		t.Fatalf("balance should be untouched by cancelling an unknown id")
	}
}

func TestAddLimitOrderAskReservesCommodity(t *testing.T) {
	store := NewStore(fixed.Zero, mustD(t, 10))

	ok := store.AddLimitOrder(PendingLimitOrder{ID: "1", Side: Ask, Volume: mustD(t, 10), UnitPrice: mustD(t, 9)})
	if !ok {
		t.Fatalf("expected order to be accepted")
	}
	bal := store.Snapshot()
	if !bal.CommodityBalance.IsZero() {
		t.Fatalf("commodity balance = %s, want 0", bal.CommodityBalance)
	}
}
