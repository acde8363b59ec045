package sim

import (
	"context"
	"testing"
	"time"
)

type countingObserver struct {
	cycles int
}

func (o *countingObserver) ObserveCycle(before, after SimState, marketFilled map[string]bool) {
	o.cycles++
}

func TestRunnerMatchesPendingOrderAgainstObservedBook(t *testing.T) {
	ex := &fakeExchange{book: OrderBook{Asks: []OrderBookEntry{entry(t, 10, 5)}}}
	store := NewStore(mustD(t, 1000), fixedZero)

	obs := &countingObserver{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := StartRunner(ctx, store, ex, 10*time.Millisecond, nil, obs)
	defer runner.Stop()

	store.AddLimitOrder(PendingLimitOrder{ID: store.NewID(), Side: Bid, TimestampMs: time.Now().UnixMilli(), Volume: mustD(t, 5), UnitPrice: mustD(t, 12)})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(store.Snapshot().PendingLimitOrders) == 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	final := store.Snapshot()
	if len(final.PendingLimitOrders) != 0 {
		t.Fatalf("expected the order to fill, still pending: %+v", final.PendingLimitOrders)
	}
	if !final.CommodityBalance.Eq(mustD(t, 5)) {
		t.Fatalf("commodity balance = %s, want 5", final.CommodityBalance)
	}
	if !final.CurrencyBalance.Eq(mustD(t, 950)) {
		t.Fatalf("currency balance = %s, want 950 (refund 60-50)", final.CurrencyBalance)
	}
	if ex.calls == 0 {
		t.Fatalf("expected the runner to have fetched the order book at least once")
	}
}

func TestRunnerSkipsCycleOnUpstreamError(t *testing.T) {
	ex := &fakeExchange{bookErr: context.DeadlineExceeded}
	store := NewStore(mustD(t, 1000), fixedZero)
	store.AddLimitOrder(PendingLimitOrder{ID: store.NewID(), Side: Bid, TimestampMs: time.Now().UnixMilli(), Volume: mustD(t, 5), UnitPrice: mustD(t, 12)})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := StartRunner(ctx, store, ex, 10*time.Millisecond, nil, nil)
	defer runner.Stop()

	time.Sleep(50 * time.Millisecond)

	final := store.Snapshot()
	if len(final.PendingLimitOrders) != 1 {
		t.Fatalf("expected the order to remain pending after upstream failures, got %d", len(final.PendingLimitOrders))
	}
	if !final.CurrencyBalance.Eq(mustD(t, 940)) {
		t.Fatalf("balance should be unaffected by a skipped cycle, got %s", final.CurrencyBalance)
	}
}

func TestRunnerStopReturnsPromptly(t *testing.T) {
	ex := &fakeExchange{}
	store := NewStore(fixedZero, fixedZero)

	ctx := context.Background()
	runner := StartRunner(ctx, store, ex, time.Hour, nil, nil)

	done := make(chan struct{})
	go func() {
		runner.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Stop did not return promptly")
	}
}

