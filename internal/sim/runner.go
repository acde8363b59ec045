package sim

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MatchObserver is notified after every committed matching cycle. The audit
// ledger (internal/audit) implements this to persist fills; it is optional
// and a nil observer is a valid Runner configuration. marketFilled reports,
// per pending market order ID present in before, whether it filled (true)
// or was refunded (false); it is empty when before had no pending market
// orders.
type MatchObserver interface {
	ObserveCycle(before, after SimState, marketFilled map[string]bool)
}

// Runner is the single background worker that periodically pulls book and
// trade data from the wrapped exchange and drives the matching engine
// against the Store. Creating a Runner starts the worker; cancelling its
// context stops it promptly.
type Runner struct {
	store      *Store
	feed       MarketDataFeed
	cycleDelay time.Duration
	logger     *zap.Logger
	observer   MatchObserver

	group  *errgroup.Group
	cancel context.CancelFunc
}

// StartRunner launches the background matching loop and returns
// immediately; the loop runs until its context is cancelled via Stop.
func StartRunner(parent context.Context, store *Store, feed MarketDataFeed, cycleDelay time.Duration, logger *zap.Logger, observer MatchObserver) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(parent)
	group, ctx := errgroup.WithContext(ctx)

	r := &Runner{
		store:      store,
		feed:       feed,
		cycleDelay: cycleDelay,
		logger:     logger,
		observer:   observer,
		group:      group,
		cancel:     cancel,
	}

	group.Go(func() error {
		r.loop(ctx)
		return nil
	})

	return r
}

// Stop cancels the background loop and blocks until it has returned. Any
// exchange request in flight when Stop is called may still complete in the
// background, but its result will not mutate state: the loop checks
// ctx.Err() before committing.
func (r *Runner) Stop() {
	r.cancel()
	_ = r.group.Wait()
}

func (r *Runner) loop(ctx context.Context) {
	for {
		r.runCycle(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(r.cycleDelay):
		}
	}
}

func (r *Runner) runCycle(ctx context.Context) {
	before := r.store.Snapshot()

	if len(before.PendingLimitOrders) > 0 || len(before.PendingMarketOrders) > 0 {
		book, trades, err := r.fetchMarketData(ctx)
		if err != nil {
			r.logger.Warn("matching cycle skipped: upstream fetch failed", zap.Error(err))
		} else if ctx.Err() == nil {
			var cycleBefore, cycleAfter SimState
			r.store.ComputeAndCommit(func(state SimState) SimState {
				cycleBefore = state
				cycleAfter = RunMatchingCycle(book, trades, state)
				return cycleAfter
			})
			if r.observer != nil {
				effective := synthesizeBook(book, trades, watermarkFor(cycleBefore))
				marketFilled := ClassifyMarketOrders(effective, cycleBefore.PendingMarketOrders)
				r.observer.ObserveCycle(cycleBefore, cycleAfter, marketFilled)
			}
			r.logger.Debug("matching cycle committed",
				zap.Int("pending_limit", len(before.PendingLimitOrders)),
				zap.Int("pending_market", len(before.PendingMarketOrders)))
		}
	}

	// Regardless of whether a matching transition happened this cycle, bump
	// the watermark to the current wall clock so the next cycle's trade
	// filter starts fresh. Skipped if we're already shutting down, so a
	// cancelled cycle never mutates state after Stop was called.
	if ctx.Err() != nil {
		return
	}
	now := time.Now().UnixMilli()
	r.store.ComputeAndCommit(func(state SimState) SimState {
		state.UpdatedUtcMs = now
		return state
	})
}

func (r *Runner) fetchMarketData(ctx context.Context) (OrderBook, []Trade, error) {
	book, err := r.feed.OrderBook(ctx)
	if err != nil {
		return OrderBook{}, nil, fmt.Errorf("%w: order book: %v", ErrUpstream, err)
	}
	trades, err := r.feed.TradeHistory(ctx)
	if err != nil {
		return OrderBook{}, nil, fmt.Errorf("%w: trade history: %v", ErrUpstream, err)
	}
	return book, trades, nil
}
