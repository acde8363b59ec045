// Package audit persists matched fills to Postgres for post-hoc analysis of
// a simulation run. It is a side sink, not a source of truth: SimState
// itself is never reconstructed from the ledger on startup.
package audit

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/arborfi/simtrade/internal/sim"
)

// NewPool opens a connection pool from the DATABASE_URL environment
// variable, matching the teacher's db.NewPool.
func NewPool(ctx context.Context) (*pgxpool.Pool, error) {
	url := os.Getenv("DATABASE_URL")
	return pgxpool.New(ctx, url)
}

// Ledger implements sim.MatchObserver by writing one row per filled order
// to the "fills" table whenever a matching cycle removes an order from the
// pending queues. Market orders refunded for lack of depth get no row.
type Ledger struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewLedger wraps an existing pool. A nil pool makes the ledger a no-op.
func NewLedger(pool *pgxpool.Pool, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{pool: pool, logger: logger}
}

// ObserveCycle diffs the pending queues before and after a matching cycle
// and records every settled order as a fill. Diffing, rather than having
// the matcher report fills directly, keeps RunMatchingCycle a pure
// function with no observer plumbing of its own. A limit order leaving the
// queue is always a fill. A market order leaving the queue may instead be
// a refund (the book was too thin to absorb it) — marketFilled, computed
// by sim.ClassifyMarketOrders against the same book the cycle matched
// against, tells the two apart so refunds are never recorded as fills.
func (l *Ledger) ObserveCycle(before, after sim.SimState, marketFilled map[string]bool) {
	if l.pool == nil {
		return
	}

	ctx := context.Background()
	settledLimit := diffLimit(before.PendingLimitOrders, after.PendingLimitOrders)
	settledMarket := filledMarketOrders(diffMarket(before.PendingMarketOrders, after.PendingMarketOrders), marketFilled)
	if len(settledLimit) == 0 && len(settledMarket) == 0 {
		return
	}

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		l.logger.Warn("audit: begin tx failed", zap.Error(err))
		return
	}

	for _, o := range settledLimit {
		if err := insertFill(ctx, tx, o.ID, o.Side, o.Volume.String(), o.UnitPrice.String()); err != nil {
			l.logger.Warn("audit: insert limit fill failed", zap.Error(err))
			_ = tx.Rollback(ctx)
			return
		}
	}
	for _, o := range settledMarket {
		if err := insertFill(ctx, tx, o.ID, o.Side, o.Amount.String(), o.Amount.String()); err != nil {
			l.logger.Warn("audit: insert market fill failed", zap.Error(err))
			_ = tx.Rollback(ctx)
			return
		}
	}

	if err := tx.Commit(ctx); err != nil {
		l.logger.Warn("audit: commit failed", zap.Error(err))
	}
}

// filledMarketOrders narrows settled (queue-left) market orders down to
// the ones marketFilled reports as an actual fill, dropping refunds. An
// order absent from marketFilled (nil map, or a caller that never
// classified it) is treated as not a fill: better to miss an audit row
// than to record a refund as one.
func filledMarketOrders(settled []sim.PendingMarketOrder, marketFilled map[string]bool) []sim.PendingMarketOrder {
	out := make([]sim.PendingMarketOrder, 0, len(settled))
	for _, o := range settled {
		if marketFilled[o.ID] {
			out = append(out, o)
		}
	}
	return out
}

func insertFill(ctx context.Context, tx pgx.Tx, orderID string, side sim.Side, volume, price string) error {
	id, err := uuid.NewRandom()
	if err != nil {
		return fmt.Errorf("new fill id: %w", err)
	}
	var pgID pgtype.UUID
	pgID.Valid = true
	pgID.Bytes = id

	var volNum, priceNum pgtype.Numeric
	if err := volNum.Scan(volume); err != nil {
		return fmt.Errorf("audit: numeric volume %q: %w", volume, err)
	}
	if err := priceNum.Scan(price); err != nil {
		return fmt.Errorf("audit: numeric price %q: %w", price, err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO fills (id, order_id, side, volume, price) VALUES ($1, $2, $3, $4, $5)`,
		pgID, orderID, side.String(), volNum, priceNum)
	return err
}

func diffLimit(before, after []sim.PendingLimitOrder) []sim.PendingLimitOrder {
	stillOpen := make(map[string]bool, len(after))
	for _, o := range after {
		stillOpen[o.ID] = true
	}
	var settled []sim.PendingLimitOrder
	for _, o := range before {
		if !stillOpen[o.ID] {
			settled = append(settled, o)
		}
	}
	return settled
}

func diffMarket(before, after []sim.PendingMarketOrder) []sim.PendingMarketOrder {
	stillOpen := make(map[string]bool, len(after))
	for _, o := range after {
		stillOpen[o.ID] = true
	}
	var settled []sim.PendingMarketOrder
	for _, o := range before {
		if !stillOpen[o.ID] {
			settled = append(settled, o)
		}
	}
	return settled
}
