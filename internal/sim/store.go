package sim

import (
	"strconv"
	"sync"
	"time"

	"github.com/arborfi/simtrade/internal/fixed"
)

// Store holds the SimState behind a single serialising mutex. Every
// transition is applied as one atomic swap: callers never observe a
// partially-applied change, and transitions take effect in a total order
// consistent with each caller's program order.
type Store struct {
	mu    sync.Mutex
	state SimState
}

// NewStore creates a Store with the given starting endowment. idGen is
// seeded from wall-clock seconds so IDs issued across process restarts do
// not collide with a prior run's in-flight orders.
func NewStore(currencyBalance, commodityBalance fixed.D) *Store {
	now := time.Now().Unix()
	return &Store{
		state: SimState{
			IDGen:            now,
			UpdatedUtcMs:     time.Now().UnixMilli(),
			CurrencyBalance:  currencyBalance,
			CommodityBalance: commodityBalance,
		},
	}
}

func cloneState(s SimState) SimState {
	s.PendingLimitOrders = append([]PendingLimitOrder(nil), s.PendingLimitOrders...)
	s.PendingMarketOrders = append([]PendingMarketOrder(nil), s.PendingMarketOrders...)
	return s
}

// Snapshot returns a copy of the current state, safe for the caller to read
// without affecting the store.
func (s *Store) Snapshot() SimState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneState(s.state)
}

// ComputeAndCommit applies a pure state transformer atomically. f must not
// call back into the Store.
func (s *Store) ComputeAndCommit(f func(SimState) SimState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = f(cloneState(s.state))
}

// ComputeAndCommitWithResult applies a pure state transformer atomically and
// returns an auxiliary result alongside committing the new state.
func ComputeAndCommitWithResult[A any](s *Store, f func(SimState) (A, SimState)) A {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, next := f(cloneState(s.state))
	s.state = next
	return a
}

// NewID allocates the next monotonically increasing order ID, rendered as
// decimal text.
func (s *Store) NewID() string {
	return ComputeAndCommitWithResult(s, func(state SimState) (string, SimState) {
		state.IDGen++
		return strconv.FormatInt(state.IDGen, 10), state
	})
}

// AddLimitOrder reserves the order's committed side and appends it to the
// pending limit queue. It returns false, leaving state unchanged, if the
// reserved side lacks sufficient balance.
func (s *Store) AddLimitOrder(order PendingLimitOrder) bool {
	return ComputeAndCommitWithResult(s, func(state SimState) (bool, SimState) {
		return addLimitOrder(state, order)
	})
}

// AddMarketOrder reserves order.Amount from the committed side and appends
// it to the pending market queue. It returns false, leaving state
// unchanged, if the reserved side lacks sufficient balance.
func (s *Store) AddMarketOrder(order PendingMarketOrder) bool {
	return ComputeAndCommitWithResult(s, func(state SimState) (bool, SimState) {
		return addMarketOrder(state, order)
	})
}

// CancelLimitOrder removes the pending limit order with the given ID and
// refunds its reservation. Cancelling an unknown ID is a silent no-op.
// Market orders are not cancellable in this design.
func (s *Store) CancelLimitOrder(id string) {
	s.ComputeAndCommit(func(state SimState) SimState {
		return cancelLimitOrder(state, id)
	})
}

func addLimitOrder(state SimState, order PendingLimitOrder) (bool, SimState) {
	switch order.Side {
	case Bid:
		cost := order.Volume.Mul(order.UnitPrice)
		if state.CurrencyBalance.Lt(cost) {
			return false, state
		}
		state.CurrencyBalance = state.CurrencyBalance.Sub(cost)
	case Ask:
		if state.CommodityBalance.Lt(order.Volume) {
			return false, state
		}
		state.CommodityBalance = state.CommodityBalance.Sub(order.Volume)
	}
	state.PendingLimitOrders = append(append([]PendingLimitOrder(nil), state.PendingLimitOrders...), order)
	return true, state
}

func addMarketOrder(state SimState, order PendingMarketOrder) (bool, SimState) {
	switch order.Side {
	case Bid:
		if state.CurrencyBalance.Lt(order.Amount) {
			return false, state
		}
		state.CurrencyBalance = state.CurrencyBalance.Sub(order.Amount)
	case Ask:
		if state.CommodityBalance.Lt(order.Amount) {
			return false, state
		}
		state.CommodityBalance = state.CommodityBalance.Sub(order.Amount)
	}
	state.PendingMarketOrders = append(append([]PendingMarketOrder(nil), state.PendingMarketOrders...), order)
	return true, state
}

func cancelLimitOrder(state SimState, id string) SimState {
	for i, o := range state.PendingLimitOrders {
		if o.ID != id {
			continue
		}
		switch o.Side {
		case Bid:
			state.CurrencyBalance = state.CurrencyBalance.Add(o.Volume.Mul(o.UnitPrice))
		case Ask:
			state.CommodityBalance = state.CommodityBalance.Add(o.Volume)
		}
		remaining := append([]PendingLimitOrder(nil), state.PendingLimitOrders[:i]...)
		remaining = append(remaining, state.PendingLimitOrders[i+1:]...)
		state.PendingLimitOrders = remaining
		return state
	}
	return state
}
