package audit

import (
	"testing"

	"github.com/arborfi/simtrade/internal/sim"
)

func TestDiffLimitFindsSettledOrders(t *testing.T) {
	before := []sim.PendingLimitOrder{{ID: "1"}, {ID: "2"}, {ID: "3"}}
	after := []sim.PendingLimitOrder{{ID: "2"}}

	settled := diffLimit(before, after)
	if len(settled) != 2 {
		t.Fatalf("expected 2 settled orders, got %d", len(settled))
	}
	ids := map[string]bool{settled[0].ID: true, settled[1].ID: true}
	if !ids["1"] || !ids["3"] {
		t.Fatalf("expected orders 1 and 3 to be settled, got %+v", settled)
	}
}

func TestDiffLimitNoChangeIsEmpty(t *testing.T) {
	before := []sim.PendingLimitOrder{{ID: "1"}}
	after := []sim.PendingLimitOrder{{ID: "1"}}

	if settled := diffLimit(before, after); len(settled) != 0 {
		t.Fatalf("expected no settled orders, got %+v", settled)
	}
}

func TestLedgerObserveCycleNoOpWithoutPool(t *testing.T) {
	l := NewLedger(nil, nil)
	// Must not panic when there is no pool configured.
	l.ObserveCycle(sim.SimState{}, sim.SimState{}, nil)
}

func TestFilledMarketOrdersDropsRefunds(t *testing.T) {
	settled := []sim.PendingMarketOrder{{ID: "1"}, {ID: "2"}}
	marketFilled := map[string]bool{"1": true, "2": false}

	filled := filledMarketOrders(settled, marketFilled)
	if len(filled) != 1 || filled[0].ID != "1" {
		t.Fatalf("expected only order 1 to be kept as a fill, got %+v", filled)
	}
}

func TestFilledMarketOrdersNilClassificationKeepsNone(t *testing.T) {
	settled := []sim.PendingMarketOrder{{ID: "1"}}

	if filled := filledMarketOrders(settled, nil); len(filled) != 0 {
		t.Fatalf("expected no fills when nothing was classified, got %+v", filled)
	}
}
