package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/arborfi/simtrade/internal/fixed"
	"github.com/arborfi/simtrade/internal/sim"
	"github.com/arborfi/simtrade/internal/venue"
)

func newTestSim(t *testing.T) *sim.Sim {
	t.Helper()
	ex := venue.NewMemory()
	currency, err := fixed.FromFloat64(1000)
	if err != nil {
		t.Fatalf("fixed.FromFloat64: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	s := sim.CreateSim(ctx, sim.Config{
		CycleDelay:      time.Hour,
		CurrencyBalance: currency,
		Exchange:        ex,
	}, nil, nil)
	t.Cleanup(func() { sim.DestroySim(s) })
	return s
}

func TestGetBalances(t *testing.T) {
	s := newTestSim(t)
	router := NewRouter(s, nil)

	req := httptest.NewRequest(http.MethodGet, "/balances", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp balancesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Currency != "1000" {
		t.Fatalf("currency = %q, want 1000", resp.Currency)
	}
}

func TestPlaceAndCancelOrder(t *testing.T) {
	s := newTestSim(t)
	router := NewRouter(s, nil)

	body, _ := json.Marshal(placeOrderRequest{Side: "BID", Volume: "5", UnitPrice: "12"})
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var created map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	id := created["id"]
	if id == "" {
		t.Fatalf("expected a non-empty order id")
	}

	listReq := httptest.NewRequest(http.MethodGet, "/orders", nil)
	listRec := httptest.NewRecorder()
	router.ServeHTTP(listRec, listReq)
	var orders []orderResponse
	if err := json.Unmarshal(listRec.Body.Bytes(), &orders); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(orders) != 1 || orders[0].ID != id {
		t.Fatalf("expected the placed order to be listed, got %+v", orders)
	}

	delReq := httptest.NewRequest(http.MethodDelete, "/orders/"+id, nil)
	delRec := httptest.NewRecorder()
	router.ServeHTTP(delRec, delReq)
	if delRec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", delRec.Code)
	}
}

func TestPlaceOrderInsufficientBalanceReturns422(t *testing.T) {
	s := newTestSim(t)
	router := NewRouter(s, nil)

	body, _ := json.Marshal(placeOrderRequest{Side: "BID", Volume: "5000", UnitPrice: "12"})
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422: %s", rec.Code, rec.Body.String())
	}
}
