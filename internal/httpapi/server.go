// Package httpapi exposes the Trading Facade over HTTP with the same
// chi-based hygiene stack and application/problem+json error shape the
// teacher's cmd/server uses.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/arborfi/simtrade/internal/fixed"
	"github.com/arborfi/simtrade/internal/pricecache"
	"github.com/arborfi/simtrade/internal/sim"
)

// NewRouter builds the HTTP surface for a running Sim. cache may be nil, in
// which case /ticker/cached reports 503.
func NewRouter(s *sim.Sim, cache *pricecache.Cache) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Second))

	h := &handler{sim: s, cache: cache}

	r.Get("/balances", h.getBalances)
	r.Get("/orders", h.listOpenOrders)
	r.Post("/orders", h.placeOrder)
	r.Delete("/orders/{id}", h.cancelOrder)
	r.Get("/ticker", h.ticker)
	r.Get("/ticker/cached", h.cachedTicker)
	r.Get("/candles", h.candles)
	r.Get("/orderbook", h.orderBook)
	r.Get("/trades", h.tradeHistory)

	return r
}

type handler struct {
	sim   *sim.Sim
	cache *pricecache.Cache
}

func writeProblem(w http.ResponseWriter, r *http.Request, code int, title, detail string) {
	reqID := middleware.GetReqID(r.Context())
	w.Header().Set("Content-Type", "application/problem+json")
	w.Header().Set("X-Request-ID", reqID)
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"title":      title,
		"status":     code,
		"detail":     detail,
		"instance":   r.URL.Path,
		"request_id": reqID,
	})
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", middleware.GetReqID(r.Context()))
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

type balancesResponse struct {
	Currency  string `json:"currency"`
	Commodity string `json:"commodity"`
}

func (h *handler) getBalances(w http.ResponseWriter, r *http.Request) {
	bal := h.sim.Balances()
	writeJSON(w, r, http.StatusOK, balancesResponse{
		Currency:  bal.Currency.String(),
		Commodity: bal.Commodity.String(),
	})
}

type orderResponse struct {
	ID          string `json:"id"`
	Side        string `json:"side"`
	TimestampMs int64  `json:"timestamp_ms"`
	Volume      string `json:"volume"`
	UnitPrice   string `json:"unit_price"`
}

func (h *handler) listOpenOrders(w http.ResponseWriter, r *http.Request) {
	orders := h.sim.CurrentOpenOrders()
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderResponse{
			ID:          o.ID,
			Side:        o.Side.String(),
			TimestampMs: o.TimestampMs,
			Volume:      o.Volume.String(),
			UnitPrice:   o.UnitPrice.String(),
		})
	}
	writeJSON(w, r, http.StatusOK, out)
}

type placeOrderRequest struct {
	Side      string `json:"side"`       // "BID" | "ASK"
	IsMarket  bool   `json:"is_market"`
	Volume    string `json:"volume"`     // limit orders
	UnitPrice string `json:"unit_price"` // limit orders
	Amount    string `json:"amount"`     // market orders
}

func parseSide(s string) (sim.Side, error) {
	switch s {
	case "BID":
		return sim.Bid, nil
	case "ASK":
		return sim.Ask, nil
	default:
		return 0, errors.New("side must be BID or ASK")
	}
}

func (h *handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	side, err := parseSide(req.Side)
	if err != nil {
		writeProblem(w, r, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	var id string
	if req.IsMarket {
		amount, perr := fixed.Parse(req.Amount)
		if perr != nil {
			writeProblem(w, r, http.StatusBadRequest, "validation_error", perr.Error())
			return
		}
		id, err = h.sim.PlaceMarketOrder(side, amount)
	} else {
		volume, perr := fixed.Parse(req.Volume)
		if perr != nil {
			writeProblem(w, r, http.StatusBadRequest, "validation_error", perr.Error())
			return
		}
		unitPrice, perr := fixed.Parse(req.UnitPrice)
		if perr != nil {
			writeProblem(w, r, http.StatusBadRequest, "validation_error", perr.Error())
			return
		}
		id, err = h.sim.PlaceLimitOrder(side, volume, unitPrice)
	}

	if errors.Is(err, sim.ErrInsufficientBalance) {
		writeProblem(w, r, http.StatusUnprocessableEntity, "insufficient_balance", err.Error())
		return
	}
	if err != nil {
		writeProblem(w, r, http.StatusInternalServerError, "sim_error", err.Error())
		return
	}

	w.Header().Set("Location", "/orders/"+id)
	writeJSON(w, r, http.StatusCreated, map[string]string{"id": id})
}

func (h *handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.sim.CancelOrder(id)
	w.Header().Set("X-Request-ID", middleware.GetReqID(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) ticker(w http.ResponseWriter, r *http.Request) {
	t, err := h.sim.Ticker(r.Context())
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{
		"last_price": t.LastPrice.String(),
		"bid_price":  t.BidPrice.String(),
		"ask_price":  t.AskPrice.String(),
	})
}

func (h *handler) cachedTicker(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		writeProblem(w, r, http.StatusServiceUnavailable, "cache_disabled", "no price cache configured")
		return
	}
	t, ok := h.cache.Get()
	if !ok {
		writeProblem(w, r, http.StatusServiceUnavailable, "cache_empty", "no ticker fetched yet")
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{
		"last_price": t.LastPrice.String(),
		"bid_price":  t.BidPrice.String(),
		"ask_price":  t.AskPrice.String(),
	})
}

func (h *handler) candles(w http.ResponseWriter, r *http.Request) {
	interval := r.URL.Query().Get("interval")
	candles, err := h.sim.Candles(r.Context(), interval)
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, candles)
}

func (h *handler) orderBook(w http.ResponseWriter, r *http.Request) {
	book, err := h.sim.OrderBook(r.Context())
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, book)
}

func (h *handler) tradeHistory(w http.ResponseWriter, r *http.Request) {
	trades, err := h.sim.TradeHistory(r.Context())
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, trades)
}

func writeUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	writeProblem(w, r, http.StatusServiceUnavailable, "upstream_error", err.Error())
}
