// Package handlers provides HTTP handlers for market data operations,
// including the live quote stream.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/creditdesk/creditdesk/internal/domain"
	"github.com/creditdesk/creditdesk/internal/modules/markets"
)

// streamInterval is how often the quote stream pushes a refresh.
const streamInterval = 15 * time.Second

// Handler handles markets HTTP requests
type Handler struct {
	service        *markets.Service
	log            zerolog.Logger
	streamInterval time.Duration
}

// NewHandler creates a new markets handler
func NewHandler(service *markets.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service:        service,
		log:            log.With().Str("handler", "markets").Logger(),
		streamInterval: streamInterval,
	}
}

// HandleMove handles GET /api/markets/move
func (h *Handler) HandleMove(w http.ResponseWriter, r *http.Request) {
	series, err := h.service.Move(r.Context(), r.URL.Query().Get("range"))
	if err != nil {
		h.writeDomainError(w, err, "Failed to get MOVE index")
		return
	}
	h.writeSeries(w, markets.MoveSymbol, series)
}

// HandleCDSProxy handles GET /api/markets/cds-proxy
func (h *Handler) HandleCDSProxy(w http.ResponseWriter, r *http.Request) {
	series, err := h.service.CDSProxy(r.Context(), r.URL.Query().Get("range"))
	if err != nil {
		h.writeDomainError(w, err, "Failed to get CDS proxy")
		return
	}
	h.writeSeries(w, markets.CDSProxySymbol, series)
}

// HandleHistory handles GET /api/markets/history/{symbol}
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}

	series, err := h.service.History(r.Context(), symbol, r.URL.Query().Get("range"))
	if err != nil {
		h.writeDomainError(w, err, "Failed to get history")
		return
	}
	h.writeSeries(w, strings.ToUpper(symbol), series)
}

// HandleCompare handles GET /api/markets/compare?symbols=LQD,HYG
func (h *Handler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("symbols")
	if raw == "" {
		http.Error(w, "symbols is required", http.StatusBadRequest)
		return
	}

	table, err := h.service.Compare(r.Context(), strings.Split(raw, ","), r.URL.Query().Get("range"))
	if err != nil {
		h.writeDomainError(w, err, "Failed to compare symbols")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": table,
		"metadata": map[string]interface{}{
			"base":      markets.RebaseBase,
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleQuotes handles GET /api/markets/quotes?symbols=LQD,HYG
func (h *Handler) HandleQuotes(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.Quotes(r.Context(), splitSymbols(r.URL.Query().Get("symbols")))
	if err != nil {
		h.writeDomainError(w, err, "Failed to get quotes")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": snapshot,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleStream handles GET /api/markets/stream. It upgrades to a WebSocket
// and pushes a quote snapshot immediately, then on every interval tick until
// the client goes away.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	symbols := splitSymbols(r.URL.Query().Get("symbols"))

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("WebSocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	ctx := r.Context()
	h.log.Debug().Strs("symbols", symbols).Msg("Quote stream opened")

	if err := h.pushSnapshot(ctx, conn, symbols); err != nil {
		return
	}

	ticker := time.NewTicker(h.streamInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case <-ticker.C:
			if err := h.pushSnapshot(ctx, conn, symbols); err != nil {
				h.log.Debug().Err(err).Msg("Quote stream closed")
				return
			}
		}
	}
}

func (h *Handler) pushSnapshot(ctx context.Context, conn *websocket.Conn, symbols []string) error {
	snapshot, err := h.service.Quotes(ctx, symbols)
	if err != nil {
		h.log.Warn().Err(err).Msg("Quote refresh failed, skipping push")
		return nil
	}

	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return wsjson.Write(writeCtx, conn, snapshot)
}

func splitSymbols(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, strings.TrimSpace(p))
		}
	}
	return out
}

func (h *Handler) writeSeries(w http.ResponseWriter, symbol string, series domain.Series) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"symbol": symbol,
			"series": series,
			"count":  len(series),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error, msg string) {
	h.log.Error().Err(err).Msg(msg)
	switch {
	case domain.IsParse(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case domain.IsUpstream(err):
		http.Error(w, msg, http.StatusBadGateway)
	default:
		http.Error(w, msg, http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
