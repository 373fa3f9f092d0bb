package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/creditdesk/creditdesk/internal/domain"
	"github.com/creditdesk/creditdesk/internal/modules/markets"
)

type fakeYahoo struct {
	history map[string]domain.Series
	quotes  map[string]domain.Quote
}

func (f *fakeYahoo) History(_ context.Context, symbol, _ string) (domain.Series, error) {
	s, ok := f.history[symbol]
	if !ok {
		return nil, &domain.UpstreamError{Source: "yahoo", Err: context.DeadlineExceeded}
	}
	return s, nil
}

func (f *fakeYahoo) Quote(_ context.Context, symbol string) (*domain.Quote, error) {
	q, ok := f.quotes[symbol]
	if !ok {
		return nil, &domain.UpstreamError{Source: "yahoo", Err: context.DeadlineExceeded}
	}
	return &q, nil
}

func (f *fakeYahoo) Quotes(ctx context.Context, symbols []string) ([]domain.Quote, error) {
	out := make([]domain.Quote, 0, len(symbols))
	for _, s := range symbols {
		q, err := f.Quote(ctx, s)
		if err != nil {
			continue
		}
		out = append(out, *q)
	}
	return out, nil
}

func setupServer(t *testing.T, yahoo *fakeYahoo) (*httptest.Server, *Handler) {
	t.Helper()
	handler := NewHandler(markets.NewService(yahoo, zerolog.Nop()), zerolog.Nop())
	router := chi.NewRouter()
	router.Route("/api", handler.RegisterRoutes)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, handler
}

func TestHandleMove(t *testing.T) {
	yahoo := &fakeYahoo{history: map[string]domain.Series{
		"^MOVE": {
			{Time: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Value: 98.0},
			{Time: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), Value: 101.5},
		},
	}}
	srv, _ := setupServer(t, yahoo)

	resp, err := http.Get(srv.URL + "/api/markets/move")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data struct {
			Symbol string        `json:"symbol"`
			Series domain.Series `json:"series"`
			Count  int           `json:"count"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "^MOVE", body.Data.Symbol)
	assert.Equal(t, 2, body.Data.Count)
}

func TestHandleCompareRequiresSymbols(t *testing.T) {
	srv, _ := setupServer(t, &fakeYahoo{})

	resp, err := http.Get(srv.URL + "/api/markets/compare")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleHistoryUpstreamFailure(t *testing.T) {
	srv, _ := setupServer(t, &fakeYahoo{})

	resp, err := http.Get(srv.URL + "/api/markets/history/ZZZZ")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestHandleStreamPushesSnapshots(t *testing.T) {
	yahoo := &fakeYahoo{quotes: map[string]domain.Quote{
		"LQD": {Symbol: "LQD", Price: 108.5},
	}}
	srv, handler := setupServer(t, yahoo)
	handler.streamInterval = 25 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + srv.URL[len("http"):] + "/api/markets/stream?symbols=LQD"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	// initial push plus at least one tick
	for i := 0; i < 2; i++ {
		var snapshot markets.Snapshot
		require.NoError(t, wsjson.Read(ctx, conn, &snapshot))
		require.Len(t, snapshot.Quotes, 1)
		assert.Equal(t, "LQD", snapshot.Quotes[0].Symbol)
	}
}
