package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creditdesk/creditdesk/internal/domain"
	"github.com/creditdesk/creditdesk/internal/modules/rates"
)

type fakeFred struct {
	series map[string]domain.Series
}

func (f fakeFred) Series(_ context.Context, seriesID string, _ time.Time) (domain.Series, error) {
	if s, ok := f.series[seriesID]; ok {
		return s, nil
	}
	return nil, &domain.UpstreamError{Source: "fred", Err: io.EOF}
}

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()

	service := rates.NewService(fakeFred{series: map[string]domain.Series{}}, zerolog.Nop())
	handler := NewHandler(service, zerolog.Nop())

	router := chi.NewRouter()
	handler.RegisterRoutes(router)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestHandleCurveRejectsUnknownFrequency(t *testing.T) {
	srv := setupServer(t)

	resp, err := http.Get(srv.URL + "/rates/curve?freq=hourly")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "hourly")
}

func TestHandleCurveAcceptsKnownFrequencies(t *testing.T) {
	srv := setupServer(t)

	for _, freq := range []string{"", "daily", "weekly", "monthly"} {
		resp, err := http.Get(srv.URL + "/rates/curve?freq=" + freq)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, "freq=%q", freq)
	}
}
