package fred

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "modernc.org/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creditdesk/creditdesk/internal/clientdata"
	"github.com/creditdesk/creditdesk/internal/domain"
)

const observationsJSON = `{
	"observations": [
		{"date": "2024-01-02", "value": "3.95"},
		{"date": "2024-01-03", "value": "."},
		{"date": "2024-01-04", "value": "4.02"}
	]
}`

func setupCacheRepo(t *testing.T) (*clientdata.Repository, *sql.DB) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE fred_series (series_key TEXT PRIMARY KEY, data TEXT NOT NULL, expires_at INTEGER NOT NULL);
CREATE TABLE yahoo_history (query TEXT PRIMARY KEY, data TEXT NOT NULL, expires_at INTEGER NOT NULL);
CREATE TABLE yahoo_quotes (symbol TEXT PRIMARY KEY, data TEXT NOT NULL, expires_at INTEGER NOT NULL);
CREATE TABLE news_headlines (query TEXT PRIMARY KEY, data TEXT NOT NULL, expires_at INTEGER NOT NULL);
CREATE TABLE credit_memos (input_hash TEXT PRIMARY KEY, data TEXT NOT NULL, expires_at INTEGER NOT NULL);`)
	require.NoError(t, err)

	return clientdata.NewRepository(db), db
}

func TestMissingAPIKeyFailsBeforeNetwork(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	client := NewClient("", nil, zerolog.Nop())
	client.baseURL = srv.URL

	_, err := client.Series(context.Background(), "DGS10", time.Time{})
	require.Error(t, err)
	assert.True(t, domain.IsConfig(err))
	assert.Equal(t, 0, calls, "no network call may happen without a key")
}

func TestSeriesParsesObservations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "DGS10", r.URL.Query().Get("series_id"))
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		w.Write([]byte(observationsJSON))
	}))
	defer srv.Close()

	client := NewClient("test-key", nil, zerolog.Nop())
	client.baseURL = srv.URL

	series, err := client.Series(context.Background(), "DGS10", time.Time{})
	require.NoError(t, err)

	// The "." placeholder is skipped
	require.Len(t, series, 2)
	assert.InDelta(t, 3.95, series[0].Value, 1e-9)
	assert.InDelta(t, 4.02, series[1].Value, 1e-9)
}

func TestSeriesCacheHitSkipsNetwork(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(observationsJSON))
	}))
	defer srv.Close()

	repo, _ := setupCacheRepo(t)
	client := NewClient("test-key", repo, zerolog.Nop())
	client.baseURL = srv.URL

	first, err := client.Series(context.Background(), "DGS10", time.Time{})
	require.NoError(t, err)

	second, err := client.Series(context.Background(), "DGS10", time.Time{})
	require.NoError(t, err)

	assert.Equal(t, 1, calls, "second call within TTL must be served from cache")
	assert.Equal(t, first, second)
}

func TestSeriesStaleFallbackOnUpstreamError(t *testing.T) {
	failing := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(observationsJSON))
	}))
	defer srv.Close()

	repo, db := setupCacheRepo(t)
	client := NewClient("test-key", repo, zerolog.Nop())
	client.baseURL = srv.URL

	// Prime the cache, then expire the entry and break the upstream
	_, err := client.Series(context.Background(), "DGS10", time.Time{})
	require.NoError(t, err)

	_, err = db.Exec("UPDATE fred_series SET expires_at = 0")
	require.NoError(t, err)
	failing = true

	series, err := client.Series(context.Background(), "DGS10", time.Time{})
	require.NoError(t, err, "stale data is better than no data")
	assert.Len(t, series, 2)
}

func TestSeriesUpstreamErrorNoCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient("test-key", nil, zerolog.Nop())
	client.baseURL = srv.URL

	_, err := client.Series(context.Background(), "DGS10", time.Time{})
	require.Error(t, err)
	assert.True(t, domain.IsUpstream(err))
}

func TestSeriesMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"observations": [{"date": "not-a-date", "value": "1.0"}]}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", nil, zerolog.Nop())
	client.baseURL = srv.URL

	_, err := client.Series(context.Background(), "DGS10", time.Time{})
	require.Error(t, err)
	assert.True(t, domain.IsParse(err))
}
