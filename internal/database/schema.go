package database

// schemas maps database names to their embedded DDL.
// All statements are idempotent so Migrate can run on every startup.
var schemas = map[string]string{
	"cache":     cacheSchema,
	"portfolio": portfolioSchema,
}

// cacheSchema backs internal/clientdata: one table per upstream payload
// class, each row a JSON blob with an expiration timestamp.
const cacheSchema = `
CREATE TABLE IF NOT EXISTS fred_series (
	series_key TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS yahoo_history (
	query      TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS yahoo_quotes (
	symbol     TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS news_headlines (
	query      TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS credit_memos (
	input_hash TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	expires_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_fred_series_expires ON fred_series(expires_at);
CREATE INDEX IF NOT EXISTS idx_yahoo_history_expires ON yahoo_history(expires_at);
CREATE INDEX IF NOT EXISTS idx_yahoo_quotes_expires ON yahoo_quotes(expires_at);
CREATE INDEX IF NOT EXISTS idx_news_headlines_expires ON news_headlines(expires_at);
CREATE INDEX IF NOT EXISTS idx_credit_memos_expires ON credit_memos(expires_at);
`

// portfolioSchema backs the portfolio tracker: an append-only transaction
// ledger plus daily value snapshots (msgpack blobs).
const portfolioSchema = `
CREATE TABLE IF NOT EXISTS transactions (
	id         TEXT PRIMARY KEY,
	symbol     TEXT NOT NULL,
	action     TEXT NOT NULL CHECK (action IN ('buy', 'sell')),
	quantity   REAL NOT NULL CHECK (quantity > 0),
	price      REAL NOT NULL CHECK (price >= 0),
	executed_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transactions_symbol ON transactions(symbol);
CREATE INDEX IF NOT EXISTS idx_transactions_executed ON transactions(executed_at);

CREATE TABLE IF NOT EXISTS value_snapshots (
	snapshot_date TEXT PRIMARY KEY,
	data          BLOB NOT NULL,
	created_at    INTEGER NOT NULL
);
`
