package clientdata

import "time"

// TTL constants for different data types.
// These are added to time.Now() when storing to calculate expires_at.
const (
	// FRED publishes most series once per business day
	TTLFredSeries = 6 * time.Hour // Rate, OAS and yield series

	// Market data changes intraday
	TTLYahooHistory = time.Hour        // Equity / index price history
	TTLQuote        = 10 * time.Minute // Current quote snapshots

	// Headlines rotate quickly
	TTLNews = 30 * time.Minute

	// Generated memos are expensive; inputs rarely change within a day
	TTLCreditMemo = 24 * time.Hour
)
