package clientdata

import "time"

// TTL constants for the cached market data.
// These are added to time.Now() when storing to calculate expires_at.
const (
	TTLQuote    = 5 * time.Minute  // Index and watchlist quotes
	TTLDaily    = 6 * time.Hour    // Daily bars only change after the close
	TTLNews     = 10 * time.Minute // News feed
	TTLSearch   = 24 * time.Hour   // Symbol search results
	TTLOverview = 10 * time.Minute // Market overview snapshot

	// StaleRetention is how long expired rows are kept around as API-failure fallback.
	StaleRetention = 7 * 24 * time.Hour
)
