// Package market keeps the market overview (index quotes and news) that the
// scheduler refreshes and the API serves without touching the upstream provider.
package market

import (
	"time"

	"github.com/smasshh/finmate/internal/domain"
)

// Index is one tracked market index, represented by its ETF.
type Index struct {
	Symbol string
	Name   string
}

// KnownIndices are the indices shown on the overview, in display order.
var KnownIndices = []Index{
	{Symbol: "SPY", Name: "S&P 500"},
	{Symbol: "QQQ", Name: "Nasdaq 100"},
	{Symbol: "DIA", Name: "Dow Jones"},
	{Symbol: "IWM", Name: "Russell 2000"},
}

// NewsLimit is the number of articles kept per refresh.
const NewsLimit = 20

// IndexQuote is the overview row for one index.
type IndexQuote struct {
	Symbol        string  `json:"symbol" msgpack:"symbol"`
	Name          string  `json:"name" msgpack:"name"`
	Price         float64 `json:"price" msgpack:"price"`
	Change        float64 `json:"change" msgpack:"change"`
	ChangePercent float64 `json:"change_percent" msgpack:"change_percent"`
	// Stale marks a value carried over from an earlier refresh.
	Stale bool `json:"stale" msgpack:"stale"`
}

// IndicesSnapshot is the result of one indices refresh.
type IndicesSnapshot struct {
	Indices   []IndexQuote `json:"indices" msgpack:"indices"`
	UpdatedAt time.Time    `json:"updated_at" msgpack:"updated_at"`
	Stale     bool         `json:"stale" msgpack:"-"`
	Fallback  bool         `json:"fallback" msgpack:"-"`
}

// NewsSnapshot is the result of one news refresh.
type NewsSnapshot struct {
	Articles  []domain.NewsArticle `json:"articles" msgpack:"articles"`
	UpdatedAt time.Time            `json:"updated_at" msgpack:"updated_at"`
	Stale     bool                 `json:"stale" msgpack:"-"`
	Fallback  bool                 `json:"fallback" msgpack:"-"`
}
