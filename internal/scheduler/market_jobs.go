package scheduler

import (
	"context"
	"time"
)

// OverviewRefresher is the market overview the refresh jobs drive.
type OverviewRefresher interface {
	RefreshIndices(ctx context.Context) error
	RefreshNews(ctx context.Context) error
}

const marketJobTimeout = 2 * time.Minute

// MarketIndicesRefreshJob replaces the index quote snapshot
type MarketIndicesRefreshJob struct {
	overview OverviewRefresher
	timeout  time.Duration
}

// NewMarketIndicesRefreshJob creates the indices refresh job
func NewMarketIndicesRefreshJob(overview OverviewRefresher) *MarketIndicesRefreshJob {
	return &MarketIndicesRefreshJob{overview: overview, timeout: marketJobTimeout}
}

// Run executes the job
func (j *MarketIndicesRefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()
	return j.overview.RefreshIndices(ctx)
}

// Name returns the job name
func (j *MarketIndicesRefreshJob) Name() string {
	return "market_indices_refresh"
}

// MarketNewsRefreshJob replaces the news snapshot
type MarketNewsRefreshJob struct {
	overview OverviewRefresher
	timeout  time.Duration
}

// NewMarketNewsRefreshJob creates the news refresh job
func NewMarketNewsRefreshJob(overview OverviewRefresher) *MarketNewsRefreshJob {
	return &MarketNewsRefreshJob{overview: overview, timeout: marketJobTimeout}
}

// Run executes the job
func (j *MarketNewsRefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()
	return j.overview.RefreshNews(ctx)
}

// Name returns the job name
func (j *MarketNewsRefreshJob) Name() string {
	return "market_news_refresh"
}
