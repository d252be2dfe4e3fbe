// Package ingestion turns external change notifications into feed refreshes.
// Sources never carry data into the dashboard: they only tell the poller
// which feed to refetch from the store.
package ingestion

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/metrics"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/schema"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/state"
)

// Refresher refetches one feed from the store
type Refresher interface {
	Refresh(ctx context.Context, feed state.Feed)
}

// FeedsByTable maps the tables of the contract to the feed they back.
// Transfer logs are read on demand and have no feed.
func FeedsByTable(c schema.Contract) map[string]state.Feed {
	return map[string]state.Feed{
		c.Attendance.Table:  state.FeedTickets,
		c.Presence.Table:    state.FeedPresence,
		c.Alerts.Table:      state.FeedAlerts,
		c.Predictions.Table: state.FeedForecast,
		c.Rankings.Table:    state.FeedRanking,
	}
}

// Trigger queues refresh requests. Requests for a feed that is already
// queued are merged, so a burst of notifications costs one fetch.
type Trigger struct {
	refresher Refresher
	tables    map[string]state.Feed
	metrics   *metrics.Metrics
	logger    zerolog.Logger

	pending map[state.Feed]chan struct{}
}

// NewTrigger creates a new Trigger
func NewTrigger(refresher Refresher, c schema.Contract, m *metrics.Metrics, logger zerolog.Logger) *Trigger {
	pending := make(map[state.Feed]chan struct{}, len(state.Feeds))
	for _, f := range state.Feeds {
		pending[f] = make(chan struct{}, 1)
	}
	return &Trigger{
		refresher: refresher,
		tables:    FeedsByTable(c),
		metrics:   m,
		logger:    logger,
		pending:   pending,
	}
}

// FeedForTable resolves the feed of a table. An empty table name means the
// attendance table.
func (t *Trigger) FeedForTable(table string) (state.Feed, bool) {
	if table == "" {
		return state.FeedTickets, true
	}
	feed, ok := t.tables[table]
	return feed, ok
}

// Fire requests a refresh of feed. It never blocks.
func (t *Trigger) Fire(source string, feed state.Feed) bool {
	ch, ok := t.pending[feed]
	if !ok {
		return false
	}
	t.metrics.RecordRefreshTrigger(source)

	select {
	case ch <- struct{}{}:
	default:
		t.logger.Debug().Str("feed", string(feed)).Str("source", source).Msg("refresh already queued")
	}
	return true
}

// Run performs queued refreshes until ctx is cancelled
func (t *Trigger) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for feed, ch := range t.pending {
		wg.Add(1)
		go func(feed state.Feed, ch chan struct{}) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ch:
					t.refresher.Refresh(ctx, feed)
				}
			}
		}(feed, ch)
	}
	wg.Wait()
}
