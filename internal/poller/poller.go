// Package poller keeps the state container fed from the store. Every feed is
// refreshed on its own fixed interval while the dashboard shows today's daily
// view; other views are loaded once per view change.
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/analytics"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/metrics"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/state"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/storage"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/types"
)

// Intervals are the refresh periods of the feeds. Alerts and forecast share
// one timer.
type Intervals struct {
	Presence time.Duration
	Tickets  time.Duration
	Alerts   time.Duration
	Ranking  time.Duration
}

// DefaultIntervals returns the production refresh periods
func DefaultIntervals() Intervals {
	return Intervals{
		Presence: 10 * time.Second,
		Tickets:  30 * time.Second,
		Alerts:   60 * time.Second,
		Ranking:  300 * time.Second,
	}
}

// Poller fetches feeds from the store into the state container
type Poller struct {
	store     storage.Store
	state     *state.Container
	intervals Intervals
	metrics   *metrics.Metrics
	logger    zerolog.Logger

	reloadMu sync.Mutex // serializes Reload and shutdown

	mu     sync.Mutex
	parent context.Context
	stop   context.CancelFunc
	wg     sync.WaitGroup
}

// NewPoller creates a new Poller
func NewPoller(store storage.Store, st *state.Container, intervals Intervals, m *metrics.Metrics, logger zerolog.Logger) *Poller {
	return &Poller{
		store:     store,
		state:     st,
		intervals: intervals,
		metrics:   m,
		logger:    logger,
		parent:    context.Background(),
	}
}

// Start loads every feed, starts the timers when the view is live and
// blocks until ctx is cancelled.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	p.parent = ctx
	p.mu.Unlock()

	p.logger.Info().
		Dur("presence", p.intervals.Presence).
		Dur("tickets", p.intervals.Tickets).
		Dur("alerts", p.intervals.Alerts).
		Dur("ranking", p.intervals.Ranking).
		Msg("poller started")

	p.Reload(ctx)

	<-ctx.Done()
	p.reloadMu.Lock()
	p.stopTimers()
	p.reloadMu.Unlock()
	p.logger.Info().Msg("poller stopped")
}

// Reload stops the timers, fetches every feed once for the current view and
// restarts the timers if the view is live. Call it after a view change.
//
// The fetches are bound to the poller's lifetime, not to ctx: the view is
// shared, and a past view has no timer to fill it in later. ctx only
// contributes its values.
func (p *Poller) Reload(ctx context.Context) {
	p.reloadMu.Lock()
	defer p.reloadMu.Unlock()

	ctx, cancel := p.detach(ctx)
	defer cancel()

	p.stopTimers()

	var wg sync.WaitGroup
	for _, feed := range state.Feeds {
		wg.Add(1)
		go func(feed state.Feed) {
			defer wg.Done()
			p.Refresh(ctx, feed)
		}(feed)
	}
	wg.Wait()

	live := p.state.IsLive()
	p.metrics.SetLiveView(live)
	if live {
		p.startTimers()
	}
}

// detach returns a context carrying the values of ctx that is cancelled
// only when the poller stops.
func (p *Poller) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	p.mu.Lock()
	parent := p.parent
	p.mu.Unlock()

	dctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	if parent.Err() != nil {
		cancel()
	}
	stop := context.AfterFunc(parent, cancel)
	return dctx, func() {
		stop()
		cancel()
	}
}

// Running reports whether the timers are active
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stop != nil
}

func (p *Poller) startTimers() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		return
	}

	ctx, cancel := context.WithCancel(p.parent)
	p.stop = cancel

	p.run(ctx, p.intervals.Presence, state.FeedPresence)
	p.run(ctx, p.intervals.Tickets, state.FeedTickets)
	p.run(ctx, p.intervals.Alerts, state.FeedAlerts, state.FeedForecast)
	p.run(ctx, p.intervals.Ranking, state.FeedRanking)
}

func (p *Poller) stopTimers() {
	p.mu.Lock()
	if p.stop != nil {
		p.stop()
		p.stop = nil
	}
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Poller) run(ctx context.Context, interval time.Duration, feeds ...state.Feed) {
	if interval <= 0 {
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				// the day can roll over under a running timer
				if !p.state.IsLive() {
					p.logger.Debug().Msg("view no longer live, skipping tick")
					continue
				}
				for _, feed := range feeds {
					p.Refresh(ctx, feed)
				}
			}
		}
	}()
}

// Refresh fetches one feed and applies it. Errors are logged and metered;
// the state keeps its last value and the next tick tries again.
func (p *Poller) Refresh(ctx context.Context, feed state.Feed) {
	fctx, ticket := p.state.Begin(ctx, feed)
	start := time.Now()

	applied, err := p.load(fctx, ticket)
	if err != nil {
		p.state.Fail(ticket)
		if errors.Is(err, context.Canceled) {
			p.metrics.RecordStaleDiscard(string(feed))
			p.logger.Debug().Str("feed", string(feed)).Uint64("generation", ticket.Generation).Msg("fetch superseded")
			return
		}
		p.metrics.RecordFetch(string(feed), time.Since(start), err)
		p.logger.Error().Err(err).Str("feed", string(feed)).Msg("failed to fetch feed")
		return
	}

	p.metrics.RecordFetch(string(feed), time.Since(start), nil)
	if !applied {
		p.metrics.RecordStaleDiscard(string(feed))
		p.logger.Debug().Str("feed", string(feed)).Uint64("generation", ticket.Generation).Msg("discarded stale result")
	}
}

func (p *Poller) load(ctx context.Context, t state.Ticket) (bool, error) {
	view := t.View

	switch t.Feed {
	case state.FeedTickets:
		from, to := view.Range()
		records, err := p.store.GetAttendance(ctx, from, to)
		if err != nil {
			return false, err
		}
		return p.state.ApplyTickets(t, records), nil

	case state.FeedPresence:
		presence, err := p.store.GetPresence(ctx)
		if err != nil {
			return false, err
		}
		return p.state.ApplyPresence(t, presence), nil

	case state.FeedAlerts:
		alerts, err := p.store.GetActiveAlerts(ctx, p.state.Now().Add(-analytics.AlertWindow))
		if err != nil {
			return false, err
		}
		return p.state.ApplyAlerts(t, alerts), nil

	case state.FeedForecast:
		kind, date := predictionKey(view)
		prediction, err := p.store.GetPrediction(ctx, kind, date)
		if err != nil {
			return false, err
		}
		return p.state.ApplyForecast(t, prediction), nil

	case state.FeedRanking:
		return p.loadRanking(ctx, t)
	}

	return false, errors.New("unknown feed: " + string(t.Feed))
}

func (p *Poller) loadRanking(ctx context.Context, t state.Ticket) (bool, error) {
	day := t.View.Date
	month := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())

	today, err := p.store.GetRanking(ctx, types.PeriodToday, day.Format(state.DateLayout))
	if err != nil {
		return false, err
	}
	monthly, err := p.store.GetRanking(ctx, types.PeriodMonth, month.Format(state.DateLayout))
	if err != nil {
		return false, err
	}

	return p.state.ApplyRankings(t, map[types.RankingPeriod][]types.RankingEntry{
		types.PeriodToday: today,
		types.PeriodMonth: monthly,
	}), nil
}

// predictionKey picks the forecast of a view: the hourly forecast of the day,
// or the daily forecast filed on the first of the month.
func predictionKey(view state.View) (types.PredictionType, string) {
	if view.Mode == types.ViewMonthly {
		from, _ := view.Range()
		return types.PredictionDaily, from.Format(state.DateLayout)
	}
	return types.PredictionHourly, view.Date.Format(state.DateLayout)
}

// FetchView loads the date-dependent feeds of view straight from the store,
// leaving the container alone. Presence, alerts and rankings are taken from
// the container as they do not depend on the view.
func (p *Poller) FetchView(ctx context.Context, view state.View) (state.Snapshot, error) {
	snap := p.state.Snapshot()
	snap.View = view

	from, to := view.Range()
	records, err := p.store.GetAttendance(ctx, from, to)
	if err != nil {
		return state.Snapshot{}, fmt.Errorf("failed to fetch attendance: %w", err)
	}
	snap.Records = analytics.Normalize(records, p.state.Now())

	kind, date := predictionKey(view)
	snap.Prediction, err = p.store.GetPrediction(ctx, kind, date)
	if err != nil {
		return state.Snapshot{}, fmt.Errorf("failed to fetch prediction: %w", err)
	}

	return snap, nil
}
