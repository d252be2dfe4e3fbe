// Package aggregator turns the state container into the view models served
// to dashboards, and pushes a fresh snapshot whenever the state changes.
package aggregator

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/analytics"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/metrics"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/state"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/types"
)

// Broadcaster delivers a serialized snapshot to every connected dashboard
type Broadcaster interface {
	Broadcast(message []byte)
}

// Aggregator builds dashboard snapshots from state
type Aggregator struct {
	state   *state.Container
	hub     Broadcaster
	opts    analytics.Options
	metrics *metrics.Metrics
	logger  zerolog.Logger

	// live views are rebuilt at least this often so ticket aging advances
	liveRefresh time.Duration
}

// NewAggregator creates a new aggregator
func NewAggregator(st *state.Container, hub Broadcaster, opts analytics.Options, m *metrics.Metrics, logger zerolog.Logger) *Aggregator {
	if opts.Location == nil {
		opts.Location = st.Location()
	}
	return &Aggregator{
		state:       st,
		hub:         hub,
		opts:        opts,
		metrics:     m,
		logger:      logger,
		liveRefresh: 15 * time.Second,
	}
}

// Start pushes a snapshot after state changes, at most once per second,
// until ctx is cancelled
func (a *Aggregator) Start(ctx context.Context) {
	changes := a.state.Subscribe()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	a.logger.Info().Msg("aggregator started")

	dirty := true
	var lastBuild time.Time
	for {
		select {
		case <-ctx.Done():
			a.logger.Info().Msg("aggregator stopped")
			return

		case <-changes:
			dirty = true

		case <-ticker.C:
			stale := a.state.IsLive() && time.Since(lastBuild) >= a.liveRefresh
			if !dirty && !stale {
				continue
			}
			if err := a.Publish(); err != nil {
				continue
			}
			dirty = false
			lastBuild = time.Now()
		}
	}
}

// Publish builds the current snapshot and broadcasts it
func (a *Aggregator) Publish() error {
	start := time.Now()
	snapshot := a.Dashboard()

	data, err := json.Marshal(snapshot)
	if err != nil {
		a.logger.Error().Err(err).Msg("failed to marshal snapshot")
		a.metrics.RecordSnapshotError()
		return err
	}

	a.hub.Broadcast(data)
	a.metrics.RecordSnapshot(time.Since(start))

	a.logger.Debug().
		Str("date", snapshot.Date).
		Str("view", string(snapshot.View)).
		Int("records", snapshot.KPIs.Total).
		Int("ticket_alerts", len(snapshot.TicketAlerts)).
		Msg("snapshot broadcasted")
	return nil
}

// Dashboard builds the snapshot of the current state
func (a *Aggregator) Dashboard() types.DashboardSnapshot {
	return a.Build(a.state.Snapshot())
}

// Build derives a dashboard snapshot from a state snapshot
func (a *Aggregator) Build(snap state.Snapshot) types.DashboardSnapshot {
	return analytics.BuildDashboard(analytics.DashboardInput{
		Date:       snap.View.Date,
		View:       snap.View.Mode,
		Search:     snap.Search,
		Records:    snap.Records,
		Presence:   snap.Presence,
		Alerts:     snap.Alerts,
		Prediction: snap.Prediction,
		Now:        a.state.Now(),
	}, a.opts)
}

// WarRoom builds the war-room view for filter
func (a *Aggregator) WarRoom(filter analytics.WarRoomFilter) types.WarRoomView {
	snap := a.state.Snapshot()
	return analytics.BuildWarRoom(snap.Records, filter, snap.View.Mode, snap.View.Date, a.opts.Location, a.state.Now())
}

// Clients builds the client map filtered by search
func (a *Aggregator) Clients(search string) types.ClientMap {
	return analytics.BuildClientMap(a.state.Snapshot().Records, search)
}

// Presence builds the presence panel ranked against the current records
func (a *Aggregator) Presence() []types.PresenceEntry {
	snap := a.state.Snapshot()
	ranking := analytics.BuildAgentRanking(snap.Records, a.opts.Denylist)
	return analytics.BuildPresencePanel(snap.Presence, ranking)
}

// Alerts returns the system alerts still inside the display window
func (a *Aggregator) Alerts() []types.SystemAlert {
	return analytics.ActiveSystemAlerts(a.state.Snapshot().Alerts, a.state.Now())
}

// Rankings returns the stored ranking entries for period
func (a *Aggregator) Rankings(period types.RankingPeriod) []types.RankingEntry {
	entries := a.state.Snapshot().Rankings[period]
	if entries == nil {
		return []types.RankingEntry{}
	}
	return entries
}
