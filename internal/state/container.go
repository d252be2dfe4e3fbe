// Package state holds the dashboard's application state. All mutation goes
// through typed actions on Container; readers get immutable snapshots.
//
// Every feed fetch is bracketed by Begin and an Apply call. Begin issues a
// new generation for the feed and cancels the fetch it supersedes, and Apply
// drops results whose generation is no longer the latest one issued.
package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/analytics"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/types"
)

// ErrInvalidDate is returned for dates that are not YYYY-MM-DD
var ErrInvalidDate = errors.New("invalid date")

// DateLayout is the wire format of dashboard dates
const DateLayout = "2006-01-02"

// Feed identifies one independently refreshed data source
type Feed string

const (
	FeedTickets  Feed = "tickets"
	FeedPresence Feed = "presence"
	FeedAlerts   Feed = "alerts"
	FeedForecast Feed = "forecast"
	FeedRanking  Feed = "ranking"
)

// Feeds lists every feed in refresh order
var Feeds = []Feed{FeedTickets, FeedPresence, FeedAlerts, FeedForecast, FeedRanking}

// View is the date and granularity the dashboard is looking at
type View struct {
	Date time.Time // local midnight
	Mode types.ViewMode
}

// Ticket identifies one in-flight fetch
type Ticket struct {
	Feed       Feed
	Generation uint64
	View       View
	cancel     context.CancelFunc
}

// Done releases the fetch context
func (t Ticket) Done() {
	if t.cancel != nil {
		t.cancel()
	}
}

// Snapshot is a read-only copy of the container state
type Snapshot struct {
	Version    uint64
	View       View
	Search     string
	Records    []types.AttendanceRecord
	Presence   []types.AgentPresence
	Alerts     []types.SystemAlert
	Prediction *types.PredictionPayload
	Rankings   map[types.RankingPeriod][]types.RankingEntry
	UpdatedAt  map[Feed]time.Time
}

// Container is the single owner of dashboard state
type Container struct {
	mu    sync.RWMutex
	loc   *time.Location
	clock func() time.Time

	view       View
	search     string
	records    []types.AttendanceRecord
	presence   []types.AgentPresence
	alerts     []types.SystemAlert
	prediction *types.PredictionPayload
	rankings   map[types.RankingPeriod][]types.RankingEntry
	updatedAt  map[Feed]time.Time

	generations map[Feed]uint64
	inflight    map[Feed]context.CancelFunc
	version     uint64

	warRoom warRoomSession

	subscribers []chan struct{}
}

// Option configures a Container
type Option func(*Container)

// WithClock replaces time.Now
func WithClock(clock func() time.Time) Option {
	return func(c *Container) { c.clock = clock }
}

// NewContainer creates a container looking at today's daily view in loc
func NewContainer(loc *time.Location, opts ...Option) *Container {
	if loc == nil {
		loc = time.UTC
	}
	c := &Container{
		loc:         loc,
		clock:       time.Now,
		rankings:    make(map[types.RankingPeriod][]types.RankingEntry),
		updatedAt:   make(map[Feed]time.Time),
		generations: make(map[Feed]uint64),
		inflight:    make(map[Feed]context.CancelFunc),
		warRoom:     warRoomSession{page: 1},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.view = View{Date: startOfDay(c.clock(), loc), Mode: types.ViewDaily}
	return c
}

// Location returns the dashboard time zone
func (c *Container) Location() *time.Location { return c.loc }

// Now returns the container clock in the dashboard time zone
func (c *Container) Now() time.Time { return c.clock().In(c.loc) }

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// ParseDate parses a YYYY-MM-DD date in loc. Empty input means today.
func (c *Container) ParseDate(value string) (time.Time, error) {
	if value == "" {
		return startOfDay(c.clock(), c.loc), nil
	}
	d, err := time.ParseInLocation(DateLayout, value, c.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return d, nil
}

// Range returns the half-open time range covered by the view
func (v View) Range() (time.Time, time.Time) {
	if v.Mode == types.ViewMonthly {
		first := time.Date(v.Date.Year(), v.Date.Month(), 1, 0, 0, 0, 0, v.Date.Location())
		return first, first.AddDate(0, 1, 0)
	}
	return v.Date, v.Date.AddDate(0, 0, 1)
}

// IsLive reports whether the view is today's daily view, the only view
// that is kept fresh by polling.
func (c *Container) IsLive() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isLiveLocked()
}

func (c *Container) isLiveLocked() bool {
	return c.view.Mode == types.ViewDaily && c.view.Date.Equal(startOfDay(c.clock(), c.loc))
}

// View returns the current view
func (c *Container) View() View {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.view
}

// SetView switches date and granularity. When the view actually changes,
// in-flight fetches are cancelled, their results invalidated and the
// view-dependent feeds cleared. It reports whether anything changed.
func (c *Container) SetView(date time.Time, mode types.ViewMode) bool {
	next := View{Date: startOfDay(date, c.loc), Mode: mode}

	c.mu.Lock()
	if c.view == next {
		c.mu.Unlock()
		return false
	}
	c.view = next
	for _, f := range Feeds {
		c.generations[f]++
		if cancel := c.inflight[f]; cancel != nil {
			cancel()
			delete(c.inflight, f)
		}
	}
	c.records = nil
	c.prediction = nil
	c.bumpLocked()
	c.mu.Unlock()

	c.notify()
	return true
}

// SetSearch sets the dashboard search term
func (c *Container) SetSearch(q string) bool {
	c.mu.Lock()
	if c.search == q {
		c.mu.Unlock()
		return false
	}
	c.search = q
	c.bumpLocked()
	c.mu.Unlock()

	c.notify()
	return true
}

// Begin issues a new generation for feed and cancels the fetch it replaces.
// The returned context is cancelled when a newer fetch begins, when the view
// changes or when Done is called.
func (c *Container) Begin(parent context.Context, feed Feed) (context.Context, Ticket) {
	ctx, cancel := context.WithCancel(parent)

	c.mu.Lock()
	defer c.mu.Unlock()

	if prev := c.inflight[feed]; prev != nil {
		prev()
	}
	c.generations[feed]++
	c.inflight[feed] = cancel

	return ctx, Ticket{
		Feed:       feed,
		Generation: c.generations[feed],
		View:       c.view,
		cancel:     cancel,
	}
}

// Generation returns the latest generation issued for feed
func (c *Container) Generation(feed Feed) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generations[feed]
}

// apply runs fn under the write lock when t is still current
func (c *Container) apply(t Ticket, fn func()) bool {
	c.mu.Lock()
	if c.generations[t.Feed] != t.Generation {
		c.mu.Unlock()
		return false
	}
	fn()
	c.updatedAt[t.Feed] = c.clock()
	delete(c.inflight, t.Feed)
	c.bumpLocked()
	c.mu.Unlock()

	t.Done()
	c.notify()
	return true
}

// ApplyTickets stores a fetched attendance list. Records are normalized
// here, once. It returns false when the result is stale.
func (c *Container) ApplyTickets(t Ticket, records []types.AttendanceRecord) bool {
	normalized := analytics.Normalize(records, c.clock())
	return c.apply(t, func() { c.records = normalized })
}

// ApplyPresence replaces the presence feed
func (c *Container) ApplyPresence(t Ticket, presence []types.AgentPresence) bool {
	return c.apply(t, func() { c.presence = presence })
}

// ApplyAlerts replaces the system alerts feed
func (c *Container) ApplyAlerts(t Ticket, alerts []types.SystemAlert) bool {
	return c.apply(t, func() { c.alerts = alerts })
}

// ApplyForecast replaces the forecast; nil clears it
func (c *Container) ApplyForecast(t Ticket, p *types.PredictionPayload) bool {
	return c.apply(t, func() { c.prediction = p })
}

// ApplyRankings replaces the stored ranking entries of every period
func (c *Container) ApplyRankings(t Ticket, rankings map[types.RankingPeriod][]types.RankingEntry) bool {
	return c.apply(t, func() {
		next := make(map[types.RankingPeriod][]types.RankingEntry, len(rankings))
		for k, v := range rankings {
			next[k] = v
		}
		c.rankings = next
	})
}

// Fail releases a ticket whose fetch failed. State keeps its last value.
func (c *Container) Fail(t Ticket) {
	c.mu.Lock()
	if c.generations[t.Feed] == t.Generation {
		delete(c.inflight, t.Feed)
	}
	c.mu.Unlock()
	t.Done()
}

// Snapshot returns the current state. Slices are shared and must not be
// modified; actions always replace them.
func (c *Container) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rankings := make(map[types.RankingPeriod][]types.RankingEntry, len(c.rankings))
	for k, v := range c.rankings {
		rankings[k] = v
	}
	updated := make(map[Feed]time.Time, len(c.updatedAt))
	for k, v := range c.updatedAt {
		updated[k] = v
	}

	return Snapshot{
		Version:    c.version,
		View:       c.view,
		Search:     c.search,
		Records:    c.records,
		Presence:   c.presence,
		Alerts:     c.alerts,
		Prediction: c.prediction,
		Rankings:   rankings,
		UpdatedAt:  updated,
	}
}

// Version increases on every state change
func (c *Container) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Subscribe returns a channel that receives a signal after state changes.
// Signals coalesce: a slow reader sees at most one pending signal.
func (c *Container) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	c.mu.Lock()
	c.subscribers = append(c.subscribers, ch)
	c.mu.Unlock()
	return ch
}

func (c *Container) bumpLocked() {
	c.version++
}

func (c *Container) notify() {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, ch := range c.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
