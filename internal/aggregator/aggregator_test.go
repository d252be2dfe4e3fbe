package aggregator

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/analytics"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/metrics"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/state"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/types"
)

type recorder struct {
	mu       sync.Mutex
	messages [][]byte
}

func (r *recorder) Broadcast(message []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}

func (r *recorder) last() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.messages[len(r.messages)-1]
}

var fixedNow = time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC)

func newTestAggregator() (*Aggregator, *state.Container, *recorder) {
	st := state.NewContainer(time.UTC, state.WithClock(func() time.Time { return fixedNow }))
	rec := &recorder{}
	agg := NewAggregator(st, rec, analytics.DefaultOptions(), metrics.New(), zerolog.New(&bytes.Buffer{}))
	return agg, st, rec
}

func loadTickets(t *testing.T, st *state.Container, records []types.AttendanceRecord) {
	t.Helper()
	_, ticket := st.Begin(context.Background(), state.FeedTickets)
	require.True(t, st.ApplyTickets(ticket, records))
}

func TestPublish(t *testing.T) {
	agg, st, rec := newTestAggregator()
	loadTickets(t, st, []types.AttendanceRecord{
		{ID: "1", AgentID: "Ana", Status: "resolvido", CreatedAt: fixedNow.Add(-time.Hour)},
		{ID: "2", AgentID: "Bia", Status: "em atendimento", CreatedAt: fixedNow.Add(-40 * time.Minute)},
	})

	require.NoError(t, agg.Publish())
	require.Equal(t, 1, rec.count())

	var snap types.DashboardSnapshot
	require.NoError(t, json.Unmarshal(rec.last(), &snap))
	assert.Equal(t, "dashboard_snapshot", snap.Type)
	assert.Equal(t, "2026-03-10", snap.Date)
	assert.Equal(t, 2, snap.KPIs.Total)
	assert.Equal(t, 1, snap.KPIs.InProgress)
	require.Len(t, snap.TicketAlerts, 1)
	assert.Equal(t, "2", snap.TicketAlerts[0].TicketID)
}

func TestStartPublishesOnChange(t *testing.T) {
	agg, st, rec := newTestAggregator()
	agg.liveRefresh = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		agg.Start(ctx)
		close(done)
	}()

	// the initial snapshot is pushed on the first tick
	require.Eventually(t, func() bool { return rec.count() == 1 }, 3*time.Second, 20*time.Millisecond)

	loadTickets(t, st, []types.AttendanceRecord{
		{ID: "1", AgentID: "Ana", Status: "resolvido", CreatedAt: fixedNow.Add(-time.Hour)},
	})
	require.Eventually(t, func() bool { return rec.count() == 2 }, 3*time.Second, 20*time.Millisecond)

	var snap types.DashboardSnapshot
	require.NoError(t, json.Unmarshal(rec.last(), &snap))
	assert.Equal(t, 1, snap.KPIs.Total)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("aggregator did not stop after context cancel")
	}
}

func TestViewBuilders(t *testing.T) {
	agg, st, _ := newTestAggregator()
	loadTickets(t, st, []types.AttendanceRecord{
		{ID: "1", AgentID: "Ana", Status: "resolvido", Phone: "11911110000", CustomerName: "Paulo", CreatedAt: fixedNow.Add(-time.Hour)},
		{ID: "2", AgentID: "Bia", Status: "sem sucesso", Phone: "11922220000", CustomerName: "Rita", CreatedAt: fixedNow.Add(-2 * time.Hour)},
	})

	_, ticket := st.Begin(context.Background(), state.FeedPresence)
	st.ApplyPresence(ticket, []types.AgentPresence{{AgentID: "Bia", Online: true}, {AgentID: "Ana"}})

	_, ticket = st.Begin(context.Background(), state.FeedAlerts)
	st.ApplyAlerts(ticket, []types.SystemAlert{
		{ID: "recent", Timestamp: fixedNow.Add(-time.Hour)},
		{ID: "old", Timestamp: fixedNow.Add(-6 * time.Hour)},
	})

	_, ticket = st.Begin(context.Background(), state.FeedRanking)
	st.ApplyRankings(ticket, map[types.RankingPeriod][]types.RankingEntry{
		types.PeriodToday: {{AgentID: "Ana", Points: 10}},
	})

	wr := agg.WarRoom(analytics.WarRoomFilter{Agent: "Bia", Page: 1})
	assert.Equal(t, 1, wr.Total)

	clients := agg.Clients("rita")
	require.Len(t, clients.TopVolume, 1)
	assert.Equal(t, "Rita", clients.TopVolume[0].Name)

	presence := agg.Presence()
	require.Len(t, presence, 2)
	assert.Equal(t, "Bia", presence[0].AgentID)
	assert.Equal(t, 2, presence[0].RankPosition)
	assert.Equal(t, 1, presence[1].RankPosition)

	alerts := agg.Alerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, "recent", alerts[0].ID)

	assert.Len(t, agg.Rankings(types.PeriodToday), 1)
	assert.NotNil(t, agg.Rankings(types.PeriodMonth))
	assert.Empty(t, agg.Rankings(types.PeriodMonth))
}
