package analytics

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/types"
)

func TestBuildPresencePanel(t *testing.T) {
	presence := []types.AgentPresence{
		{AgentID: "Offline Busy", Online: false, Chats: []types.ChatUnread{{Phone: "1", Unread: 20}}},
		{AgentID: "Ana Lima", Online: true, Chats: []types.ChatUnread{{Phone: "1", Unread: 1}}},
		{AgentID: "Bia", Online: true, Chats: []types.ChatUnread{{Phone: "1", Unread: 2}, {Phone: "2", Unread: 3}}},
	}
	ranking := []types.AgentRank{{AgentID: "Ana Lima", Position: 1}}

	panel := BuildPresencePanel(presence, ranking)
	require.Len(t, panel, 3)
	assert.Equal(t, "Bia", panel[0].AgentID)
	assert.Equal(t, 5, panel[0].TotalUnread)
	assert.Equal(t, 2, panel[0].OpenChats)
	assert.Equal(t, "Ana Lima", panel[1].AgentID)
	assert.Equal(t, "AL", panel[1].Initials)
	assert.Equal(t, 1, panel[1].RankPosition)
	assert.Equal(t, "Offline Busy", panel[2].AgentID)
	assert.Equal(t, 0, panel[2].RankPosition)

	assert.Equal(t, 2, CountOnline(presence))
}

func TestActiveSystemAlerts(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	in := []types.SystemAlert{
		{ID: "old", Timestamp: now.Add(-5 * time.Hour)},
		{ID: "resolved", Timestamp: now.Add(-time.Minute), Resolved: true},
		{ID: "a", Timestamp: now.Add(-3 * time.Hour)},
		{ID: "b", Timestamp: now.Add(-10 * time.Minute)},
		{ID: "edge", Timestamp: now.Add(-AlertWindow)},
	}

	got := ActiveSystemAlerts(in, now)
	require.Len(t, got, 3)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "a", got[1].ID)
	assert.Equal(t, "edge", got[2].ID)
}

func TestBuildDashboard(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, 3, 10, 11, 0, 0, 0, loc)
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, loc)
	done := now.Add(-10 * time.Minute)
	motive := "Entrega"

	records := Normalize([]types.AttendanceRecord{
		{ID: "1", AgentID: "Ana", Status: "resolvido", Phone: "11911112222", CustomerName: "Paulo", Motive: &motive, CreatedAt: now.Add(-40 * time.Minute), UpdatedAt: &done},
		{ID: "2", AgentID: "Ana", Status: "sem sucesso", CreatedAt: now.Add(-2 * time.Hour), UpdatedAt: &done},
		{ID: "3", AgentID: "Bia", Status: "em atendimento", CreatedAt: now.Add(-45 * time.Minute)},
		{ID: "4", AgentID: "sistema", Status: "transferido", CreatedAt: now.Add(-5 * time.Minute), UpdatedAt: &done},
	}, now)

	in := DashboardInput{
		Date:     day,
		View:     types.ViewDaily,
		Records:  records,
		Presence: []types.AgentPresence{{AgentID: "Ana", Online: true}, {AgentID: "Bia"}},
		Alerts:   []types.SystemAlert{{ID: "x", Timestamp: now.Add(-time.Hour)}},
		Prediction: &types.PredictionPayload{
			ReferenceDate: "2026-03-10",
			Data:          json.RawMessage(`{"hourly": {"12": 6}, "recommendation": "ok"}`),
		},
		Now: now,
	}

	s := BuildDashboard(in, DefaultOptions())

	assert.Equal(t, "dashboard_snapshot", s.Type)
	assert.Equal(t, "2026-03-10", s.Date)
	assert.Equal(t, 4, s.KPIs.Total)
	assert.Equal(t, 1, s.KPIs.Success)
	assert.Equal(t, 1, s.KPIs.Failure)
	assert.Equal(t, 1, s.KPIs.Transferred)
	assert.Equal(t, 1, s.KPIs.InProgress)
	assert.InDelta(t, 0.5, s.KPIs.SuccessRate, 1e-9)
	assert.Equal(t, 1, s.KPIs.OnlineAgents)

	require.Len(t, s.Ranking, 1, "Bia has nothing productive and sistema is denied")
	assert.Equal(t, "Ana", s.Ranking[0].AgentID)

	require.Len(t, s.TicketAlerts, 1)
	assert.Equal(t, "3", s.TicketAlerts[0].TicketID)
	assert.Equal(t, types.AgingCritical, s.TicketAlerts[0].Level)

	assert.Len(t, s.SystemAlerts, 1)
	assert.True(t, s.Forecast.Available)
	assert.Equal(t, 6, s.Forecast.ExpectedTotal)
	require.NotNil(t, s.Histogram.Buckets[12-FirstHour].Predicted)
	assert.Nil(t, s.Histogram.Buckets[10-FirstHour].Predicted)
	assert.Equal(t, 4, s.Histogram.Sum())
}

func TestBuildDashboardPastDayHasNoAgingAlerts(t *testing.T) {
	now := time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	records := Normalize([]types.AttendanceRecord{
		{ID: "1", AgentID: "Ana", Status: "aberto", CreatedAt: yesterday},
	}, now)

	s := BuildDashboard(DashboardInput{Date: yesterday, View: types.ViewDaily, Records: records, Now: now}, DefaultOptions())
	assert.NotNil(t, s.TicketAlerts)
	assert.Empty(t, s.TicketAlerts)
	assert.False(t, s.Forecast.Available)
}
