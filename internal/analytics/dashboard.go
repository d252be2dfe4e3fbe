package analytics

import (
	"time"

	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/alerts"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/types"
)

// Options are the fixed parameters of the engine
type Options struct {
	Location *time.Location
	Denylist []string
	Aging    alerts.Thresholds
}

// DefaultOptions uses UTC, the default denylist and default aging thresholds
func DefaultOptions() Options {
	return Options{
		Location: time.UTC,
		Denylist: DefaultAgentDenylist,
		Aging:    alerts.DefaultThresholds(),
	}
}

// DashboardInput is everything a snapshot is derived from
type DashboardInput struct {
	Date       time.Time
	View       types.ViewMode
	Search     string
	Records    []types.AttendanceRecord
	Presence   []types.AgentPresence
	Alerts     []types.SystemAlert
	Prediction *types.PredictionPayload
	Now        time.Time
}

// BuildDashboard composes every dashboard view from the input
func BuildDashboard(in DashboardInput, opts Options) types.DashboardSnapshot {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	forecast := ParseForecast(in.Prediction)
	counts := CountStatuses(in.Records)
	ranking := BuildAgentRanking(in.Records, opts.Denylist)

	var ticketAlerts []types.TicketAlert
	if SameDay(in.Date, in.Now, loc) {
		ticketAlerts = alerts.CheckTicketAging(in.Records, in.Now, opts.Aging)
	}
	if ticketAlerts == nil {
		ticketAlerts = []types.TicketAlert{}
	}

	return types.DashboardSnapshot{
		Type:      "dashboard_snapshot",
		Date:      in.Date.In(loc).Format("2006-01-02"),
		View:      in.View,
		Timestamp: in.Now,
		KPIs: types.DashboardKPIs{
			Total:              counts.Total(),
			Success:            counts.Success,
			Failure:            counts.Failure,
			Transferred:        counts.Transferred,
			InProgress:         counts.InProgress,
			SuccessRate:        SuccessRate(counts.Success, counts.Failure),
			AvgHandlingMinutes: AverageHandlingMinutes(in.Records),
			OnlineAgents:       CountOnline(in.Presence),
		},
		Histogram:    BuildHistogram(in.Records, in.View, in.Date, loc, forecast, in.Now),
		Ranking:      ranking,
		Motives:      BuildMotiveFrequency(in.Records),
		Clients:      BuildClientMap(in.Records, in.Search),
		Presence:     BuildPresencePanel(in.Presence, ranking),
		TicketAlerts: ticketAlerts,
		SystemAlerts: ActiveSystemAlerts(in.Alerts, in.Now),
		Forecast:     forecast.Summary(),
	}
}
