package types

import "time"

// ViewMode selects the time granularity of the dashboard
type ViewMode string

const (
	ViewDaily   ViewMode = "daily"
	ViewMonthly ViewMode = "monthly"
)

// HistogramBucket is one slot of a time-bucketed chart.
// Daily buckets are keyed by Hour, monthly buckets by Day.
type HistogramBucket struct {
	Label        string   `json:"label"`
	Hour         int      `json:"hour,omitempty"`
	Day          int      `json:"day,omitempty"`
	Total        int      `json:"total"`
	Success      int      `json:"success"`
	Failure      int      `json:"failure"`
	Transferred  int      `json:"transferred"`
	Unclassified int      `json:"unclassified"`
	Predicted    *int     `json:"predicted,omitempty"`
	Efficiency   *float64 `json:"efficiency,omitempty"` // 0-100, war room only
}

// Histogram is a gap-free series of buckets
type Histogram struct {
	Mode    ViewMode          `json:"mode"`
	Buckets []HistogramBucket `json:"buckets"`
}

// Sum returns the total count across all buckets
func (h Histogram) Sum() int {
	total := 0
	for _, b := range h.Buckets {
		total += b.Total
	}
	return total
}

// AgentRank is one row of the productivity ranking
type AgentRank struct {
	Position    int     `json:"position"`
	AgentID     string  `json:"agentId"`
	Initials    string  `json:"initials"`
	Success     int     `json:"success"`
	Failure     int     `json:"failure"`
	Transferred int     `json:"transferred"`
	InProgress  int     `json:"inProgress"`
	Productive  int     `json:"productive"`  // success + failure
	SuccessRate float64 `json:"successRate"` // 0-1
}

// MotiveCount is one slice of the motive distribution
type MotiveCount struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
	Color string `json:"color"`
}

// ClientSummary is the rollup of every contact made with one phone number
type ClientSummary struct {
	Phone          string    `json:"phone"`
	Name           string    `json:"name"`
	Contacts       int       `json:"contacts"`
	RatingCount    int       `json:"ratingCount"`
	RatingSum      int       `json:"-"`
	AverageRating  *float64  `json:"averageRating,omitempty"`
	RatingLabel    string    `json:"ratingLabel"` // "N/A" when unrated
	LastContact    time.Time `json:"lastContact"`
	LastAgent      string    `json:"lastAgent"`
	DominantMotive string    `json:"dominantMotive"`
}

// ClientMap holds the three client rankings shown on the dashboard
type ClientMap struct {
	TotalClients int             `json:"totalClients"`
	TopVolume    []ClientSummary `json:"topVolume"`
	TopRated     []ClientSummary `json:"topRated"`
	Detractors   []ClientSummary `json:"detractors"`
}

// ClientContact is a client ranked by contact count inside the war room
type ClientContact struct {
	Key      string    `json:"key"`
	Name     string    `json:"name"`
	Phone    string    `json:"phone,omitempty"`
	Contacts int       `json:"contacts"`
	LastSeen time.Time `json:"lastSeen"`
}

// WarRoomView is the filtered, paginated ticket inspection view
type WarRoomView struct {
	Agent              string             `json:"agent,omitempty"`
	Search             string             `json:"search,omitempty"`
	Page               int                `json:"page"`
	PageSize           int                `json:"pageSize"`
	TotalPages         int                `json:"totalPages"`
	Total              int                `json:"total"`
	SuccessRate        float64            `json:"successRate"`
	AvgHandlingMinutes float64            `json:"avgHandlingMinutes"`
	Chart              Histogram          `json:"chart"`
	TopMotives         []MotiveCount      `json:"topMotives"`
	TopClients         []ClientContact    `json:"topClients"`
	Records            []AttendanceRecord `json:"records"`
}

// PresenceEntry is one row of the presence panel
type PresenceEntry struct {
	AgentID      string    `json:"agentId"`
	Initials     string    `json:"initials"`
	Online       bool      `json:"online"`
	LastSeen     time.Time `json:"lastSeen"`
	OpenChats    int       `json:"openChats"`
	TotalUnread  int       `json:"totalUnread"`
	RankPosition int       `json:"rankPosition,omitempty"`
}

// ForecastSummary is the part of the prediction payload shown to operators
type ForecastSummary struct {
	Available      bool   `json:"available"`
	ReferenceDate  string `json:"referenceDate,omitempty"`
	ExpectedTotal  int    `json:"expectedTotal"`
	Recommendation string `json:"recommendation,omitempty"`
	Trend          string `json:"trend,omitempty"`
}

// DashboardKPIs are the headline numbers of the dashboard
type DashboardKPIs struct {
	Total              int     `json:"total"`
	Success            int     `json:"success"`
	Failure            int     `json:"failure"`
	Transferred        int     `json:"transferred"`
	InProgress         int     `json:"inProgress"`
	SuccessRate        float64 `json:"successRate"`
	AvgHandlingMinutes float64 `json:"avgHandlingMinutes"`
	OnlineAgents       int     `json:"onlineAgents"`
}

// DashboardSnapshot is the payload pushed to dashboards on every change
type DashboardSnapshot struct {
	Type         string          `json:"type"` // always "dashboard_snapshot"
	Date         string          `json:"date"` // YYYY-MM-DD
	View         ViewMode        `json:"view"`
	Timestamp    time.Time       `json:"timestamp"`
	KPIs         DashboardKPIs   `json:"kpis"`
	Histogram    Histogram       `json:"histogram"`
	Ranking      []AgentRank     `json:"ranking"`
	Motives      []MotiveCount   `json:"motives"`
	Clients      ClientMap       `json:"clients"`
	Presence     []PresenceEntry `json:"presence"`
	TicketAlerts []TicketAlert   `json:"ticketAlerts"`
	SystemAlerts []SystemAlert   `json:"systemAlerts"`
	Forecast     ForecastSummary `json:"forecast"`
}
