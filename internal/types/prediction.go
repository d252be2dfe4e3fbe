package types

import (
	"encoding/json"
	"time"
)

// PredictionType is the horizon of a forecast payload
type PredictionType string

const (
	PredictionHourly PredictionType = "hourly"
	PredictionDaily  PredictionType = "daily"
)

// PredictionPayload is a forecast produced by the external prediction job.
// Data is kept opaque and read with path queries.
type PredictionPayload struct {
	Type          PredictionType  `json:"type" dynamodbav:"Type"`
	ReferenceDate string          `json:"referenceDate" dynamodbav:"ReferenceDate"` // YYYY-MM-DD
	Data          json.RawMessage `json:"data" dynamodbav:"Data"`
	CreatedAt     time.Time       `json:"createdAt" dynamodbav:"CreatedAt"`
}

// RankingPeriod is the window a ranking entry covers
type RankingPeriod string

const (
	PeriodToday RankingPeriod = "today"
	PeriodMonth RankingPeriod = "month"
)

// RankingEntry is a per-agent score for a period
type RankingEntry struct {
	AgentID            string        `json:"agentId" dynamodbav:"AgentID"`
	Period             RankingPeriod `json:"period" dynamodbav:"Period"`
	ReferenceDate      string        `json:"referenceDate" dynamodbav:"ReferenceDate"`
	Points             int           `json:"points" dynamodbav:"Points"`
	TicketCount        int           `json:"ticketCount" dynamodbav:"TicketCount"`
	AvgHandlingMinutes float64       `json:"avgHandlingMinutes" dynamodbav:"AvgHandlingMinutes"`
	Achievements       []string      `json:"achievements,omitempty" dynamodbav:"Achievements"`
}
