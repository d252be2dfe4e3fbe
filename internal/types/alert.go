package types

import "time"

// AlertSeverity represents the severity of an alert
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// SystemAlert is an operational alert produced by an external monitor
type SystemAlert struct {
	ID         string        `json:"id" dynamodbav:"ID"`
	Severity   AlertSeverity `json:"severity" dynamodbav:"Severity"`
	Category   string        `json:"category" dynamodbav:"Category"`
	Message    string        `json:"message" dynamodbav:"Message"`
	Suggestion string        `json:"suggestion,omitempty" dynamodbav:"Suggestion"`
	Timestamp  time.Time     `json:"timestamp" dynamodbav:"Timestamp"`
	Resolved   bool          `json:"resolved" dynamodbav:"Resolved"`
}

// AgingLevel classifies how long an in-progress ticket has been open
type AgingLevel string

const (
	AgingFresh     AgingLevel = "fresh"
	AgingAttention AgingLevel = "attention"
	AgingCritical  AgingLevel = "critical"
)

// TicketAlert flags an in-progress ticket that has been open too long
type TicketAlert struct {
	TicketID string        `json:"ticketId"`
	AgentID  string        `json:"agentId"`
	Customer string        `json:"customer"`
	Rule     string        `json:"rule"`
	Level    AgingLevel    `json:"level"`
	Severity AlertSeverity `json:"severity"`
	Message  string        `json:"message"`
}
