package types

import "time"

// VisualStatus is the normalized outcome of an attendance record
type VisualStatus string

const (
	VisualInProgress  VisualStatus = "in_progress"
	VisualSuccess     VisualStatus = "success"
	VisualFailure     VisualStatus = "failure"
	VisualTransferred VisualStatus = "transferred"
)

// IsTerminal reports whether the status closes the ticket
func (v VisualStatus) IsTerminal() bool {
	return v == VisualSuccess || v == VisualFailure || v == VisualTransferred
}

// Origin tags where the contact started
type Origin string

const (
	OriginInbound  Origin = "inbound"
	OriginOutbound Origin = "outbound"
)

// AttendanceRecord is a single ticket handled by an agent.
// Records are written by the agent-facing system and only read here.
type AttendanceRecord struct {
	ID           string     `json:"id" dynamodbav:"ID"`
	AgentID      string     `json:"agentId" dynamodbav:"AgentID"`
	CustomerName string     `json:"customerName" dynamodbav:"CustomerName"`
	Phone        string     `json:"phone" dynamodbav:"Phone"`
	Status       string     `json:"status" dynamodbav:"Status"`
	Motive       *string    `json:"motive,omitempty" dynamodbav:"Motive"`
	CreatedAt    time.Time  `json:"createdAt" dynamodbav:"CreatedAt"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty" dynamodbav:"UpdatedAt"`
	Rating       *int       `json:"rating,omitempty" dynamodbav:"Rating"`
	Origin       Origin     `json:"origin,omitempty" dynamodbav:"Origin"`

	// Derived at load time
	DurationMinutes int          `json:"durationMinutes" dynamodbav:"-"`
	Visual          VisualStatus `json:"visualStatus" dynamodbav:"-"`
}

// MotiveOrEmpty returns the motive text or "" when absent
func (r AttendanceRecord) MotiveOrEmpty() string {
	if r.Motive == nil {
		return ""
	}
	return *r.Motive
}

// TransferLog records a ticket handed from one agent to another
type TransferLog struct {
	ID        string    `json:"id" dynamodbav:"ID"`
	TicketID  string    `json:"ticketId" dynamodbav:"TicketID"`
	FromAgent string    `json:"fromAgent" dynamodbav:"FromAgent"`
	ToAgent   string    `json:"toAgent" dynamodbav:"ToAgent"`
	Reason    string    `json:"reason" dynamodbav:"Reason"`
	Note      string    `json:"note,omitempty" dynamodbav:"Note"`
	CreatedAt time.Time `json:"createdAt" dynamodbav:"CreatedAt"`
}
