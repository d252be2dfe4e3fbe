// Package schema holds the table and column names the feed store reads from.
// The contract is plain configuration: defaults match the production database
// and every name can be overridden through SCHEMA_* environment variables.
package schema

import (
	"errors"
	"fmt"
	"regexp"
)

// Version is the contract revision this build understands
const Version = "2"

// ErrUnsupportedVersion is returned when SCHEMA_VERSION names a contract
// revision this build cannot read.
var ErrUnsupportedVersion = errors.New("unsupported schema version")

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Attendance maps AttendanceRecord fields to columns
type Attendance struct {
	Table        string
	ID           string
	AgentID      string
	CustomerName string
	Phone        string
	Status       string
	Motive       string
	CreatedAt    string
	UpdatedAt    string
	Rating       string
	Origin       string
}

// Presence maps AgentPresence fields to columns. Chats is a JSON array of
// {phone, unread} objects.
type Presence struct {
	Table    string
	AgentID  string
	Online   string
	LastSeen string
	Chats    string
}

// Alerts maps SystemAlert fields to columns
type Alerts struct {
	Table      string
	ID         string
	Severity   string
	Category   string
	Message    string
	Suggestion string
	CreatedAt  string
	Resolved   string
}

// Predictions maps PredictionPayload fields to columns
type Predictions struct {
	Table         string
	Type          string
	ReferenceDate string
	Data          string
	CreatedAt     string
}

// Rankings maps RankingEntry fields to columns
type Rankings struct {
	Table              string
	AgentID            string
	Period             string
	ReferenceDate      string
	Points             string
	TicketCount        string
	AvgHandlingMinutes string
	Achievements       string
}

// Transfers maps TransferLog fields to columns
type Transfers struct {
	Table     string
	ID        string
	TicketID  string
	FromAgent string
	ToAgent   string
	Reason    string
	Note      string
	CreatedAt string
}

// Contract is the full set of names the store depends on
type Contract struct {
	Version     string
	Attendance  Attendance
	Presence    Presence
	Alerts      Alerts
	Predictions Predictions
	Rankings    Rankings
	Transfers   Transfers
}

// Default returns the contract of the current production schema
func Default() Contract {
	return Contract{
		Version: Version,
		Attendance: Attendance{
			Table:        "atendimentos",
			ID:           "id",
			AgentID:      "atendente",
			CustomerName: "cliente_nome",
			Phone:        "cliente_telefone",
			Status:       "status",
			Motive:       "motivo",
			CreatedAt:    "created_at",
			UpdatedAt:    "updated_at",
			Rating:       "avaliacao",
			Origin:       "origem",
		},
		Presence: Presence{
			Table:    "agent_presence",
			AgentID:  "agent_id",
			Online:   "online",
			LastSeen: "last_seen",
			Chats:    "chats",
		},
		Alerts: Alerts{
			Table:      "system_alerts",
			ID:         "id",
			Severity:   "severity",
			Category:   "category",
			Message:    "message",
			Suggestion: "suggestion",
			CreatedAt:  "created_at",
			Resolved:   "resolved",
		},
		Predictions: Predictions{
			Table:         "predictions",
			Type:          "type",
			ReferenceDate: "reference_date",
			Data:          "data",
			CreatedAt:     "created_at",
		},
		Rankings: Rankings{
			Table:              "agent_rankings",
			AgentID:            "agent_id",
			Period:             "period",
			ReferenceDate:      "reference_date",
			Points:             "points",
			TicketCount:        "ticket_count",
			AvgHandlingMinutes: "avg_handling_minutes",
			Achievements:       "achievements",
		},
		Transfers: Transfers{
			Table:     "transfer_logs",
			ID:        "id",
			TicketID:  "ticket_id",
			FromAgent: "from_agent",
			ToAgent:   "to_agent",
			Reason:    "reason",
			Note:      "note",
			CreatedAt: "created_at",
		},
	}
}

type binding struct {
	key string
	ptr *string
}

func (c *Contract) bindings() []binding {
	a, p, al, pr, r, t := &c.Attendance, &c.Presence, &c.Alerts, &c.Predictions, &c.Rankings, &c.Transfers
	return []binding{
		{"SCHEMA_ATTENDANCE_TABLE", &a.Table},
		{"SCHEMA_ATTENDANCE_ID", &a.ID},
		{"SCHEMA_ATTENDANCE_AGENT_ID", &a.AgentID},
		{"SCHEMA_ATTENDANCE_CUSTOMER_NAME", &a.CustomerName},
		{"SCHEMA_ATTENDANCE_PHONE", &a.Phone},
		{"SCHEMA_ATTENDANCE_STATUS", &a.Status},
		{"SCHEMA_ATTENDANCE_MOTIVE", &a.Motive},
		{"SCHEMA_ATTENDANCE_CREATED_AT", &a.CreatedAt},
		{"SCHEMA_ATTENDANCE_UPDATED_AT", &a.UpdatedAt},
		{"SCHEMA_ATTENDANCE_RATING", &a.Rating},
		{"SCHEMA_ATTENDANCE_ORIGIN", &a.Origin},

		{"SCHEMA_PRESENCE_TABLE", &p.Table},
		{"SCHEMA_PRESENCE_AGENT_ID", &p.AgentID},
		{"SCHEMA_PRESENCE_ONLINE", &p.Online},
		{"SCHEMA_PRESENCE_LAST_SEEN", &p.LastSeen},
		{"SCHEMA_PRESENCE_CHATS", &p.Chats},

		{"SCHEMA_ALERTS_TABLE", &al.Table},
		{"SCHEMA_ALERTS_ID", &al.ID},
		{"SCHEMA_ALERTS_SEVERITY", &al.Severity},
		{"SCHEMA_ALERTS_CATEGORY", &al.Category},
		{"SCHEMA_ALERTS_MESSAGE", &al.Message},
		{"SCHEMA_ALERTS_SUGGESTION", &al.Suggestion},
		{"SCHEMA_ALERTS_CREATED_AT", &al.CreatedAt},
		{"SCHEMA_ALERTS_RESOLVED", &al.Resolved},

		{"SCHEMA_PREDICTIONS_TABLE", &pr.Table},
		{"SCHEMA_PREDICTIONS_TYPE", &pr.Type},
		{"SCHEMA_PREDICTIONS_REFERENCE_DATE", &pr.ReferenceDate},
		{"SCHEMA_PREDICTIONS_DATA", &pr.Data},
		{"SCHEMA_PREDICTIONS_CREATED_AT", &pr.CreatedAt},

		{"SCHEMA_RANKINGS_TABLE", &r.Table},
		{"SCHEMA_RANKINGS_AGENT_ID", &r.AgentID},
		{"SCHEMA_RANKINGS_PERIOD", &r.Period},
		{"SCHEMA_RANKINGS_REFERENCE_DATE", &r.ReferenceDate},
		{"SCHEMA_RANKINGS_POINTS", &r.Points},
		{"SCHEMA_RANKINGS_TICKET_COUNT", &r.TicketCount},
		{"SCHEMA_RANKINGS_AVG_HANDLING_MINUTES", &r.AvgHandlingMinutes},
		{"SCHEMA_RANKINGS_ACHIEVEMENTS", &r.Achievements},

		{"SCHEMA_TRANSFERS_TABLE", &t.Table},
		{"SCHEMA_TRANSFERS_ID", &t.ID},
		{"SCHEMA_TRANSFERS_TICKET_ID", &t.TicketID},
		{"SCHEMA_TRANSFERS_FROM_AGENT", &t.FromAgent},
		{"SCHEMA_TRANSFERS_TO_AGENT", &t.ToAgent},
		{"SCHEMA_TRANSFERS_REASON", &t.Reason},
		{"SCHEMA_TRANSFERS_NOTE", &t.Note},
		{"SCHEMA_TRANSFERS_CREATED_AT", &t.CreatedAt},
	}
}

// Load builds the contract from defaults plus overrides read through getenv.
// Empty values keep the default.
func Load(getenv func(string) string) (Contract, error) {
	c := Default()

	if v := getenv("SCHEMA_VERSION"); v != "" && v != Version {
		return Contract{}, fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedVersion, v, Version)
	}

	for _, b := range c.bindings() {
		if v := getenv(b.key); v != "" {
			*b.ptr = v
		}
	}

	if err := c.Validate(); err != nil {
		return Contract{}, err
	}
	return c, nil
}

// Validate checks that every name is a plain SQL identifier
func (c Contract) Validate() error {
	for _, b := range c.bindings() {
		if !identifier.MatchString(*b.ptr) {
			return fmt.Errorf("invalid %s: %q is not a valid identifier", b.key, *b.ptr)
		}
	}
	return nil
}
