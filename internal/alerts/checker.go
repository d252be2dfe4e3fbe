package alerts

import (
	"fmt"
	"sort"
	"time"

	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/types"
)

// Thresholds configures when an open ticket needs attention
type Thresholds struct {
	Warning  time.Duration
	Critical time.Duration
}

// DefaultThresholds returns the 15/30 minute aging thresholds
func DefaultThresholds() Thresholds {
	return Thresholds{
		Warning:  15 * time.Minute,
		Critical: 30 * time.Minute,
	}
}

// ClassifyAging returns the aging level of a record at now.
// Terminal records are always fresh.
func ClassifyAging(record types.AttendanceRecord, now time.Time, th Thresholds) types.AgingLevel {
	if record.Visual.IsTerminal() {
		return types.AgingFresh
	}

	age := now.Sub(record.CreatedAt)
	switch {
	case th.Critical > 0 && age >= th.Critical:
		return types.AgingCritical
	case th.Warning > 0 && age >= th.Warning:
		return types.AgingAttention
	default:
		return types.AgingFresh
	}
}

// CheckTicketAging evaluates the aging rules over records and returns one
// alert per in-progress ticket past a threshold, oldest first.
func CheckTicketAging(records []types.AttendanceRecord, now time.Time, th Thresholds) []types.TicketAlert {
	type aged struct {
		alert types.TicketAlert
		age   time.Duration
	}

	var found []aged
	for _, r := range records {
		level := ClassifyAging(r, now, th)
		if level == types.AgingFresh {
			continue
		}

		dur := now.Sub(r.CreatedAt)
		alert := types.TicketAlert{
			TicketID: r.ID,
			AgentID:  r.AgentID,
			Customer: r.CustomerName,
			Level:    level,
		}

		switch level {
		case types.AgingAttention:
			alert.Rule = "ticket_open_long"
			alert.Severity = types.SeverityWarning
			alert.Message = fmt.Sprintf("Open for %s", formatDuration(dur))
		case types.AgingCritical:
			alert.Rule = "ticket_open_critical"
			alert.Severity = types.SeverityCritical
			alert.Message = fmt.Sprintf("Open for %s", formatDuration(dur))
		}

		found = append(found, aged{alert: alert, age: dur})
	}

	sort.SliceStable(found, func(i, j int) bool {
		return found[i].age > found[j].age
	})

	result := make([]types.TicketAlert, 0, len(found))
	for _, f := range found {
		result = append(result, f.alert)
	}
	return result
}

func formatDuration(d time.Duration) string {
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	if mins >= 60 {
		hours := mins / 60
		mins = mins % 60
		return fmt.Sprintf("%dh%dm", hours, mins)
	}
	return fmt.Sprintf("%dm%ds", mins, secs)
}
