// Package analytics derives the dashboard view models from fetched records.
// Every function here is a pure recomputation over its inputs: no I/O, no
// retained state between calls.
package analytics

import (
	"strings"
	"time"

	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/types"
)

// Match order matters: "sem sucesso" must be seen as a failure before
// "sucesso" can match.
var (
	transferredMarkers = []string{"transferido"}
	failureMarkers     = []string{"sem sucesso", "falha", "não"}
	successMarkers     = []string{"sucesso", "resolvido"}
)

// Classify maps free-text status to a visual status
func Classify(raw string) types.VisualStatus {
	s := strings.ToLower(raw)

	switch {
	case containsAny(s, transferredMarkers):
		return types.VisualTransferred
	case containsAny(s, failureMarkers):
		return types.VisualFailure
	case containsAny(s, successMarkers):
		return types.VisualSuccess
	default:
		return types.VisualInProgress
	}
}

// DurationMinutes returns whole minutes elapsed since created. Terminal
// tickets are measured up to updated when known, open ones up to now.
func DurationMinutes(created time.Time, updated *time.Time, visual types.VisualStatus, now time.Time) int {
	end := now
	if visual.IsTerminal() && updated != nil {
		end = *updated
	}

	ms := end.Sub(created).Milliseconds()
	if ms <= 0 {
		return 0
	}
	return int(ms / 60000)
}

// Normalize returns a copy of records with the derived fields filled in
func Normalize(records []types.AttendanceRecord, now time.Time) []types.AttendanceRecord {
	out := make([]types.AttendanceRecord, len(records))
	for i, r := range records {
		r.Visual = Classify(r.Status)
		r.DurationMinutes = DurationMinutes(r.CreatedAt, r.UpdatedAt, r.Visual, now)
		out[i] = r
	}
	return out
}

// StatusCounts tallies records per visual status
type StatusCounts struct {
	Success     int
	Failure     int
	Transferred int
	InProgress  int
}

// Total returns the number of records counted
func (c StatusCounts) Total() int {
	return c.Success + c.Failure + c.Transferred + c.InProgress
}

// Productive returns success + failure
func (c StatusCounts) Productive() int {
	return c.Success + c.Failure
}

// Add counts one record with the given status
func (c *StatusCounts) Add(v types.VisualStatus) {
	switch v {
	case types.VisualSuccess:
		c.Success++
	case types.VisualFailure:
		c.Failure++
	case types.VisualTransferred:
		c.Transferred++
	default:
		c.InProgress++
	}
}

// CountStatuses tallies the visual status of every record
func CountStatuses(records []types.AttendanceRecord) StatusCounts {
	var c StatusCounts
	for _, r := range records {
		c.Add(r.Visual)
	}
	return c
}

// SuccessRate returns success / (success + failure), or 0 when nothing
// productive was handled.
func SuccessRate(success, failure int) float64 {
	denom := success + failure
	if denom <= 0 {
		return 0
	}
	return float64(success) / float64(denom)
}

// AverageHandlingMinutes averages DurationMinutes over terminal records only
func AverageHandlingMinutes(records []types.AttendanceRecord) float64 {
	sum, n := 0, 0
	for _, r := range records {
		if !r.Visual.IsTerminal() {
			continue
		}
		sum += r.DurationMinutes
		n++
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
