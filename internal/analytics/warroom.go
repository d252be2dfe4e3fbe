package analytics

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/types"
)

const (
	// PageSize is the number of records shown per war-room page
	PageSize = 7

	warRoomTopMotives = 5
	warRoomTopClients = 5
)

// WarRoomFilter is the filter state of the war room
type WarRoomFilter struct {
	Agent  string
	Search string
	Page   int
}

// MatchesSearch reports whether term occurs, case-insensitively, in the
// customer name, the phone digits or the motive. An empty term matches.
func MatchesSearch(r types.AttendanceRecord, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}

	if strings.Contains(strings.ToLower(r.CustomerName), term) {
		return true
	}
	if strings.Contains(strings.ToLower(r.MotiveOrEmpty()), term) {
		return true
	}
	if strings.Contains(r.Phone, term) {
		return true
	}
	if d := digitsOnly(term); d != "" && strings.Contains(digitsOnly(r.Phone), d) {
		return true
	}
	return false
}

// FilterRecords applies the agent filter and the search term
func FilterRecords(records []types.AttendanceRecord, agent, search string) []types.AttendanceRecord {
	out := make([]types.AttendanceRecord, 0, len(records))
	for _, r := range records {
		if agent != "" && r.AgentID != agent {
			continue
		}
		if !MatchesSearch(r, search) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// TotalPages returns ceil(n / PageSize)
func TotalPages(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + PageSize - 1) / PageSize
}

// ClampPage keeps page within [1, totalPages]; with no pages it is 1
func ClampPage(page, totalPages int) int {
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return page
}

// BuildWarRoom produces the war-room view for the filter. The chart follows
// the dashboard view mode and carries per-bucket efficiency.
func BuildWarRoom(records []types.AttendanceRecord, filter WarRoomFilter, view types.ViewMode, date time.Time, loc *time.Location, now time.Time) types.WarRoomView {
	filtered := FilterRecords(records, filter.Agent, filter.Search)
	counts := CountStatuses(filtered)

	totalPages := TotalPages(len(filtered))
	page := ClampPage(filter.Page, totalPages)

	sorted := make([]types.AttendanceRecord, len(filtered))
	copy(sorted, filtered)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	start := (page - 1) * PageSize
	end := start + PageSize
	if start > len(sorted) {
		start = len(sorted)
	}
	if end > len(sorted) {
		end = len(sorted)
	}

	chart := BuildHistogram(filtered, view, date, loc, Forecast{}, now)

	return types.WarRoomView{
		Agent:              filter.Agent,
		Search:             filter.Search,
		Page:               page,
		PageSize:           PageSize,
		TotalPages:         totalPages,
		Total:              len(filtered),
		SuccessRate:        SuccessRate(counts.Success, counts.Failure),
		AvgHandlingMinutes: AverageHandlingMinutes(filtered),
		Chart:              WithEfficiency(chart),
		TopMotives:         TopMotives(filtered, warRoomTopMotives),
		TopClients:         TopClientsByContacts(filtered, warRoomTopClients),
		Records:            sorted[start:end],
	}
}

// TopClientsByContacts ranks clients by number of records, keyed by phone or,
// when the phone is missing, by customer name.
func TopClientsByContacts(records []types.AttendanceRecord, n int) []types.ClientContact {
	byKey := make(map[string]*types.ClientContact)
	order := make([]string, 0)

	for _, r := range records {
		phone := strings.TrimSpace(r.Phone)
		name := strings.TrimSpace(r.CustomerName)
		key := phone
		if key == "" {
			key = name
		}
		if key == "" {
			continue
		}

		c, ok := byKey[key]
		if !ok {
			c = &types.ClientContact{Key: key, Phone: phone}
			byKey[key] = c
			order = append(order, key)
		}
		c.Contacts++
		if c.Name == "" {
			c.Name = name
		}
		if r.CreatedAt.After(c.LastSeen) {
			c.LastSeen = r.CreatedAt
		}
	}

	result := make([]types.ClientContact, 0, len(order))
	for _, k := range order {
		result = append(result, *byKey[k])
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Contacts > result[j].Contacts
	})

	if len(result) > n {
		result = result[:n]
	}
	return result
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
