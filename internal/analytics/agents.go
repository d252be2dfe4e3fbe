package analytics

import (
	"sort"
	"strings"
	"unicode"

	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/types"
)

// DefaultAgentDenylist holds placeholder and system account names that never
// appear in the productivity ranking.
var DefaultAgentDenylist = []string{
	"atendente",
	"sistema",
	"system",
	"bot",
	"admin",
	"teste",
	"desconhecido",
	"unknown",
}

// IsDeniedAgent reports whether agentID contains any denylisted token,
// ignoring case. Empty ids are always denied.
func IsDeniedAgent(agentID string, denylist []string) bool {
	id := strings.ToLower(strings.TrimSpace(agentID))
	if id == "" {
		return true
	}
	for _, d := range denylist {
		if d == "" {
			continue
		}
		if strings.Contains(id, strings.ToLower(d)) {
			return true
		}
	}
	return false
}

// Initials returns the uppercased first letters of up to two name tokens
func Initials(name string) string {
	out := make([]rune, 0, 2)
	for _, tok := range strings.Fields(name) {
		out = append(out, unicode.ToUpper([]rune(tok)[0]))
		if len(out) == 2 {
			break
		}
	}
	return string(out)
}

// BuildAgentRanking rolls records up per agent. Denylisted agents and agents
// without any productive ticket are left out. The result is ordered by
// productive total, descending; ties keep first-appearance order.
func BuildAgentRanking(records []types.AttendanceRecord, denylist []string) []types.AgentRank {
	counts := make(map[string]*StatusCounts)
	order := make([]string, 0)

	for _, r := range records {
		if IsDeniedAgent(r.AgentID, denylist) {
			continue
		}
		c, ok := counts[r.AgentID]
		if !ok {
			c = &StatusCounts{}
			counts[r.AgentID] = c
			order = append(order, r.AgentID)
		}
		c.Add(r.Visual)
	}

	ranking := make([]types.AgentRank, 0, len(order))
	for _, id := range order {
		c := counts[id]
		if c.Productive() == 0 {
			continue
		}
		ranking = append(ranking, types.AgentRank{
			AgentID:     id,
			Initials:    Initials(id),
			Success:     c.Success,
			Failure:     c.Failure,
			Transferred: c.Transferred,
			InProgress:  c.InProgress,
			Productive:  c.Productive(),
			SuccessRate: SuccessRate(c.Success, c.Failure),
		})
	}

	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Productive > ranking[j].Productive
	})
	for i := range ranking {
		ranking[i].Position = i + 1
	}

	return ranking
}
