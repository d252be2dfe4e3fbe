package analytics

import (
	"sort"
	"time"

	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/types"
)

// AlertWindow bounds how far back system alerts are shown
const AlertWindow = 4 * time.Hour

// BuildPresencePanel joins presence with the ranking. Online agents come
// first, then agents with more unread messages.
func BuildPresencePanel(presence []types.AgentPresence, ranking []types.AgentRank) []types.PresenceEntry {
	positions := make(map[string]int, len(ranking))
	for _, r := range ranking {
		positions[r.AgentID] = r.Position
	}

	entries := make([]types.PresenceEntry, 0, len(presence))
	for _, p := range presence {
		entries = append(entries, types.PresenceEntry{
			AgentID:      p.AgentID,
			Initials:     Initials(p.AgentID),
			Online:       p.Online,
			LastSeen:     p.LastSeen,
			OpenChats:    len(p.Chats),
			TotalUnread:  p.TotalUnread(),
			RankPosition: positions[p.AgentID],
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Online != entries[j].Online {
			return entries[i].Online
		}
		return entries[i].TotalUnread > entries[j].TotalUnread
	})
	return entries
}

// CountOnline returns how many agents are flagged online
func CountOnline(presence []types.AgentPresence) int {
	n := 0
	for _, p := range presence {
		if p.Online {
			n++
		}
	}
	return n
}

// ActiveSystemAlerts keeps unresolved alerts raised within AlertWindow of
// now, newest first.
func ActiveSystemAlerts(alerts []types.SystemAlert, now time.Time) []types.SystemAlert {
	cutoff := now.Add(-AlertWindow)
	out := make([]types.SystemAlert, 0, len(alerts))
	for _, a := range alerts {
		if a.Resolved || a.Timestamp.Before(cutoff) {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}
