package state

import "github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/analytics"

type warRoomSession struct {
	agent  string
	search string
	page   int
}

// UpdateWarRoom applies a war-room filter change. Changing the agent or the
// search term resets the page to 1; page <= 0 keeps the current page. The
// page is clamped later, against the filtered total.
func (c *Container) UpdateWarRoom(agent, search string, page int) analytics.WarRoomFilter {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := &c.warRoom
	switch {
	case agent != s.agent || search != s.search:
		s.agent, s.search, s.page = agent, search, 1
	case page > 0:
		s.page = page
	}

	return analytics.WarRoomFilter{Agent: s.agent, Search: s.search, Page: s.page}
}

// WarRoomFilter returns the current war-room filter
func (c *Container) WarRoomFilter() analytics.WarRoomFilter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return analytics.WarRoomFilter{Agent: c.warRoom.agent, Search: c.warRoom.search, Page: c.warRoom.page}
}
