package types

import "time"

// ChatUnread is an open conversation with its unread message count
type ChatUnread struct {
	Phone  string `json:"phone" dynamodbav:"Phone"`
	Unread int    `json:"unread" dynamodbav:"Unread"`
}

// AgentPresence is the online state of an agent as reported by the store
type AgentPresence struct {
	AgentID  string       `json:"agentId" dynamodbav:"AgentID"`
	Online   bool         `json:"online" dynamodbav:"Online"`
	LastSeen time.Time    `json:"lastSeen" dynamodbav:"LastSeen"`
	Chats    []ChatUnread `json:"chats,omitempty" dynamodbav:"Chats"`
}

// TotalUnread sums the unread counts of all open chats
func (p AgentPresence) TotalUnread() int {
	total := 0
	for _, c := range p.Chats {
		total += c.Unread
	}
	return total
}
