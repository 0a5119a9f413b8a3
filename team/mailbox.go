package team

import (
	"sync"
	"time"

	"github.com/relaylabs/agentloop/corerr"
)

const broadcastTo = "all"

// Message is one entry in a team's ordered mailbox.
type Message struct {
	From      string
	To        string
	Content   string
	Broadcast bool
	Timestamp time.Time
}

// Mailbox validates sender/recipient against a known-member set and keeps
// every message in the order it was sent.
type Mailbox struct {
	mu       sync.Mutex
	known    map[string]bool
	messages []Message
}

func NewMailbox(knownMembers []string) *Mailbox {
	known := make(map[string]bool, len(knownMembers))
	for _, m := range knownMembers {
		known[m] = true
	}
	return &Mailbox{known: known}
}

func (m *Mailbox) SendMessage(from, to, content string) error {
	if !m.known[from] {
		return corerr.New("team", "sendMessage", corerr.ValidationFailed, "unknown sender "+from, nil)
	}
	if to != broadcastTo && !m.known[to] {
		return corerr.New("team", "sendMessage", corerr.ValidationFailed, "unknown recipient "+to, nil)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, Message{From: from, To: to, Content: content, Broadcast: to == broadcastTo, Timestamp: time.Now()})
	return nil
}

func (m *Mailbox) Broadcast(from, content string) error {
	return m.SendMessage(from, broadcastTo, content)
}

// For returns every message addressed to member or broadcast to all, in
// send order.
func (m *Mailbox) For(member string) []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Message
	for _, msg := range m.messages {
		if msg.To == member || msg.Broadcast {
			out = append(out, msg)
		}
	}
	return out
}

func (m *Mailbox) All() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.messages))
	copy(out, m.messages)
	return out
}
