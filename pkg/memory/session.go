package memory

import (
	"context"
	"sync"
	"time"
)

// SessionMessage is one turn of a conversation session. Unlike Record,
// session history is ordered and transient.
type SessionMessage struct {
	Role      string    `json:"role"` // system, user, assistant, tool
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionStore keeps ordered per-session conversation history.
type SessionStore interface {
	Append(ctx context.Context, sessionID string, msg SessionMessage) error
	History(ctx context.Context, sessionID string, limit int) ([]SessionMessage, error)
	Clear(ctx context.Context, sessionID string) error
}

// InMemorySessions is a process-local session store with an optional
// per-session message cap. System messages survive truncation.
type InMemorySessions struct {
	mu          sync.RWMutex
	sessions    map[string][]SessionMessage
	maxMessages int
}

// NewInMemorySessions creates a session store. maxMessages of zero means
// unbounded.
func NewInMemorySessions(maxMessages int) *InMemorySessions {
	return &InMemorySessions{
		sessions:    make(map[string][]SessionMessage),
		maxMessages: maxMessages,
	}
}

// Append adds a message to the session, truncating old non-system
// messages beyond the cap.
func (s *InMemorySessions) Append(_ context.Context, sessionID string, msg SessionMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := append(s.sessions[sessionID], msg)
	if s.maxMessages > 0 && len(msgs) > s.maxMessages {
		msgs = truncateWindow(msgs, s.maxMessages)
	}
	s.sessions[sessionID] = msgs
	return nil
}

// History returns the session's messages in order. A positive limit
// returns only the most recent messages.
func (s *InMemorySessions) History(_ context.Context, sessionID string, limit int) ([]SessionMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.sessions[sessionID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]SessionMessage, len(msgs))
	copy(out, msgs)
	return out, nil
}

// Clear removes all messages for a session.
func (s *InMemorySessions) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// truncateWindow keeps system messages plus the most recent others that
// fit within max.
func truncateWindow(msgs []SessionMessage, max int) []SessionMessage {
	var system, rest []SessionMessage
	for _, m := range msgs {
		if m.Role == "system" {
			system = append(system, m)
		} else {
			rest = append(rest, m)
		}
	}
	available := max - len(system)
	if available < 0 {
		available = 0
	}
	if len(rest) > available {
		rest = rest[len(rest)-available:]
	}
	out := make([]SessionMessage, 0, len(system)+len(rest))
	out = append(out, system...)
	out = append(out, rest...)
	return out
}
