// Package session keeps per-conversation history in memory.
//
// History is a bounded sliding window of complete exchanges (user query
// plus assistant answer). Sessions live for the process lifetime; there
// is no persistence, restarting the program starts fresh conversations.
package session

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"
)

// Exchange is one completed query/answer pair.
type Exchange struct {
	Query  string
	Answer string
}

// Store manages conversation sessions. Safe for concurrent use.
type Store struct {
	maxHistory int
	logger     *slog.Logger

	mu       sync.RWMutex
	sessions map[string][]Exchange
}

// NewStore creates a session store keeping at most maxHistory exchanges
// per session.
func NewStore(maxHistory int, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if maxHistory < 1 {
		maxHistory = 2
	}
	return &Store{
		maxHistory: maxHistory,
		logger:     logger,
		sessions:   make(map[string][]Exchange),
	}
}

// GetOrCreate returns id unchanged when the session exists, otherwise
// it creates a new session and returns its generated id. Passing an
// empty id always creates.
func (s *Store) GetOrCreate(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if _, ok := s.sessions[id]; ok {
			return id
		}
	}
	id = uuid.NewString()
	s.sessions[id] = nil
	s.logger.Debug("session created", "session_id", id)
	return id
}

// Append records one completed exchange, creating the session if
// needed. The oldest exchange is evicted once the window is full.
// Callers append only after the whole pipeline succeeded, so a failed
// query never pollutes history.
func (s *Store) Append(id, query, answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.sessions[id], Exchange{Query: query, Answer: answer})
	if len(history) > s.maxHistory {
		history = history[len(history)-s.maxHistory:]
	}
	s.sessions[id] = history
}

// History returns a copy of the session's exchanges, oldest first.
func (s *Store) History(id string) []Exchange {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.sessions[id]
	out := make([]Exchange, len(history))
	copy(out, history)
	return out
}

// Messages returns the session history as alternating user/model
// messages ready to prepend to a generation call.
func (s *Store) Messages(id string) []*ai.Message {
	history := s.History(id)
	msgs := make([]*ai.Message, 0, len(history)*2)
	for _, e := range history {
		msgs = append(msgs,
			ai.NewUserMessage(ai.NewTextPart(e.Query)),
			ai.NewModelMessage(ai.NewTextPart(e.Answer)),
		)
	}
	return msgs
}

// FormatForContext renders the history as a plain transcript:
//
//	User: <query>
//	Assistant: <answer>
//
// Returns "" for an unknown or empty session.
func (s *Store) FormatForContext(id string) string {
	history := s.History(id)
	if len(history) == 0 {
		return ""
	}
	lines := make([]string, 0, len(history)*2)
	for _, e := range history {
		lines = append(lines, "User: "+e.Query, "Assistant: "+e.Answer)
	}
	return strings.Join(lines, "\n")
}

// Clear removes a session and its history.
func (s *Store) Clear(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}
