// Package session provides per-session conversational memory for the
// query pipeline. Each session keeps a bounded, chronologically ordered
// list of question/answer turns that feeds classification context and
// specialist reasoning.
package session

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"
)

// MaxTurns is the per-session history bound. When a session exceeds it,
// the oldest turns are dropped first.
const MaxTurns = 20

// ContextTurns is how many of the most recent turns are rendered as
// classification context.
const ContextTurns = 6

// Turn is one completed exchange: the user's question and the system's
// final answer. Immutable once recorded.
type Turn struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Timestamp time.Time `json:"timestamp"`
}

// Memory is the process-wide registry of session histories.
// Sessions are created lazily on first append and never expire on their
// own; Clear removes a session explicitly.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string][]Turn
}

// NewMemory creates an empty conversation memory.
func NewMemory() *Memory {
	return &Memory{
		sessions: make(map[string][]Turn),
	}
}

// NewSessionID generates a fresh opaque session identifier.
func NewSessionID() string {
	return "s_" + shortuuid.New()
}

// Append adds a turn to the session, creating the session if absent.
// The list is truncated to the most recent MaxTurns entries, oldest
// dropped first. Append always succeeds.
func (m *Memory) Append(sessionID string, turn Turn) {
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	turns := append(m.sessions[sessionID], turn)
	if len(turns) > MaxTurns {
		turns = turns[len(turns)-MaxTurns:]
	}
	m.sessions[sessionID] = turns
}

// Get returns a copy of the session's turns in chronological order, or
// an empty slice if the session is unknown.
func (m *Memory) Get(sessionID string) []Turn {
	m.mu.RLock()
	defer m.mu.RUnlock()

	turns := m.sessions[sessionID]
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

// Clear removes the session entirely. Idempotent.
func (m *Memory) Clear(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}

// ActiveSessions returns the number of sessions currently held.
func (m *Memory) ActiveSessions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// RenderContext renders up to ContextTurns of the most recent turns as
// a plain-text transcript for classification prompts. Returns "" when
// there is no history.
func RenderContext(turns []Turn) string {
	if len(turns) == 0 {
		return ""
	}
	if len(turns) > ContextTurns {
		turns = turns[len(turns)-ContextTurns:]
	}

	var sb strings.Builder
	for _, t := range turns {
		fmt.Fprintf(&sb, "User: %s\n", t.Question)
		fmt.Fprintf(&sb, "Assistant: %s\n", t.Answer)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// LastAnswer returns the most recent answer in the history, or "" when
// the history is empty. Used by the classifier's continuation rule.
func LastAnswer(turns []Turn) string {
	if len(turns) == 0 {
		return ""
	}
	return turns[len(turns)-1].Answer
}
