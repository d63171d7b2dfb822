package tutor

import (
	"strings"
	"sync"
)

type Message struct {
	Role string
	Text string
}

type PathStep struct {
	Step        int    `json:"step"`
	Topic       string `json:"topic"`
	Description string `json:"description"`
}

// Session is the per-conversation state. The turn handler takes a Session
// value and returns its successor; nothing else mutates it.
type Session struct {
	State State

	Grade   string
	Subject string
	Topic   string

	Content      string
	LearningPath []PathStep

	KnowledgeLevel string
	NextTopic      string
	Difficulty     string

	CurrentQuestion string
	CurrentAnswer   string

	// AskedQuestions holds question texts already presented for the
	// active topic; cleared whenever the topic changes.
	AskedQuestions map[string]struct{}

	// Log is the append-only conversation history, flattened into the
	// knowledge-analysis prompt.
	Log []Message
}

func NewSession() Session {
	return Session{
		State:          StateGreeting,
		AskedQuestions: map[string]struct{}{},
	}
}

func (s *Session) resetAsked() {
	s.AskedQuestions = map[string]struct{}{}
}

func (s *Session) recordAsked(questionText string) {
	s.AskedQuestions[questionText] = struct{}{}
}

func formatLog(log []Message) string {
	if len(log) == 0 {
		return ""
	}

	var builder strings.Builder

	for _, msg := range log {
		builder.WriteString(msg.Role)
		builder.WriteString(": ")
		builder.WriteString(msg.Text)
		builder.WriteString("\n")
	}

	return builder.String()
}

// sessionStore hands out one slot per session id. The slot mutex serializes
// turns of the same session; turns of distinct sessions run independently.
type sessionStore struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	mu   sync.Mutex
	sess Session
}

func newSessionStore() *sessionStore {
	return &sessionStore{
		slots: map[string]*slot{},
	}
}

func (st *sessionStore) get(id string) *slot {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.slots[id]
	if !ok {
		s = &slot{sess: NewSession()}
		st.slots[id] = s
	}

	return s
}
