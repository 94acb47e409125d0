package triage

import (
	"context"
	"sync"
)

// Session is one conversation: its state and its visible history. It is the
// surface a UI talks to.
type Session struct {
	ID string

	mu      sync.Mutex
	engine  *Engine
	state   ConversationState
	history []Turn
}

// NewSession starts a conversation with the engine's opening message.
func NewSession(id string, engine *Engine) *Session {
	s := &Session{ID: id, engine: engine}
	s.reset()
	return s
}

// SubmitUtterance runs one turn and returns the assistant's answer. Both the
// user text and the answer are appended to the history, including when the
// returned error is set.
func (s *Session) SubmitUtterance(ctx context.Context, text string) (Turn, Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, reply, err := s.engine.HandleTurn(ctx, s.state, text)
	s.state = next
	turn := Turn{Role: RoleAssistant, Text: reply.Text, Department: reply.Department}
	s.history = append(s.history, Turn{Role: RoleUser, Text: text}, turn)
	return turn, reply, err
}

// Restart resets the conversation. Calling it repeatedly has no further effect.
func (s *Session) Restart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func (s *Session) reset() {
	s.state = s.engine.Restart()
	s.history = []Turn{{Role: RoleAssistant, Text: s.engine.Opening()}}
}

// State returns a copy of the current conversation state.
func (s *Session) State() ConversationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// History returns a copy of the turns so far.
func (s *Session) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.history))
	copy(out, s.history)
	return out
}
