package session

import (
	"sync"
	"time"

	"github.com/datachat/datachat/internal/chartgen"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Artifact is the committed outcome of the most recent successful data turn.
// Follow-up turns resolve references like "that" against it. TurnIndex is
// the position of the user turn that produced it within the session history.
type Artifact struct {
	QueryText string
	Columns   []string
	Rows      [][]any
	Chart     *chartgen.Spec
	ChartCode string
	Summary   string
	TurnIndex int
	CreatedAt time.Time
}

type Session struct {
	ID        string
	CreatedAt time.Time

	mu         sync.Mutex
	turnMu     sync.Mutex
	lastActive time.Time
	turns      []Turn
	artifact   *Artifact
}

// BeginTurn serializes turn processing per session. It blocks until no other
// turn is in flight and returns the release func. Different sessions are
// never serialized against each other.
func (s *Session) BeginTurn() func() {
	s.turnMu.Lock()
	return s.turnMu.Unlock
}

func (s *Session) AppendTurn(turn Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, turn)
	s.lastActive = turn.CreatedAt
}

// History returns a copy of the turns in append order.
func (s *Session) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	turns := make([]Turn, len(s.turns))
	copy(turns, s.turns)
	return turns
}

func (s *Session) Artifact() *Artifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.artifact
}

// SetArtifact replaces the committed artifact. Callers only commit after a
// turn produced rows, so a failed or empty follow-up never clobbers state.
func (s *Session) SetArtifact(artifact *Artifact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifact = artifact
}

func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = now
}
