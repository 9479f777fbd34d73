package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/datachat/datachat/internal/observability"
)

var ErrNotFound = errors.New("session not found")

// Store keeps sessions in memory. Conversation state is deliberately not
// persisted; a restart starts every conversation fresh.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (st *Store) Create() *Session {
	now := st.now()
	session := &Session{
		ID:         uuid.New().String(),
		CreatedAt:  now,
		lastActive: now,
	}

	st.mu.Lock()
	st.sessions[session.ID] = session
	count := len(st.sessions)
	st.mu.Unlock()

	observability.SetActiveSessions(count)
	return session
}

func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	session, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	session.touch(st.now())
	return session, nil
}

func (st *Store) Delete(id string) bool {
	st.mu.Lock()
	_, ok := st.sessions[id]
	if ok {
		delete(st.sessions, id)
	}
	count := len(st.sessions)
	st.mu.Unlock()

	if ok {
		observability.SetActiveSessions(count)
	}
	return ok
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// sweep removes sessions idle past the TTL and returns how many were evicted.
func (st *Store) sweep() int {
	if st.ttl <= 0 {
		return 0
	}
	cutoff := st.now().Add(-st.ttl)

	st.mu.Lock()
	evicted := 0
	for id, session := range st.sessions {
		if session.LastActive().Before(cutoff) {
			delete(st.sessions, id)
			evicted++
		}
	}
	count := len(st.sessions)
	st.mu.Unlock()

	if evicted > 0 {
		observability.SetActiveSessions(count)
	}
	return evicted
}

// StartSweeper launches the TTL eviction loop. It returns immediately; the
// loop stops when ctx is cancelled.
func (st *Store) StartSweeper(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 || st.ttl <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if evicted := st.sweep(); evicted > 0 && logger != nil {
					logger.Info("expired sessions evicted",
						slog.Int("evicted", evicted),
						slog.Int("active", st.Len()))
				}
			}
		}
	}()
}
