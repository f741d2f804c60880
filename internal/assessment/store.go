package assessment

import (
	"context"
	"sync"

	"github.com/ocrp-academy/trainportal/internal/bank"
)

// Store persists sessions. Implementations must round-trip the shuffled
// question and option orders exactly as written.
type Store interface {
	Put(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, error)
	// Active returns the user's in-progress session of the given kind, if any.
	Active(ctx context.Context, userID, kind string) (Session, bool, error)
	// CountTerminal counts the user's scored sessions of the given kind.
	CountTerminal(ctx context.Context, userID, kind string) (int, error)
	// ListByUser returns all of the user's sessions, newest first.
	ListByUser(ctx context.Context, userID string) ([]Session, error)
}

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	order    []string
}

// NewInMemoryStore is suitable for tests and single-process use.
func NewInMemoryStore() Store {
	return &memoryStore{sessions: map[string]Session{}}
}

func (m *memoryStore) Put(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID]; !ok {
		m.order = append(m.order, s.ID)
	}
	m.sessions[s.ID] = cloneSession(s)
	return nil
}

func (m *memoryStore) Get(_ context.Context, id string) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return cloneSession(s), nil
}

func (m *memoryStore) Active(_ context.Context, userID, kind string) (Session, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := len(m.order) - 1; i >= 0; i-- {
		s := m.sessions[m.order[i]]
		if s.UserID == userID && s.Kind == kind && s.Status == StatusInProgress {
			return cloneSession(s), true, nil
		}
	}
	return Session{}, false, nil
}

func (m *memoryStore) CountTerminal(_ context.Context, userID, kind string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, s := range m.sessions {
		if s.UserID == userID && s.Kind == kind && s.Terminal() {
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) ListByUser(_ context.Context, userID string) ([]Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Session
	for i := len(m.order) - 1; i >= 0; i-- {
		if s := m.sessions[m.order[i]]; s.UserID == userID {
			out = append(out, cloneSession(s))
		}
	}
	return out, nil
}

// cloneSession keeps callers from aliasing the store's maps and slices.
func cloneSession(s Session) Session {
	out := s
	out.Questions = append([]bank.Entry(nil), s.Questions...)
	out.Options = make([][]string, len(s.Options))
	for i, o := range s.Options {
		out.Options[i] = append([]string(nil), o...)
	}
	out.Answers = make(map[int]string, len(s.Answers))
	for k, v := range s.Answers {
		out.Answers[k] = v
	}
	return out
}
