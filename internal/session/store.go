package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"codepad/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store keeps live sessions in memory. Nothing survives a restart.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

func (st *Store) Create(problemID string) *Session {
	sess := New(uuid.NewString(), problemID)

	st.mu.Lock()
	st.sessions[sess.ID] = sess
	st.mu.Unlock()

	logger.Log.Info("Session created", zap.String("session_id", sess.ID))
	return sess
}

func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	sess, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	sess.Touch()
	return sess, nil
}

func (st *Store) Close(id string) error {
	st.mu.Lock()
	sess, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	pending := sess.PendingTasks()
	sess.Close()
	logger.Log.Info("Session closed",
		zap.String("session_id", id),
		zap.Int("abandoned_tasks", pending))
	return nil
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep closes sessions idle longer than the store's TTL and returns how
// many were closed.
func (st *Store) Sweep(now time.Time) int {
	st.mu.RLock()
	var expired []string
	for id, sess := range st.sessions {
		if now.Sub(sess.idleSince()) > st.ttl {
			expired = append(expired, id)
		}
	}
	st.mu.RUnlock()

	closed := 0
	for _, id := range expired {
		if err := st.Close(id); err == nil {
			closed++
		}
	}
	return closed
}

// StartJanitor sweeps idle sessions every interval until ctx is done.
func (st *Store) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if n := st.Sweep(now); n > 0 {
					logger.Log.Info("Expired idle sessions", zap.Int("count", n))
				}
			}
		}
	}()
}

// CloseAll closes every session, used on shutdown.
func (st *Store) CloseAll() {
	st.mu.RLock()
	ids := make([]string, 0, len(st.sessions))
	for id := range st.sessions {
		ids = append(ids, id)
	}
	st.mu.RUnlock()

	for _, id := range ids {
		_ = st.Close(id)
	}
}
