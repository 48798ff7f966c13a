package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/wolfman30/eyeclinic-web/internal/booking"
)

type memoryEntry[T any] struct {
	value   T
	expires time.Time
}

// MemoryStore is a bounded in-process store. The least recently used
// sessions are evicted once size is reached; entries also expire after ttl.
type MemoryStore struct {
	mu            sync.Mutex
	states        *lru.Cache[string, memoryEntry[*booking.State]]
	confirmations *lru.Cache[string, memoryEntry[*booking.Confirmation]]
	ttl           time.Duration
	now           func() time.Time
}

// NewMemoryStore builds an in-memory store holding at most size sessions.
func NewMemoryStore(size int, ttl time.Duration) (*MemoryStore, error) {
	states, err := lru.New[string, memoryEntry[*booking.State]](size)
	if err != nil {
		return nil, fmt.Errorf("session: init state cache: %w", err)
	}
	confirmations, err := lru.New[string, memoryEntry[*booking.Confirmation]](size)
	if err != nil {
		return nil, fmt.Errorf("session: init confirmation cache: %w", err)
	}
	return &MemoryStore{
		states:        states,
		confirmations: confirmations,
		ttl:           ttl,
		now:           time.Now,
	}, nil
}

func (s *MemoryStore) expiry() time.Time {
	if s.ttl <= 0 {
		return time.Time{}
	}
	return s.now().Add(s.ttl)
}

func (s *MemoryStore) live(expires time.Time) bool {
	return expires.IsZero() || s.now().Before(expires)
}

func (s *MemoryStore) LoadState(ctx context.Context, id string) (*booking.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.states.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	if !s.live(entry.expires) {
		s.states.Remove(id)
		return nil, ErrNotFound
	}
	return entry.value.Clone(), nil
}

func (s *MemoryStore) SaveState(ctx context.Context, id string, state *booking.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current int64
	if entry, ok := s.states.Get(id); ok && s.live(entry.expires) {
		current = entry.value.Revision
	}
	if current != state.Revision {
		return ErrConflict
	}
	out := state.Clone()
	out.Revision = current + 1
	s.states.Add(id, memoryEntry[*booking.State]{value: out, expires: s.expiry()})
	state.Revision = out.Revision
	return nil
}

func (s *MemoryStore) PutConfirmation(ctx context.Context, id string, conf *booking.Confirmation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *conf
	s.confirmations.Add(id, memoryEntry[*booking.Confirmation]{value: &c, expires: s.expiry()})
	return nil
}

func (s *MemoryStore) GetConfirmation(ctx context.Context, id string) (*booking.Confirmation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.confirmations.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	if !s.live(entry.expires) {
		s.confirmations.Remove(id)
		return nil, ErrNotFound
	}
	c := *entry.value
	return &c, nil
}
