package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/pakornb/moto-loan-intake/internal/core/domain"
)

// Store keeps sessions in process memory with idle eviction. Update
// serializes callbacks per session id, so at most one event traversal
// mutates a given session at a time.
type Store struct {
	cache *gocache.Cache
	clock func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

type Options struct {
	TTL             time.Duration
	CleanupInterval time.Duration
	Clock           func() time.Time
}

func New(opts Options) *Store {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	cleanup := opts.CleanupInterval
	if cleanup <= 0 {
		cleanup = 10 * time.Minute
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Store{
		cache: gocache.New(ttl, cleanup),
		clock: clock,
		locks: make(map[string]*sync.Mutex),
	}
}

func (s *Store) Create(ctx context.Context) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	session := domain.NewSession(uuid.NewString(), s.clock())
	s.cache.SetDefault(session.ID, session)
	return session.Clone(), nil
}

func (s *Store) View(ctx context.Context, id string) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lock := s.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.get(id)
	if err != nil {
		return nil, err
	}
	return session.Clone(), nil
}

func (s *Store) Update(ctx context.Context, id string, fn func(*domain.Session) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	lock := s.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.get(id)
	if err != nil {
		return err
	}
	if err := fn(session); err != nil {
		return err
	}
	session.UpdatedAt = s.clock()
	s.cache.SetDefault(id, session)
	return nil
}

func (s *Store) get(id string) (*domain.Session, error) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, fmt.Errorf("session_get %s: %w", id, domain.ErrSessionNotFound)
	}
	session, ok := v.(*domain.Session)
	if !ok {
		return nil, fmt.Errorf("session_get %s: %w", id, domain.ErrSessionNotFound)
	}
	return session, nil
}

func (s *Store) sessionLock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock
}
