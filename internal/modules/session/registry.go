package session

import (
	"crypto/rand"
	"log"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
)

const pinRetryLimit = 100

// Registry owns every live session. All mutations go through it and are
// serialized by the mutex, so request handlers and expiry timers never race
// on a session's file list.
type Registry struct {
	mu         sync.RWMutex
	sessions   map[string]*Session
	sessionTTL time.Duration
	onDestroy  func(Session) // called with a snapshot after removal, outside the lock
}

func NewRegistry(sessionTTL time.Duration) *Registry {
	return &Registry{
		sessions:   make(map[string]*Session),
		sessionTTL: sessionTTL,
	}
}

// OnDestroy sets the hook invoked whenever a session is destroyed, either
// explicitly or by the idle sweep. The hook receives a snapshot and runs
// outside the registry lock, so it may call back into the registry.
func (r *Registry) OnDestroy(fn func(Session)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onDestroy = fn
}

// Create generates a fresh session with a unique id and a unique 6-digit pin.
// Pin generation retries on collision with a live session; with ~900k pins the
// retry limit is only reachable when the registry is pathologically full.
func (r *Registry) Create() (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var pin string
	for i := 0; ; i++ {
		if i == pinRetryLimit {
			return nil, ErrPinExhausted
		}
		p, err := generatePIN()
		if err != nil {
			return nil, err
		}
		if !r.pinInUse(p) {
			pin = p
			break
		}
	}

	now := time.Now()
	s := &Session{
		ID:         uuid.New().String(),
		PIN:        pin,
		Files:      []FileRecord{},
		CreatedAt:  now,
		LastActive: now,
	}
	r.sessions[s.ID] = s

	return snapshot(s), nil
}

// Get returns a copy of the session so callers never observe concurrent
// mutation of the file list.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return snapshot(s), nil
}

// ResolvePin maps a pin to a live session id. Creation rejects duplicate
// pins, but if duplicates ever exist the most recently created session wins.
func (r *Registry) ResolvePin(pin string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var match *Session
	for _, s := range r.sessions {
		if s.PIN == pin && (match == nil || s.CreatedAt.After(match.CreatedAt)) {
			match = s
		}
	}
	if match == nil {
		return "", ErrInvalidPin
	}
	return match.ID, nil
}

// AppendFile records an accepted upload on its session and bumps the
// session's activity clock.
func (r *Registry) AppendFile(id string, rec FileRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	s.Files = append(s.Files, rec)
	s.LastActive = time.Now()
	return nil
}

// RemoveFile drops a file record from its session. It is a no-op when the
// session or the record is already gone: expiry races with session
// destruction and with out-of-band deletes, and both orders must be fine.
func (r *Registry) RemoveFile(id, storageHandle string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return
	}
	for i, f := range s.Files {
		if f.StorageHandle == storageHandle {
			s.Files = append(s.Files[:i], s.Files[i+1:]...)
			return
		}
	}
}

// Destroy removes a session and fires the destroy hook with its final state.
func (r *Registry) Destroy(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.sessions, id)
	snap := snapshot(s)
	hook := r.onDestroy
	r.mu.Unlock()

	if hook != nil {
		hook(*snap)
	}
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// StartSweeper launches the idle-session sweep. Sessions untouched for longer
// than the registry TTL are destroyed. Close the returned channel to stop.
func (r *Registry) StartSweeper(interval time.Duration) chan struct{} {
	stopCh := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if n := r.sweep(); n > 0 {
					log.Printf("session sweep: destroyed %d idle sessions", n)
				}
			case <-stopCh:
				return
			}
		}
	}()

	log.Printf("session sweeper started: interval=%v ttl=%v", interval, r.sessionTTL)
	return stopCh
}

func (r *Registry) sweep() int {
	cutoff := time.Now().Add(-r.sessionTTL)

	r.mu.RLock()
	var expired []string
	for id, s := range r.sessions {
		if s.LastActive.Before(cutoff) {
			expired = append(expired, id)
		}
	}
	r.mu.RUnlock()

	for _, id := range expired {
		r.Destroy(id)
	}
	return len(expired)
}

func (r *Registry) pinInUse(pin string) bool {
	for _, s := range r.sessions {
		if s.PIN == pin {
			return true
		}
	}
	return false
}

func snapshot(s *Session) *Session {
	cp := *s
	cp.Files = make([]FileRecord, len(s.Files))
	copy(cp.Files, s.Files)
	return &cp
}

// generatePIN returns a uniform 6-digit decimal pin in 100000..999999.
func generatePIN() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return big.NewInt(100000 + n.Int64()).String(), nil
}
