package expire

import (
	"log"
	"sync"
	"time"
)

// BlobDeleter is the slice of the blob store the scheduler needs.
type BlobDeleter interface {
	Delete(handle string) error
}

// FileRemover is the slice of the session registry the scheduler needs.
// RemoveFile must be idempotent: a fired timer may race session destruction.
type FileRemover interface {
	RemoveFile(sessionID, storageHandle string)
}

// Scheduler arms one-shot deletion timers for uploaded files. When a timer
// fires the blob is deleted and the registry entry removed. A blob-delete
// failure only delays disk reclamation, so it is logged and the registry
// entry is removed regardless.
type Scheduler struct {
	blobs    BlobDeleter
	registry FileRemover

	mu     sync.Mutex
	timers map[timerKey]*time.Timer
}

type timerKey struct {
	sessionID     string
	storageHandle string
}

func NewScheduler(blobs BlobDeleter, registry FileRemover) *Scheduler {
	return &Scheduler{
		blobs:    blobs,
		registry: registry,
		timers:   make(map[timerKey]*time.Timer),
	}
}

// Schedule arms the deletion timer for one file. Scheduling the same file
// twice resets its timer.
func (s *Scheduler) Schedule(sessionID, storageHandle string, delay time.Duration) {
	key := timerKey{sessionID, storageHandle}

	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[key]; ok {
		t.Stop()
	}
	s.timers[key] = time.AfterFunc(delay, func() {
		s.fire(key)
	})
}

// Cancel disarms the timer for one file without deleting anything. It is a
// no-op for unknown files.
func (s *Scheduler) Cancel(sessionID, storageHandle string) {
	key := timerKey{sessionID, storageHandle}

	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[key]; ok {
		t.Stop()
		delete(s.timers, key)
	}
}

// Stop disarms every pending timer. Used at shutdown; blobs left behind are
// reclaimed by the purge tool on the next start.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, t := range s.timers {
		t.Stop()
		delete(s.timers, key)
	}
}

// Pending reports the number of armed timers.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func (s *Scheduler) fire(key timerKey) {
	s.mu.Lock()
	delete(s.timers, key)
	s.mu.Unlock()

	if err := s.blobs.Delete(key.storageHandle); err != nil {
		log.Printf("expire: failed to delete blob %s (session %s): %v", key.storageHandle, key.sessionID, err)
	}
	s.registry.RemoveFile(key.sessionID, key.storageHandle)
}
