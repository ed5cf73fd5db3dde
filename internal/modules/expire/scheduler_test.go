package expire

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeBlobs struct {
	mu      sync.Mutex
	deleted []string
	err     error
}

func (f *fakeBlobs) Delete(handle string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, handle)
	return f.err
}

func (f *fakeBlobs) deletions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

type fakeRegistry struct {
	mu      sync.Mutex
	removed []string
}

func (f *fakeRegistry) RemoveFile(sessionID, storageHandle string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, sessionID+"/"+storageHandle)
}

func (f *fakeRegistry) removals() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.removed...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestFireDeletesBlobAndRemovesRecord(t *testing.T) {
	blobs := &fakeBlobs{}
	registry := &fakeRegistry{}
	s := NewScheduler(blobs, registry)

	s.Schedule("s1", "h1", 10*time.Millisecond)

	waitFor(t, func() bool { return len(registry.removals()) == 1 })
	if got := registry.removals()[0]; got != "s1/h1" {
		t.Fatalf("expected removal s1/h1, got %s", got)
	}
	if got := blobs.deletions(); len(got) != 1 || got[0] != "h1" {
		t.Fatalf("expected blob h1 deleted, got %v", got)
	}
	if s.Pending() != 0 {
		t.Fatalf("expected no pending timers, got %d", s.Pending())
	}
}

func TestFireRemovesRecordDespiteBlobError(t *testing.T) {
	blobs := &fakeBlobs{err: errors.New("disk gone")}
	registry := &fakeRegistry{}
	s := NewScheduler(blobs, registry)

	s.Schedule("s1", "h1", 10*time.Millisecond)

	waitFor(t, func() bool { return len(registry.removals()) == 1 })
}

func TestDoubleFireIsIdempotent(t *testing.T) {
	blobs := &fakeBlobs{}
	registry := &fakeRegistry{}
	s := NewScheduler(blobs, registry)

	key := timerKey{"s1", "h1"}
	s.fire(key)
	s.fire(key)

	if got := registry.removals(); len(got) != 2 || got[0] != "s1/h1" {
		t.Fatalf("expected two harmless removals, got %v", got)
	}
}

func TestRescheduleResetsTimer(t *testing.T) {
	blobs := &fakeBlobs{}
	registry := &fakeRegistry{}
	s := NewScheduler(blobs, registry)

	s.Schedule("s1", "h1", time.Hour)
	s.Schedule("s1", "h1", 10*time.Millisecond)

	waitFor(t, func() bool { return len(registry.removals()) == 1 })
	if s.Pending() != 0 {
		t.Fatalf("expected no pending timers, got %d", s.Pending())
	}
}

func TestCancelPreventsFire(t *testing.T) {
	blobs := &fakeBlobs{}
	registry := &fakeRegistry{}
	s := NewScheduler(blobs, registry)

	s.Schedule("s1", "h1", 20*time.Millisecond)
	s.Cancel("s1", "h1")
	s.Cancel("s1", "h1") // unknown now, no-op

	time.Sleep(60 * time.Millisecond)
	if len(registry.removals()) != 0 {
		t.Fatalf("cancelled timer fired: %v", registry.removals())
	}
	if s.Pending() != 0 {
		t.Fatalf("expected no pending timers, got %d", s.Pending())
	}
}

func TestStopDisarmsEverything(t *testing.T) {
	blobs := &fakeBlobs{}
	registry := &fakeRegistry{}
	s := NewScheduler(blobs, registry)

	s.Schedule("s1", "h1", 20*time.Millisecond)
	s.Schedule("s2", "h2", 20*time.Millisecond)
	s.Stop()

	time.Sleep(60 * time.Millisecond)
	if len(registry.removals()) != 0 {
		t.Fatalf("stopped scheduler fired: %v", registry.removals())
	}
}
