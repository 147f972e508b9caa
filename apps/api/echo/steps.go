package echoapi

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/ppdb/core/region"
	"github.com/trezcool/ppdb/services/metrics"
)

type stepEntry struct {
	step     *region.Step
	userID   int
	lastSeen time.Time
}

// stepStore holds the live address-step sessions, at most one per applicant.
type stepStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time // mockable
	entries map[string]*stepEntry
	byUser  map[int]string
}

func newStepStore(ttl time.Duration) *stepStore {
	return &stepStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*stepEntry),
		byUser:  make(map[int]string),
	}
}

// add stores step as the session of userID and closes the previous one.
func (ss *stepStore) add(userID int, step *region.Step) string {
	id := uuid.New().String()

	ss.mu.Lock()
	defer ss.mu.Unlock()
	if prevID, ok := ss.byUser[userID]; ok {
		ss.removeLocked(prevID)
	}
	ss.entries[id] = &stepEntry{step: step, userID: userID, lastSeen: ss.now()}
	ss.byUser[userID] = id
	metrics.AddressStepsActive.Set(float64(len(ss.entries)))
	return id
}

// get returns the session id of userID. Sessions of other applicants are not found.
func (ss *stepStore) get(id string, userID int) (*region.Step, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	entry, ok := ss.entries[id]
	if !ok || entry.userID != userID {
		return nil, region.ErrStepNotFound
	}
	entry.lastSeen = ss.now()
	return entry.step, nil
}

func (ss *stepStore) remove(id string, userID int) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	entry, ok := ss.entries[id]
	if !ok || entry.userID != userID {
		return region.ErrStepNotFound
	}
	ss.removeLocked(id)
	metrics.AddressStepsActive.Set(float64(len(ss.entries)))
	return nil
}

func (ss *stepStore) removeLocked(id string) {
	entry, ok := ss.entries[id]
	if !ok {
		return
	}
	entry.step.Close()
	delete(ss.entries, id)
	if ss.byUser[entry.userID] == id {
		delete(ss.byUser, entry.userID)
	}
}

// sweep closes the sessions idle for longer than the ttl and returns how many it closed.
func (ss *stepStore) sweep() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	deadline := ss.now().Add(-ss.ttl)
	var n int
	for id, entry := range ss.entries {
		if entry.lastSeen.Before(deadline) {
			ss.removeLocked(id)
			n++
		}
	}
	if n > 0 {
		metrics.AddressStepsExpiredTotal.Add(float64(n))
		metrics.AddressStepsActive.Set(float64(len(ss.entries)))
	}
	return n
}

// janitor sweeps the store until ctx is done.
func (ss *stepStore) janitor(ctx context.Context) {
	interval := ss.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ss.sweep()
		}
	}
}

func (ss *stepStore) closeAll() {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	for id := range ss.entries {
		ss.removeLocked(id)
	}
	metrics.AddressStepsActive.Set(0)
}
