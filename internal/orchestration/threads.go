package orchestration

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cardiacare/server/internal/foundry"
)

// ThreadCreator creates remote threads. *foundry.Client satisfies it.
type ThreadCreator interface {
	CreateThread(ctx context.Context) (foundry.Thread, error)
}

type trackedThread struct {
	threadID string
	lastUsed time.Time
}

// ThreadManager maps conversation IDs to remote thread IDs so that turns of
// the same conversation share platform-side context. Entries idle longer
// than the TTL are dropped and a later turn gets a fresh thread.
type ThreadManager struct {
	creator ThreadCreator
	ttl     time.Duration
	now     func() time.Time

	mu      sync.Mutex
	threads map[string]*trackedThread

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

// NewThreadManager creates a manager with the given idle TTL.
func NewThreadManager(creator ThreadCreator, ttl time.Duration) *ThreadManager {
	return &ThreadManager{
		creator: creator,
		ttl:     ttl,
		now:     time.Now,
		threads: make(map[string]*trackedThread),
		locks:   make(map[string]*sync.Mutex),
	}
}

// ThreadFor returns the thread ID for the conversation, creating and
// registering a thread on first use or after expiry. An empty conversation
// ID yields a fresh untracked thread each call. Creation errors are
// returned unmodified.
func (m *ThreadManager) ThreadFor(ctx context.Context, conversationID string) (string, error) {
	if conversationID == "" {
		thread, err := m.creator.CreateThread(ctx)
		if err != nil {
			return "", err
		}
		return thread.ID, nil
	}

	// Serialize per conversation so concurrent turns cannot both create.
	lock := m.lockFor(conversationID)
	lock.Lock()
	defer lock.Unlock()

	m.mu.Lock()
	m.sweepLocked()
	if t, ok := m.threads[conversationID]; ok {
		t.lastUsed = m.now()
		id := t.threadID
		m.mu.Unlock()
		return id, nil
	}
	m.mu.Unlock()

	thread, err := m.creator.CreateThread(ctx)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.threads[conversationID] = &trackedThread{threadID: thread.ID, lastUsed: m.now()}
	m.mu.Unlock()

	slog.Debug("thread created for conversation",
		"conversation_id", conversationID,
		"thread_id", thread.ID)
	return thread.ID, nil
}

// SweepExpired drops idle entries and returns how many were removed.
func (m *ThreadManager) SweepExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweepLocked()
}

// sweepLocked requires m.mu to be held.
func (m *ThreadManager) sweepLocked() int {
	cutoff := m.now().Add(-m.ttl)
	removed := 0
	for id, t := range m.threads {
		if t.lastUsed.Before(cutoff) {
			delete(m.threads, id)
			m.releaseLock(id)
			removed++
		}
	}
	return removed
}

// lockFor returns the per-conversation mutex, creating it on first use.
// Entries live as long as their conversation is tracked; the sweep drops
// them together with the thread mapping.
func (m *ThreadManager) lockFor(conversationID string) *sync.Mutex {
	m.lockMu.Lock()
	defer m.lockMu.Unlock()
	lock, ok := m.locks[conversationID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[conversationID] = lock
	}
	return lock
}

// releaseLock drops the conversation's lock entry. A held lock means a turn
// is in flight for that conversation; the entry is kept so the in-flight
// turn and the next one still serialize on the same mutex.
func (m *ThreadManager) releaseLock(conversationID string) {
	m.lockMu.Lock()
	defer m.lockMu.Unlock()
	lock, ok := m.locks[conversationID]
	if !ok {
		return
	}
	if lock.TryLock() {
		delete(m.locks, conversationID)
		lock.Unlock()
	}
}

// StartSweepWorker periodically drops expired thread mappings until the
// context is cancelled.
func StartSweepWorker(ctx context.Context, m *ThreadManager, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := m.SweepExpired(); removed > 0 {
					slog.Debug("expired conversation threads removed", "count", removed)
				}
			}
		}
	}()
}
