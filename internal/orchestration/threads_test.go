package orchestration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cardiacare/server/internal/foundry"
)

type stubCreator struct {
	calls atomic.Int64
	err   error
}

func (s *stubCreator) CreateThread(context.Context) (foundry.Thread, error) {
	n := s.calls.Add(1)
	if s.err != nil {
		return foundry.Thread{}, s.err
	}
	return foundry.Thread{ID: fmt.Sprintf("thread_%d", n)}, nil
}

func TestThreadForReusesWithinTTL(t *testing.T) {
	creator := &stubCreator{}
	m := NewThreadManager(creator, 30*time.Minute)

	first, err := m.ThreadFor(context.Background(), "conv_1")
	require.NoError(t, err)
	second, err := m.ThreadFor(context.Background(), "conv_1")
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.EqualValues(t, 1, creator.calls.Load())
}

func TestThreadForIsolatesConversations(t *testing.T) {
	m := NewThreadManager(&stubCreator{}, 30*time.Minute)

	a, err := m.ThreadFor(context.Background(), "conv_a")
	require.NoError(t, err)
	b, err := m.ThreadFor(context.Background(), "conv_b")
	require.NoError(t, err)

	require.NotEqual(t, a, b)
}

func TestThreadForExpiresIdleEntries(t *testing.T) {
	creator := &stubCreator{}
	m := NewThreadManager(creator, 30*time.Minute)

	now := time.Now()
	m.now = func() time.Time { return now }

	first, err := m.ThreadFor(context.Background(), "conv_1")
	require.NoError(t, err)

	// Activity just inside the TTL keeps the thread alive.
	now = now.Add(29 * time.Minute)
	kept, err := m.ThreadFor(context.Background(), "conv_1")
	require.NoError(t, err)
	require.Equal(t, first, kept)

	// Idle past the TTL forces a fresh thread.
	now = now.Add(31 * time.Minute)
	fresh, err := m.ThreadFor(context.Background(), "conv_1")
	require.NoError(t, err)
	require.NotEqual(t, first, fresh)
	require.EqualValues(t, 2, creator.calls.Load())
}

func TestThreadForEphemeralWithoutConversationID(t *testing.T) {
	creator := &stubCreator{}
	m := NewThreadManager(creator, 30*time.Minute)

	a, err := m.ThreadFor(context.Background(), "")
	require.NoError(t, err)
	b, err := m.ThreadFor(context.Background(), "")
	require.NoError(t, err)

	require.NotEqual(t, a, b)
	require.Empty(t, m.threads)
}

func TestThreadForPropagatesCreationError(t *testing.T) {
	wantErr := errors.New("503 service unavailable")
	m := NewThreadManager(&stubCreator{err: wantErr}, 30*time.Minute)

	_, err := m.ThreadFor(context.Background(), "conv_1")

	require.ErrorIs(t, err, wantErr)
	require.Empty(t, m.threads)
}

func TestThreadForConcurrentSameConversation(t *testing.T) {
	creator := &stubCreator{}
	m := NewThreadManager(creator, 30*time.Minute)

	const goroutines = 16
	ids := make([]string, goroutines)
	errs := make([]error, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], errs[i] = m.ThreadFor(context.Background(), "conv_1")
		}(i)
	}
	wg.Wait()

	for i := range ids {
		require.NoError(t, errs[i])
		require.Equal(t, ids[0], ids[i])
	}
	require.EqualValues(t, 1, creator.calls.Load())
}

func TestSweepExpiredReportsRemovals(t *testing.T) {
	m := NewThreadManager(&stubCreator{}, 30*time.Minute)
	now := time.Now()
	m.now = func() time.Time { return now }

	_, err := m.ThreadFor(context.Background(), "conv_1")
	require.NoError(t, err)
	_, err = m.ThreadFor(context.Background(), "conv_2")
	require.NoError(t, err)

	require.Zero(t, m.SweepExpired())

	now = now.Add(31 * time.Minute)
	require.Equal(t, 2, m.SweepExpired())
	require.Empty(t, m.threads)
}

func TestSweepExpiredDropsLockEntries(t *testing.T) {
	m := NewThreadManager(&stubCreator{}, 30*time.Minute)
	now := time.Now()
	m.now = func() time.Time { return now }

	_, err := m.ThreadFor(context.Background(), "conv_1")
	require.NoError(t, err)
	_, err = m.ThreadFor(context.Background(), "conv_2")
	require.NoError(t, err)
	require.Len(t, m.locks, 2)

	now = now.Add(31 * time.Minute)
	require.Equal(t, 2, m.SweepExpired())
	require.Empty(t, m.locks)

	// A lock held by an in-flight turn survives the sweep.
	_, err = m.ThreadFor(context.Background(), "conv_1")
	require.NoError(t, err)
	held := m.lockFor("conv_1")
	held.Lock()
	now = now.Add(31 * time.Minute)
	require.Equal(t, 1, m.SweepExpired())
	require.Len(t, m.locks, 1)
	held.Unlock()
}
