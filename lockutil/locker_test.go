package lockutil

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExclusiveSerializesSameKey(t *testing.T) {
	l := NewLocker()
	ctx := context.Background()

	var mu sync.Mutex
	var order []string
	record := func(s string) {
		mu.Lock()
		order = append(order, s)
		mu.Unlock()
	}

	started := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		_ = l.Exclusive(ctx, "adobe-cli", func(context.Context) error {
			close(started)
			time.Sleep(100 * time.Millisecond)
			record("A")
			return nil
		})
	}()

	<-started
	go func() {
		defer wg.Done()
		_ = l.Exclusive(ctx, "adobe-cli", func(context.Context) error {
			time.Sleep(10 * time.Millisecond)
			record("B")
			return nil
		})
	}()

	wg.Wait()
	assert.Equal(t, []string{"A", "B"}, order)
}

func TestExclusiveFIFO(t *testing.T) {
	l := NewLocker()
	ctx := context.Background()

	hold := make(chan struct{})
	holding := make(chan struct{})
	go func() {
		_ = l.Exclusive(ctx, "k", func(context.Context) error {
			close(holding)
			<-hold
			return nil
		})
	}()
	<-holding

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	for i := range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Exclusive(ctx, "k", func(context.Context) error {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				return nil
			})
		}()
		// Wait for this goroutine to be queued before submitting the next one.
		require.Eventually(t, func() bool {
			l.mu.Lock()
			defer l.mu.Unlock()
			return l.locks["k"].waiters == i+2
		}, time.Second, time.Millisecond)
	}

	close(hold)
	wg.Wait()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestExclusiveDifferentKeysRunConcurrently(t *testing.T) {
	l := NewLocker()
	ctx := context.Background()

	var running, peak atomic.Int32
	var wg sync.WaitGroup
	for _, key := range []string{"a", "b", "c"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Exclusive(ctx, key, func(context.Context) error {
				n := running.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(50 * time.Millisecond)
				running.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(3), peak.Load())
}

func TestExclusiveErrorReleasesLock(t *testing.T) {
	l := NewLocker()
	ctx := context.Background()
	boom := errors.New("boom")

	err := l.Exclusive(ctx, "k", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	ran := false
	err = l.Exclusive(ctx, "k", func(context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestExclusivePanicReleasesLock(t *testing.T) {
	l := NewLocker()
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = l.Exclusive(ctx, "k", func(context.Context) error { panic("boom") })
	})
	assert.False(t, l.IsLocked("k"))

	require.NoError(t, l.Exclusive(ctx, "k", func(context.Context) error { return nil }))
}

func TestDoReturnsValue(t *testing.T) {
	l := NewLocker()

	got, err := Do(context.Background(), l, "k", func(context.Context) (string, error) {
		return "org-123", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "org-123", got)
}

func TestIsLockedAndActiveLockCount(t *testing.T) {
	l := NewLocker()
	ctx := context.Background()

	assert.False(t, l.IsLocked("k"))
	assert.Equal(t, 0, l.ActiveLockCount())

	inside := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = l.Exclusive(ctx, "k", func(context.Context) error {
			close(inside)
			<-release
			return nil
		})
	}()
	<-inside

	assert.True(t, l.IsLocked("k"))
	assert.False(t, l.IsLocked("other"))
	assert.Equal(t, 1, l.ActiveLockCount())

	close(release)
	<-done

	assert.False(t, l.IsLocked("k"))
	assert.Equal(t, 0, l.ActiveLockCount())
}

func TestExclusiveCancelledWhileQueued(t *testing.T) {
	l := NewLocker()

	hold := make(chan struct{})
	holding := make(chan struct{})
	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		_ = l.Exclusive(context.Background(), "k", func(context.Context) error {
			close(holding)
			<-hold
			return nil
		})
	}()
	<-holding

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	ran := false
	err := l.Exclusive(ctx, "k", func(context.Context) error {
		ran = true
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, ran)
	assert.True(t, l.IsLocked("k"))

	close(hold)
	<-firstDone

	require.Eventually(t, func() bool { return !l.IsLocked("k") }, time.Second, time.Millisecond)
	require.NoError(t, l.Exclusive(context.Background(), "k", func(context.Context) error { return nil }))
}

func TestClearAll(t *testing.T) {
	l := NewLocker()
	ctx := context.Background()

	hold := make(chan struct{})
	holding := make(chan struct{})
	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		_ = l.Exclusive(ctx, "k", func(context.Context) error {
			close(holding)
			<-hold
			return nil
		})
	}()
	<-holding

	l.ClearAll()
	assert.Equal(t, 0, l.ActiveLockCount())
	assert.False(t, l.IsLocked("k"))

	// New work does not queue behind the in-flight operation.
	ran := make(chan struct{})
	go func() {
		_ = l.Exclusive(ctx, "k", func(context.Context) error {
			close(ran)
			return nil
		})
	}()
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("operation queued behind cleared lock")
	}

	close(hold)
	<-firstDone
	assert.Equal(t, 0, l.ActiveLockCount())
}
