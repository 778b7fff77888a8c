package session_test

import (
	"context"
	"sync"
	"testing"

	"github.com/claude-collective/collective/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_SerializesSameKey(t *testing.T) {
	m := session.NewManager()
	ctx := context.Background()

	const workers = 32
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := m.WithLock(ctx, "session-a", func(ctx context.Context) error {
				// Not atomic on purpose; the lock must make it safe.
				counter++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, counter)
}

func TestManager_IndependentKeysDoNotBlock(t *testing.T) {
	m := session.NewManager()
	ctx := context.Background()

	release := make(chan struct{})
	holding := make(chan struct{})

	go func() {
		_ = m.WithLock(ctx, "busy", func(ctx context.Context) error {
			close(holding)
			<-release
			return nil
		})
	}()

	<-holding

	// A different key must proceed while "busy" is held.
	done := make(chan struct{})
	go func() {
		err := m.WithLock(ctx, "idle", func(ctx context.Context) error { return nil })
		require.NoError(t, err)
		close(done)
	}()

	<-done
	close(release)
}

func TestManager_PropagatesError(t *testing.T) {
	m := session.NewManager()

	sentinel := assert.AnError
	err := m.WithLock(context.Background(), "k", func(ctx context.Context) error {
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
}
