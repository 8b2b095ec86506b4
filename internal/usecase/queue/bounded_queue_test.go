package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBounded_PushPop_FIFO(t *testing.T) {
	q := NewBounded[int](8)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Push(ctx, i, time.Second))
	}
	assert.Equal(t, 5, q.Len())

	for i := 0; i < 5; i++ {
		got, err := q.Pop(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, got)
	}
	assert.Equal(t, 0, q.Len())
}

func TestBounded_PushTimeoutWhenFull(t *testing.T) {
	q := NewBounded[string](1)
	ctx := context.Background()

	require.NoError(t, q.Push(ctx, "first", time.Second))

	start := time.Now()
	err := q.Push(ctx, "second", 50*time.Millisecond)
	assert.ErrorIs(t, err, ErrFull)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestBounded_PushUnblocksWhenConsumerDrains(t *testing.T) {
	q := NewBounded[int](1)
	ctx := context.Background()

	require.NoError(t, q.Push(ctx, 1, time.Second))

	done := make(chan error, 1)
	go func() {
		done <- q.Push(ctx, 2, 2*time.Second)
	}()

	time.Sleep(20 * time.Millisecond)
	_, err := q.Pop(ctx)
	require.NoError(t, err)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("blocked push did not complete after a slot opened")
	}
}

func TestBounded_PopBlocksUntilPush(t *testing.T) {
	q := NewBounded[int](1)
	ctx := context.Background()

	got := make(chan int, 1)
	go func() {
		v, err := q.Pop(ctx)
		if err == nil {
			got <- v
		}
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, q.Push(ctx, 42, time.Second))

	select {
	case v := <-got:
		assert.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("pop did not observe the pushed item")
	}
}

func TestBounded_PopCanceledContext(t *testing.T) {
	q := NewBounded[int](1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := q.Pop(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBounded_Close(t *testing.T) {
	q := NewBounded[int](2)
	ctx := context.Background()

	require.NoError(t, q.Push(ctx, 1, time.Second))
	q.Close()
	q.Close() // double close is safe

	// Drain the remaining item, then observe ErrClosed
	v, err := q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	_, err = q.Pop(ctx)
	assert.ErrorIs(t, err, ErrClosed)

	err = q.Push(ctx, 2, time.Second)
	assert.True(t, errors.Is(err, ErrClosed))
}

func TestBounded_ConcurrentProducers(t *testing.T) {
	const producers = 8
	const perProducer = 25

	q := NewBounded[int](producers * perProducer)
	ctx := context.Background()

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				_ = q.Push(ctx, i, time.Second)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, producers*perProducer, q.Len())
}
