package connection

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueFIFO(t *testing.T) {
	q := NewQueue()
	q.Push("a")
	q.Push("b")
	q.Push("c")
	assert.Equal(t, 3, q.Len())

	ctx := context.Background()
	for i, want := range []string{"a", "b", "c"} {
		msg, err := q.Pop(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, msg.Text)
		assert.Equal(t, uint64(i+1), msg.Seq)
	}
	assert.Equal(t, 0, q.Len())
}

func TestQueuePopBlocksUntilPush(t *testing.T) {
	q := NewQueue()
	got := make(chan string, 1)

	go func() {
		msg, err := q.Pop(context.Background())
		if err == nil {
			got <- msg.Text
		}
	}()

	select {
	case <-got:
		t.Fatal("Pop returned on empty queue")
	case <-time.After(20 * time.Millisecond):
	}

	q.Push("hello")
	select {
	case s := <-got:
		assert.Equal(t, "hello", s)
	case <-time.After(time.Second):
		t.Fatal("Pop did not wake up")
	}
}

func TestQueuePopCancelled(t *testing.T) {
	q := NewQueue()
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		_, err := q.Pop(ctx)
		errCh <- err
	}()

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Pop ignored cancellation")
	}
}

func TestQueueManyProducers(t *testing.T) {
	q := NewQueue()
	const n = 1000

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < n/4; j++ {
				q.Push("x")
			}
		}()
	}

	seen := make(map[uint64]bool)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for len(seen) < n {
		msg, err := q.Pop(ctx)
		require.NoError(t, err)
		assert.False(t, seen[msg.Seq], "duplicate seq %d", msg.Seq)
		seen[msg.Seq] = true
	}
	wg.Wait()
	assert.Equal(t, 0, q.Len())
}
