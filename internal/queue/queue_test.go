package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueuePriorityOrder(t *testing.T) {
	q := NewInMemoryQueue()
	defer q.Close()

	require.NoError(t, q.Push(&Task{URL: "https://a.nl", Priority: 1}))
	require.NoError(t, q.Push(&Task{URL: "https://b.nl", Priority: 5}))
	require.NoError(t, q.Push(&Task{URL: "https://c.nl", Priority: 3}))

	ctx := context.Background()

	first, err := q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://b.nl", first.URL)

	second, err := q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://c.nl", second.URL)
}

func TestQueueFIFOWithinPriority(t *testing.T) {
	q := NewInMemoryQueue()
	defer q.Close()

	for _, u := range []string{"https://a.nl", "https://b.nl", "https://c.nl"} {
		require.NoError(t, q.Push(&Task{URL: u}))
	}

	ctx := context.Background()
	for _, expected := range []string{"https://a.nl", "https://b.nl", "https://c.nl"} {
		task, err := q.Pop(ctx)
		require.NoError(t, err)
		assert.Equal(t, expected, task.URL)
	}
}

func TestQueuePopBlocksUntilPush(t *testing.T) {
	q := NewInMemoryQueue()
	defer q.Close()

	result := make(chan *Task, 1)
	go func() {
		task, err := q.Pop(context.Background())
		if err == nil {
			result <- task
		}
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, q.Push(&Task{URL: "https://late.nl"}))

	select {
	case task := <-result:
		assert.Equal(t, "https://late.nl", task.URL)
	case <-time.After(time.Second):
		t.Fatal("pop did not return after push")
	}
}

func TestQueuePopContextCancel(t *testing.T) {
	q := NewInMemoryQueue()
	defer q.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Pop(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueuePopCancelWhileBlocked(t *testing.T) {
	q := NewInMemoryQueue()
	defer q.Close()

	// Repeatedly cancel a Pop blocked on an empty queue. The cancellation
	// path must neither corrupt the mutex nor strand later callers.
	for i := 0; i < 50; i++ {
		ctx, cancel := context.WithCancel(context.Background())

		errs := make(chan error, 1)
		go func() {
			_, err := q.Pop(ctx)
			errs <- err
		}()

		time.Sleep(time.Millisecond)
		cancel()

		select {
		case err := <-errs:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(time.Second):
			t.Fatal("pop did not return after cancel")
		}
	}

	// Queue still works after all those aborted waits.
	require.NoError(t, q.Push(&Task{URL: "https://na-afbreken.nl"}))
	task, err := q.Pop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://na-afbreken.nl", task.URL)
}

func TestQueuePopCancelWakesOnlyCancelledWaiter(t *testing.T) {
	q := NewInMemoryQueue()
	defer q.Close()

	cancelled, cancel := context.WithCancel(context.Background())

	cancelledErr := make(chan error, 1)
	go func() {
		_, err := q.Pop(cancelled)
		cancelledErr <- err
	}()

	survivor := make(chan *Task, 1)
	go func() {
		task, err := q.Pop(context.Background())
		if err == nil {
			survivor <- task
		}
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-cancelledErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled pop did not return")
	}

	// The other waiter keeps waiting and still receives the next task.
	require.NoError(t, q.Push(&Task{URL: "https://overlever.nl"}))
	select {
	case task := <-survivor:
		assert.Equal(t, "https://overlever.nl", task.URL)
	case <-time.After(time.Second):
		t.Fatal("surviving pop did not receive the task")
	}
}

func TestQueueClosed(t *testing.T) {
	q := NewInMemoryQueue()
	require.NoError(t, q.Close())

	assert.ErrorIs(t, q.Push(&Task{URL: "https://x.nl"}), ErrQueueClosed)

	_, err := q.Pop(context.Background())
	assert.ErrorIs(t, err, ErrQueueClosed)
}
