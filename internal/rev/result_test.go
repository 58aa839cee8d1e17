package rev

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQueueRunsInOrder(t *testing.T) {
	q := NewQueue()

	var got []int
	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = q.Run(ctx)
	}()

	for i := 0; i < 100; i++ {
		i := i
		q.Dispatch(func() { got = append(got, i) })
	}
	q.Dispatch(cancel)
	wg.Wait()

	want := make([]int, 100)
	for i := range want {
		want[i] = i
	}
	assert.Equal(t, want, got)
}

func TestQueueStopsOnCancel(t *testing.T) {
	q := NewQueue()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, q.Run(ctx), context.DeadlineExceeded)
}

func TestResultGet(t *testing.T) {
	v, err := Success(42).Get()
	assert.Equal(t, 42, v)
	assert.NoError(t, err)

	_, err = Failure[int](ErrParse).Get()
	assert.ErrorIs(t, err, ErrParse)
}
