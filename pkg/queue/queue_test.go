package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/pdfbatch/pkg/core"
)

func ids(jobs []*core.Job) []string {
	out := make([]string, len(jobs))
	for i, j := range jobs {
		out[i] = j.ID
	}
	return out
}

func TestMemory_EmptyQueue(t *testing.T) {
	ctx := context.Background()
	q := NewMemory()

	empty, err := q.IsEmpty(ctx)
	require.NoError(t, err)
	assert.True(t, empty)

	job, err := q.DequeueFront(ctx)
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestMemory_EnqueueAllAppendsInOrder(t *testing.T) {
	ctx := context.Background()
	q := NewMemory()

	require.NoError(t, q.Enqueue(ctx, &core.Job{ID: "a"}))
	require.NoError(t, q.EnqueueAll(ctx, []*core.Job{{ID: "b"}, {ID: "c"}}))
	require.NoError(t, q.RequeueFront(ctx, &core.Job{ID: "r"}))

	assert.Equal(t, []string{"r", "a", "b", "c"}, ids(q.Snapshot()))
}

func TestMemory_FIFOOrder(t *testing.T) {
	ctx := context.Background()
	q := NewMemory()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.Enqueue(ctx, &core.Job{ID: id}))
	}

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	var got []string
	for {
		job, err := q.DequeueFront(ctx)
		require.NoError(t, err)
		if job == nil {
			break
		}
		got = append(got, job.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestMemory_RequeueFrontCutsTheLine(t *testing.T) {
	ctx := context.Background()
	q := NewMemory()
	require.NoError(t, q.Enqueue(ctx, &core.Job{ID: "a"}))
	require.NoError(t, q.Enqueue(ctx, &core.Job{ID: "b"}))

	a, err := q.DequeueFront(ctx)
	require.NoError(t, err)
	require.NoError(t, q.Enqueue(ctx, &core.Job{ID: "c"}))
	require.NoError(t, q.RequeueFront(ctx, a))

	assert.Equal(t, []string{"a", "b", "c"}, ids(q.Snapshot()))
}

func TestMemory_ConcurrentProducers(t *testing.T) {
	ctx := context.Background()
	q := NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = q.Enqueue(ctx, &core.Job{ID: fmt.Sprintf("job-%d", i)})
		}(i)
	}
	wg.Wait()

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, n)
}

func TestMemory_ImplementsJobQueue(t *testing.T) {
	var _ JobQueue = NewMemory()
}
