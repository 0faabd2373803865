package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobStatus_Values(t *testing.T) {
	assert.Equal(t, JobStatus("pending"), StatusPending)
	assert.Equal(t, JobStatus("processing"), StatusProcessing)
	assert.Equal(t, JobStatus("completed"), StatusCompleted)
	assert.Equal(t, JobStatus("failed"), StatusFailed)
	assert.Equal(t, JobStatus("cancelled"), StatusCancelled)
}

func TestJobStatus_Terminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusProcessing.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.True(t, StatusCancelled.Terminal())
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		parsed, err := ParseKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}

	_, err := ParseKind("ocr")
	assert.ErrorIs(t, err, ErrUnknownKind)
	assert.Contains(t, err.Error(), `"ocr"`)
}

func TestJob_Defaults(t *testing.T) {
	job := &Job{}
	assert.Empty(t, job.ID)
	assert.Equal(t, JobStatus(""), job.Status)
	assert.Equal(t, 0, job.RetryCount)
	assert.Equal(t, 1, job.Attempt())
	assert.False(t, job.CanRetry())
}

func TestJob_CanRetry(t *testing.T) {
	job := &Job{MaxRetries: 2}
	assert.True(t, job.CanRetry())

	job.RetryCount = 1
	assert.True(t, job.CanRetry())
	assert.Equal(t, 2, job.Attempt())

	job.RetryCount = 2
	assert.False(t, job.CanRetry())
}

func TestJob_Label(t *testing.T) {
	assert.Equal(t, "split", (&Job{Kind: KindSplit}).Label())
	assert.Equal(t, "split a.pdf", (&Job{Kind: KindSplit, Inputs: []string{"a.pdf"}}).Label())
	assert.Equal(t, "combine a.pdf (+2 more)",
		(&Job{Kind: KindCombine, Inputs: []string{"a.pdf", "b.pdf", "c.pdf"}}).Label())
}

func TestSummary_ApplyAndResolved(t *testing.T) {
	s := Summary{Total: 5, Completed: 2, Failed: 1, Cancelled: 1, NotAttempted: 1, Interrupted: true}
	assert.Equal(t, 4, s.Resolved())

	run := &Run{}
	s.Apply(run)
	assert.Equal(t, 5, run.Total)
	assert.Equal(t, 2, run.Completed)
	assert.Equal(t, 1, run.Failed)
	assert.Equal(t, 1, run.Cancelled)
	assert.Equal(t, 1, run.NotAttempted)
	assert.True(t, run.Interrupted)
}
