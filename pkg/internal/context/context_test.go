package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/pdfbatch/pkg/core"
)

func TestJobContext_RoundTrip(t *testing.T) {
	job := &core.Job{ID: "job-1"}
	ctx := WithJobContext(context.Background(), &JobContext{Job: job})

	jc := GetJobContext(ctx)
	require.NotNil(t, jc)
	assert.Same(t, job, jc.Job)
}

func TestGetJobContext_Missing(t *testing.T) {
	assert.Nil(t, GetJobContext(context.Background()))
}

func TestGetJobContext_WrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), JobContextKey{}, "not a job context")
	assert.Nil(t, GetJobContext(ctx))
}
