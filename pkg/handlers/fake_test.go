package handlers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jdziat/pdfbatch/pkg/core"
	intctx "github.com/jdziat/pdfbatch/pkg/internal/context"
	"github.com/jdziat/pdfbatch/pkg/pdf"
)

type call struct {
	op     string
	inputs []string
	out    string
	page   int
	text   pdf.TextStamp
	file   string
	user   string
	owner  string
	perms  pdf.Permissions
}

// fakeEngine records calls and writes placeholder outputs.
type fakeEngine struct {
	mu     sync.Mutex
	pages  map[string]int
	calls  []call
	failOn string
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{pages: make(map[string]int)}
}

func (e *fakeEngine) record(c call) error {
	e.mu.Lock()
	e.calls = append(e.calls, c)
	e.mu.Unlock()
	if e.failOn == c.op {
		return errors.New("engine failure")
	}
	if c.out != "" {
		return os.WriteFile(c.out, []byte("%PDF-1.4 fake"), 0o644)
	}
	return nil
}

func (e *fakeEngine) PageCount(path string) (int, error) {
	if e.failOn == "pagecount" {
		return 0, errors.New("engine failure")
	}
	if n, ok := e.pages[path]; ok {
		return n, nil
	}
	return 1, nil
}

func (e *fakeEngine) Merge(inputs []string, out string) error {
	return e.record(call{op: "merge", inputs: append([]string(nil), inputs...), out: out})
}

func (e *fakeEngine) ExtractPage(in string, page int, out string) error {
	return e.record(call{op: "extract", inputs: []string{in}, page: page, out: out})
}

func (e *fakeEngine) TextWatermark(in, out string, stamp pdf.TextStamp) error {
	return e.record(call{op: "text", inputs: []string{in}, out: out, text: stamp})
}

func (e *fakeEngine) FileWatermark(in, out, stampFile string, _ pdf.FileStamp) error {
	return e.record(call{op: "file", inputs: []string{in}, out: out, file: stampFile})
}

func (e *fakeEngine) Encrypt(in, out, user, owner string, perms pdf.Permissions) error {
	return e.record(call{op: "encrypt", inputs: []string{in}, out: out, user: user, owner: owner, perms: perms})
}

func (e *fakeEngine) Optimize(in, out string) error {
	return e.record(call{op: "optimize", inputs: []string{in}, out: out})
}

func (e *fakeEngine) ops(op string) []call {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []call
	for _, c := range e.calls {
		if c.op == op {
			out = append(out, c)
		}
	}
	return out
}

// touch creates input files and returns their paths.
func touch(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(dir, n)
		require.NoError(t, os.WriteFile(paths[i], []byte("%PDF-1.4"), 0o644))
	}
	return paths
}

type progress struct {
	label   string
	percent int
}

// jobContext returns a handler context whose cancellation flag is driven by cancelled.
func jobContext(job *core.Job, cancelled func() bool) (context.Context, *[]progress) {
	var reports []progress
	if cancelled == nil {
		cancelled = func() bool { return false }
	}
	ctx := intctx.WithJobContext(context.Background(), &intctx.JobContext{
		Job:       job,
		Cancelled: cancelled,
		Report: func(label string, percent int) {
			reports = append(reports, progress{label, percent})
		},
	})
	return ctx, &reports
}
