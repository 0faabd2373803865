package handlers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/pdfbatch/pkg/core"
	"github.com/jdziat/pdfbatch/pkg/pdf"
)

var fixedNow = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC) }

func assertPermanent(t *testing.T, err error, target error) {
	t.Helper()
	require.Error(t, err)
	var noRetry *core.NoRetryError
	assert.True(t, errors.As(err, &noRetry), "expected NoRetryError, got %v", err)
	assert.ErrorIs(t, err, target)
}

func TestDefault_CoversEveryKind(t *testing.T) {
	hs := Default(newFakeEngine())
	for _, k := range core.Kinds {
		assert.Contains(t, hs, k)
	}
}

func TestDefault_WithClock(t *testing.T) {
	dir := t.TempDir()
	inputs := touch(t, dir, "a.pdf", "b.pdf")
	out := filepath.Join(dir, "out")
	hs := Default(newFakeEngine(), WithClock(fixedNow))
	job := &core.Job{Kind: core.KindCombine, Inputs: inputs, OutputDir: out}
	ctx, _ := jobContext(job, nil)

	require.NoError(t, hs[core.KindCombine].Handle(ctx, job))
	assert.Equal(t, []string{filepath.Join(out, "combined_20240309_140507.pdf")}, job.Outputs)
}

type recordingRegistrar map[core.Kind]Handler

func (r recordingRegistrar) Register(kind core.Kind, h Handler) { r[kind] = h }

func TestRegister(t *testing.T) {
	r := recordingRegistrar{}
	Register(r, newFakeEngine())
	assert.Len(t, r, len(core.Kinds))
}

func TestHandlerFunc(t *testing.T) {
	called := false
	var h Handler = HandlerFunc(func(context.Context, *core.Job) error {
		called = true
		return nil
	})
	require.NoError(t, h.Handle(context.Background(), &core.Job{}))
	assert.True(t, called)
}

func TestCombine_PreservesInputOrder(t *testing.T) {
	dir := t.TempDir()
	inputs := touch(t, dir, "c.pdf", "a.pdf", "b.pdf")
	out := filepath.Join(dir, "out")
	e := newFakeEngine()
	job := &core.Job{Kind: core.KindCombine, Inputs: inputs, OutputDir: out}
	ctx, reports := jobContext(job, nil)

	err := (&Combine{Engine: e, Now: fixedNow}).Handle(ctx, job)
	require.NoError(t, err)

	merges := e.ops("merge")
	require.Len(t, merges, 1)
	assert.Equal(t, inputs, merges[0].inputs)
	assert.Equal(t, filepath.Join(out, "combined_20240309_140507.pdf"), merges[0].out)
	assert.Equal(t, []string{merges[0].out}, job.Outputs)
	require.Len(t, *reports, 3)
	assert.Equal(t, 100, (*reports)[2].percent)
}

func TestCombine_NameCollision(t *testing.T) {
	dir := t.TempDir()
	inputs := touch(t, dir, "a.pdf", "b.pdf")
	e := newFakeEngine()
	h := &Combine{Engine: e, Now: fixedNow}

	for i := 0; i < 3; i++ {
		job := &core.Job{Inputs: inputs, OutputDir: dir}
		ctx, _ := jobContext(job, nil)
		require.NoError(t, h.Handle(ctx, job))
	}

	merges := e.ops("merge")
	require.Len(t, merges, 3)
	assert.Equal(t, "combined_20240309_140507.pdf", filepath.Base(merges[0].out))
	assert.Equal(t, "combined_20240309_140507_1.pdf", filepath.Base(merges[1].out))
	assert.Equal(t, "combined_20240309_140507_2.pdf", filepath.Base(merges[2].out))
}

func TestCombine_MissingInputIsPermanent(t *testing.T) {
	dir := t.TempDir()
	inputs := append(touch(t, dir, "a.pdf"), filepath.Join(dir, "gone.pdf"))
	e := newFakeEngine()
	job := &core.Job{Inputs: inputs, OutputDir: dir}
	ctx, _ := jobContext(job, nil)

	err := (&Combine{Engine: e}).Handle(ctx, job)
	assertPermanent(t, err, core.ErrFileNotFound)
	assert.Empty(t, e.ops("merge"))
}

func TestCombine_CancelledBeforeMerge(t *testing.T) {
	dir := t.TempDir()
	inputs := touch(t, dir, "a.pdf", "b.pdf")
	e := newFakeEngine()
	job := &core.Job{Inputs: inputs, OutputDir: dir}
	ctx, _ := jobContext(job, func() bool { return true })

	err := (&Combine{Engine: e}).Handle(ctx, job)
	assert.ErrorIs(t, err, core.ErrCancelled)
	assert.Empty(t, e.ops("merge"))
}

func TestCombine_EngineFailureIsRetryable(t *testing.T) {
	dir := t.TempDir()
	e := newFakeEngine()
	e.failOn = "merge"
	job := &core.Job{Inputs: touch(t, dir, "a.pdf"), OutputDir: dir}
	ctx, _ := jobContext(job, nil)

	err := (&Combine{Engine: e}).Handle(ctx, job)
	require.Error(t, err)
	var noRetry *core.NoRetryError
	assert.False(t, errors.As(err, &noRetry))
}

func TestSplit_WritesEveryPage(t *testing.T) {
	dir := t.TempDir()
	inputs := touch(t, dir, "report.pdf", "memo.pdf")
	e := newFakeEngine()
	e.pages[inputs[0]] = 3
	e.pages[inputs[1]] = 1
	out := filepath.Join(dir, "pages")
	job := &core.Job{Inputs: inputs, OutputDir: out}
	ctx, reports := jobContext(job, nil)

	require.NoError(t, (&Split{Engine: e}).Handle(ctx, job))

	assert.Equal(t, []string{
		filepath.Join(out, "report_page1.pdf"),
		filepath.Join(out, "report_page2.pdf"),
		filepath.Join(out, "report_page3.pdf"),
		filepath.Join(out, "memo_page1.pdf"),
	}, job.Outputs)
	require.Len(t, *reports, 4)
	assert.Equal(t, "report.pdf page 1/3", (*reports)[0].label)
	assert.Equal(t, 33, (*reports)[0].percent)
	assert.Equal(t, 100, (*reports)[2].percent)
}

func TestSplit_CancelBetweenPages(t *testing.T) {
	dir := t.TempDir()
	inputs := touch(t, dir, "long.pdf")
	e := newFakeEngine()
	e.pages[inputs[0]] = 10
	job := &core.Job{Inputs: inputs, OutputDir: dir}

	checks := 0
	ctx, _ := jobContext(job, func() bool {
		checks++
		// file checkpoint, then pages 1 and 2 pass
		return checks > 3
	})

	err := (&Split{Engine: e}).Handle(ctx, job)
	assert.ErrorIs(t, err, core.ErrCancelled)
	assert.Len(t, e.ops("extract"), 2)
	assert.Len(t, job.Outputs, 2)
}

func TestWatermark_TextDefaults(t *testing.T) {
	dir := t.TempDir()
	inputs := touch(t, dir, "a.pdf", "b.pdf")
	e := newFakeEngine()
	job := &core.Job{Inputs: inputs, OutputDir: dir, Settings: core.Settings{"text": "DRAFT"}}
	ctx, _ := jobContext(job, nil)

	require.NoError(t, (&Watermark{Engine: e}).Handle(ctx, job))

	calls := e.ops("text")
	require.Len(t, calls, 2)
	assert.Equal(t, pdf.TextStamp{
		Text: "DRAFT", FontSize: 48, Opacity: 0.3, Rotation: 45,
		Color: "#808080", Position: pdf.PositionCenter,
	}, calls[0].text)
	assert.Equal(t, filepath.Join(dir, "watermarked_a.pdf"), calls[0].out)
	assert.Equal(t, filepath.Join(dir, "watermarked_b.pdf"), calls[1].out)
}

func TestWatermark_SettingsFromStrings(t *testing.T) {
	dir := t.TempDir()
	e := newFakeEngine()
	job := &core.Job{
		Inputs:    touch(t, dir, "a.pdf"),
		OutputDir: dir,
		Settings: core.Settings{
			"text": "COPY", "font_size": "72", "opacity": "0.5",
			"rotation": "-30", "color": "#FF0000", "position": "top-left",
		},
	}
	ctx, _ := jobContext(job, nil)

	require.NoError(t, (&Watermark{Engine: e}).Handle(ctx, job))
	stamp := e.ops("text")[0].text
	assert.Equal(t, 72, stamp.FontSize)
	assert.InDelta(t, 0.5, stamp.Opacity, 1e-9)
	assert.InDelta(t, -30.0, stamp.Rotation, 1e-9)
	assert.Equal(t, pdf.PositionTopLeft, stamp.Position)
}

func TestWatermark_FileStamp(t *testing.T) {
	dir := t.TempDir()
	stamp := touch(t, dir, "logo.pdf")[0]
	e := newFakeEngine()
	job := &core.Job{Inputs: touch(t, dir, "a.pdf"), OutputDir: dir, Settings: core.Settings{"watermark_file": stamp}}
	ctx, _ := jobContext(job, nil)

	require.NoError(t, (&Watermark{Engine: e}).Handle(ctx, job))
	calls := e.ops("file")
	require.Len(t, calls, 1)
	assert.Equal(t, stamp, calls[0].file)
	assert.Empty(t, e.ops("text"))
}

func TestWatermark_InvalidSettings(t *testing.T) {
	dir := t.TempDir()
	inputs := touch(t, dir, "a.pdf")

	tests := []struct {
		name     string
		settings core.Settings
		target   error
	}{
		{"missing text", core.Settings{}, core.ErrInvalidSettings},
		{"opacity above one", core.Settings{"text": "x", "opacity": 1.5}, core.ErrInvalidSettings},
		{"opacity not a number", core.Settings{"text": "x", "opacity": "lots"}, core.ErrInvalidSettings},
		{"zero font size", core.Settings{"text": "x", "font_size": 0}, core.ErrInvalidSettings},
		{"bad color", core.Settings{"text": "x", "color": "grey"}, core.ErrInvalidSettings},
		{"bad position", core.Settings{"text": "x", "position": "middle"}, core.ErrInvalidSettings},
		{"missing stamp file", core.Settings{"watermark_file": filepath.Join(dir, "nope.pdf")}, core.ErrFileNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newFakeEngine()
			job := &core.Job{Inputs: inputs, OutputDir: dir, Settings: tt.settings}
			ctx, _ := jobContext(job, nil)

			assertPermanent(t, (&Watermark{Engine: e}).Handle(ctx, job), tt.target)
			assert.Empty(t, e.calls)
		})
	}
}

func TestEncrypt_DefaultOwnerPassword(t *testing.T) {
	dir := t.TempDir()
	e := newFakeEngine()
	job := &core.Job{Inputs: touch(t, dir, "a.pdf"), OutputDir: dir, Settings: core.Settings{"password": "Secret123"}}
	ctx, _ := jobContext(job, nil)

	require.NoError(t, (&Encrypt{Engine: e}).Handle(ctx, job))
	calls := e.ops("encrypt")
	require.Len(t, calls, 1)
	assert.Equal(t, "Secret123", calls[0].user)
	assert.Equal(t, "Secret123_owner", calls[0].owner)
	assert.Equal(t, filepath.Join(dir, "encrypted_a.pdf"), calls[0].out)
	assert.Equal(t, pdf.Permissions{Print: true, Copy: true, Annotate: true}, calls[0].perms,
		"printing, copying and annotating are allowed, modification is not")
}

func TestEncrypt_PermissionSettings(t *testing.T) {
	dir := t.TempDir()
	e := newFakeEngine()
	job := &core.Job{
		Inputs:    touch(t, dir, "a.pdf"),
		OutputDir: dir,
		Settings: core.Settings{
			"password":       "Secret123",
			"allow_print":    "false",
			"allow_modify":   true,
			"allow_annotate": false,
		},
	}
	ctx, _ := jobContext(job, nil)

	require.NoError(t, (&Encrypt{Engine: e}).Handle(ctx, job))
	assert.Equal(t, pdf.Permissions{Modify: true, Copy: true}, e.ops("encrypt")[0].perms)
}

func TestEncrypt_InvalidPermissionSetting(t *testing.T) {
	dir := t.TempDir()
	e := newFakeEngine()
	job := &core.Job{
		Inputs:    touch(t, dir, "a.pdf"),
		OutputDir: dir,
		Settings:  core.Settings{"password": "Secret123", "allow_copy": "sometimes"},
	}
	ctx, _ := jobContext(job, nil)

	assertPermanent(t, (&Encrypt{Engine: e}).Handle(ctx, job), core.ErrInvalidSettings)
	assert.Empty(t, e.calls)
}

func TestEncrypt_ExplicitOwnerPassword(t *testing.T) {
	dir := t.TempDir()
	e := newFakeEngine()
	job := &core.Job{
		Inputs:    touch(t, dir, "a.pdf"),
		OutputDir: dir,
		Settings:  core.Settings{"password": "Secret123", "owner_password": "Owner9999"},
	}
	ctx, _ := jobContext(job, nil)

	require.NoError(t, (&Encrypt{Engine: e}).Handle(ctx, job))
	assert.Equal(t, "Owner9999", e.ops("encrypt")[0].owner)
}

func TestEncrypt_WeakPassword(t *testing.T) {
	dir := t.TempDir()
	for _, pw := range []string{"", "short1A", "alllowercase1", "NoDigitsHere"} {
		e := newFakeEngine()
		job := &core.Job{Inputs: touch(t, dir, "a.pdf"), OutputDir: dir, Settings: core.Settings{"password": pw}}
		ctx, _ := jobContext(job, nil)

		assertPermanent(t, (&Encrypt{Engine: e}).Handle(ctx, job), core.ErrInvalidSettings)
		assert.Empty(t, e.calls)
	}
}

func TestCompress_WritesOutputs(t *testing.T) {
	dir := t.TempDir()
	inputs := touch(t, dir, "a.pdf", "b.pdf")
	e := newFakeEngine()
	job := &core.Job{Inputs: inputs, OutputDir: filepath.Join(dir, "small")}
	ctx, reports := jobContext(job, nil)

	require.NoError(t, (&Compress{Engine: e}).Handle(ctx, job))
	assert.Equal(t, []string{
		filepath.Join(dir, "small", "compressed_a.pdf"),
		filepath.Join(dir, "small", "compressed_b.pdf"),
	}, job.Outputs)
	for _, out := range job.Outputs {
		_, err := os.Stat(out)
		assert.NoError(t, err)
	}
	assert.Len(t, *reports, 2)
}

func TestPrepare_NoInputsAndNoOutputDir(t *testing.T) {
	assertPermanent(t, prepare(&core.Job{}), core.ErrNoInputs)

	dir := t.TempDir()
	assertPermanent(t, prepare(&core.Job{Inputs: touch(t, dir, "a.pdf")}), core.ErrNoOutputDir)
}
