package pdf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_AcceptsValidDocument(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPDF(t, dir, "ok.pdf", 2)

	assert.NoError(t, NewValidator().Validate(path))
}

func TestValidator_RejectsMissingFile(t *testing.T) {
	err := NewValidator().Validate(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.ErrorIs(t, err, ErrUnreadable)
}

func TestValidator_RejectsDirectory(t *testing.T) {
	err := NewValidator().Validate(t.TempDir())
	assert.ErrorIs(t, err, ErrUnreadable)
}

func TestValidator_RejectsWrongMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.pdf")
	require.NoError(t, os.WriteFile(path, []byte("hello, this is plain text"), 0o644))

	assert.ErrorIs(t, NewValidator().Validate(path), ErrNotPDF)
}

func TestValidator_RejectsShortFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%P"), 0o644))

	assert.ErrorIs(t, NewValidator().Validate(path), ErrNotPDF)
}

func TestValidator_RejectsTruncatedDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog"), 0o644))

	err := NewValidator().Validate(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCorruptFile)
}

func TestValidator_RejectsEncryptedDocument(t *testing.T) {
	dir := t.TempDir()
	in := writeTestPDF(t, dir, "plain.pdf", 1)
	out := filepath.Join(dir, "locked.pdf")
	require.NoError(t, NewEngine().Encrypt(in, out, "Secret123", "Secret123_owner", DefaultPermissions()))

	assert.ErrorIs(t, NewValidator().Validate(out), ErrEncrypted)
}

func TestValidator_DamagedDocumentMentioningEncryptIsCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.pdf")
	body := "%PDF-1.4\n1 0 obj\n<< /Length 24 >>\nstream\n(see /Encrypt below) Tj\nendstream\nendobj\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	err := NewValidator().Validate(path)
	assert.ErrorIs(t, err, ErrCorruptFile)
	assert.NotErrorIs(t, err, ErrEncrypted)
}

func TestIsEncryptionError(t *testing.T) {
	assert.True(t, isEncryptionError(pdfcpu.ErrWrongPassword))
	assert.True(t, isEncryptionError(fmt.Errorf("read: %w", pdfcpu.ErrWrongPassword)))
	assert.True(t, isEncryptionError(errors.New(`pdfcpu: unsupported encryption: filter must be "Standard"`)))
	assert.False(t, isEncryptionError(errors.New("pdfcpu: no xref table found")))
}
