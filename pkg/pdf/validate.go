package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Reasons reported for refused files.
var (
	ErrNotPDF      = errors.New("not a PDF file")
	ErrEncrypted   = errors.New("file is encrypted")
	ErrUnreadable  = errors.New("file cannot be read")
	ErrNoPages     = errors.New("document has no pages")
	ErrCorruptFile = errors.New("document is damaged")
)

var magic = []byte("%PDF")

// Validator checks that a file is a readable, unencrypted PDF whose structure parses.
type Validator struct {
	conf *model.Configuration
}

// NewValidator creates a Validator using relaxed pdfcpu validation.
func NewValidator() *Validator {
	api.DisableConfigDir()
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Validator{conf: conf}
}

// Validate returns nil when path may be admitted, otherwise an error
// wrapping one of the reason sentinels.
func (v *Validator) Validate(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: does not exist", ErrUnreadable)
		}
		return fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: is a directory", ErrUnreadable)
	}

	head := make([]byte, len(magic))
	if _, err := io.ReadFull(f, head); err != nil || !bytes.Equal(head, magic) {
		return ErrNotPDF
	}

	ctx, err := api.ReadContext(f, v.conf)
	if err != nil {
		if isEncryptionError(err) {
			return ErrEncrypted
		}
		return fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}
	if ctx.Encrypt != nil {
		return ErrEncrypted
	}
	if err := api.ValidateContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}
	if ctx.PageCount < 1 {
		return ErrNoPages
	}
	return nil
}

// isEncryptionError reports whether pdfcpu refused to open a document
// because it is password protected or uses an encryption it cannot read.
func isEncryptionError(err error) bool {
	return errors.Is(err, pdfcpu.ErrWrongPassword) ||
		strings.Contains(err.Error(), "unsupported encryption")
}
