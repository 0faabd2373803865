package pdf

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Position is the anchor of a text watermark on the page.
type Position string

const (
	PositionCenter      Position = "center"
	PositionTopLeft     Position = "top-left"
	PositionTopRight    Position = "top-right"
	PositionBottomLeft  Position = "bottom-left"
	PositionBottomRight Position = "bottom-right"
)

// ParsePosition converts a settings value into a Position.
func ParsePosition(s string) (Position, error) {
	p := Position(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case PositionCenter, PositionTopLeft, PositionTopRight, PositionBottomLeft, PositionBottomRight:
		return p, nil
	case "":
		return PositionCenter, nil
	}
	return "", fmt.Errorf("unknown watermark position %q", s)
}

func (p Position) anchor() string {
	switch p {
	case PositionTopLeft:
		return "tl"
	case PositionTopRight:
		return "tr"
	case PositionBottomLeft:
		return "bl"
	case PositionBottomRight:
		return "br"
	default:
		return "c"
	}
}

// TextStamp describes a text watermark.
type TextStamp struct {
	Text     string
	FontSize int
	Opacity  float64 // 0..1
	Rotation float64 // degrees
	Color    string  // #RRGGBB
	Position Position
}

// Description renders the stamp in pdfcpu's watermark description syntax.
func (s TextStamp) Description() string {
	parts := []string{
		"font:Helvetica",
		"points:" + strconv.Itoa(s.FontSize),
		"rot:" + strconv.FormatFloat(s.Rotation, 'f', -1, 64),
		"op:" + strconv.FormatFloat(s.Opacity, 'f', -1, 64),
		"pos:" + s.Position.anchor(),
		"scale:1 abs",
	}
	if s.Color != "" {
		parts = append(parts, "fillcol:"+s.Color)
	}
	return strings.Join(parts, ", ")
}

// FileStamp describes a watermark taken from the first page of another PDF.
type FileStamp struct {
	Opacity  float64
	Rotation float64
	Position Position
}

// Description renders the stamp in pdfcpu's watermark description syntax.
func (s FileStamp) Description() string {
	return strings.Join([]string{
		"rot:" + strconv.FormatFloat(s.Rotation, 'f', -1, 64),
		"op:" + strconv.FormatFloat(s.Opacity, 'f', -1, 64),
		"pos:" + s.Position.anchor(),
	}, ", ")
}

// Engine is the set of document operations used by the handlers.
type Engine interface {
	PageCount(path string) (int, error)
	// Merge concatenates inputs, in order, into out.
	Merge(inputs []string, out string) error
	// ExtractPage writes the 1-based page of in to out.
	ExtractPage(in string, page int, out string) error
	TextWatermark(in, out string, stamp TextStamp) error
	FileWatermark(in, out, stampFile string, stamp FileStamp) error
	Encrypt(in, out, userPassword, ownerPassword string, perms Permissions) error
	Optimize(in, out string) error
}

// PDFCPU implements Engine with github.com/pdfcpu/pdfcpu.
type PDFCPU struct {
	conf *model.Configuration
}

// NewEngine creates a pdfcpu backed Engine. pdfcpu's user configuration
// directory is disabled so the engine never writes outside the output paths.
func NewEngine() *PDFCPU {
	api.DisableConfigDir()
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &PDFCPU{conf: conf}
}

// PageCount returns the number of pages in path.
func (e *PDFCPU) PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("page count %s: %w", path, err)
	}
	return n, nil
}

// Merge concatenates inputs into out.
func (e *PDFCPU) Merge(inputs []string, out string) error {
	if err := api.MergeCreateFile(inputs, out, false, e.conf); err != nil {
		return fmt.Errorf("merge: %w", err)
	}
	return nil
}

// ExtractPage writes one page of in to out.
func (e *PDFCPU) ExtractPage(in string, page int, out string) error {
	if page < 1 {
		return fmt.Errorf("extract page %d: page numbers start at 1", page)
	}
	if err := api.TrimFile(in, out, []string{strconv.Itoa(page)}, e.conf); err != nil {
		return fmt.Errorf("extract page %d of %s: %w", page, in, err)
	}
	return nil
}

// TextWatermark stamps text onto every page of in.
func (e *PDFCPU) TextWatermark(in, out string, stamp TextStamp) error {
	if err := api.AddTextWatermarksFile(in, out, nil, true, stamp.Text, stamp.Description(), e.conf); err != nil {
		return fmt.Errorf("watermark %s: %w", in, err)
	}
	return nil
}

// FileWatermark stamps the first page of stampFile onto every page of in.
func (e *PDFCPU) FileWatermark(in, out, stampFile string, stamp FileStamp) error {
	if err := api.AddPDFWatermarksFile(in, out, nil, true, stampFile, stamp.Description(), e.conf); err != nil {
		return fmt.Errorf("watermark %s with %s: %w", in, stampFile, err)
	}
	return nil
}

// Permissions lists what a reader holding only the user password may do
// with an encrypted file.
type Permissions struct {
	Print    bool
	Modify   bool
	Copy     bool
	Annotate bool // annotations and form filling
}

// DefaultPermissions allows printing, copying and annotating, and denies
// modification.
func DefaultPermissions() Permissions {
	return Permissions{Print: true, Copy: true, Annotate: true}
}

// Flags returns the PDF user access permission bits for p.
func (p Permissions) Flags() model.PermissionFlags {
	f := model.PermissionsNone
	if p.Print {
		f |= model.PermissionPrintRev2 | model.PermissionPrintRev3
	}
	if p.Modify {
		f |= model.PermissionModify | model.PermissionAssembleRev3
	}
	if p.Copy {
		f |= model.PermissionExtract | model.PermissionExtractRev3
	}
	if p.Annotate {
		f |= model.PermissionModAnnFillForm | model.PermissionFillRev3
	}
	return f
}

// Encrypt writes an AES-256 encrypted copy of in restricted to perms.
func (e *PDFCPU) Encrypt(in, out, userPassword, ownerPassword string, perms Permissions) error {
	conf := model.NewAESConfiguration(userPassword, ownerPassword, 256)
	conf.ValidationMode = e.conf.ValidationMode
	conf.Permissions = perms.Flags()
	if err := api.EncryptFile(in, out, conf); err != nil {
		return fmt.Errorf("encrypt %s: %w", in, err)
	}
	return nil
}

// Optimize writes a compacted copy of in.
func (e *PDFCPU) Optimize(in, out string) error {
	if err := api.OptimizeFile(in, out, e.conf); err != nil {
		return fmt.Errorf("optimize %s: %w", in, err)
	}
	return nil
}

var _ Engine = (*PDFCPU)(nil)
