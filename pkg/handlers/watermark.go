package handlers

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/jdziat/pdfbatch/pkg/core"
	"github.com/jdziat/pdfbatch/pkg/pdf"
)

// Watermark settings keys and defaults.
const (
	SettingText          = "text"
	SettingFontSize      = "font_size"
	SettingOpacity       = "opacity"
	SettingRotation      = "rotation"
	SettingColor         = "color"
	SettingPosition      = "position"
	SettingWatermarkFile = "watermark_file"

	DefaultFontSize = 48
	DefaultOpacity  = 0.3
	DefaultRotation = 45.0
	DefaultColor    = "#808080"
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Watermark stamps text, or the first page of another PDF, onto every page
// of each input and writes watermarked_<base>.pdf.
type Watermark struct {
	Engine pdf.Engine
}

// Handle implements Handler.
func (h *Watermark) Handle(ctx context.Context, job *core.Job) error {
	apply, err := h.stamper(job.Settings)
	if err != nil {
		return err
	}
	if err := prepare(job); err != nil {
		return err
	}

	var outputs []string
	err = eachInput(ctx, job, func(_ int, in string) error {
		out := filepath.Join(job.OutputDir, fmt.Sprintf("watermarked_%s.pdf", baseName(in)))
		if err := apply(in, out); err != nil {
			return err
		}
		outputs = append(outputs, out)
		return nil
	})
	job.Outputs = outputs
	return err
}

// stamper validates the settings and returns the per-file operation.
func (h *Watermark) stamper(s core.Settings) (func(in, out string) error, error) {
	opacity, err := s.Float(SettingOpacity, DefaultOpacity)
	if err != nil {
		return nil, invalidSetting(SettingOpacity, err)
	}
	if opacity < 0 || opacity > 1 {
		return nil, invalidSetting(SettingOpacity, fmt.Errorf("must be between 0 and 1, got %v", opacity))
	}
	rotation, err := s.Float(SettingRotation, DefaultRotation)
	if err != nil {
		return nil, invalidSetting(SettingRotation, err)
	}
	if rotation < -180 || rotation > 180 {
		return nil, invalidSetting(SettingRotation, fmt.Errorf("must be between -180 and 180, got %v", rotation))
	}
	pos, err := pdf.ParsePosition(s.String(SettingPosition, string(pdf.PositionCenter)))
	if err != nil {
		return nil, invalidSetting(SettingPosition, err)
	}

	if s.Has(SettingWatermarkFile) {
		stampFile := s.String(SettingWatermarkFile, "")
		if err := requireInputs(&core.Job{Inputs: []string{stampFile}}); err != nil {
			return nil, err
		}
		stamp := pdf.FileStamp{Opacity: opacity, Rotation: rotation, Position: pos}
		return func(in, out string) error {
			return h.Engine.FileWatermark(in, out, stampFile, stamp)
		}, nil
	}

	text := s.String(SettingText, "")
	if text == "" {
		return nil, invalidSetting(SettingText, fmt.Errorf("either %s or %s is required", SettingText, SettingWatermarkFile))
	}
	size, err := s.Int(SettingFontSize, DefaultFontSize)
	if err != nil {
		return nil, invalidSetting(SettingFontSize, err)
	}
	if size <= 0 {
		return nil, invalidSetting(SettingFontSize, fmt.Errorf("must be positive, got %d", size))
	}
	color := s.String(SettingColor, DefaultColor)
	if !hexColor.MatchString(color) {
		return nil, invalidSetting(SettingColor, fmt.Errorf("want #RRGGBB, got %q", color))
	}

	stamp := pdf.TextStamp{
		Text:     text,
		FontSize: size,
		Opacity:  opacity,
		Rotation: rotation,
		Color:    color,
		Position: pos,
	}
	return func(in, out string) error {
		return h.Engine.TextWatermark(in, out, stamp)
	}, nil
}
