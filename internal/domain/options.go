package domain

import (
	"fmt"
	"strings"
)

// PaperSize holds page dimensions in inches, the unit Chrome's printToPDF expects.
type PaperSize struct {
	Width  float64
	Height float64
}

// paperFormats is the fixed set of accepted page formats. Unknown formats are
// rejected during normalization rather than passed through to the engine.
var paperFormats = map[string]PaperSize{
	"LETTER":  {Width: 8.5, Height: 11},
	"LEGAL":   {Width: 8.5, Height: 14},
	"TABLOID": {Width: 11, Height: 17},
	"LEDGER":  {Width: 17, Height: 11},
	"A0":      {Width: 33.1, Height: 46.8},
	"A1":      {Width: 23.4, Height: 33.1},
	"A2":      {Width: 16.54, Height: 23.4},
	"A3":      {Width: 11.7, Height: 16.54},
	"A4":      {Width: 8.27, Height: 11.7},
	"A5":      {Width: 5.83, Height: 8.27},
	"A6":      {Width: 4.13, Height: 5.83},
}

const (
	DefaultFormat = "A4"

	MinScale = 0.1
	MaxScale = 2.0
)

// RawOptions mirrors the options object of the request payload. Every field
// is a pointer so an omitted field can be told apart from an explicit zero
// value; a partial or nil object is valid input for Normalize.
type RawOptions struct {
	Format          *string  `json:"format"`
	Landscape       *bool    `json:"landscape"`
	PrintBackground *bool    `json:"print_background"`
	MarginTop       *string  `json:"margin_top"`
	MarginBottom    *string  `json:"margin_bottom"`
	MarginLeft      *string  `json:"margin_left"`
	MarginRight     *string  `json:"margin_right"`
	Scale           *float64 `json:"scale"`
}

// RenderOptions is the normalized, validated form of RawOptions. Treat values
// as immutable once returned by Normalize. Empty margin strings and a zero
// Scale mean "unset, engine default applies".
type RenderOptions struct {
	Format          string
	Paper           PaperSize
	Landscape       bool
	PrintBackground bool
	MarginTop       string
	MarginBottom    string
	MarginLeft      string
	MarginRight     string
	Scale           float64
}

// RenderRequest is the one-shot payload for a single conversion. It is
// consumed once by the render pipeline and never persisted.
type RenderRequest struct {
	HTML    string      `json:"html"`
	Options *RawOptions `json:"options"`
}

// Normalize validates raw options and fills every omitted field with its
// default: format "A4", portrait, backgrounds printed, margins and scale
// unset. Margin strings pass through unmodified; their unit syntax is the
// engine's concern. A nil raw object yields all defaults.
func Normalize(raw *RawOptions) (RenderOptions, error) {
	opts := RenderOptions{
		Format:          DefaultFormat,
		Paper:           paperFormats[DefaultFormat],
		PrintBackground: true,
	}
	if raw == nil {
		return opts, nil
	}

	if raw.Format != nil {
		key := strings.ToUpper(strings.TrimSpace(*raw.Format))
		paper, ok := paperFormats[key]
		if !ok {
			return RenderOptions{}, &ValidationError{
				Field:  "format",
				Reason: fmt.Sprintf("unknown page format %q", *raw.Format),
			}
		}
		opts.Format = key
		opts.Paper = paper
	}
	if raw.Landscape != nil {
		opts.Landscape = *raw.Landscape
	}
	if raw.PrintBackground != nil {
		opts.PrintBackground = *raw.PrintBackground
	}
	if raw.MarginTop != nil {
		opts.MarginTop = *raw.MarginTop
	}
	if raw.MarginBottom != nil {
		opts.MarginBottom = *raw.MarginBottom
	}
	if raw.MarginLeft != nil {
		opts.MarginLeft = *raw.MarginLeft
	}
	if raw.MarginRight != nil {
		opts.MarginRight = *raw.MarginRight
	}
	if raw.Scale != nil {
		s := *raw.Scale
		if s < MinScale || s > MaxScale {
			return RenderOptions{}, &ValidationError{
				Field:  "scale",
				Reason: fmt.Sprintf("must be between %g and %g, got %g", MinScale, MaxScale, s),
			}
		}
		opts.Scale = s
	}

	return opts, nil
}

// KnownFormats lists the accepted page format names, for error messages and
// documentation endpoints.
func KnownFormats() []string {
	names := make([]string, 0, len(paperFormats))
	for name := range paperFormats {
		names = append(names, name)
	}
	return names
}
