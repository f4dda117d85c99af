package ui

import (
	"strings"

	"github.com/fatih/color"
)

const (
	severityHighConstant        = "high"
	severityMediumConstant      = "medium"
	severityLowConstant         = "low"
	conclusionSuccessConstant   = "success"
	conclusionFailureConstant   = "failure"
	conclusionCancelledConstant = "cancelled"
	statusInProgressConstant    = "in_progress"
	statusQueuedConstant        = "queued"
)

// Palette colors report fragments. A disabled palette returns text unchanged.
type Palette struct {
	enabled   bool
	heading   *color.Color
	success   *color.Color
	failure   *color.Color
	warning   *color.Color
	notice    *color.Color
	secondary *color.Color
}

// NewPalette constructs a palette; colors are emitted only when enabled is true.
func NewPalette(enabled bool) Palette {
	palette := Palette{
		enabled:   enabled,
		heading:   color.New(color.FgWhite, color.Bold),
		success:   color.New(color.FgGreen),
		failure:   color.New(color.FgRed, color.Bold),
		warning:   color.New(color.FgYellow),
		notice:    color.New(color.FgCyan),
		secondary: color.New(color.FgHiBlack),
	}
	for _, paletteColor := range []*color.Color{palette.heading, palette.success, palette.failure, palette.warning, palette.notice, palette.secondary} {
		if enabled {
			paletteColor.EnableColor()
		} else {
			paletteColor.DisableColor()
		}
	}
	return palette
}

// Enabled reports whether the palette emits escape sequences.
func (palette Palette) Enabled() bool {
	return palette.enabled
}

// Heading renders section titles.
func (palette Palette) Heading(text string) string {
	return palette.heading.Sprint(text)
}

// Secondary renders de-emphasized details such as timestamps and URLs.
func (palette Palette) Secondary(text string) string {
	return palette.secondary.Sprint(text)
}

// Success renders positive outcomes.
func (palette Palette) Success(text string) string {
	return palette.success.Sprint(text)
}

// Failure renders negative outcomes.
func (palette Palette) Failure(text string) string {
	return palette.failure.Sprint(text)
}

// Severity colors text according to a high/medium/low severity label.
func (palette Palette) Severity(severity string, text string) string {
	switch strings.ToLower(strings.TrimSpace(severity)) {
	case severityHighConstant:
		return palette.failure.Sprint(text)
	case severityMediumConstant:
		return palette.warning.Sprint(text)
	case severityLowConstant:
		return palette.notice.Sprint(text)
	default:
		return text
	}
}

// Conclusion colors a workflow run status or conclusion.
func (palette Palette) Conclusion(value string) string {
	return palette.Status(value, value)
}

// Status colors text according to a workflow run status or conclusion.
func (palette Palette) Status(state string, text string) string {
	switch strings.ToLower(strings.TrimSpace(state)) {
	case conclusionSuccessConstant:
		return palette.success.Sprint(text)
	case conclusionFailureConstant:
		return palette.failure.Sprint(text)
	case conclusionCancelledConstant:
		return palette.secondary.Sprint(text)
	case statusInProgressConstant, statusQueuedConstant:
		return palette.warning.Sprint(text)
	default:
		return text
	}
}
