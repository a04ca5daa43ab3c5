package render

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/fentz26/ticgit/internal/models"
)

// ColorMode selects when output is styled.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode validates a --color value. Empty means auto.
func ParseColorMode(s string) (ColorMode, error) {
	switch m := ColorMode(s); m {
	case "":
		return ColorAuto, nil
	case ColorAuto, ColorAlways, ColorNever:
		return m, nil
	}
	return "", fmt.Errorf("invalid color mode %q (want auto, always or never)", s)
}

// Styles colours list and detail output. A disabled Styles returns text
// unchanged.
type Styles struct {
	enabled bool
	header  lipgloss.Style
	current lipgloss.Style
	states  map[models.State]lipgloss.Style
}

// NewStyles builds styles for output written to w.
func NewStyles(w io.Writer, mode ColorMode) *Styles {
	r := lipgloss.NewRenderer(w)
	enabled := false
	switch mode {
	case ColorAlways:
		r.SetColorProfile(termenv.ANSI256)
		enabled = true
	case ColorNever:
		r.SetColorProfile(termenv.Ascii)
	default:
		enabled = !termenv.EnvNoColor() && r.ColorProfile() != termenv.Ascii
	}

	return &Styles{
		enabled: enabled,
		header:  r.NewStyle().Bold(true),
		current: r.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		states: map[models.State]lipgloss.Style{
			models.StateOpen:     r.NewStyle().Foreground(lipgloss.Color("2")), // Green
			models.StateResolved: r.NewStyle().Foreground(lipgloss.Color("4")), // Blue
			models.StateInvalid:  r.NewStyle().Foreground(lipgloss.Color("1")), // Red
			models.StateHold:     r.NewStyle().Foreground(lipgloss.Color("3")), // Yellow
		},
	}
}

// Plain returns styles that never colour.
func Plain() *Styles { return &Styles{} }

// Enabled reports whether styling is applied.
func (s *Styles) Enabled() bool { return s != nil && s.enabled }

func (s *Styles) Header(text string) string {
	if !s.Enabled() {
		return text
	}
	return s.header.Render(text)
}

func (s *Styles) Current(text string) string {
	if !s.Enabled() {
		return text
	}
	return s.current.Render(text)
}

// State colours text according to st.
func (s *Styles) State(st models.State, text string) string {
	if !s.Enabled() {
		return text
	}
	style, ok := s.states[st]
	if !ok {
		return text
	}
	return style.Render(text)
}
