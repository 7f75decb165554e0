package ui

import (
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/Aman-CERP/shipcheck/internal/finding"
)

// Color palette - lime accent with conventional warn/fail colors
const (
	ColorLime     = "154" // PASS and headers
	ColorWhite    = "255" // Important text
	ColorGray     = "245" // Secondary text, labels
	ColorDarkGray = "238" // Separators
	ColorRed      = "196" // FAIL
	ColorYellow   = "220" // WARN
)

// Styles holds the report styles.
type Styles struct {
	Header lipgloss.Style
	Pass   lipgloss.Style
	Warn   lipgloss.Style
	Fail   lipgloss.Style
	Dim    lipgloss.Style
	Label  lipgloss.Style
}

// DefaultStyles returns colored styles rendered for w.
func DefaultStyles(w io.Writer) Styles {
	r := lipgloss.NewRenderer(w)
	return Styles{
		Header: r.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorWhite)),
		Pass:   r.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorLime)),
		Warn:   r.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorYellow)),
		Fail:   r.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorRed)),
		Dim:    r.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
		Label:  r.NewStyle().Foreground(lipgloss.Color(ColorGray)),
	}
}

// NoColorStyles returns unstyled components for plain mode.
func NoColorStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle(),
		Pass:   lipgloss.NewStyle(),
		Warn:   lipgloss.NewStyle(),
		Fail:   lipgloss.NewStyle(),
		Dim:    lipgloss.NewStyle(),
		Label:  lipgloss.NewStyle(),
	}
}

// GetStyles returns the styles for w, colored only when ColorEnabled.
func GetStyles(w io.Writer, noColor bool) Styles {
	if !ColorEnabled(w, noColor) {
		return NoColorStyles()
	}
	return DefaultStyles(w)
}

// Severity returns the style for a severity.
func (s Styles) Severity(sev finding.Severity) lipgloss.Style {
	switch sev {
	case finding.Fail:
		return s.Fail
	case finding.Warn:
		return s.Warn
	default:
		return s.Pass
	}
}

// Tag renders the bracketed severity tag, e.g. "[WARN]".
func (s Styles) Tag(sev finding.Severity) string {
	return s.Severity(sev).Render("[" + sev.String() + "]")
}
