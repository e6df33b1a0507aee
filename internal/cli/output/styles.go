package output

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/leapstack-labs/sqleibniz/pkg/diag"
)

// Colors used across the CLI. ANSI indices keep them readable on both light
// and dark terminals.
var (
	colorRed    = lipgloss.Color("1")
	colorGreen  = lipgloss.Color("2")
	colorYellow = lipgloss.Color("3")
	colorBlue   = lipgloss.Color("4")
	colorCyan   = lipgloss.Color("6")
	colorGray   = lipgloss.Color("8")
)

// Styles holds the lipgloss styles of one renderer.
type Styles struct {
	Header  lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Gutter  lipgloss.Style
}

// NewStyles builds styles bound to the colour profile of lr.
func NewStyles(lr *lipgloss.Renderer) *Styles {
	return &Styles{
		Header:  lr.NewStyle().Foreground(colorBlue),
		Bold:    lr.NewStyle().Bold(true),
		Muted:   lr.NewStyle().Foreground(colorGray),
		Success: lr.NewStyle().Foreground(colorGreen),
		Error:   lr.NewStyle().Foreground(colorRed).Bold(true),
		Warning: lr.NewStyle().Foreground(colorYellow),
		Info:    lr.NewStyle().Foreground(colorCyan),
		Gutter:  lr.NewStyle().Foreground(colorBlue),
	}
}

// NewPalette colours diagnostics for profile. Diagnostic notes span lines
// and carry tabs, so the palette paints with termenv sequences instead of
// lipgloss blocks, which would pad and re-indent them.
func NewPalette(profile termenv.Profile) diag.Palette {
	paint := func(color string, bold bool) func(string) string {
		return func(s string) string {
			st := profile.String(s).Foreground(profile.Color(color))
			if bold {
				st = st.Bold()
			}
			return st.String()
		}
	}
	return diag.Palette{
		Error:  paint("1", true),
		Gutter: paint("4", false),
		Note:   paint("6", false),
		Muted:  paint("8", false),
	}
}
