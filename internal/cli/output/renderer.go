package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/leapstack-labs/sqleibniz/pkg/diag"
)

// bannerWidth is the width of section banners.
const bannerWidth = 72

// Renderer writes command output in the configured mode.
type Renderer struct {
	out     io.Writer
	errOut  io.Writer
	mode    OutputMode
	isTTY   bool
	profile termenv.Profile
	styles  *Styles
	diags   *diag.Renderer
}

// NewRenderer creates a renderer, detecting whether out is a terminal.
func NewRenderer(out, errOut io.Writer, mode OutputMode) *Renderer {
	return NewRendererWithTTY(out, errOut, isTerminal(out), mode)
}

// NewRendererWithTTY creates a renderer with an explicit TTY state.
// Colour is enabled only for a TTY and then limited by the environment.
func NewRendererWithTTY(out, errOut io.Writer, isTTY bool, mode OutputMode) *Renderer {
	profile := termenv.Ascii
	if isTTY {
		profile = termenv.NewOutput(out).EnvColorProfile()
	}

	lr := lipgloss.NewRenderer(out)
	lr.SetColorProfile(profile)

	return &Renderer{
		out:     out,
		errOut:  errOut,
		mode:    mode,
		isTTY:   isTTY,
		profile: profile,
		styles:  NewStyles(lr),
		diags:   diag.NewRenderer(NewPalette(profile)),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // file descriptors fit in int
}

// IsTTY reports whether stdout is a terminal.
func (r *Renderer) IsTTY() bool {
	return r.isTTY
}

// Mode returns the configured mode.
func (r *Renderer) Mode() OutputMode {
	return r.mode
}

// EffectiveMode resolves auto to text. Piped auto output is still text,
// only without colour.
func (r *Renderer) EffectiveMode() OutputMode {
	if r.mode == ModeJSON {
		return ModeJSON
	}
	return ModeText
}

// Styles returns the renderer's styles.
func (r *Renderer) Styles() *Styles {
	return r.styles
}

// Profile returns the colour profile in use.
func (r *Renderer) Profile() termenv.Profile {
	return r.profile
}

// Writer returns the stdout writer.
func (r *Renderer) Writer() io.Writer {
	return r.out
}

// ErrWriter returns the stderr writer.
func (r *Renderer) ErrWriter() io.Writer {
	return r.errOut
}

// Println writes a line to stdout.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Printf writes formatted text to stdout.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.out, format, a...)
}

// Success prints a success message.
func (r *Renderer) Success(msg string) {
	r.Println(r.styles.Success.Render(msg))
}

// Muted prints a de-emphasised message.
func (r *Renderer) Muted(msg string) {
	r.Println(r.styles.Muted.Render(msg))
}

// Warning prints a warning to stderr.
func (r *Renderer) Warning(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Warning.Render("warning")+": "+msg)
}

// Error prints an error to stderr.
func (r *Renderer) Error(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Error.Render("error")+": "+msg)
}

// Banner prints title centred in a line of '=' characters.
func (r *Renderer) Banner(title string) {
	r.Println(r.styles.Header.Render(FormatBanner(title)))
}

// FormatBanner centres " title " in a bannerWidth wide run of '='. Titles
// wider than the banner are returned padded by single spaces only.
func FormatBanner(title string) string {
	title = " " + title + " "
	fill := bannerWidth - lipgloss.Width(title)
	if fill <= 0 {
		return title
	}
	left := fill / 2
	return strings.Repeat("=", left) + title + strings.Repeat("=", fill-left)
}

// Diagnostic prints the source anchored report of d.
func (r *Renderer) Diagnostic(d *diag.Diagnostic, src []byte) {
	_ = r.diags.Render(r.out, d, src)
}

// JSON writes v as indented JSON to stdout.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding json output: %w", err)
	}
	return nil
}
