package diag

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
)

// contextLines is the number of source lines shown before and after the anchor.
const contextLines = 2

// Palette colours the parts of a rendered diagnostic. A nil function leaves
// its part as plain text.
type Palette struct {
	Error  func(string) string // header and underline
	Gutter func(string) string // line numbers and markers
	Note   func(string) string
	Muted  func(string) string // rule description
}

func paint(f func(string) string, s string) string {
	if f == nil {
		return s
	}
	return f(s)
}

// Renderer turns diagnostics into source anchored text reports.
type Renderer struct {
	palette Palette
}

// NewRenderer creates a renderer using the given palette.
func NewRenderer(p Palette) *Renderer {
	return &Renderer{palette: p}
}

// Render writes the report for d, anchored in src, to w.
//
// d is taken by pointer because NoStatements diagnostics are re-anchored to
// the last line of src. Render panics if the anchor line is out of bounds
// for src: the diagnostic must come from scanning or parsing that buffer.
func (r *Renderer) Render(w io.Writer, d *Diagnostic, src []byte) error {
	var b strings.Builder
	r.render(&b, d, src)
	_, err := io.WriteString(w, b.String())
	return err
}

// String returns the report for d as a string, see Render.
func (r *Renderer) String(d *Diagnostic, src []byte) string {
	var b strings.Builder
	r.render(&b, d, src)
	return b.String()
}

func (r *Renderer) render(b *strings.Builder, d *Diagnostic, src []byte) {
	p := r.palette
	fmt.Fprintf(b, "%s: %s\n", paint(p.Error, "error["+d.Rule.String()+"]"), d.Message)
	if len(src) == 0 {
		return
	}

	lines := splitLines(src)
	if d.Rule == NoStatements {
		d.Line = len(lines) - 1
		d.Start = len(lines[d.Line])
		d.End = d.Start
	}
	if d.Line < 0 || d.Line >= len(lines) {
		panic(fmt.Sprintf("diag: anchor line %d of %s out of bounds for a %d line buffer", d.Line, d.File, len(lines)))
	}

	first := max(0, d.Line-contextLines)
	last := min(len(lines)-1, d.Line+contextLines)
	width := max(2, len(strconv.Itoa(last+1)))
	pad := " " + strings.Repeat(" ", width) + " "

	fmt.Fprintf(b, "%s%s %s:%d:%d\n", strings.Repeat(" ", width), paint(p.Gutter, "-->"), canonicalPath(d.File), d.Line+1, d.Start+1)

	for i := first; i < d.Line; i++ {
		r.sourceLine(b, width, i, lines[i])
	}
	r.sourceLine(b, width, d.Line, lines[d.Line])

	underline := strings.Repeat(" ", max(0, d.Start)) + strings.Repeat("^", max(1, d.End-d.Start))
	fmt.Fprintf(b, "%s%s %s\n", pad, paint(p.Gutter, "|"), paint(p.Error, underline+" error occurs here"))

	for i := d.Line + 1; i <= last; i++ {
		r.sourceLine(b, width, i, lines[i])
	}

	fmt.Fprintf(b, "%s%s\n", pad, paint(p.Gutter, "|"))
	fmt.Fprintf(b, "%s%s note: %s\n", pad, paint(p.Gutter, "~"), paint(p.Note, d.Note))
	if d.Fix != nil {
		fmt.Fprintf(b, "%s%s fix: %s\n", pad, paint(p.Gutter, "+"), applyFix(lines[d.Line], d.Fix))
	}
	fmt.Fprintf(b, "%s%s %s: %s\n", pad, paint(p.Gutter, "*"), d.Rule, paint(p.Muted, d.Rule.Description()))
	if d.DocURL != "" {
		fmt.Fprintf(b, "%s%s docs: %s\n", pad, paint(p.Gutter, ">"), d.DocURL)
	}
}

func (r *Renderer) sourceLine(b *strings.Builder, width, index int, text string) {
	fmt.Fprintf(b, " %s %s\n", paint(r.palette.Gutter, fmt.Sprintf("%0*d |", width, index+1)), text)
}

// splitLines splits src at newlines, without a phantom line after a
// trailing newline and without carriage returns.
func splitLines(src []byte) []string {
	lines := strings.Split(string(src), "\n")
	if len(lines) > 1 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// applyFix returns line with the fix snippet inserted.
func applyFix(line string, f *Fix) string {
	at := min(max(0, f.Start), len(line))
	return line[:at] + f.Snippet + line[at:]
}

// canonicalPath resolves path to an absolute, symlink free path, falling
// back to path itself when that fails.
func canonicalPath(path string) string {
	if path == "" {
		return path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return path
	}
	return resolved
}
