// Package diag holds the diagnostic model shared by the lexer and parser:
// the closed Rule taxonomy, the Diagnostic record, rule suppression and the
// source anchored text renderer.
package diag

import "fmt"

// Fix is a suggested one line textual repair: Snippet inserted at column
// Start of the diagnostic's line.
type Fix struct {
	Snippet string `json:"snippet"`
	Start   int    `json:"start"`
}

// Diagnostic is one reported defect.
//
// Line, Start and End are 0-based and only valid for the buffer the
// diagnostic was produced from. End may be less than or equal to Start, the
// renderer treats such spans as a single column.
type Diagnostic struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Rule    Rule   `json:"rule"`
	Message string `json:"message"`
	Note    string `json:"note"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
	DocURL  string `json:"doc_url,omitempty"`
	Fix     *Fix   `json:"fix,omitempty"`
}

// String returns a compact single line form: file:line:col: error[Rule]: message.
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d:%d: error[%s]: %s", d.File, d.Line+1, d.Start+1, d.Rule, d.Message)
}

// Filter removes every diagnostic whose rule is disabled. The order and
// content of the remaining diagnostics are unchanged; ignored is the number
// of removed diagnostics.
func Filter(diags []Diagnostic, disabled map[Rule]bool) (kept []Diagnostic, ignored int) {
	kept = make([]Diagnostic, 0, len(diags))
	for _, d := range diags {
		if disabled[d.Rule] {
			ignored++
			continue
		}
		kept = append(kept, d)
	}
	return kept, ignored
}
