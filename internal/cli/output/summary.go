package output

import (
	"fmt"

	"github.com/leapstack-labs/sqleibniz/pkg/diag"
	"github.com/leapstack-labs/sqleibniz/pkg/lint"
)

// ---------- JSON report ----------

// Report is the machine readable result of a verification run.
type Report struct {
	Files    []FileReport `json:"files"`
	Summary  Summary      `json:"summary"`
	Disabled []string     `json:"disabled_rules"`
}

// FileReport is the result for one file.
type FileReport struct {
	File        string             `json:"file"`
	OK          bool               `json:"ok"`
	Errors      int                `json:"errors"`
	Ignored     int                `json:"ignored"`
	Diagnostics []DiagnosticReport `json:"diagnostics"`
	Findings    []FindingReport    `json:"findings"`
}

// DiagnosticReport is a diagnostic with 1-based positions.
type DiagnosticReport struct {
	Rule    diag.Rule `json:"rule"`
	Group   string    `json:"group"`
	Message string    `json:"message"`
	Note    string    `json:"note,omitempty"`
	Line    int       `json:"line"`
	Column  int       `json:"column"`
	EndCol  int       `json:"end_column"`
	DocURL  string    `json:"doc_url,omitempty"`
	Fix     string    `json:"fix,omitempty"`
}

// FindingReport is a hook finding with 1-based positions.
type FindingReport struct {
	Hook     string `json:"hook"`
	Node     string `json:"node"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
}

// Summary totals a verification run.
type Summary struct {
	Files    int `json:"files"`
	Verified int `json:"verified"`
	Failed   int `json:"failed"`
	Errors   int `json:"errors"`
	Ignored  int `json:"ignored"`
	Findings int `json:"findings"`
}

// NewFileReport converts an analysis result.
func NewFileReport(res *lint.Result) FileReport {
	fr := FileReport{
		File:        res.File,
		OK:          res.OK(),
		Errors:      len(res.Diagnostics),
		Ignored:     res.Ignored,
		Diagnostics: make([]DiagnosticReport, 0, len(res.Diagnostics)),
		Findings:    make([]FindingReport, 0, len(res.Findings)),
	}
	for _, d := range res.Diagnostics {
		dr := DiagnosticReport{
			Rule:    d.Rule,
			Group:   d.Rule.Group(),
			Message: d.Message,
			Note:    d.Note,
			Line:    d.Line + 1,
			Column:  d.Start + 1,
			EndCol:  max(d.End, d.Start+1) + 1,
			DocURL:  d.DocURL,
		}
		if d.Fix != nil {
			dr.Fix = d.Fix.Snippet
		}
		fr.Diagnostics = append(fr.Diagnostics, dr)
	}
	for _, f := range res.Findings {
		fr.Findings = append(fr.Findings, FindingReport{
			Hook:     f.Hook,
			Node:     f.Node,
			Severity: f.Severity.String(),
			Message:  f.Message,
			Line:     f.Line + 1,
			Column:   f.Start + 1,
		})
	}
	return fr
}

// NewReport builds the report for a run.
func NewReport(results []*lint.Result, disabled []diag.Rule) Report {
	rep := Report{
		Files:    make([]FileReport, 0, len(results)),
		Disabled: make([]string, 0, len(disabled)),
	}
	for _, rule := range disabled {
		rep.Disabled = append(rep.Disabled, rule.String())
	}
	for _, res := range results {
		fr := NewFileReport(res)
		rep.Files = append(rep.Files, fr)

		rep.Summary.Files++
		if fr.OK {
			rep.Summary.Verified++
		} else {
			rep.Summary.Failed++
		}
		rep.Summary.Errors += fr.Errors
		rep.Summary.Ignored += fr.Ignored
		rep.Summary.Findings += len(fr.Findings)
	}
	return rep
}

// ---------- text report ----------

// DisabledRules lists the rules whose diagnostics are withheld.
func (r *Renderer) DisabledRules(rules []diag.Rule) {
	if len(rules) == 0 {
		return
	}
	r.Warning("Ignoring the following diagnostics, as specified:")
	for _, rule := range rules {
		_, _ = fmt.Fprintln(r.errOut, r.styles.Gutter.Render(" -> ")+rule.String())
	}
}

// FileResult prints the diagnostics and hook findings of one file under a
// banner naming it. Files without either print nothing.
func (r *Renderer) FileResult(res *lint.Result) {
	if len(res.Diagnostics) == 0 && len(res.Findings) == 0 {
		return
	}
	r.Banner(res.File)
	for i := range res.Diagnostics {
		if i > 0 {
			r.Println()
		}
		r.Diagnostic(&res.Diagnostics[i], res.Source)
	}
	for _, f := range res.Findings {
		style := r.styles.Warning
		if f.Severity == lint.SeverityInfo {
			style = r.styles.Info
		}
		r.Printf("%s %s\n", style.Render(f.Severity.String()+"["+f.Hook+"]:"), f.Message)
		r.Printf("  %s %s:%d:%d\n", r.styles.Gutter.Render("-->"), f.File, f.Line+1, f.Start+1)
	}
}

// Summary prints the per file tally and the closing verdict line.
func (r *Renderer) Summary(results []*lint.Result) {
	s := r.styles
	r.Banner("Summary")

	verified := 0
	for _, res := range results {
		if res.OK() {
			verified++
			r.Printf("%s %s:\n", s.Success.Render("[+]"), res.File)
			r.Printf("    %d Error(s) detected\n", 0)
		} else {
			r.Printf("%s %s:\n", s.Error.Render("[-]"), res.File)
			r.Println(s.Error.Render(fmt.Sprintf("    %d Error(s) detected", len(res.Diagnostics))))
		}
		if res.Ignored > 0 {
			r.Println(s.Warning.Render(fmt.Sprintf("    %d Error(s) ignored", res.Ignored)))
		} else {
			r.Printf("    %d Error(s) ignored\n", 0)
		}
	}

	r.Println()
	r.Printf("%s %d/%d Files verified successfully, %d verification failed.\n",
		s.Header.Render("=>"), verified, len(results), len(results)-verified)
}
