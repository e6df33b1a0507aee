package lint

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/sqleibniz/pkg/ast"
	"github.com/leapstack-labs/sqleibniz/pkg/diag"
	"github.com/leapstack-labs/sqleibniz/pkg/token"
)

// Severity indicates the importance of a hook finding.
type Severity int

// Severity levels for hook findings.
const (
	// SeverityWarning indicates a potential issue that should be reviewed.
	SeverityWarning Severity = iota
	// SeverityInfo indicates informational feedback.
	SeverityInfo
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// HookFinding is a message returned by a user hook for one node. Findings
// are not rules: they never fail verification and cannot be disabled.
type HookFinding struct {
	File     string   `json:"file"`
	Hook     string   `json:"hook"`
	Node     string   `json:"node"`
	Severity Severity `json:"-"`
	Message  string   `json:"message"`
	Line     int      `json:"line"`
	Start    int      `json:"start"`
	End      int      `json:"end"`
}

// String renders the finding as "file:line:col: warning[hook]: message".
func (f HookFinding) String() string {
	return fmt.Sprintf("%s:%d:%d: %s[%s]: %s", f.File, f.Line+1, f.Start+1, f.Severity, f.Hook, f.Message)
}

// HookRunner runs user hooks over the statements of one file.
type HookRunner interface {
	RunHooks(ctx context.Context, file string, nodes []ast.Node) ([]HookFinding, error)
}

// Result is the outcome of analysing one file.
type Result struct {
	File   string
	Source []byte
	Tokens []token.Token
	// Nodes holds one slot per statement, nil where a statement could not
	// be recovered.
	Nodes []ast.Node
	// Diagnostics are the reported diagnostics, lexical before syntactic.
	Diagnostics []diag.Diagnostic
	// Ignored counts diagnostics of disabled rules.
	Ignored  int
	Findings []HookFinding
}

// OK reports whether the file passed verification.
func (r *Result) OK() bool {
	return len(r.Diagnostics) == 0
}
