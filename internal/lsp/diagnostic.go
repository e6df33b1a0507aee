package lsp

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/sqleibniz/pkg/diag"
	"github.com/leapstack-labs/sqleibniz/pkg/lint"
)

// Source is the diagnostic source reported to clients.
const Source = "sqleibniz"

// ToProtocolDiagnostic converts a diagnostic to its protocol form. The
// range covers the diagnostic's span on its line, the code is the rule name
// and the message joins message and note.
func ToProtocolDiagnostic(d diag.Diagnostic) Diagnostic {
	pd := Diagnostic{
		Range: Range{
			Start: Position{Line: toUint(d.Line), Character: toUint(d.Start)},
			End:   Position{Line: toUint(d.Line), Character: toUint(max(d.Start, d.End))},
		},
		Severity: DiagnosticSeverityError,
		Code:     d.Rule.String(),
		Source:   Source,
		Message:  d.Message,
	}
	if d.Note != "" {
		pd.Message += ": " + d.Note
	}
	if d.DocURL != "" {
		pd.CodeDescription = &CodeDescription{Href: d.DocURL}
	}
	return pd
}

// findingToProtocol converts a hook finding. Findings are not rules, so
// the code is the hook name.
func findingToProtocol(f lint.HookFinding) Diagnostic {
	return Diagnostic{
		Range: Range{
			Start: Position{Line: toUint(f.Line), Character: toUint(f.Start)},
			End:   Position{Line: toUint(f.Line), Character: toUint(max(f.Start, f.End))},
		},
		Severity: toLSPSeverity(f.Severity),
		Code:     f.Hook,
		Source:   Source,
		Message:  f.Message,
	}
}

func toLSPSeverity(s lint.Severity) DiagnosticSeverity {
	switch s {
	case lint.SeverityInfo:
		return DiagnosticSeverityInformation
	default:
		return DiagnosticSeverityWarning
	}
}

func toUint(n int) uint32 {
	return uint32(max(0, n)) //nolint:gosec // G115: clamped to non-negative
}

// diagnose analyses doc and returns its protocol diagnostics. Fixes of the
// returned diagnostics are cached for code actions.
func (s *Server) diagnose(doc *Document) []Diagnostic {
	res, err := s.analyzer.Analyze(context.Background(), URIToPath(doc.URI), []byte(doc.Content))
	if err != nil {
		s.logger.Error("Analysis failed", slog.String("uri", doc.URI), slog.Any("error", err))
		s.sendNotification("window/showMessage", &ShowMessageParams{
			Type:    MessageTypeError,
			Message: err.Error(),
		})
		s.fixes.clearURI(doc.URI)
		return []Diagnostic{}
	}

	diagnostics := make([]Diagnostic, 0, len(res.Diagnostics)+len(res.Findings))
	var fixes []cachedFix
	for _, d := range res.Diagnostics {
		if d.Rule == diag.NoStatements {
			// absence is observed at the end of the document
			end := doc.End()
			d.Line, d.Start, d.End = int(end.Line), int(end.Character), int(end.Character)
		}
		pd := ToProtocolDiagnostic(d)
		diagnostics = append(diagnostics, pd)
		if d.Fix != nil {
			fixes = append(fixes, cachedFix{diagnostic: pd, fix: *d.Fix, line: d.Line})
		}
	}
	for _, f := range res.Findings {
		diagnostics = append(diagnostics, findingToProtocol(f))
	}
	s.fixes.store(doc.URI, fixes)

	s.logger.Debug("Diagnosed",
		slog.String("uri", doc.URI),
		slog.Int("diagnostics", len(res.Diagnostics)),
		slog.Int("ignored", res.Ignored),
		slog.Int("findings", len(res.Findings)),
	)
	return diagnostics
}

// publishDiagnostics analyses the document and publishes the result.
func (s *Server) publishDiagnostics(uri string) {
	doc := s.documents.Get(uri)
	if doc == nil {
		return
	}

	version := doc.Version
	s.sendNotification("textDocument/publishDiagnostics", &PublishDiagnosticsParams{
		URI:         uri,
		Version:     &version,
		Diagnostics: s.diagnose(doc),
	})
}
