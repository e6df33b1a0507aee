package lsp

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/leapstack-labs/sqleibniz/pkg/diag"
)

// cachedFix is a suggested insertion remembered for the diagnostic it
// belongs to.
type cachedFix struct {
	diagnostic Diagnostic
	line       int
	fix        diag.Fix
}

// fixCache stores the fixes of the last analysis of every document.
type fixCache struct {
	mu    sync.RWMutex
	fixes map[string][]cachedFix // URI -> fixes
}

func newFixCache() *fixCache {
	return &fixCache{fixes: make(map[string][]cachedFix)}
}

// store replaces the fixes for a URI.
func (c *fixCache) store(uri string, fixes []cachedFix) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(fixes) == 0 {
		delete(c.fixes, uri)
		return
	}
	c.fixes[uri] = fixes
}

// lookup returns the fixes of a URI matching d by code and range.
func (c *fixCache) lookup(uri string, d Diagnostic) []cachedFix {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var matched []cachedFix
	for _, f := range c.fixes[uri] {
		if f.diagnostic.Code == d.Code && f.diagnostic.Range == d.Range {
			matched = append(matched, f)
		}
	}
	return matched
}

// clearURI removes all cached fixes for a URI.
func (c *fixCache) clearURI(uri string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.fixes, uri)
}

// handleCodeAction handles the textDocument/codeAction request.
func (s *Server) handleCodeAction(msg *JSONRPCMessage) error {
	var params CodeActionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.sendResponse(msg.ID, nil, &JSONRPCError{Code: CodeInvalidParams, Message: err.Error()})
		return err
	}

	s.sendResponse(msg.ID, s.getCodeActions(params), nil)
	return nil
}

// getCodeActions returns one quick fix per requested diagnostic that has
// a cached fix.
func (s *Server) getCodeActions(params CodeActionParams) []CodeAction {
	actions := []CodeAction{}

	if len(params.Context.Only) > 0 && !containsKind(params.Context.Only, CodeActionKindQuickFix) {
		return actions
	}

	uri := params.TextDocument.URI
	for _, d := range params.Context.Diagnostics {
		for _, f := range s.fixes.lookup(uri, d) {
			at := Position{Line: toUint(f.line), Character: toUint(f.fix.Start)}
			actions = append(actions, CodeAction{
				Title:       fmt.Sprintf("Insert %q", f.fix.Snippet),
				Kind:        CodeActionKindQuickFix,
				Diagnostics: []Diagnostic{d},
				IsPreferred: true,
				Edit: &WorkspaceEdit{
					Changes: map[string][]TextEdit{
						uri: {{Range: Range{Start: at, End: at}, NewText: f.fix.Snippet}},
					},
				},
			})
		}
	}

	return actions
}

func containsKind(kinds []CodeActionKind, kind CodeActionKind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}
