package lsp

import (
	"encoding/json"
	"strings"

	"github.com/leapstack-labs/sqleibniz/pkg/token"
)

// keywordItems is the completion item for every SQLite keyword.
var keywordItems = func() []CompletionItem {
	names := token.Keywords()
	items := make([]CompletionItem, len(names))
	for i, name := range names {
		items[i] = CompletionItem{Label: name, Kind: CompletionItemKindKeyword}
	}
	return items
}()

// handleCompletion handles the textDocument/completion request.
func (s *Server) handleCompletion(msg *JSONRPCMessage) error {
	var params CompletionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.sendResponse(msg.ID, nil, &JSONRPCError{Code: CodeInvalidParams, Message: err.Error()})
		return err
	}

	s.sendResponse(msg.ID, &CompletionList{Items: s.getCompletions(params)}, nil)
	return nil
}

// getCompletions returns completion items for the given position: directive
// instructions inside a "-- @" comment, keywords everywhere else.
func (s *Server) getCompletions(params CompletionParams) []CompletionItem {
	items := []CompletionItem{}

	doc := s.documents.Get(params.TextDocument.URI)
	if doc == nil {
		return items
	}

	line := doc.GetLine(int(params.Position.Line))
	before := line[:min(int(params.Position.Character), len(line))]
	if _, rest, ok := strings.Cut(before, "--"); ok {
		return directiveCompletions(rest)
	}

	// the whole word under the cursor is replaced, only the part before it filters
	prefix := strings.ToUpper(doc.WordBefore(params.Position))
	_, word := doc.GetWordAtPosition(params.Position)
	for _, item := range keywordItems {
		if strings.HasPrefix(item.Label, prefix) {
			item.TextEdit = &TextEdit{Range: word, NewText: item.Label}
			items = append(items, item)
		}
	}
	return items
}

// directiveCompletions completes "@sqleibniz::<instruction>" in the comment
// text following "--".
func directiveCompletions(comment string) []CompletionItem {
	items := []CompletionItem{}

	at := strings.LastIndexByte(comment, '@')
	if at < 0 || strings.TrimSpace(comment[:at]) != "" {
		return items
	}
	typed := comment[at+1:]

	for _, name := range token.Instructions {
		full := token.InstructionPrefix + name
		if strings.HasPrefix(full, typed) {
			items = append(items, CompletionItem{
				Label:         full,
				Kind:          CompletionItemKindSnippet,
				Detail:        "sqleibniz instruction",
				Documentation: "Suppress every diagnostic of the next statement.",
				InsertText:    strings.TrimPrefix(full, beforeWord(typed)),
			})
		}
	}
	return items
}

// beforeWord returns typed without its trailing word. Clients replace only
// that word with the insert text.
func beforeWord(typed string) string {
	start := len(typed)
	for start > 0 && isWordChar(typed[start-1]) {
		start--
	}
	return typed[:start]
}
