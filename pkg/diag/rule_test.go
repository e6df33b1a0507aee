package diag_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqleibniz/pkg/diag"
)

func TestParseRule(t *testing.T) {
	for _, r := range diag.AllRules() {
		t.Run(r.String(), func(t *testing.T) {
			parsed, err := diag.ParseRule(r.String())
			require.NoError(t, err)
			assert.Equal(t, r, parsed)
			assert.NotEmpty(t, r.Description())
			assert.Contains(t, []string{diag.GroupLexical, diag.GroupSyntactic}, r.Group())
		})
	}

	_, err := diag.ParseRule("NoSuchRule")
	require.ErrorIs(t, err, diag.ErrUnknownRule)
}

func TestAllRules(t *testing.T) {
	all := diag.AllRules()
	require.Len(t, all, 11)
	assert.Equal(t, diag.NoContent, all[0])
	assert.Equal(t, diag.Semicolon, all[len(all)-1])
}

func TestRule_Names(t *testing.T) {
	tests := map[diag.Rule]string{
		diag.NoContent:               "NoContent",
		diag.NoStatements:            "NoStatements",
		diag.Unimplemented:           "Unimplemented",
		diag.UnknownKeyword:          "UnknownKeyword",
		diag.BadSqleibnizInstruction: "BadSqleibnizInstruction",
		diag.UnterminatedString:      "UnterminatedString",
		diag.UnknownCharacter:        "UnknownCharacter",
		diag.InvalidNumericLiteral:   "InvalidNumericLiteral",
		diag.InvalidBlob:             "InvalidBlob",
		diag.Syntax:                  "Syntax",
		diag.Semicolon:               "Semicolon",
	}
	for r, name := range tests {
		assert.Equal(t, name, r.String())
	}
	assert.Equal(t, "Rule(99)", diag.Rule(99).String())
}

func TestRule_JSON(t *testing.T) {
	d := diag.Diagnostic{File: "a.sql", Rule: diag.Semicolon, Message: "Missing semicolon", Fix: &diag.Fix{Snippet: ";", Start: 6}}
	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"rule":"Semicolon"`)
	assert.Contains(t, string(data), `"fix":{"snippet":";","start":6}`)

	var back diag.Diagnostic
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, d, back)

	var r diag.Rule
	require.ErrorIs(t, r.UnmarshalText([]byte("nope")), diag.ErrUnknownRule)
}

func TestDiagnostic_String(t *testing.T) {
	d := diag.Diagnostic{File: "a.sql", Line: 1, Start: 4, Rule: diag.Syntax, Message: "Unexpected Token"}
	assert.Equal(t, "a.sql:2:5: error[Syntax]: Unexpected Token", d.String())
}

func TestFilter(t *testing.T) {
	diags := []diag.Diagnostic{
		{Rule: diag.Syntax, Message: "a"},
		{Rule: diag.Semicolon, Message: "b"},
		{Rule: diag.UnknownKeyword, Message: "c"},
		{Rule: diag.Syntax, Message: "d"},
		{Rule: diag.Unimplemented, Message: "e"},
	}

	tests := []struct {
		name        string
		disabled    map[diag.Rule]bool
		wantMsgs    []string
		wantIgnored int
	}{
		{"nothing disabled", nil, []string{"a", "b", "c", "d", "e"}, 0},
		{"one rule", map[diag.Rule]bool{diag.Syntax: true}, []string{"b", "c", "e"}, 2},
		{"several rules", map[diag.Rule]bool{diag.Semicolon: true, diag.Unimplemented: true}, []string{"a", "c", "d"}, 2},
		{"disabled but absent", map[diag.Rule]bool{diag.NoContent: true}, []string{"a", "b", "c", "d", "e"}, 0},
		{"false entries keep", map[diag.Rule]bool{diag.Syntax: false}, []string{"a", "b", "c", "d", "e"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kept, ignored := diag.Filter(diags, tt.disabled)
			msgs := make([]string, len(kept))
			for i, d := range kept {
				msgs[i] = d.Message
				assert.False(t, tt.disabled[d.Rule])
			}
			assert.Equal(t, tt.wantMsgs, msgs)
			assert.Equal(t, tt.wantIgnored, ignored)
			assert.Len(t, diags, 5, "input must not be modified")
		})
	}
}
