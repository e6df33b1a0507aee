package diag

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownRule is returned when a rule name does not resolve to a Rule.
var ErrUnknownRule = errors.New("unknown rule")

// Rule classifies a diagnostic. Its name is used as the suppression key
// and as the protocol error code.
type Rule int

// Rules, grouped as lexical defects followed by syntactic defects.
const (
	NoContent Rule = iota + 1
	NoStatements
	BadSqleibnizInstruction
	UnterminatedString
	UnknownCharacter
	InvalidNumericLiteral
	InvalidBlob
	Unimplemented
	UnknownKeyword
	Syntax
	Semicolon
)

// Rule groups.
const (
	GroupLexical   = "lexical"
	GroupSyntactic = "syntactic"
)

type ruleInfo struct {
	name        string
	group       string
	description string
}

var rules = map[Rule]ruleInfo{
	NoContent:               {"NoContent", GroupLexical, "Source file is empty"},
	NoStatements:            {"NoStatements", GroupLexical, "Source file is not empty but holds no statements"},
	BadSqleibnizInstruction: {"BadSqleibnizInstruction", GroupLexical, "Source file contains an invalid sqleibniz instruction"},
	UnterminatedString:      {"UnterminatedString", GroupLexical, "Source file contains an unterminated string"},
	UnknownCharacter:        {"UnknownCharacter", GroupLexical, "The source file contains an unknown character"},
	InvalidNumericLiteral:   {"InvalidNumericLiteral", GroupLexical, "The source file contains an invalid numeric literal, either overflow or incorrect syntax"},
	InvalidBlob:             {"InvalidBlob", GroupLexical, "The source file contains an invalid blob literal, either bad hex data (a-f,A-F,0-9) or incorrect syntax"},
	Unimplemented:           {"Unimplemented", GroupSyntactic, "Source file contains constructs sqleibniz does not yet understand"},
	UnknownKeyword:          {"UnknownKeyword", GroupSyntactic, "Source file contains an unknown keyword"},
	Syntax:                  {"Syntax", GroupSyntactic, "The source file contains a structure with incorrect syntax"},
	Semicolon:               {"Semicolon", GroupSyntactic, "The source file contains an unterminated statement"},
}

var rulesByName = func() map[string]Rule {
	m := make(map[string]Rule, len(rules))
	for r, info := range rules {
		m[info.name] = r
	}
	return m
}()

// String returns the stable rule name, e.g. "Syntax".
func (r Rule) String() string {
	if info, ok := rules[r]; ok {
		return info.name
	}
	return fmt.Sprintf("Rule(%d)", int(r))
}

// Description returns the fixed human readable description of the rule.
func (r Rule) Description() string {
	return rules[r].description
}

// Group returns the rule's group, GroupLexical or GroupSyntactic.
func (r Rule) Group() string {
	return rules[r].group
}

// ParseRule resolves a rule by its stable name.
func ParseRule(name string) (Rule, error) {
	if r, ok := rulesByName[name]; ok {
		return r, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRule, name)
}

// AllRules returns every rule in declaration order.
func AllRules() []Rule {
	all := make([]Rule, 0, len(rules))
	for r := range rules {
		all = append(all, r)
	}
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
	return all
}

// RuleInfo provides metadata about a rule for documentation and tooling.
type RuleInfo struct {
	Name        string `json:"name"`
	Group       string `json:"group"`
	Description string `json:"description"`
}

// Info returns the metadata of the rule.
func (r Rule) Info() RuleInfo {
	return RuleInfo{
		Name:        r.String(),
		Group:       r.Group(),
		Description: r.Description(),
	}
}

// MarshalText encodes the rule as its stable name.
func (r Rule) MarshalText() ([]byte, error) {
	if _, ok := rules[r]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRule, int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText decodes a rule from its stable name.
func (r *Rule) UnmarshalText(text []byte) error {
	parsed, err := ParseRule(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
