// Package translator implements the pure SQL-to-SQL translation pipeline:
// psql meta-command matching, then regex-driven query rewrites, falling
// back to identity. It never parses SQL into a tree — both stages are
// regex text transforms, loaded once from JSON manifests and applied in
// the order they were declared.
package translator

import (
	"fmt"
	"regexp"
	"strings"
)

// Classification reports which stage of the pipeline produced the output.
type Classification int

const (
	Identity Classification = iota
	MetaCommandHit
	Rewritten
)

func (c Classification) String() string {
	switch c {
	case MetaCommandHit:
		return "meta-command-hit"
	case Rewritten:
		return "rewritten"
	default:
		return "identity"
	}
}

// Matcher is one compiled entry of the command-metadata manifest: a
// regex tried against the full trimmed statement, and a template into
// which the captured groups named by GroupOrder are substituted
// positionally.
type Matcher struct {
	InputPattern  *regexp.Regexp
	OutputPattern string
	GroupOrder    []int
}

// Rewrite is one compiled entry of the query-rewrites manifest: a
// regexp.ReplaceAll search-and-replace rule.
type Rewrite struct {
	InputPattern  *regexp.Regexp
	OutputPattern string
}

// Error reports a failure inside the translation pipeline itself (a
// matcher's GroupOrder references a capture group the regex doesn't
// have). Maps to SQLSTATE XX000.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

// Translator holds the immutable rule tables loaded once at startup.
// Zero value is a no-op translator (identity for every input), matching
// a server run without psql_mode or query_rewrites_file configured.
type Translator struct {
	Matchers []Matcher
	Rewrites []Rewrite
}

// Translate is the pure function of the pipeline: given raw SQL, it
// returns the translated SQL and which stage produced it. Deterministic:
// the same sql and the same rule tables always yield the same output,
// since neither stage consults anything but its own immutable tables.
func (t *Translator) Translate(sql string) (string, Classification, error) {
	trimmed := strings.TrimSpace(sql)

	for _, m := range t.Matchers {
		loc := m.InputPattern.FindStringIndex(trimmed)
		if loc == nil || loc[0] != 0 || loc[1] != len(trimmed) {
			// The matcher must match the full trimmed statement,
			// not merely a substring.
			continue
		}
		groups := m.InputPattern.FindStringSubmatch(trimmed)
		out, err := substituteGroups(m.OutputPattern, groups, m.GroupOrder)
		if err != nil {
			return "", Identity, err
		}
		return out, MetaCommandHit, nil
	}

	out := trimmed
	for _, r := range t.Rewrites {
		out = r.InputPattern.ReplaceAllString(out, r.OutputPattern)
	}
	if len(t.Rewrites) > 0 && out != trimmed {
		return out, Rewritten, nil
	}
	return sql, Identity, nil
}

// substituteGroups builds the matcher's output by substituting captured
// groups into the %s placeholders of template, in the order given by
// groupOrder.
func substituteGroups(template string, groups []string, groupOrder []int) (string, error) {
	args := make([]any, len(groupOrder))
	for i, idx := range groupOrder {
		if idx <= 0 || idx >= len(groups) {
			return "", &Error{Message: fmt.Sprintf("matcher_array references capture group %d, but the pattern has %d groups", idx, len(groups)-1)}
		}
		args[i] = groups[idx]
	}
	return fmt.Sprintf(template, args...), nil
}
