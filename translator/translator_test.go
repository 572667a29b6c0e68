package translator

import (
	"regexp"
	"testing"
)

func TestTranslateMetaCommand(t *testing.T) {
	tr := &Translator{
		Matchers: []Matcher{
			{
				InputPattern:  regexp.MustCompile(`^\\d (.+)$`),
				OutputPattern: "SELECT column_name FROM information_schema.columns WHERE table_name='%s'",
				GroupOrder:    []int{1},
			},
		},
	}
	out, class, err := tr.Translate(`\d users`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if class != MetaCommandHit {
		t.Errorf("classification = %v, want MetaCommandHit", class)
	}
	want := "SELECT column_name FROM information_schema.columns WHERE table_name='users'"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestTranslateRewrite(t *testing.T) {
	tr := &Translator{
		Rewrites: []Rewrite{
			{InputPattern: regexp.MustCompile(`\bSERIAL\b`), OutputPattern: "INT64"},
		},
	}
	out, class, err := tr.Translate("CREATE TABLE t (id SERIAL)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if class != Rewritten {
		t.Errorf("classification = %v, want Rewritten", class)
	}
	if out != "CREATE TABLE t (id INT64)" {
		t.Errorf("output = %q", out)
	}
}

func TestTranslateIdentity(t *testing.T) {
	tr := &Translator{}
	out, class, err := tr.Translate("SELECT 1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if class != Identity || out != "SELECT 1" {
		t.Errorf("got (%q, %v), want (%q, Identity)", out, class, "SELECT 1")
	}
}

func TestTranslateDeterministic(t *testing.T) {
	tr := &Translator{
		Rewrites: []Rewrite{
			{InputPattern: regexp.MustCompile(`foo`), OutputPattern: "bar"},
		},
	}
	out1, _, _ := tr.Translate("SELECT foo FROM t")
	out2, _, _ := tr.Translate("SELECT foo FROM t")
	if out1 != out2 {
		t.Errorf("non-deterministic translation: %q vs %q", out1, out2)
	}
}

func TestSplitStatementsQuotedSemicolon(t *testing.T) {
	stmts := SplitStatements(`SELECT ';'; SELECT 2`)
	if len(stmts) != 2 {
		t.Fatalf("got %d statements: %v", len(stmts), stmts)
	}
	if stmts[0] != `SELECT ';'` {
		t.Errorf("stmts[0] = %q", stmts[0])
	}
	if stmts[1] != "SELECT 2" {
		t.Errorf("stmts[1] = %q", stmts[1])
	}
}

func TestSplitStatementsEmpty(t *testing.T) {
	stmts := SplitStatements("")
	if len(stmts) != 1 || stmts[0] != "" {
		t.Errorf("empty query should split to one empty statement, got %v", stmts)
	}
}

func TestSplitStatementsTrailingSemicolon(t *testing.T) {
	stmts := SplitStatements("SELECT 1;")
	if len(stmts) != 1 || stmts[0] != "SELECT 1" {
		t.Errorf("got %v", stmts)
	}
}
