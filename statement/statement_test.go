package statement

import "testing"

func TestAddStatementNamedDuplicateRejected(t *testing.T) {
	s := NewSession()
	if err := s.AddStatement(&Prepared{Name: "s1", SQL: "SELECT 1"}); err != nil {
		t.Fatalf("first AddStatement: %v", err)
	}
	err := s.AddStatement(&Prepared{Name: "s1", SQL: "SELECT 2"})
	if _, ok := err.(*DuplicateNameError); !ok {
		t.Fatalf("got %v, want *DuplicateNameError", err)
	}
}

func TestAddStatementUnnamedReplaces(t *testing.T) {
	s := NewSession()
	if err := s.AddStatement(&Prepared{Name: "", SQL: "SELECT 1"}); err != nil {
		t.Fatalf("first AddStatement: %v", err)
	}
	if err := s.AddStatement(&Prepared{Name: "", SQL: "SELECT 2"}); err != nil {
		t.Fatalf("second AddStatement: %v", err)
	}
	stmt, err := s.Statement("")
	if err != nil {
		t.Fatalf("Statement: %v", err)
	}
	if stmt.SQL != "SELECT 2" {
		t.Errorf("SQL = %q, want replaced SELECT 2", stmt.SQL)
	}
}

func TestStatementUnknownName(t *testing.T) {
	s := NewSession()
	_, err := s.Statement("missing")
	if _, ok := err.(*UnknownNameError); !ok {
		t.Fatalf("got %v, want *UnknownNameError", err)
	}
}

func TestCloseStatementDestroysDependentPortals(t *testing.T) {
	s := NewSession()
	stmt := &Prepared{Name: "s1", SQL: "SELECT 1"}
	if err := s.AddStatement(stmt); err != nil {
		t.Fatalf("AddStatement: %v", err)
	}
	if err := s.AddPortal(&Portal{Name: "p1", Stmt: stmt}); err != nil {
		t.Fatalf("AddPortal: %v", err)
	}

	s.CloseStatement("s1")

	if _, err := s.Portal("p1"); err == nil {
		t.Fatal("portal p1 survived its statement's Close")
	}
}

func TestAddPortalNamedDuplicateRejected(t *testing.T) {
	s := NewSession()
	stmt := &Prepared{Name: "s1", SQL: "SELECT 1"}
	if err := s.AddStatement(stmt); err != nil {
		t.Fatalf("AddStatement: %v", err)
	}
	if err := s.AddPortal(&Portal{Name: "p1", Stmt: stmt}); err != nil {
		t.Fatalf("first AddPortal: %v", err)
	}
	err := s.AddPortal(&Portal{Name: "p1", Stmt: stmt})
	if _, ok := err.(*DuplicateNameError); !ok {
		t.Fatalf("got %v, want *DuplicateNameError", err)
	}
}

func TestAddPortalUnnamedReplacesAndExhaustsOld(t *testing.T) {
	s := NewSession()
	stmt := &Prepared{Name: "s1", SQL: "SELECT 1"}
	if err := s.AddStatement(stmt); err != nil {
		t.Fatalf("AddStatement: %v", err)
	}
	old := &Portal{Name: "", Stmt: stmt}
	if err := s.AddPortal(old); err != nil {
		t.Fatalf("first AddPortal: %v", err)
	}
	if err := s.AddPortal(&Portal{Name: "", Stmt: stmt}); err != nil {
		t.Fatalf("second AddPortal: %v", err)
	}
	if !old.Exhausted() {
		t.Error("replaced unnamed portal was not exhausted")
	}
}

func TestSyncCleanupDestroysOnlyUnnamedPortal(t *testing.T) {
	s := NewSession()
	named := &Prepared{Name: "s1", SQL: "SELECT 1"}
	unnamedStmt := &Prepared{Name: "", SQL: "SELECT 2"}
	if err := s.AddStatement(named); err != nil {
		t.Fatalf("AddStatement named: %v", err)
	}
	if err := s.AddStatement(unnamedStmt); err != nil {
		t.Fatalf("AddStatement unnamed: %v", err)
	}
	namedPortal := &Portal{Name: "p1", Stmt: named}
	unnamedPortal := &Portal{Name: "", Stmt: unnamedStmt}
	if err := s.AddPortal(namedPortal); err != nil {
		t.Fatalf("AddPortal named: %v", err)
	}
	if err := s.AddPortal(unnamedPortal); err != nil {
		t.Fatalf("AddPortal unnamed: %v", err)
	}

	s.SyncCleanup()

	if _, err := s.Statement("s1"); err != nil {
		t.Errorf("named statement did not survive Sync: %v", err)
	}
	if _, err := s.Portal("p1"); err != nil {
		t.Errorf("named portal did not survive Sync: %v", err)
	}
	if _, err := s.Statement(""); err != nil {
		t.Errorf("unnamed statement did not survive Sync: %v", err)
	}
	if _, err := s.Portal(""); err == nil {
		t.Error("unnamed portal survived Sync")
	}
	if !unnamedPortal.Exhausted() {
		t.Error("unnamed portal was not exhausted by SyncCleanup")
	}
}

func TestPortalRowsSentAccumulates(t *testing.T) {
	p := &Portal{Name: "p1"}
	p.AddRowsSent(3)
	p.AddRowsSent(4)
	if got := p.RowsSent(); got != 7 {
		t.Errorf("RowsSent = %d, want 7", got)
	}
}
