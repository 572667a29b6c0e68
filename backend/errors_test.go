package backend

import (
	"errors"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestClassifyErrorPassesThroughSQLError(t *testing.T) {
	orig := &SQLError{SQLSTATE: "42601", Message: "syntax error"}
	got := ClassifyError(orig)
	if got != orig {
		t.Errorf("got %v, want the same *SQLError passed in", got)
	}
}

func TestClassifyErrorNotFoundCatalogMiss(t *testing.T) {
	err := status.Error(codes.NotFound, `Table not found: widgets`)
	got := ClassifyError(err)
	if got.SQLSTATE != "42P01" {
		t.Errorf("SQLSTATE = %q, want 42P01", got.SQLSTATE)
	}
}

func TestClassifyErrorNotFoundGeneric(t *testing.T) {
	err := status.Error(codes.NotFound, "resource not found")
	got := ClassifyError(err)
	if got.SQLSTATE != "42000" {
		t.Errorf("SQLSTATE = %q, want 42000", got.SQLSTATE)
	}
}

func TestClassifyErrorAlreadyExists(t *testing.T) {
	err := status.Error(codes.AlreadyExists, "duplicate key")
	got := ClassifyError(err)
	if got.SQLSTATE != "23505" {
		t.Errorf("SQLSTATE = %q, want 23505", got.SQLSTATE)
	}
}

func TestClassifyErrorDeadlineExceeded(t *testing.T) {
	err := status.Error(codes.DeadlineExceeded, "deadline exceeded")
	got := ClassifyError(err)
	if got.SQLSTATE != "57014" {
		t.Errorf("SQLSTATE = %q, want 57014", got.SQLSTATE)
	}
}

func TestClassifyErrorPermissionDenied(t *testing.T) {
	err := status.Error(codes.PermissionDenied, "denied")
	got := ClassifyError(err)
	if got.SQLSTATE != "28000" {
		t.Errorf("SQLSTATE = %q, want 28000", got.SQLSTATE)
	}
}

func TestClassifyErrorNonGRPCFallsBackToSystemError(t *testing.T) {
	err := errors.New("dial tcp: connection refused")
	got := ClassifyError(err)
	if got.SQLSTATE != "58000" {
		t.Errorf("SQLSTATE = %q, want 58000", got.SQLSTATE)
	}
}

func TestClassifyErrorNil(t *testing.T) {
	if got := ClassifyError(nil); got != nil {
		t.Errorf("got %v, want nil", got)
	}
}
