package backend

import (
	"errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// SQLError is a backend error already classified with a SQLSTATE, ready
// to become an ErrorResponse.
type SQLError struct {
	SQLSTATE string
	Message  string
}

func (e *SQLError) Error() string { return e.Message }

// ClassifyError maps a backend error (a gRPC status from Spanner or
// BigQuery) to a SQLSTATE. Errors that are already a *SQLError pass
// through unchanged.
func ClassifyError(err error) *SQLError {
	if err == nil {
		return nil
	}
	var sqlErr *SQLError
	if errors.As(err, &sqlErr) {
		return sqlErr
	}

	st, ok := status.FromError(err)
	if !ok {
		return &SQLError{SQLSTATE: "58000", Message: err.Error()}
	}

	msg := st.Message()
	switch st.Code() {
	case codes.NotFound:
		if looksLikeCatalogMiss(msg) {
			return &SQLError{SQLSTATE: "42P01", Message: msg}
		}
		return &SQLError{SQLSTATE: "42000", Message: msg}
	case codes.AlreadyExists:
		return &SQLError{SQLSTATE: "23505", Message: msg}
	case codes.InvalidArgument:
		return &SQLError{SQLSTATE: "22023", Message: msg}
	case codes.DeadlineExceeded, codes.Canceled:
		return &SQLError{SQLSTATE: "57014", Message: msg}
	case codes.PermissionDenied, codes.Unauthenticated:
		return &SQLError{SQLSTATE: "28000", Message: msg}
	default:
		return &SQLError{SQLSTATE: "58000", Message: msg}
	}
}

func looksLikeCatalogMiss(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "table") || strings.Contains(lower, "column") || strings.Contains(lower, "index")
}
