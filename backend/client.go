// Package backend adapts the external SQL backend into two concrete
// implementations — Cloud Spanner and BigQuery — behind one interface
// the session state machine drives. One backend session (and, when a
// transaction is open, one backend transaction) exists per client
// session: the proxy never pools backend connections.
package backend

import "context"

// ColumnMeta describes one column of a backend result set, enough to
// build a wire RowDescription via typecodec.BackendTypeToOID.
type ColumnMeta struct {
	Name        string
	BackendType string
	Nullable    bool
}

// CommandTag is the outcome of a non-SELECT statement: the keyword
// PostgreSQL's CommandComplete tag uses, and — for INSERT/UPDATE/DELETE —
// the affected row count.
type CommandTag struct {
	Keyword  string
	RowCount int64
}

// ResultSet is a backend-neutral pull-based row cursor. Both the Spanner and BigQuery clients adapt
// their native iterators to this shape.
type ResultSet interface {
	Columns() []ColumnMeta
	// Next advances to the next row, returning false at EOF or on error;
	// callers must check Err() after a false return before assuming the
	// cursor drained cleanly.
	Next(ctx context.Context) bool
	// Values returns the current row's typed values in column order.
	// The dynamic type is whatever the backend's driver produced
	// (int64, float64, bool, string, []byte, time.Time,
	// decimal.Decimal, or nil for SQL NULL); the caller re-encodes it
	// through typecodec for the OID it decided on from BackendType.
	Values() []any
	Err() error
	Close()
}

// Client is the single point of contact with the backend database. Every
// session.Session owns exactly one Client for its lifetime.
type Client interface {
	// Query runs a statement expected to return rows.
	Query(ctx context.Context, sql string, params []any) (ResultSet, error)
	// Execute runs a statement with no result rows (DDL or DML) and
	// returns its command tag.
	Execute(ctx context.Context, sql string, params []any) (CommandTag, error)

	// BeginTransaction, Commit, and Rollback manage the session-scoped
	// read/write transaction used to compute the ReadyForQuery
	// transaction-state byte. Calling Query/Execute
	// while no transaction is open runs the statement in its own
	// implicit single-statement transaction (autocommit).
	BeginTransaction(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	// InTransaction reports whether a session-scoped transaction is
	// currently open.
	InTransaction() bool

	Close() error
}
