package backend

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/spanner"
	"github.com/shopspring/decimal"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// SpannerClient adapts a *spanner.Client to backend.Client. It is
// grounded on authzed-spicedb's internal/datastore/spanner package: one
// long-lived *spanner.Client, credentials resolved through clientOptions,
// and RowIterator wrapped into the project-neutral ResultSet shape
// (internal/datastore/spanner/reader.go).
//
// Unlike spicedb's datastore, this client is per-session, not
// per-process: the proxy never pools backend connections, so each
// session gets its own *spanner.Client with a session pool capped at
// one.
type SpannerClient struct {
	client   *spanner.Client
	database string

	mu  sync.Mutex
	txn *spanner.ReadWriteStmtBasedTransaction
}

// SpannerConfig carries the identifiers the proxy exposes for the
// backend: project/instance/database plus an optional credentials file.
type SpannerConfig struct {
	Project         string
	Instance        string
	Database        string
	CredentialsFile string
}

// NewSpannerClient dials Cloud Spanner for one proxy session. An empty
// CredentialsFile resolves ambient application default credentials
// eagerly (clientOptions) rather than deferring to the client library.
func NewSpannerClient(ctx context.Context, cfg SpannerConfig) (*SpannerClient, error) {
	db := fmt.Sprintf("projects/%s/instances/%s/databases/%s", cfg.Project, cfg.Instance, cfg.Database)

	opts, err := clientOptions(ctx, cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}

	sessionCfg := spanner.DefaultSessionPoolConfig
	sessionCfg.MinOpened = 0
	sessionCfg.MaxOpened = 1

	client, err := spanner.NewClientWithConfig(ctx, db, spanner.ClientConfig{SessionPoolConfig: sessionCfg}, opts...)
	if err != nil {
		recordSessionOpened("error")
		return nil, fmt.Errorf("dial spanner database %s: %w", db, err)
	}
	recordSessionOpened("spanner")
	return &SpannerClient{client: client, database: db}, nil
}

func (c *SpannerClient) Query(ctx context.Context, sql string, params []any) (ResultSet, error) {
	defer observeQuery("spanner", "query", time.Now())
	stmt := statementFromSQL(sql, params)

	c.mu.Lock()
	txn := c.txn
	c.mu.Unlock()

	var iter *spanner.RowIterator
	var closeFn func()
	if txn != nil {
		iter = txn.Query(ctx, stmt)
		closeFn = func() {}
	} else {
		ro := c.client.Single()
		iter = ro.Query(ctx, stmt)
		closeFn = ro.Close
	}
	return &spannerResultSet{iter: iter, closeParent: closeFn}, nil
}

func (c *SpannerClient) Execute(ctx context.Context, sql string, params []any) (CommandTag, error) {
	defer observeQuery("spanner", "execute", time.Now())
	stmt := statementFromSQL(sql, params)
	keyword := commandKeyword(sql)

	c.mu.Lock()
	txn := c.txn
	c.mu.Unlock()

	if txn != nil {
		n, err := txn.Update(ctx, stmt)
		if err != nil {
			return CommandTag{}, err
		}
		return CommandTag{Keyword: keyword, RowCount: n}, nil
	}

	var rowCount int64
	_, err := c.client.ReadWriteTransaction(ctx, func(ctx context.Context, tx *spanner.ReadWriteTransaction) error {
		n, err := tx.Update(ctx, stmt)
		rowCount = n
		return err
	})
	if err != nil {
		return CommandTag{}, err
	}
	return CommandTag{Keyword: keyword, RowCount: rowCount}, nil
}

func (c *SpannerClient) BeginTransaction(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.txn != nil {
		return fmt.Errorf("transaction already open")
	}
	txn, err := spanner.NewReadWriteStmtBasedTransaction(ctx, c.client)
	if err != nil {
		return err
	}
	c.txn = txn
	return nil
}

func (c *SpannerClient) Commit(ctx context.Context) error {
	c.mu.Lock()
	txn := c.txn
	c.txn = nil
	c.mu.Unlock()
	if txn == nil {
		return fmt.Errorf("no transaction open")
	}
	_, err := txn.Commit(ctx)
	return err
}

func (c *SpannerClient) Rollback(ctx context.Context) error {
	c.mu.Lock()
	txn := c.txn
	c.txn = nil
	c.mu.Unlock()
	if txn == nil {
		return fmt.Errorf("no transaction open")
	}
	txn.Rollback(ctx)
	return nil
}

func (c *SpannerClient) InTransaction() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.txn != nil
}

func (c *SpannerClient) Close() error {
	c.client.Close()
	return nil
}

func statementFromSQL(sql string, params []any) spanner.Statement {
	stmt := spanner.NewStatement(sql)
	for i, p := range params {
		if d, ok := p.(decimal.Decimal); ok {
			p = spanner.NullNumeric{Numeric: *d.Rat(), Valid: true}
		}
		stmt.Params[fmt.Sprintf("p%d", i+1)] = p
	}
	return stmt
}

// commandKeyword extracts the leading keyword of a DML/DDL statement for
// use as the CommandComplete tag.
func commandKeyword(sql string) string {
	trimmed := strings.TrimSpace(sql)
	end := strings.IndexAny(trimmed, " \t\n(")
	if end < 0 {
		end = len(trimmed)
	}
	return strings.ToUpper(trimmed[:end])
}

// spannerResultSet adapts *spanner.RowIterator to backend.ResultSet,
// grounded on internal/datastore/spanner/reader.go's iter.Do-based
// column scanning, generalized from the datastore's fixed relation-tuple
// schema to an arbitrary column list.
type spannerResultSet struct {
	iter        *spanner.RowIterator
	closeParent func()

	cols    []ColumnMeta
	colsSet bool
	row     *spanner.Row
	values  []any
	err     error
}

func (rs *spannerResultSet) Columns() []ColumnMeta {
	if rs.colsSet {
		return rs.cols
	}
	return nil
}

func (rs *spannerResultSet) Next(ctx context.Context) bool {
	row, err := rs.iter.Next()
	if err == iterator.Done {
		return false
	}
	if err != nil {
		if status.Code(err) == codes.Canceled {
			rs.err = &SQLError{SQLSTATE: "57014", Message: "query canceled"}
		} else {
			rs.err = err
		}
		return false
	}
	rs.row = row
	if !rs.colsSet {
		rs.cols = columnsFromRow(row)
		rs.colsSet = true
	}
	rs.values = valuesFromRow(row)
	return true
}

func (rs *spannerResultSet) Values() []any { return rs.values }
func (rs *spannerResultSet) Err() error    { return rs.err }
func (rs *spannerResultSet) Close() {
	rs.iter.Stop()
	if rs.closeParent != nil {
		rs.closeParent()
	}
}

func columnsFromRow(row *spanner.Row) []ColumnMeta {
	cols := make([]ColumnMeta, row.Size())
	for i := 0; i < row.Size(); i++ {
		t := row.ColumnType(i)
		cols[i] = ColumnMeta{
			Name:        row.ColumnName(i),
			BackendType: t.Code.String(),
			Nullable:    true,
		}
	}
	return cols
}

func valuesFromRow(row *spanner.Row) []any {
	values := make([]any, row.Size())
	for i := 0; i < row.Size(); i++ {
		values[i] = decodeGenericColumn(row, i)
	}
	return values
}
