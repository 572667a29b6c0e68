package main

import (
	"context"
	"strings"

	"github.com/cloudspannerecosystem/pg-spanner-proxy/backend"
)

// fakeClient is a minimal backend.Client for exercising the wire protocol
// end to end without a real Spanner or BigQuery project. Any query whose
// text mentions "widgets" returns the same three fixed rows; any other
// query returns an empty result with no columns, and every Execute is a
// no-op reporting one affected row, matching how conctest's in-memory
// storage stood in for the real engine.
type fakeClient struct {
	inTxn bool
	rows  [][]any
}

func newFakeClient(context.Context) (backend.Client, error) {
	return &fakeClient{
		rows: [][]any{
			{int64(1), "alpha"},
			{int64(2), "beta"},
			{int64(3), "gamma"},
		},
	}, nil
}

var widgetColumns = []backend.ColumnMeta{
	{Name: "id", BackendType: "INT64"},
	{Name: "name", BackendType: "STRING"},
}

func (c *fakeClient) Query(ctx context.Context, sql string, params []any) (backend.ResultSet, error) {
	if strings.Contains(strings.ToUpper(sql), "WIDGETS") {
		return &fakeResultSet{cols: widgetColumns, rows: c.rows}, nil
	}
	return &fakeResultSet{cols: nil, rows: nil}, nil
}

func (c *fakeClient) Execute(ctx context.Context, sql string, params []any) (backend.CommandTag, error) {
	kw := "DML"
	fields := strings.Fields(sql)
	if len(fields) > 0 {
		kw = strings.ToUpper(fields[0])
	}
	return backend.CommandTag{Keyword: kw, RowCount: 1}, nil
}

func (c *fakeClient) BeginTransaction(ctx context.Context) error {
	c.inTxn = true
	return nil
}

func (c *fakeClient) Commit(ctx context.Context) error {
	c.inTxn = false
	return nil
}

func (c *fakeClient) Rollback(ctx context.Context) error {
	c.inTxn = false
	return nil
}

func (c *fakeClient) InTransaction() bool { return c.inTxn }

func (c *fakeClient) Close() error { return nil }

type fakeResultSet struct {
	cols []backend.ColumnMeta
	rows [][]any
	pos  int
}

func (r *fakeResultSet) Columns() []backend.ColumnMeta { return r.cols }

func (r *fakeResultSet) Next(ctx context.Context) bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeResultSet) Values() []any {
	if r.pos == 0 || r.pos > len(r.rows) {
		return nil
	}
	return r.rows[r.pos-1]
}

func (r *fakeResultSet) Err() error { return nil }

func (r *fakeResultSet) Close() {}
