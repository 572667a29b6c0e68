package backend

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/shopspring/decimal"
	"google.golang.org/api/iterator"
)

// BigQueryClient adapts a *bigquery.Client to backend.Client, selected
// when config.Config.BigQueryMode is set. BigQuery has no
// notion of a long-lived read/write transaction the way Spanner does;
// BeginTransaction/Commit/Rollback only track whether the session has
// asked for transactional semantics so ReadyForQuery can still report
// 'T', even though every statement actually runs autocommit against
// BigQuery (BigQuery's scripting transactions are out of scope: this
// proxy does no query planning or optimization of its own).
type BigQueryClient struct {
	client  *bigquery.Client
	dataset string

	inTxn    bool
	txnError error
}

// BigQueryConfig carries the identifiers the proxy exposes for a
// BigQuery-backed session.
type BigQueryConfig struct {
	Project         string
	Dataset         string
	CredentialsFile string
}

// NewBigQueryClient dials BigQuery for one proxy session.
func NewBigQueryClient(ctx context.Context, cfg BigQueryConfig) (*BigQueryClient, error) {
	opts, err := clientOptions(ctx, cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}
	client, err := bigquery.NewClient(ctx, cfg.Project, opts...)
	if err != nil {
		recordSessionOpened("error")
		return nil, fmt.Errorf("dial bigquery project %s: %w", cfg.Project, err)
	}
	recordSessionOpened("bigquery")
	return &BigQueryClient{client: client, dataset: cfg.Dataset}, nil
}

func (c *BigQueryClient) newQuery(sql string, params []any) *bigquery.Query {
	q := c.client.Query(sql)
	if c.dataset != "" {
		q.DefaultDatasetID = c.dataset
	}
	q.Parameters = make([]bigquery.QueryParameter, len(params))
	for i, p := range params {
		if d, ok := p.(decimal.Decimal); ok {
			p = d.Rat()
		}
		q.Parameters[i] = bigquery.QueryParameter{Value: p}
	}
	return q
}

func (c *BigQueryClient) Query(ctx context.Context, sql string, params []any) (ResultSet, error) {
	defer observeQuery("bigquery", "query", time.Now())
	q := c.newQuery(sql, params)
	it, err := q.Read(ctx)
	if err != nil {
		return nil, err
	}
	return &bigqueryResultSet{iter: it}, nil
}

func (c *BigQueryClient) Execute(ctx context.Context, sql string, params []any) (CommandTag, error) {
	defer observeQuery("bigquery", "execute", time.Now())
	q := c.newQuery(sql, params)
	job, err := q.Run(ctx)
	if err != nil {
		return CommandTag{}, err
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return CommandTag{}, err
	}
	if err := status.Err(); err != nil {
		return CommandTag{}, err
	}

	var rowCount int64
	if qs, ok := status.Statistics.Details.(*bigquery.QueryStatistics); ok {
		rowCount = qs.NumDMLAffectedRows
	}
	return CommandTag{Keyword: commandKeyword(sql), RowCount: rowCount}, nil
}

// BeginTransaction/Commit/Rollback track transaction *intent* only; see
// the BigQueryClient doc comment.
func (c *BigQueryClient) BeginTransaction(ctx context.Context) error {
	if c.inTxn {
		return fmt.Errorf("transaction already open")
	}
	c.inTxn = true
	c.txnError = nil
	return nil
}

func (c *BigQueryClient) Commit(ctx context.Context) error {
	if !c.inTxn {
		return fmt.Errorf("no transaction open")
	}
	c.inTxn = false
	return nil
}

func (c *BigQueryClient) Rollback(ctx context.Context) error {
	if !c.inTxn {
		return fmt.Errorf("no transaction open")
	}
	c.inTxn = false
	c.txnError = nil
	return nil
}

func (c *BigQueryClient) InTransaction() bool { return c.inTxn }

func (c *BigQueryClient) Close() error { return c.client.Close() }

// bigqueryResultSet adapts *bigquery.RowIterator to backend.ResultSet.
type bigqueryResultSet struct {
	iter *bigquery.RowIterator
	row  []bigquery.Value
	err  error
}

func (rs *bigqueryResultSet) Columns() []ColumnMeta {
	if rs.iter.Schema == nil {
		return nil
	}
	cols := make([]ColumnMeta, len(rs.iter.Schema))
	for i, f := range rs.iter.Schema {
		cols[i] = ColumnMeta{
			Name:        f.Name,
			BackendType: string(f.Type),
			Nullable:    !f.Required,
		}
	}
	return cols
}

func (rs *bigqueryResultSet) Next(ctx context.Context) bool {
	var row []bigquery.Value
	err := rs.iter.Next(&row)
	if err == iterator.Done {
		return false
	}
	if err != nil {
		rs.err = err
		return false
	}
	rs.row = row
	return true
}

func (rs *bigqueryResultSet) Values() []any {
	values := make([]any, len(rs.row))
	for i, v := range rs.row {
		switch x := v.(type) {
		case *big.Rat:
			values[i] = decimal.NewFromBigRat(x, 9)
		case interface {
			In(*time.Location) time.Time
		}:
			// civil.Date / civil.DateTime (DATE, DATETIME) and time.Time.
			values[i] = x.In(time.UTC)
		default:
			values[i] = v
		}
	}
	return values
}

func (rs *bigqueryResultSet) Err() error { return rs.err }
func (rs *bigqueryResultSet) Close()     {}
