package backend

import (
	"time"

	"cloud.google.com/go/spanner"
	"github.com/shopspring/decimal"
	sppb "cloud.google.com/go/spanner/apiv1/spannerpb"
)

// decodeGenericColumn reads column i of row as a backend-neutral Go
// value. Unlike spicedb's datastore — which always knows its own fixed
// schema and scans columns into concrete typed destinations — this proxy
// runs arbitrary client SQL against an arbitrary backend schema, so it
// must decode generically using spanner.GenericColumnValue and dispatch
// on the wire type code.
func decodeGenericColumn(row *spanner.Row, i int) any {
	var gcv spanner.GenericColumnValue
	if err := row.Column(i, &gcv); err != nil {
		return nil
	}

	switch gcv.Type.Code {
	case sppb.TypeCode_INT64:
		var v spanner.NullInt64
		if gcv.Decode(&v) == nil && v.Valid {
			return v.Int64
		}
	case sppb.TypeCode_FLOAT64:
		var v spanner.NullFloat64
		if gcv.Decode(&v) == nil && v.Valid {
			return v.Float64
		}
	case sppb.TypeCode_BOOL:
		var v spanner.NullBool
		if gcv.Decode(&v) == nil && v.Valid {
			return v.Bool
		}
	case sppb.TypeCode_STRING:
		var v spanner.NullString
		if gcv.Decode(&v) == nil && v.Valid {
			return v.StringVal
		}
	case sppb.TypeCode_BYTES:
		var v []byte
		if gcv.Decode(&v) == nil {
			return v
		}
	case sppb.TypeCode_NUMERIC:
		var v spanner.NullNumeric
		if gcv.Decode(&v) == nil && v.Valid {
			return decimal.NewFromBigRat(&v.Numeric, 9)
		}
	case sppb.TypeCode_DATE:
		var v spanner.NullDate
		if gcv.Decode(&v) == nil && v.Valid {
			return v.Date.In(time.UTC)
		}
	case sppb.TypeCode_TIMESTAMP:
		var v spanner.NullTime
		if gcv.Decode(&v) == nil && v.Valid {
			return v.Time
		}
	}
	return nil
}
