// Package typecodec implements the per-OID text/binary encoders and
// decoders the wire protocol needs for RowDescription/DataRow and for
// decoding typed Bind parameters. Each supported OID is a variant in a
// small registry rather than a type hierarchy.
package typecodec

// PostgreSQL type OIDs this proxy understands. Values match the
// well-known OIDs baked into every libpq-speaking client; they are not
// looked up from pg_type since this proxy never runs against a real
// pg_catalog.
const (
	OIDBool        int32 = 16
	OIDBytea       int32 = 17
	OIDInt8        int32 = 20
	OIDInt2        int32 = 21
	OIDInt4        int32 = 23
	OIDText        int32 = 25
	OIDFloat4      int32 = 700
	OIDFloat8      int32 = 701
	OIDUnknown     int32 = 705
	OIDVarchar     int32 = 1043
	OIDDate        int32 = 1082
	OIDTimestamp   int32 = 1114
	OIDTimestampTZ int32 = 1184
	OIDNumeric     int32 = 1700
	OIDUuid        int32 = 2950
)

// TypeSize returns the fixed wire size for a type OID, or -1 for
// variable-length types (used as RowDescription.DataTypeSize).
func TypeSize(oid int32) int16 {
	switch oid {
	case OIDBool:
		return 1
	case OIDInt2:
		return 2
	case OIDInt4, OIDFloat4, OIDDate:
		return 4
	case OIDInt8, OIDFloat8, OIDTimestamp, OIDTimestampTZ:
		return 8
	default:
		return -1
	}
}

// BackendTypeToOID is the single source of truth mapping a backend
// column's declared type to the wire OID used in RowDescription and to
// select the codec path for its values.
//
// Keys are upper-cased backend type names; Spanner and BigQuery both
// report types as upper-case identifiers (INT64, STRING, BYTES, ...) so
// one table covers both backends. A name not present here falls back to
// OIDText, since every backend value has *some* text representation.
var backendTypeToOID = map[string]int32{
	"INT64":     OIDInt8,
	"INTEGER":   OIDInt8,
	"NUMERIC":   OIDNumeric,
	"BIGNUMERIC": OIDNumeric,
	"FLOAT64":   OIDFloat8,
	"FLOAT":     OIDFloat8,
	"DOUBLE":    OIDFloat8,
	"BOOL":      OIDBool,
	"BOOLEAN":   OIDBool,
	"STRING":    OIDText,
	"VARCHAR":   OIDVarchar,
	"TEXT":      OIDText,
	"BYTES":     OIDBytea,
	"DATE":      OIDDate,
	"TIMESTAMP": OIDTimestampTZ,
	"DATETIME":  OIDTimestamp,
	"UUID":      OIDUuid,
}

// BackendTypeToOID maps a backend column type name (as reported by
// Spanner's information_schema or BigQuery's schema) to a wire OID.
func BackendTypeToOID(backendType string) int32 {
	if oid, ok := backendTypeToOID[normalizeBackendType(backendType)]; ok {
		return oid
	}
	return OIDText
}

func normalizeBackendType(s string) string {
	// Spanner reports array/sized types like "STRING(MAX)" or
	// "NUMERIC(10,2)"; strip any parenthesized suffix before lookup.
	for i := 0; i < len(s); i++ {
		if s[i] == '(' {
			s = s[:i]
			break
		}
	}
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}
