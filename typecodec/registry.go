package typecodec

// Codec bundles the four conversions the wire protocol requires for one
// OID: text/binary encode for result rows, text/binary decode for Bind
// parameters.
// Modeling per-OID behavior as a struct of functions in a map keyed by
// OID (rather than an interface-per-type hierarchy) keeps the variant
// set flat and lets new OIDs be added without touching call sites.
type Codec struct {
	// TextEncode renders a decoded Go value in PostgreSQL's canonical
	// text spelling for this OID.
	TextEncode func(v any) ([]byte, error)
	// BinaryEncode renders v in this OID's fixed binary wire layout.
	BinaryEncode func(v any) ([]byte, error)
	// TextDecode parses PostgreSQL text-format bytes into a Go value.
	TextDecode func(b []byte) (any, error)
	// BinaryDecode parses this OID's binary wire layout into a Go value.
	BinaryDecode func(b []byte) (any, error)
}

// TextStyle selects which client's text conventions TextEncode follows
// for the handful of types whose spelling differs between them (booleans,
// timestamps). StylePostgreSQL is the default: output a driver like the
// PostgreSQL JDBC driver or psycopg can parse. StyleSpanner instead spells
// values the way Cloud Spanner itself would, for a text-only client (psql)
// that never tries to interpret what comes back.
type TextStyle int

const (
	StylePostgreSQL TextStyle = iota
	StyleSpanner
)

var currentTextStyle TextStyle

// SetTextStyle sets the process-wide text style, read by TextEncode.
// Called once at startup from the parsed configuration, the same way
// zerolog.SetGlobalLevel configures a package-global from Config.
func SetTextStyle(s TextStyle) { currentTextStyle = s }

// registry maps a type OID to its Codec. Populated by the per-type init
// functions in this package (bool.go, intfloat.go, numeric.go, bytea.go,
// text.go, datetime.go, uuid.go).
var registry = map[int32]*Codec{}

func register(oid int32, c *Codec) { registry[oid] = c }

// Lookup returns the codec for oid, or the text/varchar passthrough codec
// if oid is unknown or zero.
func Lookup(oid int32) *Codec {
	if c, ok := registry[oid]; ok {
		return c
	}
	return registry[OIDText]
}

// Encode renders v as wire bytes for oid in the requested format.
func Encode(oid int32, format int16, v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	c := Lookup(oid)
	if format == FormatBinary {
		return c.BinaryEncode(v)
	}
	return c.TextEncode(v)
}

// Decode parses wire bytes for oid in the given format. A nil b denotes
// SQL NULL and decodes to (nil, nil) without invoking the codec.
func Decode(oid int32, format int16, b []byte) (any, error) {
	if b == nil {
		return nil, nil
	}
	c := Lookup(oid)
	if format == FormatBinary {
		return c.BinaryDecode(b)
	}
	return c.TextDecode(b)
}

// FormatCode values mirror wire.FormatText/FormatBinary; duplicated here
// (rather than imported) to keep typecodec free of a dependency on wire.
const (
	FormatText   int16 = 0
	FormatBinary int16 = 1
)
