package typecodec

import "github.com/google/uuid"

// UUID has no native Spanner or BigQuery column type; a client that binds
// a $N parameter declared uuid is almost always comparing it against a
// STRING column holding the canonical 36-character form. Decoding here
// to a plain string, rather than carrying a uuid.UUID value through to
// the backend driver, means the rest of the pipeline never needs to know
// this OID exists.
func init() {
	register(OIDUuid, &Codec{
		TextEncode: func(v any) ([]byte, error) {
			s, err := uuidString(v)
			if err != nil {
				return nil, err
			}
			return []byte(s), nil
		},
		BinaryEncode: func(v any) ([]byte, error) {
			s, err := uuidString(v)
			if err != nil {
				return nil, err
			}
			id, err := uuid.Parse(s)
			if err != nil {
				return nil, textDecodeErr("uuid", s)
			}
			out := make([]byte, 16)
			copy(out, id[:])
			return out, nil
		},
		TextDecode: func(b []byte) (any, error) {
			id, err := uuid.ParseBytes(b)
			if err != nil {
				return nil, textDecodeErr("uuid", string(b))
			}
			return id.String(), nil
		},
		BinaryDecode: func(b []byte) (any, error) {
			if len(b) != 16 {
				return nil, binaryDecodeErr("uuid", len(b))
			}
			id, err := uuid.FromBytes(b)
			if err != nil {
				return nil, binaryDecodeErr("uuid", len(b))
			}
			return id.String(), nil
		},
	})
}

func uuidString(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case [16]byte:
		return uuid.UUID(s).String(), nil
	default:
		return "", textDecodeErr("uuid", "")
	}
}
