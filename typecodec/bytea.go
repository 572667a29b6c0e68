package typecodec

import "encoding/hex"

func init() {
	register(OIDBytea, &Codec{
		// Text format is PostgreSQL's "hex" bytea encoding: \x followed
		// by lower-case hex digits.
		TextEncode: func(v any) ([]byte, error) {
			b, err := asBytes(v)
			if err != nil {
				return nil, err
			}
			out := make([]byte, 2+hex.EncodedLen(len(b)))
			out[0], out[1] = '\\', 'x'
			hex.Encode(out[2:], b)
			return out, nil
		},
		BinaryEncode: func(v any) ([]byte, error) {
			return asBytes(v)
		},
		TextDecode: func(b []byte) (any, error) {
			if len(b) < 2 || b[0] != '\\' || b[1] != 'x' {
				return nil, textDecodeErr("bytea", string(b))
			}
			out := make([]byte, hex.DecodedLen(len(b)-2))
			n, err := hex.Decode(out, b[2:])
			if err != nil {
				return nil, textDecodeErr("bytea", string(b))
			}
			return out[:n], nil
		},
		BinaryDecode: func(b []byte) (any, error) {
			out := make([]byte, len(b))
			copy(out, b)
			return out, nil
		},
	})
}

func asBytes(v any) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	default:
		return nil, textDecodeErr("bytea", "")
	}
}
