package typecodec

import (
	"encoding/binary"
	"math"
	"strconv"
)

func init() {
	register(OIDInt2, intCodec(2, "smallint"))
	register(OIDInt4, intCodec(4, "integer"))
	register(OIDInt8, intCodec(8, "bigint"))
	register(OIDFloat4, float4Codec())
	register(OIDFloat8, float8Codec())
}

// intCodec builds a Codec for a fixed-width two's-complement integer OID.
// width is 2, 4, or 8 bytes.
func intCodec(width int, name string) *Codec {
	return &Codec{
		TextEncode: func(v any) ([]byte, error) {
			n, err := asInt64(v)
			if err != nil {
				return nil, err
			}
			return []byte(strconv.FormatInt(n, 10)), nil
		},
		BinaryEncode: func(v any) ([]byte, error) {
			n, err := asInt64(v)
			if err != nil {
				return nil, err
			}
			buf := make([]byte, width)
			switch width {
			case 2:
				binary.BigEndian.PutUint16(buf, uint16(int16(n)))
			case 4:
				binary.BigEndian.PutUint32(buf, uint32(int32(n)))
			case 8:
				binary.BigEndian.PutUint64(buf, uint64(n))
			}
			return buf, nil
		},
		TextDecode: func(b []byte) (any, error) {
			n, err := strconv.ParseInt(string(b), 10, 64)
			if err != nil {
				return nil, textDecodeErr(name, string(b))
			}
			return n, nil
		},
		BinaryDecode: func(b []byte) (any, error) {
			if len(b) != width {
				return nil, binaryDecodeErr(name, len(b))
			}
			switch width {
			case 2:
				return int64(int16(binary.BigEndian.Uint16(b))), nil
			case 4:
				return int64(int32(binary.BigEndian.Uint32(b))), nil
			default:
				return int64(binary.BigEndian.Uint64(b)), nil
			}
		},
	}
}

func float4Codec() *Codec {
	return &Codec{
		TextEncode: func(v any) ([]byte, error) {
			f, err := asFloat64(v)
			if err != nil {
				return nil, err
			}
			return []byte(strconv.FormatFloat(f, 'g', -1, 32)), nil
		},
		BinaryEncode: func(v any) ([]byte, error) {
			f, err := asFloat64(v)
			if err != nil {
				return nil, err
			}
			buf := make([]byte, 4)
			binary.BigEndian.PutUint32(buf, math.Float32bits(float32(f)))
			return buf, nil
		},
		TextDecode: func(b []byte) (any, error) {
			f, err := strconv.ParseFloat(string(b), 32)
			if err != nil {
				return nil, textDecodeErr("real", string(b))
			}
			return f, nil
		},
		BinaryDecode: func(b []byte) (any, error) {
			if len(b) != 4 {
				return nil, binaryDecodeErr("real", len(b))
			}
			return float64(math.Float32frombits(binary.BigEndian.Uint32(b))), nil
		},
	}
}

func float8Codec() *Codec {
	return &Codec{
		TextEncode: func(v any) ([]byte, error) {
			f, err := asFloat64(v)
			if err != nil {
				return nil, err
			}
			return []byte(strconv.FormatFloat(f, 'g', -1, 64)), nil
		},
		BinaryEncode: func(v any) ([]byte, error) {
			f, err := asFloat64(v)
			if err != nil {
				return nil, err
			}
			buf := make([]byte, 8)
			binary.BigEndian.PutUint64(buf, math.Float64bits(f))
			return buf, nil
		},
		TextDecode: func(b []byte) (any, error) {
			f, err := strconv.ParseFloat(string(b), 64)
			if err != nil {
				return nil, textDecodeErr("double precision", string(b))
			}
			return f, nil
		},
		BinaryDecode: func(b []byte) (any, error) {
			if len(b) != 8 {
				return nil, binaryDecodeErr("double precision", len(b))
			}
			return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
		},
	}
}

func asInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	default:
		return 0, textDecodeErr("integer", "")
	}
}

func asFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, textDecodeErr("double precision", "")
	}
}
