package typecodec

func init() {
	register(OIDBool, &Codec{
		TextEncode: func(v any) ([]byte, error) {
			b, ok := v.(bool)
			if !ok {
				return nil, textDecodeErr("boolean", "")
			}
			if currentTextStyle == StyleSpanner {
				if b {
					return []byte("true"), nil
				}
				return []byte("false"), nil
			}
			if b {
				return []byte{'t'}, nil
			}
			return []byte{'f'}, nil
		},
		BinaryEncode: func(v any) ([]byte, error) {
			b, ok := v.(bool)
			if !ok {
				return nil, binaryDecodeErr("boolean", 0)
			}
			if b {
				return []byte{1}, nil
			}
			return []byte{0}, nil
		},
		TextDecode: func(b []byte) (any, error) {
			switch string(b) {
			case "t", "true", "T", "TRUE", "1":
				return true, nil
			case "f", "false", "F", "FALSE", "0":
				return false, nil
			default:
				return nil, textDecodeErr("boolean", string(b))
			}
		},
		BinaryDecode: func(b []byte) (any, error) {
			if len(b) != 1 {
				return nil, binaryDecodeErr("boolean", len(b))
			}
			return b[0] != 0, nil
		},
	})
}
