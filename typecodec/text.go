package typecodec

import "unicode/utf8"

func init() {
	passthrough := textPassthroughCodec()
	register(OIDText, passthrough)
	register(OIDVarchar, passthrough)
	register(OIDUnknown, passthrough)
}

// textPassthroughCodec implements the text/varchar/unknown UTF-8
// passthrough: text and binary formats are identical for
// these OIDs, both are just the UTF-8 bytes.
func textPassthroughCodec() *Codec {
	enc := func(v any) ([]byte, error) {
		s, ok := v.(string)
		if !ok {
			return nil, textDecodeErr("text", "")
		}
		return []byte(s), nil
	}
	dec := func(b []byte) (any, error) {
		if !utf8.Valid(b) {
			return nil, &DecodeError{SQLSTATE: "22021", Message: "invalid UTF-8 byte sequence"}
		}
		return string(b), nil
	}
	return &Codec{TextEncode: enc, BinaryEncode: enc, TextDecode: dec, BinaryDecode: dec}
}
