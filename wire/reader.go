package wire

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"unicode/utf8"
)

// Reader reads PostgreSQL wire protocol messages from a connection.
// It reads through a bufio.Reader, so bytes of following messages may
// already be buffered; each call returns exactly one message.
type Reader struct {
	r *bufio.Reader
}

// NewReader wraps r for reading PG protocol messages.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// ReadStartup reads the initial untyped message. If the client sent an
// SSLRequest or GSSENCRequest, msg is nil and isSSL reports it; the
// caller must reply with a single 'N' byte and call ReadStartup again.
// If the client instead opened this connection to cancel another session,
// cancel is non-nil and msg is nil; the caller should route it through
// the registry and close the connection without any response.
func (r *Reader) ReadStartup() (msg *StartupMessage, cancel *CancelRequest, isSSL bool, err error) {
	var length int32
	if err := binary.Read(r.r, binary.BigEndian, &length); err != nil {
		return nil, nil, false, fmt.Errorf("read startup length: %w", err)
	}
	if length < 8 {
		return nil, nil, false, fmt.Errorf("startup message too short: %d bytes", length)
	}

	payload := make([]byte, length-4)
	if _, err := io.ReadFull(r.r, payload); err != nil {
		return nil, nil, false, fmt.Errorf("read startup payload: %w", err)
	}

	version := int32(binary.BigEndian.Uint32(payload[:4]))

	if version == SSLRequestCode || version == GSSENCRequestCode {
		return nil, nil, true, nil
	}
	if version == CancelRequestCode {
		if len(payload) < 12 {
			return nil, nil, false, fmt.Errorf("cancel request payload too short: %d bytes", len(payload))
		}
		return nil, &CancelRequest{
			ProcessID: int32(binary.BigEndian.Uint32(payload[4:8])),
			SecretKey: int32(binary.BigEndian.Uint32(payload[8:12])),
		}, false, nil
	}
	if version != ProtocolVersion {
		return nil, nil, false, &ProtocolError{
			SQLSTATE: "08P01",
			Message:  fmt.Sprintf("unsupported protocol version: %d.%d", version>>16, version&0xFFFF),
		}
	}

	startup := &StartupMessage{
		ProtocolVersion: version,
		Parameters:      make(map[string]string),
	}
	params := payload[4:]
	for len(params) > 1 {
		key, rest, ok := readCString(params)
		if !ok {
			break
		}
		value, rest2, ok := readCString(rest)
		if !ok {
			break
		}
		if !utf8.ValidString(key) || !utf8.ValidString(value) {
			return nil, nil, false, &ProtocolError{SQLSTATE: "22021", Message: "invalid UTF-8 in startup parameter"}
		}
		startup.Parameters[key] = value
		params = rest2
	}

	return startup, nil, false, nil
}

// ReadMessage reads a typed message: 1-byte type, int32 length (includes
// itself), then payload.
func (r *Reader) ReadMessage() (msgType byte, payload []byte, err error) {
	msgType, err = r.r.ReadByte()
	if err != nil {
		return 0, nil, err
	}

	var length int32
	if err := binary.Read(r.r, binary.BigEndian, &length); err != nil {
		return 0, nil, fmt.Errorf("read message length: %w", err)
	}
	if length < 4 {
		return 0, nil, &ProtocolError{SQLSTATE: "08P01", Message: fmt.Sprintf("message length too short: %d", length)}
	}

	payload = make([]byte, length-4)
	if length > 4 {
		if _, err := io.ReadFull(r.r, payload); err != nil {
			return 0, nil, fmt.Errorf("read message payload: %w", err)
		}
	}
	return msgType, payload, nil
}

// DecodeParse decodes a Parse message payload.
func DecodeParse(payload []byte) (*ParseMessage, error) {
	name, rest, ok := readCString(payload)
	if !ok {
		return nil, errTruncated
	}
	query, rest, ok := readCString(rest)
	if !ok {
		return nil, errTruncated
	}
	if len(rest) < 2 {
		return nil, errTruncated
	}
	n := int(int16(binary.BigEndian.Uint16(rest)))
	rest = rest[2:]
	oids := make([]int32, n)
	for i := 0; i < n; i++ {
		if len(rest) < 4 {
			return nil, errTruncated
		}
		oids[i] = int32(binary.BigEndian.Uint32(rest))
		rest = rest[4:]
	}
	return &ParseMessage{StatementName: name, Query: query, ParamOIDs: oids}, nil
}

// DecodeBind decodes a Bind message payload.
func DecodeBind(payload []byte) (*BindMessage, error) {
	portal, rest, ok := readCString(payload)
	if !ok {
		return nil, errTruncated
	}
	stmt, rest, ok := readCString(rest)
	if !ok {
		return nil, errTruncated
	}

	nFormats, rest, err := readInt16Count(rest)
	if err != nil {
		return nil, err
	}
	formats := make([]int16, nFormats)
	for i := range formats {
		if len(rest) < 2 {
			return nil, errTruncated
		}
		formats[i] = int16(binary.BigEndian.Uint16(rest))
		rest = rest[2:]
	}

	nParams, rest, err := readInt16Count(rest)
	if err != nil {
		return nil, err
	}
	values := make([][]byte, nParams)
	for i := range values {
		if len(rest) < 4 {
			return nil, errTruncated
		}
		plen := int32(binary.BigEndian.Uint32(rest))
		rest = rest[4:]
		if plen < 0 {
			values[i] = nil
			continue
		}
		if int32(len(rest)) < plen {
			return nil, errTruncated
		}
		values[i] = rest[:plen]
		rest = rest[plen:]
	}

	nResultFormats, rest, err := readInt16Count(rest)
	if err != nil {
		return nil, err
	}
	resultFormats := make([]int16, nResultFormats)
	for i := range resultFormats {
		if len(rest) < 2 {
			return nil, errTruncated
		}
		resultFormats[i] = int16(binary.BigEndian.Uint16(rest))
		rest = rest[2:]
	}

	return &BindMessage{
		PortalName:    portal,
		StatementName: stmt,
		ParamFormats:  formats,
		ParamValues:   values,
		ResultFormats: resultFormats,
	}, nil
}

// DecodeExecute decodes an Execute message payload.
func DecodeExecute(payload []byte) (*ExecuteMessage, error) {
	name, rest, ok := readCString(payload)
	if !ok {
		return nil, errTruncated
	}
	if len(rest) < 4 {
		return nil, errTruncated
	}
	maxRows := int32(binary.BigEndian.Uint32(rest))
	return &ExecuteMessage{PortalName: name, MaxRows: maxRows}, nil
}

// DecodeDescribe decodes a Describe message payload.
func DecodeDescribe(payload []byte) (*DescribeMessage, error) {
	if len(payload) < 1 {
		return nil, errTruncated
	}
	target := payload[0]
	name, _, ok := readCString(payload[1:])
	if !ok {
		return nil, errTruncated
	}
	return &DescribeMessage{Target: target, Name: name}, nil
}

// DecodeClose decodes a Close message payload.
func DecodeClose(payload []byte) (*CloseMessage, error) {
	d, err := DecodeDescribe(payload)
	if err != nil {
		return nil, err
	}
	return &CloseMessage{Target: d.Target, Name: d.Name}, nil
}

var errTruncated = &ProtocolError{SQLSTATE: "08P01", Message: "truncated message payload"}

func readInt16Count(b []byte) (int, []byte, error) {
	if len(b) < 2 {
		return 0, nil, errTruncated
	}
	n := int(int16(binary.BigEndian.Uint16(b)))
	if n < 0 {
		return 0, nil, errTruncated
	}
	return n, b[2:], nil
}

// readCString reads a null-terminated string from b, returning the string,
// the remaining bytes after the terminator, and whether a terminator was found.
func readCString(b []byte) (string, []byte, bool) {
	for i, c := range b {
		if c == 0 {
			return string(b[:i]), b[i+1:], true
		}
	}
	return "", nil, false
}
