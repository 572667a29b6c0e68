// Package wire implements the byte-level PostgreSQL frontend/backend
// protocol, version 3.0: framing, startup negotiation, and the typed
// message set used by the simple and extended query flows.
package wire

// ProtocolVersion is protocol version 3.0 (major 3, minor 0).
const ProtocolVersion int32 = 3 << 16

// Pseudo-versions sent in place of a real protocol version during startup.
const (
	SSLRequestCode    int32 = 80877103
	GSSENCRequestCode int32 = 80877104
	CancelRequestCode int32 = 80877102
)

// Frontend (client → server) message types.
const (
	MsgBind            byte = 'B'
	MsgClose           byte = 'C'
	MsgCopyData        byte = 'd'
	MsgCopyDone        byte = 'c'
	MsgCopyFail        byte = 'f'
	MsgDescribe        byte = 'D'
	MsgExecute         byte = 'E'
	MsgFlush           byte = 'H'
	MsgFunctionCall    byte = 'F'
	MsgParse           byte = 'P'
	MsgPasswordMessage byte = 'p'
	MsgQuery           byte = 'Q'
	MsgSync            byte = 'S'
	MsgTerminate       byte = 'X'
)

// Backend (server → client) message types.
const (
	MsgAuthentication      byte = 'R'
	MsgBackendKeyData      byte = 'K'
	MsgBindComplete        byte = '2'
	MsgCloseComplete       byte = '3'
	MsgCommandComplete     byte = 'C'
	MsgDataRow             byte = 'D'
	MsgEmptyQueryResponse  byte = 'I'
	MsgErrorResponse       byte = 'E'
	MsgNoData              byte = 'n'
	MsgNoticeResponse      byte = 'N'
	MsgParameterDescription byte = 't'
	MsgParameterStatus     byte = 'S'
	MsgParseComplete       byte = '1'
	MsgPortalSuspended     byte = 's'
	MsgReadyForQuery       byte = 'Z'
	MsgRowDescription      byte = 'T'
)

// Authentication sub-message codes carried inside an 'R' message.
const (
	AuthOk                int32 = 0
	AuthCleartextPassword int32 = 3
)

// Transaction status bytes for ReadyForQuery.
const (
	TxIdle   byte = 'I'
	TxInTx   byte = 'T'
	TxFailed byte = 'E'
)

// CloseTarget / DescribeTarget discriminators, the 'S'/'P' byte that
// precedes the name in Close and Describe payloads.
const (
	TargetStatement byte = 'S'
	TargetPortal    byte = 'P'
)

// FormatCode values used for parameter and result-column formats.
const (
	FormatText   int16 = 0
	FormatBinary int16 = 1
)

// StartupMessage is the untyped message a client sends immediately after
// the TCP connection is established (following any SSL negotiation).
type StartupMessage struct {
	ProtocolVersion int32
	Parameters      map[string]string
}

// CancelRequest is sent on its own short-lived connection to interrupt a
// running session.
type CancelRequest struct {
	ProcessID int32
	SecretKey int32
}

// ColumnDescriptor describes one column of a RowDescription message.
type ColumnDescriptor struct {
	Name         string
	TableOID     int32
	ColumnAttr   int16
	DataTypeOID  int32
	DataTypeSize int16
	TypeModifier int32
	FormatCode   int16
}

// ParseMessage is the decoded payload of a Parse ('P') frontend message.
type ParseMessage struct {
	StatementName string
	Query         string
	ParamOIDs     []int32
}

// BindMessage is the decoded payload of a Bind ('B') frontend message.
type BindMessage struct {
	PortalName     string
	StatementName  string
	ParamFormats   []int16
	ParamValues    [][]byte // nil entry = SQL NULL
	ResultFormats  []int16
}

// ExecuteMessage is the decoded payload of an Execute ('E') frontend message.
type ExecuteMessage struct {
	PortalName string
	MaxRows    int32
}

// DescribeMessage / CloseMessage share the same wire shape: a target byte
// ('S' or 'P') followed by a name.
type DescribeMessage struct {
	Target byte
	Name   string
}

type CloseMessage struct {
	Target byte
	Name   string
}
