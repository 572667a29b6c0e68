package wire

import (
	"bufio"
	"encoding/binary"
	"io"
)

// Writer writes PostgreSQL wire protocol messages to a connection.
type Writer struct {
	w   *bufio.Writer
	buf []byte
}

// NewWriter wraps w for writing PG protocol messages.
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		w:   bufio.NewWriter(w),
		buf: make([]byte, 0, 1024),
	}
}

// Flush flushes buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// WriteSSLRefuse writes a single 'N' byte to refuse SSL/GSSENC negotiation.
func (w *Writer) WriteSSLRefuse() error {
	_, err := w.w.Write([]byte{'N'})
	return err
}

func (w *Writer) WriteAuthCleartextPassword() error {
	w.beginMessage(MsgAuthentication)
	w.writeInt32(AuthCleartextPassword)
	return w.finishMessage()
}

func (w *Writer) WriteAuthOk() error {
	w.beginMessage(MsgAuthentication)
	w.writeInt32(AuthOk)
	return w.finishMessage()
}

func (w *Writer) WriteParameterStatus(name, value string) error {
	w.beginMessage(MsgParameterStatus)
	w.writeCString(name)
	w.writeCString(value)
	return w.finishMessage()
}

func (w *Writer) WriteBackendKeyData(pid, secret int32) error {
	w.beginMessage(MsgBackendKeyData)
	w.writeInt32(pid)
	w.writeInt32(secret)
	return w.finishMessage()
}

func (w *Writer) WriteReadyForQuery(status byte) error {
	w.beginMessage(MsgReadyForQuery)
	w.buf = append(w.buf, status)
	return w.finishMessage()
}

func (w *Writer) WriteRowDescription(columns []ColumnDescriptor) error {
	w.beginMessage(MsgRowDescription)
	w.writeInt16(int16(len(columns)))
	for _, col := range columns {
		w.writeCString(col.Name)
		w.writeInt32(col.TableOID)
		w.writeInt16(col.ColumnAttr)
		w.writeInt32(col.DataTypeOID)
		w.writeInt16(col.DataTypeSize)
		w.writeInt32(col.TypeModifier)
		w.writeInt16(col.FormatCode)
	}
	return w.finishMessage()
}

// WriteDataRow sends a single data row; a nil entry means SQL NULL.
func (w *Writer) WriteDataRow(values [][]byte) error {
	w.beginMessage(MsgDataRow)
	w.writeInt16(int16(len(values)))
	for _, v := range values {
		if v == nil {
			w.writeInt32(-1)
		} else {
			w.writeInt32(int32(len(v)))
			w.buf = append(w.buf, v...)
		}
	}
	return w.finishMessage()
}

func (w *Writer) WriteCommandComplete(tag string) error {
	w.beginMessage(MsgCommandComplete)
	w.writeCString(tag)
	return w.finishMessage()
}

func (w *Writer) WriteEmptyQueryResponse() error {
	w.beginMessage(MsgEmptyQueryResponse)
	return w.finishMessage()
}

func (w *Writer) WriteParseComplete() error {
	w.beginMessage(MsgParseComplete)
	return w.finishMessage()
}

func (w *Writer) WriteBindComplete() error {
	w.beginMessage(MsgBindComplete)
	return w.finishMessage()
}

func (w *Writer) WriteCloseComplete() error {
	w.beginMessage(MsgCloseComplete)
	return w.finishMessage()
}

func (w *Writer) WriteNoData() error {
	w.beginMessage(MsgNoData)
	return w.finishMessage()
}

func (w *Writer) WritePortalSuspended() error {
	w.beginMessage(MsgPortalSuspended)
	return w.finishMessage()
}

// WriteParameterDescription sends the parameter type OIDs for a prepared
// statement (the response to Describe('S', name)).
func (w *Writer) WriteParameterDescription(oids []int32) error {
	w.beginMessage(MsgParameterDescription)
	w.writeInt16(int16(len(oids)))
	for _, oid := range oids {
		w.writeInt32(oid)
	}
	return w.finishMessage()
}

// ErrorField is one field of an ErrorResponse/NoticeResponse ('S','C','M',...).
type ErrorField struct {
	Code  byte
	Value string
}

// WriteErrorResponse writes a full ErrorResponse message from arbitrary fields.
func (w *Writer) WriteErrorResponse(fields ...ErrorField) error {
	return w.writeErrorLike(MsgErrorResponse, fields)
}

// WriteNoticeResponse writes a NoticeResponse message.
func (w *Writer) WriteNoticeResponse(fields ...ErrorField) error {
	return w.writeErrorLike(MsgNoticeResponse, fields)
}

func (w *Writer) writeErrorLike(msgType byte, fields []ErrorField) error {
	w.beginMessage(msgType)
	for _, f := range fields {
		w.buf = append(w.buf, f.Code)
		w.writeCString(f.Value)
	}
	w.buf = append(w.buf, 0) // terminator
	return w.finishMessage()
}

// SimpleError builds the {S,C,M} field triple used for most error paths.
func SimpleError(severity, sqlstate, message string) []ErrorField {
	return []ErrorField{
		{'S', severity},
		{'C', sqlstate},
		{'M', message},
	}
}

func (w *Writer) beginMessage(msgType byte) {
	w.buf = w.buf[:0]
	w.buf = append(w.buf, msgType)
	w.buf = append(w.buf, 0, 0, 0, 0) // length placeholder
}

func (w *Writer) finishMessage() error {
	length := int32(len(w.buf) - 1) // length includes itself, not the type byte
	binary.BigEndian.PutUint32(w.buf[1:5], uint32(length))
	_, err := w.w.Write(w.buf)
	return err
}

func (w *Writer) writeInt32(v int32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, uint32(v))
}

func (w *Writer) writeInt16(v int16) {
	w.buf = binary.BigEndian.AppendUint16(w.buf, uint16(v))
}

func (w *Writer) writeCString(s string) {
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0)
}

// --- primitive encode/decode helpers shared with the type codec ---

// PutInt16 / PutInt32 / PutInt64 append big-endian integers to dst.
func PutInt16(dst []byte, v int16) []byte { return binary.BigEndian.AppendUint16(dst, uint16(v)) }
func PutInt32(dst []byte, v int32) []byte { return binary.BigEndian.AppendUint32(dst, uint32(v)) }
func PutInt64(dst []byte, v int64) []byte { return binary.BigEndian.AppendUint64(dst, uint64(v)) }

// GetInt16 / GetInt32 / GetInt64 decode big-endian integers; callers must
// ensure b has sufficient length.
func GetInt16(b []byte) int16 { return int16(binary.BigEndian.Uint16(b)) }
func GetInt32(b []byte) int32 { return int32(binary.BigEndian.Uint32(b)) }
func GetInt64(b []byte) int64 { return int64(binary.BigEndian.Uint64(b)) }
