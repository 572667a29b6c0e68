package wire

import (
	"bytes"
	"testing"
)

func TestWriteReadMessageRoundtrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.WriteCommandComplete("SELECT 3"); err != nil {
		t.Fatalf("WriteCommandComplete: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	r := NewReader(&buf)
	msgType, payload, err := r.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if msgType != MsgCommandComplete {
		t.Errorf("msgType = %q, want %q", msgType, MsgCommandComplete)
	}
	want := "SELECT 3\x00"
	if string(payload) != want {
		t.Errorf("payload = %q, want %q", payload, want)
	}
}

func TestReadStartupCancelRequest(t *testing.T) {
	var buf bytes.Buffer

	length := int32(16)
	body := make([]byte, 0, 16)
	body = PutInt32(body, length)
	body = PutInt32(body, CancelRequestCode)
	body = PutInt32(body, 4242)
	body = PutInt32(body, 99)
	buf.Write(body)

	r := NewReader(&buf)
	msg, cancel, isSSL, err := r.ReadStartup()
	if err != nil {
		t.Fatalf("ReadStartup: %v", err)
	}
	if msg != nil {
		t.Errorf("msg = %v, want nil for a CancelRequest", msg)
	}
	if isSSL {
		t.Error("isSSL = true, want false for a CancelRequest")
	}
	if cancel == nil {
		t.Fatal("cancel = nil, want a CancelRequest")
	}
	if cancel.ProcessID != 4242 || cancel.SecretKey != 99 {
		t.Errorf("cancel = %+v, want {ProcessID:4242 SecretKey:99}", cancel)
	}
}

func TestReadStartupParameters(t *testing.T) {
	var buf bytes.Buffer
	params := []byte("user\x00alice\x00database\x00widgets\x00\x00")
	body := make([]byte, 0, 8+len(params))
	body = PutInt32(body, int32(8+len(params)))
	body = PutInt32(body, ProtocolVersion)
	body = append(body, params...)
	buf.Write(body)

	r := NewReader(&buf)
	msg, cancel, isSSL, err := r.ReadStartup()
	if err != nil {
		t.Fatalf("ReadStartup: %v", err)
	}
	if cancel != nil || isSSL {
		t.Fatalf("cancel = %v, isSSL = %v, want nil/false", cancel, isSSL)
	}
	if msg.Parameters["user"] != "alice" || msg.Parameters["database"] != "widgets" {
		t.Errorf("Parameters = %+v", msg.Parameters)
	}
}

func TestDecodeBindRoundtrip(t *testing.T) {
	payload := []byte{}
	payload = append(payload, "myportal\x00"...)
	payload = append(payload, "mystmt\x00"...)
	payload = PutInt16(payload, 1) // one format code
	payload = PutInt16(payload, FormatText)
	payload = PutInt16(payload, 1) // one param
	payload = PutInt32(payload, 5)
	payload = append(payload, "hello"...)
	payload = PutInt16(payload, 0) // default result formats

	msg, err := DecodeBind(payload)
	if err != nil {
		t.Fatalf("DecodeBind: %v", err)
	}
	if msg.PortalName != "myportal" || msg.StatementName != "mystmt" {
		t.Errorf("names = %q, %q", msg.PortalName, msg.StatementName)
	}
	if len(msg.ParamValues) != 1 || string(msg.ParamValues[0]) != "hello" {
		t.Errorf("ParamValues = %v", msg.ParamValues)
	}
}
