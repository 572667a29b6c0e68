package session

import (
	"strings"

	"golang.org/x/text/encoding/ianaindex"

	"github.com/cloudspannerecosystem/pg-spanner-proxy/wire"
)

// checkClientEncoding rejects a startup request for a character encoding
// the proxy cannot serve. The backend always stores and the proxy always
// speaks UTF-8; a client that explicitly asked for something
// else would silently get UTF-8 anyway, so it's better to fail the
// connection than let the client believe its request was honored.
func checkClientEncoding(name string) error {
	if name == "" || strings.EqualFold(name, "UTF8") || strings.EqualFold(name, "UTF-8") {
		return nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return &wire.ProtocolError{SQLSTATE: "22023", Message: "unrecognized client_encoding: " + name}
	}
	return &wire.ProtocolError{SQLSTATE: "0A000", Message: "client_encoding " + name + " is not supported; this proxy only serves UTF8"}
}
