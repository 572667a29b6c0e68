package wire

import "fmt"

// ProtocolError represents a framing or sequencing violation (bad length,
// wrong message for the current state, bad parameter count) or a rejected
// startup parameter. Carries the SQLSTATE (08P01 for framing and
// sequencing faults, 22021 for invalid UTF-8 in a startup parameter,
// 22023/0A000 for a rejected client_encoding) so callers can build an
// ErrorResponse without re-deriving it.
type ProtocolError struct {
	SQLSTATE string
	Message  string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error [%s]: %s", e.SQLSTATE, e.Message)
}
