package session

import (
	"errors"

	"github.com/cloudspannerecosystem/pg-spanner-proxy/backend"
	"github.com/cloudspannerecosystem/pg-spanner-proxy/statement"
	"github.com/cloudspannerecosystem/pg-spanner-proxy/translator"
	"github.com/cloudspannerecosystem/pg-spanner-proxy/typecodec"
	"github.com/cloudspannerecosystem/pg-spanner-proxy/wire"
)

// sqlstate classifies an arbitrary error from any layer of the pipeline
// into the (sqlstate, message) pair an ErrorResponse carries; the caller
// chooses the severity.
func sqlstate(err error) (string, string) {
	var perr *wire.ProtocolError
	if errors.As(err, &perr) {
		return perr.SQLSTATE, perr.Message
	}
	var terr *translator.Error
	if errors.As(err, &terr) {
		return "XX000", terr.Message
	}
	var derr *typecodec.DecodeError
	if errors.As(err, &derr) {
		return derr.SQLSTATE, derr.Message
	}
	var dup *statement.DuplicateNameError
	if errors.As(err, &dup) {
		if dup.Kind == "portal" {
			return "42P03", dup.Error()
		}
		return "42P05", dup.Error()
	}
	var unk *statement.UnknownNameError
	if errors.As(err, &unk) {
		return "26000", unk.Error()
	}
	sqlErr := backend.ClassifyError(err)
	return sqlErr.SQLSTATE, sqlErr.Message
}

func (s *Session) writeError(err error) error {
	code, msg := sqlstate(err)
	return s.w.WriteErrorResponse(wire.SimpleError("ERROR", code, msg)...)
}
