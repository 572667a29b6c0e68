package session

import (
	"github.com/cloudspannerecosystem/pg-spanner-proxy/statement"
	"github.com/cloudspannerecosystem/pg-spanner-proxy/typecodec"
	"github.com/cloudspannerecosystem/pg-spanner-proxy/wire"
)

// enterExtErr sends the single ErrorResponse allowed per extended batch
// and switches the session into skip-until-Sync.
func (s *Session) enterExtErr(err error) {
	if s.extErr {
		return
	}
	s.extErr = true
	s.writeError(err)
	s.lastStmtFailed = true
}

func (s *Session) handleParse(payload []byte) {
	if s.extErr {
		return
	}
	msg, err := wire.DecodeParse(payload)
	if err != nil {
		s.enterExtErr(err)
		return
	}

	translated, _, err := s.xlat.Translate(msg.Query)
	if err != nil {
		s.enterExtErr(err)
		return
	}

	stmt := &statement.Prepared{Name: msg.StatementName, SQL: translated, ParamOIDs: msg.ParamOIDs}
	if err := s.stmts.AddStatement(stmt); err != nil {
		s.enterExtErr(err)
		return
	}
	s.w.WriteParseComplete()
}

func (s *Session) handleBind(payload []byte) {
	if s.extErr {
		return
	}
	msg, err := wire.DecodeBind(payload)
	if err != nil {
		s.enterExtErr(err)
		return
	}

	stmt, err := s.stmts.Statement(msg.StatementName)
	if err != nil {
		s.enterExtErr(err)
		return
	}
	if len(msg.ParamValues) != len(stmt.ParamOIDs) {
		s.enterExtErr(&wire.ProtocolError{SQLSTATE: "08P01", Message: "bind parameter count does not match parse"})
		return
	}

	params := make([]any, len(msg.ParamValues))
	for i, raw := range msg.ParamValues {
		oid := int32(0)
		if i < len(stmt.ParamOIDs) {
			oid = stmt.ParamOIDs[i]
		}
		format := formatFor(msg.ParamFormats, i)
		v, err := typecodec.Decode(oid, format, raw)
		if err != nil {
			s.enterExtErr(err)
			return
		}
		params[i] = v
	}

	portal := &statement.Portal{Name: msg.PortalName, Stmt: stmt, Params: params, ResultFmts: msg.ResultFormats}
	if err := s.stmts.AddPortal(portal); err != nil {
		s.enterExtErr(err)
		return
	}
	s.w.WriteBindComplete()
}

func (s *Session) handleDescribe(payload []byte) {
	if s.extErr {
		return
	}
	msg, err := wire.DecodeDescribe(payload)
	if err != nil {
		s.enterExtErr(err)
		return
	}

	switch msg.Target {
	case wire.TargetStatement:
		stmt, err := s.stmts.Statement(msg.Name)
		if err != nil {
			s.enterExtErr(err)
			return
		}
		oids := make([]int32, len(stmt.ParamOIDs))
		for i, oid := range stmt.ParamOIDs {
			if oid == 0 {
				oid = typecodec.OIDUnknown
			}
			oids[i] = oid
		}
		s.w.WriteParameterDescription(oids)

		if !looksLikeQuery(stmt.SQL) {
			s.w.WriteNoData()
			return
		}
		if stmt.Columns != nil {
			s.w.WriteRowDescription(columnsToDescriptors(stmt.Columns, nil, s.resultDefaultFormat()))
			return
		}
		// Column shape isn't known until the statement has actually been
		// bound and executed once in this session; callers that need
		// an authoritative RowDescription should Describe the portal
		// after Bind instead.
		s.w.WriteNoData()

	case wire.TargetPortal:
		portal, err := s.stmts.Portal(msg.Name)
		if err != nil {
			s.enterExtErr(err)
			return
		}
		if !looksLikeQuery(portal.Stmt.SQL) {
			s.w.WriteNoData()
			return
		}
		if portal.ResultSet() == nil {
			rs, err := s.be.Query(s.ctx, portal.Stmt.SQL, portal.Params)
			if err != nil {
				s.enterExtErr(err)
				return
			}
			portal.SetResultSet(rs)
		}
		cols := portal.ResultSet().Columns()
		if portal.Stmt.Columns == nil {
			portal.Stmt.Columns = cols
		}
		s.w.WriteRowDescription(columnsToDescriptors(cols, portal.ResultFmts, s.resultDefaultFormat()))

	default:
		s.enterExtErr(&wire.ProtocolError{SQLSTATE: "08P01", Message: "invalid Describe target"})
	}
}

func (s *Session) handleExecute(payload []byte) {
	if s.extErr {
		return
	}
	msg, err := wire.DecodeExecute(payload)
	if err != nil {
		s.enterExtErr(err)
		return
	}
	portal, err := s.stmts.Portal(msg.PortalName)
	if err != nil {
		s.enterExtErr(err)
		return
	}

	if portal.Exhausted() {
		s.w.WriteCommandComplete(commandTagString(leadingKeyword(portal.Stmt.SQL), portal.RowsSent()))
		return
	}

	if handled, tag, err := s.transactionControl(s.ctx, portal.Stmt.SQL); handled {
		portal.SetExhausted()
		if err != nil {
			s.enterExtErr(err)
			return
		}
		s.w.WriteCommandComplete(tag)
		return
	}

	if !looksLikeQuery(portal.Stmt.SQL) {
		tag, err := s.be.Execute(s.ctx, portal.Stmt.SQL, portal.Params)
		portal.SetExhausted()
		if err != nil {
			s.enterExtErr(err)
			return
		}
		s.w.WriteCommandComplete(commandTagString(tag.Keyword, tag.RowCount))
		return
	}

	rs := portal.ResultSet()
	if rs == nil {
		rs, err = s.be.Query(s.ctx, portal.Stmt.SQL, portal.Params)
		if err != nil {
			s.enterExtErr(err)
			return
		}
		portal.SetResultSet(rs)
	}
	if portal.Stmt.Columns == nil {
		portal.Stmt.Columns = rs.Columns()
	}

	var sent int64
	for msg.MaxRows == 0 || sent < int64(msg.MaxRows) {
		if !rs.Next(s.ctx) {
			break
		}
		row, err := encodeRow(portal.Stmt.Columns, rs.Values(), portal.ResultFmts, s.resultDefaultFormat())
		if err != nil {
			s.enterExtErr(err)
			return
		}
		s.w.WriteDataRow(row)
		sent++
	}
	if rs.Err() != nil {
		s.enterExtErr(rs.Err())
		return
	}
	portal.AddRowsSent(sent)

	if msg.MaxRows != 0 && sent == int64(msg.MaxRows) {
		s.w.WritePortalSuspended()
		return
	}
	portal.SetExhausted()
	s.w.WriteCommandComplete(commandTagString("SELECT", portal.RowsSent()))
}

func (s *Session) handleClose(payload []byte) {
	if s.extErr {
		return
	}
	msg, err := wire.DecodeClose(payload)
	if err != nil {
		s.enterExtErr(err)
		return
	}
	switch msg.Target {
	case wire.TargetStatement:
		s.stmts.CloseStatement(msg.Name)
	case wire.TargetPortal:
		s.stmts.ClosePortal(msg.Name)
	}
	s.w.WriteCloseComplete()
}

func (s *Session) handleSync() error {
	s.extErr = false
	s.stmts.SyncCleanup()
	return s.sendReady()
}

// formatFor resolves the format code for parameter/column index i given
// the PostgreSQL length-0/1/N encoding rule.
func formatFor(formats []int16, i int) int16 {
	switch len(formats) {
	case 0:
		return wire.FormatText
	case 1:
		return formats[0]
	default:
		if i < len(formats) {
			return formats[i]
		}
		return wire.FormatText
	}
}
