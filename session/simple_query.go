package session

import (
	"strconv"

	"github.com/cloudspannerecosystem/pg-spanner-proxy/translator"
	"github.com/cloudspannerecosystem/pg-spanner-proxy/wire"
)

// handleSimpleQuery implements the simple query flow: the
// Query payload may hold several semicolon-separated statements; each is
// translated and executed in turn, text format always, and the batch
// stops at the first error.
func (s *Session) handleSimpleQuery(query string) error {
	statements := translator.SplitStatements(query)
	if len(statements) == 1 && statements[0] == "" {
		if err := s.w.WriteEmptyQueryResponse(); err != nil {
			return err
		}
		return s.sendReady()
	}

	for _, raw := range statements {
		if raw == "" {
			continue
		}
		if err := s.runSimpleStatement(raw); err != nil {
			if werr := s.writeError(err); werr != nil {
				return werr
			}
			s.lastStmtFailed = true
			break
		}
	}
	return s.sendReady()
}

func (s *Session) runSimpleStatement(raw string) error {
	translated, _, err := s.xlat.Translate(raw)
	if err != nil {
		return err
	}

	if handled, tag, err := s.transactionControl(s.ctx, translated); handled {
		if err != nil {
			return err
		}
		return s.w.WriteCommandComplete(tag)
	}

	if looksLikeQuery(translated) {
		rs, err := s.be.Query(s.ctx, translated, nil)
		if err != nil {
			return err
		}
		defer rs.Close()

		cols := rs.Columns()
		if err := s.w.WriteRowDescription(columnsToDescriptors(cols, nil, wire.FormatText)); err != nil {
			return err
		}
		rowCount := int64(0)
		for rs.Next(s.ctx) {
			row, err := encodeRow(cols, rs.Values(), nil, wire.FormatText)
			if err != nil {
				return err
			}
			if err := s.w.WriteDataRow(row); err != nil {
				return err
			}
			rowCount++
		}
		if rs.Err() != nil {
			return rs.Err()
		}
		return s.w.WriteCommandComplete(commandTagString("SELECT", rowCount))
	}

	tag, err := s.be.Execute(s.ctx, translated, nil)
	if err != nil {
		return err
	}
	return s.w.WriteCommandComplete(commandTagString(tag.Keyword, tag.RowCount))
}

func commandTagString(keyword string, rowCount int64) string {
	switch keyword {
	case "INSERT":
		return "INSERT 0 " + strconv.FormatInt(rowCount, 10)
	case "SELECT", "UPDATE", "DELETE":
		return keyword + " " + strconv.FormatInt(rowCount, 10)
	default:
		return keyword
	}
}
