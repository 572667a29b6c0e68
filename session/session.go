// Package session implements the per-connection state machine:
// startup/authentication, the simple query flow, and the extended query
// flow (Parse/Bind/Describe/Execute/Sync/Flush/Close) with its
// skip-until-Sync error discipline.
package session

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/cloudspannerecosystem/pg-spanner-proxy/backend"
	"github.com/cloudspannerecosystem/pg-spanner-proxy/config"
	"github.com/cloudspannerecosystem/pg-spanner-proxy/statement"
	"github.com/cloudspannerecosystem/pg-spanner-proxy/translator"
	"github.com/cloudspannerecosystem/pg-spanner-proxy/typecodec"
	"github.com/cloudspannerecosystem/pg-spanner-proxy/version"
	"github.com/cloudspannerecosystem/pg-spanner-proxy/wire"
)

// Registry is the subset of server.Registry a Session needs; kept narrow
// so this package doesn't import server (which imports session).
type Registry interface {
	Register(pid, secret int32, cancel context.CancelFunc, shutdown func())
	Unregister(pid, secret int32)
	Cancel(pid, secret int32) bool
}

var pidCounter int32

// nextPID hands out a small monotonically increasing process id, the way
// a single-process proxy stands in for a real postmaster's os-level pid.
func nextPID() int32 { return atomic.AddInt32(&pidCounter, 1) }

func randomSecret() int32 {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0
	}
	return int32(binary.BigEndian.Uint32(b[:]))
}

// Session drives one client connection end to end. It is not safe for
// concurrent use; the accept loop gives each connection its own Session
// running on its own goroutine.
type Session struct {
	conn      net.Conn
	r         *wire.Reader
	w         *wire.Writer
	cfg       *config.Config
	xlat      *translator.Translator
	beFactory BackendFactory
	be        backend.Client
	reg       Registry
	log       zerolog.Logger

	pid    int32
	secret int32

	stmts *statement.Session

	// extErr is the skip-until-Sync substate: once set,
	// every Parse/Bind/Describe/Execute/Close is silently discarded until
	// the next Sync.
	extErr bool
	// lastStmtFailed feeds the 'E' ReadyForQuery byte while a backend
	// transaction is open.
	lastStmtFailed bool

	ctx    context.Context
	cancel context.CancelFunc
}

// BackendFactory dials a fresh backend session. It is called at most once
// per Session, lazily, after startup/authentication succeeds — a
// connection that turns out to be a CancelRequest never dials a backend
// at all.
type BackendFactory func(ctx context.Context) (backend.Client, error)

// New constructs a Session for an already-accepted connection.
func New(conn net.Conn, cfg *config.Config, beFactory BackendFactory, xlat *translator.Translator, reg Registry, log zerolog.Logger) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	pid, secret := nextPID(), randomSecret()
	return &Session{
		conn:      conn,
		r:         wire.NewReader(conn),
		w:         wire.NewWriter(conn),
		cfg:       cfg,
		xlat:      xlat,
		beFactory: beFactory,
		reg:       reg,
		log:       log.With().Int32("pid", pid).Str("remote_addr", conn.RemoteAddr().String()).Logger(),
		pid:       pid,
		secret:    secret,
		stmts:     statement.NewSession(),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Run executes the full connection lifecycle and closes the connection
// and backend client on return.
func (s *Session) Run() {
	defer s.conn.Close()
	defer s.cancel()

	isCancel, err := s.startup()
	if err != nil {
		s.log.Debug().Err(err).Msg("startup failed")
		return
	}
	if isCancel {
		return
	}

	s.be, err = s.beFactory(s.ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to dial backend")
		s.w.WriteErrorResponse(wire.SimpleError("FATAL", "58000", "failed to connect to backend: "+err.Error())...)
		s.w.Flush()
		return
	}
	defer s.be.Close()

	s.reg.Register(s.pid, s.secret, s.cancel, s.shutdown)
	defer s.reg.Unregister(s.pid, s.secret)

	s.log.Debug().Msg("session ready")
	s.loop()
	s.log.Debug().Msg("session closed")
}

// startup performs SSL refusal, the protocol-version handshake, and
// cleartext password authentication.
func (s *Session) startup() (isCancel bool, err error) {
	for {
		msg, cancelReq, isSSL, err := s.r.ReadStartup()
		if err != nil {
			var perr *wire.ProtocolError
			if errors.As(err, &perr) {
				s.w.WriteErrorResponse(wire.SimpleError("FATAL", perr.SQLSTATE, perr.Message)...)
				s.w.Flush()
			}
			return false, err
		}
		if cancelReq != nil {
			// PostgreSQL sends no response on the cancel channel and
			// closes it immediately.
			s.reg.Cancel(cancelReq.ProcessID, cancelReq.SecretKey)
			return true, nil
		}
		if isSSL {
			if err := s.w.WriteSSLRefuse(); err != nil {
				return false, err
			}
			if err := s.w.Flush(); err != nil {
				return false, err
			}
			continue
		}

		if err := checkClientEncoding(msg.Parameters["client_encoding"]); err != nil {
			var perr *wire.ProtocolError
			errors.As(err, &perr)
			s.w.WriteErrorResponse(wire.SimpleError("FATAL", perr.SQLSTATE, perr.Message)...)
			s.w.Flush()
			return false, err
		}

		if s.cfg.Authenticate {
			if err := s.w.WriteAuthCleartextPassword(); err != nil {
				return false, err
			}
			if err := s.w.Flush(); err != nil {
				return false, err
			}
			msgType, payload, err := s.r.ReadMessage()
			if err != nil {
				return false, fmt.Errorf("read password: %w", err)
			}
			if msgType != wire.MsgPasswordMessage {
				return false, fmt.Errorf("expected PasswordMessage, got %q", msgType)
			}
			if stripNull(payload) != s.cfg.Password {
				user := msg.Parameters["user"]
				s.w.WriteErrorResponse(wire.SimpleError("FATAL", "28P01", fmt.Sprintf("password authentication failed for user %q", user))...)
				s.w.Flush()
				return false, fmt.Errorf("bad password for user %s", user)
			}
		}

		if err := s.w.WriteAuthOk(); err != nil {
			return false, err
		}
		params := [][2]string{
			{"server_version", version.String()},
			{"server_encoding", "UTF8"},
			{"client_encoding", "UTF8"},
			{"DateStyle", "ISO, MDY"},
			{"IntervalStyle", "iso_8601"},
			{"TimeZone", "UTC"},
		}
		for _, p := range params {
			if err := s.w.WriteParameterStatus(p[0], p[1]); err != nil {
				return false, err
			}
		}
		if err := s.w.WriteBackendKeyData(s.pid, s.secret); err != nil {
			return false, err
		}
		if err := s.w.WriteReadyForQuery(wire.TxIdle); err != nil {
			return false, err
		}
		return false, s.w.Flush()
	}
}

// shutdown sends AdminShutdown (SQLSTATE 57P01) and closes the
// connection; registered with the server-wide registry so Server.Shutdown
// can reach every live session. It only writes best-effort — the
// connection may already be blocked on a read, in which case the write
// races harmlessly with the socket's teardown.
func (s *Session) shutdown() {
	s.w.WriteErrorResponse(wire.SimpleError("FATAL", "57P01", "terminating connection due to administrator command")...)
	s.w.Flush()
	s.cancel()
	s.conn.Close()
}

// loop reads and dispatches messages until the client disconnects.
func (s *Session) loop() {
	for {
		msgType, payload, err := s.r.ReadMessage()
		if err != nil {
			if err != io.EOF {
				s.log.Debug().Err(err).Msg("read error")
			}
			return
		}

		switch msgType {
		case wire.MsgQuery:
			if err := s.handleSimpleQuery(stripNull(payload)); err != nil {
				s.log.Debug().Err(err).Msg("write error")
				return
			}
		case wire.MsgParse:
			s.handleParse(payload)
		case wire.MsgBind:
			s.handleBind(payload)
		case wire.MsgDescribe:
			s.handleDescribe(payload)
		case wire.MsgExecute:
			s.handleExecute(payload)
		case wire.MsgClose:
			s.handleClose(payload)
		case wire.MsgSync:
			if err := s.handleSync(); err != nil {
				s.log.Debug().Err(err).Msg("write error")
				return
			}
		case wire.MsgFlush:
			if err := s.w.Flush(); err != nil {
				return
			}
		case wire.MsgTerminate:
			return
		default:
			s.log.Debug().Str("type", string(rune(msgType))).Msg("unsupported message type")
		}
	}
}

func (s *Session) txStatus() byte {
	if s.be.InTransaction() {
		if s.lastStmtFailed {
			return wire.TxFailed
		}
		return wire.TxInTx
	}
	return wire.TxIdle
}

func (s *Session) sendReady() error {
	if err := s.w.WriteReadyForQuery(s.txStatus()); err != nil {
		return err
	}
	return s.w.Flush()
}

func stripNull(b []byte) string {
	if len(b) > 0 && b[len(b)-1] == 0 {
		return string(b[:len(b)-1])
	}
	return string(b)
}

// transactionControl recognizes a leading BEGIN/COMMIT/ROLLBACK keyword
// and drives the backend's session-scoped transaction handle
//. It reports whether sql was a transaction-control
// statement (and so needs no further execution against the backend).
func (s *Session) transactionControl(ctx context.Context, sql string) (handled bool, tag string, err error) {
	keyword := leadingKeyword(sql)
	switch keyword {
	case "BEGIN", "START":
		err := s.be.BeginTransaction(ctx)
		if err == nil {
			s.lastStmtFailed = false
		}
		return true, "BEGIN", err
	case "COMMIT", "END":
		err := s.be.Commit(ctx)
		s.lastStmtFailed = false
		return true, "COMMIT", err
	case "ROLLBACK", "ABORT":
		err := s.be.Rollback(ctx)
		s.lastStmtFailed = false
		return true, "ROLLBACK", err
	default:
		return false, "", nil
	}
}

func leadingKeyword(sql string) string {
	trimmed := strings.TrimSpace(sql)
	end := strings.IndexAny(trimmed, " \t\n(;")
	if end < 0 {
		end = len(trimmed)
	}
	return strings.ToUpper(trimmed[:end])
}

// looksLikeQuery decides whether translated SQL is expected to return
// rows (dispatched to backend.Client.Query) or not (Execute). This proxy
// never builds a parse tree, so the split is a leading keyword
// heuristic, same as a connection pooler's statement sniffing.
func looksLikeQuery(sql string) bool {
	switch leadingKeyword(sql) {
	case "SELECT", "WITH", "SHOW", "EXPLAIN", "VALUES", "DESCRIBE":
		return true
	default:
		return false
	}
}

// columnsToDescriptors converts backend ColumnMeta to wire
// ColumnDescriptors using the format codes the caller has already chosen
// per column (text for simple query, per-portal for extended query).
// defaultFormat applies to any column the formats slice leaves unset,
// per the PostgreSQL length-0/1/N Bind encoding rule.
func columnsToDescriptors(cols []backend.ColumnMeta, formats []int16, defaultFormat int16) []wire.ColumnDescriptor {
	out := make([]wire.ColumnDescriptor, len(cols))
	for i, c := range cols {
		oid := typecodec.BackendTypeToOID(c.BackendType)
		format := defaultFormat
		if len(formats) == 1 {
			format = formats[0]
		} else if len(formats) == len(cols) {
			format = formats[i]
		}
		out[i] = wire.ColumnDescriptor{
			Name:         c.Name,
			TableOID:     0,
			ColumnAttr:   0,
			DataTypeOID:  oid,
			DataTypeSize: typecodec.TypeSize(oid),
			TypeModifier: -1,
			FormatCode:   format,
		}
	}
	return out
}

func encodeRow(cols []backend.ColumnMeta, values []any, formats []int16, defaultFormat int16) ([][]byte, error) {
	out := make([][]byte, len(values))
	for i, v := range values {
		oid := typecodec.BackendTypeToOID(cols[i].BackendType)
		format := defaultFormat
		if len(formats) == 1 {
			format = formats[0]
		} else if len(formats) == len(cols) {
			format = formats[i]
		}
		b, err := typecodec.Encode(oid, format, v)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

// resultDefaultFormat is the format code applied to an extended-query
// result column the client's Bind left unspecified. PostgreSQL itself
// always defaults to text here; -force-binary lets a proxy deployment
// override that default for clients that always request binary anyway.
func (s *Session) resultDefaultFormat() int16 {
	if s.cfg.ForceBinary {
		return wire.FormatBinary
	}
	return wire.FormatText
}
