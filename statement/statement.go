// Package statement implements the session-scoped prepared-statement and
// portal bookkeeping of the extended query protocol: named and unnamed
// statements and portals, and their PostgreSQL replacement semantics.
package statement

import (
	"fmt"

	"github.com/cloudspannerecosystem/pg-spanner-proxy/backend"
)

// unnamed is the empty-string name PostgreSQL reserves for the unnamed
// statement/portal: re-Parse or re-Bind with this name silently replaces
// whatever occupied it, where a named slot must first be closed.
const unnamed = ""

// Prepared is a statement produced by Parse: the original SQL (already
// translated), the parameter type OIDs the client declared or the proxy
// inferred, and — once Describe has been answered — the result columns.
type Prepared struct {
	Name      string
	SQL       string
	ParamOIDs []int32
	Columns   []backend.ColumnMeta
}

// Portal is a statement bound to concrete parameter values via Bind, plus
// the result format codes the client asked for.
type Portal struct {
	Name       string
	Stmt       *Prepared
	Params     []any
	ResultFmts []int16

	// exhausted is set once Execute has fully drained the portal's
	// result set, so a subsequent Execute immediately reports the
	// command complete with no repeated work (PostgreSQL allows
	// re-Executing an exhausted portal; it just returns nothing more).
	exhausted bool
	rs        backend.ResultSet
	rowsSent  int64
}

// RowsSent returns the cumulative row count streamed to the client across
// every Execute call against this portal (used for the final
// CommandComplete tag after a sequence of PortalSuspended responses).
func (p *Portal) RowsSent() int64 { return p.rowsSent }

// AddRowsSent accumulates n more rows streamed.
func (p *Portal) AddRowsSent(n int64) { p.rowsSent += n }

// Exhausted reports whether the portal's underlying result set has
// already been fully consumed.
func (p *Portal) Exhausted() bool { return p.exhausted }

// SetExhausted marks the portal drained and releases its ResultSet.
func (p *Portal) SetExhausted() {
	p.exhausted = true
	if p.rs != nil {
		p.rs.Close()
		p.rs = nil
	}
}

// ResultSet returns the portal's open result set, or nil if Execute has
// not bound one yet (a portal for a non-SELECT statement never gets one).
func (p *Portal) ResultSet() backend.ResultSet { return p.rs }

// SetResultSet attaches the result set Execute opened for this portal.
func (p *Portal) SetResultSet(rs backend.ResultSet) { p.rs = rs }

// DuplicateNameError reports re-use of a named statement/portal slot that
// is already occupied (PostgreSQL SQLSTATE 42P05 / 42P03).
type DuplicateNameError struct {
	Kind string // "statement" or "portal"
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Kind, e.Name)
}

// UnknownNameError reports a reference to a statement/portal name the
// session has never seen, or has since closed.
type UnknownNameError struct {
	Kind string
	Name string
}

func (e *UnknownNameError) Error() string {
	return fmt.Sprintf("%s %q does not exist", e.Kind, e.Name)
}

// Session is the per-connection registry of prepared statements and
// portals. It is not safe for concurrent use — each client connection
// owns exactly one, driven by its single reader goroutine.
type Session struct {
	statements map[string]*Prepared
	portals    map[string]*Portal
}

// NewSession returns an empty statement/portal registry.
func NewSession() *Session {
	return &Session{
		statements: make(map[string]*Prepared),
		portals:    make(map[string]*Portal),
	}
}

// AddStatement registers stmt under its Name, honoring PostgreSQL's
// unnamed-vs-named replacement rule: the unnamed statement is always
// silently replaced, a named statement must be closed first.
func (s *Session) AddStatement(stmt *Prepared) error {
	if stmt.Name != unnamed {
		if _, exists := s.statements[stmt.Name]; exists {
			return &DuplicateNameError{Kind: "statement", Name: stmt.Name}
		}
	}
	s.statements[stmt.Name] = stmt
	return nil
}

// Statement looks up a prepared statement by name.
func (s *Session) Statement(name string) (*Prepared, error) {
	stmt, ok := s.statements[name]
	if !ok {
		return nil, &UnknownNameError{Kind: "statement", Name: name}
	}
	return stmt, nil
}

// CloseStatement removes a prepared statement and, matching PostgreSQL,
// every portal derived from it (a portal cannot outlive its statement).
func (s *Session) CloseStatement(name string) {
	delete(s.statements, name)
	for pname, p := range s.portals {
		if p.Stmt != nil && p.Stmt.Name == name {
			p.SetExhausted()
			delete(s.portals, pname)
		}
	}
}

// AddPortal registers a bound portal, honoring the same unnamed/named
// replacement rule as statements.
func (s *Session) AddPortal(p *Portal) error {
	if p.Name != unnamed {
		if _, exists := s.portals[p.Name]; exists {
			return &DuplicateNameError{Kind: "portal", Name: p.Name}
		}
	} else if old, exists := s.portals[unnamed]; exists {
		old.SetExhausted()
	}
	s.portals[p.Name] = p
	return nil
}

// Portal looks up a bound portal by name.
func (s *Session) Portal(name string) (*Portal, error) {
	p, ok := s.portals[name]
	if !ok {
		return nil, &UnknownNameError{Kind: "portal", Name: name}
	}
	return p, nil
}

// ClosePortal releases a portal and its result set, if any.
func (s *Session) ClosePortal(name string) {
	if p, ok := s.portals[name]; ok {
		p.SetExhausted()
		delete(s.portals, name)
	}
}

// SyncCleanup destroys the unnamed portal, matching PostgreSQL's portal
// lifetime rule ("destroyed on Close, next Sync for unnamed, or session
// end"). The unnamed statement has no such rule — it lives until Close or
// session end, same as a named one — so a client that Parses the unnamed
// statement, Describes it, Syncs, and only then Binds still finds it.
// Named statements and portals survive Sync either way, including a Sync
// that follows a protocol error.
func (s *Session) SyncCleanup() {
	if p, ok := s.portals[unnamed]; ok {
		p.SetExhausted()
		delete(s.portals, unnamed)
	}
}
