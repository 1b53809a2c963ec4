// Package pool keeps named prepl connections alive and routes editor
// requests to them.
//
// Each Connection bundles three channels against one address: code
// evaluation, definition lookup, and completion refresh. Every channel has
// its own response loop feeding side effects through a shared editor
// handle. The Pool maps caller-chosen keys to Connections and picks the
// target(s) of a request by matching the context's file path against each
// connection's path expression: evaluation is multicast to every match,
// definition lookup and completion refresh go to the first match only.
//
// The Pool itself is confined to the editor's control thread. Only the
// response loops run concurrently, and they touch nothing but their own
// channel and the editor handle.
package pool

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/julienvincent/conjure/internal/clojure"
	"github.com/julienvincent/conjure/internal/editor"
)

// Pool is the registry of live connections, keyed by caller-chosen
// identifier. Not safe for concurrent use; all calls must come from the
// same control thread.
type Pool struct {
	conns map[string]*Connection
	dial  Dialer
}

// Option configures a Pool.
type Option func(*Pool)

// WithDialer replaces the channel dialer. Used by tests to substitute
// in-memory clients.
func WithDialer(d Dialer) Option {
	return func(p *Pool) {
		p.dial = d
	}
}

// New creates an empty pool.
func New(opts ...Option) *Pool {
	p := &Pool{
		conns: make(map[string]*Connection),
		dial:  DialPrepl,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// HasConnections reports whether any connection is registered.
func (p *Pool) HasConnections() bool {
	return len(p.conns) > 0
}

// Keys returns the registered keys in sorted order.
func (p *Pool) Keys() []string {
	keys := make([]string, 0, len(p.conns))
	for key := range p.conns {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the connection registered under key, if any.
func (p *Pool) Get(key string) (*Connection, bool) {
	conn, ok := p.conns[key]
	return conn, ok
}

// Connect opens a connection to addr and registers it under key.
// Registration is all-or-nothing: if any channel fails to open or the
// response loops fail to start, the pool is left unchanged. Connecting
// over an existing key tears the old connection down first.
func (p *Pool) Connect(key string, server editor.Server, addr string, expr *regexp.Regexp, lang clojure.Lang) error {
	conn, err := Connect(p.dial, addr, expr, lang)
	if err != nil {
		return err
	}

	if err := conn.StartResponseLoops(fmt.Sprintf("[%s]", key), server); err != nil {
		conn.Close()
		return err
	}

	if old, ok := p.conns[key]; ok {
		old.Close()
	}
	p.conns[key] = conn
	return nil
}

// Disconnect removes the connection under key and tears it down.
func (p *Pool) Disconnect(key string) error {
	conn, ok := p.conns[key]
	if !ok {
		return &ConnectionMissingError{Key: key}
	}
	delete(p.conns, key)
	conn.Close()
	return nil
}

// Shutdown tears down every connection and empties the pool.
func (p *Pool) Shutdown() {
	for key, conn := range p.conns {
		conn.Close()
		delete(p.conns, key)
	}
}

// Eval sends code for evaluation on every connection whose path
// expression matches the context's path, and returns the matched keys.
// The namespace is the context's override when present, otherwise each
// connection's own user namespace. With zero matches nothing is written
// and a NoMatchingConnectionsError is returned.
func (p *Pool) Eval(code string, ctx editor.Context) ([]string, error) {
	var keys []string
	for key, conn := range p.conns {
		if !conn.Expr.MatchString(ctx.Path) {
			continue
		}

		ns := ctx.NS
		if ns == "" {
			ns = conn.UserNS
		}
		if err := conn.eval.Write(clojure.Eval(code, ns, conn.Lang)); err != nil {
			return nil, fmt.Errorf("writing eval to %q: %w", key, err)
		}
		keys = append(keys, key)
	}

	if len(keys) == 0 {
		return nil, &NoMatchingConnectionsError{Path: ctx.Path}
	}
	return keys, nil
}

// GoToDefinition asks the first matching connection to resolve name. The
// eventual jump happens from that connection's definition loop. With zero
// matches a NoMatchingConnectionsError is returned.
func (p *Pool) GoToDefinition(name string, ctx editor.Context) error {
	conn, ok := p.firstMatch(ctx.Path)
	if !ok {
		return &NoMatchingConnectionsError{Path: ctx.Path}
	}

	ns := ctx.NS
	if ns == "" {
		ns = conn.UserNS
	}
	if err := conn.definition.Write(clojure.Eval(clojure.Definition(name), ns, conn.Lang)); err != nil {
		return fmt.Errorf("writing definition lookup: %w", err)
	}
	return nil
}

// UpdateCompletions asks the first matching connection to refresh the
// completion candidate set. Zero matches is not an error: completion
// refresh is a background convenience and silently does nothing when the
// current file routes nowhere.
func (p *Pool) UpdateCompletions(ctx editor.Context) error {
	conn, ok := p.firstMatch(ctx.Path)
	if !ok {
		return nil
	}

	ns := ctx.NS
	if ns == "" {
		ns = conn.UserNS
	}
	if err := conn.completions.Write(clojure.Eval(clojure.Completions(ns, conn.CoreNS), ns, conn.Lang)); err != nil {
		return fmt.Errorf("writing completion refresh: %w", err)
	}
	return nil
}

// firstMatch returns a connection whose expression matches path.
// Selection among multiple matches is unspecified.
func (p *Pool) firstMatch(path string) (*Connection, bool) {
	for _, conn := range p.conns {
		if conn.Expr.MatchString(path) {
			return conn, true
		}
	}
	return nil, false
}
