package pool

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/julienvincent/conjure/internal/clojure"
	"github.com/julienvincent/conjure/internal/editor"
	"github.com/julienvincent/conjure/internal/prepl"
)

// unknownLocation is the payload a definition lookup returns when the
// symbol has no source metadata.
const unknownLocation = ":unknown"

// Client is one prepl channel as the pool consumes it. *prepl.Client
// satisfies it; tests substitute their own.
type Client interface {
	Write(text string) error
	Responses() <-chan prepl.Result
	Quit() error
	Close() error
}

// Dialer opens a new Client against an address.
type Dialer func(addr string) (Client, error)

// DialPrepl is the default Dialer.
func DialPrepl(addr string) (Client, error) {
	return prepl.Dial(addr)
}

// Connection is one live session against one prepl address. It holds
// three independent channels so that long-running evaluations never delay
// definition lookups or completion refreshes.
type Connection struct {
	eval        Client
	definition  Client
	completions Client

	// UserNS is the default evaluation namespace, derived from Lang.
	UserNS string
	// CoreNS is the builtin namespace, used when listing completions.
	CoreNS string
	// Addr is the remote address all three channels are dialed to.
	Addr string
	// Expr decides whether a file path routes to this connection.
	Expr *regexp.Regexp
	// Lang is the runtime flavour behind the connection.
	Lang clojure.Lang

	// server is the handle the response loops report through. Set by
	// StartResponseLoops; teardown logs through it when present.
	server editor.Server

	started bool
}

// Connect opens the three channels against addr. Any dial failure aborts
// the whole connection; channels opened before the failure are released.
// The response loops are not yet running on return.
func Connect(dial Dialer, addr string, expr *regexp.Regexp, lang clojure.Lang) (*Connection, error) {
	conn := &Connection{
		UserNS: lang.UserNS(),
		CoreNS: lang.CoreNS(),
		Addr:   addr,
		Expr:   expr,
		Lang:   lang,
	}

	var err error
	if conn.eval, err = dial(addr); err != nil {
		return nil, fmt.Errorf("opening eval channel: %w", err)
	}
	if conn.definition, err = dial(addr); err != nil {
		conn.eval.Close()
		return nil, fmt.Errorf("opening definition channel: %w", err)
	}
	if conn.completions, err = dial(addr); err != nil {
		conn.eval.Close()
		conn.definition.Close()
		return nil, fmt.Errorf("opening completion channel: %w", err)
	}

	return conn, nil
}

// StartResponseLoops bootstraps the eval channel and spawns the three
// response loops. Must be called exactly once, immediately after Connect.
// Each loop runs until its channel's response stream ends; label prefixes
// every log tag the loops emit.
func (c *Connection) StartResponseLoops(label string, server editor.Server) error {
	if c.started {
		return ErrLoopsStarted
	}
	c.started = true
	c.server = server

	if err := c.eval.Write(clojure.Eval(clojure.Bootstrap(), c.UserNS, c.Lang)); err != nil {
		return fmt.Errorf("writing bootstrap: %w", err)
	}

	go c.evalLoop(label, server)
	go c.definitionLoop(server)
	go c.completionLoop(server)

	return nil
}

// evalLoop logs every response from the eval channel. Results and tapped
// values appear bare; captured output and error text get a comment prefix
// so they read as annotations next to results.
func (c *Connection) evalLoop(label string, server editor.Server) {
	log := func(tagSuffix, linePrefix, msg string) {
		lines := strings.Split(strings.TrimSuffix(msg, "\n"), "\n")
		for i, line := range lines {
			lines[i] = linePrefix + line
		}
		server.LogWritelns(label+" "+tagSuffix, lines)
	}

	for res := range c.eval.Responses() {
		if res.Err != nil {
			server.ErrWriteln(fmt.Sprintf("Error from eval connection: %v", res.Err))
			continue
		}

		switch res.Response.Kind {
		case prepl.KindRet:
			log(fmt.Sprintf("ret %dms", res.Response.ElapsedMS), "", res.Response.Text)
		case prepl.KindTap:
			log(fmt.Sprintf("tap %dms", res.Response.ElapsedMS), "", res.Response.Text)
		case prepl.KindOut:
			log("out", ";; ", res.Response.Text)
		case prepl.KindErr:
			log("err", ";; ", res.Response.Text)
		}
	}
}

// definitionLoop turns eval results on the definition channel into jump
// requests. Payloads that parse as a location move the editor; the
// :unknown sentinel reports failure; anything else is noise from the
// remote and is dropped.
func (c *Connection) definitionLoop(server editor.Server) {
	for res := range c.definition.Responses() {
		if res.Err != nil {
			server.ErrWriteln(fmt.Sprintf("Error from definition connection: %v", res.Err))
			continue
		}

		switch res.Response.Kind {
		case prepl.KindRet:
			if loc, ok := editor.ParseLocation(res.Response.Text); ok {
				if err := server.GoTo(loc); err != nil {
					server.ErrWriteln(fmt.Sprintf("Error while going to definition: %v", err))
				}
			} else if res.Response.Text == unknownLocation {
				server.ErrWriteln("Location unknown")
			}
		case prepl.KindErr:
			server.ErrWriteln(fmt.Sprintf("Error message from definition lookup: %s", res.Response.Text))
		}
	}
}

// completionLoop turns eval results on the completion channel into
// candidate-set replacements.
func (c *Connection) completionLoop(server editor.Server) {
	for res := range c.completions.Responses() {
		if res.Err != nil {
			server.ErrWriteln(fmt.Sprintf("Error from completion connection: %v", res.Err))
			continue
		}

		switch res.Response.Kind {
		case prepl.KindRet:
			if items, ok := editor.ParseCompletions(res.Response.Text); ok {
				if err := server.UpdateCompletions(items); err != nil {
					server.ErrWriteln(fmt.Sprintf("Error while completing: %v", err))
				}
			}
		case prepl.KindErr:
			server.ErrWriteln(fmt.Sprintf("Error message from completions: %s", res.Response.Text))
		}
	}
}

// Close tears the connection down: a best-effort quit on the eval channel,
// then release of the remaining channels. Only the eval session holds
// interactive state worth a clean shutdown. Failures are logged, never
// returned; teardown must not fail the caller.
func (c *Connection) Close() {
	if err := c.eval.Quit(); err != nil {
		if c.server != nil {
			c.server.ErrWriteln(fmt.Sprintf("Failed to quit REPL cleanly: %v", err))
		}
	}
	c.definition.Close()
	c.completions.Close()
}
