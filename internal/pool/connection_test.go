package pool

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"testing"

	"github.com/julienvincent/conjure/internal/clojure"
	"github.com/julienvincent/conjure/internal/editor"
	"github.com/julienvincent/conjure/internal/prepl"
)

// startConnection builds a connection on mock clients with running loops.
func startConnection(t *testing.T, srv *mockServer) (*Connection, *mockDialer) {
	t.Helper()
	dialer := newMockDialer()

	conn, err := Connect(dialer.dial, "127.0.0.1:5555", regexp.MustCompile(`\.clj$`), clojure.Clojure)
	if err != nil {
		t.Fatalf("Connect error = %v", err)
	}
	if err := conn.StartResponseLoops("[dev]", srv); err != nil {
		t.Fatalf("StartResponseLoops error = %v", err)
	}
	t.Cleanup(conn.Close)
	return conn, dialer
}

func ret(text string, ms int64) prepl.Result {
	return prepl.Result{Response: prepl.Response{Kind: prepl.KindRet, Text: text, ElapsedMS: ms}}
}

func TestStartResponseLoops_Twice(t *testing.T) {
	srv := &mockServer{}
	conn, _ := startConnection(t, srv)

	if err := conn.StartResponseLoops("[dev]", srv); !errors.Is(err, ErrLoopsStarted) {
		t.Errorf("Expected ErrLoopsStarted, got %v", err)
	}
}

func TestStartResponseLoops_BootstrapWriteFailure(t *testing.T) {
	dialer := newMockDialer()
	conn, err := Connect(dialer.dial, "127.0.0.1:5555", regexp.MustCompile(`\.clj$`), clojure.Clojure)
	if err != nil {
		t.Fatalf("Connect error = %v", err)
	}

	eval, _, _ := dialer.clientsFor(0)
	eval.writeErr = errors.New("broken pipe")

	if err := conn.StartResponseLoops("[dev]", &mockServer{}); err == nil {
		t.Error("Expected bootstrap write failure to propagate")
	}
}

func TestEvalLoop_LogsResultsAndOutput(t *testing.T) {
	srv := &mockServer{}
	_, dialer := startConnection(t, srv)
	eval, _, _ := dialer.clientsFor(0)

	eval.push(ret("3", 12))
	eval.push(prepl.Result{Response: prepl.Response{Kind: prepl.KindTap, Text: "{:a 1}", ElapsedMS: 4}})
	eval.push(prepl.Result{Response: prepl.Response{Kind: prepl.KindOut, Text: "line one\nline two\n"}})
	eval.push(prepl.Result{Response: prepl.Response{Kind: prepl.KindErr, Text: "boom"}})

	waitFor(t, func() bool { return len(srv.logEntries()) == 4 })

	logs := srv.logEntries()
	want := []logEntry{
		{tag: "[dev] ret 12ms", lines: []string{"3"}},
		{tag: "[dev] tap 4ms", lines: []string{"{:a 1}"}},
		{tag: "[dev] out", lines: []string{";; line one", ";; line two"}},
		{tag: "[dev] err", lines: []string{";; boom"}},
	}
	if !reflect.DeepEqual(logs, want) {
		t.Errorf("Log entries = %+v, want %+v", logs, want)
	}
}

func TestDefinitionLoop_JumpsToParsedLocation(t *testing.T) {
	srv := &mockServer{}
	_, dialer := startConnection(t, srv)
	_, def, _ := dialer.clientsFor(0)

	def.push(ret(`["/proj/src/app/core.clj" 42 7]`, 1))

	waitFor(t, func() bool {
		srv.mu.Lock()
		defer srv.mu.Unlock()
		return len(srv.locations) == 1
	})

	srv.mu.Lock()
	loc := srv.locations[0]
	srv.mu.Unlock()
	want := editor.Location{Path: "/proj/src/app/core.clj", Line: 42, Column: 7}
	if loc != want {
		t.Errorf("GoTo location = %+v, want %+v", loc, want)
	}
	if len(srv.errLines()) != 0 {
		t.Errorf("Expected no error lines, got %v", srv.errLines())
	}
}

func TestDefinitionLoop_UnknownSentinel(t *testing.T) {
	srv := &mockServer{}
	_, dialer := startConnection(t, srv)
	_, def, _ := dialer.clientsFor(0)

	def.push(ret(":unknown", 1))

	waitFor(t, func() bool { return len(srv.errLines()) == 1 })
	if got := srv.errLines()[0]; got != "Location unknown" {
		t.Errorf("Error line = %q, want %q", got, "Location unknown")
	}
}

func TestDefinitionLoop_UnparsablePayloadIgnored(t *testing.T) {
	srv := &mockServer{}
	_, dialer := startConnection(t, srv)
	_, def, _ := dialer.clientsFor(0)

	def.push(ret("42", 1))
	// A later parsable payload proves the loop survived the garbage.
	def.push(ret(`["/a.clj" 1 1]`, 1))

	waitFor(t, func() bool {
		srv.mu.Lock()
		defer srv.mu.Unlock()
		return len(srv.locations) == 1
	})
	if len(srv.errLines()) != 0 {
		t.Errorf("Expected no side effects for unparsable payload, got %v", srv.errLines())
	}
}

func TestDefinitionLoop_JumpFailureLogged(t *testing.T) {
	srv := &mockServer{goToErr: errors.New("view is gone")}
	_, dialer := startConnection(t, srv)
	_, def, _ := dialer.clientsFor(0)

	def.push(ret(`["/a.clj" 1 1]`, 1))

	waitFor(t, func() bool { return len(srv.errLines()) == 1 })
	if !strings.Contains(srv.errLines()[0], "going to definition") {
		t.Errorf("Unexpected error line: %s", srv.errLines()[0])
	}
}

func TestCompletionLoop_UpdatesCandidates(t *testing.T) {
	srv := &mockServer{}
	_, dialer := startConnection(t, srv)
	_, _, comp := dialer.clientsFor(0)

	comp.push(ret(`[{:candidate "map" :type :function :ns "clojure.core"}]`, 1))

	waitFor(t, func() bool {
		srv.mu.Lock()
		defer srv.mu.Unlock()
		return len(srv.completions) == 1
	})

	srv.mu.Lock()
	items := srv.completions[0]
	srv.mu.Unlock()
	if len(items) != 1 || items[0].Word != "map" || items[0].Kind != "function" {
		t.Errorf("Unexpected completion items: %+v", items)
	}
}

func TestCompletionLoop_UpdateFailureLogged(t *testing.T) {
	srv := &mockServer{updateErr: errors.New("completion source detached")}
	_, dialer := startConnection(t, srv)
	_, _, comp := dialer.clientsFor(0)

	comp.push(ret(`["map" "mapv"]`, 1))

	waitFor(t, func() bool { return len(srv.errLines()) == 1 })
	if !strings.Contains(srv.errLines()[0], "completing") {
		t.Errorf("Unexpected error line: %s", srv.errLines()[0])
	}
}

func TestTransportError_DoesNotHaltOtherChannels(t *testing.T) {
	srv := &mockServer{}
	_, dialer := startConnection(t, srv)
	eval, def, comp := dialer.clientsFor(0)

	// A transport error on the definition channel...
	def.push(prepl.Result{Err: errors.New("connection reset")})

	// ...must not stop the other two channels from delivering.
	eval.push(ret("1", 2))
	comp.push(ret(`["map"]`, 1))

	waitFor(t, func() bool {
		srv.mu.Lock()
		defer srv.mu.Unlock()
		return len(srv.logs) == 1 && len(srv.completions) == 1 && len(srv.errs) == 1
	})

	if !strings.Contains(srv.errLines()[0], "definition connection") {
		t.Errorf("Unexpected error line: %s", srv.errLines()[0])
	}

	// And the definition channel itself keeps consuming.
	def.push(ret(`["/a.clj" 1 1]`, 1))
	waitFor(t, func() bool {
		srv.mu.Lock()
		defer srv.mu.Unlock()
		return len(srv.locations) == 1
	})
}

func TestClose_QuitFailureLoggedNotReturned(t *testing.T) {
	srv := &mockServer{}
	dialer := newMockDialer()
	conn, err := Connect(dialer.dial, "127.0.0.1:5555", regexp.MustCompile(`\.clj$`), clojure.Clojure)
	if err != nil {
		t.Fatalf("Connect error = %v", err)
	}
	if err := conn.StartResponseLoops("[dev]", srv); err != nil {
		t.Fatalf("StartResponseLoops error = %v", err)
	}

	eval, def, comp := dialer.clientsFor(0)
	eval.quitErr = errors.New("remote already gone")

	conn.Close()

	waitFor(t, func() bool { return len(srv.errLines()) == 1 })
	if !strings.Contains(srv.errLines()[0], "Failed to quit REPL cleanly") {
		t.Errorf("Unexpected error line: %s", srv.errLines()[0])
	}
	if def.closes == 0 || comp.closes == 0 {
		t.Error("Expected definition and completion channels released")
	}
}
