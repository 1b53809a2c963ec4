// Package editor defines the contract between the connection pool and the
// editor frontend: the per-request context, the handle the pool's response
// loops report through, and the parsers for payloads those loops receive.
package editor

// Context is the editor state supplied with each request: the file the
// user is working in and an optional namespace override. An empty NS means
// no override.
type Context struct {
	Path string
	NS   string
}

// Location is a position in a source file.
type Location struct {
	Path   string
	Line   int
	Column int
}

// CompletionItem is one completion candidate.
type CompletionItem struct {
	// Word is the text inserted on selection.
	Word string

	// Kind classifies the candidate (function, macro, var).
	Kind string

	// NS is the namespace the candidate was found in.
	NS string
}

// Server is a handle into the editor. Response loops run it from their own
// goroutines concurrently with the control thread, so implementations must
// be safe for concurrent use.
type Server interface {
	// LogWritelns appends lines to the log buffer under a tag.
	LogWritelns(tag string, lines []string)

	// ErrWriteln reports a single error line to the user.
	ErrWriteln(line string)

	// GoTo moves the editor view to a source location.
	GoTo(loc Location) error

	// UpdateCompletions replaces the current completion candidate set.
	UpdateCompletions(items []CompletionItem) error
}
