package pool

import (
	"errors"
	"fmt"
)

// ErrLoopsStarted indicates StartResponseLoops was called twice.
var ErrLoopsStarted = errors.New("response loops already started")

// ConnectionMissingError is returned when an operation names a key with no
// registered connection.
type ConnectionMissingError struct {
	Key string
}

// Error implements the error interface.
func (e *ConnectionMissingError) Error() string {
	return fmt.Sprintf("connection doesn't exist for that key: %s", e.Key)
}

// NoMatchingConnectionsError is returned when no registered connection's
// path expression matches the request context.
type NoMatchingConnectionsError struct {
	Path string
}

// Error implements the error interface.
func (e *NoMatchingConnectionsError) Error() string {
	return fmt.Sprintf("no matching connections for path: %s", e.Path)
}
