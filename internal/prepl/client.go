// Package prepl implements a client for the Clojure socket prepl.
//
// A prepl accepts whole forms as text and replies with one EDN map per
// message, tagged :ret, :tap, :out or :err. The client exposes writes, a
// background-readable response stream, and a graceful quit.
package prepl

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"
)

// quitForm tells the remote prepl to end the session cleanly.
const quitForm = ":repl/quit"

// maxResponseSize bounds a single response line. Large printed values are
// common (pretty-printed data structures), small ones are the norm.
const maxResponseSize = 1024 * 1024 * 8

// Client is a connection to one prepl endpoint.
//
// A Client supports one concurrent writer plus the single consumer of its
// Responses stream. Write and Quit are safe to call from the writer while
// the stream is being consumed.
type Client struct {
	conn net.Conn

	writeMu sync.Mutex

	respOnce sync.Once
	resp     chan Result

	closed atomic.Bool
}

// Dial opens a new prepl connection to addr (host:port).
func Dial(addr string) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dialing prepl at %s: %w", addr, err)
	}
	return NewClient(conn), nil
}

// NewClient wraps an established connection. Used by Dial and by tests
// that supply an in-memory conn.
func NewClient(conn net.Conn) *Client {
	return &Client{
		conn: conn,
		resp: make(chan Result),
	}
}

// Write sends one request string to the remote. A trailing newline is
// appended if missing; the prepl reads forms up to a newline.
func (c *Client) Write(text string) error {
	if c.closed.Load() {
		return net.ErrClosed
	}

	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if _, err := c.conn.Write([]byte(text)); err != nil {
		return fmt.Errorf("writing request: %w", err)
	}
	return nil
}

// Responses returns the stream of incoming messages. The first call starts
// the read loop; subsequent calls return the same channel. The channel is
// closed when the remote closes the connection or Close is called. A
// malformed message is delivered as a Result with Err set and the stream
// continues.
func (c *Client) Responses() <-chan Result {
	c.respOnce.Do(func() {
		go c.readLoop()
	})
	return c.resp
}

// readLoop reads newline-delimited EDN messages until the stream ends.
func (c *Client) readLoop() {
	defer close(c.resp)

	scanner := bufio.NewScanner(c.conn)
	scanner.Buffer(make([]byte, 64*1024), maxResponseSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		resp, err := decodeResponse(line)
		if err != nil {
			c.resp <- Result{Err: err}
			continue
		}
		c.resp <- Result{Response: resp}
	}

	if err := scanner.Err(); err != nil && !c.closed.Load() {
		c.resp <- Result{Err: fmt.Errorf("reading responses: %w", err)}
	}
}

// Quit sends the quit form and closes the connection. The close happens
// even if the write fails.
func (c *Client) Quit() error {
	writeErr := c.Write(quitForm)
	if err := c.Close(); err != nil && writeErr == nil {
		return err
	}
	return writeErr
}

// Close releases the connection, unblocking the read loop.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil // Already closed
	}
	return c.conn.Close()
}
