package editor

import (
	"sync"
)

// Console is a Server implementation for running the pool without a real
// editor attached: log lines and errors go to a Logger, jump requests and
// completion updates are reported rather than acted on.
type Console struct {
	log *Logger

	mu          sync.Mutex
	completions []CompletionItem
	location    Location
	hasLocation bool
}

// NewConsole creates a console server writing through log.
func NewConsole(log *Logger) *Console {
	return &Console{log: log}
}

// LogWritelns writes each line under the tag.
func (c *Console) LogWritelns(tag string, lines []string) {
	for _, line := range lines {
		c.log.Info("%s %s", tag, line)
	}
}

// ErrWriteln writes an error line.
func (c *Console) ErrWriteln(line string) {
	c.log.Error("%s", line)
}

// GoTo records the location and reports it. A console has no view to move.
func (c *Console) GoTo(loc Location) error {
	c.mu.Lock()
	c.location = loc
	c.hasLocation = true
	c.mu.Unlock()

	c.log.Info("definition at %s:%d:%d", loc.Path, loc.Line, loc.Column)
	return nil
}

// UpdateCompletions replaces the candidate set.
func (c *Console) UpdateCompletions(items []CompletionItem) error {
	c.mu.Lock()
	c.completions = items
	c.mu.Unlock()

	c.log.Debug("completions updated: %d candidates", len(items))
	return nil
}

// Completions returns the most recent candidate set.
func (c *Console) Completions() []CompletionItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completions
}

// LastLocation returns the most recent jump target, if any.
func (c *Console) LastLocation() (Location, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.location, c.hasLocation
}
