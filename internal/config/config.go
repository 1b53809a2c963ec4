// Package config loads connection declarations from a TOML file.
//
// A declaration names a prepl endpoint, the path pattern that routes files
// to it, and the runtime flavour behind it:
//
//	[connections.dev]
//	addr = "127.0.0.1:5555"
//	expr = '\.cljc?$'
//	lang = "clojure"
package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/pelletier/go-toml/v2"

	"github.com/julienvincent/conjure/internal/clojure"
)

// ConnectionConfig declares one connection as written in the file.
type ConnectionConfig struct {
	Addr string `toml:"addr"`
	Expr string `toml:"expr"`
	Lang string `toml:"lang"`
}

// Config is the full declaration file.
type Config struct {
	Connections map[string]ConnectionConfig `toml:"connections"`
}

// ParseError reports a file that is not valid TOML.
type ParseError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError reports an invalid connection declaration.
type ValidationError struct {
	Key     string
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("connection %q: invalid %s: %s", e.Key, e.Field, e.Message)
}

// Load reads and validates a declaration file. A missing file is not an
// error; it yields an empty config.
func Load(path string) (Config, error) {
	cfg := Config{Connections: make(map[string]ConnectionConfig)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ParseError{Path: path, Err: err}
	}
	if cfg.Connections == nil {
		cfg.Connections = make(map[string]ConnectionConfig)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks every declaration.
func (c *Config) Validate() error {
	for key, conn := range c.Connections {
		if conn.Addr == "" {
			return &ValidationError{Key: key, Field: "addr", Message: "must not be empty"}
		}
		if _, err := regexp.Compile(conn.Expr); err != nil {
			return &ValidationError{Key: key, Field: "expr", Message: err.Error()}
		}
		if _, ok := clojure.ParseLang(conn.Lang); !ok {
			return &ValidationError{Key: key, Field: "lang", Message: fmt.Sprintf("unknown language %q", conn.Lang)}
		}
	}
	return nil
}

// Compile returns the routing pattern and language for one declaration.
func (c ConnectionConfig) Compile() (*regexp.Regexp, clojure.Lang, error) {
	expr, err := regexp.Compile(c.Expr)
	if err != nil {
		return nil, 0, fmt.Errorf("compiling expr: %w", err)
	}
	lang, ok := clojure.ParseLang(c.Lang)
	if !ok {
		return nil, 0, fmt.Errorf("unknown language %q", c.Lang)
	}
	return expr, lang, nil
}
