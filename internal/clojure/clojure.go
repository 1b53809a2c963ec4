// Package clojure generates the request forms sent to a prepl and holds
// the language flavour metadata that drives namespace selection.
package clojure

import "strings"

// Lang is the runtime flavour behind a connection.
type Lang int

const (
	// Clojure is the JVM runtime.
	Clojure Lang = iota
	// ClojureScript is the JavaScript runtime.
	ClojureScript
)

// String returns the language name.
func (l Lang) String() string {
	switch l {
	case Clojure:
		return "clojure"
	case ClojureScript:
		return "clojurescript"
	default:
		return "unknown"
	}
}

// ParseLang parses a language name. The boolean reports whether the name
// was recognised.
func ParseLang(s string) (Lang, bool) {
	switch strings.ToLower(s) {
	case "clojure", "clj":
		return Clojure, true
	case "clojurescript", "cljs":
		return ClojureScript, true
	default:
		return Clojure, false
	}
}

// UserNS returns the default evaluation namespace for the language.
func (l Lang) UserNS() string {
	if l == ClojureScript {
		return "cljs.user"
	}
	return "user"
}

// CoreNS returns the builtin namespace for the language.
func (l Lang) CoreNS() string {
	if l == ClojureScript {
		return "cljs.core"
	}
	return "clojure.core"
}
