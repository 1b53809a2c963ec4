package editor

import (
	"olympos.io/encoding/edn"
)

// ParseLocation parses a definition-lookup payload: an EDN vector of
// [file line column]. The boolean reports whether the payload was a
// location; the :unknown sentinel and arbitrary values are not.
func ParseLocation(text string) (Location, bool) {
	var parts []any
	if err := edn.Unmarshal([]byte(text), &parts); err != nil {
		return Location{}, false
	}
	if len(parts) < 2 {
		return Location{}, false
	}

	path, ok := parts[0].(string)
	if !ok || path == "" {
		return Location{}, false
	}

	line, ok := asInt(parts[1])
	if !ok {
		return Location{}, false
	}

	col := 1
	if len(parts) > 2 {
		if c, ok := asInt(parts[2]); ok {
			col = c
		}
	}

	return Location{Path: path, Line: line, Column: col}, true
}

// completionPayload mirrors a compliment-style candidate map.
type completionPayload struct {
	Candidate string      `edn:"candidate"`
	Type      edn.Keyword `edn:"type"`
	NS        string      `edn:"ns"`
}

// ParseCompletions parses a completion-listing payload: an EDN vector of
// candidate maps, or of bare strings.
func ParseCompletions(text string) ([]CompletionItem, bool) {
	var maps []completionPayload
	if err := edn.Unmarshal([]byte(text), &maps); err == nil {
		items := make([]CompletionItem, 0, len(maps))
		for _, m := range maps {
			if m.Candidate == "" {
				continue
			}
			items = append(items, CompletionItem{
				Word: m.Candidate,
				Kind: string(m.Type),
				NS:   m.NS,
			})
		}
		return items, true
	}

	var words []string
	if err := edn.Unmarshal([]byte(text), &words); err == nil {
		items := make([]CompletionItem, 0, len(words))
		for _, w := range words {
			if w == "" {
				continue
			}
			items = append(items, CompletionItem{Word: w})
		}
		return items, true
	}

	return nil, false
}

// asInt normalises the numeric types the EDN decoder may produce.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
