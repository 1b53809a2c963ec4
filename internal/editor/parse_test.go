package editor

import (
	"reflect"
	"testing"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Location
		ok   bool
	}{
		{
			name: "full vector",
			text: `["/proj/src/app/core.clj" 42 7]`,
			want: Location{Path: "/proj/src/app/core.clj", Line: 42, Column: 7},
			ok:   true,
		},
		{
			name: "no column defaults to 1",
			text: `["/proj/src/app/core.clj" 42]`,
			want: Location{Path: "/proj/src/app/core.clj", Line: 42, Column: 1},
			ok:   true,
		},
		{name: "unknown sentinel", text: ":unknown"},
		{name: "bare number", text: "42"},
		{name: "empty path", text: `["" 1 1]`},
		{name: "missing line", text: `["/a.clj"]`},
		{name: "non-numeric line", text: `["/a.clj" "x" 1]`},
		{name: "garbage", text: "][ not edn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseLocation(tt.text)
			if ok != tt.ok {
				t.Fatalf("ParseLocation(%s) ok = %v, want %v", tt.text, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("ParseLocation(%s) = %+v, want %+v", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseCompletions_Maps(t *testing.T) {
	text := `[{:candidate "map" :type :function :ns "clojure.core"}
	         {:candidate "mapv" :type :function :ns "clojure.core"}]`

	items, ok := ParseCompletions(text)
	if !ok {
		t.Fatal("Expected candidate maps to parse")
	}

	want := []CompletionItem{
		{Word: "map", Kind: "function", NS: "clojure.core"},
		{Word: "mapv", Kind: "function", NS: "clojure.core"},
	}
	if !reflect.DeepEqual(items, want) {
		t.Errorf("Items = %+v, want %+v", items, want)
	}
}

func TestParseCompletions_BareStrings(t *testing.T) {
	items, ok := ParseCompletions(`["map" "mapv" "reduce"]`)
	if !ok {
		t.Fatal("Expected bare strings to parse")
	}
	if len(items) != 3 || items[0].Word != "map" {
		t.Errorf("Unexpected items: %+v", items)
	}
}

func TestParseCompletions_Invalid(t *testing.T) {
	for _, text := range []string{":unknown", "42", "][", `{:candidate "x"}`} {
		if items, ok := ParseCompletions(text); ok {
			t.Errorf("ParseCompletions(%s) = %+v, expected failure", text, items)
		}
	}
}
