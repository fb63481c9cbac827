package tools

import (
	"encoding/json"
	"testing"
)

func TestGetInt(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]any
		key    string
		want   int64
		wantOK bool
	}{
		{"float64", map[string]any{"n": float64(42)}, "n", 42, true},
		{"int64", map[string]any{"n": int64(7)}, "n", 7, true},
		{"int", map[string]any{"n": 3}, "n", 3, true},
		{"json.Number", map[string]any{"n": json.Number("99")}, "n", 99, true},
		{"bad json.Number", map[string]any{"n": json.Number("abc")}, "n", 0, false},
		{"missing key", map[string]any{}, "n", 0, false},
		{"wrong type", map[string]any{"n": "hello"}, "n", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := getInt(tt.params, tt.key)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("getInt() = (%d, %v), want (%d, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestGetString(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]any
		want   string
		wantOK bool
	}{
		{"present", map[string]any{"city": "Helsinki"}, "Helsinki", true},
		{"missing", map[string]any{}, "", false},
		{"wrong type", map[string]any{"city": 5.0}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := getString(tt.params, "city")
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("getString() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestGetList(t *testing.T) {
	if got := getList(map[string]any{"i": "Music, art ,,"}, "i"); len(got) != 2 || got[0] != "music" || got[1] != "art" {
		t.Errorf("comma string: got %v", got)
	}
	if got := getList(map[string]any{"i": []any{"Sports", 3.0, " film "}}, "i"); len(got) != 2 || got[1] != "film" {
		t.Errorf("array: got %v", got)
	}
	if got := getList(map[string]any{}, "i"); got != nil {
		t.Errorf("missing: got %v", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := truncate("a longer string", 8); got != "a longer..." {
		t.Errorf("got %q", got)
	}
	// "aä" is three bytes; cutting at two would split the ä.
	if got := truncate("aää", 2); got != "a..." {
		t.Errorf("got %q", got)
	}
}
