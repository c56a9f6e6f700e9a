package llm

import "testing"

func TestParseJSONResponse(t *testing.T) {
	cases := []struct {
		name string
		in   string
		key  string
		want string
	}{
		{"plain json", `{"overview": "calm day"}`, "overview", "calm day"},
		{"fenced", "```json\n{\"overview\": \"calm day\"}\n```", "overview", "calm day"},
		{"fenced no lang", "```\n{\"overview\": \"calm day\"}\n```", "overview", "calm day"},
		{"surrounding whitespace", "  {\"overview\": \"calm day\"}  ", "overview", "calm day"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			parsed := ParseJSONResponse(tc.in)
			if parsed == nil {
				t.Fatal("expected parse to succeed")
			}
			if got := GetString(parsed, tc.key, ""); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestParseJSONResponseInvalid(t *testing.T) {
	for _, in := range []string{"", "not json", "```\nnot json\n```"} {
		if got := ParseJSONResponse(in); got != nil {
			t.Errorf("ParseJSONResponse(%q) = %v, want nil", in, got)
		}
	}
}

func TestGetString(t *testing.T) {
	m := map[string]any{"a": "x", "b": 3.0}
	if got := GetString(m, "a", "fb"); got != "x" {
		t.Errorf("got %q", got)
	}
	if got := GetString(m, "b", "fb"); got != "fb" {
		t.Errorf("non-string should fall back, got %q", got)
	}
	if got := GetString(m, "missing", "fb"); got != "fb" {
		t.Errorf("missing should fall back, got %q", got)
	}
}

func TestGetStrings(t *testing.T) {
	m := map[string]any{
		"list":  []any{"a", "  b  ", "", 7.0},
		"wrong": "scalar",
	}
	got := GetStrings(m, "list")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("got %v", got)
	}
	if GetStrings(m, "wrong") != nil {
		t.Error("scalar field should give nil")
	}
	if GetStrings(m, "missing") != nil {
		t.Error("missing field should give nil")
	}
}

func TestGetFloat(t *testing.T) {
	m := map[string]any{"n": 7.5, "s": "7.5"}
	if v, ok := GetFloat(m, "n"); !ok || v != 7.5 {
		t.Errorf("got %v, %v", v, ok)
	}
	if _, ok := GetFloat(m, "s"); ok {
		t.Error("string field must not count as numeric")
	}
	if _, ok := GetFloat(m, "missing"); ok {
		t.Error("missing field must report absent")
	}
}
