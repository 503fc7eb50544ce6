package textutil

import (
	"reflect"
	"testing"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
		want string
	}{
		{"short text unchanged", "hello", 10, "hello"},
		{"exact length unchanged", "hello", 5, "hello"},
		{"truncated with ellipsis", "hello world", 8, "hello..."},
		{"tiny max all dots", "hello", 2, ".."},
		{"empty text", "", 5, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.text, tt.max); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.text, tt.max, got, tt.want)
			}
		})
	}
}

func TestExtractCodeBlocks(t *testing.T) {
	md := "intro\n```python\nprint(1)\n```\nmiddle\n```\nplain block\n```\n"
	got := ExtractCodeBlocks(md)
	want := []string{"print(1)", "plain block"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractCodeBlocks() = %v, want %v", got, want)
	}
}

func TestExtractCodeBlocksNone(t *testing.T) {
	if got := ExtractCodeBlocks("no fences here"); len(got) != 0 {
		t.Errorf("ExtractCodeBlocks() = %v, want empty", got)
	}
}

func TestExtractFenced(t *testing.T) {
	text := "thinking...\n```PLAN\nstep one\nstep two\n```\ndone"
	body, ok := ExtractFenced(text, "PLAN")
	if !ok {
		t.Fatal("ExtractFenced() ok = false, want true")
	}
	if body != "step one\nstep two" {
		t.Errorf("ExtractFenced() = %q", body)
	}

	if _, ok := ExtractFenced(text, "EDIT"); ok {
		t.Error("ExtractFenced(EDIT) ok = true, want false")
	}
}

func TestStripMarkdown(t *testing.T) {
	md := "# Title\nSome **bold** and *italic* text with [a link](http://x) and `code`.\n"
	got := StripMarkdown(md)
	want := "Title\nSome bold and italic text with a link and code.\n"
	if got != want {
		t.Errorf("StripMarkdown() = %q, want %q", got, want)
	}
}

func TestExtractJSONFenced(t *testing.T) {
	text := "Here is the result:\n```json\n{\"key1\": \"value1\", \"key2\": 42, \"key3\": [1, 2, 3]}\n```\ntrailing text"
	got, err := ExtractJSON(text)
	if err != nil {
		t.Fatalf("ExtractJSON() error = %v", err)
	}
	if got["key1"] != "value1" {
		t.Errorf("key1 = %v, want value1", got["key1"])
	}
	if got["key2"] != float64(42) {
		t.Errorf("key2 = %v, want 42", got["key2"])
	}
}

func TestExtractJSONBare(t *testing.T) {
	text := "Some text before.\n{\n  \"key1\": \"value1\",\n  \"key2\": 42\n}\nSome text after."
	got, err := ExtractJSON(text)
	if err != nil {
		t.Fatalf("ExtractJSON() error = %v", err)
	}
	if got["key2"] != float64(42) {
		t.Errorf("key2 = %v, want 42", got["key2"])
	}
}

func TestExtractJSONInvalid(t *testing.T) {
	text := "```json\n{\"key1\": \"value1\", this is not valid}\n```"
	if _, err := ExtractJSON(text); err != ErrNoJSON {
		t.Errorf("ExtractJSON() error = %v, want ErrNoJSON", err)
	}
}

func TestExtractJSONAbsent(t *testing.T) {
	if _, err := ExtractJSON("This text contains no JSON."); err != ErrNoJSON {
		t.Errorf("ExtractJSON() error = %v, want ErrNoJSON", err)
	}
}

func TestExtractJSONNestedString(t *testing.T) {
	text := `result {"msg": "brace } in string", "n": 1} end`
	got, err := ExtractJSON(text)
	if err != nil {
		t.Fatalf("ExtractJSON() error = %v", err)
	}
	if got["msg"] != "brace } in string" {
		t.Errorf("msg = %v", got["msg"])
	}
}
