package latex

import (
	"strings"
	"testing"
)

func TestEscape(t *testing.T) {
	tests := []struct{ in, want string }{
		{"50% accuracy", `50\% accuracy`},
		{"cost_usd & total", `cost\_usd \& total`},
		{"$5 #1", `\$5 \#1`},
		{"a{b}c", `a\{b\}c`},
		{"plain text", "plain text"},
	}
	for _, tt := range tests {
		if got := Escape(tt.in); got != tt.want {
			t.Errorf("Escape(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEscapeBackslashNoCompound(t *testing.T) {
	got := Escape(`a\b`)
	if got != `a\textbackslash{}b` {
		t.Errorf("Escape(backslash) = %q", got)
	}
}

func TestWrapDocument(t *testing.T) {
	doc := WrapDocument("Results 100% Reproducible", "\\section{Intro}\nhello")

	if !strings.Contains(doc, "\\documentclass{article}") {
		t.Error("missing documentclass")
	}
	if !strings.Contains(doc, "\\begin{document}") || !strings.Contains(doc, "\\end{document}") {
		t.Error("missing document environment")
	}
	// Title text is escaped.
	if !strings.Contains(doc, `Results 100\% Reproducible`) {
		t.Errorf("title not escaped: %s", doc)
	}
	if !strings.Contains(doc, "\\section{Intro}") {
		t.Error("body not embedded")
	}
}

func TestBalancedEnvironments(t *testing.T) {
	ok := "\\begin{table}\n\\begin{tabular}{ll}\n\\end{tabular}\n\\end{table}\n"
	if !BalancedEnvironments(ok) {
		t.Error("BalancedEnvironments(ok) = false")
	}

	bad := "\\begin{table}\n\\begin{tabular}{ll}\n\\end{tabular}\n"
	if BalancedEnvironments(bad) {
		t.Error("BalancedEnvironments(bad) = true")
	}

	mismatched := "\\begin{table}\n\\end{figure}\n"
	if BalancedEnvironments(mismatched) {
		t.Error("BalancedEnvironments(mismatched) = true")
	}

	if !BalancedEnvironments("no environments here") {
		t.Error("BalancedEnvironments(plain) = false")
	}
}
