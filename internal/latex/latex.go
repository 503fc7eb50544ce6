// Package latex provides LaTeX escaping, document assembly, and compilation
// for the report writing phase.
package latex

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/agentlaboratory/agentlab/internal/exec"
	"github.com/agentlaboratory/agentlab/internal/fileutil"
)

// compiler is the LaTeX engine invoked for report builds.
const compiler = "pdflatex"

// escaper replaces LaTeX special characters in plain text.
// Backslash must be handled first when building by hand, so the replacer is
// constructed with the backslash mapping leading; strings.Replacer applies
// non-overlapping replacements in a single pass, which keeps the escapes
// from compounding.
var escaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`&`, `\&`,
	`%`, `\%`,
	`$`, `\$`,
	`#`, `\#`,
	`_`, `\_`,
	`{`, `\{`,
	`}`, `\}`,
	`~`, `\textasciitilde{}`,
	`^`, `\textasciicircum{}`,
)

// Escape replaces LaTeX special characters in plain text so it can be
// embedded in a document body.
func Escape(text string) string {
	return escaper.Replace(text)
}

// WrapDocument wraps a report body into a minimal compilable article.
// The body is expected to already be valid LaTeX.
func WrapDocument(title, body string) string {
	var b strings.Builder
	b.WriteString("\\documentclass{article}\n")
	b.WriteString("\\usepackage{graphicx}\n")
	b.WriteString("\\usepackage{amsmath}\n")
	b.WriteString("\\usepackage{booktabs}\n")
	b.WriteString(fmt.Sprintf("\\title{%s}\n", Escape(title)))
	b.WriteString("\\begin{document}\n")
	b.WriteString("\\maketitle\n")
	b.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("\\end{document}\n")
	return b.String()
}

// BalancedEnvironments reports whether every \begin{...} in the source has
// a matching \end{...}, a cheap sanity check before spending a compile.
func BalancedEnvironments(src string) bool {
	counts := make(map[string]int)
	for _, line := range strings.Split(src, "\n") {
		rest := line
		for {
			i := strings.Index(rest, "\\begin{")
			j := strings.Index(rest, "\\end{")
			if i < 0 && j < 0 {
				break
			}
			if i >= 0 && (j < 0 || i < j) {
				name, n := envName(rest[i+len("\\begin{"):])
				counts[name]++
				rest = rest[i+len("\\begin{")+n:]
			} else {
				name, n := envName(rest[j+len("\\end{"):])
				counts[name]--
				rest = rest[j+len("\\end{")+n:]
			}
		}
	}
	for _, c := range counts {
		if c != 0 {
			return false
		}
	}
	return true
}

func envName(s string) (string, int) {
	if i := strings.Index(s, "}"); i >= 0 {
		return s[:i], i
	}
	return s, len(s)
}

// Compiler wraps pdflatex invocation.
type Compiler struct {
	runner  exec.Runner
	timeout time.Duration
}

// NewCompiler creates a Compiler using the given runner.
func NewCompiler(runner exec.Runner, timeout time.Duration) *Compiler {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Compiler{runner: runner, timeout: timeout}
}

// Available reports whether pdflatex is installed.
func (c *Compiler) Available() bool {
	return c.runner.Available(compiler)
}

// Compile writes source to <dir>/<name>.tex and runs pdflatex on it.
// Returns the path to the produced PDF.
func (c *Compiler) Compile(ctx context.Context, dir, name, source string) (string, error) {
	texPath := filepath.Join(dir, name+".tex")
	if err := fileutil.WriteText(texPath, source); err != nil {
		return "", err
	}

	out, err := c.runner.RunTimeout(ctx, c.timeout, dir,
		compiler, "-interaction=nonstopmode", "-halt-on-error", name+".tex")
	if err != nil {
		return "", fmt.Errorf("pdflatex failed: %w\n%s", err, tail(string(out), 2000))
	}

	return filepath.Join(dir, name+".pdf"), nil
}

// tail returns the last max bytes of s, where compile errors appear.
func tail(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[len(s)-max:]
}
