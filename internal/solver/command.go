// Package solver implements the iterative code improvement loop that turns a
// research plan into working experiment code. The model proposes changes
// through fenced commands, the executor runs them, and a reward model scores
// each candidate so the best program survives.
package solver

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/agentlaboratory/agentlab/internal/textutil"
)

// Command is one change the model can make to the working program.
type Command interface {
	// Name identifies the command in prompts and logs.
	Name() string
	// Docstring describes the command for the system prompt.
	Docstring() string
	// Matches reports whether the model response invokes this command.
	Matches(response string) bool
	// Apply parses the response and returns the updated code lines.
	Apply(lines []string, response string) ([]string, error)
}

// Replace swaps out the entire program for new code.
type Replace struct{}

// Name returns "REPLACE".
func (Replace) Name() string { return "REPLACE" }

// Docstring describes the replace tool for the system prompt.
func (Replace) Docstring() string {
	return "============= REWRITE CODE EDITING TOOL =============\n" +
		"You have access to a code replacing tool.\n" +
		"This tool allows you to entirely rewrite all of the current code, erasing what exists.\n" +
		"Invoke it with:\n```REPLACE\n<code here>\n```"
}

// Matches reports whether the response contains a REPLACE block.
func (Replace) Matches(response string) bool {
	return strings.Contains(response, "```REPLACE")
}

// Apply returns the code inside the REPLACE block as new lines.
func (Replace) Apply(_ []string, response string) ([]string, error) {
	code, ok := textutil.ExtractFenced(response, "REPLACE")
	if !ok || code == "" {
		return nil, fmt.Errorf("malformed REPLACE command")
	}
	return strings.Split(code, "\n"), nil
}

// Edit replaces a contiguous range of lines with new code.
type Edit struct{}

var editHeaderRe = regexp.MustCompile("```EDIT[ \t]+(\\d+)[ \t]+(\\d+)")

// Name returns "EDIT".
func (Edit) Name() string { return "EDIT" }

// Docstring describes the edit tool for the system prompt.
func (Edit) Docstring() string {
	return "============= CODE EDITING TOOL =============\n" +
		"You have access to a code editing tool.\n" +
		"This tool replaces lines N through M (inclusive, zero indexed) of the current code\n" +
		"with as many new lines as you provide.\n" +
		"Invoke it with:\n```EDIT N M\n<new lines to replace old lines>\n```"
}

// Matches reports whether the response contains an EDIT block.
func (Edit) Matches(response string) bool {
	return strings.Contains(response, "```EDIT")
}

// Apply parses the EDIT header and splices the new lines into a copy of the
// current code. Lines start..end inclusive are replaced.
func (Edit) Apply(lines []string, response string) ([]string, error) {
	m := editHeaderRe.FindStringSubmatchIndex(response)
	if m == nil {
		return nil, fmt.Errorf("malformed EDIT command: missing line range")
	}
	start, _ := strconv.Atoi(response[m[2]:m[3]])
	end, _ := strconv.Atoi(response[m[4]:m[5]])

	body := response[m[1]:]
	if i := strings.Index(body, "\n"); i >= 0 {
		body = body[i+1:]
	}
	closing := strings.Index(body, "```")
	if closing < 0 {
		return nil, fmt.Errorf("malformed EDIT command: unterminated block")
	}
	newLines := strings.Split(strings.TrimRight(body[:closing], "\n"), "\n")

	if start > end {
		return nil, fmt.Errorf("invalid EDIT range %d..%d", start, end)
	}
	if start < 0 || end >= len(lines) {
		return nil, fmt.Errorf("EDIT range %d..%d out of bounds for %d lines", start, end, len(lines))
	}

	out := make([]string, 0, len(lines)-(end-start+1)+len(newLines))
	out = append(out, lines[:start]...)
	out = append(out, newLines...)
	out = append(out, lines[end+1:]...)
	return out, nil
}
