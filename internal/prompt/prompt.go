package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Decider answers yes/no questions raised at the workflow's decision
// points (ambiguous discovery result, patch anomaly, pre-commit pause).
// The core logic only ever sees this interface, so it can be driven
// headlessly in tests.
type Decider interface {
	// Confirm asks a question and reports whether the operator agreed.
	Confirm(question string) bool
}

// StdinDecider prompts on the terminal and reads a y/n answer.
type StdinDecider struct {
	in  io.Reader
	out io.Writer
}

// NewStdinDecider creates a Decider bound to stdin/stderr.
func NewStdinDecider() *StdinDecider {
	return &StdinDecider{
		in:  os.Stdin,
		out: os.Stderr,
	}
}

// Confirm prints the question and waits for an answer. Anything other
// than "y"/"yes" (case-insensitive) counts as a decline, including EOF.
func (d *StdinDecider) Confirm(question string) bool {
	fmt.Fprintf(d.out, "%s [y/N]: ", question)

	scanner := bufio.NewScanner(d.in)
	if !scanner.Scan() {
		return false
	}

	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}

// StaticDecider always answers the same way. Used by tests and by the
// -no-confirm flag.
type StaticDecider bool

// Confirm returns the fixed answer.
func (d StaticDecider) Confirm(string) bool {
	return bool(d)
}
