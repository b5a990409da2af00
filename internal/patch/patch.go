// Package patch applies line-level edits to files under a mount root.
// Every patch is expressed as a detection predicate plus a transform
// over the file's line sequence, so a patch that is already present is
// a no-op.
package patch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Spec describes one idempotent edit.
type Spec struct {
	// Name identifies the patch in errors and logs.
	Name string

	// Detect reports whether the file already reflects this patch.
	Detect func(lines []string) bool

	// Transform produces the new line sequence.
	Transform func(lines []string) []string

	// CreateIfMissing treats a missing target file as an empty line
	// sequence instead of an error.
	CreateIfMissing bool
}

// AnomalyError reports that a patch found an unexpected number of
// target statements. It is recoverable only through explicit operator
// confirmation.
type AnomalyError struct {
	File    string
	Matches int
}

func (e *AnomalyError) Error() string {
	if e.Matches == 0 {
		return fmt.Sprintf("patch target statement not found in %s", e.File)
	}
	return fmt.Sprintf("patch target statement found %d times in %s, expected exactly one", e.Matches, e.File)
}

// Question phrases the anomaly as a confirmation prompt.
func (e *AnomalyError) Question() string {
	if e.Matches == 0 {
		return fmt.Sprintf("the expected statement was not found in %s (the module may have changed upstream); continue anyway?", e.File)
	}
	return fmt.Sprintf("the expected statement appears %d times in %s; continue anyway?", e.Matches, e.File)
}

// Apply runs one Spec against path. It reports whether the file was
// changed; a file that already carries the patch is left untouched.
func Apply(path string, spec Spec) (bool, error) {
	lines, err := ReadLines(path)
	if err != nil {
		if os.IsNotExist(err) && spec.CreateIfMissing {
			lines = nil
		} else {
			return false, fmt.Errorf("patch %s: failed to read %s: %w", spec.Name, path, err)
		}
	}

	if spec.Detect(lines) {
		return false, nil
	}

	if err := WriteLines(path, spec.Transform(lines)); err != nil {
		return false, fmt.Errorf("patch %s: failed to write %s: %w", spec.Name, path, err)
	}

	return true, nil
}

// ReadLines reads a file into lines, tolerating both LF and CRLF
// endings. A trailing newline does not produce a trailing empty line.
func ReadLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil, nil
	}

	return strings.Split(text, "\n"), nil
}

// WriteLines overwrites a file with the given lines, CRLF-terminated.
// The patched files are read by the preboot environment, which expects
// Windows line endings.
func WriteLines(path string, lines []string) error {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString("\r\n")
	}
	return os.WriteFile(path, []byte(b.String()), 0644)
}

// ResolveOne resolves a single-level wildcard pattern under the mount
// root to exactly one file. Zero matches or more than one match is an
// error; the caller never guesses.
func ResolveOne(mountRoot, pattern string) (string, error) {
	full := filepath.Join(mountRoot, filepath.FromSlash(pattern))

	matches, err := filepath.Glob(full)
	if err != nil {
		return "", fmt.Errorf("invalid pattern %s: %w", pattern, err)
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no file matches %s under the mount root", pattern)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%d files match %s under the mount root, expected exactly one", len(matches), pattern)
	}
}
