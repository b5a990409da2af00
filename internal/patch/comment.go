package patch

import (
	"fmt"
	"regexp"
	"strings"
)

// The third-party deployment module starts its own interactive wireless
// bootstrap. With a profile staged and the connectivity helper running
// first, that call only gets in the way, so it is commented out.
var targetStatement = regexp.MustCompile(`^\s*Start-WinREWiFi\b`)

const (
	commentMarker      = "# "
	commentExplanation = "# wireless connection is established by wifi-connect.ps1 before this module runs"
)

// CommentOutResult reports what the comment-out patch found.
type CommentOutResult struct {
	// NewlyCommented is the number of target statements commented out
	// by this application.
	NewlyCommented int

	// AlreadyCommented is the number of target statements that were
	// commented out by a previous application.
	AlreadyCommented int
}

// Matches is the total number of target statements seen, patched or not.
func (r CommentOutResult) Matches() int {
	return r.NewlyCommented + r.AlreadyCommented
}

// Anomaly returns a non-nil AnomalyError when the match count deviates
// from the expected exactly-one. The module's structure may have changed
// upstream; continuing requires operator confirmation.
func (r CommentOutResult) Anomaly(file string) *AnomalyError {
	if r.Matches() == 1 {
		return nil
	}
	return &AnomalyError{File: file, Matches: r.Matches()}
}

// ApplyCommentOut scans path for the target statement. A matching line
// is replaced by an explanatory comment plus the original line behind a
// comment marker; a line already carrying the marker is counted but left
// untouched; everything else passes through unchanged.
func ApplyCommentOut(path string) (CommentOutResult, error) {
	var result CommentOutResult

	lines, err := ReadLines(path)
	if err != nil {
		return result, fmt.Errorf("failed to read %s: %w", path, err)
	}

	out := make([]string, 0, len(lines)+1)
	for _, line := range lines {
		switch {
		case isCommentedTarget(line):
			result.AlreadyCommented++
			out = append(out, line)
		case targetStatement.MatchString(line):
			result.NewlyCommented++
			out = append(out, commentExplanation, commentMarker+line)
		default:
			out = append(out, line)
		}
	}

	if result.NewlyCommented == 0 {
		return result, nil
	}

	if err := WriteLines(path, out); err != nil {
		return result, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return result, nil
}

func isCommentedTarget(line string) bool {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "#") {
		return false
	}
	rest := strings.TrimLeft(trimmed, "# \t")
	return targetStatement.MatchString(rest)
}
