package patch

import (
	"strings"

	"github.com/sirupsen/logrus"
)

const remMarker = "REM "

// BlanketCommentSpec disables the startup script wholesale by prefixing
// every line with a REM marker; the launcher configuration takes over
// startup instead. Detection guards against reapplication: a file whose
// every non-blank line already carries the marker is treated as patched,
// so a second run cannot double-comment it.
func BlanketCommentSpec() Spec {
	return Spec{
		Name: "startup-script-blanket-comment",
		Detect: func(lines []string) bool {
			sawContent := false
			for _, line := range lines {
				if strings.TrimSpace(line) == "" {
					continue
				}
				sawContent = true
				if !hasRemMarker(line) {
					return false
				}
			}
			if sawContent {
				logrus.Warn("startup script is already fully commented out; leaving it untouched")
			}
			return sawContent
		},
		Transform: func(lines []string) []string {
			out := make([]string, len(lines))
			for i, line := range lines {
				out[i] = remMarker + line
			}
			return out
		},
	}
}

func hasRemMarker(line string) bool {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < len(remMarker) {
		return false
	}
	return strings.EqualFold(trimmed[:len(remMarker)], remMarker)
}
