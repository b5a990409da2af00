package patch

import "strings"

const launchAppsHeader = "[LaunchApps]"

// LauncherSpec builds the launcher-injection patch for the preboot
// launcher configuration. If the invocation is not yet present, the file
// is rewritten as a launch section that runs the invocation first,
// followed by every previously configured non-header line, verbatim and
// in original order. The marker keys detection so reapplication is a
// no-op.
func LauncherSpec(invocation, marker string) Spec {
	return Spec{
		Name:            "launcher-injection",
		CreateIfMissing: true,
		Detect: func(lines []string) bool {
			for _, line := range lines {
				if strings.Contains(line, marker) {
					return true
				}
			}
			return false
		},
		Transform: func(lines []string) []string {
			out := []string{launchAppsHeader, invocation}
			for _, line := range lines {
				if isLaunchHeader(line) {
					continue
				}
				out = append(out, line)
			}
			return out
		},
	}
}

func isLaunchHeader(line string) bool {
	return strings.EqualFold(strings.TrimSpace(line), launchAppsHeader)
}
