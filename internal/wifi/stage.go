package wifi

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Stage places (or removes) the profile artifact at relPath under the
// mount root according to the input:
//
//   - credential set: synthesize a profile and write it;
//   - profile file set: copy the already-validated artifact verbatim;
//   - neither set: delete a profile left over from a previous run, if
//     one exists, warning with the SSID it named.
//
// After Stage returns, exactly one profile (or none) exists at relPath.
func Stage(mountRoot string, in Input, relPath string) error {
	target := filepath.Join(mountRoot, filepath.FromSlash(relPath))

	switch {
	case in.Credential != nil:
		data, err := Synthesize(*in.Credential)
		if err != nil {
			return err
		}
		logrus.Warnf("wifi password for %q is stored unencrypted inside the image", in.Credential.SSID)
		return writeArtifact(target, data)

	case in.ProfilePath != "":
		data, err := os.ReadFile(in.ProfilePath)
		if err != nil {
			return fmt.Errorf("failed to read profile file: %w", err)
		}
		return writeArtifact(target, data)

	default:
		return removeStale(target)
	}
}

func writeArtifact(target string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}
	if err := os.WriteFile(target, data, 0644); err != nil {
		return fmt.Errorf("failed to write wifi profile: %w", err)
	}
	return nil
}

func removeStale(target string) error {
	data, err := os.ReadFile(target)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read existing wifi profile: %w", err)
	}

	name, perr := ParseProfileName(data)
	if perr != nil || name == "" {
		name = "(unknown)"
	}
	logrus.Warnf("no wifi input given; removing stale profile %q from the image", name)

	if err := os.Remove(target); err != nil {
		return fmt.Errorf("failed to remove stale wifi profile: %w", err)
	}
	return nil
}
