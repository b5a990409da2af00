package wimage

import (
	"fmt"
	"os/exec"
	"strconv"
)

// WimlibMounter drives wimlib-imagex, the portable WIM servicing tool,
// for platforms without DISM.
type WimlibMounter struct{}

// NewWimlibMounter creates a wimlib-backed mounter.
func NewWimlibMounter() (*WimlibMounter, error) {
	if _, err := exec.LookPath("wimlib-imagex"); err != nil {
		return nil, fmt.Errorf("wimlib-imagex not found: %w (install wimtools)", err)
	}
	return &WimlibMounter{}, nil
}

// Mount attaches the image read-write via wimlib-imagex mountrw.
func (m *WimlibMounter) Mount(imagePath, mountDir string, index int) error {
	cmd := exec.Command("wimlib-imagex", "mountrw", imagePath, strconv.Itoa(index), mountDir)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("wimlib mount failed: %w (output: %s)", err, string(output))
	}
	return nil
}

// Commit saves the changes and releases the mount.
func (m *WimlibMounter) Commit(mountDir string) error {
	cmd := exec.Command("wimlib-imagex", "unmount", mountDir, "--commit")
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("wimlib unmount --commit failed: %w (output: %s)", err, string(output))
	}
	return nil
}

// Discard drops the changes and releases the mount.
func (m *WimlibMounter) Discard(mountDir string) error {
	cmd := exec.Command("wimlib-imagex", "unmount", mountDir)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("wimlib unmount failed: %w (output: %s)", err, string(output))
	}
	return nil
}
