package wimage

import (
	"fmt"
	"os/exec"
	"strconv"
)

// DismMounter drives the Windows image-servicing tool. DISM enforces
// exclusive access to the image for the lifetime of the mount.
type DismMounter struct{}

// NewDismMounter creates a DISM-backed mounter.
func NewDismMounter() *DismMounter {
	return &DismMounter{}
}

// Mount attaches the image read-write via DISM.
func (m *DismMounter) Mount(imagePath, mountDir string, index int) error {
	cmd := exec.Command("dism",
		"/Mount-Image",
		"/ImageFile:"+imagePath,
		"/Index:"+strconv.Itoa(index),
		"/MountDir:"+mountDir)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("dism mount failed: %w (output: %s)", err, string(output))
	}
	return nil
}

// Commit saves the changes and releases the mount.
func (m *DismMounter) Commit(mountDir string) error {
	return m.unmount(mountDir, "/Commit")
}

// Discard drops the changes and releases the mount.
func (m *DismMounter) Discard(mountDir string) error {
	return m.unmount(mountDir, "/Discard")
}

func (m *DismMounter) unmount(mountDir, mode string) error {
	cmd := exec.Command("dism",
		"/Unmount-Image",
		"/MountDir:"+mountDir,
		mode)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("dism unmount failed: %w (output: %s)", err, string(output))
	}
	return nil
}
