package wimage

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Mounter is the mounting facility boundary. Implementations attach an
// image to a directory for writable access and later resolve the mount
// by committing or discarding all changes. Exactly one of Commit or
// Discard is called per mount.
type Mounter interface {
	// Mount attaches the image at index onto mountDir for read-write
	// access.
	Mount(imagePath, mountDir string, index int) error

	// Commit saves all changes made under mountDir and releases the
	// mount.
	Commit(mountDir string) error

	// Discard drops all changes made under mountDir and releases the
	// mount.
	Discard(mountDir string) error
}

// MountError reports that the mounting facility failed to attach an
// image.
type MountError struct {
	ImagePath string
	Err       error
}

func (e *MountError) Error() string {
	return fmt.Sprintf("failed to mount image %s: %v", e.ImagePath, e.Err)
}

func (e *MountError) Unwrap() error {
	return e.Err
}

// ResolutionError reports that commit or discard itself failed. The
// session is still considered resolved; the mount state is left to the
// facility's own recovery tooling.
type ResolutionError struct {
	Op  string // "commit" or "discard"
	Err error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("failed to %s mount session: %v", e.Op, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// NewMounter selects a Mounter for the image: raw FAT images are
// handled in-process through go-diskfs, WIM-family images through the
// platform's image-servicing tool.
func NewMounter(img ImageHandle) (Mounter, error) {
	ext := strings.ToLower(filepath.Ext(img.Path))
	if ext == ".img" {
		return NewRawMounter(), nil
	}
	return newWimMounter()
}
