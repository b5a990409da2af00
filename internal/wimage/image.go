// Package wimage owns the transactional customization workflow: image
// handles, the mounting facility boundary, mount sessions and the
// ordered customization steps applied inside a session.
package wimage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrNotAFile      = errors.New("image path is not a regular file")
	ErrBadExtension  = errors.New("image file does not have a supported extension")
	ErrSessionClosed = errors.New("mount session already resolved")
	ErrAborted       = errors.New("aborted by operator")
)

// imageExtensions are the container formats a Mounter can attach.
// The WIM family goes through DISM or wimlib; raw FAT images go through
// the diskfs-backed mounter.
var imageExtensions = map[string]bool{
	".wim": true,
	".esd": true,
	".swm": true,
	".img": true,
}

// ImageHandle identifies a validated, mountable image file. Immutable
// once resolved.
type ImageHandle struct {
	Path string
}

// ResolveImage validates that path names an existing image file with a
// supported extension and returns its handle.
func ResolveImage(path string) (ImageHandle, error) {
	info, err := os.Stat(path)
	if err != nil {
		return ImageHandle{}, fmt.Errorf("image file %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return ImageHandle{}, fmt.Errorf("%s: %w", path, ErrNotAFile)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !imageExtensions[ext] {
		return ImageHandle{}, fmt.Errorf("%s: %w", path, ErrBadExtension)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return ImageHandle{}, fmt.Errorf("failed to resolve image path: %w", err)
	}

	return ImageHandle{Path: abs}, nil
}
