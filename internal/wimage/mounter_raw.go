package wimage

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sync"

	diskfs "github.com/diskfs/go-diskfs"
	"github.com/diskfs/go-diskfs/filesystem"
	"github.com/sirupsen/logrus"
)

// RawMounter serves raw FAT disk images in-process through go-diskfs,
// with no external servicing tool. Mount extracts the image's file tree
// into the mount directory; Commit writes the tree back into the image
// (including deletions); Discard leaves the image untouched. The image
// file is held open read-write-exclusive for the mount's lifetime.
type RawMounter struct {
	mu     sync.Mutex
	mounts map[string]filesystem.FileSystem
}

// NewRawMounter creates a diskfs-backed mounter for raw images.
func NewRawMounter() *RawMounter {
	return &RawMounter{
		mounts: make(map[string]filesystem.FileSystem),
	}
}

// Mount opens the image and extracts its contents into mountDir. Raw
// images carry a single whole-disk filesystem, so index is ignored.
func (m *RawMounter) Mount(imagePath, mountDir string, index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.mounts[mountDir]; ok {
		return fmt.Errorf("mount directory %s is already in use", mountDir)
	}

	disk, err := diskfs.Open(imagePath, diskfs.WithOpenMode(diskfs.ReadWriteExclusive))
	if err != nil {
		return fmt.Errorf("failed to open disk image: %w", err)
	}

	dfs, err := disk.GetFilesystem(0)
	if err != nil {
		return fmt.Errorf("failed to get filesystem: %w", err)
	}

	if err := extractTree(dfs, "/", mountDir); err != nil {
		return fmt.Errorf("failed to extract image contents: %w", err)
	}

	m.mounts[mountDir] = dfs
	return nil
}

// Commit writes the mount directory's tree back into the image and
// releases the mount.
func (m *RawMounter) Commit(mountDir string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	dfs, ok := m.mounts[mountDir]
	if !ok {
		return fmt.Errorf("no open mount at %s", mountDir)
	}
	delete(m.mounts, mountDir)

	staged, err := writeBack(dfs, mountDir)
	if err != nil {
		return err
	}
	return pruneRemoved(dfs, "/", staged)
}

// Discard releases the mount without touching the image.
func (m *RawMounter) Discard(mountDir string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.mounts[mountDir]; !ok {
		return fmt.Errorf("no open mount at %s", mountDir)
	}
	delete(m.mounts, mountDir)
	return nil
}

// extractTree copies the image's directory tree rooted at dir into dest.
func extractTree(dfs filesystem.FileSystem, dir, dest string) error {
	entries, err := dfs.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read image directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		srcPath := path.Join(dir, entry.Name())
		destPath := filepath.Join(dest, entry.Name())

		if entry.IsDir() {
			if err := os.MkdirAll(destPath, 0755); err != nil {
				return fmt.Errorf("failed to create %s: %w", destPath, err)
			}
			if err := extractTree(dfs, srcPath, destPath); err != nil {
				return err
			}
			continue
		}

		if err := extractFile(dfs, srcPath, destPath); err != nil {
			return err
		}
	}

	return nil
}

func extractFile(dfs filesystem.FileSystem, srcPath, destPath string) error {
	src, err := dfs.OpenFile(srcPath, os.O_RDONLY)
	if err != nil {
		return fmt.Errorf("failed to open image file %s: %w", srcPath, err)
	}
	defer src.Close()

	dest, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", destPath, err)
	}
	defer dest.Close()

	if _, err := io.Copy(dest, src); err != nil {
		return fmt.Errorf("failed to extract %s: %w", srcPath, err)
	}
	return nil
}

// writeBack copies every file under mountDir into the image and returns
// the set of staged in-image paths.
func writeBack(dfs filesystem.FileSystem, mountDir string) (map[string]bool, error) {
	staged := make(map[string]bool)

	err := filepath.WalkDir(mountDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(mountDir, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		imgPath := "/" + filepath.ToSlash(rel)
		if d.IsDir() {
			staged[imgPath] = true
			return ensureImageDir(dfs, imgPath)
		}

		staged[imgPath] = true
		return writeImageFile(dfs, p, imgPath)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to write changes back to image: %w", err)
	}

	return staged, nil
}

func writeImageFile(dfs filesystem.FileSystem, hostPath, imgPath string) error {
	src, err := os.Open(hostPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", hostPath, err)
	}
	defer src.Close()

	dest, err := dfs.OpenFile(imgPath, os.O_CREATE|os.O_RDWR|os.O_TRUNC)
	if err != nil {
		return fmt.Errorf("failed to create image file %s: %w", imgPath, err)
	}
	defer dest.Close()

	if _, err := io.Copy(dest, src); err != nil {
		return fmt.Errorf("failed to write image file %s: %w", imgPath, err)
	}
	return nil
}

// ensureImageDir creates a directory chain inside the image. Mkdir on an
// existing directory is not an error worth reporting.
func ensureImageDir(dfs filesystem.FileSystem, dirPath string) error {
	parts := splitImagePath(dirPath)
	currentPath := "/"

	for _, part := range parts {
		currentPath = path.Join(currentPath, part)
		if err := dfs.Mkdir(currentPath); err != nil && !os.IsExist(err) {
			return fmt.Errorf("failed to create image directory %s: %w", currentPath, err)
		}
	}

	return nil
}

func splitImagePath(p string) []string {
	var parts []string
	for {
		dir, file := path.Split(p)
		if file != "" {
			parts = append([]string{file}, parts...)
		}
		if dir == "" || dir == "/" {
			break
		}
		p = path.Clean(dir)
	}
	return parts
}

// pruneRemoved deletes image files that no longer exist under the mount
// directory, so deletions (a stale wifi profile, typically) survive the
// commit. Skipped with a warning when the filesystem cannot remove
// files.
func pruneRemoved(dfs filesystem.FileSystem, dir string, staged map[string]bool) error {
	remover, ok := dfs.(interface{ Remove(string) error })
	if !ok {
		logrus.Warn("image filesystem does not support deletion; removed files were not pruned")
		return nil
	}

	entries, err := dfs.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read image directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		entryPath := path.Join(dir, entry.Name())
		if entry.IsDir() {
			if err := pruneRemoved(dfs, entryPath, staged); err != nil {
				return err
			}
			continue
		}
		if staged[entryPath] {
			continue
		}
		if err := remover.Remove(entryPath); err != nil {
			return fmt.Errorf("failed to remove %s from image: %w", entryPath, err)
		}
	}

	return nil
}
