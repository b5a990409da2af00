package wimage

import (
	"errors"
	"os"
	"testing"
)

// fakeMounter records calls and can fail on demand. Its Mount can also
// populate the mount root with fixture files.
type fakeMounter struct {
	mountErr   error
	commitErr  error
	discardErr error

	mounts   int
	commits  int
	discards int

	populate func(dir string) error
}

func (m *fakeMounter) Mount(imagePath, mountDir string, index int) error {
	m.mounts++
	if m.mountErr != nil {
		return m.mountErr
	}
	if m.populate != nil {
		return m.populate(mountDir)
	}
	return nil
}

func (m *fakeMounter) Commit(mountDir string) error {
	m.commits++
	return m.commitErr
}

func (m *fakeMounter) Discard(mountDir string) error {
	m.discards++
	return m.discardErr
}

func testImage(t *testing.T) ImageHandle {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "boot-*.wim")
	if err != nil {
		t.Fatalf("Failed to create fixture image: %v", err)
	}
	f.Close()

	img, err := ResolveImage(f.Name())
	if err != nil {
		t.Fatalf("Failed to resolve fixture image: %v", err)
	}
	return img
}

// TestOpenEphemeralCreatesMountRoot verifies the temp mount root exists
// while the session is open and is gone after commit.
func TestOpenEphemeralCreatesMountRoot(t *testing.T) {
	m := &fakeMounter{}

	session, err := Open(m, testImage(t), "", 1)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	root := session.Root()

	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		t.Fatalf("Ephemeral mount root should exist while open: %v", err)
	}

	if err := session.Resolve(OutcomeCommit); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if _, err := os.Stat(root); !os.IsNotExist(err) {
		t.Error("Ephemeral mount root should be removed after commit")
	}
	if m.commits != 1 || m.discards != 0 {
		t.Errorf("Expected 1 commit and 0 discards, got %d/%d", m.commits, m.discards)
	}
}

// TestResolveDiscardRemovesEphemeralRoot is the failure-path variant.
func TestResolveDiscardRemovesEphemeralRoot(t *testing.T) {
	m := &fakeMounter{}

	session, err := Open(m, testImage(t), "", 1)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	root := session.Root()

	if err := session.Resolve(OutcomeDiscard); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if _, err := os.Stat(root); !os.IsNotExist(err) {
		t.Error("Ephemeral mount root should be removed after discard")
	}
	if m.commits != 0 || m.discards != 1 {
		t.Errorf("Expected 0 commits and 1 discard, got %d/%d", m.commits, m.discards)
	}
}

// TestOpenMountFailure verifies a failed mount returns a MountError and
// leaves no temp directory behind.
func TestOpenMountFailure(t *testing.T) {
	m := &fakeMounter{mountErr: errors.New("device busy")}

	_, err := Open(m, testImage(t), "", 1)
	var mountErr *MountError
	if !errors.As(err, &mountErr) {
		t.Fatalf("Expected a MountError, got %v", err)
	}
}

// TestResolveTwice rejects a second resolution.
func TestResolveTwice(t *testing.T) {
	m := &fakeMounter{}

	session, err := Open(m, testImage(t), "", 1)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if err := session.Resolve(OutcomeCommit); err != nil {
		t.Fatalf("First resolve failed: %v", err)
	}
	if err := session.Resolve(OutcomeDiscard); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Expected ErrSessionClosed, got %v", err)
	}
	if m.commits != 1 || m.discards != 0 {
		t.Errorf("Second resolve must not reach the mounter: %d/%d", m.commits, m.discards)
	}
}

// TestResolveFailureStillCleansUp verifies a failing commit surfaces a
// ResolutionError and the ephemeral root is removed anyway.
func TestResolveFailureStillCleansUp(t *testing.T) {
	m := &fakeMounter{commitErr: errors.New("image file locked")}

	session, err := Open(m, testImage(t), "", 1)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	root := session.Root()

	err = session.Resolve(OutcomeCommit)
	var resErr *ResolutionError
	if !errors.As(err, &resErr) || resErr.Op != "commit" {
		t.Fatalf("Expected a commit ResolutionError, got %v", err)
	}

	if _, err := os.Stat(root); !os.IsNotExist(err) {
		t.Error("Ephemeral mount root should be removed even when commit fails")
	}
}

// TestOpenSuppliedMountRoot verifies a caller-supplied root is used
// as-is and survives resolution.
func TestOpenSuppliedMountRoot(t *testing.T) {
	m := &fakeMounter{}
	root := t.TempDir()

	session, err := Open(m, testImage(t), root, 1)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if session.Root() != root {
		t.Errorf("Expected root %s, got %s", root, session.Root())
	}

	if err := session.Resolve(OutcomeDiscard); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if _, err := os.Stat(root); err != nil {
		t.Error("A supplied mount root must not be removed")
	}
}

// TestResolveImageValidation covers the extension and existence checks.
func TestResolveImageValidation(t *testing.T) {
	if _, err := ResolveImage("/nonexistent/boot.wim"); err == nil {
		t.Error("Expected an error for a missing file")
	}

	f, err := os.CreateTemp(t.TempDir(), "notes-*.txt")
	if err != nil {
		t.Fatalf("Failed to create fixture: %v", err)
	}
	f.Close()
	if _, err := ResolveImage(f.Name()); !errors.Is(err, ErrBadExtension) {
		t.Errorf("Expected ErrBadExtension, got %v", err)
	}
}
