package wimage

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// State tracks a session's lifecycle.
type State int

const (
	StateOpen State = iota
	StateCommitted
	StateDiscarded
)

// Outcome selects how a session is resolved.
type Outcome int

const (
	OutcomeCommit Outcome = iota
	OutcomeDiscard
)

// Session is one open mount of an image onto a mount root. It owns the
// writable view of the mount root until resolved. A session is never
// left open: every Open is paired with exactly one Resolve, and an
// ephemeral mount root is removed afterward no matter how resolution
// went.
type Session struct {
	mounter   Mounter
	image     ImageHandle
	root      string
	ephemeral bool
	state     State
}

// Open mounts the image and returns the session. With an empty
// mountRoot, a uniquely named directory is created under the system
// temp location and the session is marked ephemeral; that directory is
// removed again when the mount cannot be attached.
func Open(m Mounter, img ImageHandle, mountRoot string, index int) (*Session, error) {
	ephemeral := false
	if mountRoot == "" {
		dir, err := os.MkdirTemp("", "osdwifi-mount-*")
		if err != nil {
			return nil, fmt.Errorf("failed to create temp mount directory: %w", err)
		}
		mountRoot = dir
		ephemeral = true
	}

	if err := m.Mount(img.Path, mountRoot, index); err != nil {
		if ephemeral {
			if rerr := os.RemoveAll(mountRoot); rerr != nil {
				logrus.Warnf("failed to remove temp mount directory %s: %v", mountRoot, rerr)
			}
		}
		return nil, &MountError{ImagePath: img.Path, Err: err}
	}

	return &Session{
		mounter:   m,
		image:     img,
		root:      mountRoot,
		ephemeral: ephemeral,
		state:     StateOpen,
	}, nil
}

// Root returns the mount root path.
func (s *Session) Root() string {
	return s.root
}

// Image returns the mounted image's handle.
func (s *Session) Image() ImageHandle {
	return s.image
}

// State returns the session's lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Resolve commits or discards the session. The ephemeral mount root is
// removed in every case, even when commit or discard itself fails, and
// a removal failure never masks the resolution error.
func (s *Session) Resolve(outcome Outcome) error {
	if s.state != StateOpen {
		return ErrSessionClosed
	}

	defer func() {
		if !s.ephemeral {
			return
		}
		if err := os.RemoveAll(s.root); err != nil {
			logrus.Warnf("failed to remove temp mount directory %s: %v", s.root, err)
		}
	}()

	switch outcome {
	case OutcomeCommit:
		s.state = StateCommitted
		if err := s.mounter.Commit(s.root); err != nil {
			return &ResolutionError{Op: "commit", Err: err}
		}
	default:
		s.state = StateDiscarded
		if err := s.mounter.Discard(s.root); err != nil {
			return &ResolutionError{Op: "discard", Err: err}
		}
	}

	return nil
}
