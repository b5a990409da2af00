package wimage

import (
	"fmt"
	"path"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/ztrhgf/OSD-WITH-WIFI/internal/config"
	"github.com/ztrhgf/OSD-WITH-WIFI/internal/helper"
	"github.com/ztrhgf/OSD-WITH-WIFI/internal/patch"
	"github.com/ztrhgf/OSD-WITH-WIFI/internal/prompt"
	"github.com/ztrhgf/OSD-WITH-WIFI/internal/wifi"
)

// CustomizeOptions carries everything one customization run needs
// beyond the image itself.
type CustomizeOptions struct {
	// Wifi selects the profile source (credential, artifact, or none).
	Wifi wifi.Input

	// Targets are the in-image paths being edited.
	Targets config.TargetsConfig

	// Decider answers the workflow's confirmation prompts. A nil
	// Decider declines everything, which keeps headless runs safe.
	Decider prompt.Decider

	// Pause stops for manual inspection of the mount root before the
	// session is resolved.
	Pause bool
}

// Run executes the whole transactional workflow against an image:
// mount, customize, resolve. Any error after a successful mount routes
// through discard before being returned; the original error is never
// masked by a cleanup failure.
func Run(m Mounter, img ImageHandle, mountRoot string, index int, opts CustomizeOptions) error {
	session, err := Open(m, img, mountRoot, index)
	if err != nil {
		return err
	}
	logrus.Infof("mounted %s (index %d) at %s", img.Path, index, session.Root())

	if err := customize(session, opts); err != nil {
		logrus.Warnf("customization failed, discarding all changes: %v", err)
		if derr := session.Resolve(OutcomeDiscard); derr != nil {
			logrus.Warnf("discard after failure also failed: %v", derr)
		}
		return err
	}

	if opts.Pause {
		question := fmt.Sprintf("image is mounted at %s for inspection; commit the changes?", session.Root())
		if opts.Decider == nil || !opts.Decider.Confirm(question) {
			if derr := session.Resolve(OutcomeDiscard); derr != nil {
				logrus.Warnf("discard after abort also failed: %v", derr)
			}
			return ErrAborted
		}
	}

	if err := session.Resolve(OutcomeCommit); err != nil {
		return err
	}
	logrus.Infof("changes committed to %s", img.Path)
	return nil
}

// customize applies the ordered edits inside an open session: profile
// artifact, connectivity helper, launcher injection, module comment-out,
// startup script blanket comment.
func customize(s *Session, opts CustomizeOptions) error {
	targets := opts.Targets

	if err := wifi.Stage(s.Root(), opts.Wifi, targets.ProfilePath); err != nil {
		return err
	}

	if err := helper.Write(s.Root(), targets.HelperPath); err != nil {
		return err
	}
	logrus.Infof("staged connectivity helper at %s", targets.HelperPath)

	launcherSpec := patch.LauncherSpec(
		helper.Invocation(targets.HelperPath),
		path.Base(targets.HelperPath),
	)
	applied, err := patch.Apply(hostPath(s.Root(), targets.LauncherPath), launcherSpec)
	if err != nil {
		return err
	}
	if !applied {
		logrus.Infof("launcher already invokes the helper, %s left unchanged", targets.LauncherPath)
	}

	if err := commentOutModule(s.Root(), targets.ModuleGlob, opts.Decider); err != nil {
		return err
	}

	applied, err = patch.Apply(hostPath(s.Root(), targets.StartupScriptPath), patch.BlanketCommentSpec())
	if err != nil {
		return err
	}
	if applied {
		logrus.Infof("disabled startup script %s", targets.StartupScriptPath)
	}

	return nil
}

// commentOutModule patches the third-party module file. Anything other
// than exactly one target statement is an anomaly the operator must
// acknowledge before the run may continue; declining aborts the run
// through the discard path.
func commentOutModule(root, moduleGlob string, decider prompt.Decider) error {
	modulePath, err := patch.ResolveOne(root, moduleGlob)
	if err != nil {
		return err
	}

	result, err := patch.ApplyCommentOut(modulePath)
	if err != nil {
		return err
	}

	if anomaly := result.Anomaly(modulePath); anomaly != nil {
		logrus.Warn(anomaly.Error())
		if decider == nil || !decider.Confirm(anomaly.Question()) {
			return anomaly
		}
		logrus.Warn("operator chose to continue despite the patch anomaly")
	}

	return nil
}

func hostPath(root, rel string) string {
	return filepath.Join(root, filepath.FromSlash(rel))
}
