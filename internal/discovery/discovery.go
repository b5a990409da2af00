// Package discovery locates the target image on removable media when no
// explicit image path is given. The loop warns and retries forever; it
// either settles on exactly one candidate or runs until the operator
// intervenes or the process is terminated.
package discovery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ztrhgf/OSD-WITH-WIFI/internal/prompt"
	"github.com/ztrhgf/OSD-WITH-WIFI/internal/wimage"
)

// Volume is one removable-volume root as reported by the platform
// enumerator.
type Volume struct {
	// Root is the volume's mount point (drive root on Windows).
	Root string

	// Label is the volume label, possibly empty. Only used to make
	// warnings actionable.
	Label string
}

func (v Volume) String() string {
	if v.Label == "" {
		return v.Root
	}
	return fmt.Sprintf("%s (%s)", v.Root, v.Label)
}

// Enumerator produces the current set of removable-volume roots. It is
// polled once per discovery round, never subscribed.
type Enumerator interface {
	Removable() ([]Volume, error)
}

// Options tunes one discovery run.
type Options struct {
	// ProbePath is the fixed relative path checked on each volume.
	ProbePath string

	// Interval is the wait between rounds.
	Interval time.Duration

	// Confirm asks the operator before settling on a candidate.
	Confirm bool

	// Decider answers the confirmation; only consulted when Confirm
	// is set.
	Decider prompt.Decider
}

type verdict int

const (
	verdictNoMedia verdict = iota
	verdictNoImage
	verdictAmbiguous
	verdictFound
)

// classify maps one round of enumerated volumes to a discovery verdict.
// Pure: no prompting, no waiting, no shared state.
func classify(volumes []Volume, probePath string) (string, []Volume, verdict) {
	if len(volumes) == 0 {
		return "", nil, verdictNoMedia
	}

	var qualifying []Volume
	var imagePath string
	for _, vol := range volumes {
		candidate := filepath.Join(vol.Root, filepath.FromSlash(probePath))
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			qualifying = append(qualifying, vol)
			imagePath = candidate
		}
	}

	switch len(qualifying) {
	case 0:
		return "", nil, verdictNoImage
	case 1:
		return imagePath, qualifying, verdictFound
	default:
		return "", qualifying, verdictAmbiguous
	}
}

// Run polls for removable volumes until exactly one carries the probe
// path, then returns its image handle. Every other outcome is warned
// about and retried after the interval. The loop ends only through
// context cancellation or an operator decline at the confirmation.
func Run(ctx context.Context, enum Enumerator, opts Options) (wimage.ImageHandle, error) {
	for {
		volumes, err := enum.Removable()
		if err != nil {
			logrus.Warnf("failed to enumerate removable volumes: %v", err)
			volumes = nil
		}

		imagePath, qualifying, v := classify(volumes, opts.ProbePath)
		switch v {
		case verdictFound:
			vol := qualifying[0]
			logrus.Infof("found boot image on %s", vol)
			if opts.Confirm && opts.Decider != nil {
				question := fmt.Sprintf("customize image %s?", imagePath)
				if !opts.Decider.Confirm(question) {
					return wimage.ImageHandle{}, wimage.ErrAborted
				}
			}
			return wimage.ResolveImage(imagePath)

		case verdictNoMedia:
			logrus.Warn("no removable media detected; connect the USB drive that carries the boot image")

		case verdictNoImage:
			logrus.Warnf("no removable volume carries %s; connect the correct drive", opts.ProbePath)

		case verdictAmbiguous:
			logrus.Warnf("multiple removable volumes carry %s (%s); disconnect the extras",
				opts.ProbePath, volumeList(qualifying))
		}

		select {
		case <-ctx.Done():
			return wimage.ImageHandle{}, ctx.Err()
		case <-time.After(opts.Interval):
		}
	}
}

func volumeList(volumes []Volume) string {
	names := make([]string, len(volumes))
	for i, vol := range volumes {
		names[i] = vol.String()
	}
	return strings.Join(names, ", ")
}
