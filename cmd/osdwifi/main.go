// Command osdwifi customizes an offline boot image so the preboot
// environment joins a wireless network without operator interaction.
// It mounts the image, stages a WLAN profile and a connectivity helper,
// patches the launcher and startup files, and commits the result --
// or discards everything if any step fails.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ztrhgf/OSD-WITH-WIFI/internal/config"
	"github.com/ztrhgf/OSD-WITH-WIFI/internal/discovery"
	"github.com/ztrhgf/OSD-WITH-WIFI/internal/prompt"
	"github.com/ztrhgf/OSD-WITH-WIFI/internal/wifi"
	"github.com/ztrhgf/OSD-WITH-WIFI/internal/wimage"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to a JSON config file overriding the defaults")
		imagePath   = flag.String("image", "", "boot image to customize; discovered on removable media when empty")
		mountDir    = flag.String("mount-dir", "", "existing empty directory to mount onto; a temp directory is used when empty")
		index       = flag.Int("index", 0, "image index inside the container file (default from config)")
		ssid        = flag.String("ssid", "", "wifi network name; requires -password")
		password    = flag.String("password", "", "wifi password; requires -ssid")
		profilePath = flag.String("profile", "", "pre-exported wifi profile XML; mutually exclusive with -ssid/-password")
		pause       = flag.Bool("pause", false, "pause for manual inspection of the mount before committing")
		noConfirm   = flag.Bool("no-confirm", false, "answer yes to all confirmation prompts")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	if err := checkElevation(); err != nil {
		logrus.Fatalf("Elevated privileges are required: %v", err)
	}

	input, err := buildWifiInput(*ssid, *password, *profilePath)
	if err != nil {
		logrus.Fatalf("Invalid wifi input: %v", err)
	}

	if *mountDir != "" {
		if err := checkMountDir(*mountDir); err != nil {
			logrus.Fatalf("Invalid mount directory: %v", err)
		}
	}

	var decider prompt.Decider = prompt.NewStdinDecider()
	if *noConfirm {
		decider = prompt.StaticDecider(true)
	}

	img, err := resolveImage(*imagePath, cfg, decider)
	if err != nil {
		logrus.Fatalf("Failed to resolve image: %v", err)
	}

	mounter, err := wimage.NewMounter(img)
	if err != nil {
		logrus.Fatalf("No usable mounting facility: %v", err)
	}

	imageIndex := *index
	if imageIndex == 0 {
		imageIndex = cfg.Mount.Index
	}

	opts := wimage.CustomizeOptions{
		Wifi:    input,
		Targets: cfg.Targets,
		Decider: decider,
		Pause:   *pause,
	}
	if err := wimage.Run(mounter, img, *mountDir, imageIndex, opts); err != nil {
		logrus.Fatalf("Customization failed: %v", err)
	}
}

// buildWifiInput assembles and validates the wifi input before anything
// is mounted. A supplied profile artifact is validated here, at the
// boundary; the synthesizer later copies it verbatim.
func buildWifiInput(ssid, password, profilePath string) (wifi.Input, error) {
	var input wifi.Input
	if ssid != "" || password != "" {
		input.Credential = &wifi.Credential{SSID: ssid, Password: password}
	}
	input.ProfilePath = profilePath

	if err := input.Validate(); err != nil {
		return wifi.Input{}, err
	}

	if profilePath != "" {
		name, err := wifi.ValidateProfileFile(profilePath)
		if err != nil {
			return wifi.Input{}, err
		}
		logrus.Infof("using supplied wifi profile %q", name)
	}

	return input, nil
}

// checkMountDir enforces the contract for an operator-supplied mount
// root: it must be an existing empty directory.
func checkMountDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	if len(entries) != 0 {
		return fmt.Errorf("%s is not empty", dir)
	}
	return nil
}

// resolveImage validates an explicit image path, or runs the discovery
// loop against removable media until a unique candidate appears. The
// loop is cancelable only by interrupting the process.
func resolveImage(imagePath string, cfg *config.Config, decider prompt.Decider) (wimage.ImageHandle, error) {
	if imagePath != "" {
		return wimage.ResolveImage(imagePath)
	}

	enum, err := discovery.NewEnumerator()
	if err != nil {
		return wimage.ImageHandle{}, err
	}
	if closer, ok := enum.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logrus.Infof("no image given; watching removable media for %s", cfg.Discovery.ProbePath)
	img, err := discovery.Run(ctx, enum, discovery.Options{
		ProbePath: cfg.Discovery.ProbePath,
		Interval:  time.Duration(cfg.Discovery.PollIntervalSeconds) * time.Second,
		Confirm:   cfg.Discovery.Confirm,
		Decider:   decider,
	})
	if errors.Is(err, context.Canceled) {
		return wimage.ImageHandle{}, errors.New("discovery interrupted")
	}
	return img, err
}
