package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the application configuration
type Config struct {
	// Discovery settings for locating the image on removable media
	Discovery DiscoveryConfig `json:"discovery"`

	// Mount settings
	Mount MountConfig `json:"mount"`

	// Targets are the fixed paths edited inside the mounted image
	Targets TargetsConfig `json:"targets"`
}

// DiscoveryConfig contains removable-media discovery settings
type DiscoveryConfig struct {
	// Relative path probed on each removable volume
	ProbePath string `json:"probe_path"`

	// Seconds between discovery rounds
	PollIntervalSeconds int `json:"poll_interval_seconds"`

	// Ask before settling on a discovered image
	Confirm bool `json:"confirm"`
}

// MountConfig contains image mount settings
type MountConfig struct {
	// Image index within the container file (1-based for WIM images)
	Index int `json:"index"`
}

// TargetsConfig contains the in-image paths the customization touches.
// All paths are relative to the mount root, slash-separated.
type TargetsConfig struct {
	// Launcher configuration that receives the helper invocation
	LauncherPath string `json:"launcher_path"`

	// Startup script disabled by the blanket comment patch
	StartupScriptPath string `json:"startup_script_path"`

	// Staging path for the wifi profile artifact
	ProfilePath string `json:"profile_path"`

	// Destination of the connectivity helper
	HelperPath string `json:"helper_path"`

	// Single-level wildcard locating the third-party module file;
	// must resolve to exactly one file
	ModuleGlob string `json:"module_glob"`
}

// Default returns the stock configuration for standard preboot images.
func Default() *Config {
	return &Config{
		Discovery: DiscoveryConfig{
			ProbePath:           "sources/boot.wim",
			PollIntervalSeconds: 5,
			Confirm:             true,
		},
		Mount: MountConfig{
			Index: 1,
		},
		Targets: TargetsConfig{
			LauncherPath:      "Windows/System32/winpeshl.ini",
			StartupScriptPath: "Windows/System32/startnet.cmd",
			ProfilePath:       "Windows/System32/wifi-profile.xml",
			HelperPath:        "Windows/System32/wifi-connect.ps1",
			ModuleGlob:        "Program Files/WindowsPowerShell/Modules/OSD/*/OSD.psm1",
		},
	}
}

// Load loads configuration from a JSON file
// If the file doesn't exist, it returns the default configuration
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults so a partial file only overrides what it names
	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// Save writes the configuration to a JSON file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
