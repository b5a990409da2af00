// Package helper emits the connectivity script that runs inside the
// customized image at boot. The script content is fixed; this tool never
// executes it, it only stages it for the preboot environment.
package helper

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ConnectRetries bounds the helper's post-connect reachability poll.
const ConnectRetries = 30

// ProfileFileName is the profile artifact name the helper looks for in
// its candidate locations.
const ProfileFileName = "wifi-profile.xml"

// Script is the helper program, written verbatim into the image.
//
// Its flow: bail out if the network is already up; find a staged profile
// (installed-OS volume first, then the boot ramdisk); run hardware and
// unattend processing; connect using the profile, falling back to a
// manual netsh sequence with a bounded reachability poll, and finally to
// the module's unattended initial-connection routine.
const Script = `# wifi-connect.ps1
# Staged by osdwifi. Establishes a wireless connection before the
# deployment wizard starts.

$profileFile = 'wifi-profile.xml'

function Test-Internet {
    Test-Connection -ComputerName 8.8.8.8 -Count 1 -Quiet -ErrorAction SilentlyContinue
}

if (Test-Internet) {
    exit 0
}

# Look for a staged profile: installed OS volume first, then the boot
# ramdisk's own System32.
$profilePath = $null
$candidates = @()
$osVolume = Get-Volume -FileSystemLabel 'OSDisk' -ErrorAction SilentlyContinue
if ($osVolume) {
    $candidates += "$($osVolume.DriveLetter):\$profileFile"
}
$candidates += "$env:SystemRoot\System32\$profileFile"
foreach ($candidate in $candidates) {
    if (Test-Path -Path $candidate) {
        $profilePath = $candidate
        break
    }
}

# Hardware detection, plug and play, unattend processing.
Start-Process -Wait -FilePath wpeinit

if ($profilePath) {
    try {
        Start-WinREWiFibyXMLProfile -WifiProfilePath $profilePath -ErrorAction Stop
    } catch {
        # Manual fallback: import the profile and connect by name.
        Start-Service -Name WlanSvc -ErrorAction SilentlyContinue
        $name = ([xml](Get-Content -Path $profilePath)).WLANProfile.name
        netsh wlan delete profile name="$name" | Out-Null
        netsh wlan add profile filename="$profilePath" | Out-Null
        $result = netsh wlan connect name="$name"
        if ($result -match 'completed successfully') {
            for ($i = 0; $i -lt 30; $i++) {
                if (Test-Internet) {
                    break
                }
                Start-Sleep -Seconds 2
            }
        } else {
            Start-WinREWiFi
        }
    }
} else {
    Start-WinREWiFi
}
`

// Write stages the helper at relPath under the mount root, verbatim,
// with CRLF line endings.
func Write(mountRoot, relPath string) error {
	target := filepath.Join(mountRoot, filepath.FromSlash(relPath))

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create helper directory: %w", err)
	}

	content := strings.ReplaceAll(Script, "\n", "\r\n")
	if err := os.WriteFile(target, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write connectivity helper: %w", err)
	}

	return nil
}

// Invocation returns the launcher line that starts the helper inside the
// preboot environment.
func Invocation(relPath string) string {
	winPath := strings.ReplaceAll(filepath.ToSlash(relPath), "/", `\`)
	return fmt.Sprintf(`%%SYSTEMDRIVE%%\Windows\System32\WindowsPowerShell\v1.0\powershell.exe, -NoProfile -ExecutionPolicy Bypass -File %%SYSTEMDRIVE%%\%s`, winPath)
}
