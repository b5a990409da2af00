//go:build windows

package discovery

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// DriveEnumerator lists removable drive roots through the Win32 volume
// APIs.
type DriveEnumerator struct{}

// Removable returns every logical drive of removable type, with its
// volume label when one is set.
func (e *DriveEnumerator) Removable() ([]Volume, error) {
	mask, err := windows.GetLogicalDrives()
	if err != nil {
		return nil, fmt.Errorf("failed to list logical drives: %w", err)
	}

	var volumes []Volume
	for i := 0; i < 26; i++ {
		if mask&(1<<i) == 0 {
			continue
		}

		root := string(rune('A'+i)) + `:\`
		rootPtr, err := windows.UTF16PtrFromString(root)
		if err != nil {
			continue
		}
		if windows.GetDriveType(rootPtr) != windows.DRIVE_REMOVABLE {
			continue
		}

		volumes = append(volumes, Volume{
			Root:  root,
			Label: volumeLabel(rootPtr),
		})
	}

	return volumes, nil
}

func volumeLabel(rootPtr *uint16) string {
	buf := make([]uint16, windows.MAX_PATH+1)
	err := windows.GetVolumeInformation(rootPtr, &buf[0], uint32(len(buf)), nil, nil, nil, nil, 0)
	if err != nil {
		return ""
	}
	return windows.UTF16ToString(buf)
}

// NewEnumerator returns the platform enumerator.
func NewEnumerator() (Enumerator, error) {
	return &DriveEnumerator{}, nil
}
