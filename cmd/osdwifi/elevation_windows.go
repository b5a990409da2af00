//go:build windows

package main

import (
	"errors"

	"golang.org/x/sys/windows"
)

// checkElevation verifies the process token is elevated; DISM refuses
// to mount images otherwise.
func checkElevation() error {
	if !windows.GetCurrentProcessToken().IsElevated() {
		return errors.New("run this tool from an elevated prompt")
	}
	return nil
}
