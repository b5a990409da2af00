//go:build !windows

package main

import (
	"errors"
	"os"
)

// checkElevation verifies the process runs as root; mounting images
// needs it.
func checkElevation() error {
	if os.Geteuid() != 0 {
		return errors.New("run this tool as root")
	}
	return nil
}
