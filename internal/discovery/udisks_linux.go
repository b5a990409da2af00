//go:build linux

package discovery

import (
	"bytes"
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	udisksService    = "org.freedesktop.UDisks2"
	udisksPath       = "/org/freedesktop/UDisks2"
	driveInterface   = "org.freedesktop.UDisks2.Drive"
	blockInterface   = "org.freedesktop.UDisks2.Block"
	fsInterface      = "org.freedesktop.UDisks2.Filesystem"
	objectManagerGet = "org.freedesktop.DBus.ObjectManager.GetManagedObjects"
)

// UDisksEnumerator lists mounted removable volumes through the UDisks2
// DBus API.
type UDisksEnumerator struct {
	conn *dbus.Conn
}

// NewUDisksEnumerator connects to the system bus.
func NewUDisksEnumerator() (*UDisksEnumerator, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system bus: %w", err)
	}
	return &UDisksEnumerator{conn: conn}, nil
}

// managedObjects is the ObjectManager result shape: object path ->
// interface name -> property name -> value.
type managedObjects map[dbus.ObjectPath]map[string]map[string]dbus.Variant

// Removable returns the mount roots of filesystems that sit on
// removable drives and are currently mounted.
func (e *UDisksEnumerator) Removable() ([]Volume, error) {
	udisks := e.conn.Object(udisksService, udisksPath)

	var objects managedObjects
	if err := udisks.Call(objectManagerGet, 0).Store(&objects); err != nil {
		return nil, fmt.Errorf("failed to query UDisks2: %w", err)
	}

	// First pass: which drives are removable.
	removableDrives := make(map[dbus.ObjectPath]bool)
	for objPath, ifaces := range objects {
		drive, ok := ifaces[driveInterface]
		if !ok {
			continue
		}
		if removable, ok := drive["Removable"].Value().(bool); ok && removable {
			removableDrives[objPath] = true
		}
	}

	// Second pass: mounted filesystems whose block device belongs to a
	// removable drive.
	var volumes []Volume
	for _, ifaces := range objects {
		block, hasBlock := ifaces[blockInterface]
		fs, hasFS := ifaces[fsInterface]
		if !hasBlock || !hasFS {
			continue
		}

		drivePath, ok := block["Drive"].Value().(dbus.ObjectPath)
		if !ok || !removableDrives[drivePath] {
			continue
		}

		mountPoints, ok := fs["MountPoints"].Value().([][]byte)
		if !ok || len(mountPoints) == 0 {
			continue
		}

		label, _ := block["IdLabel"].Value().(string)
		volumes = append(volumes, Volume{
			Root:  string(bytes.TrimRight(mountPoints[0], "\x00")),
			Label: label,
		})
	}

	return volumes, nil
}

// Close releases the bus connection.
func (e *UDisksEnumerator) Close() error {
	if e.conn != nil {
		return e.conn.Close()
	}
	return nil
}

// NewEnumerator returns the platform enumerator.
func NewEnumerator() (Enumerator, error) {
	return NewUDisksEnumerator()
}
