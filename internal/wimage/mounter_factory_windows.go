//go:build windows

package wimage

// newWimMounter returns the DISM mounter on Windows.
func newWimMounter() (Mounter, error) {
	return NewDismMounter(), nil
}
