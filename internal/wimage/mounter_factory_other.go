//go:build !windows

package wimage

// newWimMounter returns the wimlib mounter on platforms without DISM.
func newWimMounter() (Mounter, error) {
	return NewWimlibMounter()
}
