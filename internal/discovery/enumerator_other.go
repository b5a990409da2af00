//go:build !linux && !windows

package discovery

import "errors"

// NewEnumerator has no implementation on this platform; pass the image
// path explicitly instead.
func NewEnumerator() (Enumerator, error) {
	return nil, errors.New("removable media discovery is not supported on this platform")
}
