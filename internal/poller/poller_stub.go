//go:build !linux && !darwin && !freebsd

package poller

import "errors"

// New reports that no readiness facility is wired for this platform.
func New() (Poller, error) {
	return nil, errors.New("poller: unsupported platform")
}
