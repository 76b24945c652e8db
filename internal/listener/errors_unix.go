//go:build unix

package listener

import (
	"errors"
	"net"

	"golang.org/x/sys/unix"
)

// isTemporary reports accept errors that clear on their own, such as fd
// exhaustion or a peer resetting before accept returned.
func isTemporary(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, unix.EMFILE) ||
		errors.Is(err, unix.ENFILE) ||
		errors.Is(err, unix.ENOBUFS) ||
		errors.Is(err, unix.ENOMEM) ||
		errors.Is(err, unix.ECONNABORTED) ||
		errors.Is(err, unix.EINTR)
}
