//go:build !unix

package listener

import (
	"errors"
	"net"
)

func isTemporary(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
