//go:build !unix

package listener

import "syscall"

func socketControl(network, address string, c syscall.RawConn) error {
	return nil
}
