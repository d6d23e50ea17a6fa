package transport

import (
	"net"
	"runtime"
	"syscall"

	"golang.org/x/sys/unix"
)

// listenerCount is how many SO_REUSEPORT sockets each transport binds; the
// kernel spreads inbound traffic across them.
func listenerCount() int {
	return runtime.NumCPU()
}

// reusePortConfig returns a ListenConfig with SO_REUSEPORT set, so multiple
// listeners can bind the same address.
func reusePortConfig() net.ListenConfig {
	return net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var ctrlErr error
			if err := c.Control(func(fd uintptr) {
				ctrlErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
			}); err != nil {
				return err
			}
			return ctrlErr
		},
	}
}
