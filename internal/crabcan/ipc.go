package crabcan

import (
	"golang.org/x/sys/unix"
)

// newSocketPair creates an AF_UNIX/SOCK_SEQPACKET pair with close-on-exec,
// the length-1 byte boolean synchronization channel the parent/child
// handshake rides on (spec.md S4.2). SOCK_SEQPACKET preserves datagram
// boundaries, so no framing beyond the single byte is needed.
func newSocketPair() (parentFd, childFd int, err *CrabcanError) {
	fds, sysErr := unix.Socketpair(unix.AF_UNIX, unix.SOCK_SEQPACKET|unix.SOCK_CLOEXEC, 0)
	if sysErr != nil {
		return 0, 0, socketError(0, sysErr)
	}
	return fds[0], fds[1], nil
}

// sendBool writes a single 0/1 byte to fd.
func sendBool(fd int, b bool) *CrabcanError {
	data := []byte{0}
	if b {
		data[0] = 1
	}
	if _, err := unix.Write(fd, data); err != nil {
		return socketError(1, err)
	}
	return nil
}

// recvBool blocks until one byte arrives on fd and reports whether it was 1.
func recvBool(fd int) (bool, *CrabcanError) {
	data := make([]byte, 1)
	n, err := unix.Read(fd, data)
	if err != nil {
		return false, socketError(2, err)
	}
	if n == 0 {
		return false, socketError(2, unix.EIO)
	}
	return data[0] == 1, nil
}

// closeFd closes a raw file descriptor, wrapping the failure as a
// SocketError(3) -- used by cleanup, which treats both ends of the pair the
// same way.
func closeFd(fd int) *CrabcanError {
	if err := unix.Close(fd); err != nil {
		return socketError(3, err)
	}
	return nil
}
