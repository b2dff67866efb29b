package dialer

import (
	"context"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// StartConnect resolves host and begins a non-blocking connect to the
// first address. The returned descriptor is not usable until it turns
// writable and FinishConnect confirms the connect, except when the
// connect completed immediately, which FinishConnect also reports.
func (d *Dialer) StartConnect(ctx context.Context, host string, port int) (int, error) {
	ips, err := d.LookupIP(ctx, host)
	if err != nil {
		return -1, err
	}
	if len(ips) == 0 {
		return -1, &net.DNSError{Err: "no suitable address", Name: host}
	}
	return connect(ips[0], port)
}

func connect(ip net.IP, port int) (int, error) {
	sa, family := sockaddr(ip, port)
	fd, err := unix.Socket(family, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return -1, os.NewSyscallError("socket", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return -1, os.NewSyscallError("setnonblock", err)
	}
	unix.CloseOnExec(fd)
	_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)

	switch err := unix.Connect(fd, sa); err {
	case nil, unix.EINPROGRESS, unix.EINTR:
		return fd, nil
	default:
		unix.Close(fd)
		return -1, os.NewSyscallError("connect", err)
	}
}

// FinishConnect reads the pending connect result off the socket. Call it
// once the descriptor reports writable.
func FinishConnect(fd int) error {
	v, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return os.NewSyscallError("getsockopt", err)
	}
	if v != 0 {
		return unix.Errno(v)
	}
	return nil
}

func sockaddr(ip net.IP, port int) (unix.Sockaddr, int) {
	if ip4 := ip.To4(); ip4 != nil {
		sa := &unix.SockaddrInet4{Port: port}
		copy(sa.Addr[:], ip4)
		return sa, unix.AF_INET
	}
	sa := &unix.SockaddrInet6{Port: port}
	copy(sa.Addr[:], ip.To16())
	return sa, unix.AF_INET6
}
