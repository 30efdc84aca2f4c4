//go:build linux

package link

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"

	"github.com/glassbridge/glassbridge-go/pkg/endpoint"
)

// Link mode socket option from <bluetooth/rfcomm.h>; x/sys does not
// export it.
const (
	rfcommLM        = 0x03
	rfcommLMAuth    = 0x0002
	rfcommLMEncrypt = 0x0004
)

// Open connects an AF_BLUETOOTH RFCOMM socket to the endpoint.
// Cancelling ctx shuts the socket down; the descriptor is closed once
// connect(2) returns.
func (s *RFCOMMStrategy) Open(ctx context.Context, ep endpoint.RemoteEndpoint) (io.ReadWriteCloser, error) {
	addr, err := endpoint.ParseBluetoothAddr(ep.Address)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Socket(unix.AF_BLUETOOTH, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, unix.BTPROTO_RFCOMM)
	if err != nil {
		return nil, os.NewSyscallError("socket", err)
	}

	if s.Secure {
		if err := unix.SetsockoptInt(fd, unix.SOL_RFCOMM, rfcommLM, rfcommLMAuth|rfcommLMEncrypt); err != nil {
			unix.Close(fd)
			return nil, os.NewSyscallError("setsockopt", err)
		}
	}

	sa := &unix.SockaddrRFCOMM{
		Addr:    addr.LittleEndian(),
		Channel: s.channelFor(ep.RFCOMMChannel()),
	}

	done := make(chan error, 1)
	go func() {
		done <- unix.Connect(fd, sa)
	}()

	select {
	case err = <-done:
	case <-ctx.Done():
		_ = unix.Shutdown(fd, unix.SHUT_RDWR)
		go func() {
			<-done
			unix.Close(fd)
		}()
		return nil, ctx.Err()
	}
	if err != nil {
		unix.Close(fd)
		return nil, os.NewSyscallError("connect", err)
	}

	// Register with the runtime poller so Close unblocks a pending Read.
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, os.NewSyscallError("setnonblock", err)
	}
	return os.NewFile(uintptr(fd), fmt.Sprintf("rfcomm:%s/%d", addr, sa.Channel)), nil
}
