//go:build linux || darwin || freebsd || openbsd || netbsd

package proxy

import (
	"net"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/die-net/socksd/internal/socks5"
)

func TestReplyForErrno(t *testing.T) {
	tests := []struct {
		errno error
		want  socks5.Reply
	}{
		{errno: unix.ECONNREFUSED, want: socks5.ReplyConnectionRefused},
		{errno: unix.ENETUNREACH, want: socks5.ReplyNetworkUnreachable},
		{errno: unix.EHOSTUNREACH, want: socks5.ReplyHostUnreachable},
		{errno: unix.ETIMEDOUT, want: socks5.ReplyTTLExpired},
		{errno: unix.EACCES, want: socks5.ReplyNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.errno.Error(), func(t *testing.T) {
			err := &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", tt.errno)}
			require.Equal(t, tt.want, replyForDialError(err))
		})
	}
}
