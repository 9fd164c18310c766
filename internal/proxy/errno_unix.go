//go:build linux || darwin || freebsd || openbsd || netbsd

package proxy

import (
	"errors"

	"golang.org/x/sys/unix"

	"github.com/die-net/socksd/internal/socks5"
)

func replyForErrno(err error) (socks5.Reply, bool) {
	switch {
	case errors.Is(err, unix.ECONNREFUSED):
		return socks5.ReplyConnectionRefused, true
	case errors.Is(err, unix.ENETUNREACH), errors.Is(err, unix.ENETDOWN):
		return socks5.ReplyNetworkUnreachable, true
	case errors.Is(err, unix.EHOSTUNREACH), errors.Is(err, unix.EHOSTDOWN):
		return socks5.ReplyHostUnreachable, true
	case errors.Is(err, unix.ETIMEDOUT):
		return socks5.ReplyTTLExpired, true
	case errors.Is(err, unix.EACCES), errors.Is(err, unix.EPERM):
		return socks5.ReplyNotAllowed, true
	default:
		return 0, false
	}
}
