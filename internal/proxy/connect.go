package proxy

import (
	"context"
	"errors"
	"net"

	"github.com/die-net/socksd/internal/socks5"
)

// replyForDialError classifies an upstream connect failure into the closest
// SOCKS5 reply code. Unclassifiable errors are a general failure.
func replyForDialError(err error) socks5.Reply {
	// A chained upstream proxy already told us what went wrong.
	var rep socks5.Reply
	if errors.As(err, &rep) && rep != socks5.ReplySucceeded {
		return rep
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return socks5.ReplyHostUnreachable
	}

	if r, ok := replyForErrno(err); ok {
		return r
	}

	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return socks5.ReplyTTLExpired
	}

	return socks5.ReplyGeneralFailure
}

// boundAddr is the address reported in a success reply: the local address
// of the upstream socket, or the requested address if that is unavailable.
func boundAddr(up net.Conn, requested socks5.Addr) socks5.Addr {
	if a, ok := socks5.AddrFromNetAddr(up.LocalAddr()); ok {
		return a
	}
	return requested
}
