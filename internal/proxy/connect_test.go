package proxy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/die-net/socksd/internal/socks5"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestReplyForDialError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want socks5.Reply
	}{
		{name: "dns", err: &net.OpError{Op: "dial", Err: &net.DNSError{Err: "no such host", Name: "nx.invalid", IsNotFound: true}}, want: socks5.ReplyHostUnreachable},
		{name: "timeout", err: &net.OpError{Op: "dial", Err: timeoutError{}}, want: socks5.ReplyTTLExpired},
		{name: "context deadline", err: fmt.Errorf("dial: %w", context.DeadlineExceeded), want: socks5.ReplyTTLExpired},
		{name: "upstream reply", err: fmt.Errorf("socks5 proxy dial: %w", socks5.ReplyNotAllowed), want: socks5.ReplyNotAllowed},
		{name: "unclassified", err: errors.New("boom"), want: socks5.ReplyGeneralFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, replyForDialError(tt.err))
		})
	}
}

type addrConn struct {
	net.Conn
	local net.Addr
}

func (c addrConn) LocalAddr() net.Addr { return c.local }

func TestBoundAddr(t *testing.T) {
	requested := socks5.Addr{Type: socks5.AddrTypeDomain, Host: "example.com", Port: 80}

	got := boundAddr(addrConn{local: &net.TCPAddr{IP: net.IPv4(10, 0, 0, 2), Port: 5555}}, requested)
	require.Equal(t, socks5.Addr{Type: socks5.AddrTypeIPv4, IP: netip.MustParseAddr("10.0.0.2"), Port: 5555}, got)

	got = boundAddr(addrConn{local: &net.UnixAddr{Name: "x", Net: "unix"}}, requested)
	require.Equal(t, requested, got)
}
