package dialer

import (
	"net"
	"time"
)

type Config struct {
	// DialTimeout bounds DNS resolution plus the TCP handshake, and for
	// chained upstreams also the upstream's SOCKS5 handshake.
	DialTimeout time.Duration
	KeepAlive   net.KeepAliveConfig
}
