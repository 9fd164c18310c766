package proxy

import (
	"errors"
	"net"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/die-net/socksd/internal/dialer"
	"github.com/die-net/socksd/internal/socks5"
)

type Config struct {
	// Methods lists the enabled authentication methods in configured order.
	// It must not be modified once the server has started.
	Methods []socks5.Method

	// Credentials is consulted when UsernamePassword is negotiated.
	Credentials socks5.PasswordLookup

	// NegotiationTimeout bounds the handshake up to the parsed request.
	// Zero disables it.
	NegotiationTimeout time.Duration

	KeepAlive net.KeepAliveConfig

	Dialer dialer.Dialer

	Logger zerolog.Logger

	// Verbose logs per-connection failures at info rather than debug.
	Verbose bool
}

func (c Config) validate() error {
	if len(c.Methods) == 0 {
		return errors.New("no authentication methods enabled")
	}
	if slices.Contains(c.Methods, socks5.MethodUsernamePassword) && c.Credentials == nil {
		return errors.New("username/password enabled without a credential store")
	}
	if c.Dialer == nil {
		return errors.New("no dialer configured")
	}
	return nil
}
