package proxy

import (
	"net"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/die-net/socksd/internal/socks5"
)

type authState uint8

const (
	authPending authState = iota
	authSucceeded
	authFailed
)

func (a authState) String() string {
	switch a {
	case authSucceeded:
		return "succeeded"
	case authFailed:
		return "failed"
	default:
		return "pending"
	}
}

// session is the per-connection state of one pipeline run. It never holds an
// upstream socket before the request has been parsed.
type session struct {
	id       uuid.UUID
	client   net.Conn
	method   socks5.Method
	auth     authState
	target   socks5.Addr
	upstream net.Conn
	log      zerolog.Logger
}

func newSession(client net.Conn, parent zerolog.Logger) *session {
	id := uuid.New()
	return &session{
		id:     id,
		client: client,
		method: socks5.MethodNotAcceptable,
		log: parent.With().
			Str("session", id.String()).
			Stringer("client", client.RemoteAddr()).
			Logger(),
	}
}

// authorized reports whether request parsing may begin.
func (s *session) authorized() bool {
	return s.method == socks5.MethodNoAuth || s.auth == authSucceeded
}

// close releases every socket the session opened.
func (s *session) close() {
	if s.upstream != nil {
		_ = s.upstream.Close()
	}
	_ = s.client.Close()
}
