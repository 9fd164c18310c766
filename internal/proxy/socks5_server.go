package proxy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/die-net/socksd/internal/socks5"
)

var (
	errNoAcceptableMethod = errors.New("no acceptable authentication method")
	errUnauthorized       = errors.New("request before successful authentication")
)

// SOCKS5Server accepts SOCKS5 clients and proxies their CONNECT requests.
type SOCKS5Server struct {
	ctx context.Context
	cfg Config
	log zerolog.Logger
	wg  sync.WaitGroup
}

// NewSOCKS5Server constructs a server. Canceling ctx tears down every live
// session; closing the listener passed to Serve stops accepting.
func NewSOCKS5Server(ctx context.Context, cfg Config) (*SOCKS5Server, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("socks5 config: %w", err)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return &SOCKS5Server{ctx: ctx, cfg: cfg, log: cfg.Logger}, nil
}

// Serve accepts connections on ln and runs each one on its own goroutine. It
// returns nil once the server context is done and ln has been closed.
func (s *SOCKS5Server) Serve(ln net.Listener) error {
	for {
		c, err := ln.Accept()
		if err != nil {
			if s.ctx.Err() != nil && errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(c)
		}()
	}
}

// Wait blocks until every session started by Serve has ended.
func (s *SOCKS5Server) Wait() {
	s.wg.Wait()
}

func (s *SOCKS5Server) handleConn(conn net.Conn) {
	sess := newSession(conn, s.log)
	defer sess.close()

	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	// Unblocks handshake reads on shutdown; later stages also watch ctx.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err := s.serveSession(ctx, sess); err != nil {
		s.logFailure(sess, err)
	}
}

// serveSession runs negotiation, authentication, request parsing, upstream
// connect and relay in order. Any stage may end the connection early.
func (s *SOCKS5Server) serveSession(ctx context.Context, sess *session) error {
	conn := sess.client

	if s.cfg.NegotiationTimeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(s.cfg.NegotiationTimeout))
	}

	if err := s.negotiate(sess); err != nil {
		return err
	}

	if sess.method == socks5.MethodUsernamePassword {
		user, err := socks5.Authenticate(conn, s.cfg.Credentials)
		if err != nil {
			sess.auth = authFailed
			return fmt.Errorf("authenticate: %w", err)
		}
		sess.auth = authSucceeded
		sess.log = sess.log.With().Str("user", user).Logger()
	}

	if !sess.authorized() {
		return errUnauthorized
	}

	req, err := socks5.ReadRequest(conn)
	if err != nil {
		if rep, ok := socks5.RequestErrorReply(err); ok {
			_ = socks5.WriteFailure(conn, rep)
		}
		return fmt.Errorf("request: %w", err)
	}
	sess.target = req.Addr
	sess.log = sess.log.With().Stringer("target", req.Addr).Logger()

	if req.Command != socks5.CommandConnect {
		_ = socks5.WriteFailure(conn, socks5.ReplyCommandNotSupported)
		return fmt.Errorf("request: %s not supported", req.Command)
	}

	_ = conn.SetDeadline(time.Time{})

	if err := s.connect(ctx, sess); err != nil {
		return err
	}

	stats, err := Relay(ctx, conn, sess.upstream)
	sess.log.Debug().
		Int64("bytes_up", stats.Upstream).
		Int64("bytes_down", stats.Downstream).
		AnErr("relay_err", err).
		Msg("relay finished")
	return nil
}

func (s *SOCKS5Server) negotiate(sess *session) error {
	offered, err := socks5.ReadMethods(sess.client)
	if err != nil {
		return fmt.Errorf("negotiate: %w", err)
	}

	sess.method = socks5.SelectMethod(s.cfg.Methods, offered)
	if err := socks5.WriteMethod(sess.client, sess.method); err != nil {
		return fmt.Errorf("negotiate: %w", err)
	}
	if sess.method == socks5.MethodNotAcceptable {
		return fmt.Errorf("negotiate: %w (offered %v)", errNoAcceptableMethod, offered)
	}

	sess.log = sess.log.With().Stringer("method", sess.method).Logger()
	return nil
}

// connect makes a single attempt to reach the target and writes the reply.
func (s *SOCKS5Server) connect(ctx context.Context, sess *session) error {
	up, err := s.cfg.Dialer.DialContext(ctx, "tcp", sess.target.String())
	if err != nil {
		rep := replyForDialError(err)
		_ = socks5.WriteFailure(sess.client, rep)
		return fmt.Errorf("connect: %w", err)
	}
	sess.upstream = up

	if err := socks5.WriteReply(sess.client, socks5.ReplySucceeded, boundAddr(up, sess.target)); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	return nil
}

func (s *SOCKS5Server) logFailure(sess *session, err error) {
	level := zerolog.DebugLevel
	if s.cfg.Verbose {
		level = zerolog.InfoLevel
	}
	sess.log.WithLevel(level).
		Err(err).
		Stringer("auth", sess.auth).
		Msg("connection ended")
}
