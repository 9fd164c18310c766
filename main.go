package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // Intentionally exposed on debug port.
	"os"
	"os/signal"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/die-net/socksd/internal/console"
	"github.com/die-net/socksd/internal/credentials"
	"github.com/die-net/socksd/internal/dialer"
	"github.com/die-net/socksd/internal/proxy"
	"github.com/die-net/socksd/internal/socks5"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var (
		listen      = pflag.String("listen", "0.0.0.0:1080", "SOCKS5 listen address")
		authMethods = pflag.String("auth-methods", "noauth", "Comma-separated enabled auth methods: noauth, userpass, gssapi, or a numeric method id")
		users       = pflag.StringArray("user", nil, "User credential as username:password (repeatable)")
		usersFile   = pflag.String("users-file", "", "File of username:password lines to load at startup")

		upstream = pflag.String("upstream", defaultUpstream(), "Upstream forwarding target URL: direct:// | socks5://[user:pass@]host:port")

		dialTimeout        = pflag.Duration("dial-timeout", 10*time.Second, "Timeout for outbound DNS lookup and TCP connect")
		negotiationTimeout = pflag.Duration("negotiation-timeout", 10*time.Second, "Timeout for protocol negotiation to set up connection")
		tcpKeepAlive       = pflag.String("tcp-keepalive", "45:45:3", "TCP keepalive: on|off|keepidle:keepintvl:keepcnt")
		logLevel           = pflag.String("log-level", "info", "Log level: trace|debug|info|warn|error")
		verbose            = pflag.Bool("verbose", false, "Enable per-connection error logging")
		interactive        = pflag.Bool("console", false, "Run the interactive user management console")
		debugListen        = pflag.String("debug-listen", "", "Debug HTTP listen address exposing /debug/pprof (e.g. 127.0.0.1:6060). Empty disables.")
	)

	pflag.CommandLine.SortFlags = false
	pflag.Parse()

	if err := configureLogging(*logLevel); err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}

	ka, err := parseTCPKeepAlive(*tcpKeepAlive)
	if err != nil {
		return fmt.Errorf("invalid --tcp-keepalive: %w", err)
	}

	methods, err := parseMethods(*authMethods)
	if err != nil {
		return fmt.Errorf("invalid --auth-methods: %w", err)
	}

	store := credentials.NewStore()
	for _, u := range *users {
		if err := store.AddPair(u); err != nil {
			return fmt.Errorf("invalid --user: %w", err)
		}
	}
	if *usersFile != "" {
		n, err := store.LoadFile(*usersFile)
		if err != nil {
			return fmt.Errorf("invalid --users-file: %w", err)
		}
		log.Info().Int("users", n).Str("file", *usersFile).Msg("loaded users")
	}

	dialCfg := dialer.Config{
		DialTimeout: *dialTimeout,
		KeepAlive:   ka,
	}
	d, err := dialer.New(dialCfg, *upstream)
	if err != nil {
		return fmt.Errorf("invalid --upstream: %w", err)
	}

	cfg := proxy.Config{
		Methods:            methods,
		Credentials:        store,
		NegotiationTimeout: *negotiationTimeout,
		KeepAlive:          ka,
		Dialer:             d,
		Logger:             log.Logger,
		Verbose:            *verbose,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s5, err := proxy.NewSOCKS5Server(ctx, cfg)
	if err != nil {
		return err
	}

	ln, err := proxy.ListenTCP(ctx, "tcp", *listen, cfg.KeepAlive)
	if err != nil {
		return fmt.Errorf("socks5 listen: %w", err)
	}
	context.AfterFunc(ctx, func() {
		_ = ln.Close()
	})

	var g errgroup.Group

	if *debugListen != "" {
		debugSrv := &http.Server{Handler: http.DefaultServeMux} //nolint:gosec // Not concerned about timeouts on debug port.
		debugLn, err := proxy.ListenTCP(ctx, "tcp", *debugListen, cfg.KeepAlive)
		if err != nil {
			return fmt.Errorf("debug listen: %w", err)
		}
		context.AfterFunc(ctx, func() {
			_ = debugSrv.Close()
			_ = debugLn.Close()
		})

		g.Go(func() error {
			if err := debugSrv.Serve(debugLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
				cancel()
				return fmt.Errorf("debug serve: %w", err)
			}
			return nil
		})
		log.Info().Str("listen", *debugListen).Msg("debug listening")
	}

	g.Go(func() error {
		if err := s5.Serve(ln); err != nil {
			cancel()
			return fmt.Errorf("socks5 serve: %w", err)
		}
		return nil
	})

	log.Info().
		Str("listen", *listen).
		Stringer("upstream", redactedURL(*upstream)).
		Strs("auth_methods", methodNames(methods)).
		Int("users", store.Len()).
		Msg("socks5 proxy listening")

	if *interactive {
		if err := console.New(store, methods, *listen).Run(); err != nil {
			log.Error().Err(err).Msg("console")
		}
		cancel()
	}

	err = g.Wait()
	s5.Wait()

	log.Info().Msg("shutting down")
	return err
}

// configureLogging sets up zerolog with a console writer on stderr.
func configureLogging(level string) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return err
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	})
	return nil
}

func parseMethods(s string) ([]socks5.Method, error) {
	var methods []socks5.Method
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		m, err := socks5.ParseMethod(part)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(methods, m) {
			methods = append(methods, m)
		}
	}
	if len(methods) == 0 {
		return nil, errors.New("empty")
	}
	return methods, nil
}

func methodNames(methods []socks5.Method) []string {
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = m.String()
	}
	return names
}

type redactedURL string

func (u redactedURL) String() string {
	s := string(u)
	scheme, rest, ok := strings.Cut(s, "://")
	if !ok {
		return s
	}
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		return scheme + "://xxxxx@" + rest[at+1:]
	}
	return s
}

func parseTCPKeepAlive(s string) (net.KeepAliveConfig, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "":
		return net.KeepAliveConfig{}, errors.New("empty")
	case "on":
		return net.KeepAliveConfig{Enable: true}, nil
	case "off":
		return net.KeepAliveConfig{Enable: false}, nil
	}

	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return net.KeepAliveConfig{}, errors.New("expected on|off|keepidle:keepintvl:keepcnt")
	}
	vals := make([]int, len(parts))
	for i, name := range []string{"keepidle", "keepintvl", "keepcnt"} {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			return net.KeepAliveConfig{}, fmt.Errorf("%s: %w", name, err)
		}
		if n <= 0 {
			return net.KeepAliveConfig{}, fmt.Errorf("%s: must be > 0", name)
		}
		vals[i] = n
	}

	return net.KeepAliveConfig{
		Enable:   true,
		Idle:     time.Duration(vals[0]) * time.Second,
		Interval: time.Duration(vals[1]) * time.Second,
		Count:    vals[2],
	}, nil
}

func defaultUpstream() string {
	if p := os.Getenv("ALL_PROXY"); p != "" {
		return p
	}

	if p := os.Getenv("all_proxy"); p != "" {
		return p
	}

	return "direct://"
}
