package socks5

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	txsocks5 "github.com/txthinking/socks5"
)

const (
	// Version is the SOCKS protocol version byte.
	Version byte = txsocks5.Ver

	// AuthVersion is the username/password sub-negotiation version byte.
	AuthVersion byte = 0x01
)

var (
	ErrVersion         = errors.New("socks5: unsupported protocol version")
	ErrAuthVersion     = errors.New("socks5: unsupported auth version")
	ErrUnknownCommand  = errors.New("socks5: unknown command")
	ErrUnknownAddrType = errors.New("socks5: unknown address type")
	ErrEmptyDomain     = errors.New("socks5: empty domain name")
	ErrInvalidText     = errors.New("socks5: invalid utf-8")
)

// Method is an authentication method identifier.
type Method byte

const (
	MethodNoAuth           Method = Method(txsocks5.MethodNone)
	MethodGSSAPI           Method = 0x01
	MethodUsernamePassword Method = Method(txsocks5.MethodUsernamePassword)
	MethodNotAcceptable    Method = 0xff
)

// Method ranges reserved by RFC 1928.
const (
	methodIANAFirst    Method = 0x03
	methodIANALast     Method = 0x7f
	methodPrivateFirst Method = 0x80
	methodPrivateLast  Method = 0xfe
)

// IsIANAAssigned reports whether m falls in the IANA-assigned range.
func (m Method) IsIANAAssigned() bool {
	return m >= methodIANAFirst && m <= methodIANALast
}

// IsReserved reports whether m falls in the range reserved for private methods.
func (m Method) IsReserved() bool {
	return m >= methodPrivateFirst && m <= methodPrivateLast
}

func (m Method) String() string {
	switch {
	case m == MethodNoAuth:
		return "noauth"
	case m == MethodGSSAPI:
		return "gssapi"
	case m == MethodUsernamePassword:
		return "userpass"
	case m == MethodNotAcceptable:
		return "not-acceptable"
	case m.IsIANAAssigned():
		return fmt.Sprintf("iana(0x%02x)", byte(m))
	default:
		return fmt.Sprintf("reserved(0x%02x)", byte(m))
	}
}

// ParseMethod parses a method name as accepted on the command line: noauth,
// gssapi, userpass, or a numeric identifier in the IANA-assigned or reserved
// ranges. NotAcceptable can never be enabled.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "noauth", "none":
		return MethodNoAuth, nil
	case "gssapi":
		return MethodGSSAPI, nil
	case "userpass", "username-password":
		return MethodUsernamePassword, nil
	}

	n, err := strconv.ParseUint(strings.TrimSpace(s), 0, 8)
	if err != nil {
		return 0, fmt.Errorf("unknown auth method %q", s)
	}
	m := Method(n)
	if m == MethodNotAcceptable {
		return 0, fmt.Errorf("auth method %q cannot be enabled", s)
	}
	return m, nil
}

// Command is a request command.
type Command byte

const (
	CommandConnect      Command = Command(txsocks5.CmdConnect)
	CommandBind         Command = 0x02
	CommandUDPAssociate Command = 0x03
)

// ParseCommand maps a wire byte to a Command.
func ParseCommand(b byte) (Command, error) {
	switch c := Command(b); c {
	case CommandConnect, CommandBind, CommandUDPAssociate:
		return c, nil
	default:
		return 0, fmt.Errorf("%w: 0x%02x", ErrUnknownCommand, b)
	}
}

func (c Command) String() string {
	switch c {
	case CommandConnect:
		return "connect"
	case CommandBind:
		return "bind"
	case CommandUDPAssociate:
		return "udp-associate"
	default:
		return fmt.Sprintf("command(0x%02x)", byte(c))
	}
}

// AddrType is the ATYP field.
type AddrType byte

const (
	AddrTypeIPv4   AddrType = AddrType(txsocks5.ATYPIPv4)
	AddrTypeDomain AddrType = AddrType(txsocks5.ATYPDomain)
	AddrTypeIPv6   AddrType = AddrType(txsocks5.ATYPIPv6)
)

// ParseAddrType maps a wire byte to an AddrType.
func ParseAddrType(b byte) (AddrType, error) {
	switch a := AddrType(b); a {
	case AddrTypeIPv4, AddrTypeDomain, AddrTypeIPv6:
		return a, nil
	default:
		return 0, fmt.Errorf("%w: 0x%02x", ErrUnknownAddrType, b)
	}
}

func (a AddrType) String() string {
	switch a {
	case AddrTypeIPv4:
		return "ipv4"
	case AddrTypeDomain:
		return "domain"
	case AddrTypeIPv6:
		return "ipv6"
	default:
		return fmt.Sprintf("atyp(0x%02x)", byte(a))
	}
}

// Reply is the REP field of a request reply. A non-success Reply is also an
// error, so pipeline stages can return the code the client should see.
type Reply byte

const (
	ReplySucceeded               Reply = Reply(txsocks5.RepSuccess)
	ReplyGeneralFailure          Reply = 0x01
	ReplyNotAllowed              Reply = 0x02
	ReplyNetworkUnreachable      Reply = 0x03
	ReplyHostUnreachable         Reply = Reply(txsocks5.RepHostUnreachable)
	ReplyConnectionRefused       Reply = Reply(txsocks5.RepConnectionRefused)
	ReplyTTLExpired              Reply = 0x06
	ReplyCommandNotSupported     Reply = Reply(txsocks5.RepCommandNotSupported)
	ReplyAddressTypeNotSupported Reply = 0x08
)

// ParseReply maps a wire byte to a Reply.
func ParseReply(b byte) (Reply, error) {
	if b > byte(ReplyAddressTypeNotSupported) {
		return 0, fmt.Errorf("socks5: unknown reply code 0x%02x", b)
	}
	return Reply(b), nil
}

func (r Reply) Error() string {
	switch r {
	case ReplySucceeded:
		return "succeeded"
	case ReplyGeneralFailure:
		return "general SOCKS server failure"
	case ReplyNotAllowed:
		return "connection not allowed by ruleset"
	case ReplyNetworkUnreachable:
		return "network unreachable"
	case ReplyHostUnreachable:
		return "host unreachable"
	case ReplyConnectionRefused:
		return "connection refused"
	case ReplyTTLExpired:
		return "TTL expired"
	case ReplyCommandNotSupported:
		return "command not supported"
	case ReplyAddressTypeNotSupported:
		return "address type not supported"
	default:
		return fmt.Sprintf("reply(0x%02x)", byte(r))
	}
}

func (r Reply) String() string {
	return r.Error()
}

// AuthStatus is the STATUS field of the username/password reply.
type AuthStatus byte

const (
	AuthSuccess AuthStatus = AuthStatus(txsocks5.UserPassStatusSuccess)
	AuthFailure AuthStatus = AuthStatus(txsocks5.UserPassStatusFailure)
)
