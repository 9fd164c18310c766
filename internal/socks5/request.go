package socks5

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"net/netip"
	"strconv"
	"unicode/utf8"
)

// Addr is a destination or bound address as carried on the wire. Exactly one
// of IP (IPv4/IPv6) or Host (domain) is set, according to Type.
type Addr struct {
	Type AddrType
	IP   netip.Addr
	Host string
	Port uint16
}

// String returns the address in host:port form, suitable for dialing.
func (a Addr) String() string {
	host := a.Host
	if a.Type != AddrTypeDomain {
		host = a.IP.String()
	}
	return net.JoinHostPort(host, strconv.Itoa(int(a.Port)))
}

// AddrFromNetAddr converts a TCP address to an Addr. IPv4-mapped IPv6
// addresses are reported as IPv4.
func AddrFromNetAddr(na net.Addr) (Addr, bool) {
	ta, ok := na.(*net.TCPAddr)
	if !ok || ta == nil {
		return Addr{}, false
	}
	ip, ok := netip.AddrFromSlice(ta.IP)
	if !ok {
		return Addr{}, false
	}
	ip = ip.Unmap()
	typ := AddrTypeIPv4
	if ip.Is6() {
		typ = AddrTypeIPv6
	}
	return Addr{Type: typ, IP: ip, Port: uint16(ta.Port)}, true
}

// Request is a decoded client request.
type Request struct {
	Command Command
	Addr    Addr
}

// ReadRequest reads a client request.
//
//	+-----+-----+-------+------+----------+----------+
//	| VER | CMD |  RSV  | ATYP | DST.ADDR | DST.PORT |
//	+-----+-----+-------+------+----------+----------+
//	|  1  |  1  | X'00' |  1   | Variable |    2     |
//
// The command is validated before the address type, and the address is only
// read once both are known. A short read is returned as an I/O error; no
// partial request is ever accepted.
func ReadRequest(r io.Reader) (*Request, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("read request header: %w", err)
	}
	if hdr[0] != Version {
		return nil, fmt.Errorf("%w: 0x%02x", ErrVersion, hdr[0])
	}
	cmd, err := ParseCommand(hdr[1])
	if err != nil {
		return nil, err
	}
	atyp, err := ParseAddrType(hdr[3])
	if err != nil {
		return nil, err
	}

	addr, err := readAddr(r, atyp)
	if err != nil {
		return nil, err
	}
	return &Request{Command: cmd, Addr: addr}, nil
}

func readAddr(r io.Reader, atyp AddrType) (Addr, error) {
	a := Addr{Type: atyp}

	switch atyp {
	case AddrTypeIPv4:
		var b [net.IPv4len + 2]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return Addr{}, fmt.Errorf("read ipv4 address: %w", err)
		}
		a.IP = netip.AddrFrom4([4]byte(b[:4]))
		a.Port = binary.BigEndian.Uint16(b[4:])

	case AddrTypeIPv6:
		var b [net.IPv6len + 2]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return Addr{}, fmt.Errorf("read ipv6 address: %w", err)
		}
		a.IP = netip.AddrFrom16([16]byte(b[:16]))
		a.Port = binary.BigEndian.Uint16(b[16:])

	case AddrTypeDomain:
		var n [1]byte
		if _, err := io.ReadFull(r, n[:]); err != nil {
			return Addr{}, fmt.Errorf("read domain length: %w", err)
		}
		b := make([]byte, int(n[0])+2)
		if _, err := io.ReadFull(r, b); err != nil {
			return Addr{}, fmt.Errorf("read domain address: %w", err)
		}
		host := b[:n[0]]
		a.Port = binary.BigEndian.Uint16(b[n[0]:])
		if len(host) == 0 {
			return Addr{}, ErrEmptyDomain
		}
		if !utf8.Valid(host) {
			return Addr{}, fmt.Errorf("domain name: %w", ErrInvalidText)
		}
		a.Host = string(host)

	default:
		return Addr{}, fmt.Errorf("%w: 0x%02x", ErrUnknownAddrType, byte(atyp))
	}

	return a, nil
}

// RequestErrorReply maps an error from ReadRequest to the reply the client
// should receive. It returns false when no reply should be sent, which is the
// case for I/O errors including truncated requests.
func RequestErrorReply(err error) (Reply, bool) {
	switch {
	case errors.Is(err, ErrUnknownCommand):
		return ReplyCommandNotSupported, true
	case errors.Is(err, ErrUnknownAddrType):
		return ReplyAddressTypeNotSupported, true
	case errors.Is(err, ErrVersion), errors.Is(err, ErrEmptyDomain), errors.Is(err, ErrInvalidText):
		return ReplyGeneralFailure, true
	default:
		return 0, false
	}
}
