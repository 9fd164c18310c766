package socks5

import (
	"encoding/binary"
	"fmt"
	"io"
	"net/netip"

	txsocks5 "github.com/txthinking/socks5"
)

var zeroAddr = Addr{Type: AddrTypeIPv4, IP: netip.IPv4Unspecified()}

// WriteReply writes a request reply carrying rep and the bound address.
//
//	+-----+-----+-------+------+----------+----------+
//	| VER | REP |  RSV  | ATYP | BND.ADDR | BND.PORT |
//	+-----+-----+-------+------+----------+----------+
//	|  1  |  1  | X'00' |  1   | Variable |    2     |
func WriteReply(w io.Writer, rep Reply, bound Addr) error {
	var addr []byte
	switch bound.Type {
	case AddrTypeDomain:
		if len(bound.Host) == 0 || len(bound.Host) > 255 {
			return fmt.Errorf("write reply: domain length %d out of range", len(bound.Host))
		}
		addr = []byte(bound.Host)
	case AddrTypeIPv4:
		ip := bound.IP.Unmap()
		if !ip.Is4() {
			return fmt.Errorf("write reply: %v is not an ipv4 address", bound.IP)
		}
		b := ip.As4()
		addr = b[:]
	case AddrTypeIPv6:
		if !bound.IP.Is6() {
			return fmt.Errorf("write reply: %v is not an ipv6 address", bound.IP)
		}
		b := bound.IP.As16()
		addr = b[:]
	default:
		return fmt.Errorf("write reply: %w: 0x%02x", ErrUnknownAddrType, byte(bound.Type))
	}

	port := make([]byte, 2)
	binary.BigEndian.PutUint16(port, bound.Port)

	if _, err := txsocks5.NewReply(byte(rep), byte(bound.Type), addr, port).WriteTo(w); err != nil {
		return fmt.Errorf("write reply: %w", err)
	}
	return nil
}

// WriteFailure writes a failure reply with the all-zero IPv4 bound address.
func WriteFailure(w io.Writer, rep Reply) error {
	return WriteReply(w, rep, zeroAddr)
}
