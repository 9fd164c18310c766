package socks5

import (
	"fmt"
	"io"
	"slices"

	txsocks5 "github.com/txthinking/socks5"
)

// ReadMethods reads the client greeting and returns the offered methods.
//
//	+-----+----------+----------+
//	| VER | NMETHODS | METHODS  |
//	+-----+----------+----------+
//	|  1  |    1     | 1 to 255 |
func ReadMethods(r io.Reader) ([]Method, error) {
	var hdr [2]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("read greeting: %w", err)
	}
	if hdr[0] != Version {
		return nil, fmt.Errorf("%w: 0x%02x", ErrVersion, hdr[0])
	}

	raw := make([]byte, int(hdr[1]))
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("read methods: %w", err)
	}

	methods := make([]Method, len(raw))
	for i, b := range raw {
		methods[i] = Method(b)
	}
	return methods, nil
}

// SelectMethod picks the method to use from the intersection of the enabled
// and offered sets. UsernamePassword wins over NoAuth regardless of the order
// either side lists them in; anything else yields MethodNotAcceptable.
func SelectMethod(enabled, offered []Method) Method {
	both := func(m Method) bool {
		return slices.Contains(enabled, m) && slices.Contains(offered, m)
	}

	switch {
	case both(MethodUsernamePassword):
		return MethodUsernamePassword
	case both(MethodNoAuth):
		return MethodNoAuth
	default:
		return MethodNotAcceptable
	}
}

// WriteMethod writes the method selection message.
func WriteMethod(w io.Writer, m Method) error {
	if _, err := txsocks5.NewNegotiationReply(byte(m)).WriteTo(w); err != nil {
		return fmt.Errorf("write method selection: %w", err)
	}
	return nil
}
