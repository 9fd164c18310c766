package socks5

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	txsocks5 "github.com/txthinking/socks5"
)

// ErrAuthFailed is returned when the offered credentials were rejected.
var ErrAuthFailed = errors.New("socks5: authentication failed")

// Credentials is a decoded username/password request.
type Credentials struct {
	Username string
	Password string
}

// PasswordLookup is the read side of a credential store.
type PasswordLookup interface {
	Password(username string) (string, bool)
}

// ReadCredentials reads a username/password request.
//
//	+-----+------+----------+------+----------+
//	| VER | ULEN |  UNAME   | PLEN |  PASSWD  |
//	+-----+------+----------+------+----------+
//	|  1  |  1   | 1 to 255 |  1   | 1 to 255 |
func ReadCredentials(r io.Reader) (Credentials, error) {
	var ver [1]byte
	if _, err := io.ReadFull(r, ver[:]); err != nil {
		return Credentials{}, fmt.Errorf("read auth version: %w", err)
	}
	if ver[0] != AuthVersion {
		return Credentials{}, fmt.Errorf("%w: 0x%02x", ErrAuthVersion, ver[0])
	}

	user, err := readString(r)
	if err != nil {
		return Credentials{}, fmt.Errorf("read username: %w", err)
	}
	pass, err := readString(r)
	if err != nil {
		return Credentials{}, fmt.Errorf("read password: %w", err)
	}

	return Credentials{Username: user, Password: pass}, nil
}

// WriteAuthStatus writes the username/password reply.
func WriteAuthStatus(w io.Writer, status AuthStatus) error {
	if _, err := txsocks5.NewUserPassNegotiationReply(byte(status)).WriteTo(w); err != nil {
		return fmt.Errorf("write auth status: %w", err)
	}
	return nil
}

// Authenticate runs the username/password sub-negotiation on rw against
// store. It returns the authenticated username, or ErrAuthFailed after the
// failure status has been sent. Each call consumes exactly one attempt.
func Authenticate(rw io.ReadWriter, store PasswordLookup) (string, error) {
	creds, err := ReadCredentials(rw)
	if err != nil {
		return "", err
	}

	want, ok := store.Password(creds.Username)
	if !ok || subtle.ConstantTimeCompare([]byte(want), []byte(creds.Password)) != 1 {
		if err := WriteAuthStatus(rw, AuthFailure); err != nil {
			return "", err
		}
		return "", fmt.Errorf("%w: user %q", ErrAuthFailed, creds.Username)
	}

	if err := WriteAuthStatus(rw, AuthSuccess); err != nil {
		return "", err
	}
	return creds.Username, nil
}

// readString reads a length-prefixed UTF-8 string.
func readString(r io.Reader) (string, error) {
	var n [1]byte
	if _, err := io.ReadFull(r, n[:]); err != nil {
		return "", err
	}
	b := make([]byte, int(n[0]))
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", ErrInvalidText
	}
	return string(b), nil
}
