// Package socks5 implements the server side of the SOCKS5 wire protocol
// (RFC 1928) and the username/password sub-negotiation (RFC 1929).
//
// Every one-byte protocol field is a closed type with a total mapping to and
// from its wire value. Decoding a byte the server does not understand yields
// an explicit error instead of a panic, so a malformed client only ever
// costs its own connection.
//
// Reply framing and the client-side handshake reuse the primitives in
// github.com/txthinking/socks5.
package socks5
