// Package dialer provides the outbound dialers used to reach CONNECT targets.
//
// Dialers implement a small interface (DialContext) and either connect to the
// target directly or chain through an upstream SOCKS5 proxy.
package dialer
