// Package proxy implements the SOCKS5 listener side of socksd.
//
// Each accepted connection runs a strictly sequential pipeline (method
// negotiation, optional username/password authentication, request parsing,
// upstream connect) and then hands both sockets to the relay, which copies
// in each direction until either side is done and tears both down.
package proxy
