//go:build !(linux || darwin || freebsd || openbsd || netbsd)

package proxy

import "github.com/die-net/socksd/internal/socks5"

// Errno classification is only wired for the unix platforms above; elsewhere
// connect failures fall through to the timeout/DNS checks.
func replyForErrno(error) (socks5.Reply, bool) {
	return 0, false
}
