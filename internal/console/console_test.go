package console

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/die-net/socksd/internal/credentials"
	"github.com/die-net/socksd/internal/socks5"
)

func TestAddRemoveUser(t *testing.T) {
	store := credentials.NewStore()
	c := New(store, []socks5.Method{socks5.MethodUsernamePassword}, "127.0.0.1:1080")

	require.NoError(t, c.addUser("alice", "secret"))
	p, ok := store.Password("alice")
	require.True(t, ok)
	require.Equal(t, "secret", p)

	require.Error(t, c.addUser("", "secret"))

	require.NoError(t, c.removeUser("alice"))
	require.ErrorIs(t, c.removeUser("alice"), errNoSuchUser)
	require.Equal(t, 0, store.Len())
}

func TestRenderUsers(t *testing.T) {
	store := credentials.NewStore()
	require.NoError(t, store.Add("bob", "hunter2"))
	require.NoError(t, store.Add("alice", "a-very-long-password"))

	out := RenderUsers(store)
	require.Contains(t, out, "alice")
	require.Contains(t, out, "bob")
	require.Contains(t, out, "*******")
	require.NotContains(t, out, "hunter2")
	require.Less(t, strings.Index(out, "alice"), strings.Index(out, "bob"))
}

func TestRenderStatus(t *testing.T) {
	out := RenderStatus("0.0.0.0:1080", []socks5.Method{socks5.MethodNoAuth, socks5.MethodUsernamePassword}, 3)
	require.Contains(t, out, "0.0.0.0:1080")
	require.Contains(t, out, "noauth")
	require.Contains(t, out, "userpass")
	require.Contains(t, out, "3")
}

func TestRenderMethods(t *testing.T) {
	out := RenderMethods([]socks5.Method{socks5.MethodUsernamePassword, socks5.MethodGSSAPI})
	require.Contains(t, out, "userpass")
	require.Contains(t, out, "0x02")
	require.Contains(t, out, "gssapi")
	require.Contains(t, out, "false")
	require.Less(t, strings.Index(out, "userpass"), strings.Index(out, "gssapi"))
}
