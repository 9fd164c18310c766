// Package console provides the interactive shell used to manage proxy users
// while the server is running.
package console

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertbit/grumble"
	"github.com/jedib0t/go-pretty/table"
	"github.com/rs/zerolog/log"

	"github.com/die-net/socksd/internal/credentials"
	"github.com/die-net/socksd/internal/socks5"
)

// Console is the user-management shell. Commands mutate the same store the
// running server authenticates against.
type Console struct {
	app     *grumble.App
	store   *credentials.Store
	methods []socks5.Method
	listen  string
}

// New builds the shell. listen is shown by the "status" command only.
func New(store *credentials.Store, methods []socks5.Method, listen string) *Console {
	histFile := ".socksd_history"
	if home, err := os.UserHomeDir(); err == nil {
		histFile = filepath.Join(home, histFile)
	}

	c := &Console{
		store:   store,
		methods: methods,
		listen:  listen,
		app: grumble.New(&grumble.Config{
			Name:        "socksd",
			Description: "SOCKS5 proxy user management",
			HistoryFile: histFile,
			Prompt:      "socksd » ",
		}),
	}
	c.register()
	return c
}

// Run blocks until the user exits the shell.
func (c *Console) Run() error {
	// grumble parses os.Args itself; the process flags were already consumed.
	os.Args = os.Args[:1]
	return c.app.Run()
}

func (c *Console) register() {
	c.app.AddCommand(&grumble.Command{
		Name:    "add-user",
		Aliases: []string{"add"},
		Help:    "add a user or replace its password",
		Args: func(a *grumble.Args) {
			a.String("username", "username")
			a.String("password", "password")
		},
		Run: func(ctx *grumble.Context) error {
			user := ctx.Args.String("username")
			if err := c.addUser(user, ctx.Args.String("password")); err != nil {
				log.Error().Err(err).Msg("Failed to add user")
				return nil
			}
			log.Info().Str("user", user).Msg("User added")
			return nil
		},
	})

	c.app.AddCommand(&grumble.Command{
		Name:    "remove-user",
		Aliases: []string{"rm"},
		Help:    "remove users",
		Args: func(a *grumble.Args) {
			a.StringList("usernames", "users to remove")
		},
		Run: func(ctx *grumble.Context) error {
			for _, user := range ctx.Args.StringList("usernames") {
				if err := c.removeUser(user); err != nil {
					log.Warn().Err(err).Str("user", user).Msg("Failed to remove user")
					continue
				}
				log.Info().Str("user", user).Msg("User removed")
			}
			return nil
		},
	})

	c.app.AddCommand(&grumble.Command{
		Name:    "list-users",
		Aliases: []string{"ls"},
		Help:    "list configured users",
		Run: func(ctx *grumble.Context) error {
			if c.store.Len() == 0 {
				log.Info().Msg("No users configured")
				return nil
			}
			ctx.App.Println(RenderUsers(c.store))
			return nil
		},
	})

	c.app.AddCommand(&grumble.Command{
		Name: "methods",
		Help: "list enabled authentication methods",
		Run: func(ctx *grumble.Context) error {
			ctx.App.Println(RenderMethods(c.methods))
			return nil
		},
	})

	c.app.AddCommand(&grumble.Command{
		Name: "status",
		Help: "show listener and enabled authentication methods",
		Run: func(ctx *grumble.Context) error {
			ctx.App.Println(RenderStatus(c.listen, c.methods, c.store.Len()))
			return nil
		},
	})
}

func (c *Console) addUser(user, pass string) error {
	return c.store.Add(user, pass)
}

var errNoSuchUser = errors.New("no such user")

func (c *Console) removeUser(user string) error {
	if !c.store.Remove(user) {
		return errNoSuchUser
	}
	return nil
}

// RenderUsers formats the store's usernames as a table. Passwords are masked.
func RenderUsers(store *credentials.Store) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Username", "Password"})

	for i, user := range store.Usernames() {
		pass, ok := store.Password(user)
		if !ok {
			continue
		}
		t.AppendRow(table.Row{i + 1, user, strings.Repeat("*", min(len(pass), 8))})
	}

	return t.Render()
}

// RenderMethods formats the enabled methods in configured order. Methods the
// server accepts in config but never selects are marked as such.
func RenderMethods(methods []socks5.Method) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Method", "ID", "Selectable"})

	for _, m := range methods {
		selectable := m == socks5.MethodNoAuth || m == socks5.MethodUsernamePassword
		t.AppendRow(table.Row{m.String(), fmt.Sprintf("0x%02x", byte(m)), selectable})
	}

	return t.Render()
}

// RenderStatus formats the listener address and method configuration.
func RenderStatus(listen string, methods []socks5.Method, users int) string {
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = fmt.Sprintf("%s (0x%02x)", m, byte(m))
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendRow(table.Row{"Listen", listen})
	t.AppendRow(table.Row{"Auth methods", strings.Join(names, ", ")})
	t.AppendRow(table.Row{"Users", users})
	return t.Render()
}
