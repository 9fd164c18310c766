// Package credentials holds the username/password table consulted during
// SOCKS5 username/password authentication.
package credentials

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"
)

// MaxFieldLen is the longest username or password the wire format can carry.
const MaxFieldLen = 255

var (
	ErrEmptyUsername = errors.New("credentials: empty username")
	ErrFieldTooLong  = errors.New("credentials: field longer than 255 bytes")
)

// Store maps usernames to passwords. It is safe for concurrent use; the lock
// is held only for the duration of a single lookup or mutation.
type Store struct {
	mu    sync.RWMutex
	users map[string]string
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{users: make(map[string]string)}
}

// Add inserts or replaces a user.
func (s *Store) Add(username, password string) error {
	if username == "" {
		return ErrEmptyUsername
	}
	if len(username) > MaxFieldLen || len(password) > MaxFieldLen {
		return fmt.Errorf("%w: user %q", ErrFieldTooLong, username)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = password
	return nil
}

// Remove deletes a user and reports whether it existed.
func (s *Store) Remove(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[username]
	delete(s.users, username)
	return ok
}

// Password returns the password for username, if present.
func (s *Store) Password(username string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.users[username]
	return p, ok
}

// Len returns the number of users.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// Usernames returns all usernames, sorted.
func (s *Store) Usernames() []string {
	s.mu.RLock()
	names := make([]string, 0, len(s.users))
	for u := range s.users {
		names = append(names, u)
	}
	s.mu.RUnlock()

	slices.Sort(names)
	return names
}

// AddPair adds a user given as "username:password". The password may itself
// contain colons.
func (s *Store) AddPair(pair string) error {
	user, pass, ok := strings.Cut(pair, ":")
	if !ok {
		return fmt.Errorf("credentials: %q is not username:password", pair)
	}
	return s.Add(user, pass)
}

// Load reads "username:password" lines from r. Blank lines and lines starting
// with '#' are skipped. It returns the number of users added.
func (s *Store) Load(r io.Reader) (int, error) {
	sc := bufio.NewScanner(r)
	n, line := 0, 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if err := s.AddPair(text); err != nil {
			return n, fmt.Errorf("line %d: %w", line, err)
		}
		n++
	}
	if err := sc.Err(); err != nil {
		return n, fmt.Errorf("read users: %w", err)
	}
	return n, nil
}

// LoadFile is Load on the named file.
func (s *Store) LoadFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open users file: %w", err)
	}
	defer f.Close()

	n, err := s.Load(f)
	if err != nil {
		return n, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}
