package credentials

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStoreAddRemove(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Add("alice", "secret"))

	p, ok := s.Password("alice")
	require.True(t, ok)
	require.Equal(t, "secret", p)

	_, ok = s.Password("bob")
	require.False(t, ok)

	require.NoError(t, s.Add("alice", "changed"))
	p, _ = s.Password("alice")
	require.Equal(t, "changed", p)
	require.Equal(t, 1, s.Len())

	require.True(t, s.Remove("alice"))
	require.False(t, s.Remove("alice"))
	_, ok = s.Password("alice")
	require.False(t, ok)
}

func TestStoreValidation(t *testing.T) {
	s := NewStore()
	require.ErrorIs(t, s.Add("", "x"), ErrEmptyUsername)
	require.ErrorIs(t, s.Add(strings.Repeat("u", 256), "x"), ErrFieldTooLong)
	require.ErrorIs(t, s.Add("u", strings.Repeat("p", 256)), ErrFieldTooLong)
	require.NoError(t, s.Add(strings.Repeat("u", 255), strings.Repeat("p", 255)))
	require.Error(t, s.AddPair("nocolon"))

	require.NoError(t, s.AddPair("carol:pa:ss"))
	p, _ := s.Password("carol")
	require.Equal(t, "pa:ss", p)
}

func TestStoreLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users")
	require.NoError(t, os.WriteFile(path, []byte("# users\nalice:secret\n\n  bob:hunter2  \n"), 0o600))

	s := NewStore()
	n, err := s.LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, []string{"alice", "bob"}, s.Usernames())

	require.NoError(t, os.WriteFile(path, []byte("alice:secret\nbroken\n"), 0o600))
	_, err = NewStore().LoadFile(path)
	require.ErrorContains(t, err, "line 2")

	_, err = NewStore().LoadFile(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestStoreConcurrentAccess(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := range 200 {
				u := "user" + strconv.Itoa(i) + "-" + strconv.Itoa(j)
				_ = s.Add(u, "p")
				s.Remove(u)
			}
		}()
		go func() {
			defer wg.Done()
			for range 200 {
				_, _ = s.Password("user0-0")
				_ = s.Usernames()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 0, s.Len())
}
