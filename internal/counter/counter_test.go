package counter

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestService_SeedsFromDirectory(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	for _, name := range []string{
		"0001_政策一.md",
		"0007_政策二.md",
		"0003_附件.pdf",
		"readme.txt",
		"12notanumber.md",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	s := NewService(dir)
	require.Equal(t, 8, s.Next())
	require.Equal(t, 9, s.Next())
}

func TestService_MissingDirectoryStartsAtOne(t *testing.T) {
	t.Parallel()
	s := NewService(filepath.Join(t.TempDir(), "does-not-exist"))
	require.Equal(t, 1, s.Next())
	require.Equal(t, 2, s.Next())
}

func TestService_ConcurrentAllocationsAreUnique(t *testing.T) {
	t.Parallel()
	s := NewService(t.TempDir())

	const goroutines = 16
	const perGoroutine = 50

	var mu sync.Mutex
	var got []int
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				n := s.Next()
				mu.Lock()
				got = append(got, n)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	seen := make(map[int]bool, len(got))
	for _, n := range got {
		require.False(t, seen[n], "duplicate number %d", n)
		seen[n] = true
	}
	require.Len(t, seen, goroutines*perGoroutine)
}
