// Package counter allocates monotonically increasing file numbers for
// generated artifacts. One Service instance per output directory is shared
// by all crawl runs in the process; the mutex is what keeps concurrent runs
// from colliding.
package counter

import (
	"os"
	"strconv"
	"strings"
	"sync"
)

// Service hands out the next file number for one directory. The first
// allocation seeds the counter from the highest numeric filename prefix
// already on disk, so restarts continue the sequence instead of reusing
// numbers.
type Service struct {
	mu     sync.Mutex
	dir    string
	value  int
	seeded bool
}

// NewService builds a counter for the given output directory. The directory
// does not need to exist yet.
func NewService(dir string) *Service {
	return &Service{dir: dir}
}

// Next allocates the next number.
func (s *Service) Next() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.seeded {
		s.value = highestPrefix(s.dir)
		s.seeded = true
	}
	s.value++
	return s.value
}

// highestPrefix scans the directory for names shaped NNNN_rest and returns
// the highest numeric prefix, or 0 when none exist.
func highestPrefix(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	highest := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		prefix, rest, found := strings.Cut(entry.Name(), "_")
		if !found || rest == "" {
			continue
		}
		n, err := strconv.Atoi(prefix)
		if err != nil || n <= 0 {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return highest
}
