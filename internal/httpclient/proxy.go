package httpclient

import (
	"context"
	"fmt"
	"net/url"
	"sync"
)

// ProxyProvider supplies upstream proxies. Implementations may call out to a
// rotating-proxy vendor; forceNew signals that the previous proxy failed a
// request and must not be handed out again.
type ProxyProvider interface {
	Acquire(ctx context.Context, forceNew bool) (*url.URL, error)
}

// StaticProxies round-robins over a fixed address list. forceNew advances to
// the next address; otherwise the current one is reused.
type StaticProxies struct {
	mu   sync.Mutex
	urls []*url.URL
	idx  int
}

// NewStaticProxies parses the given proxy addresses. Addresses without a
// scheme get http.
func NewStaticProxies(addrs []string) (*StaticProxies, error) {
	if len(addrs) == 0 {
		return nil, fmt.Errorf("no proxy addresses given")
	}
	urls := make([]*url.URL, 0, len(addrs))
	for _, addr := range addrs {
		if addr == "" {
			continue
		}
		if !hasScheme(addr) {
			addr = "http://" + addr
		}
		u, err := url.Parse(addr)
		if err != nil {
			return nil, fmt.Errorf("parse proxy address %q: %w", addr, err)
		}
		urls = append(urls, u)
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("no usable proxy addresses")
	}
	return &StaticProxies{urls: urls}, nil
}

// Acquire implements ProxyProvider.
func (s *StaticProxies) Acquire(_ context.Context, forceNew bool) (*url.URL, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if forceNew {
		s.idx = (s.idx + 1) % len(s.urls)
	}
	return s.urls[s.idx], nil
}

func hasScheme(addr string) bool {
	for i := 0; i < len(addr); i++ {
		if addr[i] == ':' {
			return i+2 < len(addr) && addr[i+1] == '/' && addr[i+2] == '/'
		}
	}
	return false
}
