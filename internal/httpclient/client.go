// Package httpclient is the resilient access layer for the crawled sites.
// Each client owns one rotating session (cookies plus a user-agent drawn
// from a fixed pool), an optional proxy, and a linear-backoff retry loop.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/mnr-tools/policy-crawler/internal/metrics"
	"github.com/mnr-tools/policy-crawler/internal/model"
	"github.com/mnr-tools/policy-crawler/internal/textclean"
)

// Config tunes one client instance. Zero values fall back to the defaults
// the sites are known to tolerate.
type Config struct {
	UserAgents            []string
	MaxRetries            int           // attempts per call, default 3
	RetryDelay            time.Duration // linear backoff base, default 5s
	SearchTimeout         time.Duration // default 30s
	DownloadTimeout       time.Duration // default 60s
	SessionRotateInterval int           // requests per session, default 50
	PerPage               int           // listing page size, default 20
	Proxy                 ProxyProvider     // nil disables proxying
	Clean                 textclean.Options // zero value uses the cleaner defaults
}

func (c *Config) applyDefaults() {
	if len(c.UserAgents) == 0 {
		c.UserAgents = DefaultUserAgents
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 5 * time.Second
	}
	if c.SearchTimeout <= 0 {
		c.SearchTimeout = 30 * time.Second
	}
	if c.DownloadTimeout <= 0 {
		c.DownloadTimeout = 60 * time.Second
	}
	if c.SessionRotateInterval <= 0 {
		c.SessionRotateInterval = 50
	}
	if c.PerPage <= 0 {
		c.PerPage = 20
	}
}

// ResultKind classifies a search response body.
type ResultKind string

// Search response kinds. The same endpoint serves both depending on mood.
const (
	KindJSON ResultKind = "json"
	KindHTML ResultKind = "html"
)

// SearchRequest carries one listing query.
type SearchRequest struct {
	Keywords  []string
	Page      int
	StartDate string // YYYY-MM-DD, optional
	EndDate   string // YYYY-MM-DD, optional
}

// SearchResult is a classified search response.
type SearchResult struct {
	Kind    ResultKind
	Payload []byte
}

// Client is the per-source access client. It is safe for use from a single
// orchestrator goroutine; the session state is internally locked so a shared
// proxy provider can rotate underneath it.
type Client struct {
	source model.DataSource
	cfg    Config
	log    *zap.Logger

	mu           sync.Mutex
	httpClient   *http.Client
	userAgent    string
	requestCount int
	proxyURL     *url.URL
}

// New builds a client scoped to one data source.
func New(source model.DataSource, cfg Config, log *zap.Logger) (*Client, error) {
	cfg.applyDefaults()
	if log == nil {
		log = zap.NewNop()
	}
	c := &Client{
		source: source,
		cfg:    cfg,
		log:    log.With(zap.String("source", source.Name)),
	}
	if err := c.newSession(); err != nil {
		return nil, err
	}
	return c, nil
}

// newSession swaps in a fresh cookie jar and a newly drawn user-agent.
func (c *Client) newSession() error {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return fmt.Errorf("create cookie jar: %w", err)
	}
	transport := &http.Transport{
		Proxy: func(*http.Request) (*url.URL, error) {
			return c.currentProxy(), nil
		},
	}
	c.mu.Lock()
	c.httpClient = &http.Client{Jar: jar, Transport: transport}
	c.userAgent = c.cfg.UserAgents[rand.Intn(len(c.cfg.UserAgents))]
	c.requestCount = 0
	c.mu.Unlock()
	return nil
}

// checkAndRotate counts a request and rotates the session at the configured
// interval.
func (c *Client) checkAndRotate() {
	c.mu.Lock()
	c.requestCount++
	rotate := c.requestCount >= c.cfg.SessionRotateInterval
	c.mu.Unlock()
	if !rotate {
		return
	}
	if err := c.newSession(); err != nil {
		c.log.Warn("session rotation failed", zap.Error(err))
		return
	}
	metrics.SessionRotationsTotal.Inc()
	c.log.Debug("rotated session")
}

func (c *Client) currentProxy() *url.URL {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.proxyURL
}

// refreshProxy acquires a proxy. forceNew marks the cached one as burned
// after a failed request.
func (c *Client) refreshProxy(ctx context.Context, forceNew bool) {
	if c.cfg.Proxy == nil {
		return
	}
	c.mu.Lock()
	cached := c.proxyURL
	c.mu.Unlock()
	if cached != nil && !forceNew {
		return
	}
	u, err := c.cfg.Proxy.Acquire(ctx, forceNew)
	if err != nil {
		c.log.Warn("proxy acquisition failed", zap.Error(err))
		u = nil
	}
	c.mu.Lock()
	c.proxyURL = u
	c.mu.Unlock()
}

// Search runs one listing query and classifies the response body as JSON or
// HTML.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	searchAPI := c.source.SearchAPI
	if searchAPI == "" {
		return nil, fmt.Errorf("source %q has no search endpoint", c.source.Name)
	}
	page := req.Page
	if page < 1 {
		page = 1
	}

	params := url.Values{}
	params.Set("channelid", c.source.ChannelID)
	params.Set("searchword", strings.Join(req.Keywords, " "))
	params.Set("page", strconv.Itoa(page))
	params.Set("perpage", strconv.Itoa(c.cfg.PerPage))
	params.Set("searchtype", "title")
	params.Set("orderby", "RELEVANCE")
	if req.StartDate != "" {
		params.Set("starttime", req.StartDate)
	}
	if req.EndDate != "" {
		params.Set("endtime", req.EndDate)
	}

	c.checkAndRotate()

	body, err := c.getWithRetry(ctx, searchAPI+"?"+params.Encode(), c.cfg.SearchTimeout)
	if err != nil {
		return nil, fmt.Errorf("search %s page %d: %w", c.source.Name, page, err)
	}

	trimmed := bytes.TrimSpace(body)
	if json.Valid(trimmed) && (bytes.HasPrefix(trimmed, []byte("{")) || bytes.HasPrefix(trimmed, []byte("["))) {
		return &SearchResult{Kind: KindJSON, Payload: trimmed}, nil
	}
	return &SearchResult{Kind: KindHTML, Payload: body}, nil
}

// getWithRetry performs a GET with the linear retry policy. A failed attempt
// burns the cached proxy so the next one runs on a fresh address.
func (c *Client) getWithRetry(ctx context.Context, rawURL string, timeout time.Duration) ([]byte, error) {
	var body []byte
	attempt := 0
	operation := func() error {
		forceNewProxy := attempt > 0
		if attempt > 0 {
			metrics.RetriesTotal.Inc()
			c.log.Info("retrying request",
				zap.String("url", rawURL),
				zap.Int("attempt", attempt+1),
				zap.Int("max_attempts", c.cfg.MaxRetries))
		}
		attempt++
		c.refreshProxy(ctx, forceNewProxy)

		var err error
		body, err = c.get(ctx, rawURL, timeout)
		if err != nil {
			c.classifyFailure(rawURL, err)
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		metrics.RequestsTotal.WithLabelValues(c.source.Name, "success").Inc()
		return nil
	}
	if err := backoff.Retry(operation, newRetryBackOff(ctx, c.cfg.RetryDelay, c.cfg.MaxRetries)); err != nil {
		return nil, err
	}
	return body, nil
}

// classifyFailure distinguishes timeout, connection, and generic failures
// for logging only; all are retried identically.
func (c *Client) classifyFailure(rawURL string, err error) {
	metrics.RequestsTotal.WithLabelValues(c.source.Name, "error").Inc()
	switch {
	case isTimeout(err):
		c.log.Warn("request timed out", zap.String("url", rawURL), zap.Error(err))
	case isConnectionError(err):
		c.log.Warn("connection failed", zap.String("url", rawURL), zap.Error(err))
	default:
		c.log.Warn("request failed", zap.String("url", rawURL), zap.Error(err))
	}
}

// get issues a single GET and returns the charset-corrected body.
func (c *Client) get(ctx context.Context, rawURL string, timeout time.Duration) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	c.setHeaders(req)

	c.mu.Lock()
	client := c.httpClient
	c.mu.Unlock()

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, rawURL)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return decodeBody(raw, resp.Header.Get("Content-Type"))
}

func (c *Client) setHeaders(req *http.Request) {
	c.mu.Lock()
	ua := c.userAgent
	c.mu.Unlock()
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Accept-Language", acceptLanguageHeader)
	req.Header.Set("X-Requested-With", requestedWithHeader)
	if c.source.BaseURL != "" {
		req.Header.Set("Referer", c.source.BaseURL)
	}
}

// Close releases idle connections.
func (c *Client) Close() {
	c.mu.Lock()
	client := c.httpClient
	c.mu.Unlock()
	if transport, ok := client.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}
