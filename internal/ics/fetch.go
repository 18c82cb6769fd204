// Package ics reads calendar feeds and turns the events of one day into
// timeline items.
package ics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cleberrangel/clickup-timeline-api/internal/logger"
)

// MaxBodyBytes caps the size of a single feed.
const MaxBodyBytes = 10 << 20

type cacheEntry struct {
	etag         string
	lastModified string
	body         []byte
}

// Fetcher downloads ICS feeds with conditional requests. The last good body
// of each URL is kept in memory and reused on 304 or when the network fails.
type Fetcher struct {
	client *http.Client

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewFetcher creates a fetcher with a 15s timeout.
func NewFetcher() *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: 15 * time.Second},
		cache:  make(map[string]cacheEntry),
	}
}

// Fetch returns the body of the feed at url.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, errors.New("ics: empty url")
	}
	log := logger.Get(ctx).With().Str("url", redactURL(url)).Logger()

	f.mu.Lock()
	cached, hasCache := f.cache[url]
	f.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ics: criar request: %w", err)
	}
	if cached.etag != "" {
		req.Header.Set("If-None-Match", cached.etag)
	}
	if cached.lastModified != "" {
		req.Header.Set("If-Modified-Since", cached.lastModified)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if hasCache {
			log.Warn().Err(err).Msg("ICS fetch falhou, usando cache")
			return cached.body, nil
		}
		return nil, fmt.Errorf("ics: fetch %s: %w", redactURL(url), err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
		if err != nil {
			return nil, fmt.Errorf("ics: ler corpo: %w", err)
		}
		f.mu.Lock()
		f.cache[url] = cacheEntry{
			etag:         resp.Header.Get("ETag"),
			lastModified: resp.Header.Get("Last-Modified"),
			body:         body,
		}
		f.mu.Unlock()
		log.Debug().Int("bytes", len(body)).Msg("ICS baixado")
		return body, nil

	case http.StatusNotModified:
		if !hasCache {
			return nil, errors.New("ics: 304 sem corpo em cache")
		}
		log.Debug().Msg("ICS não modificado")
		return cached.body, nil

	default:
		if hasCache {
			log.Warn().Int("status", resp.StatusCode).Msg("ICS status inesperado, usando cache")
			return cached.body, nil
		}
		return nil, fmt.Errorf("ics: fetch %s: status %d", redactURL(url), resp.StatusCode)
	}
}

// redactURL keeps scheme and host only, since feed URLs often embed tokens.
func redactURL(u string) string {
	i := strings.Index(u, "://")
	if i < 0 {
		return "ics://...(redacted)"
	}
	rest := u[i+3:]
	if j := strings.IndexByte(rest, '/'); j >= 0 {
		rest = rest[:j]
	}
	return u[:i+3] + rest + "/...(redacted)"
}
