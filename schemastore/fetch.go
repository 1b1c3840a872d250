package schemastore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/signadot/tomlkit/debug"
)

const maxSchemaSize = 32 << 20

// Fetch returns the raw content of the document at uri: registered content
// first, then the file system for file URIs, then the disk cache or the
// network for http and https.
func (s *Store) Fetch(ctx context.Context, uri string) ([]byte, error) {
	uri = docURI(uri)
	s.mu.RLock()
	data, ok := s.sources[uri]
	s.mu.RUnlock()
	if ok {
		return data, nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, uri, err)
	}
	switch u.Scheme {
	case "file":
		data, err := os.ReadFile(filepath.FromSlash(u.Path))
		s.count("file", err)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, uri)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFetch, err)
		}
		return data, nil
	case "http", "https":
		return s.fetchRemote(ctx, u)
	}
	return nil, fmt.Errorf("%w: unsupported scheme in %s", ErrFetch, uri)
}

func (s *Store) count(scheme string, err error) {
	res := "ok"
	if err != nil {
		res = "error"
	}
	s.metrics.fetches.WithLabelValues(scheme, res).Inc()
}

// CachePath returns where the disk cache keeps the document at a remote
// URI, "" when the store has no cache.
func (s *Store) CachePath(uri string) string {
	u, err := url.Parse(docURI(uri))
	if err != nil || s.opts.CacheDir == "" {
		return ""
	}
	return s.cachePath(u)
}

func (s *Store) cachePath(u *url.URL) string {
	if s.opts.CacheDir == "" {
		return ""
	}
	p := strings.TrimPrefix(u.EscapedPath(), "/")
	if p == "" || strings.HasSuffix(p, "/") {
		p += "index.json"
	}
	if u.RawQuery != "" {
		p += "_" + url.QueryEscape(u.RawQuery)
	}
	host := strings.ReplaceAll(u.Host, ":", "_")
	return filepath.Join(s.opts.CacheDir, host, filepath.FromSlash(p))
}

func (s *Store) fetchRemote(ctx context.Context, u *url.URL) ([]byte, error) {
	uri := u.String()
	cached, modTime, cacheErr := readCache(s.cachePath(u))
	if cacheErr == nil && (s.opts.Offline || time.Since(modTime) < s.opts.CacheTTL) {
		s.metrics.cacheHits.Inc()
		if debug.Fetch() {
			debug.Logf("cache hit %s\n", uri)
		}
		return cached, nil
	}
	if s.opts.Offline {
		return nil, fmt.Errorf("%w: %s", ErrOffline, uri)
	}
	data, err := s.download(ctx, uri)
	s.count(u.Scheme, err)
	if err != nil {
		if cacheErr == nil {
			log().Warn("using stale cached schema", "uri", uri, "error", err)
			return cached, nil
		}
		return nil, err
	}
	if p := s.cachePath(u); p != "" {
		if err := writeCache(p, data); err != nil {
			log().Warn("schema not cached", "uri", uri, "path", p, "error", err)
		}
	}
	return data, nil
}

func (s *Store) download(ctx context.Context, uri string) ([]byte, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, uri, err)
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
	defer cancel()
	if debug.Fetch() {
		debug.Logf("fetch %s\n", uri)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, uri, err)
	}
	req.Header.Set("Accept", "application/schema+json, application/json, application/yaml;q=0.9, */*;q=0.5")
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, uri, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, uri)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: %s: unexpected HTTP status %d", ErrFetch, uri, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSchemaSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, uri, err)
	}
	return data, nil
}

func readCache(p string) ([]byte, time.Time, error) {
	if p == "" {
		return nil, time.Time{}, fs.ErrNotExist
	}
	fi, err := os.Stat(p)
	if err != nil {
		return nil, time.Time{}, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, time.Time{}, err
	}
	return data, fi.ModTime(), nil
}

// writeCache replaces the cache file atomically so that concurrent
// readers, possibly in other processes, never see a partial document.
func writeCache(p string, data []byte) error {
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".fetch-*")
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return err
	}
	return os.Rename(f.Name(), p)
}
