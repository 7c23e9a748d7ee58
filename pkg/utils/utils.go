// Package utils downloads remote data files and keeps local copies of them.
package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

var ErrNotFound = errors.New("file not found on server")

// DefaultCacheDir is where downloads are kept unless a Cache says otherwise.
const DefaultCacheDir = "data/cache"

type progressWriter struct {
	io.Writer
	total uint64
	last  uint64
	label string
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	pw.total += uint64(n)
	if pw.total-pw.last > 5*1024*1024 { // every 5MB
		log.Info().Str("component", "download").Str("file", pw.label).Uint64("mb", pw.total/1024/1024).Msg("downloading")
		pw.last = pw.total
	}
	return n, err
}

// Cache fetches URLs through a directory on disk.
type Cache struct {
	Dir    string
	Client *http.Client
}

// NewCache returns a Cache rooted at dir. An empty dir means DefaultCacheDir.
func NewCache(dir string) *Cache {
	if dir == "" {
		dir = DefaultCacheDir
	}
	return &Cache{Dir: dir, Client: http.DefaultClient}
}

func (c *Cache) client() *http.Client {
	if c.Client == nil {
		return http.DefaultClient
	}
	return c.Client
}

func (c *Cache) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client().Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		if err := resp.Body.Close(); err != nil {
			log.Warn().Err(err).Msg("closing response body")
		}
		if resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%s: %w", rawURL, ErrNotFound)
		}
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}
	return resp, nil
}

// DownloadFile writes the body of rawURL to dest. The file only appears at
// dest once the download is complete.
func (c *Cache) DownloadFile(ctx context.Context, rawURL, dest string) error {
	resp, err := c.get(ctx, rawURL)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Warn().Err(err).Msg("closing response body")
		}
	}()

	tmpFile, err := os.CreateTemp(filepath.Dir(dest), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmpFile.Name()
	defer func() {
		if err := os.Remove(tmpName); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("file", tmpName).Msg("removing temp file")
		}
	}()

	pw := &progressWriter{Writer: tmpFile, label: filepath.Base(dest)}
	if _, err := io.Copy(pw, resp.Body); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, dest)
}

// CacheFileName is the local name for rawURL. The label keeps files from
// different sources with the same base name apart.
func CacheFileName(rawURL, label string) string {
	name := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		name = path.Base(u.Path)
	} else if i := strings.LastIndex(rawURL, "/"); i >= 0 {
		name = rawURL[i+1:]
	}

	label = strings.Trim(label, "[]")
	label = strings.ReplaceAll(label, " ", "_")
	if label != "" {
		name = label + "_" + name
	}
	return name
}

// Cached returns the local path of rawURL if it has been downloaded.
func (c *Cache) Cached(rawURL, label string) (string, bool) {
	p := filepath.Join(c.Dir, CacheFileName(rawURL, label))
	if _, err := os.Stat(p); err != nil {
		return "", false
	}
	return p, true
}

// GetCachedReader opens rawURL. With useCache the body is downloaded once
// into the cache directory and later calls read the local copy; otherwise the
// response body is streamed.
func (c *Cache) GetCachedReader(ctx context.Context, rawURL string, useCache bool, label string) (io.ReadCloser, error) {
	logger := log.With().Str("component", "cache").Str("label", label).Logger()
	if !useCache {
		logger.Info().Str("url", rawURL).Msg("streaming")
		resp, err := c.get(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		return resp.Body, nil
	}

	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	localPath := filepath.Join(c.Dir, CacheFileName(rawURL, label))
	if _, err := os.Stat(localPath); os.IsNotExist(err) {
		logger.Info().Str("url", rawURL).Msg("downloading")
		if err := c.DownloadFile(ctx, rawURL, localPath); err != nil {
			return nil, err
		}
	} else {
		logger.Debug().Str("path", localPath).Msg("using cached file")
	}
	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	return f, nil
}
