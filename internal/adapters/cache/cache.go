// Package cache holds recently fetched search responses for a bounded time.
// The cache can be saved to a file and loaded back, so that separate runs of
// the command line share it.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/okian/trendscope/internal/domain/model"
	"github.com/okian/trendscope/internal/domain/types"
	"github.com/okian/trendscope/pkg/metrics"
)

const (
	defaultSize = 128
	defaultTTL  = time.Hour

	fileVersion = 1

	dirMode  fs.FileMode = 0o700
	fileMode fs.FileMode = 0o600
)

// entry remembers when a response was fetched so its age survives a save
// and load cycle.
type entry struct {
	Key       string               `json:"key"`
	Response  model.SearchResponse `json:"response"`
	FetchedAt time.Time            `json:"fetched_at"`
}

type fileFormat struct {
	Version int     `json:"version"`
	Entries []entry `json:"entries"`
}

// SearchCache is a size and age bounded LRU of search responses keyed by
// the normalized request.
type SearchCache struct {
	lru *expirable.LRU[string, entry]
	ttl time.Duration
	now func() time.Time
}

// Option applies a configuration option to the cache.
type Option func(*SearchCache)

// WithClock replaces the time source used to age entries.
func WithClock(now func() time.Time) Option {
	return func(c *SearchCache) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a SearchCache. A non-positive size or ttl falls back to the default.
func New(size int, ttl time.Duration, opts ...Option) *SearchCache {
	if size <= 0 {
		size = defaultSize
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	c := &SearchCache{
		lru: expirable.NewLRU[string, entry](size, nil, ttl),
		ttl: ttl,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key identifies a search independent of keyword order and case.
func Key(keywords []string, timeframe types.Timeframe, geo types.Geo) string {
	ks := make([]string, len(keywords))
	for i, k := range keywords {
		ks[i] = strings.ToLower(strings.TrimSpace(k))
	}
	sort.Strings(ks)
	return strings.Join(ks, ",") + "|" + string(timeframe) + "|" + string(geo)
}

// Get returns the cached response for req.
func (c *SearchCache) Get(req model.SearchRequest) (model.SearchResponse, bool) {
	key := Key(req.Keywords, req.Timeframe, req.Geo)
	e, ok := c.lru.Get(key)
	if ok && c.expired(e) {
		c.lru.Remove(key)
		ok = false
	}
	if !ok {
		metrics.RecordCacheMiss()
		return nil, false
	}
	metrics.RecordCacheHit()
	return e.Response, true
}

// Add stores resp for req, replacing any older entry.
func (c *SearchCache) Add(req model.SearchRequest, resp model.SearchResponse) {
	key := Key(req.Keywords, req.Timeframe, req.Geo)
	c.lru.Add(key, entry{Key: key, Response: resp, FetchedAt: c.now()})
	metrics.UpdateCacheEntries(c.lru.Len())
}

// Purge drops every entry.
func (c *SearchCache) Purge() {
	c.lru.Purge()
	metrics.UpdateCacheEntries(0)
}

// Len returns the number of live entries.
func (c *SearchCache) Len() int { return c.lru.Len() }

func (c *SearchCache) expired(e entry) bool {
	return c.now().Sub(e.FetchedAt) >= c.ttl
}

// LoadFile adds the unexpired entries saved at path, oldest first, and
// returns how many were added. A missing file loads nothing.
func (c *SearchCache) LoadFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: read %s: %v", ErrCacheFile, path, err)
	}

	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		return 0, fmt.Errorf("%w: decode %s: %v", ErrCacheFile, path, err)
	}
	if f.Version != fileVersion {
		return 0, fmt.Errorf("%w: %s has version %d, want %d", ErrCacheFile, path, f.Version, fileVersion)
	}

	loaded := 0
	for _, e := range f.Entries {
		if e.Key == "" || c.expired(e) {
			continue
		}
		c.lru.Add(e.Key, e)
		loaded++
	}
	metrics.UpdateCacheEntries(c.lru.Len())
	return loaded, nil
}

// SaveFile writes the unexpired entries to path, replacing it atomically.
// An empty cache removes the file.
func (c *SearchCache) SaveFile(path string) error {
	f := fileFormat{Version: fileVersion}
	// Keys are ordered oldest to newest; Peek leaves recency untouched.
	for _, key := range c.lru.Keys() {
		if e, ok := c.lru.Peek(key); ok && !c.expired(e) {
			f.Entries = append(f.Entries, e)
		}
	}
	if len(f.Entries) == 0 {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: remove %s: %v", ErrCacheFile, path, err)
		}
		return nil
	}

	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrCacheFile, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrCacheFile, dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".search-cache-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheFile, err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if err := tmp.Chmod(fileMode); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: chmod: %v", ErrCacheFile, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write: %v", ErrCacheFile, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close: %v", ErrCacheFile, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: rename: %v", ErrCacheFile, err)
	}
	return nil
}
