package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// diskEnvelope is the on-disk representation of one cache entry.
type diskEnvelope struct {
	StoredAt time.Time       `json:"stored_at"`
	TTL      time.Duration   `json:"ttl"`
	Payload  json.RawMessage `json:"payload"`
}

// DiskCache implements Service with one JSON file per key under dir. The disk
// copy survives restarts; a corrupt or unreadable file is deleted and reported
// as a miss, never as an error.
type DiskCache struct {
	dir string
}

// NewDiskCache creates a disk cache rooted at dir.
func NewDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &DiskCache{dir: dir}, nil
}

func (dc *DiskCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	env := diskEnvelope{
		StoredAt: time.Now().UTC(),
		TTL:      expiration,
		Payload:  payload,
	}
	b, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	path := dc.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	return os.Rename(tmp, path)
}

func (dc *DiskCache) Get(_ context.Context, key string, dest interface{}) error {
	path := dc.path(key)
	b, err := os.ReadFile(path)
	if err != nil {
		return ErrCacheMiss
	}

	var env diskEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		_ = os.Remove(path)
		return ErrCacheMiss
	}
	if env.TTL > 0 && time.Since(env.StoredAt) > env.TTL {
		_ = os.Remove(path)
		return ErrCacheMiss
	}

	if err := json.Unmarshal(env.Payload, dest); err != nil {
		_ = os.Remove(path)
		return ErrCacheMiss
	}
	return nil
}

func (dc *DiskCache) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		_ = os.Remove(dc.path(key))
	}
	return nil
}

func (dc *DiskCache) DeleteByPrefix(_ context.Context, prefix string) error {
	entries, err := os.ReadDir(dc.dir)
	if err != nil {
		return nil
	}
	want := encodeKey(prefix)
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), want) {
			_ = os.Remove(filepath.Join(dc.dir, e.Name()))
		}
	}
	return nil
}

func (dc *DiskCache) Clear(_ context.Context) error {
	entries, err := os.ReadDir(dc.dir)
	if err != nil {
		return nil
	}
	for _, e := range entries {
		if !e.IsDir() {
			_ = os.Remove(filepath.Join(dc.dir, e.Name()))
		}
	}
	return nil
}

func (dc *DiskCache) Close() error { return nil }

func (dc *DiskCache) path(key string) string {
	return filepath.Join(dc.dir, encodeKey(key)+".json")
}

// encodeKey maps a cache key to a filename, character by character, so that
// key-prefix matching carries over to filename-prefix matching.
func encodeKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		case r == ':':
			b.WriteRune('_')
		default:
			fmt.Fprintf(&b, "%%%02x", r)
		}
	}
	return b.String()
}
