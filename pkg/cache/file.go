package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const entryExt = ".entry"

var errCorruptEntry = errors.New("corrupt cache entry")

// FileCache stores downloaded images on disk, for the CLI and single-node
// servers.
//
// Each entry is one file under a shard directory named after the first two
// hex digits of the key hash. The file starts with a one-line JSON header
// (see [Entry]) followed by the raw image bytes. A body whose length or
// SHA-256 disagrees with the header is treated as a miss and removed.
// Writes go through a temporary file and a rename, so concurrent writers of
// the same key never leave a torn entry behind.
type FileCache struct {
	dir string
}

// Entry describes one cached image.
type Entry struct {
	Key         string    `json:"key"`
	ContentType string    `json:"content_type"`
	Size        int       `json:"size"`
	SHA256      string    `json:"sha256"`
	StoredAt    time.Time `json:"stored_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Expired reports whether the entry has a TTL that has passed at now.
func (e Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// NewFileCache creates a file-based cache in the given directory.
// The directory will be created if it doesn't exist.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string { return c.dir }

// Get retrieves an image from the cache.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)
	entry, body, err := readEntry(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if errors.Is(err, errCorruptEntry) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if entry.Expired(time.Now()) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return body, true, nil
}

// Set stores an image in the cache. The content type is sniffed from data.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	now := time.Now()
	entry := Entry{
		Key:         key,
		ContentType: http.DetectContentType(data),
		Size:        len(data),
		SHA256:      Hash(data),
		StoredAt:    now,
	}
	if ttl > 0 {
		entry.ExpiresAt = now.Add(ttl)
	}

	header, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	buf := make([]byte, 0, len(header)+1+len(data))
	buf = append(append(append(buf, header...), '\n'), data...)
	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Delete removes a value from the cache.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	err := os.Remove(c.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Entries returns the headers of all readable entries, expired ones
// included, sorted by key.
func (c *FileCache) Entries() ([]Entry, error) {
	var entries []Entry
	err := c.walk(func(path string) error {
		entry, _, err := readEntry(path)
		if err == nil {
			entries = append(entries, entry)
		}
		return nil
	})
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, err
}

// Clear removes every entry and the shard directories, and returns the
// number of entries removed.
func (c *FileCache) Clear() (int, error) {
	count := 0
	var shards []string
	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || path == c.dir {
			return err
		}
		if d.IsDir() {
			shards = append(shards, path)
			return nil
		}
		if err := os.Remove(path); err == nil && strings.HasSuffix(path, entryExt) {
			count++
		}
		return nil
	})
	for i := len(shards) - 1; i >= 0; i-- {
		_ = os.Remove(shards[i])
	}
	return count, err
}

// Close does nothing for file cache.
func (c *FileCache) Close() error {
	return nil
}

func (c *FileCache) walk(fn func(path string) error) error {
	return filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, entryExt) {
			return nil
		}
		return fn(path)
	})
}

// path converts a cache key to a file path, sharded by hash prefix.
func (c *FileCache) path(key string) string {
	hash := Hash([]byte(key))
	return filepath.Join(c.dir, hash[:2], hash[2:]+entryExt)
}

func readEntry(path string) (Entry, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, nil, err
	}
	header, body, ok := bytes.Cut(data, []byte{'\n'})
	if !ok {
		return Entry{}, nil, errCorruptEntry
	}
	var entry Entry
	if err := json.Unmarshal(header, &entry); err != nil {
		return Entry{}, nil, errCorruptEntry
	}
	if len(body) != entry.Size || Hash(body) != entry.SHA256 {
		return Entry{}, nil, errCorruptEntry
	}
	return entry, body, nil
}

// Ensure FileCache implements Cache.
var _ Cache = (*FileCache)(nil)
