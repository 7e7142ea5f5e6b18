package cachefile

import (
	"fmt"
	"io"
	"iter"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/afero"
	"go.trai.ch/zerr"

	"github.com/lu-zero/ldconfig/internal/build"
	"github.com/lu-zero/ldconfig/internal/core/domain"
)

// Cache is the read facade over a decoded or freshly built cache. It
// exclusively owns its entries; they are immutable once placed here.
type Cache struct {
	entries   []domain.CacheEntry
	format    Format
	generator string
	encoded   []byte
}

// New creates a Cache from builder output. Entries are sorted into the
// deterministic on-disk order and serialized eagerly so that the encoded
// bytes, the digest and the entry views always agree.
func New(entries []domain.CacheEntry) *Cache {
	SortEntries(entries)
	generator := "ldconfig " + build.Version
	return &Cache{
		entries:   entries,
		format:    FormatDual,
		generator: generator,
		encoded:   Encode(entries, generator),
	}
}

// FromBytes decodes a cache buffer. Thin wrapper over the codec.
func FromBytes(data []byte) (*Cache, error) {
	d, err := decode(data)
	if err != nil {
		return nil, err
	}
	encoded := make([]byte, len(data))
	copy(encoded, data)
	return &Cache{
		entries:   d.entries,
		format:    d.format,
		generator: d.generator,
		encoded:   encoded,
	}, nil
}

// FromFile reads and decodes the cache file at path.
func FromFile(fsys afero.Fs, path string) (*Cache, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrCacheReadFailed, err.Error()), "path", path)
	}
	return FromBytes(data)
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Bytes returns the serialized cache.
func (c *Cache) Bytes() []byte {
	return c.encoded
}

// Entries yields every entry in cache order. Each call starts a fresh
// traversal.
func (c *Cache) Entries() iter.Seq[domain.CacheEntry] {
	return func(yield func(domain.CacheEntry) bool) {
		for _, e := range c.entries {
			if !yield(e) {
				return
			}
		}
	}
}

// Find yields entries whose name contains the query as a substring. Exact
// matches come first.
func (c *Cache) Find(name string) iter.Seq[domain.CacheEntry] {
	return func(yield func(domain.CacheEntry) bool) {
		for _, e := range c.entries {
			if e.Name == name {
				if !yield(e) {
					return
				}
			}
		}
		for _, e := range c.entries {
			if e.Name != name && strings.Contains(e.Name, name) {
				if !yield(e) {
					return
				}
			}
		}
	}
}

// Summary describes a cache for inspection and comparison tooling.
type Summary struct {
	TotalEntries int            `yaml:"total_entries"`
	Format       string         `yaml:"format"`
	Generator    string         `yaml:"generator,omitempty"`
	Digest       string         `yaml:"digest"`
	ByArch       map[string]int `yaml:"by_arch"`
}

// Info summarizes the cache: entry counts per architecture flag, the format
// detected at decode time and a content digest of the encoded bytes.
func (c *Cache) Info() Summary {
	byArch := make(map[string]int)
	for _, e := range c.entries {
		byArch[e.Flag.String()]++
	}
	return Summary{
		TotalEntries: len(c.entries),
		Format:       string(c.format),
		Generator:    c.generator,
		Digest:       fmt.Sprintf("%016x", xxhash.Sum64(c.encoded)),
		ByArch:       byArch,
	}
}

// Print renders every entry as "<name> => <path>, flag <description>".
// Human-readable only, not byte-stable.
func (c *Cache) Print(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%d libs found in cache\n", len(c.entries)); err != nil {
		return err
	}
	for _, e := range c.entries {
		if _, err := fmt.Fprintf(w, "\t%s => %s, flag %s\n", e.Name, e.Path, e.Flag); err != nil {
			return err
		}
	}
	return nil
}

// WriteFile persists the cache atomically: the bytes go to a temporary file
// in the destination directory which is then renamed into place, so a
// concurrently starting process never observes a partial cache.
func (c *Cache) WriteFile(fsys afero.Fs, path string) error {
	dir := filepath.Dir(path)
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrCacheWriteFailed, err.Error()), "path", dir)
	}

	tmp, err := afero.TempFile(fsys, dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return zerr.With(zerr.Wrap(domain.ErrCacheWriteFailed, err.Error()), "dir", dir)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(c.encoded); err != nil {
		tmp.Close()
		_ = fsys.Remove(tmpName)
		return zerr.With(zerr.Wrap(domain.ErrCacheWriteFailed, err.Error()), "path", tmpName)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		_ = fsys.Remove(tmpName)
		return zerr.With(zerr.Wrap(domain.ErrCacheWriteFailed, err.Error()), "path", tmpName)
	}
	if err := tmp.Close(); err != nil {
		_ = fsys.Remove(tmpName)
		return zerr.With(zerr.Wrap(domain.ErrCacheWriteFailed, err.Error()), "path", tmpName)
	}

	if err := fsys.Rename(tmpName, path); err != nil {
		_ = fsys.Remove(tmpName)
		return zerr.With(zerr.Wrap(domain.ErrCacheWriteFailed, err.Error()), "path", path)
	}
	return nil
}
