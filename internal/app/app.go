// Package app implements the application layer for ldconfig.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"

	"github.com/lu-zero/ldconfig/internal/adapters/cachefile"
	"github.com/lu-zero/ldconfig/internal/adapters/config"
	"github.com/lu-zero/ldconfig/internal/core/domain"
	"github.com/lu-zero/ldconfig/internal/core/ports"
	"github.com/lu-zero/ldconfig/internal/engine/builder"
)

// Default locations relative to the root prefix.
const (
	defaultConfigPath = "etc/ld.so.conf"
	defaultCachePath  = "etc/ld.so.cache"
)

// App wires the configuration parser and the cache builder behind the CLI.
type App struct {
	fs      afero.Fs
	parser  ports.ConfigParser
	builder *builder.Builder
	log     ports.Logger
}

// New creates a new App instance.
func New(fsys afero.Fs, parser ports.ConfigParser, b *builder.Builder, log ports.Logger) *App {
	return &App{fs: fsys, parser: parser, builder: b, log: log}
}

// BuildOptions configures one cache build.
type BuildOptions struct {
	// ConfigPath overrides the default <root>/etc/ld.so.conf.
	ConfigPath string
	// CachePath overrides the default <root>/etc/ld.so.cache destination.
	CachePath string
	// Root is the optional sysroot prefix prepended to configured and
	// resolved paths.
	Root string
	// DryRun builds without writing the destination file.
	DryRun bool
}

// Build parses the configuration, scans the configured directories and
// writes the cache atomically. When no configuration file exists at the
// default location the built-in trusted directories are used instead.
func (a *App) Build(ctx context.Context, opts BuildOptions) error {
	paths, err := a.searchPaths(opts)
	if err != nil {
		return err
	}

	cache, err := a.builder.Build(ctx, paths)
	if err != nil {
		return zerr.Wrap(err, "cache build failed")
	}
	a.log.Info(fmt.Sprintf("built cache with %d entries from %d directories", cache.Len(), paths.Len()))

	if opts.DryRun {
		return nil
	}

	dest := opts.CachePath
	if dest == "" {
		dest = filepath.Join(opts.Root, defaultCachePath)
	}
	if err := cache.WriteFile(a.fs, dest); err != nil {
		return err
	}
	a.log.Info("wrote cache to " + dest)
	return nil
}

func (a *App) searchPaths(opts BuildOptions) (*domain.SearchPaths, error) {
	cfgPath := opts.ConfigPath
	explicit := cfgPath != ""
	if !explicit {
		cfgPath = filepath.Join(opts.Root, defaultConfigPath)
	}

	paths, err := a.parser.Parse(cfgPath, opts.Root)
	if err != nil {
		if !explicit && errors.Is(err, domain.ErrConfigNotFound) {
			// No config file on this system: fall back to the trusted set.
			a.log.Info("no configuration file found, using default directories")
			return config.DefaultDirs(opts.Root), nil
		}
		return nil, err
	}
	return paths, nil
}

// printPayload is the yaml rendering of a cache.
type printPayload struct {
	Summary cachefile.Summary   `yaml:"summary"`
	Entries []domain.CacheEntry `yaml:"entries"`
}

// Print renders the cache at path to w, either as the classic text listing
// or as yaml for tooling.
func (a *App) Print(path, format string, w io.Writer) error {
	cache, err := cachefile.FromFile(a.fs, path)
	if err != nil {
		return err
	}

	switch format {
	case "", "text":
		return cache.Print(w)
	case "yaml":
		payload := printPayload{Summary: cache.Info()}
		for e := range cache.Entries() {
			payload.Entries = append(payload.Entries, e)
		}
		data, err := yaml.Marshal(payload)
		if err != nil {
			return zerr.Wrap(err, "failed to render cache as yaml")
		}
		_, err = w.Write(data)
		return err
	default:
		return zerr.With(zerr.New("unknown output format"), "format", format)
	}
}

// Find prints every entry of the cache at path whose name contains name.
func (a *App) Find(path, name string, w io.Writer) error {
	cache, err := cachefile.FromFile(a.fs, path)
	if err != nil {
		return err
	}
	for e := range cache.Find(name) {
		if _, err := fmt.Fprintf(w, "%s => %s, flag %s\n", e.Name, e.Path, e.Flag); err != nil {
			return err
		}
	}
	return nil
}

// Compare cross-checks two cache files through the public read API only.
// It reports differences to w and returns ErrCachesDiffer when the caches
// are not equivalent.
func (a *App) Compare(pathA, pathB string, w io.Writer) error {
	ca, err := cachefile.FromFile(a.fs, pathA)
	if err != nil {
		return err
	}
	cb, err := cachefile.FromFile(a.fs, pathB)
	if err != nil {
		return err
	}

	ia, ib := ca.Info(), cb.Info()
	if ia.Digest == ib.Digest {
		fmt.Fprintf(w, "caches are byte-identical (digest %s)\n", ia.Digest)
		return nil
	}
	fmt.Fprintf(w, "digests differ: %s vs %s\n", ia.Digest, ib.Digest)
	fmt.Fprintf(w, "entries: %d vs %d\n", ia.TotalEntries, ib.TotalEntries)

	type key struct {
		name  string
		flag  domain.ArchFlag
		hwcap uint64
	}
	inA := make(map[key]domain.CacheEntry)
	for e := range ca.Entries() {
		inA[key{e.Name, e.Flag, e.HWCap}] = e
	}
	differ := false
	for e := range cb.Entries() {
		k := key{e.Name, e.Flag, e.HWCap}
		other, ok := inA[k]
		switch {
		case !ok:
			fmt.Fprintf(w, "only in %s: %s (flag %s)\n", pathB, e.Name, e.Flag)
			differ = true
		case other.Path != e.Path:
			fmt.Fprintf(w, "path mismatch for %s: %s vs %s\n", e.Name, other.Path, e.Path)
			differ = true
		}
		delete(inA, k)
	}
	for _, e := range inA {
		fmt.Fprintf(w, "only in %s: %s (flag %s)\n", pathA, e.Name, e.Flag)
		differ = true
	}

	if differ || ia.TotalEntries != ib.TotalEntries {
		return domain.ErrCachesDiffer
	}
	// Same entries but different bytes: generator or ordering drift.
	fmt.Fprintln(w, "entry sets match; byte-level differences only")
	return domain.ErrCachesDiffer
}
