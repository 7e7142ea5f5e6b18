// Package builder orchestrates directory scanning and collision resolution
// to produce a deterministic cache.
package builder

import (
	"context"
	"path/filepath"
	"runtime"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/lu-zero/ldconfig/internal/adapters/cachefile"
	"github.com/lu-zero/ldconfig/internal/adapters/elffile"
	"github.com/lu-zero/ldconfig/internal/core/domain"
	"github.com/lu-zero/ldconfig/internal/core/ports"
)

// Builder scans search directories, classifies candidates and resolves
// naming collisions into a final entry list.
type Builder struct {
	fs         afero.Fs
	classifier ports.Classifier
	log        ports.Logger
}

// New creates a Builder.
func New(fsys afero.Fs, classifier ports.Classifier, log ports.Logger) *Builder {
	return &Builder{fs: fsys, classifier: classifier, log: log}
}

// entryKey is the uniqueness key of the aggregation map: at most one
// winning path per name per architecture per capability mask. Capability
// variants stay separate entries so the loader can pick the specialized
// build at runtime.
type entryKey struct {
	name  string
	flag  domain.ArchFlag
	hwcap uint64
}

// Build scans every directory in paths and returns the resulting cache.
// Directories are scanned in parallel; the merge runs sequentially in
// search-path order so collision tie-breaks stay deterministic. Unreadable
// directories and unclassifiable files are skipped, never fatal — an empty
// but valid cache is a legal result.
func (b *Builder) Build(ctx context.Context, paths *domain.SearchPaths) (*cachefile.Cache, error) {
	dirs := paths.Dirs()
	scanned := make([][]domain.CandidateLibrary, len(dirs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, dir := range dirs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			scanned[i] = b.scanDir(dir, i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	best := make(map[entryKey]domain.CandidateLibrary)
	for _, cands := range scanned {
		for _, cand := range cands {
			key := entryKey{name: cand.Soname, flag: cand.Flag, hwcap: cand.HWCap}
			incumbent, ok := best[key]
			if !ok || newerThan(cand, incumbent) {
				best[key] = cand
			}
		}
	}

	entries := make([]domain.CacheEntry, 0, len(best))
	for key, cand := range best {
		entries = append(entries, domain.CacheEntry{
			Name:      key.name,
			Path:      cand.Path,
			Flag:      cand.Flag,
			OSVersion: cand.OSVersion,
			HWCap:     cand.HWCap,
		})
	}
	return cachefile.New(entries), nil
}

// newerThan reports whether cand should replace incumbent. The incumbent
// always comes from an earlier or equal position in scan order, so it wins
// unless the candidate's filename carries a strictly newer version suffix.
func newerThan(cand, incumbent domain.CandidateLibrary) bool {
	return domain.CompareVersions(filepath.Base(cand.Path), filepath.Base(incumbent.Path)) > 0
}

// scanDir lists one directory, classifying every plausible candidate.
// Recognized hardware-capability subdirectories are scanned one level deep
// with their bitmask attached. All errors are absorbed: a messy filesystem
// must not abort the build.
func (b *Builder) scanDir(dir string, dirIndex int) []domain.CandidateLibrary {
	infos, err := afero.ReadDir(b.fs, dir)
	if err != nil {
		b.log.Warn("skipping unreadable directory: " + dir)
		return nil
	}

	var cands []domain.CandidateLibrary
	for _, info := range infos {
		name := info.Name()
		full := filepath.Join(dir, name)

		if info.IsDir() {
			if elffile.IsHWCapDir(name) {
				cands = append(cands, b.scanHWCapDir(full, name, dirIndex)...)
			}
			continue
		}
		if !elffile.IsDSO(name) {
			continue
		}
		cand, err := b.classifier.Classify(full)
		if err != nil || cand == nil {
			continue
		}
		cand.DirIndex = dirIndex
		cands = append(cands, *cand)
	}
	return cands
}

// scanHWCapDir scans a capability subdirectory, attaching the bitmask that
// matches each library's architecture.
func (b *Builder) scanHWCapDir(dir, capName string, dirIndex int) []domain.CandidateLibrary {
	infos, err := afero.ReadDir(b.fs, dir)
	if err != nil {
		return nil
	}

	var cands []domain.CandidateLibrary
	for _, info := range infos {
		name := info.Name()
		if info.IsDir() || !elffile.IsDSO(name) {
			continue
		}
		cand, err := b.classifier.Classify(filepath.Join(dir, name))
		if err != nil || cand == nil {
			continue
		}
		cand.DirIndex = dirIndex
		cand.HWCap = elffile.HWCapBit(capName, cand.Flag)
		cands = append(cands, *cand)
	}
	return cands
}
