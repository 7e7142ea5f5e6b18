// Package config parses ld.so.conf-style search-path configuration files.
package config

import (
	"bufio"
	"bytes"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.trai.ch/zerr"

	"github.com/lu-zero/ldconfig/internal/core/domain"
	"github.com/lu-zero/ldconfig/internal/core/ports"
)

var _ ports.ConfigParser = (*Parser)(nil)

// Parser implements ports.ConfigParser for the ld.so.conf text format:
// one directory per line, '#' comments, "include GLOB" directives and
// "hwcap" directives kept for format compatibility.
type Parser struct {
	fs  afero.Fs
	log ports.Logger
}

// NewParser creates a Parser reading through the given filesystem.
func NewParser(fsys afero.Fs, log ports.Logger) *Parser {
	return &Parser{fs: fsys, log: log}
}

// Parse reads the configuration file at path and returns the ordered,
// deduplicated directory list. Every configured directory gets prefix
// prepended. A missing top-level file is fatal; files matched by include
// globs are tolerated when unreadable.
func (p *Parser) Parse(path, prefix string) (*domain.SearchPaths, error) {
	paths := domain.NewSearchPaths()
	visited := make(map[string]bool)
	if err := p.parseFile(path, prefix, paths, visited, true); err != nil {
		return nil, err
	}
	return paths, nil
}

func (p *Parser) parseFile(path, prefix string, paths *domain.SearchPaths, visited map[string]bool, topLevel bool) error {
	clean := filepath.Clean(path)
	if visited[clean] {
		// Include cycle: break silently and keep what was collected so far.
		return nil
	}
	visited[clean] = true

	data, err := afero.ReadFile(p.fs, clean)
	if err != nil {
		if topLevel {
			return zerr.With(zerr.Wrap(domain.ErrConfigNotFound, err.Error()), "path", clean)
		}
		p.log.Warn("skipping unreadable include: " + clean)
		return nil
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "include ") || line == "include":
			pattern := strings.TrimSpace(strings.TrimPrefix(line, "include"))
			if err := p.expandInclude(clean, pattern, prefix, paths, visited); err != nil {
				return err
			}
		case strings.HasPrefix(line, "hwcap ") || line == "hwcap":
			// Accepted syntactically for compatibility; capability
			// directories are discovered during the scan instead.
			continue
		default:
			paths.Add(applyPrefix(line, prefix))
		}
	}
	return nil
}

// expandInclude resolves an include glob, depth-first at the point of
// occurrence. Relative patterns are resolved against the directory of the
// including file.
func (p *Parser) expandInclude(from, pattern, prefix string, paths *domain.SearchPaths, visited map[string]bool) error {
	if pattern == "" {
		return zerr.With(domain.ErrBadIncludeGlob, "config", from)
	}
	if !filepath.IsAbs(pattern) {
		pattern = filepath.Join(filepath.Dir(from), pattern)
	}

	matches, err := afero.Glob(p.fs, pattern)
	if err != nil {
		// filepath.Glob only fails on malformed patterns.
		return zerr.With(zerr.Wrap(domain.ErrBadIncludeGlob, err.Error()), "pattern", pattern)
	}

	for _, match := range matches {
		info, err := p.fs.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		if err := p.parseFile(match, prefix, paths, visited, false); err != nil {
			return err
		}
	}
	return nil
}

// applyPrefix joins a sysroot prefix with an absolute configured directory.
func applyPrefix(dir, prefix string) string {
	if prefix == "" {
		return filepath.Clean(dir)
	}
	return filepath.Join(prefix, strings.TrimPrefix(dir, "/"))
}

// DefaultDirs returns the trusted directory list used when no configuration
// file exists, with the prefix applied.
func DefaultDirs(prefix string) *domain.SearchPaths {
	paths := domain.NewSearchPaths()
	for _, dir := range []string{"/lib", "/usr/lib", "/lib64", "/usr/lib64"} {
		paths.Add(applyPrefix(dir, prefix))
	}
	return paths
}
