// Package ports defines the interfaces between the application core and
// its adapters.
package ports

import "github.com/lu-zero/ldconfig/internal/core/domain"

// ConfigParser parses a search-path configuration file into an ordered,
// deduplicated directory list. The optional prefix is prepended to every
// configured directory (sysroot support).
type ConfigParser interface {
	Parse(path, prefix string) (*domain.SearchPaths, error)
}
