package domain

// SearchPaths is the ordered, deduplicated list of directories to scan.
// Insertion order is scan priority: earlier directories win collision ties.
type SearchPaths struct {
	dirs []string
	seen map[string]bool
}

// NewSearchPaths creates an empty SearchPaths.
func NewSearchPaths() *SearchPaths {
	return &SearchPaths{seen: make(map[string]bool)}
}

// Add appends a directory unless it is already present. It reports whether
// the directory was added.
func (sp *SearchPaths) Add(dir string) bool {
	if sp.seen[dir] {
		return false
	}
	sp.seen[dir] = true
	sp.dirs = append(sp.dirs, dir)
	return true
}

// Dirs returns the directories in scan order.
func (sp *SearchPaths) Dirs() []string {
	return sp.dirs
}

// Len returns the number of directories.
func (sp *SearchPaths) Len() int {
	return len(sp.dirs)
}

// CandidateLibrary describes one classified shared object during a scan.
// It lives only for the duration of the scan step that produced it.
type CandidateLibrary struct {
	// Path is the resolved absolute file path.
	Path string
	// Soname is the name the object advertises via DT_SONAME, falling back
	// to the on-disk filename when the entry is absent.
	Soname string
	// Flag is the architecture flag derived from the object header.
	Flag ArchFlag
	// OSVersion is the minimum OS version requirement, zero when none.
	OSVersion uint32
	// HWCap is the hardware-capability bitmask, zero unless the candidate
	// was found in a recognized capability subdirectory.
	HWCap uint64
	// DirIndex is the index of the search directory the candidate came
	// from, used by the collision tie-break.
	DirIndex int
}

// CacheEntry is the persisted unit of the cache. Entries are unique by
// (Name, Flag, HWCap): a 32-bit and a 64-bit library may share a name, and
// a capability-specific build coexists with the plain one. They are
// immutable once placed in a cache.
type CacheEntry struct {
	Name      string   `yaml:"name"`
	Path      string   `yaml:"path"`
	Flag      ArchFlag `yaml:"flag"`
	OSVersion uint32   `yaml:"osversion,omitempty"`
	HWCap     uint64   `yaml:"hwcap,omitempty"`
}
