package domain

import "go.trai.ch/zerr"

var (
	// ErrConfigNotFound is returned when the top-level configuration file cannot be read.
	ErrConfigNotFound = zerr.New("configuration file not found")

	// ErrBadIncludeGlob is returned when an include directive carries a malformed glob pattern.
	ErrBadIncludeGlob = zerr.New("malformed include glob pattern")

	// ErrBadMagic is returned when a cache buffer does not start with the expected magic string.
	ErrBadMagic = zerr.New("bad cache magic")

	// ErrTruncated is returned when declared counts or offsets imply reads past the buffer end.
	ErrTruncated = zerr.New("truncated cache buffer")

	// ErrInconsistent is returned when the legacy and modern cache sections disagree.
	ErrInconsistent = zerr.New("inconsistent cache sections")

	// ErrCacheWriteFailed is returned when the destination cache file cannot be written.
	ErrCacheWriteFailed = zerr.New("failed to write cache file")

	// ErrCacheReadFailed is returned when a cache file cannot be read from disk.
	ErrCacheReadFailed = zerr.New("failed to read cache file")

	// ErrCachesDiffer is returned by the comparison when two caches do not match.
	ErrCachesDiffer = zerr.New("caches differ")
)
