package app_test

import (
	"bytes"
	"context"
	"debug/elf"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/lu-zero/ldconfig/internal/adapters/cachefile"
	"github.com/lu-zero/ldconfig/internal/adapters/config"
	"github.com/lu-zero/ldconfig/internal/adapters/elffile"
	"github.com/lu-zero/ldconfig/internal/app"
	"github.com/lu-zero/ldconfig/internal/core/domain"
	"github.com/lu-zero/ldconfig/internal/engine/builder"
)

type nopLogger struct{}

func (nopLogger) Info(string) {}
func (nopLogger) Warn(string) {}
func (nopLogger) Error(error) {}

func newApp(fs afero.Fs) *app.App {
	log := nopLogger{}
	b := builder.New(fs, elffile.NewClassifier(fs), log)
	return app.New(fs, config.NewParser(fs, log), b, log)
}

// x8664SO is a minimal header-only x86-64 shared object, just enough for
// classification.
func x8664SO() []byte {
	buf := make([]byte, 64)
	copy(buf, elf.ELFMAG)
	buf[elf.EI_CLASS] = byte(elf.ELFCLASS64)
	buf[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	buf[elf.EI_VERSION] = byte(elf.EV_CURRENT)
	le := binary.LittleEndian
	le.PutUint16(buf[16:], uint16(elf.ET_DYN))
	le.PutUint16(buf[18:], uint16(elf.EM_X86_64))
	le.PutUint32(buf[20:], 1)
	le.PutUint16(buf[0x34:], 64)
	le.PutUint16(buf[0x36:], 56)
	le.PutUint16(buf[0x3a:], 64)
	return buf
}

func seed(t *testing.T, fs afero.Fs) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, "/etc/ld.so.conf", []byte("/opt/lib\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/opt/lib/libfoo.so.1", x8664SO(), 0o755))
	require.NoError(t, afero.WriteFile(fs, "/opt/lib/libbar.so.2", x8664SO(), 0o755))
	// Garbage in the library directory must not abort or pollute the build.
	require.NoError(t, afero.WriteFile(fs, "/opt/lib/libempty.so.0", nil, 0o644))
	require.NoError(t, afero.WriteFile(fs, "/opt/lib/libnotes.so.1", []byte("plain text\n"), 0o644))
}

func TestBuild_WritesCache(t *testing.T) {
	fs := afero.NewMemMapFs()
	seed(t, fs)

	a := newApp(fs)
	require.NoError(t, a.Build(context.Background(), app.BuildOptions{}))

	c, err := cachefile.FromFile(fs, "/etc/ld.so.cache")
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	var got []domain.CacheEntry
	for e := range c.Entries() {
		got = append(got, e)
	}
	assert.Equal(t, "libbar.so.2", got[0].Name)
	assert.Equal(t, "/opt/lib/libbar.so.2", got[0].Path)
	assert.Equal(t, "libfoo.so.1", got[1].Name)
	assert.Equal(t, domain.ArchX8664, got[1].Flag)
}

func TestBuild_DryRun(t *testing.T) {
	fs := afero.NewMemMapFs()
	seed(t, fs)

	a := newApp(fs)
	require.NoError(t, a.Build(context.Background(), app.BuildOptions{DryRun: true}))

	exists, err := afero.Exists(fs, "/etc/ld.so.cache")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestBuild_DefaultDirsWithoutConfig(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/lib/libc.so.6", x8664SO(), 0o755))

	a := newApp(fs)
	require.NoError(t, a.Build(context.Background(), app.BuildOptions{}))

	c, err := cachefile.FromFile(fs, "/etc/ld.so.cache")
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
}

func TestBuild_BadIncludeGlobIsFatal(t *testing.T) {
	fs := afero.NewMemMapFs()
	// The config file exists but carries a malformed include pattern; that
	// must surface as an error, not trigger the default-directory fallback.
	require.NoError(t, afero.WriteFile(fs, "/etc/ld.so.conf", []byte("include [\n/lib\n"), 0o644))

	a := newApp(fs)
	err := a.Build(context.Background(), app.BuildOptions{DryRun: true})
	require.ErrorIs(t, err, domain.ErrBadIncludeGlob)
}

func TestBuild_ExplicitConfigMissingIsFatal(t *testing.T) {
	fs := afero.NewMemMapFs()

	a := newApp(fs)
	err := a.Build(context.Background(), app.BuildOptions{ConfigPath: "/nope/ld.so.conf"})
	require.ErrorIs(t, err, domain.ErrConfigNotFound)
}

func TestBuild_RootPrefix(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/sysroot/etc/ld.so.conf", []byte("/opt/lib\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/sysroot/opt/lib/libfoo.so.1", x8664SO(), 0o755))

	a := newApp(fs)
	require.NoError(t, a.Build(context.Background(), app.BuildOptions{Root: "/sysroot"}))

	c, err := cachefile.FromFile(fs, "/sysroot/etc/ld.so.cache")
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())
	for e := range c.Entries() {
		assert.Equal(t, "/sysroot/opt/lib/libfoo.so.1", e.Path)
	}
}

func TestPrint_Text(t *testing.T) {
	fs := afero.NewMemMapFs()
	seed(t, fs)
	a := newApp(fs)
	require.NoError(t, a.Build(context.Background(), app.BuildOptions{}))

	var buf bytes.Buffer
	require.NoError(t, a.Print("/etc/ld.so.cache", "text", &buf))
	assert.True(t, strings.HasPrefix(buf.String(), "2 libs found in cache\n"))
	assert.Contains(t, buf.String(), "\tlibfoo.so.1 => /opt/lib/libfoo.so.1, flag ")
}

func TestPrint_YAML(t *testing.T) {
	fs := afero.NewMemMapFs()
	seed(t, fs)
	a := newApp(fs)
	require.NoError(t, a.Build(context.Background(), app.BuildOptions{}))

	var buf bytes.Buffer
	require.NoError(t, a.Print("/etc/ld.so.cache", "yaml", &buf))

	var payload struct {
		Summary cachefile.Summary   `yaml:"summary"`
		Entries []domain.CacheEntry `yaml:"entries"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &payload))
	assert.Equal(t, 2, payload.Summary.TotalEntries)
	assert.Equal(t, string(cachefile.FormatDual), payload.Summary.Format)
	require.Len(t, payload.Entries, 2)
	assert.Equal(t, "libbar.so.2", payload.Entries[0].Name)
}

func TestPrint_UnknownFormat(t *testing.T) {
	fs := afero.NewMemMapFs()
	seed(t, fs)
	a := newApp(fs)
	require.NoError(t, a.Build(context.Background(), app.BuildOptions{}))

	var buf bytes.Buffer
	require.Error(t, a.Print("/etc/ld.so.cache", "json", &buf))
}

func TestFind(t *testing.T) {
	fs := afero.NewMemMapFs()
	seed(t, fs)
	a := newApp(fs)
	require.NoError(t, a.Build(context.Background(), app.BuildOptions{}))

	var buf bytes.Buffer
	require.NoError(t, a.Find("/etc/ld.so.cache", "libfoo", &buf))
	assert.Equal(t, "libfoo.so.1 => /opt/lib/libfoo.so.1, flag "+domain.ArchX8664.String()+"\n", buf.String())

	buf.Reset()
	require.NoError(t, a.Find("/etc/ld.so.cache", "libzzz", &buf))
	assert.Empty(t, buf.String())
}

func TestCompare(t *testing.T) {
	fs := afero.NewMemMapFs()
	seed(t, fs)
	a := newApp(fs)
	require.NoError(t, a.Build(context.Background(), app.BuildOptions{CachePath: "/tmp/a.cache"}))
	require.NoError(t, a.Build(context.Background(), app.BuildOptions{CachePath: "/tmp/b.cache"}))

	var buf bytes.Buffer
	require.NoError(t, a.Compare("/tmp/a.cache", "/tmp/b.cache", &buf))
	assert.Contains(t, buf.String(), "byte-identical")

	// Add a library and rebuild one side: the caches must now differ.
	require.NoError(t, afero.WriteFile(fs, "/opt/lib/libnew.so.3", x8664SO(), 0o755))
	require.NoError(t, a.Build(context.Background(), app.BuildOptions{CachePath: "/tmp/b.cache"}))

	buf.Reset()
	err := a.Compare("/tmp/a.cache", "/tmp/b.cache", &buf)
	require.ErrorIs(t, err, domain.ErrCachesDiffer)
	assert.Contains(t, buf.String(), "only in /tmp/b.cache: libnew.so.3")
}
