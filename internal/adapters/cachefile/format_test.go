package cachefile

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lu-zero/ldconfig/internal/core/domain"
)

func sampleEntries() []domain.CacheEntry {
	return []domain.CacheEntry{
		{Name: "liba.so.1", Path: "/lib/liba.so.1", Flag: domain.ArchX8664},
		{Name: "libc.so.6", Path: "/lib64/libc.so.6", Flag: domain.ArchX8664, HWCap: 0x02},
		{Name: "libc.so.6", Path: "/lib/libc.so.6", Flag: domain.ArchGeneric},
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	entries := sampleEntries()
	data := Encode(entries, "ldconfig test")

	d, err := decode(data)
	require.NoError(t, err)
	assert.Equal(t, FormatDual, d.format)
	assert.Equal(t, entries, d.entries)
	assert.Equal(t, "ldconfig test", d.generator)
}

func TestEncode_Layout(t *testing.T) {
	entries := sampleEntries()
	data := Encode(entries, "gen")

	require.Equal(t, legacyMagic, string(data[:len(legacyMagic)]))
	assert.EqualValues(t, 0, data[len(legacyMagic)])
	assert.Equal(t, uint32(len(entries)), binary.LittleEndian.Uint32(data[12:]))

	modernStart := legacyHeaderSize + len(entries)*legacyEntrySize
	require.Zero(t, modernStart%4)
	assert.Equal(t, modernMagic, string(data[modernStart:modernStart+len(modernMagic)]))
	assert.Equal(t, uint32(len(entries)), binary.LittleEndian.Uint32(data[modernStart+20:]))
	assert.EqualValues(t, endianLittle, data[modernStart+28])

	extOffset := binary.LittleEndian.Uint32(data[modernStart+32:])
	require.Zero(t, extOffset%4)
	assert.Equal(t, uint32(extensionMagic), binary.LittleEndian.Uint32(data[extOffset:]))
}

func TestEncode_Deterministic(t *testing.T) {
	entries := sampleEntries()
	assert.Equal(t, Encode(entries, "gen"), Encode(entries, "gen"))
}

func TestEncode_DeduplicatesStrings(t *testing.T) {
	entries := []domain.CacheEntry{
		{Name: "libc.so.6", Path: "/lib/libc.so.6", Flag: domain.ArchGeneric},
		{Name: "libc.so.6", Path: "/lib64/libc.so.6", Flag: domain.ArchX8664},
	}
	data := Encode(entries, "gen")

	modernStart := legacyHeaderSize + len(entries)*legacyEntrySize
	keyA := binary.LittleEndian.Uint32(data[modernStart+modernHeaderSize+4:])
	keyB := binary.LittleEndian.Uint32(data[modernStart+modernHeaderSize+modernEntrySize+4:])
	assert.Equal(t, keyA, keyB)
}

func TestDecode_Empty(t *testing.T) {
	data := Encode(nil, "gen")
	d, err := decode(data)
	require.NoError(t, err)
	assert.Empty(t, d.entries)
	assert.Equal(t, "gen", d.generator)
}

func TestDecode_ModernOnly(t *testing.T) {
	data := Encode(sampleEntries(), "gen")
	modernStart := legacyHeaderSize + len(sampleEntries())*legacyEntrySize

	d, err := decode(data[modernStart:])
	require.NoError(t, err)
	assert.Equal(t, FormatModernOnly, d.format)
	assert.Equal(t, sampleEntries(), d.entries)
	// The extension offset is relative to the full dual-format file, so the
	// generator is unreachable from the stripped buffer. That is tolerated.
	assert.Empty(t, d.generator)
}

func TestDecode_BadMagic(t *testing.T) {
	_, err := decode([]byte("definitely not a loader cache"))
	require.ErrorIs(t, err, domain.ErrBadMagic)
}

func TestDecode_Truncated(t *testing.T) {
	data := Encode(sampleEntries(), "gen")

	_, err := decode(data[:8])
	require.ErrorIs(t, err, domain.ErrTruncated)

	// Chopping inside the string table invalidates the declared length.
	modernStart := legacyHeaderSize + len(sampleEntries())*legacyEntrySize
	tableStart := modernStart + modernHeaderSize + len(sampleEntries())*modernEntrySize
	_, err = decode(data[:tableStart+3])
	require.ErrorIs(t, err, domain.ErrTruncated)
}

func TestDecode_CountMismatch(t *testing.T) {
	data := Encode(sampleEntries(), "gen")
	modernStart := legacyHeaderSize + len(sampleEntries())*legacyEntrySize
	binary.LittleEndian.PutUint32(data[modernStart+20:], 1)

	_, err := decode(data)
	require.ErrorIs(t, err, domain.ErrInconsistent)
}

func TestDecode_EntryMismatch(t *testing.T) {
	data := Encode(sampleEntries(), "gen")
	// Corrupt the first legacy entry's flags so it disagrees with its modern
	// counterpart.
	binary.LittleEndian.PutUint32(data[legacyHeaderSize:], 0xdead)

	_, err := decode(data)
	require.ErrorIs(t, err, domain.ErrInconsistent)
}

func TestDecode_StringOffsetOutOfRange(t *testing.T) {
	entries := []domain.CacheEntry{{Name: "liba.so.1", Path: "/lib/liba.so.1", Flag: domain.ArchGeneric}}
	data := Encode(entries, "gen")

	// Point both copies of the name offset past the table end; keeping them
	// equal preserves cross-section consistency so the bounds check is what
	// fires.
	modernStart := legacyHeaderSize + legacyEntrySize
	binary.LittleEndian.PutUint32(data[legacyHeaderSize+4:], 0xffff)
	binary.LittleEndian.PutUint32(data[modernStart+modernHeaderSize+4:], 0xffff)

	_, err := decode(data)
	require.ErrorIs(t, err, domain.ErrTruncated)
}

func TestSortEntries(t *testing.T) {
	entries := []domain.CacheEntry{
		{Name: "libz.so.1", Flag: domain.ArchGeneric},
		{Name: "libc.so.6", Flag: domain.ArchX8664},
		{Name: "libm.so.6", Flag: domain.ArchX8664},
		{Name: "libm.so.6", Flag: domain.ArchX8664, HWCap: 0x02},
		{Name: "libc.so.6", Flag: domain.ArchGeneric},
		{Name: "libBar.so.2", Flag: domain.ArchGeneric},
	}
	SortEntries(entries)

	assert.Equal(t, []domain.CacheEntry{
		{Name: "libBar.so.2", Flag: domain.ArchGeneric},
		{Name: "libc.so.6", Flag: domain.ArchGeneric},
		{Name: "libc.so.6", Flag: domain.ArchX8664},
		{Name: "libm.so.6", Flag: domain.ArchX8664, HWCap: 0x02},
		{Name: "libm.so.6", Flag: domain.ArchX8664},
		{Name: "libz.so.1", Flag: domain.ArchGeneric},
	}, entries)
}
