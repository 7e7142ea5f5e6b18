// Package cachefile implements the binary codec for dynamic-linker cache
// files and the read-side facade over decoded caches.
//
// The on-disk layout is the dual-format contract consumed by the loader:
// a legacy section ("ld.so-1.7.0"), a 4-byte-aligned modern section
// ("glibc-ld.so.cache1.1"), a shared string table referenced by offsets
// relative to the table start, and an optional extension block carrying the
// generator string. Everything is little-endian.
package cachefile

import (
	"bytes"
	"encoding/binary"
	"sort"

	"go.trai.ch/zerr"

	"github.com/lu-zero/ldconfig/internal/core/domain"
)

const (
	legacyMagic = "ld.so-1.7.0"
	modernMagic = "glibc-ld.so.cache1.1"

	legacyHeaderSize = 16
	legacyEntrySize  = 12
	modernHeaderSize = 48
	modernEntrySize  = 24

	extensionMagic        = 0xEAA42174
	extensionTagGenerator = 0

	// Header endianness marker: 0 unset, 1 invalid, 2 little, 3 big.
	endianLittle = 2
)

type legacyHeader struct {
	Magic [12]byte // legacyMagic plus NUL terminator
	NLibs uint32
}

type legacyEntry struct {
	Flags      int32
	Key, Value uint32 // offsets into the string table
}

type modernHeader struct {
	Magic      [20]byte
	NLibs      uint32
	LenStrings uint32
	Flags      uint8
	_          [3]byte
	ExtOffset  uint32
	_          [12]byte
}

type modernEntry struct {
	Flags      int32
	Key, Value uint32
	OSVersion  uint32
	HWCap      uint64
}

type extensionHeader struct {
	Magic uint32
	Count uint32
}

type extensionSection struct {
	Tag    uint32
	Flags  uint32
	Offset uint32 // absolute file offset
	Size   uint32
}

// Format identifies which sections a decoded buffer carried.
type Format string

const (
	// FormatDual is the compatibility layout with both sections.
	FormatDual Format = "legacy+modern"
	// FormatModernOnly is a buffer starting directly with the modern header.
	FormatModernOnly Format = "modern"
)

// Encode serializes entries into the dual-format byte layout. Entries are
// written in the order given; callers own the ordering contract. The string
// table is deduplicated by exact string, and one generator extension is
// appended.
func Encode(entries []domain.CacheEntry, generator string) []byte {
	strings := newStringTable()
	for _, e := range entries {
		strings.add(e.Name)
		strings.add(e.Path)
	}

	var buf bytes.Buffer

	var lh legacyHeader
	copy(lh.Magic[:], legacyMagic)
	lh.NLibs = uint32(len(entries))
	_ = binary.Write(&buf, binary.LittleEndian, &lh)
	for _, e := range entries {
		_ = binary.Write(&buf, binary.LittleEndian, legacyEntry{
			Flags: int32(e.Flag),
			Key:   strings.offset(e.Name),
			Value: strings.offset(e.Path),
		})
	}

	// The legacy section ends 4-byte aligned (16 + 12n), so the modern
	// header starts without padding.
	var mh modernHeader
	copy(mh.Magic[:], modernMagic)
	mh.NLibs = uint32(len(entries))
	mh.LenStrings = uint32(len(strings.blob))
	mh.Flags = endianLittle
	extOffsetPos := buf.Len() + 20 + 4 + 4 + 1 + 3
	_ = binary.Write(&buf, binary.LittleEndian, &mh)
	for _, e := range entries {
		_ = binary.Write(&buf, binary.LittleEndian, modernEntry{
			Flags:     int32(e.Flag),
			Key:       strings.offset(e.Name),
			Value:     strings.offset(e.Path),
			OSVersion: e.OSVersion,
			HWCap:     e.HWCap,
		})
	}

	buf.Write(strings.blob)
	for buf.Len()%4 != 0 {
		buf.WriteByte(0)
	}

	extOffset := uint32(buf.Len())
	_ = binary.Write(&buf, binary.LittleEndian, extensionHeader{Magic: extensionMagic, Count: 1})
	_ = binary.Write(&buf, binary.LittleEndian, extensionSection{
		Tag:    extensionTagGenerator,
		Offset: extOffset + 8 + 16,
		Size:   uint32(len(generator)),
	})
	buf.WriteString(generator)
	buf.WriteByte(0)

	out := buf.Bytes()
	binary.LittleEndian.PutUint32(out[extOffsetPos:], extOffset)
	return out
}

// decoded is the raw result of pulling a buffer apart, before the facade
// materializes entry strings.
type decoded struct {
	format    Format
	entries   []domain.CacheEntry
	generator string
}

// decode validates and deserializes a cache buffer. Any violation of the
// layout fails with the offending offset attached; no partial result is
// ever returned.
func decode(data []byte) (*decoded, error) {
	if len(data) >= len(modernMagic) && string(data[:len(modernMagic)]) == modernMagic {
		return decodeModern(data, 0, nil, FormatModernOnly)
	}

	if len(data) < legacyHeaderSize {
		return nil, zerr.With(domain.ErrTruncated, "len", len(data))
	}
	var lh legacyHeader
	r := bytes.NewReader(data)
	_ = binary.Read(r, binary.LittleEndian, &lh)
	if string(lh.Magic[:len(legacyMagic)]) != legacyMagic {
		return nil, zerr.With(domain.ErrBadMagic, "offset", 0)
	}

	nlibs := int(lh.NLibs)
	legacyEnd := legacyHeaderSize + nlibs*legacyEntrySize
	if legacyEnd > len(data) {
		return nil, zerr.With(domain.ErrTruncated, "nlibs", nlibs)
	}
	legacy := make([]legacyEntry, nlibs)
	if err := binary.Read(r, binary.LittleEndian, legacy); err != nil {
		return nil, zerr.Wrap(err, "failed to read legacy entries")
	}

	return decodeModern(data, legacyEnd, legacy, FormatDual)
}

func decodeModern(data []byte, start int, legacy []legacyEntry, format Format) (*decoded, error) {
	if start+modernHeaderSize > len(data) {
		return nil, zerr.With(domain.ErrTruncated, "offset", start)
	}
	r := bytes.NewReader(data[start:])
	var mh modernHeader
	_ = binary.Read(r, binary.LittleEndian, &mh)
	if string(mh.Magic[:]) != modernMagic {
		return nil, zerr.With(domain.ErrBadMagic, "offset", start)
	}

	nlibs := int(mh.NLibs)
	if legacy != nil && len(legacy) != nlibs {
		return nil, zerr.With(zerr.With(domain.ErrInconsistent, "legacy_nlibs", len(legacy)), "modern_nlibs", nlibs)
	}

	tableStart := start + modernHeaderSize + nlibs*modernEntrySize
	tableEnd := tableStart + int(mh.LenStrings)
	if tableStart > len(data) || tableEnd > len(data) {
		return nil, zerr.With(zerr.With(domain.ErrTruncated, "string_table_end", tableEnd), "len", len(data))
	}
	table := data[tableStart:tableEnd]

	raw := make([]modernEntry, nlibs)
	if err := binary.Read(r, binary.LittleEndian, raw); err != nil {
		return nil, zerr.Wrap(err, "failed to read modern entries")
	}

	entries := make([]domain.CacheEntry, 0, nlibs)
	for i, me := range raw {
		if legacy != nil {
			le := legacy[i]
			if le.Flags != me.Flags || le.Key != me.Key || le.Value != me.Value {
				return nil, zerr.With(domain.ErrInconsistent, "entry", i)
			}
		}
		name, err := tableString(table, me.Key)
		if err != nil {
			return nil, zerr.With(zerr.With(err, "entry", i), "offset", me.Key)
		}
		path, err := tableString(table, me.Value)
		if err != nil {
			return nil, zerr.With(zerr.With(err, "entry", i), "offset", me.Value)
		}
		entries = append(entries, domain.CacheEntry{
			Name:      name,
			Path:      path,
			Flag:      domain.ArchFlag(uint32(me.Flags)),
			OSVersion: me.OSVersion,
			HWCap:     me.HWCap,
		})
	}

	generator := decodeExtensions(data, int(mh.ExtOffset))

	return &decoded{format: format, entries: entries, generator: generator}, nil
}

// decodeExtensions is deliberately forgiving: the extension block is
// informational, so unknown tags and out-of-range descriptors are skipped
// rather than failing the decode.
func decodeExtensions(data []byte, extOffset int) string {
	if extOffset <= 0 || extOffset+8 > len(data) {
		return ""
	}
	if binary.LittleEndian.Uint32(data[extOffset:]) != extensionMagic {
		return ""
	}
	count := int(binary.LittleEndian.Uint32(data[extOffset+4:]))
	for i := 0; i < count; i++ {
		secOff := extOffset + 8 + i*16
		if secOff+16 > len(data) {
			return ""
		}
		tag := binary.LittleEndian.Uint32(data[secOff:])
		dataOff := int(binary.LittleEndian.Uint32(data[secOff+8:]))
		size := int(binary.LittleEndian.Uint32(data[secOff+12:]))
		if tag == extensionTagGenerator && dataOff+size <= len(data) {
			return string(data[dataOff : dataOff+size])
		}
	}
	return ""
}

// tableString resolves a string-table offset to its NUL-terminated run.
func tableString(table []byte, off uint32) (string, error) {
	if int64(off) >= int64(len(table)) {
		return "", domain.ErrTruncated
	}
	end := bytes.IndexByte(table[off:], 0)
	if end < 0 {
		return "", domain.ErrTruncated
	}
	return string(table[off : int(off)+end]), nil
}

// stringTable accumulates deduplicated NUL-terminated strings.
type stringTable struct {
	blob    []byte
	offsets map[string]uint32
}

func newStringTable() *stringTable {
	return &stringTable{offsets: make(map[string]uint32)}
}

func (st *stringTable) add(s string) {
	if _, ok := st.offsets[s]; ok {
		return
	}
	st.offsets[s] = uint32(len(st.blob))
	st.blob = append(st.blob, s...)
	st.blob = append(st.blob, 0)
}

func (st *stringTable) offset(s string) uint32 {
	return st.offsets[s]
}

// SortEntries orders entries by name bytewise, then by flag, then by
// descending capability mask so specialized variants precede the plain
// build. This ordering is consumed by tooling that diffs cache contents and
// must stay stable.
func SortEntries(entries []domain.CacheEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Name != entries[j].Name {
			return entries[i].Name < entries[j].Name
		}
		if entries[i].Flag != entries[j].Flag {
			return entries[i].Flag < entries[j].Flag
		}
		return entries[i].HWCap > entries[j].HWCap
	})
}
