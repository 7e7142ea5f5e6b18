package elffile

import "github.com/lu-zero/ldconfig/internal/core/domain"

// Hardware-capability subdirectory names recognized during scans. Libraries
// found inside them carry the matching bitmask so the loader can prefer the
// specialized build at runtime.
//
// The x86-64 values follow the glibc-hwcaps microarchitecture levels; the
// rest mirror the kernel AT_HWCAP bits for their architecture.
var hwcapDirBits = map[string]map[domain.ArchFlag]uint64{
	"x86-64-v2": {domain.ArchX8664: 0x01},
	"x86-64-v3": {domain.ArchX8664: 0x02},
	"x86-64-v4": {domain.ArchX8664: 0x04},
	"haswell":   {domain.ArchX8664: 0x02},
	"avx512":    {domain.ArchX8664: 0x04},
	"asimd":     {domain.ArchAArch64: 1 << 1},
	"neon":      {domain.ArchAArch64: 1 << 1},
	"sve2":      {domain.ArchAArch64: 1 << 2},
	"power9":    {domain.ArchPowerPC64: 1 << 0},
	"power10":   {domain.ArchPowerPC64: 1 << 1},
}

// IsHWCapDir reports whether a directory name denotes a recognized
// hardware-capability subdirectory.
func IsHWCapDir(name string) bool {
	_, ok := hwcapDirBits[name]
	return ok
}

// HWCapBit returns the capability bitmask for a library of the given
// architecture found under the named subdirectory, zero when the pairing is
// not meaningful.
func HWCapBit(name string, flag domain.ArchFlag) uint64 {
	return hwcapDirBits[name][flag]
}
