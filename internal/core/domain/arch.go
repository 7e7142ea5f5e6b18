// Package domain holds the core types shared by the cache codec, the
// library classifier and the builder.
package domain

// ArchFlag identifies the addressing width, machine type and ABI variant of
// a cache entry. The numeric values are the on-disk constants from glibc's
// sysdeps/generic/ldconfig.h and form the compatibility contract with the
// dynamic loader.
type ArchFlag uint32

const (
	// FlagTypeMask selects the object-type bits of a flag value.
	FlagTypeMask ArchFlag = 0x00ff
	// FlagArchMask selects the architecture bits of a flag value.
	FlagArchMask ArchFlag = 0xff00

	// FlagELFLibc6 is the base flag shared by all libc6 entries.
	FlagELFLibc6 ArchFlag = 0x0003

	flagSparcLib64   ArchFlag = 0x0100
	flagX8664Lib64   ArchFlag = 0x0300
	flagS390Lib64    ArchFlag = 0x0400
	flagPowerPCLib64 ArchFlag = 0x0500
	flagMIPS64LibN32 ArchFlag = 0x0600
	flagMIPS64LibN64 ArchFlag = 0x0700
	flagX8664LibX32  ArchFlag = 0x0800
	flagARMLibHF     ArchFlag = 0x0900
	flagAArch64Lib64 ArchFlag = 0x0a00
	flagARMLibSF     ArchFlag = 0x0b00
	flagRISCVSoftABI ArchFlag = 0x0f00
	flagRISCVDblABI  ArchFlag = 0x1000
	flagLoongSoftABI ArchFlag = 0x1100
	flagLoongDblABI  ArchFlag = 0x1200
)

// The closed set of flags the classifier produces. Every other value decodes
// to a description but is never emitted by the builder.
const (
	// ArchGeneric covers 32-bit objects with no special ABI (i386, soft-float ARM).
	ArchGeneric = FlagELFLibc6
	// ArchX8664 marks 64-bit x86-64 libraries.
	ArchX8664 = flagX8664Lib64 | FlagELFLibc6
	// ArchAArch64 marks 64-bit AArch64 libraries.
	ArchAArch64 = flagAArch64Lib64 | FlagELFLibc6
	// ArchPowerPC64 marks 64-bit PowerPC libraries.
	ArchPowerPC64 = flagPowerPCLib64 | FlagELFLibc6
	// ArchRISCV64Double marks RISC-V lp64d (double-precision float ABI) libraries.
	ArchRISCV64Double = flagRISCVDblABI | FlagELFLibc6
	// ArchARMHardFloat marks 32-bit ARM hard-float libraries.
	ArchARMHardFloat = flagARMLibHF | FlagELFLibc6
)

var archDescriptions = map[ArchFlag]string{
	flagX8664Lib64:   "x86-64",
	flagAArch64Lib64: "AArch64",
	flagRISCVDblABI:  "RISC-V 64-bit (lp64d)",
	flagRISCVSoftABI: "RISC-V soft-float",
	flagPowerPCLib64: "PowerPC 64-bit",
	flagARMLibHF:     "ARM hard-float",
	flagARMLibSF:     "ARM soft-float",
	flagSparcLib64:   "SPARC 64-bit",
	flagS390Lib64:    "S390 64-bit",
	flagMIPS64LibN32: "MIPS N32",
	flagMIPS64LibN64: "MIPS 64-bit",
	flagX8664LibX32:  "x86-64 x32",
	flagLoongSoftABI: "LoongArch soft-float",
	flagLoongDblABI:  "LoongArch 64-bit (double)",
}

// String returns the human-readable architecture description used by the
// print rendering. It never fails; unknown values render as "unknown".
func (f ArchFlag) String() string {
	arch := f & FlagArchMask
	if arch == 0 {
		if f&FlagTypeMask == FlagELFLibc6 {
			return "ELF"
		}
		return "unknown"
	}
	if desc, ok := archDescriptions[arch]; ok {
		return desc
	}
	return "unknown"
}
