// Package elffile inspects candidate shared objects and classifies them by
// architecture and ABI.
package elffile

import (
	"bytes"
	"debug/elf"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/lu-zero/ldconfig/internal/core/domain"
	"github.com/lu-zero/ldconfig/internal/core/ports"
)

var _ ports.Classifier = (*Classifier)(nil)

var elfMagic = []byte{0x7f, 'E', 'L', 'F'}

// ELF header e_flags bits relevant to ABI classification.
const (
	efARMABIFloatHard   = 0x400
	efRISCVFloatABIMask = 0x6
	efRISCVFloatABIDbl  = 0x4
)

// Classifier implements ports.Classifier by parsing just enough of the ELF
// header and dynamic section to obtain class, machine, ABI flags and the
// advertised soname. Anything that is not a supported shared object is
// skipped, never reported as an error: library directories are full of
// scripts, linker stubs and stale files.
type Classifier struct {
	fs afero.Fs
}

// NewClassifier creates a Classifier reading through the given filesystem.
func NewClassifier(fsys afero.Fs) *Classifier {
	return &Classifier{fs: fsys}
}

// Classify inspects the file at path. It returns (nil, nil) for entries
// that are not regular files, are unreadable, fail the ELF magic check, are
// not ET_DYN objects or target an unsupported machine.
func (c *Classifier) Classify(path string) (*domain.CandidateLibrary, error) {
	info, err := c.fs.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil, nil
	}

	f, err := c.fs.Open(path)
	if err != nil {
		return nil, nil
	}
	defer f.Close()

	var ident [16]byte
	if _, err := f.ReadAt(ident[:], 0); err != nil {
		return nil, nil
	}
	if !bytes.Equal(ident[:4], elfMagic) {
		return nil, nil
	}

	ef, err := elf.NewFile(f)
	if err != nil {
		return nil, nil
	}
	if ef.Type != elf.ET_DYN {
		return nil, nil
	}

	eflags, err := readEFlags(f, ef)
	if err != nil {
		return nil, nil
	}

	flag, ok := archFlag(ef.Machine, ef.Class, eflags)
	if !ok {
		return nil, nil
	}

	return &domain.CandidateLibrary{
		Path:   path,
		Soname: soname(ef, path),
		Flag:   flag,
	}, nil
}

// readEFlags pulls e_flags from the raw header; debug/elf does not surface
// it. Offset 0x24 for ELFCLASS32 headers, 0x30 for ELFCLASS64.
func readEFlags(r afero.File, ef *elf.File) (uint32, error) {
	off := int64(0x24)
	if ef.Class == elf.ELFCLASS64 {
		off = 0x30
	}
	var raw [4]byte
	if _, err := r.ReadAt(raw[:], off); err != nil {
		return 0, err
	}
	return ef.ByteOrder.Uint32(raw[:]), nil
}

// archFlag maps (machine, class, e_flags) to exactly one cache flag.
func archFlag(machine elf.Machine, class elf.Class, eflags uint32) (domain.ArchFlag, bool) {
	switch machine {
	case elf.EM_X86_64:
		if class == elf.ELFCLASS64 {
			return domain.ArchX8664, true
		}
		return domain.ArchGeneric, true
	case elf.EM_386:
		return domain.ArchGeneric, true
	case elf.EM_AARCH64:
		if class == elf.ELFCLASS64 {
			return domain.ArchAArch64, true
		}
		return 0, false
	case elf.EM_PPC64:
		if class == elf.ELFCLASS64 {
			return domain.ArchPowerPC64, true
		}
		return 0, false
	case elf.EM_RISCV:
		if class == elf.ELFCLASS64 && eflags&efRISCVFloatABIMask == efRISCVFloatABIDbl {
			return domain.ArchRISCV64Double, true
		}
		return 0, false
	case elf.EM_ARM:
		if eflags&efARMABIFloatHard != 0 {
			return domain.ArchARMHardFloat, true
		}
		return domain.ArchGeneric, true
	}
	return 0, false
}

// soname returns the DT_SONAME entry, falling back to the on-disk filename
// when the object does not advertise one.
func soname(ef *elf.File, path string) string {
	names, err := ef.DynString(elf.DT_SONAME)
	if err == nil && len(names) > 0 && names[0] != "" {
		return names[0]
	}
	return filepath.Base(path)
}

// IsDSO reports whether a filename looks like a dynamic shared object,
// matching glibc's _dl_is_dso check. Scans use it as a cheap prefilter
// before opening files.
func IsDSO(name string) bool {
	if strings.HasPrefix(name, "ld.so.") || strings.HasPrefix(name, "ld64.so.") {
		return true
	}
	if !strings.Contains(name, ".so") {
		return false
	}
	return strings.HasPrefix(name, "lib") || strings.HasPrefix(name, "ld-")
}

// StripVersionSuffix removes a trailing dotted-numeric version from a
// library filename for display ("libfoo.so.1.2" -> "libfoo.so"). Matching
// always uses the soname, never the stripped form.
func StripVersionSuffix(name string) string {
	i := strings.Index(name, ".so.")
	if i < 0 {
		return name
	}
	suffix := name[i+len(".so."):]
	for _, part := range strings.Split(suffix, ".") {
		if part == "" {
			return name
		}
		for j := 0; j < len(part); j++ {
			if part[j] < '0' || part[j] > '9' {
				return name
			}
		}
	}
	return name[:i+len(".so")]
}
