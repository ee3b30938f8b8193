package image

import (
	"bytes"
	"fmt"

	"github.com/apex/log"
	"github.com/blacktop/go-macho"
	mtypes "github.com/blacktop/go-macho/types"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/types"
	"github.com/pkg/errors"
)

// segments whose sections are mapped
var machoSegments = map[string]bool{
	"__TEXT":       true,
	"__DATA":       true,
	"__DATA_CONST": true,
}

// MachO is an iOS executable, either thin or one slice of a universal binary.
type MachO struct {
	*file
	// SliceOffset is the offset of this slice within a universal binary.
	SliceOffset uint64
}

func archFromCPU(cpu mtypes.CPU) (Arch, bool) {
	switch cpu {
	case mtypes.CPUI386:
		return ArchX86, false
	case mtypes.CPUArm:
		return ArchARM, false
	case mtypes.CPUArm64:
		return ArchARM64, true
	}
	return ArchUnknown, false
}

// NewMachO parses data as a thin MachO.
func NewMachO(data []byte) (*MachO, error) {
	return newMachO(data, 0, uint64(len(data)), FormatMachO)
}

// NewFatMachO selects the slice matching arch from a universal MachO.
func NewFatMachO(data []byte, arch Arch) (*MachO, error) {
	fat, err := macho.NewFatFile(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(types.ErrUnsupportedContainer, "failed to parse universal MachO: %v", err)
	}
	defer fat.Close()

	var found []string
	for _, fa := range fat.Arches {
		a, _ := archFromCPU(fa.CPU)
		if a == arch {
			log.WithFields(log.Fields{
				"cpu":    fa.CPU.String(),
				"offset": fmt.Sprintf("%#x", fa.Offset),
			}).Debug("Selected universal MachO slice")
			return newMachO(data, uint64(fa.Offset), uint64(fa.Size), FormatFatMachO)
		}
		found = append(found, a.String())
	}
	return nil, errors.Wrapf(types.ErrUnsupportedArchitecture, "universal MachO has no %s slice (found %v)", arch, found)
}

// FatArches lists the architectures of a universal MachO.
func FatArches(data []byte) ([]Arch, error) {
	fat, err := macho.NewFatFile(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(types.ErrUnsupportedContainer, "failed to parse universal MachO: %v", err)
	}
	defer fat.Close()

	var arches []Arch
	for _, fa := range fat.Arches {
		if a, _ := archFromCPU(fa.CPU); a != ArchUnknown {
			arches = append(arches, a)
		}
	}
	return arches, nil
}

func newMachO(data []byte, off, size uint64, format Format) (*MachO, error) {
	if off > uint64(len(data)) || size > uint64(len(data))-off {
		return nil, errors.Wrapf(types.ErrUnsupportedContainer, "MachO slice %#x+%#x is past end of file", off, size)
	}
	m, err := macho.NewFile(bytes.NewReader(data[off : off+size]))
	if err != nil {
		return nil, errors.Wrapf(types.ErrUnsupportedContainer, "failed to parse MachO: %v", err)
	}
	defer m.Close()

	arch, is64 := archFromCPU(m.CPU)
	if arch == ArchUnknown {
		return nil, errors.Wrapf(types.ErrUnsupportedArchitecture, "MachO cpu %s", m.CPU)
	}

	img := &MachO{
		file: &file{
			data:   data,
			format: format,
			arch:   arch,
			is64:   is64,
			order:  m.ByteOrder,
			offset: off,
		},
		SliceOffset: off,
	}

	for _, sec := range m.Sections {
		if !machoSegments[sec.Seg] {
			continue
		}
		img.segments = append(img.segments, Segment{
			Name:           sec.Seg + "." + sec.Name,
			VirtualAddress: sec.Addr,
			VirtualSize:    sec.Size,
			FileOffset:     off + uint64(sec.Offset),
			FileSize:       sec.Size,
		})
	}

	initFuncs := m.Section("__DATA", "__mod_init_func")
	if initFuncs == nil {
		initFuncs = m.Section("__DATA_CONST", "__mod_init_func")
	}
	if initFuncs == nil {
		return nil, errors.Wrap(types.ErrUnsupportedContainer, "MachO has no __mod_init_func section")
	}

	ptrSize := 4
	if is64 {
		ptrSize = 8
	}
	img.search, err = img.words(off+uint64(initFuncs.Offset), initFuncs.Size/uint64(ptrSize), ptrSize)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read __mod_init_func")
	}

	log.WithFields(log.Fields{
		"arch":       arch,
		"slice":      fmt.Sprintf("%#x", off),
		"candidates": len(img.search),
	}).Debug("Parsed MachO")

	return img, nil
}
