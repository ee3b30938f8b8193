package image

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"fmt"

	"github.com/apex/log"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/types"
	"github.com/pkg/errors"
)

// dynamic section tags of interest
const (
	dtPLTGOT      = 3
	dtInitArray   = 25
	dtInitArraySz = 27
)

// ELF is a 32-bit little-endian ELF shared object (Android libil2cpp.so).
type ELF struct {
	*file
	// InitArray is the virtual address of DT_INIT_ARRAY.
	InitArray uint64
	// InitArraySize is DT_INIT_ARRAYSZ in bytes.
	InitArraySize uint64
}

// NewELF parses data as an ELF32 image.
func NewELF(data []byte) (*ELF, error) {
	ef, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(types.ErrUnsupportedContainer, "failed to parse ELF: %v", err)
	}
	if ef.Class != elf.ELFCLASS32 {
		return nil, errors.Wrapf(types.ErrUnsupportedContainer, "ELF class %s is not supported", ef.Class)
	}
	if ef.Data != elf.ELFDATA2LSB {
		return nil, errors.Wrapf(types.ErrUnsupportedContainer, "ELF data encoding %s is not supported", ef.Data)
	}

	img := &ELF{
		file: &file{
			data:   data,
			format: FormatELF,
			order:  binary.LittleEndian,
		},
	}

	switch ef.Machine {
	case elf.EM_386:
		img.arch = ArchX86
	case elf.EM_ARM:
		img.arch = ArchARM
	default:
		return nil, errors.Wrapf(types.ErrUnsupportedArchitecture, "ELF machine %s", ef.Machine)
	}

	var dynamic *elf.Prog
	for i, p := range ef.Progs {
		switch p.Type {
		case elf.PT_LOAD:
			img.segments = append(img.segments, Segment{
				Name:           fmt.Sprintf("LOAD%d", i),
				VirtualAddress: p.Vaddr,
				VirtualSize:    p.Memsz,
				FileOffset:     p.Off,
				FileSize:       p.Filesz,
			})
		case elf.PT_DYNAMIC:
			if dynamic == nil {
				dynamic = p
			}
		}
	}
	if dynamic == nil {
		return nil, errors.Wrap(types.ErrUnsupportedContainer, "ELF has no PT_DYNAMIC segment")
	}

	if err := img.walkDynamic(dynamic.Off, dynamic.Filesz); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"arch":       img.arch,
		"got":        fmt.Sprintf("%#x", img.offset),
		"init_array": fmt.Sprintf("%#x", img.InitArray),
		"candidates": len(img.search),
	}).Debug("Parsed ELF")

	return img, nil
}

// walkDynamic scans the dynamic table for the GOT and the init array and
// loads the init array entries as search locations.
func (e *ELF) walkDynamic(off, size uint64) error {
	dyn, err := e.slice(off, size)
	if err != nil {
		return err
	}
	for i := 0; i+8 <= len(dyn); i += 8 {
		tag := e.order.Uint32(dyn[i:])
		val := uint64(e.order.Uint32(dyn[i+4:]))
		switch tag {
		case dtPLTGOT:
			e.offset = val
		case dtInitArray:
			e.InitArray = val
		case dtInitArraySz:
			e.InitArraySize = val
		}
	}
	if e.offset == 0 {
		return errors.Wrap(types.ErrUnsupportedContainer, "ELF dynamic table has no DT_PLTGOT")
	}
	if e.InitArray == 0 || e.InitArraySize == 0 {
		return errors.Wrap(types.ErrUnsupportedContainer, "ELF dynamic table has no DT_INIT_ARRAY")
	}

	initOff, err := e.Map(e.InitArray)
	if err != nil {
		return errors.Wrapf(types.ErrUnsupportedContainer, "DT_INIT_ARRAY: %v", err)
	}
	e.search, err = e.words(initOff, e.InitArraySize/4, 4)
	if err != nil {
		return errors.Wrap(err, "failed to read DT_INIT_ARRAY")
	}
	return nil
}
