// Package image parses the native executables produced by the IL2CPP ahead-of-time
// compiler and exposes virtual address translation over their raw bytes.
package image

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/apex/log"
	"github.com/blacktop/il2cppdump/internal/magic"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/types"
	"github.com/pkg/errors"
)

// Arch is the instruction set of an image.
type Arch int

const (
	ArchUnknown Arch = iota
	ArchX86
	ArchARM
	ArchARM64
)

func (a Arch) String() string {
	switch a {
	case ArchX86:
		return "x86"
	case ArchARM:
		return "arm"
	case ArchARM64:
		return "arm64"
	default:
		return "unknown"
	}
}

// ParseArch converts a user supplied architecture name.
func ParseArch(name string) (Arch, error) {
	switch name {
	case "x86", "i386":
		return ArchX86, nil
	case "arm", "arm7", "armv7":
		return ArchARM, nil
	case "arm64", "aarch64":
		return ArchARM64, nil
	}
	return ArchUnknown, errors.Wrapf(types.ErrUnsupportedArchitecture, "unknown architecture name %q", name)
}

// Format is the container flavour of an image.
type Format int

const (
	FormatUnknown Format = iota
	FormatELF
	FormatPE
	FormatMachO
	FormatFatMachO
)

func (f Format) String() string {
	switch f {
	case FormatELF:
		return "ELF"
	case FormatPE:
		return "PE"
	case FormatMachO:
		return "MachO"
	case FormatFatMachO:
		return "Universal MachO"
	default:
		return "unknown"
	}
}

// Segment maps a range of virtual addresses onto the file.
type Segment struct {
	Name           string
	VirtualAddress uint64
	VirtualSize    uint64
	FileOffset     uint64
	FileSize       uint64
}

// Contains reports whether addr falls within [VirtualAddress, VirtualAddress+VirtualSize].
func (s Segment) Contains(addr uint64) bool {
	return s.VirtualAddress <= addr && addr <= s.VirtualAddress+s.VirtualSize
}

func (s Segment) String() string {
	return fmt.Sprintf("%-20s vaddr=%#x-%#x off=%#x filesz=%#x", s.Name, s.VirtualAddress, s.VirtualAddress+s.VirtualSize, s.FileOffset, s.FileSize)
}

// Image is a loaded executable.
type Image interface {
	io.ReaderAt
	Format() Format
	Arch() Arch
	Is64Bit() bool
	ByteOrder() binary.ByteOrder
	// GlobalOffset is the container specific bias added to some decoded
	// addresses (the GOT for ELF, the image base for PE, the slice offset
	// for a universal MachO).
	GlobalOffset() uint64
	Segments() []Segment
	// Map translates a virtual address into a file offset.
	Map(addr uint64) (uint64, error)
	// SearchLocations are the candidate addresses of the registration thunk,
	// in container order.
	SearchLocations() []uint64
	Size() int64
}

// Options control how an image is parsed.
type Options struct {
	// FatArch selects the slice of a universal MachO.
	FatArch Arch
}

// DefaultOptions selects the arm64 slice of universal binaries.
func DefaultOptions() Options {
	return Options{FatArch: ArchARM64}
}

// New parses data, choosing the container parser from its leading magic.
func New(data []byte, opts Options) (Image, error) {
	kind, err := magic.Detect(data)
	if err != nil {
		return nil, errors.Wrap(types.ErrUnsupportedContainer, err.Error())
	}
	log.WithField("container", kind.String()).Debug("Detected executable container")

	switch kind {
	case magic.ELF:
		return NewELF(data)
	case magic.PE:
		return NewPE(data)
	case magic.MachO:
		return NewMachO(data)
	case magic.FatMachO:
		if opts.FatArch == ArchUnknown {
			opts.FatArch = ArchARM64
		}
		return NewFatMachO(data, opts.FatArch)
	default:
		return nil, errors.Wrapf(types.ErrUnsupportedContainer, "%s is not an executable container", kind)
	}
}

// Open reads the file at path and parses it with New.
func Open(path string, opts Options) (Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return New(data, opts)
}

// file holds the state shared by every container parser.
type file struct {
	data     []byte
	format   Format
	arch     Arch
	is64     bool
	order    binary.ByteOrder
	offset   uint64
	segments []Segment
	search   []uint64
}

func (f *file) Format() Format              { return f.format }
func (f *file) Arch() Arch                  { return f.arch }
func (f *file) Is64Bit() bool               { return f.is64 }
func (f *file) ByteOrder() binary.ByteOrder { return f.order }
func (f *file) GlobalOffset() uint64        { return f.offset }
func (f *file) Size() int64                 { return int64(len(f.data)) }

func (f *file) Segments() []Segment {
	segs := make([]Segment, len(f.segments))
	copy(segs, f.segments)
	return segs
}

func (f *file) SearchLocations() []uint64 {
	locs := make([]uint64, len(f.search))
	copy(locs, f.search)
	return locs
}

func (f *file) Map(addr uint64) (uint64, error) {
	for _, seg := range f.segments {
		if seg.Contains(addr) {
			return addr - seg.VirtualAddress + seg.FileOffset, nil
		}
	}
	return 0, errors.Wrapf(types.ErrUnmappedAddress, "%#x", addr)
}

func (f *file) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(f.data)) {
		return 0, io.EOF
	}
	n := copy(p, f.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// slice returns n bytes at file offset off without copying.
func (f *file) slice(off, n uint64) ([]byte, error) {
	if off > uint64(len(f.data)) || n > uint64(len(f.data))-off {
		return nil, errors.Wrapf(types.ErrUnsupportedContainer, "read of %#x bytes at offset %#x is past end of file", n, off)
	}
	return f.data[off : off+n], nil
}

// words decodes count words of the given size starting at file offset off.
func (f *file) words(off, count uint64, size int) ([]uint64, error) {
	buf, err := f.slice(off, count*uint64(size))
	if err != nil {
		return nil, err
	}
	out := make([]uint64, 0, count)
	for i := uint64(0); i < count; i++ {
		if size == 8 {
			out = append(out, f.order.Uint64(buf[i*8:]))
		} else {
			out = append(out, uint64(f.order.Uint32(buf[i*4:])))
		}
	}
	return out, nil
}
