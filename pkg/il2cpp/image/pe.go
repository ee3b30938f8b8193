package image

import (
	"encoding/binary"
	"fmt"

	"github.com/apex/log"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/types"
	"github.com/pkg/errors"
	peparser "github.com/saferwall/pe"
)

const (
	sizeOfOptionalHeader32 = 0xE0
	optionalHeader32Magic  = 0x10B
)

// PE is a 32-bit Windows PE image (GameAssembly.dll / UnityPlayer builds).
type PE struct {
	*file
	ImageBase uint64
}

func optionalHeader32(pf *peparser.File) (peparser.ImageOptionalHeader32, bool) {
	switch oh := pf.NtHeader.OptionalHeader.(type) {
	case peparser.ImageOptionalHeader32:
		return oh, true
	case *peparser.ImageOptionalHeader32:
		return *oh, oh != nil
	}
	return peparser.ImageOptionalHeader32{}, false
}

// NewPE parses data as a PE32 image.
func NewPE(data []byte) (*PE, error) {
	// headers and sections only; the data directories are read by hand below
	pf, err := peparser.NewBytes(data, &peparser.Options{Fast: true})
	if err != nil {
		return nil, errors.Wrapf(types.ErrUnsupportedContainer, "failed to open PE: %v", err)
	}
	if err := pf.Parse(); err != nil {
		return nil, errors.Wrapf(types.ErrUnsupportedContainer, "failed to parse PE: %v", err)
	}

	fh := pf.NtHeader.FileHeader
	if fh.SizeOfOptionalHeader != sizeOfOptionalHeader32 {
		return nil, errors.Wrapf(types.ErrUnsupportedContainer, "PE optional header size %#x is not PE32", fh.SizeOfOptionalHeader)
	}
	oh, ok := optionalHeader32(pf)
	if !ok || oh.Magic != optionalHeader32Magic {
		return nil, errors.Wrap(types.ErrUnsupportedContainer, "PE optional header is not PE32")
	}

	img := &PE{
		file: &file{
			data:   data,
			format: FormatPE,
			order:  binary.LittleEndian,
			offset: uint64(oh.ImageBase),
		},
		ImageBase: uint64(oh.ImageBase),
	}

	switch fh.Machine {
	case peparser.ImageFileMachineI386:
		img.arch = ArchX86
	case peparser.ImageFileMachineARM, peparser.ImageFileMachineARMNT:
		img.arch = ArchARM
	default:
		return nil, errors.Wrapf(types.ErrUnsupportedArchitecture, "PE machine %#x", uint16(fh.Machine))
	}

	var rdata *peparser.ImageSectionHeader
	for i, s := range pf.Sections {
		hdr := s.Header
		vsize := uint64(hdr.VirtualSize)
		if vsize == 0 {
			vsize = uint64(hdr.SizeOfRawData)
		}
		name := s.String()
		img.segments = append(img.segments, Segment{
			Name:           name,
			VirtualAddress: img.ImageBase + uint64(hdr.VirtualAddress),
			VirtualSize:    vsize,
			FileOffset:     uint64(hdr.PointerToRawData),
			FileSize:       uint64(hdr.SizeOfRawData),
		})
		if name == ".rdata" && rdata == nil {
			rdata = &pf.Sections[i].Header
		}
	}

	if oh.NumberOfRvaAndSizes <= uint32(peparser.ImageDirectoryEntryIAT) {
		return nil, errors.Wrap(types.ErrUnsupportedContainer, "PE has no import address table directory")
	}
	iat := oh.DataDirectory[peparser.ImageDirectoryEntryIAT]

	if rdata == nil {
		return nil, errors.Wrap(types.ErrUnsupportedContainer, "PE has no .rdata section")
	}
	if rdata.VirtualAddress != iat.VirtualAddress {
		return nil, errors.Wrapf(types.ErrUnsupportedContainer, "import address table (%#x) does not start .rdata (%#x)", iat.VirtualAddress, rdata.VirtualAddress)
	}

	// the static initializer table follows the IAT and its 8 byte terminator
	table := uint64(rdata.PointerToRawData) + uint64(iat.Size) + 8
	for off := table; off+4 <= uint64(len(data)); off += 4 {
		fn := binary.LittleEndian.Uint32(data[off:])
		if fn == 0 {
			break
		}
		img.search = append(img.search, uint64(fn)&^3)
	}

	log.WithFields(log.Fields{
		"arch":       img.arch,
		"image_base": fmt.Sprintf("%#x", img.ImageBase),
		"candidates": len(img.search),
	}).Debug("Parsed PE")

	return img, nil
}
