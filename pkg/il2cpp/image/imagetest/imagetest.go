// Package imagetest builds in-memory images for tests of code that consumes
// an image.Image.
package imagetest

import (
	"encoding/binary"
	"io"

	"github.com/blacktop/il2cppdump/pkg/il2cpp/image"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/types"
	"github.com/pkg/errors"
)

// Image is a flat little-endian image whose segments are appended as they
// are written.
type Image struct {
	data     []byte
	format   image.Format
	arch     image.Arch
	is64     bool
	offset   uint64
	segments []image.Segment
	search   []uint64
}

// New returns an empty image.
func New(arch image.Arch, is64 bool) *Image {
	return &Image{arch: arch, is64: is64}
}

// SetFormat sets the value returned by Format.
func (i *Image) SetFormat(f image.Format) *Image {
	i.format = f
	return i
}

// SetGlobalOffset sets the value returned by GlobalOffset.
func (i *Image) SetGlobalOffset(off uint64) *Image {
	i.offset = off
	return i
}

// AddSearchLocation appends a scan candidate.
func (i *Image) AddSearchLocation(addr uint64) *Image {
	i.search = append(i.search, addr)
	return i
}

// Segment maps data at virtual address addr.
func (i *Image) Segment(addr uint64, data []byte) *Image {
	i.segments = append(i.segments, image.Segment{
		Name:           "seg",
		VirtualAddress: addr,
		VirtualSize:    uint64(len(data)),
		FileOffset:     uint64(len(i.data)),
		FileSize:       uint64(len(data)),
	})
	i.data = append(i.data, data...)
	return i
}

// Writer accumulates the contents of a segment.
type Writer struct {
	Base uint64
	buf  []byte
	is64 bool
}

// NewWriter returns a segment writer starting at virtual address base.
func (i *Image) NewWriter(base uint64) *Writer {
	return &Writer{Base: base, is64: i.is64}
}

// Addr is the virtual address of the next byte written.
func (w *Writer) Addr() uint64 { return w.Base + uint64(len(w.buf)) }

func (w *Writer) Bytes(b ...byte) uint64 {
	addr := w.Addr()
	w.buf = append(w.buf, b...)
	return addr
}

func (w *Writer) Uint16(v uint16) uint64 {
	return w.Bytes(binary.LittleEndian.AppendUint16(nil, v)...)
}

func (w *Writer) Uint32(v uint32) uint64 {
	return w.Bytes(binary.LittleEndian.AppendUint32(nil, v)...)
}

func (w *Writer) Uint64(v uint64) uint64 {
	return w.Bytes(binary.LittleEndian.AppendUint64(nil, v)...)
}

// Ptr writes a pointer width word.
func (w *Writer) Ptr(v uint64) uint64 {
	if w.is64 {
		return w.Uint64(v)
	}
	return w.Uint32(uint32(v))
}

// Align pads with zeros to a multiple of n.
func (w *Writer) Align(n int) {
	for len(w.buf)%n != 0 {
		w.buf = append(w.buf, 0)
	}
}

// Fill pads with zeros up to virtual address addr.
func (w *Writer) Fill(addr uint64) {
	for w.Addr() < addr {
		w.buf = append(w.buf, 0)
	}
}

// PutUint32 patches a previously written word.
func (w *Writer) PutUint32(addr uint64, v uint32) {
	binary.LittleEndian.PutUint32(w.buf[addr-w.Base:], v)
}

// PutPtr patches a previously written pointer.
func (w *Writer) PutPtr(addr, v uint64) {
	if w.is64 {
		binary.LittleEndian.PutUint64(w.buf[addr-w.Base:], v)
		return
	}
	binary.LittleEndian.PutUint32(w.buf[addr-w.Base:], uint32(v))
}

// Commit maps the writer's contents into the image.
func (i *Image) Commit(w *Writer) *Image {
	return i.Segment(w.Base, w.buf)
}

func (i *Image) Format() image.Format        { return i.format }
func (i *Image) Arch() image.Arch            { return i.arch }
func (i *Image) Is64Bit() bool               { return i.is64 }
func (i *Image) ByteOrder() binary.ByteOrder { return binary.LittleEndian }
func (i *Image) GlobalOffset() uint64        { return i.offset }
func (i *Image) Segments() []image.Segment   { return i.segments }
func (i *Image) SearchLocations() []uint64   { return i.search }
func (i *Image) Size() int64                 { return int64(len(i.data)) }

func (i *Image) Map(addr uint64) (uint64, error) {
	for _, seg := range i.segments {
		if seg.Contains(addr) {
			return addr - seg.VirtualAddress + seg.FileOffset, nil
		}
	}
	return 0, errors.Wrapf(types.ErrUnmappedAddress, "%#x", addr)
}

func (i *Image) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(i.data)) {
		return 0, io.EOF
	}
	n := copy(p, i.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
