package image

import (
	"encoding/binary"
	"io"

	"github.com/blacktop/il2cppdump/pkg/il2cpp/types"
	"github.com/pkg/errors"
)

// PointerSize returns the width in bytes of a native pointer in img.
func PointerSize(img Image) int {
	if img.Is64Bit() {
		return 8
	}
	return 4
}

// ReadAt reads n bytes at file offset off.
func ReadAt(img Image, off uint64, n int) ([]byte, error) {
	if n < 0 || off > uint64(img.Size()) || uint64(n) > uint64(img.Size())-off {
		return nil, errors.Wrapf(io.ErrUnexpectedEOF, "read of %#x bytes at offset %#x", n, off)
	}
	buf := make([]byte, n)
	if _, err := img.ReadAt(buf, int64(off)); err != nil && err != io.EOF {
		return nil, err
	}
	return buf, nil
}

// ReadBytes reads n bytes at virtual address addr.
func ReadBytes(img Image, addr uint64, n int) ([]byte, error) {
	off, err := img.Map(addr)
	if err != nil {
		return nil, err
	}
	return ReadAt(img, off, n)
}

// ReadUint32 reads a 32-bit word at virtual address addr.
func ReadUint32(img Image, addr uint64) (uint32, error) {
	buf, err := ReadBytes(img, addr, 4)
	if err != nil {
		return 0, err
	}
	return img.ByteOrder().Uint32(buf), nil
}

// ReadPointer reads a pointer width word at virtual address addr.
func ReadPointer(img Image, addr uint64) (uint64, error) {
	buf, err := ReadBytes(img, addr, PointerSize(img))
	if err != nil {
		return 0, err
	}
	return decodeWord(img.ByteOrder(), buf, len(buf)), nil
}

// ReadPointers reads count pointer width words starting at virtual address addr.
func ReadPointers(img Image, addr, count uint64) ([]uint64, error) {
	size := uint64(PointerSize(img))
	if count > uint64(img.Size())/size {
		return nil, errors.Wrapf(types.ErrIndexOutOfRange, "pointer array of %d entries at %#x exceeds image size", count, addr)
	}
	buf, err := ReadBytes(img, addr, int(count*size))
	if err != nil {
		return nil, err
	}
	out := make([]uint64, count)
	for i := range out {
		out[i] = decodeWord(img.ByteOrder(), buf[uint64(i)*size:], int(size))
	}
	return out, nil
}

func decodeWord(order binary.ByteOrder, b []byte, size int) uint64 {
	if size == 8 {
		return order.Uint64(b)
	}
	return uint64(order.Uint32(b))
}
