package scan

import (
	"encoding/binary"

	"github.com/blacktop/il2cppdump/pkg/il2cpp/image"
)

var (
	arm64MovX2Sig = []byte{0x02, 0x00, 0x80, 0xD2} // mov x2, #0
	arm64MovW3Sig = []byte{0x03, 0x00, 0x80, 0x52} // mov w3, #0
)

// ARM64 matches the arm64 thunk: an ADR at +16 points to the registration
// function, which materializes each anchor with an ADRP/ADD pair.
type ARM64 struct{}

func (ARM64) Name() string { return "arm64" }

func (ARM64) TryMatch(img image.Image, loc uint64) (Anchors, bool) {
	p := newCursor(img)
	off := p.mapVA(loc)
	if !p.match(off, arm64MovX2Sig) || !p.match(off+4, arm64MovW3Sig) {
		return Anchors{}, false
	}

	sub := DecodeADR(loc+16, p.inst(off+16))
	subOff := p.mapVA(sub)
	code := DecodeADRP(sub, p.inst(subOff)) + DecodeADDImm(p.inst(subOff+4))
	meta := DecodeADRP(sub+8, p.inst(subOff+8)) + DecodeADDImm(p.inst(subOff+12))

	return Anchors{CodeRegistration: code, MetadataRegistration: meta}, p.ok("arm64")
}

// inst reads a little-endian instruction word at file offset off.
func (p *cursor) inst(off uint64) uint32 {
	return binary.LittleEndian.Uint32(p.bytesAt(off, 4))
}
