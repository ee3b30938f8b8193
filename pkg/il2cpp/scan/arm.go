package scan

import "github.com/blacktop/il2cppdump/pkg/il2cpp/image"

var (
	// ldr r0, [pc, #0x1c]; ldr r1, [pc, #0x1c]; ldr r2, [pc, #0x1c]
	armLdrSig = []byte{0x1c, 0x00, 0x9f, 0xe5, 0x1c, 0x10, 0x9f, 0xe5, 0x1c, 0x20, 0x9f, 0xe5}
	// push.w {r11, lr}; mov r11, sp
	thumbPrologueSig = []byte{0x2d, 0xe9, 0x00, 0x48, 0xeb, 0x46}
	// movs r3, #0; movs r2, #0; pop.w {r11, lr}
	thumbEpilogueSig = []byte{0x00, 0x23, 0x00, 0x22, 0xbd, 0xe8, 0x00, 0x48}
	// movs r2, #0
	thumbMovsR2Sig = []byte{0x00, 0x22}
	// add r0, pc; add r1, pc
	thumbAddPCSig = []byte{0x78, 0x44, 0x79, 0x44}
)

// ARM matches the A32 thunk that loads its arguments from a literal pool.
type ARM struct{}

func (ARM) Name() string { return "arm" }

func (ARM) TryMatch(img image.Image, loc uint64) (Anchors, bool) {
	p := newCursor(img)
	off := p.mapVA(loc)
	if !p.match(off, armLdrSig) {
		return Anchors{}, false
	}
	got := img.GlobalOffset()

	sub := add32(p.u32At(off+0x2c), got)
	subOff := p.mapVA(sub)
	code := add32(p.u32At(subOff+0x28), got)
	ptr := add32(p.u32At(subOff+0x2c), got)
	meta := uint64(p.u32At(p.mapVA(ptr)))

	return Anchors{CodeRegistration: code, MetadataRegistration: meta}, p.ok("arm")
}

// Thumb matches the Thumb-2 thunk whose registration function builds both
// anchors with MOVW/MOVT pairs.
type Thumb struct{}

func (Thumb) Name() string { return "thumb" }

func (Thumb) TryMatch(img image.Image, loc uint64) (Anchors, bool) {
	loc &^= 1

	p := newCursor(img)
	off := p.mapVA(loc)
	if !p.match(off, thumbPrologueSig) || !p.match(off+0x16, thumbEpilogueSig) {
		return Anchors{}, false
	}

	fn := DecodeMovImm32(p.bytesAt(off+6, 8))
	pos := p.mapVA(uint64(fn))&^3 + 0x0e
	meta := DecodeMovImm32(p.bytesAt(pos, 8))
	code := DecodeMovImm32(p.bytesAt(pos+8, 8))

	return Anchors{CodeRegistration: uint64(code), MetadataRegistration: uint64(meta)}, p.ok("thumb")
}

// ThumbPCRel matches the iOS ARMv7 thunk, where MOVW/MOVT pairs hold PC
// relative displacements.
type ThumbPCRel struct{}

func (ThumbPCRel) Name() string { return "thumb-pcrel" }

func (ThumbPCRel) TryMatch(img image.Image, loc uint64) (Anchors, bool) {
	fn := uint32(loc &^ 1)

	p := newCursor(img)
	off := p.mapVA(uint64(fn))
	if !p.match(off+4, thumbMovsR2Sig) || !p.match(off+18, thumbAddPCSig) {
		return Anchors{}, false
	}

	// Thumb PC reads as the instruction address + 4
	sub := DecodeMovImm32(p.bytesAt(off+10, 8)) + fn + 24 - 1
	subOff := p.mapVA(uint64(sub))
	ptr := DecodeMovImm32(p.bytesAt(subOff, 8)) + sub + 16
	meta := p.u32At(p.mapVA(uint64(ptr)))

	pair := append(p.bytesAt(subOff+8, 4), p.bytesAt(subOff+14, 4)...)
	code := DecodeMovImm32(pair) + sub + 26

	return Anchors{CodeRegistration: uint64(code), MetadataRegistration: uint64(meta)}, p.ok("thumb-pcrel")
}
