package scan

import "github.com/blacktop/il2cppdump/pkg/il2cpp/image"

var (
	// push 0; push 0; push imm32 (followed by mov ecx, imm32)
	x86PushSig = []byte{0x6A, 0x00, 0x6A, 0x00, 0x68}
	// push ebp; mov ebp, esp; push ebx; and esp, -16; sub esp, 0x20; call $+5; pop ebx
	x86PICSig = []byte{0x55, 0x89, 0xE5, 0x53, 0x83, 0xE4, 0xF0, 0x83, 0xEC, 0x20, 0xE8, 0x00, 0x00, 0x00, 0x00, 0x5B}
)

const x86MovECX = 0xB9

// X86 matches the absolute-address registration thunk: the candidate pushes the
// address of the registration function, whose mov immediates hold the anchors.
type X86 struct{}

func (X86) Name() string { return "x86" }

func (X86) TryMatch(img image.Image, loc uint64) (Anchors, bool) {
	p := newCursor(img)
	off := p.mapVA(loc)
	if !p.match(off, x86PushSig) {
		return Anchors{}, false
	}
	fn := p.u32At(off + 5)
	if p.bytesAt(off+9, 1)[0] != x86MovECX {
		return Anchors{}, false
	}

	fnOff := p.mapVA(uint64(fn))
	a := Anchors{
		MetadataRegistration: uint64(p.u32At(fnOff + 6)),
		CodeRegistration:     uint64(p.u32At(fnOff + 11)),
	}
	return a, p.ok("x86")
}

// X86PIC matches the position independent thunk that addresses everything
// relative to the GOT.
type X86PIC struct{}

func (X86PIC) Name() string { return "x86-pic" }

func (X86PIC) TryMatch(img image.Image, loc uint64) (Anchors, bool) {
	p := newCursor(img)
	off := p.mapVA(loc)
	if !p.match(off, x86PICSig) {
		return Anchors{}, false
	}
	got := img.GlobalOffset()

	fnOff := p.mapVA(add32(p.u32At(off+24), got))
	a := Anchors{
		MetadataRegistration: add32(p.u32At(fnOff+0x22), got),
		CodeRegistration:     add32(p.u32At(fnOff+0x2C), got),
	}
	return a, p.ok("x86-pic")
}
