package scan

import (
	"encoding/binary"
	"fmt"

	"github.com/blacktop/arm64-cgo/disassemble"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/image"
	"golang.org/x/arch/arm/armasm"
	"golang.org/x/arch/x86/x86asm"
)

// Trace disassembles the first count instructions of the matched thunk.
func Trace(img image.Image, a Anchors, count int) []string {
	addr := a.Thunk
	thumb := a.Scanner == "thumb" || a.Scanner == "thumb-pcrel"
	if thumb {
		addr &^= 1
	}

	size := count * 4
	if img.Arch() == image.ArchX86 {
		size = count * 15
	}
	var buf []byte
	for ; size >= 4; size /= 2 {
		var err error
		if buf, err = image.ReadBytes(img, addr, size); err == nil {
			break
		}
	}
	if len(buf) == 0 {
		return nil
	}

	switch {
	case thumb:
		return traceThumb(addr, buf)
	case img.Arch() == image.ArchARM64:
		return traceARM64(addr, buf)
	case img.Arch() == image.ArchARM:
		return traceARM(addr, buf)
	case img.Arch() == image.ArchX86:
		return traceX86(addr, buf, count)
	}
	return nil
}

func traceARM64(addr uint64, buf []byte) []string {
	var lines []string
	var results [1024]byte
	for i := 0; i+4 <= len(buf); i += 4 {
		word := binary.LittleEndian.Uint32(buf[i:])
		pc := addr + uint64(i)
		inst, err := disassemble.Disassemble(pc, word, &results)
		if err != nil {
			lines = append(lines, fmt.Sprintf("%#08x:  %s\t.long\t%#x", pc, disassemble.GetOpCodeByteString(word), word))
			continue
		}
		lines = append(lines, fmt.Sprintf("%#08x:  %s\t%s", pc, disassemble.GetOpCodeByteString(word), inst))
	}
	return lines
}

func traceARM(addr uint64, buf []byte) []string {
	var lines []string
	for i := 0; i+4 <= len(buf); i += 4 {
		pc := addr + uint64(i)
		inst, err := armasm.Decode(buf[i:i+4], armasm.ModeARM)
		if err != nil {
			lines = append(lines, fmt.Sprintf("%#08x:  % x\t.word", pc, buf[i:i+4]))
			continue
		}
		lines = append(lines, fmt.Sprintf("%#08x:  % x\t%s", pc, buf[i:i+4], armasm.GNUSyntax(inst)))
	}
	return lines
}

// traceThumb prints raw halfwords; armasm has no Thumb decoder.
func traceThumb(addr uint64, buf []byte) []string {
	var lines []string
	for i := 0; i+4 <= len(buf); i += 4 {
		lines = append(lines, fmt.Sprintf("%#08x:  % x", addr+uint64(i), buf[i:i+4]))
	}
	return lines
}

func traceX86(addr uint64, buf []byte, count int) []string {
	var lines []string
	for i := 0; i < len(buf) && len(lines) < count; {
		pc := addr + uint64(i)
		inst, err := x86asm.Decode(buf[i:], 32)
		if err != nil {
			lines = append(lines, fmt.Sprintf("%#08x:  %02x\t(bad)", pc, buf[i]))
			i++
			continue
		}
		lines = append(lines, fmt.Sprintf("%#08x:  % x\t%s", pc, buf[i:i+inst.Len], x86asm.IntelSyntax(inst, pc, nil)))
		i += inst.Len
	}
	return lines
}
