package scan

// movImm16 extracts the imm16 of a Thumb-2 MOVW/MOVT (T3/T1 encoding) stored
// as two little-endian halfwords: imm4:i:imm3:imm8.
func movImm16(b []byte) uint32 {
	return uint32(b[2]) |
		uint32(b[3]&0x70)<<4 |
		uint32(b[1]&0x04)<<9 |
		uint32(b[0]&0x0f)<<12
}

// DecodeMovImm32 returns the 32-bit value loaded by a Thumb-2 MOVW followed by
// a MOVT (8 bytes).
func DecodeMovImm32(b []byte) uint32 {
	if len(b) < 8 {
		return 0
	}
	return movImm16(b[4:8])<<16 | movImm16(b[0:4])
}

func signExtend(v uint64, bits uint) int64 {
	shift := 64 - bits
	return int64(v<<shift) >> shift
}

// adrImm21 is immhi:immlo of an ADR/ADRP.
func adrImm21(inst uint32) uint64 {
	immlo := uint64(inst>>29) & 0x3
	immhi := uint64(inst>>5) & 0x7ffff
	return immhi<<2 | immlo
}

// DecodeADR returns the target of an arm64 ADR located at pc.
func DecodeADR(pc uint64, inst uint32) uint64 {
	return pc + uint64(signExtend(adrImm21(inst), 21))
}

// DecodeADRP returns the page address computed by an arm64 ADRP located at pc.
func DecodeADRP(pc uint64, inst uint32) uint64 {
	return pc&^0xfff + uint64(signExtend(adrImm21(inst), 21)<<12)
}

// DecodeADDImm returns the immediate of an arm64 ADD (immediate), applying the
// optional LSL #12.
func DecodeADDImm(inst uint32) uint64 {
	imm := uint64(inst>>10) & 0xfff
	if inst&(1<<22) != 0 {
		imm <<= 12
	}
	return imm
}

// add32 adds a GOT relative displacement with 32-bit wraparound.
func add32(disp uint32, base uint64) uint64 {
	return uint64(disp + uint32(base))
}
