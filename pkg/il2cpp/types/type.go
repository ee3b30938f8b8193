package types

import "fmt"

const (
	attrsMask   = 0xffff
	kindShift   = 16
	kindMask    = 0xff
	numModShift = 24
	numModMask  = 0x3f
	byRefBit    = 1 << 30
	pinnedBit   = 1 << 31
)

// Type is a raw Il2CppType descriptor read from the executable image.
//
// The payload Data is interpreted by Kind:
//
//	CLASS, VALUETYPE  index into the type definition table
//	GENERICINST       address of an Il2CppGenericClass
//	ARRAY             address of an Il2CppArrayType
//	SZARRAY, PTR      address of the element Il2CppType
//	VAR, MVAR         generic parameter index
type Type struct {
	Addr    uint64 // virtual address the descriptor was read from
	Data    uint64
	Bits    uint32
	Attrs   uint16
	Kind    TypeEnum
	NumMods uint8
	ByRef   bool
	Pinned  bool
}

// DecodeType unpacks the bitfield word of an Il2CppType.
func DecodeType(data uint64, bits uint32) Type {
	return Type{
		Data:    data,
		Bits:    bits,
		Attrs:   uint16(bits & attrsMask),
		Kind:    TypeEnum((bits >> kindShift) & kindMask),
		NumMods: uint8((bits >> numModShift) & numModMask),
		ByRef:   bits&byRefBit != 0,
		Pinned:  bits&pinnedBit != 0,
	}
}

// EncodeBits is the inverse of DecodeType's bitfield unpacking.
func EncodeBits(kind TypeEnum, attrs uint16, numMods uint8, byRef, pinned bool) uint32 {
	bits := uint32(attrs) | uint32(kind)<<kindShift | uint32(numMods&numModMask)<<numModShift
	if byRef {
		bits |= byRefBit
	}
	if pinned {
		bits |= pinnedBit
	}
	return bits
}

// KlassIndex is the type definition index of a CLASS/VALUETYPE descriptor.
func (t Type) KlassIndex() int32 { return int32(t.Data) }

// GenericClass is the Il2CppGenericClass address of a GENERICINST descriptor.
func (t Type) GenericClass() uint64 { return t.Data }

// ArrayType is the Il2CppArrayType address of an ARRAY descriptor.
func (t Type) ArrayType() uint64 { return t.Data }

// ElementType is the element descriptor address of an SZARRAY/PTR descriptor.
func (t Type) ElementType() uint64 { return t.Data }

// GenericParameterIndex is the position of a VAR/MVAR parameter.
func (t Type) GenericParameterIndex() int32 { return int32(t.Data) }

func (t Type) String() string {
	return fmt.Sprintf("%s data=%#x attrs=%#04x mods=%d byref=%t pinned=%t", t.Kind, t.Data, t.Attrs, t.NumMods, t.ByRef, t.Pinned)
}
