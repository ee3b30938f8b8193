package types

import "fmt"

// TypeEnum is the element kind stored in bits 16-23 of a packed type word.
type TypeEnum uint8

const (
	TypeEnd         TypeEnum = 0x00
	TypeVoid        TypeEnum = 0x01
	TypeBoolean     TypeEnum = 0x02
	TypeChar        TypeEnum = 0x03
	TypeI1          TypeEnum = 0x04
	TypeU1          TypeEnum = 0x05
	TypeI2          TypeEnum = 0x06
	TypeU2          TypeEnum = 0x07
	TypeI4          TypeEnum = 0x08
	TypeU4          TypeEnum = 0x09
	TypeI8          TypeEnum = 0x0a
	TypeU8          TypeEnum = 0x0b
	TypeR4          TypeEnum = 0x0c
	TypeR8          TypeEnum = 0x0d
	TypeString      TypeEnum = 0x0e
	TypePtr         TypeEnum = 0x0f
	TypeByRef       TypeEnum = 0x10
	TypeValueType   TypeEnum = 0x11
	TypeClass       TypeEnum = 0x12
	TypeVar         TypeEnum = 0x13
	TypeArray       TypeEnum = 0x14
	TypeGenericInst TypeEnum = 0x15
	TypeTypedByRef  TypeEnum = 0x16
	TypeI           TypeEnum = 0x18
	TypeU           TypeEnum = 0x19
	TypeFnPtr       TypeEnum = 0x1b
	TypeObject      TypeEnum = 0x1c
	TypeSzArray     TypeEnum = 0x1d
	TypeMVar        TypeEnum = 0x1e
	TypeCModReqd    TypeEnum = 0x1f
	TypeCModOpt     TypeEnum = 0x20
	TypeInternal    TypeEnum = 0x21
	TypeModifier    TypeEnum = 0x40
	TypeSentinel    TypeEnum = 0x41
	TypePinned      TypeEnum = 0x45
	TypeEnumeration TypeEnum = 0x55
)

var typeEnumNames = map[TypeEnum]string{
	TypeEnd:         "IL2CPP_TYPE_END",
	TypeVoid:        "IL2CPP_TYPE_VOID",
	TypeBoolean:     "IL2CPP_TYPE_BOOLEAN",
	TypeChar:        "IL2CPP_TYPE_CHAR",
	TypeI1:          "IL2CPP_TYPE_I1",
	TypeU1:          "IL2CPP_TYPE_U1",
	TypeI2:          "IL2CPP_TYPE_I2",
	TypeU2:          "IL2CPP_TYPE_U2",
	TypeI4:          "IL2CPP_TYPE_I4",
	TypeU4:          "IL2CPP_TYPE_U4",
	TypeI8:          "IL2CPP_TYPE_I8",
	TypeU8:          "IL2CPP_TYPE_U8",
	TypeR4:          "IL2CPP_TYPE_R4",
	TypeR8:          "IL2CPP_TYPE_R8",
	TypeString:      "IL2CPP_TYPE_STRING",
	TypePtr:         "IL2CPP_TYPE_PTR",
	TypeByRef:       "IL2CPP_TYPE_BYREF",
	TypeValueType:   "IL2CPP_TYPE_VALUETYPE",
	TypeClass:       "IL2CPP_TYPE_CLASS",
	TypeVar:         "IL2CPP_TYPE_VAR",
	TypeArray:       "IL2CPP_TYPE_ARRAY",
	TypeGenericInst: "IL2CPP_TYPE_GENERICINST",
	TypeTypedByRef:  "IL2CPP_TYPE_TYPEDBYREF",
	TypeI:           "IL2CPP_TYPE_I",
	TypeU:           "IL2CPP_TYPE_U",
	TypeFnPtr:       "IL2CPP_TYPE_FNPTR",
	TypeObject:      "IL2CPP_TYPE_OBJECT",
	TypeSzArray:     "IL2CPP_TYPE_SZARRAY",
	TypeMVar:        "IL2CPP_TYPE_MVAR",
	TypeCModReqd:    "IL2CPP_TYPE_CMOD_REQD",
	TypeCModOpt:     "IL2CPP_TYPE_CMOD_OPT",
	TypeInternal:    "IL2CPP_TYPE_INTERNAL",
	TypeModifier:    "IL2CPP_TYPE_MODIFIER",
	TypeSentinel:    "IL2CPP_TYPE_SENTINEL",
	TypePinned:      "IL2CPP_TYPE_PINNED",
	TypeEnumeration: "IL2CPP_TYPE_ENUM",
}

func (t TypeEnum) String() string {
	if name, ok := typeEnumNames[t]; ok {
		return name
	}
	return fmt.Sprintf("IL2CPP_TYPE_%#02x", uint8(t))
}

// displayNames is indexed by TypeEnum ordinal.
var displayNames = [...]string{
	"END",
	"void",
	"bool",
	"char",
	"sbyte",
	"byte",
	"short",
	"ushort",
	"int",
	"uint",
	"long",
	"ulong",
	"float",
	"double",
	"string",
	"PTR", // void*
	"BYREF",
	"VALUETYPE",
	"CLASS",
	"T",
	"ARRAY",
	"GENERICINST",
	"TYPEDBYREF",
	"None",
	"IntPtr",
	"UIntPtr",
	"None",
	"FNPTR",
	"object",
	"SZARRAY",
	"T",
	"CMOD_REQD",
	"CMOD_OPT",
	"INTERNAL",
}

// UnknownTypeName is returned for kinds past the end of the display table.
const UnknownTypeName = "unknown"

// DisplayName returns the C# spelling used for primitive kinds.
func (t TypeEnum) DisplayName() string {
	if int(t) >= len(displayNames) {
		return UnknownTypeName
	}
	return displayNames[t]
}

// IsPrimitive reports whether the kind is rendered from the display table
// rather than resolved through a definition or a nested descriptor.
func (t TypeEnum) IsPrimitive() bool {
	switch t {
	case TypeClass, TypeValueType, TypeGenericInst, TypeArray, TypeSzArray:
		return false
	}
	return true
}
