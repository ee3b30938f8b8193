package types

import "testing"

func TestDecodeType(t *testing.T) {
	tests := []struct {
		name string
		bits uint32
		want Type
	}{
		{
			name: "valuetype",
			bits: 0x00110000,
			want: Type{Bits: 0x00110000, Kind: TypeValueType},
		},
		{
			name: "static public int field",
			bits: 0x00080016,
			want: Type{Bits: 0x00080016, Kind: TypeI4, Attrs: FieldAttributePublic | FieldAttributeStatic},
		},
		{
			name: "byref pinned with modifiers",
			bits: 0xC3120001,
			want: Type{Bits: 0xC3120001, Kind: TypeClass, Attrs: 1, NumMods: 3, ByRef: true, Pinned: true},
		},
		{
			name: "num_mods saturates at six bits",
			bits: 0x3F000000,
			want: Type{Bits: 0x3F000000, Kind: TypeEnd, NumMods: 0x3f},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeType(0, tt.bits)
			if got != tt.want {
				t.Errorf("DecodeType(%#x) = %+v, want %+v", tt.bits, got, tt.want)
			}
		})
	}
}

func TestEncodeBitsRoundTrip(t *testing.T) {
	bits := EncodeBits(TypeGenericInst, 0x1234, 5, true, false)
	got := DecodeType(0xdead, bits)
	if got.Kind != TypeGenericInst || got.Attrs != 0x1234 || got.NumMods != 5 || !got.ByRef || got.Pinned {
		t.Fatalf("unexpected decode of %#x: %+v", bits, got)
	}
	if got.GenericClass() != 0xdead {
		t.Errorf("GenericClass() = %#x, want 0xdead", got.GenericClass())
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		kind TypeEnum
		want string
	}{
		{TypeVoid, "void"},
		{TypeI4, "int"},
		{TypeString, "string"},
		{TypeObject, "object"},
		{TypeVar, "T"},
		{TypeInternal, "INTERNAL"},
		{TypeModifier, UnknownTypeName},
		{TypeEnum(0xff), UnknownTypeName},
	}
	for _, tt := range tests {
		if got := tt.kind.DisplayName(); got != tt.want {
			t.Errorf("%s.DisplayName() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestTypeEnumString(t *testing.T) {
	if got := TypeSzArray.String(); got != "IL2CPP_TYPE_SZARRAY" {
		t.Errorf("String() = %q", got)
	}
	if got := TypeEnum(0x17).String(); got != "IL2CPP_TYPE_0x17" {
		t.Errorf("String() = %q", got)
	}
}
