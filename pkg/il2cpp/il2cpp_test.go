package il2cpp_test

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/blacktop/il2cppdump/pkg/il2cpp"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/image"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/il2cpptest"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/metadata"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/metadata/metadatatest"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/scan"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/types"
)

// program declares:
//
//	namespace Game {
//	  public class Holder {
//	    int count;          // offset 0x10
//	    const bool enabled = true;
//	    const string title = "hi";
//	    int Get(Holder<int> key);  // 0x1001
//	    void Set();                // no native entry
//	  }
//	}
func program() *il2cpptest.Program {
	p := il2cpptest.New()
	b := p.Meta

	tInt := p.Primitive(types.TypeI4, types.FieldAttributePrivate)
	p.Class(1, 0)
	tHolderInt := p.GenericInst(1, 0, tInt)
	tBool := p.Primitive(types.TypeBoolean, types.FieldAttributeStatic|types.FieldAttributeLiteral)
	p.Class(0, 0)
	tString := p.Primitive(types.TypeString, types.FieldAttributeStatic|types.FieldAttributeLiteral)
	tVoid := p.Primitive(types.TypeVoid, 0)

	b.Type(metadata.TypeDefinition{
		NameIndex:      b.String("Enum"),
		NamespaceIndex: b.String("System"),
		ParentIndex:    -1,
		FieldStart:     -1,
		MethodStart:    -1,
	})
	b.Type(metadata.TypeDefinition{
		NameIndex:      b.String("Holder"),
		NamespaceIndex: b.String("Game"),
		ParentIndex:    -1,
		Flags:          types.TypeAttributePublic,
		FieldStart:     0,
		FieldCount:     3,
		MethodStart:    0,
		MethodCount:    2,
	})
	b.Image("Assembly-CSharp.dll", 0, 2)

	b.Field(metadata.FieldDefinition{NameIndex: b.String("count"), TypeIndex: tInt})
	b.Field(metadata.FieldDefinition{NameIndex: b.String("enabled"), TypeIndex: tBool})
	b.Field(metadata.FieldDefinition{NameIndex: b.String("title"), TypeIndex: tString})
	b.Default(1, tBool, []byte{0x01})
	b.Default(2, tString, append(binary.LittleEndian.AppendUint32(nil, 2), "hi"...))

	b.Method(metadata.MethodDefinition{
		NameIndex:      b.String("Get"),
		DeclaringType:  1,
		ReturnType:     tInt,
		ParameterStart: 0,
		ParameterCount: 1,
		MethodIndex:    p.MethodPointer(0x1001),
		Flags:          types.MethodAttributePublic,
	})
	b.Method(metadata.MethodDefinition{
		NameIndex:      b.String("Set"),
		DeclaringType:  1,
		ReturnType:     tVoid,
		ParameterStart: -1,
		MethodIndex:    -1,
		Flags:          types.MethodAttributePublic,
	})
	b.Parameter(metadata.ParameterDefinition{NameIndex: b.String("key"), TypeIndex: tHolderInt})
	b.Literal("Foo")
	b.Literal("Bar")

	p.FieldOffsets(1, 0x10, 0, 0)
	return p
}

func TestModel(t *testing.T) {
	m, err := program().Model()
	if err != nil {
		t.Fatalf("Model() error = %v", err)
	}

	if len(m.Images()) != 1 || len(m.TypeDefinitions()) != 2 || len(m.Methods()) != 2 ||
		len(m.Parameters()) != 1 || len(m.Fields()) != 3 {
		t.Fatalf("unexpected table sizes")
	}
	if got := m.StringLiterals(); len(got) != 2 || got[0] != "Foo" || got[1] != "Bar" {
		t.Errorf("StringLiterals() = %q", got)
	}
	if m.Anchors.Scanner != "fixed" {
		t.Errorf("Anchors.Scanner = %q", m.Anchors.Scanner)
	}

	param := m.Parameters()[0]
	if got, err := m.TypeIndexName(param.TypeIndex); err != nil || got != "Holder<int>" {
		t.Errorf("TypeIndexName(param) = %q, %v", got, err)
	}
	if got := m.FindTypeIndex("Holder<int>"); got != int(param.TypeIndex) {
		t.Errorf("FindTypeIndex(Holder<int>) = %d, want %d", got, param.TypeIndex)
	}
	if got := m.FindTypeIndex("Missing"); got != -1 {
		t.Errorf("FindTypeIndex(Missing) = %d", got)
	}
	if got := m.FindTypeDefinition("Enum"); got != 0 {
		t.Errorf("FindTypeDefinition(Enum) = %d", got)
	}

	if got, ok := m.MethodPointer(m.Methods()[0].MethodIndex); !ok || got != 0x1001 {
		t.Errorf("MethodPointer(Get) = %#x, %t", got, ok)
	}
	if _, ok := m.MethodPointer(m.Methods()[1].MethodIndex); ok {
		t.Error("MethodPointer(Set) reported a native entry")
	}
	if got, err := m.FieldOffset(1, 0); err != nil || got != 0x10 {
		t.Errorf("FieldOffset(1, 0) = %#x, %v", got, err)
	}
}

func TestDefaultValue(t *testing.T) {
	m, err := program().Model()
	if err != nil {
		t.Fatalf("Model() error = %v", err)
	}
	tests := []struct {
		field int32
		want  any
		ok    bool
	}{
		{0, nil, false},
		{1, true, true},
		{2, "hi", true},
	}
	for _, tt := range tests {
		got, ok, err := m.DefaultValue(tt.field)
		if err != nil {
			t.Errorf("DefaultValue(%d) error = %v", tt.field, err)
			continue
		}
		if ok != tt.ok || got != tt.want {
			t.Errorf("DefaultValue(%d) = %v, %t, want %v, %t", tt.field, got, ok, tt.want, tt.ok)
		}
	}
}

func TestMachOMethodPointers(t *testing.T) {
	p := program()
	p.Format = image.FormatMachO
	m, err := p.Model()
	if err != nil {
		t.Fatalf("Model() error = %v", err)
	}
	if got, _ := m.MethodPointer(0); got != 0x1000 {
		t.Errorf("MethodPointer(0) = %#x, want 0x1000", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *il2cpptest.Program)
	}{
		{"field type", func(p *il2cpptest.Program) {
			p.Meta.Field(metadata.FieldDefinition{TypeIndex: 99})
		}},
		{"method range", func(p *il2cpptest.Program) {
			p.Meta.Type(metadata.TypeDefinition{ParentIndex: -1, MethodStart: 1, MethodCount: 5})
		}},
		{"parameter type", func(p *il2cpptest.Program) {
			p.Meta.Parameter(metadata.ParameterDefinition{TypeIndex: -2})
		}},
		{"image types", func(p *il2cpptest.Program) {
			p.Meta.Image("Broken.dll", 1, 10)
		}},
		{"class definition", func(p *il2cpptest.Program) {
			p.Class(99, 0)
		}},
		{"valuetype definition", func(p *il2cpptest.Program) {
			p.ValueType(-3, 0)
		}},
		{"generic class definition", func(p *il2cpptest.Program) {
			p.GenericInst(42, 0, 0)
		}},
		{"type name", func(p *il2cpptest.Program) {
			p.Meta.Type(metadata.TypeDefinition{NameIndex: 1 << 20, ParentIndex: -1})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := program()
			tt.mutate(p)
			if _, err := p.Model(); !errors.Is(err, types.ErrIndexOutOfRange) {
				t.Errorf("Model() error = %v, want ErrIndexOutOfRange", err)
			}
		})
	}
}

type never struct{}

func (never) Name() string                                       { return "never" }
func (never) TryMatch(image.Image, uint64) (scan.Anchors, bool) { return scan.Anchors{}, false }

func TestAnchorNotFound(t *testing.T) {
	img, md, _, err := program().Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if _, err := il2cpp.New(img, md, il2cpp.Config{Scanner: never{}}); !errors.Is(err, types.ErrAnchorNotFound) {
		t.Errorf("New() error = %v, want ErrAnchorNotFound", err)
	}
}

func TestLoadErrors(t *testing.T) {
	meta := metadatatest.New().Bytes()

	if _, err := il2cpp.Load([]byte("#!/bin/sh\necho hi\n"), meta, il2cpp.Config{}); !errors.Is(err, types.ErrUnsupportedContainer) {
		t.Errorf("Load(script) error = %v, want ErrUnsupportedContainer", err)
	}
	if _, err := il2cpp.Load([]byte{0x7f, 'E', 'L', 'F'}, []byte("not metadata"), il2cpp.Config{}); !errors.Is(err, types.ErrMalformedMetadata) {
		t.Errorf("Load(bad metadata) error = %v, want ErrMalformedMetadata", err)
	}
	if _, err := il2cpp.Open("/nonexistent/libil2cpp.so", "/nonexistent/global-metadata.dat", il2cpp.Config{}); err == nil {
		t.Error("Open() of missing files succeeded")
	}
}
