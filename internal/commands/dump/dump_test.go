package dump

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blacktop/il2cppdump/pkg/il2cpp"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/il2cpptest"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/metadata"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/types"
)

const (
	public  = types.FieldAttributePublic
	private = types.FieldAttributePrivate
	konst   = types.FieldAttributePublic | types.FieldAttributeStatic | types.FieldAttributeLiteral
)

// model declares:
//
//	namespace System { class Enum }
//	namespace Holoholo.Rpc {
//	  public enum Team { Blue = 1, Red = 2 }
//	  [Serializable] public sealed class PlayerData {
//	    const int NameFieldNumber = 1, TeamFieldNumber = 2, StatsFieldNumber = 3;
//	    string name_; Team team_; RepeatedField<Stat> stats_;
//	    string get_Name(); Team get_Team(); RepeatedField<Stat> get_Stats();
//	    virtual void TryMerge(out int count);
//	  }
//	}
//	namespace Google.Protobuf.Collections { class RepeatedField`1 }
//	namespace Game { class Stat { const int ValueFieldNumber = 1; long value_; long get_Value(); } }
func model(t *testing.T) *il2cpp.Model {
	t.Helper()

	p := il2cpptest.New()
	b := p.Meta

	tObject := p.Primitive(types.TypeObject, 0)
	tEnum := p.Class(0, 0)
	tInt := p.Primitive(types.TypeI4, private)
	tConst := p.Primitive(types.TypeI4, konst)
	tString := p.Primitive(types.TypeString, private)
	tTeam := p.ValueType(1, private)
	tStat := p.Class(4, 0)
	tStats := p.GenericInst(3, private, tStat)
	tLong := p.Primitive(types.TypeI8, private)
	tTeamConst := p.ValueType(1, konst)
	tVoid := p.Primitive(types.TypeVoid, 0)
	tOutInt := p.Primitive(types.TypeI4, types.ParamAttributeOut)

	b.Type(metadata.TypeDefinition{
		NameIndex:      b.String("Enum"),
		NamespaceIndex: b.String("System"),
		ParentIndex:    -1,
		FieldStart:     -1,
		MethodStart:    -1,
	})
	b.Type(metadata.TypeDefinition{
		NameIndex:      b.String("Team"),
		NamespaceIndex: b.String("Holoholo.Rpc"),
		ParentIndex:    tEnum,
		Flags:          types.TypeAttributePublic | types.TypeAttributeSealed,
		FieldStart:     0,
		FieldCount:     3,
		MethodStart:    -1,
	})
	b.Type(metadata.TypeDefinition{
		NameIndex:      b.String("PlayerData"),
		NamespaceIndex: b.String("Holoholo.Rpc"),
		ParentIndex:    tObject,
		Flags:          types.TypeAttributePublic | types.TypeAttributeSealed | types.TypeAttributeSerializable,
		FieldStart:     3,
		FieldCount:     6,
		MethodStart:    0,
		MethodCount:    4,
	})
	b.Type(metadata.TypeDefinition{
		NameIndex:      b.String("RepeatedField`1"),
		NamespaceIndex: b.String("Google.Protobuf.Collections"),
		ParentIndex:    tObject,
		Flags:          types.TypeAttributePublic,
		FieldStart:     -1,
		MethodStart:    -1,
	})
	b.Type(metadata.TypeDefinition{
		NameIndex:      b.String("Stat"),
		NamespaceIndex: b.String("Game"),
		ParentIndex:    tObject,
		Flags:          types.TypeAttributePublic,
		FieldStart:     9,
		FieldCount:     2,
		MethodStart:    4,
		MethodCount:    1,
	})
	b.Image("Holoholo.dll", 0, 5)

	fields := []struct {
		name  string
		typ   int32
		value int32
	}{
		{"value__", tInt, -1},
		{"Blue", tTeamConst, 1},
		{"Red", tTeamConst, 2},
		{"NameFieldNumber", tConst, 1},
		{"TeamFieldNumber", tConst, 2},
		{"StatsFieldNumber", tConst, 3},
		{"name_", tString, -1},
		{"team_", tTeam, -1},
		{"stats_", tStats, -1},
		{"ValueFieldNumber", tConst, 1},
		{"value_", tLong, -1},
	}
	for i, f := range fields {
		b.Field(metadata.FieldDefinition{NameIndex: b.String(f.name), TypeIndex: f.typ})
		if f.value >= 0 {
			b.Default(int32(i), tConst, binary.LittleEndian.AppendUint32(nil, uint32(f.value)))
		}
	}

	methods := []struct {
		name  string
		ret   int32
		ptr   uint64
		flags uint16
	}{
		{"get_Name", tString, 0x1000, public},
		{"get_Team", tTeam, 0x1010, public},
		{"get_Stats", tStats, 0x1020, public},
		{"TryMerge", tVoid, 0, public | types.MethodAttributeVirtual},
		{"get_Value", tLong, 0x2000, public},
	}
	for i, m := range methods {
		def := metadata.MethodDefinition{
			NameIndex:      b.String(m.name),
			DeclaringType:  2,
			ReturnType:     m.ret,
			ParameterStart: -1,
			MethodIndex:    -1,
			Flags:          m.flags,
		}
		if i == 4 {
			def.DeclaringType = 4
		}
		if m.ptr != 0 {
			def.MethodIndex = p.MethodPointer(m.ptr)
		}
		if m.name == "TryMerge" {
			def.ParameterStart = 0
			def.ParameterCount = 1
		}
		b.Method(def)
	}
	b.Parameter(metadata.ParameterDefinition{NameIndex: b.String("count"), TypeIndex: tOutInt})

	b.Literal("Foo")
	b.Literal("Bar")

	m, err := p.Model()
	if err != nil {
		t.Fatalf("Model() error = %v", err)
	}
	return m
}

func render(t *testing.T, m *il2cpp.Model, format string) string {
	t.Helper()
	var buf bytes.Buffer
	if err := Render(context.Background(), m, format, &buf, &Config{}); err != nil {
		t.Fatalf("Render(%s) error = %v", format, err)
	}
	return buf.String()
}

func TestWriteType(t *testing.T) {
	m := model(t)

	tests := []struct {
		name string
		def  int
		want string
	}{
		{"enum", 1, "\tpublic enum Team {\n\t\tBlue = 1\n\t\tRed = 2\n\t}\n\n"},
		{"class", 2, "\t[Serializable]\n" +
			"\tpublic sealed class Holoholo.Rpc.PlayerData\n\t{\n" +
			"\t\t// Fields\n" +
			"\t\tpublic static int NameFieldNumber = 1;\n" +
			"\t\tpublic static int TeamFieldNumber = 2;\n" +
			"\t\tpublic static int StatsFieldNumber = 3;\n" +
			"\t\tprivate string name_;\n" +
			"\t\tprivate Team team_;\n" +
			"\t\tprivate RepeatedField`1<Stat> stats_;\n" +
			"\t\t// Methods\n" +
			"\t\t// Offset: 0x1000\n" +
			"\t\tpublic string get_Name();\n" +
			"\t\t// Offset: 0x1010\n" +
			"\t\tpublic Team get_Team();\n" +
			"\t\t// Offset: 0x1020\n" +
			"\t\tpublic RepeatedField`1<Stat> get_Stats();\n" +
			"\t\t// Offset: ?\n" +
			"\t\tpublic virtual void TryMerge(out int count);\n" +
			"\t}\n\n"},
		{"empty class", 0, "\tclass System.Enum\n\t{\n\t}\n\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteType(m, &buf, &Config{}, tt.def); err != nil {
				t.Fatalf("WriteType() error = %v", err)
			}
			if got := buf.String(); got != tt.want {
				t.Errorf("WriteType() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}

	if err := WriteType(m, &bytes.Buffer{}, &Config{}, 99); !errors.Is(err, types.ErrIndexOutOfRange) {
		t.Errorf("WriteType(99) error = %v, want ErrIndexOutOfRange", err)
	}
}

func TestPseudo(t *testing.T) {
	got := render(t, model(t), FormatPseudo)

	if !strings.HasPrefix(got, "// Image 0: Holoholo.dll (5)\n\nnamespace System {\n") {
		t.Errorf("unexpected header:\n%s", got)
	}
	order := []string{
		"namespace System {",
		"namespace Holoholo.Rpc {",
		"public enum Team {",
		"class Holoholo.Rpc.PlayerData",
		"namespace Google.Protobuf.Collections {",
		"public class Google.Protobuf.Collections.RepeatedField`1",
		"namespace Game {",
		"public class Game.Stat",
		"private long value_;",
	}
	last := -1
	for _, s := range order {
		i := strings.Index(got, s)
		if i <= last {
			t.Fatalf("%q missing or out of order in:\n%s", s, got)
		}
		last = i
	}
	if !strings.HasSuffix(got, "\t}\n\n}\n\n") {
		t.Errorf("unexpected trailer: %q", got[len(got)-16:])
	}
}

func TestStrings(t *testing.T) {
	if got := render(t, model(t), FormatStrings); got != "Foo\nBar\n" {
		t.Errorf("strings = %q", got)
	}
}

func TestOffsets(t *testing.T) {
	want := "\n\n" +
		"Holoholo.Rpc.PlayerDataget_Name 0x1000\n" +
		"Holoholo.Rpc.PlayerDataget_Team 0x1010\n" +
		"Holoholo.Rpc.PlayerDataget_Stats 0x1020\n" +
		"\n\n" +
		"Game.Statget_Value 0x2000\n" +
		"\n"
	if got := render(t, model(t), FormatOffsets); got != want {
		t.Errorf("offsets =\n%q\nwant\n%q", got, want)
	}
}

func TestStructs(t *testing.T) {
	want := structHeaders +
		"struct PlayerData : public Il2CppObject\n{\n" +
		"\tIl2CppString * name_;\n" +
		"\tTeam * team_;\n" +
		"\tIl2CppArrayOfStat * stats_;\n" +
		"}\n\n" +
		"struct Stat : public Il2CppObject\n{\n" +
		"\tlong value_;\n" +
		"}\n\n" +
		"struct Il2CppArrayOfStat : public Il2CppArray\n{\n" +
		"\tALIGN_FIELD(8) Stat * items;\n" +
		"}\n\n"
	if got := render(t, model(t), FormatStructs); got != want {
		t.Errorf("structs =\n%s\nwant\n%s", got, want)
	}
}

func TestProto(t *testing.T) {
	want := "syntax = \"proto3\";\npackage Holoholo.Rpc;\n" +
		"\nenum Team\n{\n\tBlue = 1;\n\tRed = 2;\n}\n" +
		"\n" +
		"\nmessage PlayerData\n{\n" +
		"\tstring name = 1;\n" +
		"\tTeam team = 2;\n" +
		"\trepeated Stat stats = 3;\n" +
		"\n\tmessage Stat\n\t{\n" +
		"\t\tint64 value = 1;\n" +
		"\t}\n" +
		"}\n"
	if got := render(t, model(t), FormatProto); got != want {
		t.Errorf("proto =\n%s\nwant\n%s", got, want)
	}
}

func TestNamespaceOutputsEmpty(t *testing.T) {
	m := model(t)
	for _, format := range []string{FormatStructs, FormatProto} {
		var buf bytes.Buffer
		if err := Render(context.Background(), m, format, &buf, &Config{ProtoNamespace: "Missing"}); err != nil {
			t.Fatalf("Render(%s) error = %v", format, err)
		}
		if buf.Len() != 0 {
			t.Errorf("Render(%s) wrote %q for an empty namespace", format, buf.String())
		}
	}
}

func TestRun(t *testing.T) {
	m := model(t)

	dir := t.TempDir()
	paths, err := Run(context.Background(), m, &Config{Output: dir})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(paths) != len(Formats) {
		t.Fatalf("Run() wrote %d files, want %d", len(paths), len(Formats))
	}
	for i, format := range Formats {
		if want := filepath.Join(dir, FileName(format)); paths[i] != want {
			t.Errorf("paths[%d] = %s, want %s", i, paths[i], want)
		}
		if _, err := os.Stat(paths[i]); err != nil {
			t.Errorf("Stat(%s) error = %v", paths[i], err)
		}
	}
	data, err := os.ReadFile(filepath.Join(dir, "strings.txt"))
	if err != nil || string(data) != "Foo\nBar\n" {
		t.Errorf("strings.txt = %q, %v", data, err)
	}

	// namespace outputs are skipped when nothing matches
	dir = t.TempDir()
	paths, err = Run(context.Background(), m, &Config{Output: dir, ProtoNamespace: "Missing"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(paths) != 3 {
		t.Errorf("Run() = %q, want 3 files", paths)
	}
	if _, err := os.Stat(filepath.Join(dir, "generated.proto")); !os.IsNotExist(err) {
		t.Errorf("generated.proto written for an empty namespace: %v", err)
	}

	if _, err := Run(context.Background(), m, &Config{Output: t.TempDir(), Formats: []string{"yaml"}}); err == nil {
		t.Error("Run() accepted an unknown format")
	}
}

func TestRenderCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Render(ctx, model(t), FormatPseudo, &bytes.Buffer{}, &Config{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Render() error = %v, want context.Canceled", err)
	}
}

func TestNameCache(t *testing.T) {
	m := model(t)
	names, err := NewNameCache(m, 0)
	if err != nil {
		t.Fatalf("NewNameCache() error = %v", err)
	}
	for i := 0; i < 2; i++ {
		if got, err := names.Name(7); err != nil || got != "RepeatedField`1<Stat>" {
			t.Errorf("Name(7) = %q, %v", got, err)
		}
	}
	if names.Len() != 1 {
		t.Errorf("Len() = %d", names.Len())
	}
	if _, err := names.Name(100); !errors.Is(err, types.ErrIndexOutOfRange) {
		t.Errorf("Name(100) error = %v", err)
	}
}

func TestProtoType(t *testing.T) {
	tests := []struct {
		name  string
		field string
		want  string
	}{
		{"int", "x", "int32"},
		{"long", "x", "int64"},
		{"uint", "x", "uint32"},
		{"uint", "checksum", "fixed32"},
		{"ulong", "x", "fixed64"},
		{"ulong", "cell_id", "uint64"},
		{"ByteString", "x", "bytes"},
		{"string", "x", "string"},
		{"RepeatedField`1<int>", "x", "repeated int32"},
		{"FieldCodec`1<ulong>", "s2_cell_id", "repeated fixed64"},
		{"Holoholo.Rpc.Item", "x", "Holoholo.Rpc.Item"},
	}
	for _, tt := range tests {
		if got := protoType(tt.name, tt.field); got != tt.want {
			t.Errorf("protoType(%q, %q) = %q, want %q", tt.name, tt.field, got, tt.want)
		}
	}
}

func TestStructType(t *testing.T) {
	s := &structWriter{}
	tests := []struct {
		name string
		want string
	}{
		{"int", "int"},
		{"ulong", "unsigned long"},
		{"string", "Il2CppString *"},
		{"Player", "Player *"},
		{"RepeatedField`1<uint>", "Il2CppArrayOfunsigned_int *"},
		{"FieldCodec`1<string>", "Il2CppArrayOfIl2CppString *"},
		{"RepeatedField`1<string>", "Il2CppArrayOfIl2CppString *"},
	}
	for _, tt := range tests {
		if got := s.structType(tt.name); got != tt.want {
			t.Errorf("structType(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
	if len(s.arrays) != 2 {
		t.Errorf("array helpers = %+v, want 2", s.arrays)
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"hi \"x\"", `"hi \"x\""`},
		{metadata.Char('A'), `'A'`},
		{true, "true"},
		{int32(-5), "-5"},
		{uint8(200), "200"},
		{float32(1.5), "1.5"},
		{-2.25, "-2.25"},
	}
	for _, tt := range tests {
		if got := formatValue(tt.in); got != tt.want {
			t.Errorf("formatValue(%#v) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
