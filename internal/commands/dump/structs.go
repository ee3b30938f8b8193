package dump

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/apex/log"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/metadata"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/types"
)

const structHeaders = `struct Il2CppObject
{
	Il2CppClass *klass;
	MonitorData *monitor;
}

struct Il2CppArray : public Il2CppObject
{
	void *bounds;
	int max_length;
}

struct Il2CppString
{
	Il2CppObject object;
	int length;
	char16_t *chars;
}

`

// generic containers rendered as Il2CppArrayOf helper structs
var arrayContainers = []string{"FieldCodec`1", "RepeatedField`1"}

type arrayHelper struct {
	name     string
	itemType string
}

// structWriter holds the state of one struct layout pass.
type structWriter struct {
	*renderer
	w        io.Writer
	selected []int
	queue    []types.Type
	queued   map[uint64]bool
	written  map[int32]bool
	arrays   []arrayHelper
}

func (r *renderer) writeStructs(ctx context.Context, w io.Writer) error {
	s := &structWriter{
		renderer: r,
		w:        w,
		selected: r.namespaceTypes(),
		queued:   make(map[uint64]bool),
		written:  make(map[int32]bool),
	}
	if len(s.selected) == 0 {
		return nil
	}
	if _, err := io.WriteString(w, structHeaders); err != nil {
		return err
	}

	defs := r.m.TypeDefinitions()
	for _, i := range s.selected {
		if err := ctx.Err(); err != nil {
			return err
		}
		if r.isEnum(defs[i]) {
			continue
		}
		if err := s.writeStruct(int32(i)); err != nil {
			return fmt.Errorf("type %d: %w", i, err)
		}
	}

	// the queue grows while subtypes are written
	for i := 0; i < len(s.queue); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		t := s.queue[i]
		if t.Kind == types.TypeGenericInst {
			arg, err := r.m.FirstGenericArgument(t)
			if err != nil {
				log.WithError(err).Debugf("Skipping generic subtype at %#x", t.Addr)
				continue
			}
			t = arg
		}
		if t.Kind != types.TypeValueType && t.Kind != types.TypeClass {
			continue
		}
		index := t.KlassIndex()
		if index < 0 || int(index) >= len(defs) {
			return fmt.Errorf("subtype definition %d out of range: %w", index, types.ErrIndexOutOfRange)
		}
		sub := defs[index]
		if s.inNamespace(s.selected, sub) || r.isEnum(sub) {
			continue
		}
		if err := s.writeStruct(index); err != nil {
			return fmt.Errorf("subtype %d: %w", index, err)
		}
	}

	var sb strings.Builder
	for _, a := range s.arrays {
		fmt.Fprintf(&sb, "struct %s : public Il2CppArray\n{\n\tALIGN_FIELD(8) %s items;\n}\n\n", a.name, a.itemType)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func (s *structWriter) writeStruct(index int32) error {
	if s.written[index] {
		return nil
	}
	s.written[index] = true

	def := s.m.TypeDefinitions()[index]
	if def.Flags&types.TypeAttributeInterface != 0 {
		return nil
	}
	name, err := s.m.TypeName(def)
	if err != nil {
		return err
	}

	var sb strings.Builder
	sb.WriteString("struct " + name)
	if def.ParentIndex >= 0 {
		parent, err := s.names.Name(def.ParentIndex)
		if err != nil {
			return err
		}
		if parent == "object" {
			parent = "Il2CppObject"
		}
		sb.WriteString(" : public " + parent)
	}
	sb.WriteString("\n{\n")
	if err := s.structFields(&sb, def); err != nil {
		return err
	}
	sb.WriteString("}\n\n")

	_, err = io.WriteString(s.w, sb.String())
	return err
}

func (s *structWriter) structFields(sb *strings.Builder, def metadata.TypeDefinition) error {
	for i := int(def.FieldStart); i < int(def.FieldStart)+int(def.FieldCount); i++ {
		field := s.m.Fields()[i]
		t, err := s.m.TypeFromIndex(field.TypeIndex)
		if err != nil {
			return err
		}
		if t.Attrs&types.FieldAttributeStatic != 0 {
			continue
		}
		tname, err := s.names.Name(field.TypeIndex)
		if err != nil {
			return err
		}
		fname, err := s.m.GetString(field.NameIndex)
		if err != nil {
			return err
		}
		fmt.Fprintf(sb, "\t%s %s;\n", s.structType(tname), fname)

		if (t.Kind == types.TypeValueType || t.Kind == types.TypeGenericInst) && !s.queued[t.Data] {
			s.queued[t.Data] = true
			s.queue = append(s.queue, t)
		}
	}
	return nil
}

// structType maps a C# type name to the C type of a struct member.
func (s *structWriter) structType(name string) string {
	switch name {
	case "int", "long":
		return name
	case "uint", "ulong":
		return "unsigned " + name[1:]
	case "string":
		return "Il2CppString *"
	}
	for _, container := range arrayContainers {
		if item, ok := genericArgument(name, container); ok {
			itemType := s.structType(item)
			helper := "Il2CppArrayOf" + identifier(itemType)
			s.addArray(helper, itemType)
			return helper + " *"
		}
	}
	return name + " *"
}

func (s *structWriter) addArray(name, itemType string) {
	for _, a := range s.arrays {
		if a.itemType == itemType {
			return
		}
	}
	s.arrays = append(s.arrays, arrayHelper{name: name, itemType: itemType})
}

// identifier turns a C type into something usable inside a struct name.
func identifier(ctype string) string {
	ctype = strings.TrimSuffix(ctype, " *")
	id := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return r
		}
		return '_'
	}, ctype)
	return strings.Trim(id, "_")
}
