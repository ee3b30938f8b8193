package dump

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/apex/log"
	"github.com/blacktop/il2cppdump/internal/utils"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/metadata"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/types"
)

const fieldNumberSuffix = "FieldNumber"

var (
	// ulong fields emitted as uint64 instead of fixed64
	uint64Names = []string{
		"timeStamp",
		"page_timestamp",
		"game_master_timestamp",
		"asset_digest_timestamp",
		"cell_id",
		"s2_cell_id",
	}
	fixed32Names = []string{"checksum"}
)

type protoWriter struct {
	*renderer
	selected []int
	// visiting guards nested messages against cycles
	visiting map[int32]bool
}

func (r *renderer) writeProto(ctx context.Context, w io.Writer) error {
	p := &protoWriter{
		renderer: r,
		selected: r.namespaceTypes(),
		visiting: make(map[int32]bool),
	}
	if len(p.selected) == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, "syntax = \"proto3\";\npackage %s;\n", r.conf.ProtoNamespace); err != nil {
		return err
	}

	defs := r.m.TypeDefinitions()
	var sb strings.Builder
	for _, i := range p.selected {
		if r.isEnum(defs[i]) {
			if err := p.protoEnum(&sb, defs[i], ""); err != nil {
				return fmt.Errorf("enum %d: %w", i, err)
			}
		}
	}
	sb.WriteString("\n")
	if _, err := io.WriteString(w, sb.String()); err != nil {
		return err
	}

	for _, i := range p.selected {
		if err := ctx.Err(); err != nil {
			return err
		}
		if r.isEnum(defs[i]) {
			continue
		}
		sb.Reset()
		if err := p.protoMessage(&sb, int32(i), ""); err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
	}
	return nil
}

func (p *protoWriter) protoEnum(sb *strings.Builder, def metadata.TypeDefinition, pad string) error {
	name, err := p.m.TypeName(def)
	if err != nil {
		return err
	}
	fmt.Fprintf(sb, "\n%senum %s\n%s{\n", pad, name, pad)
	for i := int(def.FieldStart) + 1; i < int(def.FieldStart)+int(def.FieldCount); i++ {
		fname, err := p.m.GetString(p.m.Fields()[i].NameIndex)
		if err != nil {
			return err
		}
		val, ok, err := p.defaultValue(i)
		if err != nil {
			return err
		}
		if !ok {
			log.Debugf("Enum %s member %s has no value", name, fname)
			continue
		}
		fmt.Fprintf(sb, "%s\t%s = %s;\n", pad, fname, val)
	}
	sb.WriteString(pad + "}\n")
	return nil
}

func (p *protoWriter) protoMessage(sb *strings.Builder, index int32, pad string) error {
	def := p.m.TypeDefinitions()[index]
	if def.Flags&types.TypeAttributeAbstract != 0 || p.visiting[index] {
		return nil
	}
	p.visiting[index] = true
	defer delete(p.visiting, index)

	name, err := p.m.TypeName(def)
	if err != nil {
		return err
	}
	fmt.Fprintf(sb, "\n%smessage %s\n%s{\n", pad, name, pad)

	getters := make(map[string]int32)
	for i := int(def.MethodStart); i < int(def.MethodStart)+int(def.MethodCount); i++ {
		method := p.m.Methods()[i]
		mname, err := p.m.GetString(method.NameIndex)
		if err != nil {
			return err
		}
		getters[mname] = method.ReturnType
	}

	var nested []types.Type
	for i := int(def.FieldStart); i < int(def.FieldStart)+int(def.FieldCount); i++ {
		fname, err := p.m.GetString(p.m.Fields()[i].NameIndex)
		if err != nil {
			return err
		}
		if !strings.HasSuffix(fname, fieldNumberSuffix) {
			continue
		}
		field := strings.TrimSuffix(fname, fieldNumberSuffix)
		ret, ok := getters["get_"+field]
		if !ok {
			log.Debugf("Message %s has no getter for %s", name, field)
			continue
		}
		number, ok, err := p.defaultValue(i)
		if err != nil {
			return err
		}
		if !ok {
			log.Debugf("Message %s field %s has no number", name, field)
			continue
		}
		t, err := p.m.TypeFromIndex(ret)
		if err != nil {
			return err
		}
		tname, err := p.names.Name(ret)
		if err != nil {
			return err
		}

		field = utils.ToSnakeCase(field)
		fmt.Fprintf(sb, "%s\t%s %s = %s;\n", pad, protoType(tname, field), field, number)

		if t.Kind == types.TypeValueType || t.Kind == types.TypeGenericInst {
			nested = append(nested, t)
		}
	}

	defs := p.m.TypeDefinitions()
	for _, t := range nested {
		if t.Kind == types.TypeGenericInst {
			arg, err := p.m.FirstGenericArgument(t)
			if err != nil {
				log.WithError(err).Debugf("Skipping nested generic of %s", name)
				continue
			}
			t = arg
		}
		if t.Kind != types.TypeValueType && t.Kind != types.TypeClass {
			continue
		}
		sub := t.KlassIndex()
		if sub < 0 || int(sub) >= len(defs) {
			return fmt.Errorf("nested definition %d out of range: %w", sub, types.ErrIndexOutOfRange)
		}
		if p.inNamespace(p.selected, defs[sub]) {
			continue
		}
		if p.isEnum(defs[sub]) {
			err = p.protoEnum(sb, defs[sub], pad+"\t")
		} else {
			err = p.protoMessage(sb, sub, pad+"\t")
		}
		if err != nil {
			return err
		}
	}

	sb.WriteString(pad + "}\n")
	return nil
}

// protoType maps a C# type name to a protobuf scalar or message type.
func protoType(name, field string) string {
	switch name {
	case "int":
		name = "int32"
	case "long":
		name = "int64"
	case "uint":
		name = "uint32"
	case "ulong":
		name = "fixed64"
	case "ByteString":
		name = "bytes"
	default:
		for _, container := range arrayContainers {
			if item, ok := genericArgument(name, container); ok {
				name = "repeated " + protoType(item, field)
				break
			}
		}
	}
	if name == "fixed64" && slices.Contains(uint64Names, field) {
		return "uint64"
	}
	if name == "uint32" && slices.Contains(fixed32Names, field) {
		return "fixed32"
	}
	return name
}
