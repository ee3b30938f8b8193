package dump

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/blacktop/il2cppdump/pkg/il2cpp"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/metadata"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/types"
)

func (r *renderer) writePseudo(ctx context.Context, w io.Writer) error {
	var sb strings.Builder
	for i, img := range r.m.Images() {
		name, err := r.m.ImageName(img)
		if err != nil {
			return err
		}
		fmt.Fprintf(&sb, "// Image %d: %s (%d)\n", i, name, img.TypeCount)
	}
	sb.WriteString("\n")
	if _, err := io.WriteString(w, sb.String()); err != nil {
		return err
	}

	// group by namespace in order of first appearance
	var order []int32
	groups := make(map[int32][]int)
	for i, def := range r.m.TypeDefinitions() {
		if _, ok := groups[def.NamespaceIndex]; !ok {
			order = append(order, def.NamespaceIndex)
		}
		groups[def.NamespaceIndex] = append(groups[def.NamespaceIndex], i)
	}

	defs := r.m.TypeDefinitions()
	for _, ns := range order {
		name, err := r.m.GetString(ns)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "namespace %s {\n", name); err != nil {
			return err
		}
		for _, i := range groups[ns] {
			if err := ctx.Err(); err != nil {
				return err
			}
			decl, err := r.declaration(defs[i])
			if err != nil {
				return fmt.Errorf("type %d: %w", i, err)
			}
			if _, err := io.WriteString(w, decl); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "}\n\n"); err != nil {
			return err
		}
	}
	return nil
}

// WriteType writes the pseudo C# declaration of a single type definition.
func WriteType(m *il2cpp.Model, w io.Writer, conf *Config, defIndex int) error {
	defs := m.TypeDefinitions()
	if defIndex < 0 || defIndex >= len(defs) {
		return fmt.Errorf("type definition %d out of range (count %d): %w", defIndex, len(defs), types.ErrIndexOutOfRange)
	}
	r, err := newRenderer(m, conf)
	if err != nil {
		return err
	}
	decl, err := r.declaration(defs[defIndex])
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, decl)
	return err
}

func (r *renderer) declaration(def metadata.TypeDefinition) (string, error) {
	var sb strings.Builder
	if r.isEnum(def) {
		if err := r.pseudoEnum(&sb, def); err != nil {
			return "", err
		}
	} else if err := r.pseudoType(&sb, def); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (r *renderer) pseudoEnum(sb *strings.Builder, def metadata.TypeDefinition) error {
	name, err := r.m.TypeName(def)
	if err != nil {
		return err
	}
	sb.WriteString("\t")
	if def.Flags&types.TypeAttributeVisibilityMask == types.TypeAttributePublic {
		sb.WriteString("public ")
	}
	fmt.Fprintf(sb, "enum %s {\n", name)
	// the first field is the value__ backing field
	for i := int(def.FieldStart) + 1; i < int(def.FieldStart)+int(def.FieldCount); i++ {
		field := r.m.Fields()[i]
		fname, err := r.m.GetString(field.NameIndex)
		if err != nil {
			return err
		}
		val, ok, err := r.defaultValue(i)
		if err != nil {
			return err
		}
		if ok {
			fmt.Fprintf(sb, "\t\t%s = %s\n", fname, val)
		} else {
			fmt.Fprintf(sb, "\t\t%s\n", fname)
		}
	}
	sb.WriteString("\t}\n\n")
	return nil
}

func (r *renderer) pseudoType(sb *strings.Builder, def metadata.TypeDefinition) error {
	if def.Flags&types.TypeAttributeSerializable != 0 {
		sb.WriteString("\t[Serializable]\n")
	}
	sb.WriteString("\t")
	if def.Flags&types.TypeAttributeVisibilityMask == types.TypeAttributePublic {
		sb.WriteString("public ")
	}
	if def.Flags&types.TypeAttributeAbstract != 0 {
		sb.WriteString("abstract ")
	}
	if def.Flags&types.TypeAttributeSealed != 0 {
		sb.WriteString("sealed ")
	}
	if def.Flags&types.TypeAttributeInterface != 0 {
		sb.WriteString("interface ")
	} else {
		sb.WriteString("class ")
	}

	name, err := r.qualifiedName(def)
	if err != nil {
		return err
	}
	sb.WriteString(name)

	if def.ParentIndex >= 0 {
		parent, err := r.names.Name(def.ParentIndex)
		if err != nil {
			return err
		}
		if parent != "object" {
			sb.WriteString(" extends " + parent)
		}
	}
	sb.WriteString("\n\t{\n")

	if err := r.pseudoFields(sb, def); err != nil {
		return err
	}
	if err := r.pseudoMethods(sb, def); err != nil {
		return err
	}
	sb.WriteString("\t}\n\n")
	return nil
}

func accessModifier(attrs uint16) string {
	switch attrs & types.FieldAttributeFieldAccessMask {
	case types.FieldAttributePrivate:
		return "private "
	case types.FieldAttributeFamily:
		return "protected "
	case types.FieldAttributePublic:
		return "public "
	}
	return ""
}

func (r *renderer) pseudoFields(sb *strings.Builder, def metadata.TypeDefinition) error {
	if def.FieldCount == 0 {
		return nil
	}
	sb.WriteString("\t\t// Fields\n")
	for i := int(def.FieldStart); i < int(def.FieldStart)+int(def.FieldCount); i++ {
		field := r.m.Fields()[i]
		t, err := r.m.TypeFromIndex(field.TypeIndex)
		if err != nil {
			return err
		}
		tname, err := r.names.Name(field.TypeIndex)
		if err != nil {
			return err
		}
		fname, err := r.m.GetString(field.NameIndex)
		if err != nil {
			return err
		}

		sb.WriteString("\t\t" + accessModifier(t.Attrs))
		if t.Attrs&types.FieldAttributeStatic != 0 {
			sb.WriteString("static ")
		}
		if t.Attrs&types.FieldAttributeInitOnly != 0 {
			sb.WriteString("readonly ")
		}
		sb.WriteString(tname + " " + fname)

		val, ok, err := r.defaultValue(i)
		if err != nil {
			return err
		}
		if ok {
			sb.WriteString(" = " + val)
		}
		sb.WriteString(";\n")
	}
	return nil
}

func (r *renderer) pseudoMethods(sb *strings.Builder, def metadata.TypeDefinition) error {
	if def.MethodCount == 0 {
		return nil
	}
	sb.WriteString("\t\t// Methods\n")
	for i := int(def.MethodStart); i < int(def.MethodStart)+int(def.MethodCount); i++ {
		method := r.m.Methods()[i]
		if ptr, ok := r.m.MethodPointer(method.MethodIndex); ok {
			fmt.Fprintf(sb, "\t\t// Offset: 0x%x\n", ptr)
		} else {
			sb.WriteString("\t\t// Offset: ?\n")
		}

		sb.WriteString("\t\t" + accessModifier(method.Flags))
		if method.Flags&types.MethodAttributeVirtual != 0 {
			sb.WriteString("virtual ")
		}
		if method.Flags&types.MethodAttributeStatic != 0 {
			sb.WriteString("static ")
		}

		ret, err := r.names.Name(method.ReturnType)
		if err != nil {
			return err
		}
		mname, err := r.m.GetString(method.NameIndex)
		if err != nil {
			return err
		}
		sb.WriteString(ret + " " + mname + "(")

		params := make([]string, 0, method.ParameterCount)
		for j := 0; j < int(method.ParameterCount); j++ {
			param := r.m.Parameters()[int(method.ParameterStart)+j]
			t, err := r.m.TypeFromIndex(param.TypeIndex)
			if err != nil {
				return err
			}
			tname, err := r.names.Name(param.TypeIndex)
			if err != nil {
				return err
			}
			pname, err := r.m.GetString(param.NameIndex)
			if err != nil {
				return err
			}
			var mods string
			if t.Attrs&types.ParamAttributeOptional != 0 {
				mods += "optional "
			}
			if t.Attrs&types.ParamAttributeOut != 0 {
				mods += "out "
			}
			params = append(params, mods+tname+" "+pname)
		}
		sb.WriteString(strings.Join(params, ", ") + ");\n")
	}
	return nil
}
