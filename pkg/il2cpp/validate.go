package il2cpp

import (
	"github.com/blacktop/il2cppdump/pkg/il2cpp/types"
	"github.com/pkg/errors"
)

// checkRange fails unless [start, start+count) lies within a table of size n.
// Empty ranges are always valid; their start is often -1.
func checkRange(what string, start int32, count, n int) error {
	if count == 0 {
		return nil
	}
	if start < 0 || int(start)+count > n {
		return errors.Wrapf(types.ErrIndexOutOfRange, "%s [%d, %d) exceeds table of %d", what, start, int(start)+count, n)
	}
	return nil
}

func checkIndex(what string, index int32, n int) error {
	if index < 0 || int(index) >= n {
		return errors.Wrapf(types.ErrIndexOutOfRange, "%s %d (count %d)", what, index, n)
	}
	return nil
}

// validate checks that every cross-table index stored in the metadata lands
// inside its table.
func (m *Model) validate() error {
	md := m.Metadata
	nTypes := len(m.resolver.Types)

	for i, img := range md.Images {
		if _, err := md.GetString(img.NameIndex); err != nil {
			return errors.Wrapf(err, "image %d name", i)
		}
		if err := checkRange("image types", img.TypeStart, int(img.TypeCount), len(md.Types)); err != nil {
			return errors.Wrapf(err, "image %d", i)
		}
	}

	for i, def := range md.Types {
		if _, err := md.GetString(def.NameIndex); err != nil {
			return errors.Wrapf(err, "type definition %d name", i)
		}
		if _, err := md.GetString(def.NamespaceIndex); err != nil {
			return errors.Wrapf(err, "type definition %d namespace", i)
		}
		if def.ParentIndex >= 0 {
			if err := checkIndex("parent type", def.ParentIndex, nTypes); err != nil {
				return errors.Wrapf(err, "type definition %d", i)
			}
		}
		if err := checkRange("fields", def.FieldStart, int(def.FieldCount), len(md.Fields)); err != nil {
			return errors.Wrapf(err, "type definition %d", i)
		}
		if err := checkRange("methods", def.MethodStart, int(def.MethodCount), len(md.Methods)); err != nil {
			return errors.Wrapf(err, "type definition %d", i)
		}
	}

	for i, t := range m.resolver.Types {
		switch t.Kind {
		case types.TypeClass, types.TypeValueType:
			if err := checkIndex("type definition", t.KlassIndex(), len(md.Types)); err != nil {
				return errors.Wrapf(err, "type %d", i)
			}
		case types.TypeGenericInst:
			gc, err := m.resolver.GenericClass(t)
			if err != nil {
				return errors.Wrapf(err, "type %d generic class", i)
			}
			if err := checkIndex("generic type definition", gc.TypeDefinitionIndex, len(md.Types)); err != nil {
				return errors.Wrapf(err, "type %d", i)
			}
		}
	}

	for i, method := range md.Methods {
		if _, err := md.GetString(method.NameIndex); err != nil {
			return errors.Wrapf(err, "method %d name", i)
		}
		if err := checkIndex("return type", method.ReturnType, nTypes); err != nil {
			return errors.Wrapf(err, "method %d", i)
		}
		if err := checkRange("parameters", method.ParameterStart, int(method.ParameterCount), len(md.Parameters)); err != nil {
			return errors.Wrapf(err, "method %d", i)
		}
	}

	for i, param := range md.Parameters {
		if err := checkIndex("parameter type", param.TypeIndex, nTypes); err != nil {
			return errors.Wrapf(err, "parameter %d", i)
		}
	}

	for i, field := range md.Fields {
		if _, err := md.GetString(field.NameIndex); err != nil {
			return errors.Wrapf(err, "field %d name", i)
		}
		if err := checkIndex("field type", field.TypeIndex, nTypes); err != nil {
			return errors.Wrapf(err, "field %d", i)
		}
	}

	for i, dv := range md.FieldDefaultValues {
		if err := checkIndex("field", dv.FieldIndex, len(md.Fields)); err != nil {
			return errors.Wrapf(err, "default value %d", i)
		}
		if err := checkIndex("default value type", dv.TypeIndex, nTypes); err != nil {
			return errors.Wrapf(err, "default value %d", i)
		}
	}

	return nil
}
