package il2cpp

import (
	"github.com/blacktop/il2cppdump/pkg/il2cpp/image"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/metadata"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/resolver"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/scan"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/types"
	"github.com/pkg/errors"
)

// Model is the loaded program. It is not modified after New returns and may
// be shared between goroutines.
type Model struct {
	Image    image.Image
	Metadata *metadata.Metadata
	Anchors  scan.Anchors

	resolver *resolver.Resolver
}

func (m *Model) Images() []metadata.ImageDefinition         { return m.Metadata.Images }
func (m *Model) TypeDefinitions() []metadata.TypeDefinition { return m.Metadata.Types }
func (m *Model) Methods() []metadata.MethodDefinition       { return m.Metadata.Methods }
func (m *Model) Parameters() []metadata.ParameterDefinition { return m.Metadata.Parameters }
func (m *Model) Fields() []metadata.FieldDefinition         { return m.Metadata.Fields }
func (m *Model) Properties() []metadata.PropertyDefinition  { return m.Metadata.Properties }
func (m *Model) StringLiterals() []string                   { return m.Metadata.StringLiterals }

// Types returns the raw descriptor table of the metadata registration.
func (m *Model) Types() []types.Type { return m.resolver.Types }

// MethodPointers returns the native entries indexed by MethodDefinition.MethodIndex.
func (m *Model) MethodPointers() []uint64 { return m.resolver.MethodPointers }

// Registrations returns the decoded registration headers.
func (m *Model) Registrations() (resolver.CodeRegistration, resolver.MetadataRegistration) {
	return m.resolver.CodeRegistration, m.resolver.MetadataRegistration
}

func (m *Model) GetString(offset int32) (string, error) {
	return m.Metadata.GetString(offset)
}

func (m *Model) TypeName(def metadata.TypeDefinition) (string, error) {
	return m.Metadata.TypeName(def)
}

func (m *Model) TypeNamespace(def metadata.TypeDefinition) (string, error) {
	return m.Metadata.TypeNamespace(def)
}

func (m *Model) ImageName(img metadata.ImageDefinition) (string, error) {
	return m.Metadata.ImageName(img)
}

// TypeFromIndex returns the descriptor at a type index (FieldDefinition.TypeIndex,
// MethodDefinition.ReturnType, ...).
func (m *Model) TypeFromIndex(index int32) (types.Type, error) {
	return m.resolver.TypeFromIndex(index)
}

// ResolveName renders the C# name of a descriptor.
func (m *Model) ResolveName(t types.Type) (string, error) {
	return m.resolver.ResolveName(t)
}

// TypeIndexName resolves the descriptor at a type index.
func (m *Model) TypeIndexName(index int32) (string, error) {
	t, err := m.resolver.TypeFromIndex(index)
	if err != nil {
		return "", err
	}
	return m.resolver.ResolveName(t)
}

// FirstGenericArgument returns the first class argument of a generic instance.
func (m *Model) FirstGenericArgument(t types.Type) (types.Type, error) {
	return m.resolver.FirstGenericArgument(t)
}

// MethodPointer returns the native entry of a method index, if it has one.
func (m *Model) MethodPointer(methodIndex int32) (uint64, bool) {
	return m.resolver.MethodPointer(methodIndex)
}

// FieldOffset returns the instance offset of the n-th field of a type definition.
func (m *Model) FieldOffset(typeIndex, fieldInType int) (int32, error) {
	return m.resolver.FieldOffset(typeIndex, fieldInType)
}

// DefaultValue decodes the constant of a field. The kind is taken from the
// type index stored with the default value record.
func (m *Model) DefaultValue(fieldIndex int32) (any, bool, error) {
	dv, ok := m.Metadata.FieldDefault(fieldIndex)
	if !ok || dv.DataIndex == -1 {
		return nil, false, nil
	}
	t, err := m.resolver.TypeFromIndex(dv.TypeIndex)
	if err != nil {
		return nil, false, errors.Wrapf(err, "default value of field %d", fieldIndex)
	}
	return m.Metadata.DecodeDefaultValue(dv.DataIndex, t.Kind)
}

// FindTypeIndex returns the first type index whose resolved name is name, or -1.
func (m *Model) FindTypeIndex(name string) int {
	for i, t := range m.resolver.Types {
		if n, err := m.resolver.ResolveName(t); err == nil && n == name {
			return i
		}
	}
	return -1
}

// FindTypeDefinition returns the index of the first type definition named name, or -1.
func (m *Model) FindTypeDefinition(name string) int {
	for i, def := range m.Metadata.Types {
		if n, err := m.Metadata.TypeName(def); err == nil && n == name {
			return i
		}
	}
	return -1
}
