package metadata

// Section locates one table inside the metadata file. Size is in bytes.
type Section struct {
	Offset uint32
	Size   uint32
}

// Header is the global-metadata.dat header shared by versions 21 and 22.
type Header struct {
	Sanity                            uint32
	Version                           uint32
	StringLiterals                    Section
	StringLiteralData                 Section
	Strings                           Section
	Events                            Section
	Properties                        Section
	Methods                           Section
	ParameterDefaultValues            Section
	FieldDefaultValues                Section
	FieldAndParameterDefaultValueData Section
	FieldMarshaledSizes               Section
	Parameters                        Section
	Fields                            Section
	GenericParameters                 Section
	GenericParameterConstraints       Section
	GenericContainers                 Section
	NestedTypes                       Section
	Interfaces                        Section
	VTableMethods                     Section
	InterfaceOffsets                  Section
	TypeDefinitions                   Section
	RGCTXEntries                      Section
	Images                            Section
	Assemblies                        Section
	MetadataUsageLists                Section
	MetadataUsagePairs                Section
	FieldRefs                         Section
	ReferencedAssemblies              Section
	AttributesInfo                    Section
	AttributeTypes                    Section
}

// HeaderV22 holds the tables appended to the header in version 22.
type HeaderV22 struct {
	UnresolvedVirtualCallParameterTypes  Section
	UnresolvedVirtualCallParameterRanges Section
}

type StringLiteral struct {
	Length    uint32
	DataIndex int32
}

type ImageDefinition struct {
	NameIndex       int32
	AssemblyIndex   int32
	TypeStart       int32
	TypeCount       uint32
	EntryPointIndex int32
	Token           uint32
}

type TypeDefinition struct {
	NameIndex             int32
	NamespaceIndex        int32
	CustomAttributeIndex  int32
	ByvalTypeIndex        int32
	ByrefTypeIndex        int32
	DeclaringTypeIndex    int32
	ParentIndex           int32
	ElementTypeIndex      int32
	RGCTXStartIndex       int32
	RGCTXCount            int32
	GenericContainerIndex int32
	DelegateWrapperIndex  int32
	MarshalingFunctions   int32
	CCWFunctionIndex      int32
	GUIDIndex             int32
	Flags                 uint32
	FieldStart            int32
	MethodStart           int32
	EventStart            int32
	PropertyStart         int32
	NestedTypesStart      int32
	InterfacesStart       int32
	VTableStart           int32
	InterfaceOffsetsStart int32
	MethodCount           uint16
	PropertyCount         uint16
	FieldCount            uint16
	EventCount            uint16
	NestedTypeCount       uint16
	VTableCount           uint16
	InterfacesCount       uint16
	InterfaceOffsetsCount uint16
	Bitfield              uint32
	Token                 uint32
}

// IsValueType reports the valuetype bit of the packed bitfield.
func (t TypeDefinition) IsValueType() bool { return t.Bitfield&0x1 != 0 }

// IsEnum reports the enum bit of the packed bitfield.
func (t TypeDefinition) IsEnum() bool { return t.Bitfield&0x2 != 0 }

type MethodDefinition struct {
	NameIndex             int32
	DeclaringType         int32
	ReturnType            int32
	ParameterStart        int32
	CustomAttributeIndex  int32
	GenericContainerIndex int32
	MethodIndex           int32
	InvokerIndex          int32
	DelegateWrapperIndex  int32
	RGCTXStartIndex       int32
	RGCTXCount            int32
	Token                 uint32
	Flags                 uint16
	IFlags                uint16
	Slot                  uint16
	ParameterCount        uint16
}

type ParameterDefinition struct {
	NameIndex            int32
	Token                uint32
	CustomAttributeIndex int32
	TypeIndex            int32
}

type FieldDefinition struct {
	NameIndex            int32
	TypeIndex            int32
	CustomAttributeIndex int32
	Token                uint32
}

type FieldDefaultValue struct {
	FieldIndex int32
	TypeIndex  int32
	DataIndex  int32
}

type PropertyDefinition struct {
	NameIndex            int32
	Get                  int32
	Set                  int32
	Attrs                uint32
	CustomAttributeIndex int32
	Token                uint32
}
