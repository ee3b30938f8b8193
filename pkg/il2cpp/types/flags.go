package types

// Type definition attributes (ECMA-335 II.23.1.15).
const (
	TypeAttributeVisibilityMask = 0x00000007
	TypeAttributeNotPublic      = 0x00000000
	TypeAttributePublic         = 0x00000001
	TypeAttributeNestedPublic   = 0x00000002
	TypeAttributeInterface      = 0x00000020
	TypeAttributeAbstract       = 0x00000080
	TypeAttributeSealed         = 0x00000100
	TypeAttributeSerializable   = 0x00002000
)

// Field attributes, stored in the attrs bits of the field's type descriptor.
const (
	FieldAttributeFieldAccessMask = 0x0007
	FieldAttributePrivate         = 0x0001
	FieldAttributeFamily          = 0x0004
	FieldAttributePublic          = 0x0006
	FieldAttributeStatic          = 0x0010
	FieldAttributeInitOnly        = 0x0020
	FieldAttributeLiteral         = 0x0040
)

// Method attributes.
const (
	MethodAttributeMemberAccessMask = 0x0007
	MethodAttributePrivate          = 0x0001
	MethodAttributeFamily           = 0x0004
	MethodAttributePublic           = 0x0006
	MethodAttributeStatic           = 0x0010
	MethodAttributeFinal            = 0x0020
	MethodAttributeVirtual          = 0x0040
	MethodAttributeAbstract         = 0x0400
)

// Parameter attributes.
const (
	ParamAttributeIn       = 0x0001
	ParamAttributeOut      = 0x0002
	ParamAttributeOptional = 0x0010
)
