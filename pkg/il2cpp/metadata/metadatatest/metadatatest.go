// Package metadatatest assembles global-metadata.dat blobs for tests.
package metadatatest

import (
	"bytes"
	"encoding/binary"

	"github.com/blacktop/il2cppdump/internal/magic"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/metadata"
)

// Builder collects tables and lays them out behind a header.
type Builder struct {
	Version uint32
	// Sanity overrides the header magic when non-zero.
	Sanity uint32

	heap     bytes.Buffer
	offsets  map[string]int32
	literals []string

	images     []metadata.ImageDefinition
	types      []metadata.TypeDefinition
	methods    []metadata.MethodDefinition
	params     []metadata.ParameterDefinition
	fields     []metadata.FieldDefinition
	properties []metadata.PropertyDefinition
	defaults   []metadata.FieldDefaultValue
	data       bytes.Buffer
}

// New returns a version 21 builder whose string heap starts with "".
func New() *Builder {
	b := &Builder{Version: 21, offsets: make(map[string]int32)}
	b.String("")
	return b
}

// String interns s in the string heap and returns its offset.
func (b *Builder) String(s string) int32 {
	if off, ok := b.offsets[s]; ok {
		return off
	}
	off := int32(b.heap.Len())
	b.heap.WriteString(s)
	b.heap.WriteByte(0)
	b.offsets[s] = off
	return off
}

// Literal appends a string literal and returns its index.
func (b *Builder) Literal(s string) int {
	b.literals = append(b.literals, s)
	return len(b.literals) - 1
}

func (b *Builder) Image(name string, typeStart int32, typeCount uint32) int32 {
	b.images = append(b.images, metadata.ImageDefinition{
		NameIndex:       b.String(name),
		TypeStart:       typeStart,
		TypeCount:       typeCount,
		EntryPointIndex: -1,
	})
	return int32(len(b.images) - 1)
}

func (b *Builder) Type(def metadata.TypeDefinition) int32 {
	b.types = append(b.types, def)
	return int32(len(b.types) - 1)
}

func (b *Builder) Method(def metadata.MethodDefinition) int32 {
	b.methods = append(b.methods, def)
	return int32(len(b.methods) - 1)
}

func (b *Builder) Parameter(def metadata.ParameterDefinition) int32 {
	b.params = append(b.params, def)
	return int32(len(b.params) - 1)
}

func (b *Builder) Field(def metadata.FieldDefinition) int32 {
	b.fields = append(b.fields, def)
	return int32(len(b.fields) - 1)
}

func (b *Builder) Property(def metadata.PropertyDefinition) int32 {
	b.properties = append(b.properties, def)
	return int32(len(b.properties) - 1)
}

// Default records raw as the default value of fieldIndex, typed by typeIndex.
func (b *Builder) Default(fieldIndex, typeIndex int32, raw []byte) {
	b.defaults = append(b.defaults, metadata.FieldDefaultValue{
		FieldIndex: fieldIndex,
		TypeIndex:  typeIndex,
		DataIndex:  int32(b.data.Len()),
	})
	b.data.Write(raw)
}

// Bytes serializes the blob.
func (b *Builder) Bytes() []byte {
	hdr := metadata.Header{
		Sanity:  uint32(magic.MagicMetadata),
		Version: b.Version,
	}
	if b.Sanity != 0 {
		hdr.Sanity = b.Sanity
	}
	start := uint32(binary.Size(hdr))
	if b.Version >= 22 {
		start += uint32(binary.Size(metadata.HeaderV22{}))
	}

	var body bytes.Buffer
	section := func(v any) metadata.Section {
		off := start + uint32(body.Len())
		binary.Write(&body, binary.LittleEndian, v)
		return metadata.Section{Offset: off, Size: start + uint32(body.Len()) - off}
	}

	var literalData bytes.Buffer
	lits := make([]metadata.StringLiteral, len(b.literals))
	for i, s := range b.literals {
		lits[i] = metadata.StringLiteral{Length: uint32(len(s)), DataIndex: int32(literalData.Len())}
		literalData.WriteString(s)
	}

	hdr.StringLiterals = section(lits)
	hdr.StringLiteralData = section(literalData.Bytes())
	hdr.Strings = section(b.heap.Bytes())
	hdr.Images = section(b.images)
	hdr.TypeDefinitions = section(b.types)
	hdr.Methods = section(b.methods)
	hdr.Parameters = section(b.params)
	hdr.Fields = section(b.fields)
	hdr.Properties = section(b.properties)
	hdr.FieldDefaultValues = section(b.defaults)
	hdr.FieldAndParameterDefaultValueData = section(b.data.Bytes())

	var out bytes.Buffer
	binary.Write(&out, binary.LittleEndian, hdr)
	if b.Version >= 22 {
		binary.Write(&out, binary.LittleEndian, metadata.HeaderV22{})
	}
	out.Write(body.Bytes())
	return out.Bytes()
}
