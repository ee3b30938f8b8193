// Package metadata parses the IL2CPP global-metadata.dat file.
package metadata

import (
	"bytes"
	"encoding/binary"
	"os"
	"unicode/utf8"

	"github.com/apex/log"
	"github.com/blacktop/il2cppdump/internal/magic"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/types"
	"github.com/pkg/errors"
)

// supported header versions
var supportedVersions = map[uint32]bool{
	21: true,
	22: true,
}

// Metadata is a parsed global-metadata.dat. It is not modified after Parse returns.
type Metadata struct {
	Header    Header
	HeaderV22 *HeaderV22

	StringLiterals     []string
	Images             []ImageDefinition
	Types              []TypeDefinition
	Methods            []MethodDefinition
	Parameters         []ParameterDefinition
	Fields             []FieldDefinition
	Properties         []PropertyDefinition
	FieldDefaultValues []FieldDefaultValue

	data     []byte
	defaults map[int32]int
}

// Open reads and parses the metadata file at path.
func Open(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return Parse(data)
}

// Parse decodes the header and every table the loader consumes.
func Parse(data []byte) (*Metadata, error) {
	m := &Metadata{data: data}

	r := bytes.NewReader(data)
	if err := binary.Read(r, binary.LittleEndian, &m.Header); err != nil {
		return nil, errors.Wrapf(types.ErrMalformedMetadata, "failed to read header: %v", err)
	}
	if magic.Magic(m.Header.Sanity) != magic.MagicMetadata {
		return nil, errors.Wrapf(types.ErrMalformedMetadata, "bad magic %#08x", m.Header.Sanity)
	}
	if !supportedVersions[m.Header.Version] {
		return nil, errors.Wrapf(types.ErrMalformedMetadata, "unsupported version %d", m.Header.Version)
	}
	if m.Header.Version >= 22 {
		m.HeaderV22 = &HeaderV22{}
		if err := binary.Read(r, binary.LittleEndian, m.HeaderV22); err != nil {
			return nil, errors.Wrapf(types.ErrMalformedMetadata, "failed to read v22 header: %v", err)
		}
	}

	literals, err := readTable[StringLiteral](m, m.Header.StringLiterals, "string literals")
	if err != nil {
		return nil, err
	}
	m.StringLiterals = make([]string, len(literals))
	for i, lit := range literals {
		raw, err := m.bytesAt(int64(m.Header.StringLiteralData.Offset)+int64(lit.DataIndex), int64(lit.Length))
		if err != nil {
			return nil, errors.Wrapf(err, "string literal %d", i)
		}
		if !utf8.Valid(raw) {
			log.Debugf("string literal %d is not valid UTF-8", i)
		}
		m.StringLiterals[i] = string(raw)
	}

	if m.Images, err = readTable[ImageDefinition](m, m.Header.Images, "images"); err != nil {
		return nil, err
	}
	if m.Types, err = readTable[TypeDefinition](m, m.Header.TypeDefinitions, "type definitions"); err != nil {
		return nil, err
	}
	if m.Methods, err = readTable[MethodDefinition](m, m.Header.Methods, "methods"); err != nil {
		return nil, err
	}
	if m.Parameters, err = readTable[ParameterDefinition](m, m.Header.Parameters, "parameters"); err != nil {
		return nil, err
	}
	if m.Fields, err = readTable[FieldDefinition](m, m.Header.Fields, "fields"); err != nil {
		return nil, err
	}
	if m.Properties, err = readTable[PropertyDefinition](m, m.Header.Properties, "properties"); err != nil {
		return nil, err
	}
	if m.FieldDefaultValues, err = readTable[FieldDefaultValue](m, m.Header.FieldDefaultValues, "field default values"); err != nil {
		return nil, err
	}

	m.defaults = make(map[int32]int, len(m.FieldDefaultValues))
	for i, dv := range m.FieldDefaultValues {
		if _, dup := m.defaults[dv.FieldIndex]; !dup {
			m.defaults[dv.FieldIndex] = i
		}
	}

	log.WithFields(log.Fields{
		"version":  m.Header.Version,
		"images":   len(m.Images),
		"types":    len(m.Types),
		"methods":  len(m.Methods),
		"fields":   len(m.Fields),
		"literals": len(m.StringLiterals),
	}).Debug("Parsed metadata")

	return m, nil
}

// readTable decodes a section as an array of T.
func readTable[T any](m *Metadata, sec Section, name string) ([]T, error) {
	var zero T
	size := binary.Size(zero)
	count := int(sec.Size) / size
	if int(sec.Size)%size != 0 {
		log.Debugf("%s section size %#x is not a multiple of %d", name, sec.Size, size)
	}
	raw, err := m.bytesAt(int64(sec.Offset), int64(count*size))
	if err != nil {
		return nil, errors.Wrapf(err, "%s table", name)
	}
	out := make([]T, count)
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, out); err != nil {
		return nil, errors.Wrapf(types.ErrMalformedMetadata, "failed to decode %s: %v", name, err)
	}
	return out, nil
}

func (m *Metadata) bytesAt(off, n int64) ([]byte, error) {
	if off < 0 || n < 0 || off > int64(len(m.data)) || n > int64(len(m.data))-off {
		return nil, errors.Wrapf(types.ErrMalformedMetadata, "read of %#x bytes at %#x is past end of file (%#x)", n, off, len(m.data))
	}
	return m.data[off : off+n], nil
}

// GetString reads the NUL terminated identifier at offset in the string heap.
func (m *Metadata) GetString(offset int32) (string, error) {
	if offset < 0 || uint32(offset) >= m.Header.Strings.Size {
		return "", errors.Wrapf(types.ErrIndexOutOfRange, "string offset %d (heap size %d)", offset, m.Header.Strings.Size)
	}
	start := int64(m.Header.Strings.Offset) + int64(offset)
	end := min(int64(m.Header.Strings.Offset)+int64(m.Header.Strings.Size), int64(len(m.data)))
	if start >= end {
		return "", errors.Wrapf(types.ErrMalformedMetadata, "string offset %d is past end of file", offset)
	}
	heap := m.data[start:end]
	if i := bytes.IndexByte(heap, 0); i >= 0 {
		heap = heap[:i]
	}
	return string(heap), nil
}

// GetStringLiteral returns the literal at index.
func (m *Metadata) GetStringLiteral(index int) (string, error) {
	if index < 0 || index >= len(m.StringLiterals) {
		return "", errors.Wrapf(types.ErrIndexOutOfRange, "string literal %d (count %d)", index, len(m.StringLiterals))
	}
	return m.StringLiterals[index], nil
}

// FieldDefault returns the default value record of the field, if any.
func (m *Metadata) FieldDefault(fieldIndex int32) (FieldDefaultValue, bool) {
	i, ok := m.defaults[fieldIndex]
	if !ok {
		return FieldDefaultValue{}, false
	}
	return m.FieldDefaultValues[i], true
}

// TypeName returns the name of a type definition.
func (m *Metadata) TypeName(t TypeDefinition) (string, error) {
	return m.GetString(t.NameIndex)
}

// TypeNamespace returns the namespace of a type definition.
func (m *Metadata) TypeNamespace(t TypeDefinition) (string, error) {
	return m.GetString(t.NamespaceIndex)
}

// ImageName returns the assembly file name of an image.
func (m *Metadata) ImageName(img ImageDefinition) (string, error) {
	return m.GetString(img.NameIndex)
}
