package metadata

import (
	"encoding/binary"
	"math"

	"github.com/blacktop/il2cppdump/pkg/il2cpp/types"
	"github.com/pkg/errors"
)

// Char is a decoded System.Char constant.
type Char rune

// DecodeDefaultValue decodes one constant of the given kind stored at dataIndex
// in the default value data heap. Kinds without a constant encoding, and a
// negative dataIndex, report ok == false.
func (m *Metadata) DecodeDefaultValue(dataIndex int32, kind types.TypeEnum) (value any, ok bool, err error) {
	if dataIndex < 0 {
		return nil, false, nil
	}
	pos := int64(m.Header.FieldAndParameterDefaultValueData.Offset) + int64(dataIndex)

	read := func(n int64) []byte {
		if err != nil {
			return nil
		}
		var b []byte
		b, err = m.bytesAt(pos, n)
		pos += n
		return b
	}
	le := binary.LittleEndian

	switch kind {
	case types.TypeBoolean:
		if b := read(1); b != nil {
			value = b[0] != 0
		}
	case types.TypeI1:
		if b := read(1); b != nil {
			value = int8(b[0])
		}
	case types.TypeU1:
		if b := read(1); b != nil {
			value = b[0]
		}
	case types.TypeChar:
		if b := read(2); b != nil {
			value = Char(le.Uint16(b))
		}
	case types.TypeI2:
		if b := read(2); b != nil {
			value = int16(le.Uint16(b))
		}
	case types.TypeU2:
		if b := read(2); b != nil {
			value = le.Uint16(b)
		}
	case types.TypeI4:
		if b := read(4); b != nil {
			value = int32(le.Uint32(b))
		}
	case types.TypeU4:
		if b := read(4); b != nil {
			value = le.Uint32(b)
		}
	case types.TypeI8:
		if b := read(8); b != nil {
			value = int64(le.Uint64(b))
		}
	case types.TypeU8:
		if b := read(8); b != nil {
			value = le.Uint64(b)
		}
	case types.TypeR4:
		if b := read(4); b != nil {
			value = math.Float32frombits(le.Uint32(b))
		}
	case types.TypeR8:
		if b := read(8); b != nil {
			value = math.Float64frombits(le.Uint64(b))
		}
	case types.TypeString:
		if b := read(4); b != nil {
			n := int32(le.Uint32(b))
			if n < 0 {
				return nil, false, errors.Wrapf(types.ErrMalformedMetadata, "negative string default length %d", n)
			}
			if s := read(int64(n)); s != nil {
				value = string(s)
			}
		}
	default:
		return nil, false, nil
	}

	if err != nil {
		return nil, false, errors.Wrapf(err, "default value at data index %d", dataIndex)
	}
	return value, true, nil
}
