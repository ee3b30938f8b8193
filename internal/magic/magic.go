package magic

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

type Magic uint32

const (
	MagicELF      Magic = 0x464c457f // "\x7fELF"
	Magic32       Magic = 0xfeedface
	Magic32Swap   Magic = 0xcefaedfe
	Magic64       Magic = 0xfeedfacf
	Magic64Swap   Magic = 0xcffaedfe
	MagicFatBE    Magic = 0xcafebabe
	MagicFatLE    Magic = 0xbebafeca
	MagicMetadata Magic = 0xfab11baf

	magicMZ = 0x5a4d // "MZ"
)

// Kind is the container family of a file as told by its leading bytes.
type Kind int

const (
	Unknown Kind = iota
	ELF
	PE
	MachO
	FatMachO
	Metadata
)

func (k Kind) String() string {
	switch k {
	case ELF:
		return "ELF"
	case PE:
		return "PE"
	case MachO:
		return "MachO"
	case FatMachO:
		return "Universal MachO"
	case Metadata:
		return "IL2CPP metadata"
	default:
		return "unknown"
	}
}

// Detect classifies data by its leading magic.
func Detect(data []byte) (Kind, error) {
	if len(data) < 4 {
		return Unknown, fmt.Errorf("file too small to hold a magic (%d bytes)", len(data))
	}
	m := Magic(binary.LittleEndian.Uint32(data[:4]))
	switch m {
	case MagicELF:
		return ELF, nil
	case Magic32, Magic32Swap, Magic64, Magic64Swap:
		return MachO, nil
	case MagicFatBE, MagicFatLE:
		return FatMachO, nil
	case MagicMetadata:
		return Metadata, nil
	}
	if binary.LittleEndian.Uint16(data[:2]) == magicMZ {
		return PE, nil
	}
	return Unknown, fmt.Errorf("unrecognized magic %#08x", uint32(m))
}

// DetectFile reads the first bytes of filePath and classifies them.
func DetectFile(filePath string) (Kind, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return Unknown, fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer f.Close()

	var magic [4]byte
	if _, err = io.ReadFull(f, magic[:]); err != nil {
		return Unknown, fmt.Errorf("failed to read magic: %w", err)
	}
	return Detect(magic[:])
}

func IsMetadata(filePath string) (bool, error) {
	kind, err := DetectFile(filePath)
	if err != nil {
		return false, err
	}
	if kind != Metadata {
		return false, fmt.Errorf("not an il2cpp metadata file (detected %s)", kind)
	}
	return true, nil
}
