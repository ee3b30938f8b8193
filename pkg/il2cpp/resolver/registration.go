package resolver

import (
	"github.com/blacktop/il2cppdump/pkg/il2cpp/image"
	"github.com/pkg/errors"
)

// CodeRegistration is the leading part of Il2CppCodeRegistration.
type CodeRegistration struct {
	MethodPointersCount uint64
	MethodPointers      uint64
}

// MetadataRegistration is the leading part of Il2CppMetadataRegistration.
type MetadataRegistration struct {
	GenericClassesCount     uint64
	GenericClasses          uint64
	GenericInstsCount       uint64
	GenericInsts            uint64
	GenericMethodTableCount uint64
	GenericMethodTable      uint64
	TypesCount              uint64
	Types                   uint64
	MethodSpecsCount        uint64
	MethodSpecs             uint64
	FieldOffsetsCount       uint64
	FieldOffsets            uint64
}

// GenericClass is an Il2CppGenericClass.
type GenericClass struct {
	Addr                uint64
	TypeDefinitionIndex int32
	ClassInst           uint64
	MethodInst          uint64
	CachedClass         uint64
}

// GenericInst is an Il2CppGenericInst.
type GenericInst struct {
	Addr uint64
	Argc uint64
	Argv uint64
}

func readCodeRegistration(img image.Image, addr uint64) (CodeRegistration, error) {
	w, err := image.ReadPointers(img, addr, 2)
	if err != nil {
		return CodeRegistration{}, errors.Wrapf(err, "failed to read code registration at %#x", addr)
	}
	return CodeRegistration{
		MethodPointersCount: w[0],
		MethodPointers:      w[1],
	}, nil
}

func readMetadataRegistration(img image.Image, addr uint64) (MetadataRegistration, error) {
	w, err := image.ReadPointers(img, addr, 12)
	if err != nil {
		return MetadataRegistration{}, errors.Wrapf(err, "failed to read metadata registration at %#x", addr)
	}
	return MetadataRegistration{
		GenericClassesCount:     w[0],
		GenericClasses:          w[1],
		GenericInstsCount:       w[2],
		GenericInsts:            w[3],
		GenericMethodTableCount: w[4],
		GenericMethodTable:      w[5],
		TypesCount:              w[6],
		Types:                   w[7],
		MethodSpecsCount:        w[8],
		MethodSpecs:             w[9],
		FieldOffsetsCount:       w[10],
		FieldOffsets:            w[11],
	}, nil
}

// readGenericClass reads the generic class at addr. The definition index is
// an int32 padded to pointer width.
func readGenericClass(img image.Image, addr uint64) (GenericClass, error) {
	w, err := image.ReadPointers(img, addr, 4)
	if err != nil {
		return GenericClass{}, errors.Wrapf(err, "failed to read generic class at %#x", addr)
	}
	return GenericClass{
		Addr:                addr,
		TypeDefinitionIndex: int32(w[0]),
		ClassInst:           w[1],
		MethodInst:          w[2],
		CachedClass:         w[3],
	}, nil
}

func readGenericInst(img image.Image, addr uint64) (GenericInst, error) {
	w, err := image.ReadPointers(img, addr, 2)
	if err != nil {
		return GenericInst{}, errors.Wrapf(err, "failed to read generic inst at %#x", addr)
	}
	return GenericInst{Addr: addr, Argc: w[0], Argv: w[1]}, nil
}

// readPointerTable reads count pointers at addr; an empty table may have a nil address.
func readPointerTable(img image.Image, addr, count uint64, name string) ([]uint64, error) {
	if count == 0 {
		return nil, nil
	}
	ptrs, err := image.ReadPointers(img, addr, count)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %d %s at %#x", count, name, addr)
	}
	return ptrs, nil
}
