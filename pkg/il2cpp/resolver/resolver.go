// Package resolver reads the registration structures the anchors point at and
// turns raw Il2CppType descriptors into C# type names.
package resolver

import (
	"strings"

	"github.com/apex/log"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/image"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/metadata"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/scan"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/types"
	"github.com/pkg/errors"
)

// MaxDepth bounds the nesting of descriptors followed by ResolveName.
const MaxDepth = 32

// Resolver holds the registration tables of one image. It only reads from the
// image and metadata after Configure returns.
type Resolver struct {
	CodeRegistration     CodeRegistration
	MetadataRegistration MetadataRegistration

	// MethodPointers is indexed by MethodDefinition.MethodIndex.
	MethodPointers []uint64
	// Types is indexed by the type indices stored in metadata.
	Types          []types.Type
	GenericClasses []uint64
	GenericInsts   []uint64
	// FieldOffsets holds, per type definition, the address of its int32 offset array.
	FieldOffsets []uint64

	img  image.Image
	meta *metadata.Metadata
}

// Configure reads the code and metadata registrations located by a.
func Configure(img image.Image, meta *metadata.Metadata, a scan.Anchors) (*Resolver, error) {
	if a.CodeRegistration == 0 || a.MetadataRegistration == 0 {
		return nil, errors.Wrapf(types.ErrAnchorNotFound, "incomplete anchors: %s", a)
	}

	r := &Resolver{img: img, meta: meta}

	var err error
	if r.CodeRegistration, err = readCodeRegistration(img, a.CodeRegistration); err != nil {
		return nil, err
	}
	if r.MetadataRegistration, err = readMetadataRegistration(img, a.MetadataRegistration); err != nil {
		return nil, err
	}

	cr := r.CodeRegistration
	if r.MethodPointers, err = readPointerTable(img, cr.MethodPointers, cr.MethodPointersCount, "method pointers"); err != nil {
		return nil, err
	}

	mr := r.MetadataRegistration
	if r.GenericClasses, err = readPointerTable(img, mr.GenericClasses, mr.GenericClassesCount, "generic classes"); err != nil {
		return nil, err
	}
	if r.GenericInsts, err = readPointerTable(img, mr.GenericInsts, mr.GenericInstsCount, "generic insts"); err != nil {
		return nil, err
	}
	if r.FieldOffsets, err = readPointerTable(img, mr.FieldOffsets, mr.FieldOffsetsCount, "field offsets"); err != nil {
		return nil, err
	}

	ptrs, err := readPointerTable(img, mr.Types, mr.TypesCount, "types")
	if err != nil {
		return nil, err
	}
	r.Types = make([]types.Type, len(ptrs))
	for i, p := range ptrs {
		if r.Types[i], err = r.readType(p); err != nil {
			return nil, errors.Wrapf(err, "type %d", i)
		}
	}

	log.WithFields(log.Fields{
		"method_pointers": len(r.MethodPointers),
		"types":           len(r.Types),
		"generic_classes": len(r.GenericClasses),
		"field_offsets":   len(r.FieldOffsets),
	}).Debug("Read registrations")

	return r, nil
}

// readType reads the Il2CppType at addr: a pointer sized payload followed by
// the packed bitfield.
func (r *Resolver) readType(addr uint64) (types.Type, error) {
	data, err := image.ReadPointer(r.img, addr)
	if err != nil {
		return types.Type{}, errors.Wrapf(err, "failed to read type at %#x", addr)
	}
	bits, err := image.ReadUint32(r.img, addr+uint64(image.PointerSize(r.img)))
	if err != nil {
		return types.Type{}, errors.Wrapf(err, "failed to read type bits at %#x", addr)
	}
	t := types.DecodeType(data, bits)
	t.Addr = addr
	return t, nil
}

// TypeFromIndex returns the descriptor at index in the types table.
func (r *Resolver) TypeFromIndex(index int32) (types.Type, error) {
	if index < 0 || int(index) >= len(r.Types) {
		return types.Type{}, errors.Wrapf(types.ErrIndexOutOfRange, "type index %d (count %d)", index, len(r.Types))
	}
	return r.Types[index], nil
}

// MethodPointer returns the native entry of a method index. -1 and indices
// past the table have none.
func (r *Resolver) MethodPointer(index int32) (uint64, bool) {
	if index < 0 || int(index) >= len(r.MethodPointers) {
		return 0, false
	}
	return r.MethodPointers[index], true
}

// FieldOffset reads the offset of the n-th field of a type definition.
func (r *Resolver) FieldOffset(typeIndex, fieldInType int) (int32, error) {
	if typeIndex < 0 || typeIndex >= len(r.FieldOffsets) {
		return 0, errors.Wrapf(types.ErrIndexOutOfRange, "field offsets of type %d (count %d)", typeIndex, len(r.FieldOffsets))
	}
	if fieldInType < 0 {
		return 0, errors.Wrapf(types.ErrIndexOutOfRange, "field %d", fieldInType)
	}
	base := r.FieldOffsets[typeIndex]
	if base == 0 {
		return 0, errors.Wrapf(types.ErrIndexOutOfRange, "type %d has no field offsets", typeIndex)
	}
	off, err := image.ReadUint32(r.img, base+4*uint64(fieldInType))
	if err != nil {
		return 0, errors.Wrapf(err, "field %d of type %d", fieldInType, typeIndex)
	}
	return int32(off), nil
}

// GenericClass reads the generic class of a GENERICINST descriptor.
func (r *Resolver) GenericClass(t types.Type) (GenericClass, error) {
	if t.Kind != types.TypeGenericInst {
		return GenericClass{}, errors.Errorf("%s is not a generic instance", t.Kind)
	}
	return readGenericClass(r.img, t.GenericClass())
}

// GenericArguments returns the class instantiation arguments of a GENERICINST descriptor.
func (r *Resolver) GenericArguments(t types.Type) ([]types.Type, error) {
	gc, err := r.GenericClass(t)
	if err != nil {
		return nil, err
	}
	inst, err := readGenericInst(r.img, gc.ClassInst)
	if err != nil {
		return nil, err
	}
	argv, err := readPointerTable(r.img, inst.Argv, inst.Argc, "generic arguments")
	if err != nil {
		return nil, err
	}
	args := make([]types.Type, len(argv))
	for i, p := range argv {
		if args[i], err = r.readType(p); err != nil {
			return nil, errors.Wrapf(err, "generic argument %d", i)
		}
	}
	return args, nil
}

// FirstGenericArgument returns the first argument of a GENERICINST descriptor,
// e.g. T of RepeatedField<T>.
func (r *Resolver) FirstGenericArgument(t types.Type) (types.Type, error) {
	args, err := r.GenericArguments(t)
	if err != nil {
		return types.Type{}, err
	}
	if len(args) == 0 {
		return types.Type{}, errors.Wrapf(types.ErrIndexOutOfRange, "generic instance at %#x has no arguments", t.Addr)
	}
	return args[0], nil
}

// ResolveName renders the C# name of t.
func (r *Resolver) ResolveName(t types.Type) (string, error) {
	return r.resolveName(t, 0)
}

func (r *Resolver) resolveName(t types.Type, depth int) (string, error) {
	if depth >= MaxDepth {
		return "", errors.Wrapf(types.ErrTypeRecursion, "descriptor at %#x", t.Addr)
	}

	switch t.Kind {
	case types.TypeClass, types.TypeValueType:
		return r.definitionName(t.KlassIndex())
	case types.TypeGenericInst:
		gc, err := r.GenericClass(t)
		if err != nil {
			return "", err
		}
		name, err := r.definitionName(gc.TypeDefinitionIndex)
		if err != nil {
			return "", err
		}
		args, err := r.GenericArguments(t)
		if err != nil {
			return "", err
		}
		names := make([]string, len(args))
		for i, arg := range args {
			if names[i], err = r.resolveName(arg, depth+1); err != nil {
				return "", err
			}
		}
		return name + "<" + strings.Join(names, ", ") + ">", nil
	case types.TypeArray:
		etype, err := image.ReadPointer(r.img, t.ArrayType())
		if err != nil {
			return "", errors.Wrapf(err, "failed to read array type at %#x", t.ArrayType())
		}
		return r.elementName(etype, depth)
	case types.TypeSzArray:
		return r.elementName(t.ElementType(), depth)
	default:
		return t.Kind.DisplayName(), nil
	}
}

func (r *Resolver) elementName(addr uint64, depth int) (string, error) {
	elem, err := r.readType(addr)
	if err != nil {
		return "", err
	}
	name, err := r.resolveName(elem, depth+1)
	if err != nil {
		return "", err
	}
	return name + "[]", nil
}

func (r *Resolver) definitionName(index int32) (string, error) {
	if index < 0 || int(index) >= len(r.meta.Types) {
		return "", errors.Wrapf(types.ErrIndexOutOfRange, "type definition %d (count %d)", index, len(r.meta.Types))
	}
	return r.meta.TypeName(r.meta.Types[index])
}
