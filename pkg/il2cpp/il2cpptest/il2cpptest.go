// Package il2cpptest assembles a matching executable image and metadata blob
// so that code consuming an *il2cpp.Model can be tested without real binaries.
package il2cpptest

import (
	"github.com/blacktop/il2cppdump/pkg/il2cpp"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/image"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/image/imagetest"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/metadata"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/metadata/metadatatest"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/scan"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/types"
)

// Base is the virtual address the registration data is mapped at.
const Base = 0x200000

// Fixed is a scanner that reports the same anchors for every candidate.
type Fixed scan.Anchors

func (Fixed) Name() string { return "fixed" }

func (f Fixed) TryMatch(image.Image, uint64) (scan.Anchors, bool) {
	return scan.Anchors(f), true
}

type descriptor struct {
	kind  types.TypeEnum
	attrs uint16
	data  uint64
	args  []int32
	elem  int32
}

// Program collects the metadata tables and the registration contents.
type Program struct {
	Meta   *metadatatest.Builder
	Arch   image.Arch
	Is64   bool
	Format image.Format

	types          []descriptor
	methodPointers []uint64
	fieldOffsets   map[int32][]int32
}

// New returns an empty 64-bit arm64 program.
func New() *Program {
	return &Program{
		Meta:         metadatatest.New(),
		Arch:         image.ArchARM64,
		Is64:         true,
		fieldOffsets: make(map[int32][]int32),
	}
}

func (p *Program) add(d descriptor) int32 {
	p.types = append(p.types, d)
	return int32(len(p.types) - 1)
}

// Primitive adds a descriptor of a kind that carries no payload.
func (p *Program) Primitive(kind types.TypeEnum, attrs uint16) int32 {
	return p.add(descriptor{kind: kind, attrs: attrs})
}

// Class adds a CLASS descriptor of type definition def.
func (p *Program) Class(def int32, attrs uint16) int32 {
	return p.add(descriptor{kind: types.TypeClass, attrs: attrs, data: uint64(def)})
}

// ValueType adds a VALUETYPE descriptor of type definition def.
func (p *Program) ValueType(def int32, attrs uint16) int32 {
	return p.add(descriptor{kind: types.TypeValueType, attrs: attrs, data: uint64(def)})
}

// GenericInst adds def<args...>, where args are type indices.
func (p *Program) GenericInst(def int32, attrs uint16, args ...int32) int32 {
	return p.add(descriptor{kind: types.TypeGenericInst, attrs: attrs, data: uint64(def), args: args})
}

// SzArray adds elem[], where elem is a type index.
func (p *Program) SzArray(elem int32, attrs uint16) int32 {
	return p.add(descriptor{kind: types.TypeSzArray, attrs: attrs, elem: elem})
}

// MethodPointer appends a native entry and returns its method index.
func (p *Program) MethodPointer(addr uint64) int32 {
	p.methodPointers = append(p.methodPointers, addr)
	return int32(len(p.methodPointers) - 1)
}

// FieldOffsets sets the instance field offsets of type definition def.
func (p *Program) FieldOffsets(def int32, offsets ...int32) {
	p.fieldOffsets[def] = offsets
}

// Build lays out the registration data and returns the image, the parsed
// metadata and the anchors of the two registrations.
func (p *Program) Build() (*imagetest.Image, *metadata.Metadata, scan.Anchors, error) {
	md, err := metadata.Parse(p.Meta.Bytes())
	if err != nil {
		return nil, nil, scan.Anchors{}, err
	}

	img := imagetest.New(p.Arch, p.Is64).SetFormat(p.Format)
	w := img.NewWriter(Base)
	ptrSize := 4
	if p.Is64 {
		ptrSize = 8
	}

	descs := make([]uint64, len(p.types))
	for i, d := range p.types {
		descs[i] = w.Ptr(d.data)
		w.Uint32(types.EncodeBits(d.kind, d.attrs, 0, false, false))
		w.Align(ptrSize)
	}

	var genericClasses []uint64
	for i, d := range p.types {
		switch d.kind {
		case types.TypeGenericInst:
			argv := w.Addr()
			for _, a := range d.args {
				w.Ptr(descs[a])
			}
			inst := w.Ptr(uint64(len(d.args)))
			w.Ptr(argv)
			gc := w.Ptr(d.data)
			w.Ptr(inst)
			w.Ptr(0)
			w.Ptr(0)
			w.PutPtr(descs[i], gc)
			genericClasses = append(genericClasses, gc)
		case types.TypeSzArray:
			w.PutPtr(descs[i], descs[d.elem])
		}
	}

	typesTable := w.Addr()
	for _, d := range descs {
		w.Ptr(d)
	}
	methodPointers := w.Addr()
	for _, mp := range p.methodPointers {
		w.Ptr(mp)
	}
	gcTable := w.Addr()
	for _, gc := range genericClasses {
		w.Ptr(gc)
	}

	offsetArrays := make([]uint64, len(md.Types))
	for def, offs := range p.fieldOffsets {
		if int(def) >= len(offsetArrays) {
			continue
		}
		offsetArrays[def] = w.Addr()
		for _, o := range offs {
			w.Uint32(uint32(o))
		}
		w.Align(ptrSize)
	}
	fieldOffsets := w.Addr()
	for _, a := range offsetArrays {
		w.Ptr(a)
	}

	code := w.Ptr(uint64(len(p.methodPointers)))
	w.Ptr(methodPointers)
	mr := w.Ptr(uint64(len(genericClasses)))
	w.Ptr(gcTable)
	w.Ptr(0)
	w.Ptr(0)
	w.Ptr(0)
	w.Ptr(0)
	w.Ptr(uint64(len(descs)))
	w.Ptr(typesTable)
	w.Ptr(0)
	w.Ptr(0)
	w.Ptr(uint64(len(offsetArrays)))
	w.Ptr(fieldOffsets)

	img.Commit(w).AddSearchLocation(Base)

	return img, md, scan.Anchors{CodeRegistration: code, MetadataRegistration: mr}, nil
}

// Model builds the program and loads it with the Fixed scanner.
func (p *Program) Model() (*il2cpp.Model, error) {
	img, md, anchors, err := p.Build()
	if err != nil {
		return nil, err
	}
	return il2cpp.New(img, md, il2cpp.Config{Scanner: Fixed(anchors)})
}
