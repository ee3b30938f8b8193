package resolver

import (
	"errors"
	"testing"

	"github.com/blacktop/il2cppdump/pkg/il2cpp/image"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/image/imagetest"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/metadata"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/metadata/metadatatest"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/scan"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/types"
)

// indices into the fixture's types table
const (
	tInt = iota
	tHolder
	tHolderInt
	tHolderHolderInt
	tIntSzArray
	tIntArray
	tUnknown
	tLoop
	tBadClass
	typeCount
)

type fixture struct {
	img     *imagetest.Image
	meta    *metadata.Metadata
	anchors scan.Anchors
}

func newFixture(t *testing.T, is64 bool) fixture {
	t.Helper()

	b := metadatatest.New()
	b.Type(metadata.TypeDefinition{NameIndex: b.String("Holder"), ParentIndex: -1})
	meta, err := metadata.Parse(b.Bytes())
	if err != nil {
		t.Fatalf("metadata.Parse() error = %v", err)
	}

	img := imagetest.New(image.ArchARM64, is64)
	w := img.NewWriter(0x100000)
	ptrSize := 4
	if is64 {
		ptrSize = 8
	}
	desc := func(kind types.TypeEnum, data uint64) uint64 {
		addr := w.Ptr(data)
		w.Uint32(types.EncodeBits(kind, 0, 0, false, false))
		w.Align(ptrSize)
		return addr
	}
	genericClass := func(argv ...uint64) uint64 {
		args := w.Addr()
		for _, a := range argv {
			w.Ptr(a)
		}
		inst := w.Ptr(uint64(len(argv)))
		w.Ptr(args)
		gc := w.Ptr(0) // type definition 0
		w.Ptr(inst)
		w.Ptr(0)
		w.Ptr(0)
		return gc
	}

	descs := make([]uint64, typeCount)
	descs[tInt] = desc(types.TypeI4, 0)
	descs[tHolder] = desc(types.TypeClass, 0)
	gc1 := genericClass(descs[tInt])
	descs[tHolderInt] = desc(types.TypeGenericInst, gc1)
	gc2 := genericClass(descs[tHolderInt])
	descs[tHolderHolderInt] = desc(types.TypeGenericInst, gc2)
	descs[tIntSzArray] = desc(types.TypeSzArray, descs[tInt])
	arrayType := w.Ptr(descs[tInt])
	w.Ptr(1) // rank
	descs[tIntArray] = desc(types.TypeArray, arrayType)
	descs[tUnknown] = desc(types.TypeModifier, 0)
	gc3 := genericClass(0)
	descs[tLoop] = desc(types.TypeGenericInst, gc3)
	// point the only argument of gc3 back at the descriptor using it
	w.PutPtr(gc3-uint64(3*ptrSize), descs[tLoop])
	descs[tBadClass] = desc(types.TypeClass, 7)

	typesTable := w.Addr()
	for _, d := range descs {
		w.Ptr(d)
	}
	methodPointers := w.Ptr(0x1111)
	w.Ptr(0x2222)
	w.Ptr(0x3333)
	offsets := w.Uint32(8)
	w.Uint32(12)
	w.Align(ptrSize)
	fieldOffsets := w.Ptr(offsets)
	w.Ptr(0)
	genericClasses := w.Ptr(gc1)
	w.Ptr(gc2)
	w.Ptr(gc3)

	code := w.Ptr(3)
	w.Ptr(methodPointers)
	mr := w.Ptr(3)
	w.Ptr(genericClasses)
	w.Ptr(0)
	w.Ptr(0)
	w.Ptr(0)
	w.Ptr(0)
	w.Ptr(typeCount)
	w.Ptr(typesTable)
	w.Ptr(0)
	w.Ptr(0)
	w.Ptr(2)
	w.Ptr(fieldOffsets)
	img.Commit(w)

	return fixture{
		img:     img,
		meta:    meta,
		anchors: scan.Anchors{CodeRegistration: code, MetadataRegistration: mr},
	}
}

func configure(t *testing.T, is64 bool) *Resolver {
	t.Helper()
	f := newFixture(t, is64)
	r, err := Configure(f.img, f.meta, f.anchors)
	if err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	return r
}

func TestConfigure(t *testing.T) {
	for _, is64 := range []bool{false, true} {
		r := configure(t, is64)
		if len(r.Types) != typeCount {
			t.Errorf("is64=%t: got %d types, want %d", is64, len(r.Types), typeCount)
		}
		if len(r.MethodPointers) != 3 || r.MethodPointers[1] != 0x2222 {
			t.Errorf("is64=%t: MethodPointers = %#x", is64, r.MethodPointers)
		}
		if len(r.GenericClasses) != 3 {
			t.Errorf("is64=%t: got %d generic classes", is64, len(r.GenericClasses))
		}
		if got := r.Types[tHolder]; got.Kind != types.TypeClass || got.KlassIndex() != 0 {
			t.Errorf("is64=%t: Types[holder] = %s", is64, got)
		}
	}
}

func TestConfigureBadAnchors(t *testing.T) {
	f := newFixture(t, true)

	if _, err := Configure(f.img, f.meta, scan.Anchors{}); !errors.Is(err, types.ErrAnchorNotFound) {
		t.Errorf("Configure(zero anchors) error = %v", err)
	}
	a := f.anchors
	a.CodeRegistration = 0xdead0000
	if _, err := Configure(f.img, f.meta, a); !errors.Is(err, types.ErrUnmappedAddress) {
		t.Errorf("Configure(unmapped code registration) error = %v", err)
	}
}

func TestResolveName(t *testing.T) {
	tests := []struct {
		index   int32
		want    string
		wantErr error
	}{
		{tInt, "int", nil},
		{tHolder, "Holder", nil},
		{tHolderInt, "Holder<int>", nil},
		{tHolderHolderInt, "Holder<Holder<int>>", nil},
		{tIntSzArray, "int[]", nil},
		{tIntArray, "int[]", nil},
		{tUnknown, types.UnknownTypeName, nil},
		{tLoop, "", types.ErrTypeRecursion},
		{tBadClass, "", types.ErrIndexOutOfRange},
	}
	for _, is64 := range []bool{false, true} {
		r := configure(t, is64)
		for _, tt := range tests {
			typ, err := r.TypeFromIndex(tt.index)
			if err != nil {
				t.Fatalf("TypeFromIndex(%d) error = %v", tt.index, err)
			}
			got, err := r.ResolveName(typ)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("is64=%t: ResolveName(%d) error = %v, want %v", is64, tt.index, err, tt.wantErr)
				}
				continue
			}
			if err != nil {
				t.Errorf("is64=%t: ResolveName(%d) error = %v", is64, tt.index, err)
				continue
			}
			if got != tt.want {
				t.Errorf("is64=%t: ResolveName(%d) = %q, want %q", is64, tt.index, got, tt.want)
			}
			again, _ := r.ResolveName(typ)
			if again != got {
				t.Errorf("is64=%t: ResolveName(%d) is not stable: %q then %q", is64, tt.index, got, again)
			}
		}
	}
}

func TestTypeFromIndexOutOfRange(t *testing.T) {
	r := configure(t, true)
	for _, i := range []int32{-1, typeCount} {
		if _, err := r.TypeFromIndex(i); !errors.Is(err, types.ErrIndexOutOfRange) {
			t.Errorf("TypeFromIndex(%d) error = %v", i, err)
		}
	}
}

func TestFirstGenericArgument(t *testing.T) {
	r := configure(t, false)
	arg, err := r.FirstGenericArgument(r.Types[tHolderHolderInt])
	if err != nil {
		t.Fatalf("FirstGenericArgument() error = %v", err)
	}
	if name, _ := r.ResolveName(arg); name != "Holder<int>" {
		t.Errorf("FirstGenericArgument() resolves to %q", name)
	}
	if _, err := r.FirstGenericArgument(r.Types[tInt]); err == nil {
		t.Error("FirstGenericArgument(int) succeeded")
	}
}

func TestMethodPointer(t *testing.T) {
	r := configure(t, true)
	tests := []struct {
		index int32
		want  uint64
		ok    bool
	}{
		{0, 0x1111, true},
		{2, 0x3333, true},
		{-1, 0, false},
		{3, 0, false},
	}
	for _, tt := range tests {
		got, ok := r.MethodPointer(tt.index)
		if got != tt.want || ok != tt.ok {
			t.Errorf("MethodPointer(%d) = %#x, %t, want %#x, %t", tt.index, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFieldOffset(t *testing.T) {
	r := configure(t, true)
	if got, err := r.FieldOffset(0, 1); err != nil || got != 12 {
		t.Errorf("FieldOffset(0, 1) = %d, %v", got, err)
	}
	for _, typeIndex := range []int{1, 2, -1} {
		if _, err := r.FieldOffset(typeIndex, 0); !errors.Is(err, types.ErrIndexOutOfRange) {
			t.Errorf("FieldOffset(%d, 0) error = %v", typeIndex, err)
		}
	}
}
