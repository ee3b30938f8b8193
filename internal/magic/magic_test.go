package magic

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    Kind
		wantErr bool
	}{
		{"elf", []byte{0x7f, 'E', 'L', 'F', 1, 1}, ELF, false},
		{"pe", []byte{'M', 'Z', 0x90, 0x00}, PE, false},
		{"macho32", []byte{0xce, 0xfa, 0xed, 0xfe}, MachO, false},
		{"macho64", []byte{0xcf, 0xfa, 0xed, 0xfe}, MachO, false},
		{"macho32 big endian", []byte{0xfe, 0xed, 0xfa, 0xce}, MachO, false},
		{"fat", []byte{0xca, 0xfe, 0xba, 0xbe}, FatMachO, false},
		{"metadata", []byte{0xaf, 0x1b, 0xb1, 0xfa, 21, 0, 0, 0}, Metadata, false},
		{"garbage", []byte{1, 2, 3, 4}, Unknown, true},
		{"short", []byte{0x7f, 'E'}, Unknown, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Detect(tt.data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Detect() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Detect() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestIsMetadata(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "global-metadata.dat")
	if err := os.WriteFile(good, []byte{0xaf, 0x1b, 0xb1, 0xfa, 22, 0, 0, 0}, 0o644); err != nil {
		t.Fatal(err)
	}
	if ok, err := IsMetadata(good); !ok || err != nil {
		t.Errorf("IsMetadata(good) = %t, %v", ok, err)
	}
	bad := filepath.Join(dir, "libil2cpp.so")
	if err := os.WriteFile(bad, []byte{0x7f, 'E', 'L', 'F'}, 0o644); err != nil {
		t.Fatal(err)
	}
	if ok, err := IsMetadata(bad); ok || err == nil {
		t.Errorf("IsMetadata(bad) = %t, %v", ok, err)
	}
}
