// Package il2cpp loads an IL2CPP executable and its global-metadata.dat into
// a read-only Model of every declared type, field and method.
package il2cpp

import (
	"os"

	"github.com/apex/log"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/image"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/metadata"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/resolver"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/scan"
	"github.com/pkg/errors"
)

// Config controls how the binary is loaded.
type Config struct {
	// FatArch selects the slice of a universal MachO (default arm64).
	FatArch image.Arch
	// Scanner overrides the registration scanner picked from the architecture.
	Scanner scan.Scanner
}

func (c Config) imageOptions() image.Options {
	opts := image.DefaultOptions()
	if c.FatArch != image.ArchUnknown {
		opts.FatArch = c.FatArch
	}
	return opts
}

// Open loads the executable at binaryPath and the metadata at metadataPath.
func Open(binaryPath, metadataPath string, cfg Config) (*Model, error) {
	bin, err := os.ReadFile(binaryPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read binary %s", binaryPath)
	}
	meta, err := os.ReadFile(metadataPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read metadata %s", metadataPath)
	}
	return Load(bin, meta, cfg)
}

// Load parses both inputs and builds the Model. The container parser is
// chosen from the binary's leading magic.
func Load(binary, meta []byte, cfg Config) (*Model, error) {
	md, err := metadata.Parse(meta)
	if err != nil {
		return nil, errors.Wrap(err, "metadata")
	}
	img, err := image.New(binary, cfg.imageOptions())
	if err != nil {
		return nil, errors.Wrap(err, "image")
	}
	log.WithFields(log.Fields{
		"format": img.Format(),
		"arch":   img.Arch(),
		"64-bit": img.Is64Bit(),
	}).Debug("Loaded image")
	return New(img, md, cfg)
}

// New builds a Model from an already parsed image and metadata.
func New(img image.Image, md *metadata.Metadata, cfg Config) (*Model, error) {
	s := cfg.Scanner
	if s == nil {
		var err error
		if s, err = scan.ForImage(img); err != nil {
			return nil, errors.Wrap(err, "scan")
		}
	}
	anchors, err := scan.Find(img, s)
	if err != nil {
		return nil, errors.Wrap(err, "scan")
	}

	r, err := resolver.Configure(img, md, anchors)
	if err != nil {
		return nil, errors.Wrap(err, "resolver")
	}

	// MachO method pointers are stored one past the entry
	if f := img.Format(); f == image.FormatMachO || f == image.FormatFatMachO {
		for i, p := range r.MethodPointers {
			if p != 0 {
				r.MethodPointers[i] = p - 1
			}
		}
	}

	m := &Model{
		Image:    img,
		Metadata: md,
		Anchors:  anchors,
		resolver: r,
	}
	if err := m.validate(); err != nil {
		return nil, errors.Wrap(err, "validate")
	}
	return m, nil
}
