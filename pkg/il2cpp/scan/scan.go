// Package scan locates the IL2CPP code and metadata registration structures by
// matching the byte signature of the compiler emitted registration thunk.
package scan

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/apex/log"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/image"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/types"
	"github.com/pkg/errors"
)

// Anchors are the virtual addresses of the two registration structures.
type Anchors struct {
	CodeRegistration     uint64
	MetadataRegistration uint64
	// Thunk is the candidate the anchors were recovered from.
	Thunk uint64
	// Scanner names the signature that matched.
	Scanner string
}

func (a Anchors) String() string {
	return fmt.Sprintf("CodeRegistration=%#x MetadataRegistration=%#x (%s @ %#x)",
		a.CodeRegistration, a.MetadataRegistration, a.Scanner, a.Thunk)
}

// Scanner tests one candidate address for a registration thunk.
type Scanner interface {
	Name() string
	TryMatch(img image.Image, loc uint64) (Anchors, bool)
}

// Chain tries each scanner in order and returns the first match.
type Chain []Scanner

func (c Chain) Name() string {
	names := make([]string, 0, len(c))
	for _, s := range c {
		names = append(names, s.Name())
	}
	return strings.Join(names, ",")
}

func (c Chain) TryMatch(img image.Image, loc uint64) (Anchors, bool) {
	for _, s := range c {
		log.WithField("scanner", s.Name()).Debugf("Probing %#x", loc)
		if a, ok := s.TryMatch(img, loc); ok {
			a.Thunk = loc
			if a.Scanner == "" {
				a.Scanner = s.Name()
			}
			return a, true
		}
	}
	return Anchors{}, false
}

// ForImage returns the scanner chain for the image's architecture.
func ForImage(img image.Image) (Scanner, error) {
	switch img.Arch() {
	case image.ArchX86:
		return Chain{X86{}, X86PIC{}}, nil
	case image.ArchARM:
		if img.Is64Bit() {
			return Chain{ARM64{}}, nil
		}
		return Chain{ARM{}, Thumb{}, ThumbPCRel{}}, nil
	case image.ArchARM64:
		return Chain{ARM64{}}, nil
	}
	return nil, errors.Wrapf(types.ErrUnsupportedArchitecture, "no registration scanner for %s", img.Arch())
}

// Find walks the image's search locations in order and returns the anchors
// recovered from the first candidate that matches s.
func Find(img image.Image, s Scanner) (Anchors, error) {
	locs := img.SearchLocations()
	log.WithFields(log.Fields{
		"scanner":    s.Name(),
		"candidates": len(locs),
	}).Debug("Searching for registration thunk")

	for _, loc := range locs {
		if loc == 0 {
			continue
		}
		a, ok := s.TryMatch(img, loc)
		if !ok || a.CodeRegistration == 0 {
			continue
		}
		if a.Thunk == 0 {
			a.Thunk = loc
		}
		if a.Scanner == "" {
			a.Scanner = s.Name()
		}
		log.WithFields(log.Fields{
			"code_registration":     fmt.Sprintf("%#x", a.CodeRegistration),
			"metadata_registration": fmt.Sprintf("%#x", a.MetadataRegistration),
			"scanner":               a.Scanner,
		}).Debugf("Found registration thunk at %#x", loc)
		if l, ok := log.Log.(*log.Logger); ok && l.Level == log.DebugLevel {
			for _, line := range Trace(img, a, 8) {
				log.Debug("  " + line)
			}
		}
		return a, nil
	}
	return Anchors{}, errors.Wrapf(types.ErrAnchorNotFound, "searched %d candidates", len(locs))
}

// cursor reads from an image during a match attempt. The first failure sticks
// and turns every later read into a zero value, so a scanner checks err once
// at the end.
type cursor struct {
	img image.Image
	err error
}

func newCursor(img image.Image) *cursor {
	return &cursor{img: img}
}

// mapVA translates a virtual address to a file offset.
func (p *cursor) mapVA(addr uint64) uint64 {
	if p.err != nil {
		return 0
	}
	off, err := p.img.Map(addr)
	if err != nil {
		p.err = err
		return 0
	}
	return off
}

// bytesAt reads n bytes at file offset off.
func (p *cursor) bytesAt(off uint64, n int) []byte {
	if p.err != nil {
		return make([]byte, n)
	}
	buf, err := image.ReadAt(p.img, off, n)
	if err != nil {
		p.err = err
		return make([]byte, n)
	}
	return buf
}

func (p *cursor) u32At(off uint64) uint32 {
	return p.img.ByteOrder().Uint32(p.bytesAt(off, 4))
}

// match reports whether the bytes at file offset off equal sig.
func (p *cursor) match(off uint64, sig []byte) bool {
	if p.err != nil {
		return false
	}
	return bytes.Equal(p.bytesAt(off, len(sig)), sig)
}

// ok reports whether every read succeeded; failures are logged.
func (p *cursor) ok(scanner string) bool {
	if p.err != nil {
		log.WithError(p.err).WithField("scanner", scanner).Debug("Signature matched but decoding failed")
		return false
	}
	return true
}
