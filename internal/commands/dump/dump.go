// Package dump renders a loaded IL2CPP model as pseudo C#, C structs, a
// protobuf schema and plain listings.
package dump

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/apex/log"
	"github.com/blacktop/il2cppdump/internal/utils"
	"github.com/blacktop/il2cppdump/pkg/il2cpp"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/metadata"
	"golang.org/x/sync/errgroup"
)

const (
	FormatPseudo  = "pseudo"
	FormatStrings = "strings"
	FormatOffsets = "offsets"
	FormatStructs = "structs"
	FormatProto   = "proto"
)

// Formats lists every output in the order they are written.
var Formats = []string{FormatPseudo, FormatStrings, FormatOffsets, FormatStructs, FormatProto}

var fileNames = map[string]string{
	FormatPseudo:  "pseudo.cs",
	FormatStrings: "strings.txt",
	FormatOffsets: "methods.txt",
	FormatStructs: "structs.h",
	FormatProto:   "generated.proto",
}

// DefaultProtoNamespace is the namespace prefix of the types emitted as
// protobuf messages and C structs.
const DefaultProtoNamespace = "Holoholo.Rpc"

// FileName returns the output file name of a format.
func FileName(format string) string {
	return fileNames[format]
}

// Config is the dump configuration.
type Config struct {
	// Output is the directory the files are written to.
	Output string
	// Formats selects the outputs; empty means all of them.
	Formats []string
	// ProtoNamespace selects the types of the structs and proto outputs.
	ProtoNamespace string
	// NameCacheSize bounds the resolved type name cache.
	NameCacheSize int
}

func (c *Config) formats() ([]string, error) {
	if len(c.Formats) == 0 {
		return Formats, nil
	}
	for _, f := range c.Formats {
		if !slices.Contains(Formats, f) {
			return nil, fmt.Errorf("unknown format %q (expected one of %s)", f, strings.Join(Formats, ", "))
		}
	}
	return c.Formats, nil
}

type renderer struct {
	m     *il2cpp.Model
	names *NameCache
	conf  *Config
	// enumIndex is the type index of System.Enum, or -1.
	enumIndex int
}

func newRenderer(m *il2cpp.Model, conf *Config) (*renderer, error) {
	if conf.ProtoNamespace == "" {
		conf.ProtoNamespace = DefaultProtoNamespace
	}
	names, err := NewNameCache(m, conf.NameCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create name cache: %w", err)
	}
	r := &renderer{
		m:         m,
		names:     names,
		conf:      conf,
		enumIndex: m.FindTypeIndex("Enum"),
	}
	log.WithField("index", r.enumIndex).Debug("Resolved System.Enum")
	return r, nil
}

func (r *renderer) isEnum(def metadata.TypeDefinition) bool {
	return r.enumIndex >= 0 && int(def.ParentIndex) == r.enumIndex
}

func (r *renderer) render(ctx context.Context, format string, w io.Writer) error {
	switch format {
	case FormatPseudo:
		return r.writePseudo(ctx, w)
	case FormatStrings:
		return r.writeStrings(ctx, w)
	case FormatOffsets:
		return r.writeOffsets(ctx, w)
	case FormatStructs:
		return r.writeStructs(ctx, w)
	case FormatProto:
		return r.writeProto(ctx, w)
	}
	return fmt.Errorf("unknown format %q", format)
}

// Render writes a single format to w.
func Render(ctx context.Context, m *il2cpp.Model, format string, w io.Writer, conf *Config) error {
	r, err := newRenderer(m, conf)
	if err != nil {
		return err
	}
	return r.render(ctx, format, w)
}

// Run writes every configured format into conf.Output concurrently and
// returns the paths written.
func Run(ctx context.Context, m *il2cpp.Model, conf *Config) ([]string, error) {
	formats, err := conf.formats()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(conf.Output, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %v", conf.Output, err)
	}
	r, err := newRenderer(m, conf)
	if err != nil {
		return nil, err
	}

	if (slices.Contains(formats, FormatStructs) || slices.Contains(formats, FormatProto)) && !r.hasNamespace() {
		log.Warnf("No types under namespace %s, skipping structs and proto outputs", conf.ProtoNamespace)
		formats = slices.DeleteFunc(slices.Clone(formats), func(f string) bool {
			return f == FormatStructs || f == FormatProto
		})
	}

	paths := make([]string, len(formats))
	g, gctx := errgroup.WithContext(ctx)
	for i, format := range formats {
		i, format := i, format // per-iteration copies (go 1.21 loop semantics)
		g.Go(func() error {
			path := filepath.Join(conf.Output, FileName(format))
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("failed to create %s: %v", path, err)
			}
			defer f.Close()

			w := bufio.NewWriter(f)
			if err := r.render(gctx, format, w); err != nil {
				return fmt.Errorf("failed to write %s: %w", format, err)
			}
			if err := w.Flush(); err != nil {
				return fmt.Errorf("failed to flush %s: %v", path, err)
			}
			paths[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, path := range paths {
		utils.Indent(log.Info, 2)(fmt.Sprintf("Wrote %s", path))
	}
	log.WithField("cached_names", r.names.Len()).Debug("Dump complete")

	return paths, nil
}
