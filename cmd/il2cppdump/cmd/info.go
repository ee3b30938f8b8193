/*
Copyright © 2025 blacktop

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/apex/log"
	"github.com/blacktop/il2cppdump/internal/colors"
	"github.com/blacktop/il2cppdump/internal/utils"
	"github.com/blacktop/il2cppdump/pkg/il2cpp"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/image"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/scan"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const metadataRegistrationWords = 12

func init() {
	rootCmd.AddCommand(infoCmd)

	infoCmd.Flags().BoolP("trace", "t", false, "Disassemble the registration thunk")
	infoCmd.Flags().BoolP("hexdump", "x", false, "Hexdump the registration structures")
	viper.BindPFlag("info.trace", infoCmd.Flags().Lookup("trace"))
	viper.BindPFlag("info.hexdump", infoCmd.Flags().Lookup("hexdump"))
}

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:           "info [BINARY] [METADATA]",
	Aliases:       []string{"i"},
	Short:         "Show the container, registration anchors and table sizes",
	Args:          cobra.MaximumNArgs(2),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, _, err := loadModel(args)
		if err != nil {
			return err
		}

		header := colors.Header().SprintFunc()
		label := colors.Label().SprintFunc()
		addr := colors.Address().SprintfFunc()
		count := colors.Count().SprintFunc()

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 1, ' ', 0)
		fmt.Fprintln(w, header("Executable"))
		fmt.Fprintf(w, "  %s\t%s\n", label("Format"), m.Image.Format())
		fmt.Fprintf(w, "  %s\t%s (64-bit: %t)\n", label("Arch"), m.Image.Arch(), m.Image.Is64Bit())
		fmt.Fprintf(w, "  %s\t%s\n", label("Size"), humanize.Bytes(uint64(m.Image.Size())))
		fmt.Fprintf(w, "  %s\t%d\n", label("Segments"), len(m.Image.Segments()))
		fmt.Fprintf(w, "  %s\t%s\n", label("Global Offset"), addr("%#x", m.Image.GlobalOffset()))

		fmt.Fprintln(w, header("Anchors"))
		fmt.Fprintf(w, "  %s\t%s @ %s\n", label("Scanner"), m.Anchors.Scanner, addr("%#x", m.Anchors.Thunk))
		fmt.Fprintf(w, "  %s\t%s\n", label("CodeRegistration"), addr("%#x", m.Anchors.CodeRegistration))
		fmt.Fprintf(w, "  %s\t%s\n", label("MetadataRegistration"), addr("%#x", m.Anchors.MetadataRegistration))

		code, meta := m.Registrations()
		fmt.Fprintln(w, header("Tables"))
		for _, row := range []struct {
			name string
			n    int
		}{
			{"Images", len(m.Images())},
			{"Types", len(m.TypeDefinitions())},
			{"Methods", len(m.Methods())},
			{"Parameters", len(m.Parameters())},
			{"Fields", len(m.Fields())},
			{"Properties", len(m.Properties())},
			{"String Literals", len(m.StringLiterals())},
			{"Method Pointers", int(code.MethodPointersCount)},
			{"Type Descriptors", int(meta.TypesCount)},
			{"Generic Classes", int(meta.GenericClassesCount)},
			{"Field Offsets", int(meta.FieldOffsetsCount)},
		} {
			fmt.Fprintf(w, "  %s\t%s\n", label(row.name), count(row.n))
		}
		w.Flush()

		if viper.GetBool("info.trace") {
			fmt.Println(header("\nThunk"))
			lines := scan.Trace(m.Image, m.Anchors, 12)
			if len(lines) == 0 {
				log.Warn("Could not disassemble the registration thunk")
			}
			for _, line := range lines {
				fmt.Println("  " + line)
			}
		}

		if viper.GetBool("info.hexdump") {
			if err := dumpRegistrations(m); err != nil {
				return err
			}
		}

		return nil
	},
}

func dumpRegistrations(m *il2cpp.Model) error {
	ptrSize := image.PointerSize(m.Image)
	for _, reg := range []struct {
		name  string
		addr  uint64
		words int
	}{
		{"CodeRegistration", m.Anchors.CodeRegistration, 2},
		{"MetadataRegistration", m.Anchors.MetadataRegistration, metadataRegistrationWords},
	} {
		data, err := image.ReadBytes(m.Image, reg.addr, reg.words*ptrSize)
		if err != nil {
			return fmt.Errorf("failed to read %s: %v", reg.name, err)
		}
		fmt.Println(colors.Header().Sprintf("\n%s", reg.name))
		fmt.Print(utils.HexDump(data, reg.addr))
	}
	return nil
}
