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
	"bytes"
	"fmt"
	"os"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/blacktop/il2cppdump/internal/colors"
	"github.com/blacktop/il2cppdump/internal/commands/dump"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(typeCmd)
}

// typeCmd represents the type command
var typeCmd = &cobra.Command{
	Use:           "type <NAME> [BINARY] [METADATA]",
	Aliases:       []string{"t"},
	Short:         "Print the pseudo C# declaration of a type",
	Args:          cobra.RangeArgs(1, 3),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, _, err := loadModel(args[1:])
		if err != nil {
			return err
		}

		index := m.FindTypeDefinition(args[0])
		if index < 0 {
			return fmt.Errorf("type %s not found", args[0])
		}

		var buf bytes.Buffer
		if err := dump.WriteType(m, &buf, &dump.Config{}, index); err != nil {
			return err
		}
		if colors.Enabled() {
			return quick.Highlight(os.Stdout, buf.String(), "csharp", "terminal256", "nord")
		}
		fmt.Print(buf.String())
		return nil
	},
}
