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
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/apex/log"
	"github.com/blacktop/il2cppdump/internal/commands/dump"
	"github.com/caarlos0/ctrlc"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(dumpCmd)

	dumpCmd.Flags().StringP("output", "o", "", "Output folder (default is the current directory)")
	dumpCmd.Flags().StringSliceP("format", "f", nil, fmt.Sprintf("Outputs to write (%s)", strings.Join(dump.Formats, ", ")))
	dumpCmd.Flags().StringP("namespace", "n", dump.DefaultProtoNamespace, "Namespace prefix of the struct and proto outputs")
	dumpCmd.Flags().Int("cache-size", 0, "Resolved type name cache size")
	dumpCmd.Flags().MarkHidden("cache-size")
	viper.BindPFlag("dump.output", dumpCmd.Flags().Lookup("output"))
	viper.BindPFlag("dump.formats", dumpCmd.Flags().Lookup("format"))
	viper.BindPFlag("dump.proto-namespace", dumpCmd.Flags().Lookup("namespace"))
	viper.BindPFlag("dump.name-cache-size", dumpCmd.Flags().Lookup("cache-size"))
}

// dumpCmd represents the dump command
var dumpCmd = &cobra.Command{
	Use:   "dump [BINARY] [METADATA]",
	Short: "Write pseudo C#, C structs, protobuf schema, method offsets and strings",
	Args:  cobra.MaximumNArgs(2),
	Example: heredoc.Doc(`
		# Dump an Android build (defaults to libil2cpp.so and global-metadata.dat)
		$ il2cppdump dump -o out

		# Dump the arm64 slice of an iOS build
		$ il2cppdump dump UnityFramework global-metadata.dat --arch arm64

		# Only write the protobuf schema of a namespace
		$ il2cppdump dump -f proto -n Game.Net.Rpc
	`),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, conf, err := loadModel(args)
		if err != nil {
			return err
		}

		dconf := &dump.Config{
			Output:         conf.Dump.Output,
			Formats:        conf.Dump.Formats,
			ProtoNamespace: conf.Dump.ProtoNamespace,
			NameCacheSize:  conf.Dump.NameCacheSize,
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		log.Info("Dumping")
		if err := ctrlc.Default.Run(ctx, func() error {
			_, err := dump.Run(ctx, m, dconf)
			return err
		}); err != nil {
			if errors.As(err, &ctrlc.ErrorCtrlC{}) {
				log.Warn("Exiting...")
				return nil
			}
			return err
		}

		return nil
	},
}
