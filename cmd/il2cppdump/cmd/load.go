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

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/apex/log"
	"github.com/blacktop/il2cppdump/internal/config"
	"github.com/blacktop/il2cppdump/internal/magic"
	"github.com/blacktop/il2cppdump/pkg/il2cpp"
	"github.com/blacktop/il2cppdump/pkg/il2cpp/image"
)

// inputs resolves the binary and metadata paths from the positional args,
// falling back to the configured defaults.
func inputs(conf *config.Config, args []string) (string, string) {
	binary, meta := conf.Dump.Binary, conf.Dump.Metadata
	if len(args) > 0 {
		binary = args[0]
	}
	if len(args) > 1 {
		meta = args[1]
	}
	return binary, meta
}

// loadModel reads both inputs and builds the model, asking which slice to use
// when a universal MachO has several and --arch was not given.
func loadModel(args []string) (*il2cpp.Model, *config.Config, error) {
	conf, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	binaryPath, metaPath := inputs(conf, args)

	binary, err := os.ReadFile(binaryPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read binary %s: %v", binaryPath, err)
	}
	meta, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read metadata %s: %v", metaPath, err)
	}

	arch := conf.FatArch()
	if arch == image.ArchUnknown {
		if arch, err = pickFatArch(binary); err != nil {
			return nil, nil, err
		}
	}

	log.WithField("binary", binaryPath).WithField("metadata", metaPath).Info("Loading IL2CPP build")
	m, err := il2cpp.Load(binary, meta, il2cpp.Config{FatArch: arch})
	if err != nil {
		return nil, nil, err
	}
	return m, conf, nil
}

func pickFatArch(binary []byte) (image.Arch, error) {
	if kind, err := magic.Detect(binary); err != nil || kind != magic.FatMachO {
		return image.ArchUnknown, nil
	}
	arches, err := image.FatArches(binary)
	if err != nil {
		return image.ArchUnknown, err
	}
	if len(arches) <= 1 {
		return image.ArchUnknown, nil
	}

	var choices []string
	for _, a := range arches {
		choices = append(choices, a.String())
	}
	var selected int
	prompt := &survey.Select{
		Message: "Select which slice to dump:",
		Options: choices,
	}
	if err := survey.AskOne(prompt, &selected); err != nil {
		if err == terminal.InterruptErr {
			log.Warn("Exiting...")
			os.Exit(0)
		}
		log.WithError(err).Warn("Cannot prompt for a slice, using arm64")
		return image.ArchARM64, nil
	}
	return arches[selected], nil
}
