// Package config is used to load the configuration file
package config

import (
	"fmt"

	"github.com/blacktop/il2cppdump/pkg/il2cpp/image"
	"github.com/spf13/viper"
)

const (
	DefaultBinary   = "libil2cpp.so"
	DefaultMetadata = "global-metadata.dat"
	DefaultOutput   = "."
)

type dump struct {
	Binary         string   `mapstructure:"binary"`
	Metadata       string   `mapstructure:"metadata"`
	Output         string   `mapstructure:"output"`
	Arch           string   `mapstructure:"arch"`
	Formats        []string `mapstructure:"formats"`
	ProtoNamespace string   `mapstructure:"proto-namespace"`
	NameCacheSize  int      `mapstructure:"name-cache-size"`
}

// Config is the configuration struct
type Config struct {
	Verbose bool `mapstructure:"verbose"`
	Color   bool `mapstructure:"color"`
	Dump    dump `mapstructure:"dump"`
}

func (c *Config) verify() error {
	if c.Dump.Binary == "" {
		c.Dump.Binary = DefaultBinary
	}
	if c.Dump.Metadata == "" {
		c.Dump.Metadata = DefaultMetadata
	}
	if c.Dump.Output == "" {
		c.Dump.Output = DefaultOutput
	}
	if c.Dump.Arch != "" {
		if _, err := image.ParseArch(c.Dump.Arch); err != nil {
			return fmt.Errorf("config: invalid dump.arch: %w", err)
		}
	}
	if c.Dump.NameCacheSize < 0 {
		return fmt.Errorf("config: dump.name-cache-size must not be negative")
	}
	return nil
}

// FatArch returns the parsed dump.arch, or image.ArchUnknown when unset.
func (c *Config) FatArch() image.Arch {
	arch, err := image.ParseArch(c.Dump.Arch)
	if err != nil {
		return image.ArchUnknown
	}
	return arch
}

// LoadConfig loads the configuration file
func LoadConfig() (*Config, error) {
	return load(viper.GetViper())
}

func load(v *viper.Viper) (*Config, error) {
	var c Config

	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal: %v", err)
	}

	if err := c.verify(); err != nil {
		return nil, fmt.Errorf("config: failed to verify: %w", err)
	}

	return &c, nil
}
