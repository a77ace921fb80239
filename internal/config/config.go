// Package config loads settings from a yaml file, MEMODECK_* environment
// variables and command-line flags, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const envPrefix = "MEMODECK_"

// Config is the resolved application configuration.
type Config struct {
	DataDir    string `koanf:"data_dir"`
	ListenAddr string `koanf:"listen_addr"`
	LogLevel   string `koanf:"log_level"`
	BcryptCost int    `koanf:"bcrypt_cost"`

	// One-shot import mode: when ImportDir or ImportGit is set the process
	// imports into ImportUser's partition and exits instead of serving.
	ImportDir  string `koanf:"import_dir"`
	ImportGit  string `koanf:"import_git"`
	ImportUser string `koanf:"import_user"`
}

// Load resolves the configuration. The yaml file named by the --config
// flag (or MEMODECK_CONFIG) is optional; flag defaults fill anything the
// file and environment leave unset.
func Load(flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path := configPath(flags); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
		return nil, fmt.Errorf("load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func configPath(flags *pflag.FlagSet) string {
	if path, err := flags.GetString("config"); err == nil && path != "" {
		return path
	}
	return os.Getenv(envPrefix + "CONFIG")
}
