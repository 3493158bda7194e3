package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file probed when --config is not given.
const DefaultPath = ".testmatrix.yaml"

// Config holds file-backed defaults for the CLI. Flags given on the command
// line always win over values loaded from here.
type Config struct {
	Output    string `yaml:"output"`
	Pattern   string `yaml:"pattern"`
	Collector string `yaml:"collector"`
	GitRepo   string `yaml:"git_repo"`
	Archiver  string `yaml:"archiver"`
	NativeGit bool   `yaml:"native_git"`
}

// Load reads a config file. With an empty path the default location is
// probed and a missing file yields a zero config; an explicitly named file
// must exist.
func Load(path string) (*Config, error) {
	optional := path == ""
	if optional {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := &Config{}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			// Empty config file
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}
