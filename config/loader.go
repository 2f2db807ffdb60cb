package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// FileLoader decodes one configuration file format.
type FileLoader interface {
	Load(reader io.Reader, target interface{}) error
	Extensions() []string
}

// YAMLLoader loads YAML configuration files.
type YAMLLoader struct{}

func (YAMLLoader) Load(reader io.Reader, target interface{}) error {
	decoder := yaml.NewDecoder(reader)
	decoder.KnownFields(true)
	if err := decoder.Decode(target); err != nil && err != io.EOF {
		return err
	}
	return nil
}

func (YAMLLoader) Extensions() []string { return []string{".yaml", ".yml"} }

// TOMLLoader loads TOML configuration files.
type TOMLLoader struct{}

func (TOMLLoader) Load(reader io.Reader, target interface{}) error {
	md, err := toml.NewDecoder(reader).Decode(target)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown keys: %v", undecoded)
	}
	return nil
}

func (TOMLLoader) Extensions() []string { return []string{".toml"} }

var fileLoaders = map[string]FileLoader{}

func init() {
	for _, l := range []FileLoader{YAMLLoader{}, TOMLLoader{}} {
		for _, ext := range l.Extensions() {
			fileLoaders[ext] = l
		}
	}
}

// loadFile decodes path over cfg, picking the format from the file extension.
func loadFile(path string, cfg *Config) error {
	ext := strings.ToLower(filepath.Ext(path))
	loader, ok := fileLoaders[ext]
	if !ok {
		return fmt.Errorf("unsupported config file format %q", ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := loader.Load(f, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}
