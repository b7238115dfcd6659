package optimize

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/gnolang/slimport/internal/grammar"
	"github.com/gnolang/slimport/scanner"
)

const (
	DefaultConfigFile = ".slimport.yaml"
	PyprojectFile     = "pyproject.toml"
)

// Config is the configuration of an optimization run.
type Config struct {
	Name       string      `yaml:"name" toml:"name"`
	Grammar    string      `yaml:"grammar" toml:"grammar"`
	Extensions []string    `yaml:"extensions,omitempty" toml:"extensions"`
	Exclude    []string    `yaml:"exclude,omitempty" toml:"exclude"`
	Strict     bool        `yaml:"strict" toml:"strict"`
	Jobs       int         `yaml:"jobs,omitempty" toml:"jobs"`
	Cache      CacheConfig `yaml:"cache,omitempty" toml:"cache"`

	// path is the file the configuration was read from, if any.
	path string
}

type CacheConfig struct {
	Dir    string `yaml:"dir,omitempty" toml:"dir"`
	MaxAge string `yaml:"max_age,omitempty" toml:"max_age"`
}

// DefaultConfig returns the configuration used when no file is found.
func DefaultConfig() Config {
	return Config{
		Name:       "slimport",
		Grammar:    "python",
		Extensions: grammar.Python{}.Extensions(),
		Exclude:    append([]string(nil), scanner.DefaultExclude...),
	}
}

// Path returns the file the configuration was loaded from, or "".
func (c Config) Path() string { return c.path }

// MaxAge parses the cache max age. An empty value means no expiry.
func (c Config) MaxAge() (time.Duration, error) {
	if c.Cache.MaxAge == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Cache.MaxAge)
	if err != nil {
		return 0, fmt.Errorf("invalid cache max_age %q: %w", c.Cache.MaxAge, err)
	}
	return d, nil
}

// LoadConfig finds and parses the configuration. An explicit path must
// exist. Otherwise .slimport.yaml and then the [tool.slimport] table of
// pyproject.toml in rootDir are tried, falling back to the defaults.
func LoadConfig(rootDir, configurationPath string) (Config, error) {
	if configurationPath != "" {
		return parseConfigurationFile(configurationPath)
	}

	yamlPath := filepath.Join(rootDir, DefaultConfigFile)
	if exists(yamlPath) {
		return parseConfigurationFile(yamlPath)
	}

	tomlPath := filepath.Join(rootDir, PyprojectFile)
	if exists(tomlPath) {
		config, found, err := parsePyproject(tomlPath)
		if err != nil || found {
			return config, err
		}
	}

	return DefaultConfig(), nil
}

func parseConfigurationFile(configurationPath string) (Config, error) {
	config := DefaultConfig()

	f, err := os.Open(configurationPath)
	if err != nil {
		return config, err
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return config, fmt.Errorf("%s: failed to parse YAML: %w", configurationPath, err)
	}
	config.path = configurationPath
	return config.withDefaults(), nil
}

func parsePyproject(path string) (Config, bool, error) {
	var doc struct {
		Tool struct {
			Slimport Config `toml:"slimport"`
		} `toml:"tool"`
	}
	doc.Tool.Slimport = DefaultConfig()

	meta, err := toml.DecodeFile(path, &doc)
	if err != nil {
		return Config{}, false, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("tool", "slimport") {
		return Config{}, false, nil
	}

	config := doc.Tool.Slimport
	config.path = path
	return config.withDefaults(), true, nil
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.Name == "" {
		c.Name = defaults.Name
	}
	if c.Grammar == "" {
		c.Grammar = defaults.Grammar
	}
	if len(c.Extensions) == 0 {
		if g, err := grammar.Lookup(c.Grammar); err == nil {
			c.Extensions = g.Extensions()
		}
	}
	return c
}

// WriteConfigurationFile writes config as YAML to path.
func WriteConfigurationFile(path string, config Config) error {
	d, err := yaml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(path, d, 0o644)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
