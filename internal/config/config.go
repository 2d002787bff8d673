// Package config reads the optional .lexgraph.toml file. Command-line
// flags override anything set here.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the config file looked up in the working directory when
// --config is not given.
const FileName = ".lexgraph.toml"

// Defaults.
const (
	DefaultDB               = ".lexgraph/lexicon.db"
	DefaultFormat           = "json"
	DefaultStopwordLanguage = "en"
	DefaultTagger           = "prose"
	DefaultPairPolicy       = "primary"
	DefaultSuggestions      = 3
)

type Config struct {
	DB     string `toml:"db"`
	Format string `toml:"format"`
	Query  Query  `toml:"query"`
	Import Import `toml:"import"`
}

type Query struct {
	StopwordLanguage string `toml:"stopword_language"`
	Tagger           string `toml:"tagger"`      // "prose" or "fields"
	PairPolicy       string `toml:"pair_policy"` // "primary" or "all"
	Workers          int    `toml:"workers"`     // 0 = NumCPU
	Suggestions      int    `toml:"suggestions"`
}

type Import struct {
	// Parallel is a pointer so an explicit false is distinguishable from
	// an omitted key.
	Parallel   *bool  `toml:"parallel"`
	ScriptsDir string `toml:"scripts_dir"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		DB:     DefaultDB,
		Format: DefaultFormat,
		Query: Query{
			StopwordLanguage: DefaultStopwordLanguage,
			Tagger:           DefaultTagger,
			PairPolicy:       DefaultPairPolicy,
			Suggestions:      DefaultSuggestions,
		},
	}
}

// Load reads and validates the file at path. Keys the file omits keep
// their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOptional is Load, except that a missing file yields the defaults.
func LoadOptional(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Validate reports every invalid value at once.
func (c *Config) Validate() error {
	var errs []error
	if c.DB == "" {
		errs = append(errs, errors.New("db cannot be empty"))
	}
	if c.Format != "json" && c.Format != "text" {
		errs = append(errs, fmt.Errorf("format must be json or text, got %q", c.Format))
	}
	if c.Query.Tagger != "prose" && c.Query.Tagger != "fields" {
		errs = append(errs, fmt.Errorf("query.tagger must be prose or fields, got %q", c.Query.Tagger))
	}
	if c.Query.PairPolicy != "primary" && c.Query.PairPolicy != "all" {
		errs = append(errs, fmt.Errorf("query.pair_policy must be primary or all, got %q", c.Query.PairPolicy))
	}
	if c.Query.Workers < 0 {
		errs = append(errs, fmt.Errorf("query.workers must not be negative, got %d", c.Query.Workers))
	}
	if c.Query.Suggestions < 0 {
		errs = append(errs, fmt.Errorf("query.suggestions must not be negative, got %d", c.Query.Suggestions))
	}
	return errors.Join(errs...)
}

// ParallelImport reports whether imports should use the worker pool.
func (c *Config) ParallelImport() bool {
	return c.Import.Parallel == nil || *c.Import.Parallel
}
