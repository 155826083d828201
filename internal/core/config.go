package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is looked up at the vault root.
const ConfigFileName = "mdlinker.yaml"

// Config represents the mdlinker.yaml configuration file.
type Config struct {
	Scan    ScanConfig    `yaml:"scan"`
	Link    LinkConfig    `yaml:"link"`
	Matcher MatcherConfig `yaml:"matcher"`
	Write   WriteConfig   `yaml:"write"`
	Log     LogConfig     `yaml:"log"`
}

// ScanConfig selects the documents that take part in a scan.
type ScanConfig struct {
	ExcludePaths []string `yaml:"exclude_paths"`
}

// LinkConfig controls generated link markup.
type LinkConfig struct {
	Format string `yaml:"format"` // "wikilink" or "markdown"
}

// MatcherConfig tunes the alias matcher.
type MatcherConfig struct {
	Workers    int  `yaml:"workers"`
	IgnoreCase bool `yaml:"ignore_case"`
	MinLength  int  `yaml:"min_length"`
	CacheSize  int  `yaml:"cache_size"`
}

// WriteConfig bounds the write fan-out.
type WriteConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// LogConfig is passed to commonlog.Configure.
type LogConfig struct {
	Verbosity int    `yaml:"verbosity"`
	File      string `yaml:"file"`
}

// DefaultConfig returns the settings used when mdlinker.yaml is absent.
func DefaultConfig() Config {
	return Config{
		Link:    LinkConfig{Format: FormatWikilink},
		Matcher: MatcherConfig{Workers: 4, MinLength: 2, CacheSize: 512},
		Write:   WriteConfig{Concurrency: 8},
	}
}

// LoadConfig reads mdlinker.yaml from the vault root over DefaultConfig.
// Returns the defaults and nil error if the file does not exist.
func LoadConfig(vaultPath string) (Config, error) {
	cfg := DefaultConfig()
	p := filepath.Join(vaultPath, ConfigFileName)
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%s: %w", ConfigFileName, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", ConfigFileName, err)
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late.
func (c Config) Validate() error {
	if c.Link.Format != FormatWikilink && c.Link.Format != FormatMarkdown {
		return fmt.Errorf("invalid link.format: %q (must be wikilink or markdown)", c.Link.Format)
	}
	if c.Matcher.Workers < 0 || c.Matcher.MinLength < 0 || c.Matcher.CacheSize < 0 || c.Write.Concurrency < 0 {
		return fmt.Errorf("negative worker, length, cache or concurrency setting")
	}
	return validateGlobPatterns(c.Scan.ExcludePaths)
}

// AliasOptions returns the matcher settings as engine options.
func (c Config) AliasOptions() AliasOptions {
	return AliasOptions{
		Workers:    c.Matcher.Workers,
		IgnoreCase: c.Matcher.IgnoreCase,
		MinLength:  c.Matcher.MinLength,
		CacheSize:  c.Matcher.CacheSize,
	}
}

// validateGlobPatterns checks that none of the patterns use unsupported character classes.
func validateGlobPatterns(patterns []string) error {
	for _, p := range patterns {
		if strings.Contains(p, "[") {
			return fmt.Errorf("unsupported glob pattern (character class): %s", p)
		}
	}
	return nil
}

// filterExcluded removes files matching any of the given glob patterns.
func filterExcluded(files []string, patterns []string) []string {
	if len(patterns) == 0 {
		return files
	}
	result := make([]string, 0, len(files))
	for _, f := range files {
		excluded := false
		for _, p := range patterns {
			if globMatch(p, f) {
				excluded = true
				break
			}
		}
		if !excluded {
			result = append(result, f)
		}
	}
	return result
}

// globMatch implements SQLite GLOB semantics in Go.
// '*' matches any sequence of characters (including '/').
// '?' matches exactly one character.
// '[' is treated as a literal character (character classes not supported).
func globMatch(pattern, s string) bool {
	return globMatchImpl([]rune(pattern), []rune(s))
}

func globMatchImpl(pattern, s []rune) bool {
	for len(pattern) > 0 {
		switch pattern[0] {
		case '*':
			for len(pattern) > 0 && pattern[0] == '*' {
				pattern = pattern[1:]
			}
			if len(pattern) == 0 {
				return true
			}
			for i := 0; i <= len(s); i++ {
				if globMatchImpl(pattern, s[i:]) {
					return true
				}
			}
			return false
		case '?':
			if len(s) == 0 {
				return false
			}
			pattern = pattern[1:]
			s = s[1:]
		default:
			if len(s) == 0 || pattern[0] != s[0] {
				return false
			}
			pattern = pattern[1:]
			s = s[1:]
		}
	}
	return len(s) == 0
}
