// Package config loads indexer settings from .idlergear.yml in the project
// root. Missing or invalid files fall back to defaults — configuration is
// never a reason an indexing run fails.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds user-overridable indexer settings.
type Config struct {
	// MaxCommits bounds the git history walk. Default: 500.
	MaxCommits int `yaml:"max_commits"`

	// Since further bounds the history walk (git-parseable, e.g. "6 months ago").
	Since string `yaml:"since"`

	// SourceRoots are directories tried when resolving import targets
	// (e.g. "src", "lib"). The project root is always tried first.
	SourceRoots []string `yaml:"source_roots"`

	// WikiDir is the local clone of the wiki repository, relative to the
	// project root. Empty disables the wiki populator.
	WikiDir string `yaml:"wiki_dir"`

	// Ignore adds discovery ignore patterns on top of the built-ins.
	Ignore []string `yaml:"ignore"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		MaxCommits:  500,
		SourceRoots: []string{"src", "lib"},
	}
}

// Load reads .idlergear.yml from the given directory.
// Returns the defaults if the file doesn't exist or is invalid.
func Load(dir string) *Config {
	cfg := Default()

	data, err := os.ReadFile(filepath.Join(dir, ".idlergear.yml"))
	if err != nil {
		return cfg
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return Default()
	}
	if cfg.MaxCommits <= 0 {
		cfg.MaxCommits = 500
	}
	return cfg
}
