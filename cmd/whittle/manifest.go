package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

const noManifestMessage = "no whittle.toml found\nplease point at a harness directory or pass --config, e.g.:\n  whittle fuzz --config path/to/whittle.toml"

type harnessManifest struct {
	Path   string
	Root   string
	Config harnessConfig
}

type harnessConfig struct {
	Grammar grammarConfig `toml:"grammar"`
	Tool    toolConfig    `toml:"tool"`
	Oracle  oracleConfig  `toml:"oracle"`
	Fuzz    fuzzConfig    `toml:"fuzz"`
}

type grammarConfig struct {
	Path string `toml:"path"`
	Root string `toml:"root"`
}

type toolConfig struct {
	Command   []string `toml:"command"`
	TimeoutMS int      `toml:"timeout_ms"`
}

type oracleConfig struct {
	Allow        []string `toml:"allow"`
	PanicMarkers []string `toml:"panic_markers"`
}

type fuzzConfig struct {
	Seed          int64  `toml:"seed"`
	ProgressEvery int    `toml:"progress_every"`
	MaxIterations int    `toml:"max_iterations"`
	FindingsDir   string `toml:"findings_dir"`
}

// Timeout converts the configured tool timeout, falling back to the oracle
// default when unset.
func (c toolConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

func findWhittleToml(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, "whittle.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// loadManifest resolves the manifest either from an explicit path or by
// walking up from startDir.
func loadManifest(explicit, startDir string) (*harnessManifest, error) {
	path := explicit
	if path == "" {
		found, ok, err := findWhittleToml(startDir)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.New(noManifestMessage)
		}
		path = found
	}
	cfg, err := loadHarnessConfig(path)
	if err != nil {
		return nil, err
	}
	return &harnessManifest{
		Path:   path,
		Root:   filepath.Dir(path),
		Config: cfg,
	}, nil
}

func loadHarnessConfig(path string) (harnessConfig, error) {
	var cfg harnessConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return harnessConfig{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("grammar") {
		return harnessConfig{}, fmt.Errorf("%s: missing [grammar] section", path)
	}
	if cfg.Grammar.Path == "" {
		return harnessConfig{}, fmt.Errorf("%s: grammar.path is required", path)
	}
	if cfg.Grammar.Root == "" {
		return harnessConfig{}, fmt.Errorf("%s: grammar.root is required", path)
	}
	if !meta.IsDefined("tool") || len(cfg.Tool.Command) == 0 {
		return harnessConfig{}, fmt.Errorf("%s: tool.command is required", path)
	}
	if cfg.Fuzz.ProgressEvery < 0 || cfg.Fuzz.MaxIterations < 0 {
		return harnessConfig{}, fmt.Errorf("%s: fuzz counters must not be negative", path)
	}
	return cfg, nil
}

// resolve turns a manifest-relative path into an absolute one.
func (m *harnessManifest) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(m.Root, path)
}
