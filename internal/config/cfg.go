// Package config holds the soundmanager configuration: the catalog base
// path, update timings and soft-delete retention, plus JSON load/validate
// following the teacher's config.Load / Validate split.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
)

// audioExtensions contains the file extensions (without the leading dot,
// lower case) that soundmanager recognizes as audio entries.
var audioExtensions = map[string]bool{
	"wav":  true,
	"mp3":  true,
	"flac": true,
	"ogg":  true,
}

// IsAudioExt returns true if ext (without leading dot) is a recognized
// audio extension. Matching is case-insensitive; callers pass an
// already-lowered extension.
func IsAudioExt(ext string) bool {
	return audioExtensions[ext]
}

// IsHiddenName returns true if name starts with a dot, per spec's
// hidden-file recognition rule.
func IsHiddenName(name string) bool {
	return len(name) > 0 && name[0] == '.'
}

// DatabaseFileName is the name of the sqlite store file inside the base
// directory.
const DatabaseFileName = ".soundmanager.db"

// Cfg holds the soundmanager configuration.
type Cfg struct {
	// BasePath is the absolute path of the directory the catalog manages.
	BasePath string `json:"base_path"`

	LogLevel string `json:"log_level"`

	Watcher  Watcher  `json:"watcher"`
	Store    Store    `json:"store"`
	Scanning Scanning `json:"scanning"`
}

// Watcher holds the filesystem watcher's timing configuration.
type Watcher struct {
	// Debounce is the window over which raw filesystem events are
	// collapsed before being classified (spec.md §4.7: ~1s).
	Debounce time.Duration `json:"debounce"`
	// Quiescence is the window the emitter coalescer waits before
	// flushing a "delayed" notification (spec.md §4.7: ~500ms).
	Quiescence time.Duration `json:"quiescence"`
}

// Store holds persistent-store timing configuration.
type Store struct {
	// Retention is how long a soft-deleted row survives before Prune
	// removes it (spec.md §4.1: 30 days).
	Retention time.Duration `json:"retention"`
}

// Scanning holds scan-time tuning knobs.
type Scanning struct {
	// BatchThresholdRatio is the fraction of the current model's
	// cardinality past which the scanner switches from per-row store
	// lookups to a single batched pre-query (spec.md §4.3: ~1/4).
	BatchThresholdRatio float64 `json:"batch_threshold_ratio"`
}

// Default returns the configuration defaults used when a field is left
// unset by the caller or the loaded JSON.
func Default(basePath string) Cfg {
	return Cfg{
		BasePath: basePath,
		LogLevel: "info",
		Watcher: Watcher{
			Debounce:   time.Second,
			Quiescence: 500 * time.Millisecond,
		},
		Store: Store{
			Retention: 30 * 24 * time.Hour,
		},
		Scanning: Scanning{
			BatchThresholdRatio: 0.25,
		},
	}
}

// Load reads a JSON configuration file at path, applying Default(basePath)
// values for anything the file leaves zero.
func Load(path, basePath string) (cfg Cfg, err error) {
	cfg = Default(basePath)

	raw, err := os.ReadFile(path)
	if err != nil {
		return Cfg{}, errors.Wrapf(err, "config file '%s' couldn't be read", path)
	}
	if err = json.Unmarshal(raw, &cfg); err != nil {
		return Cfg{}, errors.Wrapf(err, "config file '%s' couldn't be parsed", path)
	}
	return cfg, nil
}

// Validate checks the configuration for completeness and consistency,
// following the teacher's sequential-check style.
func (cfg *Cfg) Validate() (err error) {
	if cfg.BasePath == "" {
		return fmt.Errorf("no base_path maintained")
	}
	info, err := os.Stat(cfg.BasePath)
	if err != nil {
		return errors.Wrapf(err, "base_path '%s' doesn't exist", cfg.BasePath)
	}
	if !info.IsDir() {
		return fmt.Errorf("base_path '%s' is not a directory", cfg.BasePath)
	}
	if cfg.Watcher.Debounce <= 0 {
		return fmt.Errorf("watcher.debounce must be > 0")
	}
	if cfg.Watcher.Quiescence <= 0 {
		return fmt.Errorf("watcher.quiescence must be > 0")
	}
	if cfg.Store.Retention <= 0 {
		return fmt.Errorf("store.retention must be > 0")
	}
	if cfg.Scanning.BatchThresholdRatio <= 0 {
		return fmt.Errorf("scanning.batch_threshold_ratio must be > 0")
	}
	return nil
}

// Test reads the configuration file at path and checks it for
// completeness and consistency, mirroring the teacher's config.Test used
// by the `soundmanagerd test` command.
func Test(path, basePath string) error {
	cfg, err := Load(path, basePath)
	if err != nil {
		return errors.Wrap(err, "the soundmanager configuration couldn't be read")
	}
	if err = cfg.Validate(); err != nil {
		return err
	}
	return nil
}
