// Package config loads and validates the process-wide I18nConfig
// (spec.md §3, §6): the single `.js-i18n.json` file plus an optional
// `.js-i18n-tuning.kdl` sidecar for performance knobs the user rarely
// needs to touch. Every load produces a fresh Config; Manager.Reload
// bumps its Epoch so the incremental graph can invalidate entries
// keyed by config-dependent query parameters.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	lcierrors "github.com/standardbeagle/i18n-ls/internal/errors"
)

const ConfigFileName = ".js-i18n.json"

// Config is the in-memory, validated form of spec.md §6's
// `.js-i18n.json`, plus the ambient indexing knobs of §4.G.
type Config struct {
	Root string // directory .js-i18n.json lives in; globs resolve relative to this

	TranslationFileGlob string
	IncludeGlobs         []string
	ExcludeGlobs         []string

	KeySeparator       string
	NamespaceSeparator *string
	DefaultNamespace   *string
	PrimaryLanguages   []string

	Diagnostics Diagnostics
	Indexing    Indexing

	// Epoch is bumped by Reload; the graph invalidates any memoised
	// query whose recorded config_epoch differs from the current one.
	Epoch int
}

type Diagnostics struct {
	MissingTranslation MissingTranslationConfig
	UnusedTranslation   UnusedTranslationConfig
}

type MissingTranslationConfig struct {
	Enabled           bool
	Severity          string // "error" | "warning" | "information" | "hint"
	RequiredLanguages []string
	OptionalLanguages []string
}

type UnusedTranslationConfig struct {
	Enabled        bool
	Severity       string
	IgnorePatterns []string
}

// Indexing holds the ambient performance knobs of spec.md §4.G.
// `.js-i18n.json` can set NumThreads (`indexing.numThreads`); when the
// optional `.js-i18n-tuning.kdl` sidecar file exists, its values
// replace the whole Indexing block.
type Indexing struct {
	NumThreads      int // 0 = auto: 40% of NumCPU, clamped to >= 1
	WatchMode       bool
	WatchDebounceMs int
}

// jsonConfigFile mirrors the exact wire shape of spec.md §6. Unknown
// keys are ignored by encoding/json by default. A value of the wrong
// JSON type for a recognised key fails the whole parse, so Load
// returns an InputMalformed error; no per-field fallback to the
// default is made. applyWire below copies the decoded fields over the
// defaults.
type jsonConfigFile struct {
	TranslationFiles struct {
		FilePattern string `json:"filePattern"`
	} `json:"translationFiles"`
	IncludePatterns    []string `json:"includePatterns"`
	ExcludePatterns    []string `json:"excludePatterns"`
	KeySeparator       *string  `json:"keySeparator"`
	NamespaceSeparator *string  `json:"namespaceSeparator"`
	DefaultNamespace   *string  `json:"defaultNamespace"`
	PrimaryLanguages   []string `json:"primaryLanguages"`
	Diagnostics        struct {
		MissingTranslation struct {
			Enabled           *bool    `json:"enabled"`
			Severity          string   `json:"severity"`
			RequiredLanguages []string `json:"requiredLanguages"`
			OptionalLanguages []string `json:"optionalLanguages"`
		} `json:"missingTranslation"`
		UnusedTranslation struct {
			Enabled        *bool    `json:"enabled"`
			Severity       string   `json:"severity"`
			IgnorePatterns []string `json:"ignorePatterns"`
		} `json:"unusedTranslation"`
	} `json:"diagnostics"`
	Indexing struct {
		NumThreads *int `json:"numThreads"`
	} `json:"indexing"`
}

// Default returns the built-in defaults for a workspace root with no
// `.js-i18n.json` present.
func Default(root string) *Config {
	return &Config{
		Root:                 root,
		TranslationFileGlob: "**/locales/**/*.json",
		IncludeGlobs:         []string{"**/*.{js,jsx,ts,tsx}"},
		ExcludeGlobs:         []string{"**/node_modules/**", "**/.git/**", "**/dist/**", "**/build/**"},
		KeySeparator:         ".",
		Diagnostics: Diagnostics{
			MissingTranslation: MissingTranslationConfig{Enabled: true, Severity: "error"},
			UnusedTranslation:  UnusedTranslationConfig{Enabled: true, Severity: "hint"},
		},
		Indexing: Indexing{
			NumThreads:      defaultNumThreads(),
			WatchMode:       true,
			WatchDebounceMs: 300,
		},
	}
}

func defaultNumThreads() int {
	n := int(float64(runtime.NumCPU()) * 0.4)
	if n < 1 {
		n = 1
	}
	return n
}

// Load reads `.js-i18n.json` (and, if present, `.js-i18n-tuning.kdl`)
// from root. A missing `.js-i18n.json` is not an error: Default(root)
// is returned. A malformed file is an InputMalformed error whose
// caller should retain the prior config per spec.md §7.
func Load(root string) (*Config, error) {
	cfg := Default(root)

	path := filepath.Join(root, ConfigFileName)
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if tuning, tErr := loadTuning(root); tErr == nil && tuning != nil {
				cfg.Indexing = *tuning
			}
			return cfg, nil
		}
		return nil, lcierrors.InputMissing("config.load", path, err)
	}

	var wire jsonConfigFile
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, lcierrors.InputMalformed("config.load", fmt.Errorf("%s: %w", path, err))
	}

	if err := applyWire(cfg, &wire); err != nil {
		return nil, err
	}

	if tuning, err := loadTuning(root); err == nil && tuning != nil {
		cfg.Indexing = *tuning
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyWire(cfg *Config, wire *jsonConfigFile) error {
	if wire.TranslationFiles.FilePattern != "" {
		cfg.TranslationFileGlob = wire.TranslationFiles.FilePattern
	}
	if len(wire.IncludePatterns) > 0 {
		cfg.IncludeGlobs = wire.IncludePatterns
	}
	if len(wire.ExcludePatterns) > 0 {
		cfg.ExcludeGlobs = wire.ExcludePatterns
	}
	if wire.KeySeparator != nil && *wire.KeySeparator != "" {
		cfg.KeySeparator = *wire.KeySeparator
	}
	cfg.NamespaceSeparator = wire.NamespaceSeparator
	cfg.DefaultNamespace = wire.DefaultNamespace
	if len(wire.PrimaryLanguages) > 0 {
		cfg.PrimaryLanguages = wire.PrimaryLanguages
	}

	mt := wire.Diagnostics.MissingTranslation
	if mt.Enabled != nil {
		cfg.Diagnostics.MissingTranslation.Enabled = *mt.Enabled
	}
	if mt.Severity != "" {
		cfg.Diagnostics.MissingTranslation.Severity = mt.Severity
	}
	cfg.Diagnostics.MissingTranslation.RequiredLanguages = mt.RequiredLanguages
	cfg.Diagnostics.MissingTranslation.OptionalLanguages = mt.OptionalLanguages

	ut := wire.Diagnostics.UnusedTranslation
	if ut.Enabled != nil {
		cfg.Diagnostics.UnusedTranslation.Enabled = *ut.Enabled
	}
	if ut.Severity != "" {
		cfg.Diagnostics.UnusedTranslation.Severity = ut.Severity
	}
	cfg.Diagnostics.UnusedTranslation.IgnorePatterns = ut.IgnorePatterns

	if wire.Indexing.NumThreads != nil && *wire.Indexing.NumThreads > 0 {
		cfg.Indexing.NumThreads = *wire.Indexing.NumThreads
	}

	return nil
}

// Validate enforces spec.md §7's Configuration-conflict rule: a
// config specifying both requiredLanguages and optionalLanguages for
// missing-translation diagnostics fails validation outright so the
// caller can retain the prior config.
func Validate(cfg *Config) error {
	mt := cfg.Diagnostics.MissingTranslation
	if len(mt.RequiredLanguages) > 0 && len(mt.OptionalLanguages) > 0 {
		return lcierrors.ConfigurationConflict(
			"diagnostics.missingTranslation",
			fmt.Errorf("requiredLanguages and optionalLanguages are mutually exclusive"),
		)
	}
	if cfg.KeySeparator == "" {
		return lcierrors.ConfigurationConflict("keySeparator", fmt.Errorf("keySeparator must not be empty"))
	}
	if cfg.Indexing.NumThreads < 1 {
		cfg.Indexing.NumThreads = defaultNumThreads()
	}
	return nil
}

// Manager owns the single active Config value and serialises reloads
// behind a mutex, acquired ahead of the graph's lock per the fixed
// `config -> graph -> registry` order of spec.md §5.
type Manager struct {
	mu  sync.RWMutex
	cfg *Config
}

func NewManager(initial *Config) *Manager {
	return &Manager{cfg: initial}
}

func (m *Manager) Current() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// Reload re-reads the config from disk. On failure (including a
// Configuration-conflict) the prior config is retained and the error
// is returned for the caller to surface as a visible warning.
func (m *Manager) Reload() (*Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := Load(m.cfg.Root)
	if err != nil {
		return m.cfg, err
	}
	next.Epoch = m.cfg.Epoch + 1
	m.cfg = next
	return m.cfg, nil
}
