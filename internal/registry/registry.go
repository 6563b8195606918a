// Package registry implements component A of the workspace index: a
// pure, I/O-free bidirectional mapping between file paths and compact
// FileIDs, plus path classification against the active I18nConfig's
// globs. Grounded on the FileID-assignment idiom of the teacher's
// internal/core/file_content_store.go (atomic ID counter, path->ID
// map) scaled down to pure metadata — no content, no channel writer,
// since registration never touches the filesystem.
package registry

import (
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/i18n-ls/internal/config"
	"github.com/standardbeagle/i18n-ls/internal/types"
)

// Registry is safe for concurrent use. Registration is monotone: a
// path that has already been registered always returns the same
// FileID, and FileIDs are never reused even after a file is removed.
type Registry struct {
	mu       sync.RWMutex
	pathToID map[string]types.FileID
	idToPath map[types.FileID]string
	nextID   atomic.Uint32
}

func New() *Registry {
	r := &Registry{
		pathToID: make(map[string]types.FileID),
		idToPath: make(map[types.FileID]string),
	}
	r.nextID.Store(uint32(types.InvalidFileID))
	return r
}

// Register returns the FileID for path, assigning a new one on first
// registration. The path is stored exactly as given; callers are
// expected to pass canonical absolute paths.
func (r *Registry) Register(path string) types.FileID {
	r.mu.RLock()
	if id, ok := r.pathToID[path]; ok {
		r.mu.RUnlock()
		return id
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-check: another goroutine may have registered path while we
	// waited for the write lock.
	if id, ok := r.pathToID[path]; ok {
		return id
	}

	id := types.FileID(r.nextID.Add(1))
	r.pathToID[path] = id
	r.idToPath[id] = path
	return id
}

// PathOf reverse-looks-up the canonical path for a FileID. Registry
// monotonicity (spec.md §3) guarantees this always succeeds for any
// FileID ever returned by Register, even after the file is deleted.
func (r *Registry) PathOf(id types.FileID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.idToPath[id]
	return p, ok
}

// IDOf looks up an already-registered path without assigning a new
// FileID. Returns (InvalidFileID, false) if path was never registered.
func (r *Registry) IDOf(path string) (types.FileID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.pathToID[path]
	return id, ok
}

// Classify determines whether path is a source file, a translation
// file, the config file itself, or ignored, consulting cfg's globs.
// Classification never performs I/O; the globs are matched relative
// to cfg.Root as spec.md §4.A requires.
func Classify(path string, cfg *config.Config) types.FileKind {
	rel, err := filepath.Rel(cfg.Root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)

	if rel == config.ConfigFileName || rel == config.TuningFileName {
		return types.FileKindConfig
	}

	for _, pattern := range cfg.ExcludeGlobs {
		if matched, _ := doublestar.Match(pattern, rel); matched {
			return types.FileKindIgnored
		}
	}

	if cfg.TranslationFileGlob != "" {
		if matched, _ := doublestar.Match(cfg.TranslationFileGlob, rel); matched {
			return types.FileKindTranslation
		}
	}

	if len(cfg.IncludeGlobs) == 0 {
		return languageKindOf(rel)
	}
	for _, pattern := range cfg.IncludeGlobs {
		if matched, _ := doublestar.Match(pattern, rel); matched {
			return languageKindOf(rel)
		}
	}
	return types.FileKindIgnored
}

// languageKindOf returns FileKindSource for a recognised JS/TS
// extension and FileKindIgnored otherwise — an include glob matching
// a non-source file (e.g. a stray ".md") still isn't indexable.
func languageKindOf(path string) types.FileKind {
	switch filepath.Ext(path) {
	case ".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs", ".mts", ".cts":
		return types.FileKindSource
	default:
		return types.FileKindIgnored
	}
}

// LanguageOf maps a source path's extension to its LanguageKind.
// Callers should only call this after Classify returned FileKindSource.
func LanguageOf(path string) types.LanguageKind {
	switch filepath.Ext(path) {
	case ".js", ".mjs", ".cjs":
		return types.LanguageJS
	case ".jsx":
		return types.LanguageJSX
	case ".ts", ".mts", ".cts":
		return types.LanguageTS
	case ".tsx":
		return types.LanguageTSX
	default:
		return types.LanguageUnknown
	}
}
