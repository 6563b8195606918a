// Package graph implements component F, the incremental computation
// graph: it memoizes parse(FileId), captures(FileId), usages(FileId),
// translations(FileId) and the reverse indexes those feed, recomputing
// an entry only when its inputs actually changed. Generalised from
// the teacher's IncrementalEngine in
// internal/symbollinker/incremental_engine.go — same shape (a content
// hash per file, a dependency map, an RWMutex guarding the whole
// graph) with sha256 replaced by xxhash (cespare/xxhash, already a
// direct dependency of the teacher used elsewhere for fingerprinting)
// since these hashes gate memoization hits on a hot path, not
// anything security-sensitive.
package graph

import (
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/i18n-ls/internal/config"
	lcierrors "github.com/standardbeagle/i18n-ls/internal/errors"
	"github.com/standardbeagle/i18n-ls/internal/parser"
	"github.com/standardbeagle/i18n-ls/internal/query"
	"github.com/standardbeagle/i18n-ls/internal/scope"
	"github.com/standardbeagle/i18n-ls/internal/translate"
	"github.com/standardbeagle/i18n-ls/internal/types"
)

type sourceEntry struct {
	hash     uint64
	version  int
	cfgEpoch int
	lang     types.LanguageKind
	captures []types.Capture
	usages   []types.KeyUsage
	diags    []*lcierrors.IndexError
}

type translationEntry struct {
	hash     uint64
	cfgEpoch int
	file     *types.TranslationFile
	diag     *lcierrors.IndexError
}

// lookupKey indexes a translation leaf by (namespace, language, key).
type lookupKey struct {
	namespace string
	language  string
	key       string
}

// Graph is safe for concurrent use: readers (usages, translations,
// lookup) take the read lock; mutators (Update*, SetConfig) take the
// write lock. Callers are expected to acquire the config lock (if
// any) before calling into Graph, never the reverse, per spec.md §5's
// fixed lock order — Graph itself never reaches back into a
// config.Manager, it's handed the active *config.Config by value.
type Graph struct {
	mu sync.RWMutex

	cache  *parser.Cache
	engine *query.Engine

	cfg      *config.Config
	cfgEpoch int
	resolver *scope.Resolver

	sources      map[types.FileID]*sourceEntry
	translations map[types.FileID]*translationEntry
	byLanguage   map[string]map[types.FileID]bool
	lookupIndex  map[lookupKey]types.FileID
	usageByKey   map[lookupKey][]types.KeyUsage
}

func New(cfg *config.Config) (*Graph, error) {
	cache, err := parser.NewCache()
	if err != nil {
		return nil, err
	}
	engine, err := query.NewEngine(cache)
	if err != nil {
		return nil, err
	}
	return &Graph{
		cache:        cache,
		engine:       engine,
		cfg:          cfg,
		cfgEpoch:     cfg.Epoch,
		resolver:     scope.NewResolver(cfg),
		sources:      make(map[types.FileID]*sourceEntry),
		translations: make(map[types.FileID]*translationEntry),
		byLanguage:   make(map[string]map[types.FileID]bool),
		lookupIndex:  make(map[lookupKey]types.FileID),
		usageByKey:   make(map[lookupKey][]types.KeyUsage),
	}, nil
}

// SetConfig installs a newly reloaded config. Every memoized entry's
// cfgEpoch is now stale, so the next Update* call for each file
// recomputes it — spec.md §3's "any change invalidates F entries
// whose query parameters depend on it", done lazily rather than by
// walking every entry eagerly. Accessors (Usages, Translation, Lookup,
// ...) keep returning the previously memoized values until then.
func (g *Graph) SetConfig(cfg *config.Config) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cfg = cfg
	g.cfgEpoch = cfg.Epoch
	g.resolver = scope.NewResolver(cfg)
}

// UpdateSource parses/reparses a source file, re-extracts captures
// and re-resolves usages, but only if the content or config actually
// changed since the last call — the "same bytes after round-trip"
// rule: a no-op edit (undo back to saved content, or a save with no
// changes) short-circuits before touching tree-sitter at all.
func (g *Graph) UpdateSource(fileID types.FileID, lang types.LanguageKind, content []byte, version int, edits []parser.Edit) error {
	hash := xxhash.Sum64(content)

	g.mu.Lock()
	defer g.mu.Unlock()

	prev := g.sources[fileID]
	if prev != nil && prev.hash == hash && prev.cfgEpoch == g.cfgEpoch {
		return nil
	}

	var snap *parser.Snapshot
	var err error
	if prev != nil && len(edits) > 0 {
		snap, err = g.cache.Reparse(fileID, lang, content, version, edits)
	} else {
		snap, err = g.cache.Parse(fileID, lang, content, version)
	}
	if err != nil {
		return err
	}

	caps, err := g.engine.Extract(snap)
	if err != nil {
		return err
	}
	usages, diags := g.resolver.Resolve(fileID, caps)

	g.removeUsagesLocked(fileID)
	g.sources[fileID] = &sourceEntry{
		hash: hash, version: version, cfgEpoch: g.cfgEpoch, lang: lang,
		captures: caps, usages: usages, diags: diags,
	}
	for _, u := range usages {
		if u.Namespace == nil || u.Dynamic {
			continue
		}
		key := lookupKey{namespace: *u.Namespace, key: u.ResolvedKey}
		g.usageByKey[key] = append(g.usageByKey[key], u)
	}
	return nil
}

// UpdateTranslation loads/reloads a locale JSON file and rebuilds the
// lookup index entries it contributes, under the same memoization
// rule as UpdateSource.
func (g *Graph) UpdateTranslation(fileID types.FileID, path string, content []byte) error {
	hash := xxhash.Sum64(content)

	g.mu.Lock()
	defer g.mu.Unlock()

	prev := g.translations[fileID]
	if prev != nil && prev.hash == hash && prev.cfgEpoch == g.cfgEpoch {
		return nil
	}

	tf, diag := translate.Load(g.cfg, fileID, path, content)

	g.removeTranslationLocked(fileID)
	g.translations[fileID] = &translationEntry{hash: hash, cfgEpoch: g.cfgEpoch, file: tf, diag: diag}

	if g.byLanguage[tf.Language] == nil {
		g.byLanguage[tf.Language] = make(map[types.FileID]bool)
	}
	g.byLanguage[tf.Language][fileID] = true

	for key := range tf.Keys {
		lk := lookupKey{namespace: tf.Namespace, language: tf.Language, key: key}
		g.lookupIndex[lk] = fileID
	}

	if diag != nil {
		return diag
	}
	return nil
}

func (g *Graph) removeUsagesLocked(fileID types.FileID) {
	prev := g.sources[fileID]
	if prev == nil {
		return
	}
	for _, u := range prev.usages {
		if u.Namespace == nil {
			continue
		}
		key := lookupKey{namespace: *u.Namespace, key: u.ResolvedKey}
		list := g.usageByKey[key]
		for i := range list {
			if list[i].FileID == fileID && list[i].Span == u.Span {
				list = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(list) == 0 {
			delete(g.usageByKey, key)
		} else {
			g.usageByKey[key] = list
		}
	}
}

func (g *Graph) removeTranslationLocked(fileID types.FileID) {
	prev := g.translations[fileID]
	if prev == nil {
		return
	}
	delete(g.byLanguage[prev.file.Language], fileID)
	for key := range prev.file.Keys {
		lk := lookupKey{namespace: prev.file.Namespace, language: prev.file.Language, key: key}
		if g.lookupIndex[lk] == fileID {
			delete(g.lookupIndex, lk)
		}
	}
}

// RemoveFile evicts every memoized entry for fileID, whether it was
// tracked as a source file or a translation file.
func (g *Graph) RemoveFile(fileID types.FileID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.sources[fileID]; ok {
		g.removeUsagesLocked(fileID)
		delete(g.sources, fileID)
	}
	if _, ok := g.translations[fileID]; ok {
		g.removeTranslationLocked(fileID)
		delete(g.translations, fileID)
	}
	g.cache.Forget(fileID)
}

// Captures returns the memoized capture stream for fileID.
func (g *Graph) Captures(fileID types.FileID) ([]types.Capture, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	e, ok := g.sources[fileID]
	if !ok {
		return nil, false
	}
	return e.captures, true
}

// Usages returns the memoized, resolved key usages for fileID.
func (g *Graph) Usages(fileID types.FileID) ([]types.KeyUsage, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	e, ok := g.sources[fileID]
	if !ok {
		return nil, false
	}
	return e.usages, true
}

// Diagnostics returns the scope-ambiguous diagnostics produced the
// last time fileID was resolved.
func (g *Graph) Diagnostics(fileID types.FileID) []*lcierrors.IndexError {
	g.mu.RLock()
	defer g.mu.RUnlock()
	e, ok := g.sources[fileID]
	if !ok {
		return nil
	}
	return e.diags
}

// Translation returns the memoized TranslationFile for fileID.
func (g *Graph) Translation(fileID types.FileID) (*types.TranslationFile, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	e, ok := g.translations[fileID]
	if !ok {
		return nil, false
	}
	return e.file, true
}

// Languages returns every language tag that has at least one
// memoized translation file, in no particular order.
func (g *Graph) Languages() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, 0, len(g.byLanguage))
	for lang := range g.byLanguage {
		out = append(out, lang)
	}
	return out
}

// Config returns the active config, for callers (component H) that
// need it for read-only decisions without duplicating state.
func (g *Graph) Config() *config.Config {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cfg
}

// TranslationsByLanguage returns every FileID currently tracked as a
// translation file for the given language tag.
func (g *Graph) TranslationsByLanguage(language string) []types.FileID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	set := g.byLanguage[language]
	out := make([]types.FileID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// Lookup resolves (namespace, language, key) to the translation file
// defining it and that key's value span, the `lookup` tracked query
// from spec.md §4.F.
func (g *Graph) Lookup(namespace, language, key string) (types.FileID, types.Span, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	fid, ok := g.lookupIndex[lookupKey{namespace: namespace, language: language, key: key}]
	if !ok {
		return types.InvalidFileID, types.Span{}, false
	}
	tf := g.translations[fid].file
	entry, ok := tf.Keys[key]
	if !ok {
		return types.InvalidFileID, types.Span{}, false
	}
	return fid, entry.ValueSpan, true
}

// UsagesOfKey returns every memoized usage resolved to (namespace,
// key), across every source file — the `usages_of` operation's raw
// data source (component H formats it into the public API shape).
func (g *Graph) UsagesOfKey(namespace, key string) []types.KeyUsage {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]types.KeyUsage(nil), g.usageByKey[lookupKey{namespace: namespace, key: key}]...)
}

// AllSourceFiles returns the FileIDs of every file this graph has a
// memoized source entry for.
func (g *Graph) AllSourceFiles() []types.FileID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]types.FileID, 0, len(g.sources))
	for id := range g.sources {
		out = append(out, id)
	}
	return out
}

// AllTranslationFiles returns the FileIDs of every file this graph
// has a memoized translation entry for.
func (g *Graph) AllTranslationFiles() []types.FileID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]types.FileID, 0, len(g.translations))
	for id := range g.translations {
		out = append(out, id)
	}
	return out
}
