// Package parser implements component B's tree-sitter layer: one
// compiled grammar and parser per supported dialect, and a per-file
// tree cache that reuses the previous parse when the editor hands us
// an incremental edit instead of a full reparse. Generalised from the
// teacher's TreeSitterParser in internal/parser/parser.go and
// parser_language_setup.go, narrowed from its eleven-language,
// extension-keyed setup to the four JS/TS dialects this domain's
// query ever runs against, and extended with real tree-sitter
// Tree.Edit-based incremental reparsing the teacher's one-shot
// ParseFile* methods never needed.
package parser

import (
	"fmt"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/i18n-ls/internal/types"
)

type langEntry struct {
	language *tree_sitter.Language
	parser   *tree_sitter.Parser
}

// Cache owns one *tree_sitter.Parser per LanguageKind plus the most
// recent *tree_sitter.Tree for every file it has parsed, so a
// didChange with edits can reuse the previous tree instead of
// reparsing the whole file.
type Cache struct {
	langs map[types.LanguageKind]*langEntry

	mu    sync.Mutex
	trees map[types.FileID]*tree_sitter.Tree
}

func NewCache() (*Cache, error) {
	c := &Cache{
		langs: make(map[types.LanguageKind]*langEntry),
		trees: make(map[types.FileID]*tree_sitter.Tree),
	}
	for _, lang := range []types.LanguageKind{types.LanguageJS, types.LanguageJSX, types.LanguageTS, types.LanguageTSX} {
		language, p, ok := loadLanguage(lang)
		if !ok {
			return nil, fmt.Errorf("parser: failed to load grammar for language %s", lang)
		}
		c.langs[lang] = &langEntry{language: language, parser: p}
	}
	return c, nil
}

// Language returns the compiled grammar for lang, for callers (the
// query engine) that need to compile their own queries against it.
func (c *Cache) Language(lang types.LanguageKind) (*tree_sitter.Language, bool) {
	entry, ok := c.langs[lang]
	if !ok {
		return nil, false
	}
	return entry.language, true
}

// Parse parses content from scratch and stores the resulting tree as
// fileID's current tree, discarding whatever tree (if any) preceded
// it.
func (c *Cache) Parse(fileID types.FileID, lang types.LanguageKind, content []byte, version int) (*Snapshot, error) {
	entry, ok := c.langs[lang]
	if !ok {
		return nil, fmt.Errorf("parser: no parser registered for language %s", lang)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tree := entry.parser.Parse(content, nil)
	if tree == nil {
		return nil, fmt.Errorf("parser: failed to parse file %d as %s", fileID, lang)
	}
	if old := c.trees[fileID]; old != nil {
		old.Close()
	}
	c.trees[fileID] = tree

	return &Snapshot{FileID: fileID, Lang: lang, Version: version, Content: content, tree: tree}, nil
}

// Reparse applies edits to fileID's previously cached tree, in order,
// then hands that edited tree to the parser as a starting point — the
// incremental path tree-sitter is built for, letting the parser reuse
// every subtree edits didn't touch instead of walking the whole file
// again. Falls back to a full Parse if fileID has no cached tree to
// edit (first edit after a restart, or the tree was evicted).
func (c *Cache) Reparse(fileID types.FileID, lang types.LanguageKind, content []byte, version int, edits []Edit) (*Snapshot, error) {
	entry, ok := c.langs[lang]
	if !ok {
		return nil, fmt.Errorf("parser: no parser registered for language %s", lang)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.trees[fileID]
	if old == nil {
		// No baseline to edit against; parse fresh without releasing
		// the lock twice.
		tree := entry.parser.Parse(content, nil)
		if tree == nil {
			return nil, fmt.Errorf("parser: failed to parse file %d as %s", fileID, lang)
		}
		c.trees[fileID] = tree
		return &Snapshot{FileID: fileID, Lang: lang, Version: version, Content: content, tree: tree}, nil
	}

	for _, e := range edits {
		ie := e.toInputEdit()
		old.Edit(&ie)
	}

	tree := entry.parser.Parse(content, old)
	if tree == nil {
		return nil, fmt.Errorf("parser: failed to reparse file %d as %s", fileID, lang)
	}
	old.Close()
	c.trees[fileID] = tree

	return &Snapshot{FileID: fileID, Lang: lang, Version: version, Content: content, tree: tree}, nil
}

// Forget releases fileID's cached tree, called when a file leaves the
// workspace (deleted on disk, or excluded by a config reload).
func (c *Cache) Forget(fileID types.FileID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t := c.trees[fileID]; t != nil {
		t.Close()
		delete(c.trees, fileID)
	}
}

// Close releases every cached tree and parser. Callers should not use
// the Cache (or any Snapshot it produced) afterward.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for fileID, t := range c.trees {
		t.Close()
		delete(c.trees, fileID)
	}
	for _, entry := range c.langs {
		entry.parser.Close()
	}
}
