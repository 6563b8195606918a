package query

import (
	"fmt"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/i18n-ls/internal/parser"
	"github.com/standardbeagle/i18n-ls/internal/types"
)

// Engine owns one compiled tree_sitter.Query per LanguageKind,
// mirroring how the teacher's TreeSitterParser keys p.queries by file
// extension in parser_language_setup.go, but keyed by LanguageKind
// since this package only ever runs the single i18n query.
type Engine struct {
	mu      sync.Mutex
	queries map[types.LanguageKind]*tree_sitter.Query
	cache   *parser.Cache
}

func NewEngine(cache *parser.Cache) (*Engine, error) {
	e := &Engine{
		queries: make(map[types.LanguageKind]*tree_sitter.Query),
		cache:   cache,
	}
	for _, lang := range []types.LanguageKind{types.LanguageJS, types.LanguageJSX, types.LanguageTS, types.LanguageTSX} {
		grammar, ok := cache.Language(lang)
		if !ok {
			continue
		}
		q, _ := tree_sitter.NewQuery(grammar, queryForDialect())
		// NewQuery's error is discarded; a query that fails to compile
		// against this grammar comes back nil and is reported here.
		if q == nil {
			return nil, fmt.Errorf("failed to compile i18n query for language %s", lang)
		}
		e.queries[lang] = q
	}
	return e, nil
}

// Extract runs the compiled query for snap.Lang over snap's tree and
// flattens every match's captures into one stream, in source order.
// Capture grouping by enclosing call/declaration (spec.md §4.D's job)
// is left to the scope resolver; this layer stays purely syntactic.
func (e *Engine) Extract(snap *parser.Snapshot) ([]types.Capture, error) {
	root := snap.RootNode()
	if root == nil {
		return nil, nil
	}

	e.mu.Lock()
	q, ok := e.queries[snap.Lang]
	e.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no compiled query for language %s", snap.Lang)
	}

	cursor := tree_sitter.NewQueryCursor()
	defer cursor.Close()

	matches := cursor.Matches(q, root, snap.Content)
	captureNames := q.CaptureNames()

	var out []types.Capture
	for {
		match := matches.Next()
		if match == nil {
			break
		}
		for _, c := range match.Captures {
			node := c.Node
			name := captureNames[c.Index]
			start, end := node.StartByte(), node.EndByte()
			sp, ep := node.StartPosition(), node.EndPosition()
			out = append(out, types.Capture{
				Name: name,
				Span: types.Span{
					Start:     int(start),
					End:       int(end),
					StartLine: int(sp.Row) + 1,
					StartCol:  int(sp.Column),
					EndLine:   int(ep.Row) + 1,
					EndCol:    int(ep.Column),
				},
				Text: string(snap.Content[start:end]),
				Node: &node,
			})
		}
	}
	return out, nil
}
