package parser

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/i18n-ls/internal/types"
)

// Point is a (row, column) source position, the same shape
// tree_sitter.Point uses, so callers constructing an Edit don't need
// to import the tree-sitter package directly.
type Point struct {
	Row    uint
	Column uint
}

// Edit describes one incremental text change, the editor's
// didChange range translated into the byte offsets and
// row/column positions tree-sitter needs to reuse the previous
// parse tree instead of reparsing from scratch.
type Edit struct {
	StartByte      uint
	OldEndByte     uint
	NewEndByte     uint
	StartPosition  Point
	OldEndPosition Point
	NewEndPosition Point
}

func (e Edit) toInputEdit() tree_sitter.InputEdit {
	return tree_sitter.InputEdit{
		StartByte:      e.StartByte,
		OldEndByte:     e.OldEndByte,
		NewEndByte:     e.NewEndByte,
		StartPosition:  tree_sitter.Point{Row: e.StartPosition.Row, Column: e.StartPosition.Column},
		OldEndPosition: tree_sitter.Point{Row: e.OldEndPosition.Row, Column: e.OldEndPosition.Column},
		NewEndPosition: tree_sitter.Point{Row: e.NewEndPosition.Row, Column: e.NewEndPosition.Column},
	}
}

// Snapshot is one parsed revision of a file: the tree component C's
// query engine walks, plus the exact byte content that tree refers
// to (tree-sitter nodes are byte offsets into this slice, not a
// standalone representation) and the version the editor assigned it.
type Snapshot struct {
	FileID  types.FileID
	Lang    types.LanguageKind
	Version int
	Content []byte

	tree *tree_sitter.Tree
}

// RootNode returns the parse tree's root, or nil if parsing the file
// produced no tree at all (an unsupported language slipped past the
// registry's classification, or the grammar failed to load).
func (s *Snapshot) RootNode() *tree_sitter.Node {
	if s.tree == nil {
		return nil
	}
	return s.tree.RootNode()
}
