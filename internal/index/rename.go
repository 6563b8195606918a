package index

import (
	"sort"

	"github.com/standardbeagle/i18n-ls/internal/types"
)

// TextEdit is a byte-span replacement in one file, the smallest unit
// both rename and code actions produce; an LSP layer maps FileID back
// to a document URI and Span to a line/column range.
type TextEdit struct {
	FileID  types.FileID
	Span    types.Span
	NewText string
}

// RenameKey renames (namespace, oldKey) to newKey across every
// translation-file definition that has it, plus every source call
// site whose literal key token reads exactly as oldKey. Composed from
// DefinitionsOf plus component E's gjson-preserved key spans and
// component D's KeyLiteralSpan, the natural composition spec.md §6
// implies by naming `rename` in its wire surface without detailing it
// further (see SPEC_FULL.md's SUPPLEMENTED FEATURES); grounded on
// _examples/original_source/src/ide/rename.rs's compute_rename_edits,
// which rewrites source references via the unquoted literal-token
// range rather than the whole call expression.
//
// A usage whose KeyLiteralSpan is the zero value is skipped: that
// means a scope's key_prefix (or a split-off namespace) made the
// literal token's text diverge from the resolved key, so the literal
// itself never contained oldKey and there is nothing in the source to
// rewrite.
func (ix *Index) RenameKey(namespace, oldKey, newKey string) []TextEdit {
	var edits []TextEdit
	for _, lang := range ix.orderedLanguages() {
		fid, _, ok := ix.g.Lookup(namespace, lang, oldKey)
		if !ok {
			continue
		}
		tf, ok := ix.g.Translation(fid)
		if !ok {
			continue
		}
		edits = append(edits, TextEdit{FileID: fid, Span: tf.Keys[oldKey].KeySpan, NewText: newKey})
	}

	for _, u := range ix.g.UsagesOfKey(namespace, oldKey) {
		if u.KeyLiteralSpan.Len() == 0 {
			continue
		}
		edits = append(edits, TextEdit{FileID: u.FileID, Span: u.KeyLiteralSpan, NewText: newKey})
	}

	sort.Slice(edits, func(i, j int) bool {
		if edits[i].FileID != edits[j].FileID {
			return edits[i].FileID < edits[j].FileID
		}
		return edits[i].Span.Start < edits[j].Span.Start
	})
	return edits
}
