package index

import "github.com/standardbeagle/i18n-ls/internal/types"

// CodeActionKind names the fix a CodeAction offers, mirroring the
// two diagnostics component H's Missing/Unused already compute.
type CodeActionKind uint8

const (
	CodeActionCreateMissingTranslation CodeActionKind = iota
	CodeActionDeleteUnusedKey
)

// CodeAction is a single quick-fix offered at a diagnostic's span,
// carrying enough to apply it without re-running Missing/Unused.
type CodeAction struct {
	Kind      CodeActionKind
	Title     string
	Namespace string
	Key       string
	Languages []string // languages the fix would add a value for, CreateMissingTranslation only
}

// CodeActions returns the quick-fixes available at span within
// fileID: "create missing translation" for a Missing diagnostic whose
// span overlaps it, "delete unused key" for an Unused diagnostic
// whose key span overlaps it. Named in spec.md §6's wire surface
// without further detail; this is a pure composition of the two
// existing diagnostic-producing operations (see SPEC_FULL.md's
// SUPPLEMENTED FEATURES).
func (ix *Index) CodeActions(fileID types.FileID, span types.Span) []CodeAction {
	var actions []CodeAction

	for _, m := range ix.Missing(fileID) {
		if !spansOverlap(m.Span, span) {
			continue
		}
		actions = append(actions, CodeAction{
			Kind:      CodeActionCreateMissingTranslation,
			Title:     "Create missing translation for " + m.Key,
			Namespace: m.Namespace,
			Key:       m.Key,
			Languages: m.MissingLanguages,
		})
	}

	for _, u := range ix.Unused(fileID) {
		if !spansOverlap(u.KeySpan, span) {
			continue
		}
		tf, ok := ix.g.Translation(fileID)
		namespace := ""
		if ok {
			namespace = tf.Namespace
		}
		actions = append(actions, CodeAction{
			Kind:      CodeActionDeleteUnusedKey,
			Title:     "Delete unused key " + u.Key,
			Namespace: namespace,
			Key:       u.Key,
		})
	}

	return actions
}

func spansOverlap(a, b types.Span) bool {
	return a.Start < b.End && b.Start < a.End
}
