package parser

import (
	"unsafe"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/standardbeagle/i18n-ls/internal/types"
)

// loadLanguage builds the tree-sitter grammar and a dedicated
// *tree_sitter.Parser for lang, the same one-parser-per-language
// setup the teacher's setupJavaScript/setupTypeScript build in
// internal/parser/parser_language_setup.go, narrowed to the four
// dialects this domain's query ever runs against.
func loadLanguage(lang types.LanguageKind) (*tree_sitter.Language, *tree_sitter.Parser, bool) {
	var ptr unsafe.Pointer
	switch lang {
	case types.LanguageJS, types.LanguageJSX:
		ptr = tree_sitter_javascript.Language()
	case types.LanguageTS:
		ptr = tree_sitter_typescript.LanguageTypescript()
	case types.LanguageTSX:
		ptr = tree_sitter_typescript.LanguageTSX()
	default:
		return nil, nil, false
	}

	language := tree_sitter.NewLanguage(ptr)
	p := tree_sitter.NewParser()
	if err := p.SetLanguage(language); err != nil {
		return nil, nil, false
	}
	return language, p, true
}
