// Package types holds the data model shared across the index: file
// identity, spans, and the derived records produced by the parser,
// query engine, scope resolver, and translation loader.
package types

// FileID is a compact, monotonically assigned handle for a registered
// file path. It is never reused, so a stale reference to a deleted
// file simply fails to resolve rather than aliasing a new file.
type FileID uint32

// InvalidFileID is returned by lookups that found nothing.
const InvalidFileID FileID = 0

// LanguageKind identifies the grammar a source file is parsed with.
type LanguageKind uint8

const (
	LanguageUnknown LanguageKind = iota
	LanguageJS
	LanguageJSX
	LanguageTS
	LanguageTSX
)

func (k LanguageKind) String() string {
	switch k {
	case LanguageJS:
		return "javascript"
	case LanguageJSX:
		return "javascriptreact"
	case LanguageTS:
		return "typescript"
	case LanguageTSX:
		return "typescriptreact"
	default:
		return "unknown"
	}
}

// FileKind is the result of classifying a path against the active
// I18nConfig's globs (component A).
type FileKind uint8

const (
	FileKindIgnored FileKind = iota
	FileKindSource
	FileKindTranslation
	FileKindConfig
)

// Span is a half-open byte range [Start, End) into a file's bytes,
// plus the 1-based line and 0-based column of its start and end for
// editor output.
type Span struct {
	Start     int
	End       int
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

func (s Span) Len() int { return s.End - s.Start }

// Contains reports whether pos (a byte offset) falls inside the span.
func (s Span) Contains(pos int) bool { return pos >= s.Start && pos < s.End }

// SourceFile is a registered JS/TS/JSX/TSX buffer as supplied by the
// text-sync collaborator or discovered by the workspace scan.
type SourceFile struct {
	FileID   FileID
	Language LanguageKind
	Bytes    []byte
	Version  int
}

// TranslationEntry is one leaf value in a flattened translation file.
type TranslationEntry struct {
	Value     string
	KeySpan   Span
	ValueSpan Span
}

// TranslationFile is a parsed JSON locale file flattened to a
// key -> entry map, with language/namespace derived from its path.
type TranslationFile struct {
	FileID    FileID
	Path      string
	Language  string
	Namespace string // empty if none could be derived
	Bytes     []byte
	Keys      map[string]TranslationEntry
	// KeyOrder preserves discovery order; map iteration order in Go
	// is not stable and callers need deterministic listings.
	KeyOrder  []string
	Malformed bool
}

// LibraryFlavour distinguishes the i18n library shape a scope or
// usage was recognised from; resolution rules differ slightly by
// flavour (next-intl has no array-of-namespaces argument, for one).
type LibraryFlavour uint8

const (
	FlavourUnknown LibraryFlavour = iota
	FlavourI18next
	FlavourReactI18next
	FlavourNextIntl
)

// Scope is a lexical region that binds a local translation-function
// name to a namespace/key-prefix pair. Scopes nest; the innermost
// scope binding a given LocalName shadows outer ones for that name.
type Scope struct {
	Range     Span
	LocalName string
	Namespace *string
	KeyPrefix *string
	Flavour   LibraryFlavour
}

// KeyUsage is one resolved call site of a translation function.
type KeyUsage struct {
	FileID         FileID
	Span           Span
	CalleeSpan     Span
	ResolvedKey    string
	Namespace      *string
	Flavour        LibraryFlavour
	PluralSuffixes []string // nil unless a count/plural option was present
	// Dynamic is true when the call's key argument was not a literal;
	// such usages power completion only, never diagnostics.
	Dynamic bool
	// Ambiguous is true when the call could not be matched to any
	// scope and no default namespace applied (Scope-ambiguous kind).
	Ambiguous bool
	// KeyLiteralSpan is the string-literal key token's own span,
	// distinct from Span (the whole call expression). Zero-length
	// (the Span zero value) unless the literal's text is exactly
	// ResolvedKey: a key_prefix or namespace split makes the literal
	// token shorter than the resolved key, and rewriting that token
	// to the full new key would corrupt the call rather than rename
	// it, so rename only ever uses this span when it's non-empty.
	KeyLiteralSpan Span
}

// PluralSuffixVariants are the suffix forms spec.md §4.D requires a
// plural-capable usage to be checked against.
var PluralSuffixVariants = []string{"_zero", "_one", "_two", "_few", "_many", "_other"}

// Capture is one tagged byte range produced by the query engine
// (component C) for a single query match.
type Capture struct {
	Name  string // e.g. "call_trans_fn_name", "trans_key", "namespace"
	Span  Span
	Text  string
	Node  any // opaque tree-sitter node handle, language-specific
}
