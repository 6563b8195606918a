// Package index implements component H, the read-only query API over
// component F's incremental graph: usages_of, definitions_of,
// missing, unused, decorations, completions and hover, plus the
// supplemented rename and code-action operations. Every operation is
// pure over the graph's current snapshot — none of them touch the
// filesystem or mutate state, generalising the teacher's read-only
// accessor surface in internal/core/file_service.go to this domain's
// query shape.
package index

import (
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/i18n-ls/internal/graph"
	"github.com/standardbeagle/i18n-ls/internal/types"
)

// Index is a thin, stateless query surface over a *graph.Graph. It
// holds no state of its own beyond the graph reference, so handing
// out multiple Index values for the same graph is always safe.
type Index struct {
	g *graph.Graph
}

func New(g *graph.Graph) *Index { return &Index{g: g} }

// Definition is one translation file's value for a resolved key.
type Definition struct {
	FileID    types.FileID
	Language  string
	ValueSpan types.Span
}

// MissingReport flags a statically resolved usage whose key has no
// value in one or more required languages.
type MissingReport struct {
	Span             types.Span
	Key              string
	Namespace        string
	MissingLanguages []string
}

// UnusedReport flags a translation key with no resolved usage
// anywhere in the indexed source tree.
type UnusedReport struct {
	Key     string
	KeySpan types.Span
}

// Decoration pairs a call site's span with the (possibly truncated)
// value an editor should render as an inline hint.
type Decoration struct {
	Span           types.Span
	TruncatedValue string
	Language       string
}

// Completion is one candidate key for a dynamic or partially-typed
// call, together with its value in every indexed language.
type Completion struct {
	Key              string
	PerLanguageValue map[string]string
	Score            float64
}

// UsagesOf returns every resolved call site for (namespace, key).
func (ix *Index) UsagesOf(namespace, key string) []types.KeyUsage {
	return ix.g.UsagesOfKey(namespace, key)
}

// DefinitionsOf returns the translation-file value span for
// (namespace, key) in every language that defines it. If languages is
// non-empty, results are restricted to (and ordered by) that list;
// otherwise every language the graph knows about is returned, primary
// languages first then the rest lexicographically, per spec.md §4.H's
// default ordering rule.
func (ix *Index) DefinitionsOf(namespace, key string, languages []string) []Definition {
	if len(languages) == 0 {
		languages = ix.orderedLanguages()
	}
	out := make([]Definition, 0, len(languages))
	for _, lang := range languages {
		fid, span, ok := ix.g.Lookup(namespace, lang, key)
		if !ok {
			continue
		}
		out = append(out, Definition{FileID: fid, Language: lang, ValueSpan: span})
	}
	return out
}

// orderedLanguages returns every language the graph has translations
// for, with cfg.PrimaryLanguages first (in the order configured) and
// the remainder lexicographic, per spec.md §4.H.
func (ix *Index) orderedLanguages() []string {
	cfg := ix.g.Config()
	seen := make(map[string]bool)
	out := make([]string, 0)
	if cfg != nil {
		for _, lang := range cfg.PrimaryLanguages {
			if !seen[lang] {
				seen[lang] = true
				out = append(out, lang)
			}
		}
	}
	rest := ix.g.Languages()
	sort.Strings(rest)
	for _, lang := range rest {
		if !seen[lang] {
			seen[lang] = true
			out = append(out, lang)
		}
	}
	return out
}

// Missing reports, for every statically resolved usage in fileID,
// which required (or, if configured, optional) languages lack a
// value for that usage's key. required_languages and
// optional_languages are mutually exclusive per spec.md §4.H: if
// RequiredLanguages is set it wins, otherwise every language missing
// from OptionalLanguages's complement is irrelevant — optional
// languages are reported only when explicitly requested by being
// non-empty, not reported-if-absent.
func (ix *Index) Missing(fileID types.FileID) []MissingReport {
	cfg := ix.g.Config()
	if cfg == nil || !cfg.Diagnostics.MissingTranslation.Enabled {
		return nil
	}
	want := cfg.Diagnostics.MissingTranslation.RequiredLanguages
	if len(want) == 0 {
		want = cfg.Diagnostics.MissingTranslation.OptionalLanguages
	}
	if len(want) == 0 {
		want = ix.orderedLanguages()
	}

	usages, _ := ix.g.Usages(fileID)
	out := make([]MissingReport, 0)
	for _, u := range usages {
		if u.Dynamic || u.Ambiguous || u.Namespace == nil {
			continue
		}
		var missingLangs []string
		for _, lang := range want {
			if !ix.hasAnyVariant(*u.Namespace, lang, u) {
				missingLangs = append(missingLangs, lang)
			}
		}
		if len(missingLangs) > 0 {
			out = append(out, MissingReport{
				Span: u.Span, Key: u.ResolvedKey, Namespace: *u.Namespace,
				MissingLanguages: missingLangs,
			})
		}
	}
	return out
}

// hasAnyVariant reports whether u's bare resolved key, or — when u
// carries plural suffixes — any of its _zero/_one/_two/_few/_many/
// _other variants, has a value in lang. spec.md §4.D step 4 and the
// §8 testable invariant require this OR semantics: a plural call like
// t("items", {count: n}) is satisfied by items_one/items_other alone,
// with no bare "items" key needed.
func (ix *Index) hasAnyVariant(namespace, lang string, u types.KeyUsage) bool {
	if _, _, ok := ix.g.Lookup(namespace, lang, u.ResolvedKey); ok {
		return true
	}
	for _, suffix := range u.PluralSuffixes {
		if _, _, ok := ix.g.Lookup(namespace, lang, u.ResolvedKey+suffix); ok {
			return true
		}
	}
	return false
}

// Unused reports every key in the translation file identified by
// fileID that has no resolved usage anywhere in the graph, skipping
// keys matched by any of cfg.Diagnostics.UnusedTranslation.
// IgnorePatterns (a doublestar glob against the dotted key itself).
func (ix *Index) Unused(fileID types.FileID) []UnusedReport {
	cfg := ix.g.Config()
	if cfg == nil || !cfg.Diagnostics.UnusedTranslation.Enabled {
		return nil
	}
	tf, ok := ix.g.Translation(fileID)
	if !ok || tf == nil {
		return nil
	}

	out := make([]UnusedReport, 0)
	for _, key := range tf.KeyOrder {
		if ix.ignoredByPattern(key, cfg.Diagnostics.UnusedTranslation.IgnorePatterns) {
			continue
		}
		if len(ix.g.UsagesOfKey(tf.Namespace, key)) > 0 {
			continue
		}
		out = append(out, UnusedReport{Key: key, KeySpan: tf.Keys[key].KeySpan})
	}
	return out
}

func (ix *Index) ignoredByPattern(key string, patterns []string) bool {
	for _, pattern := range patterns {
		if matched, _ := doublestar.Match(pattern, key); matched {
			return true
		}
	}
	return false
}

// Decorations returns, for every statically resolved usage in
// fileID, the value an inline decoration should show — from language
// only, if given; otherwise from the first language that defines the
// key, in cfg.PrimaryLanguages order and then lexicographically —
// truncated to maxWidth runes with an ellipsis.
func (ix *Index) Decorations(fileID types.FileID, language string, maxWidth int) []Decoration {
	usages, _ := ix.g.Usages(fileID)
	languages := ix.orderedLanguages()
	if language != "" {
		languages = []string{language}
	}

	out := make([]Decoration, 0, len(usages))
	for _, u := range usages {
		if u.Dynamic || u.Ambiguous || u.Namespace == nil {
			continue
		}
		for _, lang := range languages {
			fid, _, ok := ix.g.Lookup(*u.Namespace, lang, u.ResolvedKey)
			if !ok {
				continue
			}
			tf, ok := ix.g.Translation(fid)
			if !ok {
				continue
			}
			entry := tf.Keys[u.ResolvedKey]
			out = append(out, Decoration{
				Span:           u.Span,
				TruncatedValue: truncate(entry.Value, maxWidth),
				Language:       lang,
			})
			break
		}
	}
	return out
}

func truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= maxWidth {
		return s
	}
	if maxWidth <= 1 {
		return string(r[:maxWidth])
	}
	return string(r[:maxWidth-1]) + "…"
}

// Completions ranks every key in namespace across every language
// against prefix using Jaro-Winkler similarity, for a dynamic or
// partially-typed call at position within fileID. namespace is
// resolved from the nearest usage whose span contains position,
// falling back to cfg.DefaultNamespace when no enclosing usage is
// found (a bare function call the query engine never captured).
func (ix *Index) Completions(fileID types.FileID, position int, prefix string) []Completion {
	namespace := ix.namespaceAtPosition(fileID, position)
	if namespace == "" {
		return nil
	}

	keys := ix.keysInNamespace(namespace)
	out := make([]Completion, 0, len(keys))
	for key, perLang := range keys {
		score := 1.0
		if prefix != "" {
			score = similarity(prefix, key)
		}
		out = append(out, Completion{Key: key, PerLanguageValue: perLang, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// Hover returns every language's value for the key at position within
// fileID, keyed by language tag, or ok=false if no usage's span
// contains position.
func (ix *Index) Hover(fileID types.FileID, position int) (map[string]string, bool) {
	usages, _ := ix.g.Usages(fileID)
	for _, u := range usages {
		if !u.Span.Contains(position) || u.Dynamic || u.Ambiguous || u.Namespace == nil {
			continue
		}
		values := make(map[string]string)
		for _, lang := range ix.orderedLanguages() {
			fid, _, ok := ix.g.Lookup(*u.Namespace, lang, u.ResolvedKey)
			if !ok {
				continue
			}
			tf, ok := ix.g.Translation(fid)
			if !ok {
				continue
			}
			values[lang] = tf.Keys[u.ResolvedKey].Value
		}
		return values, len(values) > 0
	}
	return nil, false
}

func (ix *Index) namespaceAtPosition(fileID types.FileID, position int) string {
	usages, _ := ix.g.Usages(fileID)
	for _, u := range usages {
		if u.Span.Contains(position) && u.Namespace != nil {
			return *u.Namespace
		}
	}
	if cfg := ix.g.Config(); cfg != nil && cfg.DefaultNamespace != nil {
		return *cfg.DefaultNamespace
	}
	return ""
}

// keysInNamespace collects every key defined in namespace across
// every indexed translation file, each mapped to its per-language
// value set.
func (ix *Index) keysInNamespace(namespace string) map[string]map[string]string {
	out := make(map[string]map[string]string)
	for _, fid := range ix.g.AllTranslationFiles() {
		tf, ok := ix.g.Translation(fid)
		if !ok || tf.Namespace != namespace {
			continue
		}
		for _, key := range tf.KeyOrder {
			if out[key] == nil {
				out[key] = make(map[string]string)
			}
			out[key][tf.Language] = tf.Keys[key].Value
		}
	}
	return out
}

// similarity lowercases both strings and returns go-edlib's
// Jaro-Winkler similarity for them (0..1, higher is more similar), the
// same measure the teacher's internal/semantic/fuzzy_matcher.go uses
// for fuzzy identifier matching. An edlib error scores 0.
func similarity(a, b string) float64 {
	score, err := edlibSimilarity(strings.ToLower(a), strings.ToLower(b))
	if err != nil {
		return 0
	}
	return score
}
