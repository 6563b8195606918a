package index

import (
	"testing"

	"github.com/standardbeagle/i18n-ls/internal/config"
	"github.com/standardbeagle/i18n-ls/internal/graph"
	"github.com/standardbeagle/i18n-ls/internal/types"
)

func newTestGraph(t *testing.T, cfg *config.Config) *graph.Graph {
	t.Helper()
	g, err := graph.New(cfg)
	if err != nil {
		t.Fatalf("graph.New: %v", err)
	}
	return g
}

func TestUsagesOfAndDefinitionsOf(t *testing.T) {
	cfg := config.Default("/proj")
	cfg.PrimaryLanguages = []string{"en", "fr"}
	g := newTestGraph(t, cfg)

	src := []byte(`const { t } = useTranslation("common"); t("hello");`)
	if err := g.UpdateSource(types.FileID(1), types.LanguageJS, src, 1, nil); err != nil {
		t.Fatalf("UpdateSource: %v", err)
	}
	if err := g.UpdateTranslation(types.FileID(2), "/proj/locales/en/common.json", []byte(`{"hello":"Hello"}`)); err != nil {
		t.Fatalf("UpdateTranslation en: %v", err)
	}
	if err := g.UpdateTranslation(types.FileID(3), "/proj/locales/fr/common.json", []byte(`{"hello":"Bonjour"}`)); err != nil {
		t.Fatalf("UpdateTranslation fr: %v", err)
	}

	ix := New(g)

	usages := ix.UsagesOf("common", "hello")
	if len(usages) != 1 {
		t.Fatalf("expected 1 usage, got %d", len(usages))
	}

	defs := ix.DefinitionsOf("common", "hello", nil)
	if len(defs) != 2 {
		t.Fatalf("expected 2 definitions (en, fr), got %d: %v", len(defs), defs)
	}
	if defs[0].Language != "en" {
		t.Errorf("expected primary language 'en' first, got %q", defs[0].Language)
	}
}

func TestMissingReportsAbsentRequiredLanguage(t *testing.T) {
	cfg := config.Default("/proj")
	cfg.Diagnostics.MissingTranslation.RequiredLanguages = []string{"en", "fr"}
	g := newTestGraph(t, cfg)

	src := []byte(`const { t } = useTranslation("common"); t("hello");`)
	if err := g.UpdateSource(types.FileID(1), types.LanguageJS, src, 1, nil); err != nil {
		t.Fatalf("UpdateSource: %v", err)
	}
	if err := g.UpdateTranslation(types.FileID(2), "/proj/locales/en/common.json", []byte(`{"hello":"Hello"}`)); err != nil {
		t.Fatalf("UpdateTranslation: %v", err)
	}

	ix := New(g)
	reports := ix.Missing(types.FileID(1))
	if len(reports) != 1 {
		t.Fatalf("expected 1 missing report, got %d: %v", len(reports), reports)
	}
	if reports[0].Key != "hello" || len(reports[0].MissingLanguages) != 1 || reports[0].MissingLanguages[0] != "fr" {
		t.Errorf("expected 'fr' missing for key 'hello', got %v", reports[0])
	}
}

func TestUnusedSkipsKeysWithUsagesAndIgnoredPatterns(t *testing.T) {
	cfg := config.Default("/proj")
	cfg.Diagnostics.UnusedTranslation.IgnorePatterns = []string{"internal.*"}
	g := newTestGraph(t, cfg)

	src := []byte(`const { t } = useTranslation("common"); t("hello");`)
	if err := g.UpdateSource(types.FileID(1), types.LanguageJS, src, 1, nil); err != nil {
		t.Fatalf("UpdateSource: %v", err)
	}
	content := []byte(`{"hello":"Hello","goodbye":"Bye","internal.debug":"x"}`)
	if err := g.UpdateTranslation(types.FileID(2), "/proj/locales/en/common.json", content); err != nil {
		t.Fatalf("UpdateTranslation: %v", err)
	}

	ix := New(g)
	reports := ix.Unused(types.FileID(2))
	if len(reports) != 1 || reports[0].Key != "goodbye" {
		t.Fatalf("expected only 'goodbye' reported unused, got %v", reports)
	}
}

func TestDecorationsPrefersRequestedLanguage(t *testing.T) {
	cfg := config.Default("/proj")
	cfg.PrimaryLanguages = []string{"en"}
	g := newTestGraph(t, cfg)

	src := []byte(`const { t } = useTranslation("common"); t("hello");`)
	if err := g.UpdateSource(types.FileID(1), types.LanguageJS, src, 1, nil); err != nil {
		t.Fatalf("UpdateSource: %v", err)
	}
	if err := g.UpdateTranslation(types.FileID(2), "/proj/locales/fr/common.json", []byte(`{"hello":"Bonjour tout le monde"}`)); err != nil {
		t.Fatalf("UpdateTranslation: %v", err)
	}

	ix := New(g)
	decs := ix.Decorations(types.FileID(1), "fr", 6)
	if len(decs) != 1 {
		t.Fatalf("expected 1 decoration, got %d", len(decs))
	}
	if decs[0].TruncatedValue != "Bonjo…" {
		t.Errorf("expected truncated value 'Bonjo…', got %q", decs[0].TruncatedValue)
	}
}

func TestHoverReturnsAllLanguageValues(t *testing.T) {
	cfg := config.Default("/proj")
	g := newTestGraph(t, cfg)

	src := []byte(`const { t } = useTranslation("common"); t("hello");`)
	if err := g.UpdateSource(types.FileID(1), types.LanguageJS, src, 1, nil); err != nil {
		t.Fatalf("UpdateSource: %v", err)
	}
	if err := g.UpdateTranslation(types.FileID(2), "/proj/locales/en/common.json", []byte(`{"hello":"Hello"}`)); err != nil {
		t.Fatalf("UpdateTranslation: %v", err)
	}

	ix := New(g)
	usages, _ := g.Usages(types.FileID(1))
	pos := usages[0].Span.Start

	values, ok := ix.Hover(types.FileID(1), pos)
	if !ok || values["en"] != "Hello" {
		t.Fatalf("expected hover to return en='Hello', got %v, %v", values, ok)
	}
}

func TestCompletionsRanksByPrefixSimilarity(t *testing.T) {
	cfg := config.Default("/proj")
	g := newTestGraph(t, cfg)

	src := []byte(`const { t } = useTranslation("common"); t();`)
	if err := g.UpdateSource(types.FileID(1), types.LanguageJS, src, 1, nil); err != nil {
		t.Fatalf("UpdateSource: %v", err)
	}
	if err := g.UpdateTranslation(types.FileID(2), "/proj/locales/en/common.json",
		[]byte(`{"hello":"Hello","help":"Help","goodbye":"Bye"}`)); err != nil {
		t.Fatalf("UpdateTranslation: %v", err)
	}

	ix := New(g)
	usages, _ := g.Usages(types.FileID(1))
	if len(usages) != 1 || !usages[0].Dynamic {
		t.Fatalf("expected 1 dynamic usage, got %v", usages)
	}
	pos := usages[0].Span.Start

	completions := ix.Completions(types.FileID(1), pos, "hel")
	if len(completions) != 3 {
		t.Fatalf("expected 3 candidate keys, got %d", len(completions))
	}
	if completions[0].Key != "hello" && completions[0].Key != "help" {
		t.Errorf("expected 'hello' or 'help' to rank first against prefix 'hel', got %q", completions[0].Key)
	}
}

func TestRenameKeyProducesTranslationFileEdits(t *testing.T) {
	cfg := config.Default("/proj")
	cfg.PrimaryLanguages = []string{"en", "fr"}
	g := newTestGraph(t, cfg)

	enContent := []byte(`{"hello":"Hello"}`)
	frContent := []byte(`{"hello":"Bonjour"}`)
	if err := g.UpdateTranslation(types.FileID(1), "/proj/locales/en/common.json", enContent); err != nil {
		t.Fatalf("UpdateTranslation en: %v", err)
	}
	if err := g.UpdateTranslation(types.FileID(2), "/proj/locales/fr/common.json", frContent); err != nil {
		t.Fatalf("UpdateTranslation fr: %v", err)
	}

	ix := New(g)
	edits := ix.RenameKey("common", "hello", "greeting")
	if len(edits) != 2 {
		t.Fatalf("expected 2 edits (en, fr), got %d: %v", len(edits), edits)
	}
	for _, e := range edits {
		if e.NewText != "greeting" {
			t.Errorf("expected NewText 'greeting', got %q", e.NewText)
		}
	}
	if string(enContent[edits[0].Span.Start:edits[0].Span.End]) != "hello" {
		t.Errorf("expected the first edit's span to cover the literal key text 'hello', got %q",
			enContent[edits[0].Span.Start:edits[0].Span.End])
	}
}

func TestRenameKeyAlsoEditsSourceCallSites(t *testing.T) {
	cfg := config.Default("/proj")
	g := newTestGraph(t, cfg)

	src := []byte(`const { t } = useTranslation("common"); t("hello");`)
	if err := g.UpdateSource(types.FileID(1), types.LanguageJS, src, 1, nil); err != nil {
		t.Fatalf("UpdateSource: %v", err)
	}
	if err := g.UpdateTranslation(types.FileID(2), "/proj/locales/en/common.json", []byte(`{"hello":"Hello"}`)); err != nil {
		t.Fatalf("UpdateTranslation: %v", err)
	}

	ix := New(g)
	edits := ix.RenameKey("common", "hello", "greeting")
	if len(edits) != 2 {
		t.Fatalf("expected 2 edits (translation file + source call site), got %d: %v", len(edits), edits)
	}

	var sawSourceEdit bool
	for _, e := range edits {
		if e.FileID != types.FileID(1) {
			continue
		}
		sawSourceEdit = true
		if string(src[e.Span.Start:e.Span.End]) != "hello" {
			t.Errorf("expected the source edit's span to cover the literal key text 'hello', got %q",
				src[e.Span.Start:e.Span.End])
		}
	}
	if !sawSourceEdit {
		t.Fatalf("expected one edit against the source file, got %v", edits)
	}
}

func TestRenameKeySkipsSourceUsageBehindKeyPrefix(t *testing.T) {
	cfg := config.Default("/proj")
	g := newTestGraph(t, cfg)

	src := []byte(`const { t } = useTranslation("common", { keyPrefix: "greeting" }); t("hello");`)
	if err := g.UpdateSource(types.FileID(1), types.LanguageJS, src, 1, nil); err != nil {
		t.Fatalf("UpdateSource: %v", err)
	}
	if err := g.UpdateTranslation(types.FileID(2), "/proj/locales/en/common.json", []byte(`{"greeting.hello":"Hi"}`)); err != nil {
		t.Fatalf("UpdateTranslation: %v", err)
	}

	ix := New(g)
	edits := ix.RenameKey("common", "greeting.hello", "greeting.hey")
	for _, e := range edits {
		if e.FileID == types.FileID(1) {
			t.Fatalf("expected no source edit for a key_prefix usage (literal text never equals the resolved key), got %v", e)
		}
	}
}

func TestMissingIsSatisfiedByAnyPluralSuffixVariant(t *testing.T) {
	cfg := config.Default("/proj")
	cfg.Diagnostics.MissingTranslation.RequiredLanguages = []string{"en"}
	g := newTestGraph(t, cfg)

	src := []byte(`const { t } = useTranslation("common"); t("items", { count: n });`)
	if err := g.UpdateSource(types.FileID(1), types.LanguageJS, src, 1, nil); err != nil {
		t.Fatalf("UpdateSource: %v", err)
	}
	if err := g.UpdateTranslation(types.FileID(2), "/proj/locales/en/common.json",
		[]byte(`{"items_one":"1 item","items_other":"{{count}} items"}`)); err != nil {
		t.Fatalf("UpdateTranslation: %v", err)
	}

	ix := New(g)
	reports := ix.Missing(types.FileID(1))
	if len(reports) != 0 {
		t.Fatalf("expected no missing report when only suffixed plural keys exist, got %v", reports)
	}
}

func TestCodeActionsOffersCreateMissingAndDeleteUnused(t *testing.T) {
	cfg := config.Default("/proj")
	cfg.Diagnostics.MissingTranslation.RequiredLanguages = []string{"en", "fr"}
	g := newTestGraph(t, cfg)

	src := []byte(`const { t } = useTranslation("common"); t("hello");`)
	if err := g.UpdateSource(types.FileID(1), types.LanguageJS, src, 1, nil); err != nil {
		t.Fatalf("UpdateSource: %v", err)
	}
	if err := g.UpdateTranslation(types.FileID(2), "/proj/locales/en/common.json",
		[]byte(`{"hello":"Hello","unused_key":"x"}`)); err != nil {
		t.Fatalf("UpdateTranslation: %v", err)
	}

	ix := New(g)
	usages, _ := g.Usages(types.FileID(1))
	actions := ix.CodeActions(types.FileID(1), usages[0].Span)
	if len(actions) != 1 || actions[0].Kind != CodeActionCreateMissingTranslation {
		t.Fatalf("expected 1 create-missing-translation action, got %v", actions)
	}

	unused := ix.Unused(types.FileID(2))
	if len(unused) != 1 {
		t.Fatalf("expected 1 unused key, got %v", unused)
	}
	deleteActions := ix.CodeActions(types.FileID(2), unused[0].KeySpan)
	if len(deleteActions) != 1 || deleteActions[0].Kind != CodeActionDeleteUnusedKey {
		t.Fatalf("expected 1 delete-unused-key action, got %v", deleteActions)
	}
}
