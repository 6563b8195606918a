package graph

import (
	"testing"

	"github.com/standardbeagle/i18n-ls/internal/config"
	"github.com/standardbeagle/i18n-ls/internal/types"
)

func TestUpdateSourceResolvesUsages(t *testing.T) {
	cfg := config.Default("/proj")
	g, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	src := []byte(`
const { t } = useTranslation("common");
t("hello");
`)
	if err := g.UpdateSource(types.FileID(1), types.LanguageTS, src, 1, nil); err != nil {
		t.Fatalf("UpdateSource: %v", err)
	}
	usages, ok := g.Usages(types.FileID(1))
	if !ok || len(usages) != 1 {
		t.Fatalf("expected 1 memoized usage, got %v, %v", usages, ok)
	}
	if usages[0].ResolvedKey != "hello" {
		t.Errorf("expected resolved key 'hello', got %q", usages[0].ResolvedKey)
	}
}

func TestUpdateSourceSkipsRecomputeOnIdenticalBytes(t *testing.T) {
	cfg := config.Default("/proj")
	g, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	src := []byte(`t("a.b");`)
	if err := g.UpdateSource(types.FileID(1), types.LanguageJS, src, 1, nil); err != nil {
		t.Fatalf("UpdateSource: %v", err)
	}
	first, _ := g.Usages(types.FileID(1))

	if err := g.UpdateSource(types.FileID(1), types.LanguageJS, src, 2, nil); err != nil {
		t.Fatalf("UpdateSource (identical bytes): %v", err)
	}
	second, _ := g.Usages(types.FileID(1))
	if len(first) != len(second) {
		t.Errorf("expected memoized usages to be stable across a no-op update")
	}
}

func TestUpdateTranslationPopulatesLookupIndex(t *testing.T) {
	cfg := config.Default("/proj")
	g, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	content := []byte(`{"hello":"Hello there"}`)
	if err := g.UpdateTranslation(types.FileID(2), "/proj/locales/en/common.json", content); err != nil {
		t.Fatalf("UpdateTranslation: %v", err)
	}

	fid, span, ok := g.Lookup("common", "en", "hello")
	if !ok || fid != types.FileID(2) {
		t.Fatalf("expected lookup to resolve to FileID 2, got %v, %v, %v", fid, span, ok)
	}
	if span.Start <= 0 {
		t.Errorf("expected a non-trivial value span, got %v", span)
	}
}

func TestUsagesOfKeyCollectsAcrossFiles(t *testing.T) {
	cfg := config.Default("/proj")
	g, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	a := []byte(`const { t } = useTranslation("common"); t("hello");`)
	b := []byte(`const { t } = useTranslation("common"); t("hello");`)
	if err := g.UpdateSource(types.FileID(1), types.LanguageJS, a, 1, nil); err != nil {
		t.Fatalf("UpdateSource a: %v", err)
	}
	if err := g.UpdateSource(types.FileID(2), types.LanguageJS, b, 1, nil); err != nil {
		t.Fatalf("UpdateSource b: %v", err)
	}

	usages := g.UsagesOfKey("common", "hello")
	if len(usages) != 2 {
		t.Fatalf("expected 2 usages across both files, got %d", len(usages))
	}
}

func TestRemoveFileClearsUsageIndex(t *testing.T) {
	cfg := config.Default("/proj")
	g, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	src := []byte(`const { t } = useTranslation("common"); t("hello");`)
	if err := g.UpdateSource(types.FileID(1), types.LanguageJS, src, 1, nil); err != nil {
		t.Fatalf("UpdateSource: %v", err)
	}
	if len(g.UsagesOfKey("common", "hello")) != 1 {
		t.Fatalf("expected 1 usage before removal")
	}
	g.RemoveFile(types.FileID(1))
	if len(g.UsagesOfKey("common", "hello")) != 0 {
		t.Errorf("expected usage index to be cleared after RemoveFile")
	}
	if _, ok := g.Usages(types.FileID(1)); ok {
		t.Errorf("expected no memoized usages after RemoveFile")
	}
}

func TestSetConfigInvalidatesMemoizationOnNextUpdate(t *testing.T) {
	cfg := config.Default("/proj")
	g, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	src := []byte(`const { t } = useTranslation("common", { keyPrefix: "x" }); t("save");`)
	if err := g.UpdateSource(types.FileID(1), types.LanguageJS, src, 1, nil); err != nil {
		t.Fatalf("UpdateSource: %v", err)
	}
	before, _ := g.Usages(types.FileID(1))
	if before[0].ResolvedKey != "x.save" {
		t.Fatalf("expected 'x.save', got %q", before[0].ResolvedKey)
	}

	next := *cfg
	next.KeySeparator = "/"
	next.Epoch = cfg.Epoch + 1
	g.SetConfig(&next)

	if err := g.UpdateSource(types.FileID(1), types.LanguageJS, src, 1, nil); err != nil {
		t.Fatalf("UpdateSource after config change: %v", err)
	}
	after, _ := g.Usages(types.FileID(1))
	if after[0].ResolvedKey != "x/save" {
		t.Errorf("expected resolution to pick up the new key separator, got %q", after[0].ResolvedKey)
	}
}
