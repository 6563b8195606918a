package query

import (
	"testing"

	"github.com/standardbeagle/i18n-ls/internal/parser"
	"github.com/standardbeagle/i18n-ls/internal/types"
)

func mustEngine(t *testing.T) (*parser.Cache, *Engine) {
	t.Helper()
	cache, err := parser.NewCache()
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	engine, err := NewEngine(cache)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return cache, engine
}

func namesOf(caps []types.Capture) map[string]int {
	out := make(map[string]int)
	for _, c := range caps {
		out[c.Name]++
	}
	return out
}

func TestExtractCapturesHookDestructure(t *testing.T) {
	cache, engine := mustEngine(t)

	src := []byte(`const { t } = useTranslation("common", { keyPrefix: "buttons" });`)
	snap, err := cache.Parse(types.FileID(1), types.LanguageTS, src, 1)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	caps, err := engine.Extract(snap)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	counts := namesOf(caps)
	if counts["get_trans_fn"] == 0 {
		t.Errorf("expected a get_trans_fn capture, got %v", counts)
	}
	if counts["get_trans_fn_name"] == 0 {
		t.Errorf("expected a get_trans_fn_name capture, got %v", counts)
	}
	if counts["namespace"] == 0 {
		t.Errorf("expected a namespace capture, got %v", counts)
	}
	if counts["key_prefix"] == 0 {
		t.Errorf("expected a key_prefix capture, got %v", counts)
	}
}

func TestExtractCapturesBareCall(t *testing.T) {
	cache, engine := mustEngine(t)

	src := []byte(`t("greeting.hello", { ns: "errors" });`)
	snap, err := cache.Parse(types.FileID(2), types.LanguageJS, src, 1)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	caps, err := engine.Extract(snap)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	counts := namesOf(caps)
	if counts["call_trans_fn"] == 0 {
		t.Errorf("expected a call_trans_fn capture, got %v", counts)
	}
	if counts["trans_key"] == 0 {
		t.Errorf("expected a trans_key capture, got %v", counts)
	}
	if counts["explicit_namespace"] == 0 {
		t.Errorf("expected an explicit_namespace capture, got %v", counts)
	}
}

func TestExtractCapturesMemberExpressionCall(t *testing.T) {
	cache, engine := mustEngine(t)

	src := []byte(`i18next.t("app.title");`)
	snap, err := cache.Parse(types.FileID(3), types.LanguageJS, src, 1)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	caps, err := engine.Extract(snap)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	counts := namesOf(caps)
	if counts["call_trans_fn_name"] == 0 {
		t.Errorf("expected a call_trans_fn_name capture, got %v", counts)
	}
	if counts["member_object"] == 0 || counts["member_property"] == 0 {
		t.Errorf("expected member_object/member_property captures, got %v", counts)
	}
}

func TestExtractEmptyFileProducesNoCaptures(t *testing.T) {
	cache, engine := mustEngine(t)

	snap, err := cache.Parse(types.FileID(4), types.LanguageTS, []byte(``), 1)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	caps, err := engine.Extract(snap)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(caps) != 0 {
		t.Errorf("expected no captures for an empty file, got %d", len(caps))
	}
}
