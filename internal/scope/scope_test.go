package scope

import (
	"testing"

	"github.com/standardbeagle/i18n-ls/internal/config"
	"github.com/standardbeagle/i18n-ls/internal/parser"
	"github.com/standardbeagle/i18n-ls/internal/query"
	"github.com/standardbeagle/i18n-ls/internal/types"
)

func resolveSource(t *testing.T, src string, cfg *config.Config) []types.KeyUsage {
	t.Helper()
	cache, err := parser.NewCache()
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	engine, err := query.NewEngine(cache)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	snap, err := cache.Parse(types.FileID(1), types.LanguageTS, []byte(src), 1)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	caps, err := engine.Extract(snap)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	usages, _ := NewResolver(cfg).Resolve(types.FileID(1), caps)
	return usages
}

func TestResolveKeyPrefixAndExplicitNamespace(t *testing.T) {
	cfg := config.Default("/proj")
	src := `
function Save() {
  const { t } = useTranslation("common", { keyPrefix: "buttons" });
  t("save");
}
`
	usages := resolveSource(t, src, cfg)
	if len(usages) != 1 {
		t.Fatalf("expected 1 usage, got %d", len(usages))
	}
	u := usages[0]
	if u.ResolvedKey != "buttons.save" {
		t.Errorf("expected resolved key 'buttons.save', got %q", u.ResolvedKey)
	}
	if u.Namespace == nil || *u.Namespace != "common" {
		t.Errorf("expected namespace 'common', got %v", u.Namespace)
	}
}

func TestResolveInCallNamespaceWinsOverHookNamespace(t *testing.T) {
	cfg := config.Default("/proj")
	src := `
function Save() {
  const { t } = useTranslation("common", { keyPrefix: "buttons" });
  t("save", { ns: "errors" });
}
`
	usages := resolveSource(t, src, cfg)
	if len(usages) != 1 {
		t.Fatalf("expected 1 usage, got %d", len(usages))
	}
	u := usages[0]
	if u.Namespace == nil || *u.Namespace != "errors" {
		t.Errorf("expected in-call namespace 'errors' to win, got %v", u.Namespace)
	}
	if u.ResolvedKey != "buttons.save" {
		t.Errorf("key prefix should still apply, got %q", u.ResolvedKey)
	}
}

func TestResolveScopeShadowing(t *testing.T) {
	cfg := config.Default("/proj")
	src := `
function Outer() {
  const { t } = useTranslation("outerNs");
  function Inner() {
    const { t } = useTranslation("innerNs");
    t("greeting");
  }
  t("farewell");
}
`
	usages := resolveSource(t, src, cfg)
	if len(usages) != 2 {
		t.Fatalf("expected 2 usages, got %d", len(usages))
	}
	byKey := map[string]*types.KeyUsage{}
	for i := range usages {
		byKey[usages[i].ResolvedKey] = &usages[i]
	}
	greet := byKey["greeting"]
	farewell := byKey["farewell"]
	if greet == nil || farewell == nil {
		t.Fatalf("expected both usages resolved, got %v", byKey)
	}
	if greet.Namespace == nil || *greet.Namespace != "innerNs" {
		t.Errorf("inner t() should resolve against innerNs, got %v", greet.Namespace)
	}
	if farewell.Namespace == nil || *farewell.Namespace != "outerNs" {
		t.Errorf("outer t() should resolve against outerNs, got %v", farewell.Namespace)
	}
}

func TestResolveDefaultNamespaceFallback(t *testing.T) {
	cfg := config.Default("/proj")
	ns := "translation"
	cfg.DefaultNamespace = &ns
	src := `t("welcome");`
	usages := resolveSource(t, src, cfg)
	if len(usages) != 1 {
		t.Fatalf("expected 1 usage, got %d", len(usages))
	}
	if usages[0].Namespace == nil || *usages[0].Namespace != "translation" {
		t.Errorf("expected default namespace fallback, got %v", usages[0].Namespace)
	}
	if usages[0].Ambiguous {
		t.Errorf("usage backed by a default namespace should not be ambiguous")
	}
}

func TestResolveNamespaceSeparatorInKey(t *testing.T) {
	cfg := config.Default("/proj")
	sep := ":"
	ns := "translation"
	cfg.NamespaceSeparator = &sep
	cfg.DefaultNamespace = &ns
	src := `t("errors:notFound");`
	usages := resolveSource(t, src, cfg)
	if len(usages) != 1 {
		t.Fatalf("expected 1 usage, got %d", len(usages))
	}
	u := usages[0]
	if u.Namespace == nil || *u.Namespace != "errors" {
		t.Errorf("expected namespace 'errors', got %v", u.Namespace)
	}
	if u.ResolvedKey != "notFound" {
		t.Errorf("expected key 'notFound', got %q", u.ResolvedKey)
	}
}

func TestResolveMemberExpressionCall(t *testing.T) {
	cfg := config.Default("/proj")
	src := `i18next.t("app.title");`
	usages := resolveSource(t, src, cfg)
	if len(usages) != 1 {
		t.Fatalf("expected 1 usage, got %d", len(usages))
	}
	if usages[0].Flavour != types.FlavourI18next {
		t.Errorf("expected i18next flavour from member-expression call, got %v", usages[0].Flavour)
	}
}

func TestResolveAmbiguousCallWithoutScope(t *testing.T) {
	cfg := config.Default("/proj")
	src := `translate("whatever");`
	usages := resolveSource(t, src, cfg)
	if len(usages) != 1 {
		t.Fatalf("expected 1 usage, got %d", len(usages))
	}
	if !usages[0].Ambiguous {
		t.Errorf("expected an ambiguous usage when no scope and no default namespace apply")
	}
}

func TestResolveEmptyCallIsDynamicNotDiagnosed(t *testing.T) {
	cfg := config.Default("/proj")
	src := `
const { t } = useTranslation("common");
t();
`
	usages := resolveSource(t, src, cfg)
	if len(usages) != 1 {
		t.Fatalf("expected 1 usage, got %d", len(usages))
	}
	if !usages[0].Dynamic {
		t.Errorf("expected an empty call to be marked dynamic")
	}
	if usages[0].ResolvedKey != "" {
		t.Errorf("expected empty resolved key for a keyless call, got %q", usages[0].ResolvedKey)
	}
}
