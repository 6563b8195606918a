package translate

import (
	"testing"

	"github.com/standardbeagle/i18n-ls/internal/config"
	"github.com/standardbeagle/i18n-ls/internal/types"
)

func TestLoadFlattensNestedKeys(t *testing.T) {
	cfg := config.Default("/proj")
	content := []byte(`{"buttons":{"save":"Save","cancel":"Cancel"},"title":"App"}`)

	tf, err := Load(cfg, types.FileID(1), "/proj/locales/en/common.json", content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tf.Malformed {
		t.Fatalf("expected a well-formed file")
	}
	if len(tf.Keys) != 3 {
		t.Fatalf("expected 3 flattened keys, got %d: %v", len(tf.Keys), tf.Keys)
	}
	entry, ok := tf.Keys["buttons.save"]
	if !ok {
		t.Fatalf("expected key 'buttons.save', got %v", tf.KeyOrder)
	}
	if entry.Value != "Save" {
		t.Errorf("expected value 'Save', got %q", entry.Value)
	}
	if string(content[entry.ValueSpan.Start:entry.ValueSpan.End]) != "Save" {
		t.Errorf("ValueSpan should index back to the raw 'Save' text, got %q",
			content[entry.ValueSpan.Start:entry.ValueSpan.End])
	}
}

func TestLoadDerivesLanguageAndNamespaceFromLangFirstLayout(t *testing.T) {
	cfg := config.Default("/proj")
	tf, err := Load(cfg, types.FileID(1), "/proj/locales/en/common.json", []byte(`{"a":"b"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tf.Language != "en" {
		t.Errorf("expected language 'en', got %q", tf.Language)
	}
	if tf.Namespace != "common" {
		t.Errorf("expected namespace 'common', got %q", tf.Namespace)
	}
}

func TestLoadDerivesNamespaceFromGrandparentLayout(t *testing.T) {
	cfg := config.Default("/proj")
	tf, err := Load(cfg, types.FileID(1), "/proj/locales/common/en/index.json", []byte(`{"a":"b"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tf.Language != "en" {
		t.Errorf("expected language 'en', got %q", tf.Language)
	}
	if tf.Namespace != "common" {
		t.Errorf("expected namespace 'common', got %q", tf.Namespace)
	}
}

func TestLoadFlatFileWithNoNamespaceDirectory(t *testing.T) {
	cfg := config.Default("/proj")
	tf, err := Load(cfg, types.FileID(1), "/proj/locales/en.json", []byte(`{"a":"b"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tf.Language != "en" {
		t.Errorf("expected language 'en', got %q", tf.Language)
	}
	if tf.Namespace != "locales" {
		t.Errorf("expected namespace 'locales' from the parent dir, got %q", tf.Namespace)
	}
}

func TestLoadUnrecognisedLanguageFallsBackToUnknown(t *testing.T) {
	cfg := config.Default("/proj")
	tf, err := Load(cfg, types.FileID(1), "/proj/data/strings.json", []byte(`{"a":"b"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tf.Language != UnknownLanguage {
		t.Errorf("expected unknown language, got %q", tf.Language)
	}
}

func TestLoadMalformedJSONReportsInputMalformed(t *testing.T) {
	cfg := config.Default("/proj")
	tf, err := Load(cfg, types.FileID(1), "/proj/locales/en/common.json", []byte(`{not json`))
	if err == nil {
		t.Fatalf("expected an error for malformed JSON")
	}
	if !tf.Malformed {
		t.Errorf("expected Malformed to be set")
	}
	if err.Type != "input_malformed" {
		t.Errorf("expected input_malformed, got %s", err.Type)
	}
	if !err.IsRecoverable() {
		t.Errorf("a malformed translation file should be recoverable")
	}
}

func TestLoadSkipsNonStringLeaves(t *testing.T) {
	cfg := config.Default("/proj")
	tf, err := Load(cfg, types.FileID(1), "/proj/locales/en/common.json",
		[]byte(`{"count": 3, "items": ["a","b"], "label": "ok"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tf.Keys) != 1 {
		t.Fatalf("expected only the string leaf to be flattened, got %v", tf.KeyOrder)
	}
	if _, ok := tf.Keys["label"]; !ok {
		t.Errorf("expected key 'label', got %v", tf.KeyOrder)
	}
}
