package workspace

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/standardbeagle/i18n-ls/internal/config"
	"github.com/standardbeagle/i18n-ls/internal/types"
)

func TestWatchDetectsNewSourceFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", ".keep"), "")

	cfg := config.Default(root)
	cfg.Indexing.WatchDebounceMs = 20
	idx, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := idx.ColdStart(context.Background(), nil); err != nil {
		t.Fatalf("ColdStart: %v", err)
	}

	stop, err := idx.Watch(context.Background())
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer stop()

	path := filepath.Join(root, "src", "app.js")
	writeFile(t, path, `t("greeting");`)

	fileID := waitForRegistration(t, idx, path, time.Second)
	usages, ok := idx.graph.Usages(fileID)
	if !ok || len(usages) != 1 || usages[0].ResolvedKey != "greeting" {
		t.Fatalf("expected the watcher to index the new file, got %v, %v", usages, ok)
	}
}

func TestWatchCoalescesBurstToLatestState(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "src", "app.js")
	writeFile(t, path, `t("first");`)

	cfg := config.Default(root)
	cfg.Indexing.WatchDebounceMs = 50
	idx, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := idx.ColdStart(context.Background(), nil); err != nil {
		t.Fatalf("ColdStart: %v", err)
	}

	stop, err := idx.Watch(context.Background())
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer stop()

	for i := 0; i < 5; i++ {
		writeFile(t, path, `t("burst` + string(rune('0'+i)) + `");`)
		time.Sleep(5 * time.Millisecond)
	}
	writeFile(t, path, `t("final");`)

	fileID, ok := idx.registry.IDOf(path)
	if !ok {
		t.Fatalf("expected file to already be registered from cold start")
	}
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		usages, _ := idx.graph.Usages(fileID)
		if len(usages) == 1 && usages[0].ResolvedKey == "final" {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected the debounced batch to settle on the final write")
}

func TestWatchSkipsDiskEventsForOpenBuffers(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "src", "app.js")
	writeFile(t, path, `t("saved");`)

	cfg := config.Default(root)
	cfg.Indexing.WatchDebounceMs = 20
	idx, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := idx.ColdStart(context.Background(), nil); err != nil {
		t.Fatalf("ColdStart: %v", err)
	}

	fileID, ok := idx.registry.IDOf(path)
	if !ok {
		t.Fatalf("expected file to already be registered from cold start")
	}
	idx.OpenBuffer(fileID)
	if err := idx.ApplyTextChange(path, []byte(`t("unsaved.edit");`), 2, nil); err != nil {
		t.Fatalf("ApplyTextChange: %v", err)
	}

	stop, err := idx.Watch(context.Background())
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer stop()

	// A disk write racing the open buffer must not overwrite the
	// editor's in-memory version.
	writeFile(t, path, `t("stale.disk.write");`)
	time.Sleep(150 * time.Millisecond)

	usages, _ := idx.graph.Usages(fileID)
	if len(usages) != 1 || usages[0].ResolvedKey != "unsaved.edit" {
		t.Fatalf("expected the open buffer's content to win, got %v", usages)
	}
}

// waitForRegistration polls until the watcher has registered path (a
// new file only gets a FileID once its create event has been applied),
// failing the test if timeout elapses first.
func waitForRegistration(t *testing.T, idx *Indexer, path string, timeout time.Duration) types.FileID {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fileID, ok := idx.registry.IDOf(path); ok {
			return fileID
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s to be registered by the watcher", path)
	return types.InvalidFileID
}
