package workspace

import (
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/i18n-ls/internal/config"
	"github.com/standardbeagle/i18n-ls/internal/debug"
	"github.com/standardbeagle/i18n-ls/internal/registry"
	"github.com/standardbeagle/i18n-ls/internal/types"
)

// discover walks cfg.Root once and buckets every regular file into
// translation paths and source paths per component A's Classify,
// skipping ignored files and pruning excluded directories early.
// Grounded on the teacher's FileScanner.ScanDirectory walk, trimmed
// to this domain's two buckets and without the generic FileTask
// channel, since component G dispatches straight to component F.
func discover(cfg *config.Config) (translationPaths, sourcePaths []string, err error) {
	visitedDirs := make(map[string]bool)

	walkErr := filepath.Walk(cfg.Root, func(path string, info os.FileInfo, werr error) error {
		if werr != nil {
			debug.LogIndexing("workspace: scan error for %s: %v", path, werr)
			return nil
		}

		if info.IsDir() {
			realPath, evalErr := filepath.EvalSymlinks(path)
			if evalErr != nil {
				return nil
			}
			if visitedDirs[realPath] {
				return filepath.SkipDir
			}
			visitedDirs[realPath] = true

			if path != cfg.Root && shouldPruneDir(path, cfg) {
				return filepath.SkipDir
			}
			return nil
		}

		switch registry.Classify(path, cfg) {
		case types.FileKindTranslation:
			translationPaths = append(translationPaths, path)
		case types.FileKindSource:
			sourcePaths = append(sourcePaths, path)
		}
		return nil
	})
	return translationPaths, sourcePaths, walkErr
}

func globMatchesAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if matched, _ := doublestar.Match(pattern, rel); matched {
			return true
		}
	}
	return false
}

// shouldPruneDir mirrors Classify's exclude-glob check but against a
// directory's own path, with and without a trailing slash (a pattern
// like "**/node_modules/**" matches the latter, "**/node_modules"
// matches the former), so the walk never descends into an excluded
// tree in the first place.
func shouldPruneDir(path string, cfg *config.Config) bool {
	rel, err := filepath.Rel(cfg.Root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	return globMatchesAny(cfg.ExcludeGlobs, rel) || globMatchesAny(cfg.ExcludeGlobs, rel+"/")
}
