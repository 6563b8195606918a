// Package translate implements component E of the workspace index:
// loading a locale JSON file, deriving its language and namespace
// from its path, and flattening its nested object into dotted/
// separator-joined keys while preserving each key's and value's byte
// span in the original file — needed for go-to-definition on a
// translation key and for in-place editing later. Grounded on
// github.com/tidwall/gjson (pulled in from the retrieval pack's
// megalamo-pixivfe repo): gjson.Result.Index reports the byte offset
// of a value within the original buffer without building an
// intermediate tree, which a plain encoding/json.Unmarshal into
// map[string]any cannot give us.
package translate

import (
	"encoding/json"
	"path"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/standardbeagle/i18n-ls/internal/config"
	lcierrors "github.com/standardbeagle/i18n-ls/internal/errors"
	"github.com/standardbeagle/i18n-ls/internal/types"
)

// localeTagPattern recognises simple BCP-47-like path segments: "en",
// "en-US", "pt-BR", "zh-Hans". It's intentionally permissive — the
// loader only needs to tell a locale segment apart from a namespace
// segment, not validate BCP-47 fully.
var localeTagPattern = regexp.MustCompile(`^[a-zA-Z]{2,3}(-[a-zA-Z]{2,4})?$`)

// genericFileStems are filename stems that name the file itself
// rather than a namespace, e.g. a <namespace>/<lang>/index.json
// layout where every namespace directory's file is called "index".
// Used to disambiguate that shape from <lang>/<namespace>.json, which
// is structurally identical one level up (a locale-looking parent
// directory with a non-locale grandparent).
var genericFileStems = map[string]bool{
	"index": true, "translation": true, "translations": true,
	"messages": true, "strings": true,
}

// UnknownLanguage is the language_tag spec.md §4.E assigns when no
// path segment or filename stem looks like a locale.
const UnknownLanguage = "_unknown"

// Load parses a locale JSON file into a flattened TranslationFile.
// content that isn't valid JSON is still returned (Malformed set,
// Keys empty) alongside an Input-malformed error, per spec.md §7:
// such files are recoverable and shouldn't abort a directory scan.
func Load(cfg *config.Config, fileID types.FileID, filePath string, content []byte) (*types.TranslationFile, *lcierrors.IndexError) {
	tf := &types.TranslationFile{
		FileID: fileID,
		Path:   filePath,
		Bytes:  content,
		Keys:   make(map[string]types.TranslationEntry),
	}
	tf.Language, tf.Namespace = detectLanguageAndNamespace(filePath, cfg)

	if !json.Valid(content) {
		tf.Malformed = true
		return tf, lcierrors.InputMalformed("load_translation_file", nil).WithFile(fileID, filePath)
	}

	root := gjson.ParseBytes(content)
	if !root.IsObject() {
		tf.Malformed = true
		return tf, lcierrors.InputMalformed("load_translation_file", nil).WithFile(fileID, filePath)
	}

	flatten("", cfg.KeySeparator, root, tf)
	return tf, nil
}

// flatten recursively walks obj's JSON object tree, joining nested
// keys with sep and recording each leaf's span. Arrays and non-string
// leaves are skipped: spec.md's data model only covers string values.
func flatten(prefix string, sep string, obj gjson.Result, tf *types.TranslationFile) {
	obj.ForEach(func(key, value gjson.Result) bool {
		name := key.Str
		full := name
		if prefix != "" {
			full = prefix + sep + name
		}

		if value.IsObject() {
			flatten(full, sep, value, tf)
			return true
		}
		if value.Type != gjson.String {
			return true
		}

		tf.Keys[full] = types.TranslationEntry{
			Value:     value.Str,
			KeySpan:   rawSpan(key, true),
			ValueSpan: rawSpan(value, true),
		}
		tf.KeyOrder = append(tf.KeyOrder, full)
		return true
	})
}

// rawSpan converts a gjson.Result's raw byte range into a Span,
// trimming the surrounding quote characters when stripQuotes is true
// so the span covers just the text an editor should highlight or
// replace, not the delimiting `"` characters.
func rawSpan(r gjson.Result, stripQuotes bool) types.Span {
	start := r.Index
	end := start + len(r.Raw)
	if stripQuotes && len(r.Raw) >= 2 && r.Raw[0] == '"' {
		start++
		end--
	}
	return types.Span{Start: start, End: end}
}

// detectLanguageAndNamespace implements spec.md §4.E's path-based
// heuristics. Decided layouts, in priority order:
//
//  1. <namespace>/<lang>/<file>.json  (grandparent = namespace, parent = locale),
//     only when the filename stem is one of genericFileStems
//  2. <lang>/<namespace>.json         (parent = locale, filename stem = namespace)
//  3. <namespace>/<lang>.json         (filename stem = locale, parent = namespace)
//  4. a bare <lang>.json with no parent directory: that language, no
//     namespace.
//  5. no locale-looking segment: UnknownLanguage; the namespace is the
//     filename stem only if cfg.NamespaceSeparator is configured
//     (meaning the project encodes namespaces in keys, not paths, and
//     the loader has nothing better to offer); otherwise no namespace.
func detectLanguageAndNamespace(filePath string, cfg *config.Config) (language string, namespace string) {
	clean := strings.TrimSuffix(path.Clean(toSlash(filePath)), "/")
	segments := strings.Split(clean, "/")
	n := len(segments)

	stem := strings.TrimSuffix(segments[n-1], path.Ext(segments[n-1]))
	var parent, grandparent string
	if n >= 2 {
		parent = segments[n-2]
	}
	if n >= 3 {
		grandparent = segments[n-3]
	}

	switch {
	case isLocale(parent) && grandparent != "" && !isLocale(grandparent) && genericFileStems[strings.ToLower(stem)]:
		return parent, grandparent
	case isLocale(parent):
		return parent, stem
	case isLocale(stem) && parent != "":
		return stem, parent
	case isLocale(stem):
		return stem, ""
	default:
		if cfg != nil && cfg.NamespaceSeparator != nil {
			return UnknownLanguage, stem
		}
		return UnknownLanguage, ""
	}
}

func isLocale(segment string) bool {
	return segment != "" && localeTagPattern.MatchString(segment)
}

// toSlash avoids importing path/filepath solely for ToSlash;
// translation file paths are workspace-relative and already
// forward-slash on every platform this index is expected to run on,
// but normalising defensively costs nothing.
func toSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
