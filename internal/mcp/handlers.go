package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/i18n-ls/internal/types"
	"github.com/standardbeagle/i18n-ls/internal/workspace"
)

// marshalCompact is the one place every handler formats its result,
// matching the teacher's createJSONResponse in internal/mcp/
// response.go: handlers build a plain map/struct, this turns it into
// the single TextContent block MCP returns.
func marshalCompact(data any) (string, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

type editTranslationParams struct {
	Lang  string `json:"lang"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

// handleEditTranslation implements i18n.editTranslation: set (lang,
// key)'s value, creating the translation file's in-memory and on-disk
// entry if it doesn't exist yet. The namespace is inferred from
// whichever translation file for lang the workspace already has open
// for business — this tool only ever edits an existing file, it
// doesn't scaffold a brand new locale.
func (s *Server) handleEditTranslation(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p editTranslationParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return errorResult("i18n.editTranslation", fmt.Errorf("invalid parameters: %w", err))
	}

	fileID, ok := firstTranslationFile(s.idx, p.Lang)
	if !ok {
		return errorResult("i18n.editTranslation", fmt.Errorf("no translation file found for language %q", p.Lang))
	}
	path, ok := s.idx.Registry().PathOf(fileID)
	if !ok {
		return errorResult("i18n.editTranslation", fmt.Errorf("file %d has no known path", fileID))
	}
	tf, ok := s.idx.Graph().Translation(fileID)
	if !ok || tf == nil {
		return errorResult("i18n.editTranslation", fmt.Errorf("translation file %q failed to load", path))
	}

	sep := separatorOf(s.idx)
	values := valuesOf(tf)
	values[p.Key] = p.Value

	content, err := writeTranslationFile(path, values, sep)
	if err != nil {
		return errorResult("i18n.editTranslation", err)
	}
	if err := s.idx.Graph().UpdateTranslation(fileID, path, content); err != nil {
		return errorResult("i18n.editTranslation", err)
	}
	return jsonResult(map[string]any{"success": true, "path": path, "key": p.Key})
}

type deleteUnusedKeysParams struct {
	URI string `json:"uri"`
}

// handleDeleteUnusedKeys implements i18n.deleteUnusedKeys: remove
// every key Index.Unused reports for the translation file at uri,
// rewriting the file and refreshing the graph in one pass.
func (s *Server) handleDeleteUnusedKeys(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p deleteUnusedKeysParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return errorResult("i18n.deleteUnusedKeys", fmt.Errorf("invalid parameters: %w", err))
	}

	fileID, ok := s.idx.Registry().IDOf(p.URI)
	if !ok {
		return errorResult("i18n.deleteUnusedKeys", fmt.Errorf("unknown file %q", p.URI))
	}
	tf, ok := s.idx.Graph().Translation(fileID)
	if !ok || tf == nil {
		return errorResult("i18n.deleteUnusedKeys", fmt.Errorf("%q is not a loaded translation file", p.URI))
	}

	unused := s.ix.Unused(fileID)
	if len(unused) == 0 {
		return jsonResult(map[string]any{"success": true, "deleted": []string{}})
	}

	values := valuesOf(tf)
	deleted := make([]string, 0, len(unused))
	for _, u := range unused {
		delete(values, u.Key)
		deleted = append(deleted, u.Key)
	}

	content, err := writeTranslationFile(p.URI, values, separatorOf(s.idx))
	if err != nil {
		return errorResult("i18n.deleteUnusedKeys", err)
	}
	if err := s.idx.Graph().UpdateTranslation(fileID, p.URI, content); err != nil {
		return errorResult("i18n.deleteUnusedKeys", err)
	}
	return jsonResult(map[string]any{"success": true, "deleted": deleted})
}

type getKeyAtPositionParams struct {
	URI      string `json:"uri"`
	Position int    `json:"position"`
}

func (s *Server) handleGetKeyAtPosition(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p getKeyAtPositionParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return errorResult("i18n.getKeyAtPosition", fmt.Errorf("invalid parameters: %w", err))
	}
	fileID, ok := s.idx.Registry().IDOf(p.URI)
	if !ok {
		return jsonResult(map[string]any{"found": false})
	}
	usages, _ := s.idx.Graph().Usages(fileID)
	for _, u := range usages {
		if !u.Span.Contains(p.Position) {
			continue
		}
		namespace := ""
		if u.Namespace != nil {
			namespace = *u.Namespace
		}
		return jsonResult(map[string]any{
			"found": true, "namespace": namespace, "key": u.ResolvedKey,
			"dynamic": u.Dynamic, "ambiguous": u.Ambiguous,
		})
	}
	return jsonResult(map[string]any{"found": false})
}

type getTranslationValueParams struct {
	Lang string `json:"lang"`
	Key  string `json:"key"`
}

func (s *Server) handleGetTranslationValue(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p getTranslationValueParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return errorResult("i18n.getTranslationValue", fmt.Errorf("invalid parameters: %w", err))
	}

	fileID, ok := firstTranslationFile(s.idx, p.Lang)
	if !ok {
		return jsonResult(map[string]any{"found": false})
	}
	tf, ok := s.idx.Graph().Translation(fileID)
	if !ok || tf == nil {
		return jsonResult(map[string]any{"found": false})
	}
	entry, ok := tf.Keys[p.Key]
	if !ok {
		return jsonResult(map[string]any{"found": false})
	}
	return jsonResult(map[string]any{"found": true, "value": entry.Value})
}

type getDecorationsParams struct {
	URI      string `json:"uri"`
	Language string `json:"language"`
	MaxWidth int    `json:"maxWidth"`
}

func (s *Server) handleGetDecorations(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p getDecorationsParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return errorResult("i18n.getDecorations", fmt.Errorf("invalid parameters: %w", err))
	}
	fileID, ok := s.idx.Registry().IDOf(p.URI)
	if !ok {
		return errorResult("i18n.getDecorations", fmt.Errorf("unknown file %q", p.URI))
	}

	language := p.Language
	if language == "" {
		language = s.currentLanguage()
	}
	maxWidth := p.MaxWidth
	if maxWidth <= 0 {
		maxWidth = 40
	}

	decs := s.ix.Decorations(fileID, language, maxWidth)
	return jsonResult(map[string]any{"decorations": decs})
}

var (
	currentLangMu sync.RWMutex
	currentLang   string
)

type setCurrentLanguageParams struct {
	Language string `json:"language"`
}

func (s *Server) handleSetCurrentLanguage(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p setCurrentLanguageParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return errorResult("i18n.setCurrentLanguage", fmt.Errorf("invalid parameters: %w", err))
	}
	currentLangMu.Lock()
	currentLang = p.Language
	currentLangMu.Unlock()
	return jsonResult(map[string]any{"success": true, "language": p.Language})
}

func (s *Server) handleGetCurrentLanguage(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]any{"language": s.currentLanguage()})
}

func (s *Server) currentLanguage() string {
	currentLangMu.RLock()
	defer currentLangMu.RUnlock()
	return currentLang
}

func (s *Server) handleGetAvailableLanguages(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	langs := s.idx.Graph().Languages()
	sort.Strings(langs)
	return jsonResult(map[string]any{"languages": langs})
}

// firstTranslationFile returns any translation file the graph has
// loaded for lang — i18n.editTranslation and i18n.getTranslationValue
// aren't namespace-scoped by the wire surface spec.md §6 defines for
// them, so the first match stands in for "the" file for that
// language, matching how a project with a single namespace per
// language behaves (the common case this tool targets).
func firstTranslationFile(idx *workspace.Indexer, lang string) (types.FileID, bool) {
	files := idx.Graph().TranslationsByLanguage(lang)
	if len(files) == 0 {
		return types.InvalidFileID, false
	}
	return files[0], true
}

// valuesOf copies a translation file's flat key/value map so callers
// can mutate it freely before writing a new file out, without
// touching the graph's memoized entry for the old content.
func valuesOf(tf *types.TranslationFile) map[string]string {
	out := make(map[string]string, len(tf.Keys))
	for key, entry := range tf.Keys {
		out[key] = entry.Value
	}
	return out
}

// writeTranslationFile serialises a flat key/value map back into the
// nested JSON object shape translation files use, keyed by
// KeySeparator-joined segments, and writes it to path. There's no
// gjson-paired writer in the retrieval pack that preserves the
// original file's formatting on a write, and this tool's output is a
// fresh file for a human to review via their editor's diff view
// rather than a byte-for-byte patch, so plain encoding/json is the
// right boundary to cross here rather than hand-rolling one.
func writeTranslationFile(path string, values map[string]string, sep string) ([]byte, error) {
	nested := make(map[string]any)
	for key, value := range values {
		setNested(nested, key, value, sep)
	}
	content, err := json.MarshalIndent(nested, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	return content, nil
}

func setNested(root map[string]any, dottedKey, value, sep string) {
	segments := strings.Split(dottedKey, sep)
	node := root
	for i, seg := range segments {
		if i == len(segments)-1 {
			node[seg] = value
			return
		}
		next, ok := node[seg].(map[string]any)
		if !ok {
			next = make(map[string]any)
			node[seg] = next
		}
		node = next
	}
}

func separatorOf(idx *workspace.Indexer) string {
	if cfg := idx.Graph().Config(); cfg != nil && cfg.KeySeparator != "" {
		return cfg.KeySeparator
	}
	return "."
}
