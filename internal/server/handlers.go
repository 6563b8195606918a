package server

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/standardbeagle/i18n-ls/internal/parser"
	"github.com/standardbeagle/i18n-ls/internal/types"
)

// offsetFor converts an LSP line/character position into a byte
// offset against content, the coordinate system every query in
// internal/index works in. Lines are split on '\n' only, matching how
// every JS/TS source file in this workspace is assumed to be encoded
// (LSP's UTF-16 code unit columns are not honoured: this front end
// targets editors that already send UTF-8 byte columns, since
// spec.md's wire surface never requires otherwise).
func offsetFor(content []byte, pos Position) int {
	line := 0
	for i, b := range content {
		if line == pos.Line {
			end := i + pos.Character
			if end > len(content) {
				end = len(content)
			}
			return end
		}
		if b == '\n' {
			line++
		}
	}
	if pos.Line > line {
		return len(content)
	}
	return len(content)
}

// positionFor is offsetFor's inverse, used to translate a types.Span
// back into the Range an LSP client expects in a response.
func positionFor(content []byte, offset int) Position {
	if offset > len(content) {
		offset = len(content)
	}
	line, lastNewline := 0, -1
	for i := 0; i < offset; i++ {
		if content[i] == '\n' {
			line++
			lastNewline = i
		}
	}
	return Position{Line: line, Character: offset - lastNewline - 1}
}

func rangeFor(content []byte, span types.Span) Range {
	return Range{Start: positionFor(content, span.Start), End: positionFor(content, span.End)}
}

func (s *Server) content(path string) ([]byte, error) {
	if content, ok := s.document(path); ok {
		return content, nil
	}
	return os.ReadFile(path)
}

func (s *Server) handleDidOpen(raw json.RawMessage) error {
	var p DidOpenTextDocumentParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("invalid didOpen params: %w", err)
	}
	path := uriToPath(p.TextDocument.URI)
	content := []byte(p.TextDocument.Text)
	s.setDocument(path, content)

	fileID := s.idx.Registry().Register(path)
	s.idx.OpenBuffer(fileID)
	if err := s.idx.ApplyTextChange(path, content, p.TextDocument.Version, nil); err != nil {
		return err
	}
	s.notifyDecorationsChanged()
	return nil
}

// handleDidChange applies each content change in order, converting an
// LSP incremental Range edit into a parser.Edit the graph's tree-
// sitter cache can reparse against. A full-document change (Range
// nil) replaces the cached content outright and lets ApplyTextChange
// fall back to a full reparse.
func (s *Server) handleDidChange(raw json.RawMessage) error {
	var p DidChangeTextDocumentParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("invalid didChange params: %w", err)
	}
	path := uriToPath(p.TextDocument.URI)
	content, ok := s.document(path)
	if !ok {
		var err error
		content, err = os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("didChange for unopened, unreadable document %s: %w", path, err)
		}
	}

	var edits []parser.Edit
	for _, change := range p.ContentChanges {
		if change.Range == nil {
			content = []byte(change.Text)
			edits = nil
			continue
		}
		startByte := offsetFor(content, change.Range.Start)
		oldEndByte := offsetFor(content, change.Range.End)
		newText := []byte(change.Text)
		newEndByte := startByte + len(newText)

		next := make([]byte, 0, len(content)-(oldEndByte-startByte)+len(newText))
		next = append(next, content[:startByte]...)
		next = append(next, newText...)
		next = append(next, content[oldEndByte:]...)

		edits = append(edits, parser.Edit{
			StartByte:      uint(startByte),
			OldEndByte:     uint(oldEndByte),
			NewEndByte:     uint(newEndByte),
			StartPosition:  toPoint(change.Range.Start),
			OldEndPosition: toPoint(change.Range.End),
			NewEndPosition: positionForEdit(next, newEndByte),
		})
		content = next
	}

	s.setDocument(path, content)
	if err := s.idx.ApplyTextChange(path, content, p.TextDocument.Version, edits); err != nil {
		return err
	}
	s.notifyDecorationsChanged()
	return nil
}

func toPoint(p Position) parser.Point {
	return parser.Point{Row: uint(p.Line), Column: uint(p.Character)}
}

func positionForEdit(content []byte, offset int) parser.Point {
	p := positionFor(content, offset)
	return parser.Point{Row: uint(p.Line), Column: uint(p.Character)}
}

func (s *Server) handleDidClose(raw json.RawMessage) error {
	var p DidCloseTextDocumentParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("invalid didClose params: %w", err)
	}
	path := uriToPath(p.TextDocument.URI)
	s.forgetDocument(path)
	if fileID, ok := s.idx.Registry().IDOf(path); ok {
		s.idx.CloseBuffer(fileID)
	}
	return nil
}

type completionItem struct {
	Label  string            `json:"label"`
	Detail string            `json:"detail,omitempty"`
	Data   map[string]string `json:"data,omitempty"`
}

func (s *Server) handleCompletion(raw json.RawMessage) ([]completionItem, error) {
	var p TextDocumentPositionParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("invalid completion params: %w", err)
	}
	path := uriToPath(p.TextDocument.URI)
	fileID, ok := s.idx.Registry().IDOf(path)
	if !ok {
		return nil, nil
	}
	content, err := s.content(path)
	if err != nil {
		return nil, err
	}
	offset := offsetFor(content, p.Position)

	candidates := s.ix.Completions(fileID, offset, "")
	items := make([]completionItem, 0, len(candidates))
	for _, c := range candidates {
		detail := ""
		if v, ok := c.PerLanguageValue[s.getCurrentLanguage()]; ok {
			detail = v
		}
		items = append(items, completionItem{Label: c.Key, Detail: detail, Data: c.PerLanguageValue})
	}
	return items, nil
}

type hoverResult struct {
	Contents string `json:"contents"`
}

func (s *Server) handleHover(raw json.RawMessage) (*hoverResult, error) {
	var p TextDocumentPositionParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("invalid hover params: %w", err)
	}
	path := uriToPath(p.TextDocument.URI)
	fileID, ok := s.idx.Registry().IDOf(path)
	if !ok {
		return nil, nil
	}
	content, err := s.content(path)
	if err != nil {
		return nil, err
	}
	offset := offsetFor(content, p.Position)

	perLang, ok := s.ix.Hover(fileID, offset)
	if !ok {
		return nil, nil
	}
	langs := make([]string, 0, len(perLang))
	for lang := range perLang {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	var b strings.Builder
	for _, lang := range langs {
		fmt.Fprintf(&b, "**%s**: %s\n", lang, perLang[lang])
	}
	return &hoverResult{Contents: b.String()}, nil
}

// keyUsageAt resolves the resolved (namespace, key) covering a
// request position, the shared lookup definition/references/rename
// all start from since none of them are handed the key directly.
func (s *Server) keyUsageAt(path string, position Position) (namespace, key string, ok bool) {
	fileID, found := s.idx.Registry().IDOf(path)
	if !found {
		return "", "", false
	}
	content, err := s.content(path)
	if err != nil {
		return "", "", false
	}
	offset := offsetFor(content, position)

	usages, _ := s.idx.Graph().Usages(fileID)
	for _, u := range usages {
		if u.Dynamic || u.Ambiguous || u.Namespace == nil || !u.Span.Contains(offset) {
			continue
		}
		return *u.Namespace, u.ResolvedKey, true
	}
	return "", "", false
}

type location struct {
	URI   string `json:"uri"`
	Range Range  `json:"range"`
}

func (s *Server) handleDefinition(raw json.RawMessage) ([]location, error) {
	var p TextDocumentPositionParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("invalid definition params: %w", err)
	}
	namespace, key, ok := s.keyUsageAt(uriToPath(p.TextDocument.URI), p.Position)
	if !ok {
		return nil, nil
	}

	defs := s.ix.DefinitionsOf(namespace, key, nil)
	out := make([]location, 0, len(defs))
	for _, d := range defs {
		defPath, ok := s.idx.Registry().PathOf(d.FileID)
		if !ok {
			continue
		}
		content, err := s.content(defPath)
		if err != nil {
			continue
		}
		out = append(out, location{URI: pathToURI(defPath), Range: rangeFor(content, d.ValueSpan)})
	}
	return out, nil
}

func (s *Server) handleReferences(raw json.RawMessage) ([]location, error) {
	var p TextDocumentPositionParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("invalid references params: %w", err)
	}
	namespace, key, ok := s.keyUsageAt(uriToPath(p.TextDocument.URI), p.Position)
	if !ok {
		return nil, nil
	}

	usages := s.ix.UsagesOf(namespace, key)
	out := make([]location, 0, len(usages))
	for _, u := range usages {
		usagePath, ok := s.idx.Registry().PathOf(u.FileID)
		if !ok {
			continue
		}
		content, err := s.content(usagePath)
		if err != nil {
			continue
		}
		out = append(out, location{URI: pathToURI(usagePath), Range: rangeFor(content, u.Span)})
	}
	return out, nil
}

func (s *Server) handleRename(raw json.RawMessage) (*WorkspaceEdit, error) {
	var p RenameParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("invalid rename params: %w", err)
	}
	namespace, key, ok := s.keyUsageAt(uriToPath(p.TextDocument.URI), p.Position)
	if !ok {
		return nil, fmt.Errorf("no resolved translation key at the given position")
	}

	edits := s.ix.RenameKey(namespace, key, p.NewName)
	changes := make(map[string][]TextEditWire)
	for _, e := range edits {
		editPath, ok := s.idx.Registry().PathOf(e.FileID)
		if !ok {
			continue
		}
		content, err := s.content(editPath)
		if err != nil {
			continue
		}
		uri := pathToURI(editPath)
		changes[uri] = append(changes[uri], TextEditWire{Range: rangeFor(content, e.Span), NewText: e.NewText})
	}
	return &WorkspaceEdit{Changes: changes}, nil
}

type codeActionResult struct {
	Title string         `json:"title"`
	Kind  string         `json:"kind"`
	Edit  *WorkspaceEdit `json:"edit,omitempty"`
}

func (s *Server) handleCodeAction(raw json.RawMessage) ([]codeActionResult, error) {
	var p CodeActionParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("invalid codeAction params: %w", err)
	}
	path := uriToPath(p.TextDocument.URI)
	fileID, ok := s.idx.Registry().IDOf(path)
	if !ok {
		return nil, nil
	}
	content, err := s.content(path)
	if err != nil {
		return nil, err
	}
	span := types.Span{Start: offsetFor(content, p.Range.Start), End: offsetFor(content, p.Range.End)}

	actions := s.ix.CodeActions(fileID, span)
	out := make([]codeActionResult, 0, len(actions))
	for _, a := range actions {
		kind := "quickfix"
		out = append(out, codeActionResult{Title: a.Title, Kind: kind})
	}
	return out, nil
}

// The remaining handlers implement spec.md §6's custom i18n/*
// extension methods, mirroring internal/mcp's tool surface exactly
// (same params, same response shape) since both front ends answer
// the same eight operations against the same workspace.Indexer.

type editTranslationParams struct {
	Lang  string `json:"lang"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (s *Server) handleEditTranslation(raw json.RawMessage) (map[string]any, error) {
	var p editTranslationParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	fileID, ok := firstTranslationFileFor(s, p.Lang)
	if !ok {
		return nil, fmt.Errorf("no translation file found for language %q", p.Lang)
	}
	path, ok := s.idx.Registry().PathOf(fileID)
	if !ok {
		return nil, fmt.Errorf("file %d has no known path", fileID)
	}
	tf, ok := s.idx.Graph().Translation(fileID)
	if !ok || tf == nil {
		return nil, fmt.Errorf("translation file %q failed to load", path)
	}

	sep := separatorFor(s)
	values := make(map[string]string, len(tf.Keys))
	for k, entry := range tf.Keys {
		values[k] = entry.Value
	}
	values[p.Key] = p.Value

	content, err := writeNestedTranslationFile(path, values, sep)
	if err != nil {
		return nil, err
	}
	if err := s.idx.Graph().UpdateTranslation(fileID, path, content); err != nil {
		return nil, err
	}
	s.notifyDecorationsChanged()
	return map[string]any{"success": true, "path": path, "key": p.Key}, nil
}

type deleteUnusedKeysParams struct {
	URI string `json:"uri"`
}

func (s *Server) handleDeleteUnusedKeys(raw json.RawMessage) (map[string]any, error) {
	var p deleteUnusedKeysParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	fileID, ok := s.idx.Registry().IDOf(p.URI)
	if !ok {
		return nil, fmt.Errorf("unknown file %q", p.URI)
	}
	tf, ok := s.idx.Graph().Translation(fileID)
	if !ok || tf == nil {
		return nil, fmt.Errorf("%q is not a loaded translation file", p.URI)
	}

	unused := s.ix.Unused(fileID)
	if len(unused) == 0 {
		return map[string]any{"success": true, "deleted": []string{}}, nil
	}

	values := make(map[string]string, len(tf.Keys))
	for k, entry := range tf.Keys {
		values[k] = entry.Value
	}
	deleted := make([]string, 0, len(unused))
	for _, u := range unused {
		delete(values, u.Key)
		deleted = append(deleted, u.Key)
	}

	content, err := writeNestedTranslationFile(p.URI, values, separatorFor(s))
	if err != nil {
		return nil, err
	}
	if err := s.idx.Graph().UpdateTranslation(fileID, p.URI, content); err != nil {
		return nil, err
	}
	s.notifyDecorationsChanged()
	return map[string]any{"success": true, "deleted": deleted}, nil
}

type getKeyAtPositionParams struct {
	URI      string `json:"uri"`
	Position int    `json:"position"`
}

func (s *Server) handleGetKeyAtPosition(raw json.RawMessage) (map[string]any, error) {
	var p getKeyAtPositionParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	fileID, ok := s.idx.Registry().IDOf(p.URI)
	if !ok {
		return map[string]any{"found": false}, nil
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
		return map[string]any{
			"found": true, "namespace": namespace, "key": u.ResolvedKey,
			"dynamic": u.Dynamic, "ambiguous": u.Ambiguous,
		}, nil
	}
	return map[string]any{"found": false}, nil
}

type getTranslationValueParams struct {
	Lang string `json:"lang"`
	Key  string `json:"key"`
}

func (s *Server) handleGetTranslationValue(raw json.RawMessage) (map[string]any, error) {
	var p getTranslationValueParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	fileID, ok := firstTranslationFileFor(s, p.Lang)
	if !ok {
		return map[string]any{"found": false}, nil
	}
	tf, ok := s.idx.Graph().Translation(fileID)
	if !ok || tf == nil {
		return map[string]any{"found": false}, nil
	}
	entry, ok := tf.Keys[p.Key]
	if !ok {
		return map[string]any{"found": false}, nil
	}
	return map[string]any{"found": true, "value": entry.Value}, nil
}

type getDecorationsParams struct {
	URI      string `json:"uri"`
	Language string `json:"language"`
	MaxWidth int    `json:"maxWidth"`
}

func (s *Server) handleGetDecorations(raw json.RawMessage) (map[string]any, error) {
	var p getDecorationsParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	fileID, ok := s.idx.Registry().IDOf(p.URI)
	if !ok {
		return nil, fmt.Errorf("unknown file %q", p.URI)
	}
	language := p.Language
	if language == "" {
		language = s.getCurrentLanguage()
	}
	maxWidth := p.MaxWidth
	if maxWidth <= 0 {
		maxWidth = 40
	}
	return map[string]any{"decorations": s.ix.Decorations(fileID, language, maxWidth)}, nil
}

type setCurrentLanguageParams struct {
	Language string `json:"language"`
}

func (s *Server) handleSetCurrentLanguage(raw json.RawMessage) (map[string]any, error) {
	var p setCurrentLanguageParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	s.setCurrentLanguage(p.Language)
	s.notifyDecorationsChanged()
	return map[string]any{"success": true, "language": p.Language}, nil
}

func (s *Server) handleGetAvailableLanguages() (map[string]any, error) {
	langs := s.idx.Graph().Languages()
	sort.Strings(langs)
	return map[string]any{"languages": langs}, nil
}

func firstTranslationFileFor(s *Server, lang string) (types.FileID, bool) {
	files := s.idx.Graph().TranslationsByLanguage(lang)
	if len(files) == 0 {
		return types.InvalidFileID, false
	}
	return files[0], true
}

func separatorFor(s *Server) string {
	if cfg := s.idx.Graph().Config(); cfg != nil && cfg.KeySeparator != "" {
		return cfg.KeySeparator
	}
	return "."
}

func writeNestedTranslationFile(path string, values map[string]string, sep string) ([]byte, error) {
	nested := make(map[string]any)
	for key, value := range values {
		node := nested
		segments := strings.Split(key, sep)
		for i, seg := range segments {
			if i == len(segments)-1 {
				node[seg] = value
				break
			}
			next, ok := node[seg].(map[string]any)
			if !ok {
				next = make(map[string]any)
				node[seg] = next
			}
			node = next
		}
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
