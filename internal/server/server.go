package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/standardbeagle/i18n-ls/internal/debug"
	"github.com/standardbeagle/i18n-ls/internal/index"
	"github.com/standardbeagle/i18n-ls/internal/workspace"
)

// Server is the LSP front end over one workspace.Indexer. It tracks
// each open document's current text itself (the byte content a
// Position converts against) rather than re-reading disk on every
// request, since an unsaved buffer's content only the editor knows.
type Server struct {
	idx *workspace.Indexer
	ix  *index.Index

	docsMu sync.RWMutex
	docs   map[string][]byte // path -> current content

	currentLangMu sync.RWMutex
	currentLang   string

	conn *conn
}

func New(idx *workspace.Indexer) *Server {
	return &Server{
		idx:  idx,
		ix:   index.New(idx.Graph()),
		docs: make(map[string][]byte),
	}
}

// Serve runs the dispatch loop against r/w (ordinarily stdin/stdout)
// until ctx is cancelled or the connection is closed.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	s.conn = newConn(r, w)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		msg, err := s.conn.readMessage()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("read message: %w", err)
		}
		if msg.Method == "" {
			continue // a response to a request we never sent
		}
		s.dispatch(ctx, msg)
	}
}

func (s *Server) dispatch(ctx context.Context, msg *rpcMessage) {
	result, err := s.handle(ctx, msg.Method, msg.Params)
	if msg.ID == nil {
		// Notification: didOpen/didChange/didClose/etc never reply,
		// even on failure — only log it.
		if err != nil {
			debug.LogIndexing("notification %s failed: %v", msg.Method, err)
		}
		return
	}
	if err != nil {
		if writeErr := s.conn.replyError(msg.ID, -32603, err.Error()); writeErr != nil {
			debug.LogIndexing("failed writing error reply: %v", writeErr)
		}
		return
	}
	if writeErr := s.conn.reply(msg.ID, result); writeErr != nil {
		debug.LogIndexing("failed writing reply: %v", writeErr)
	}
}

func (s *Server) handle(ctx context.Context, method string, params json.RawMessage) (any, error) {
	switch method {
	case "initialize":
		return s.handleInitialize(params)
	case "shutdown":
		return nil, nil
	case "textDocument/didOpen":
		return nil, s.handleDidOpen(params)
	case "textDocument/didChange":
		return nil, s.handleDidChange(params)
	case "textDocument/didClose":
		return nil, s.handleDidClose(params)
	case "textDocument/completion":
		return s.handleCompletion(params)
	case "textDocument/hover":
		return s.handleHover(params)
	case "textDocument/definition":
		return s.handleDefinition(params)
	case "textDocument/references":
		return s.handleReferences(params)
	case "textDocument/rename":
		return s.handleRename(params)
	case "textDocument/codeAction":
		return s.handleCodeAction(params)
	case "i18n/editTranslation":
		return s.handleEditTranslation(params)
	case "i18n/deleteUnusedKeys":
		return s.handleDeleteUnusedKeys(params)
	case "i18n/getKeyAtPosition":
		return s.handleGetKeyAtPosition(params)
	case "i18n/getTranslationValue":
		return s.handleGetTranslationValue(params)
	case "i18n/getDecorations":
		return s.handleGetDecorations(params)
	case "i18n/setCurrentLanguage":
		return s.handleSetCurrentLanguage(params)
	case "i18n/getCurrentLanguage":
		return map[string]string{"language": s.getCurrentLanguage()}, nil
	case "i18n/getAvailableLanguages":
		return s.handleGetAvailableLanguages()
	default:
		return nil, fmt.Errorf("unhandled method %q", method)
	}
}

type initializeParams struct {
	RootURI               string          `json:"rootUri"`
	RootPath              string          `json:"rootPath"`
	InitializationOptions json.RawMessage `json:"initializationOptions"`
}

type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type initializeResult struct {
	Capabilities map[string]any `json:"capabilities"`
	ServerInfo   serverInfo     `json:"serverInfo"`
}

// handleInitialize implements spec.md §6's initialize(workspace_roots,
// config) -> ServerInfo: it accepts whichever root URI/path the
// client sends (a fresh Indexer was already constructed with its own
// config.Config by main.go, so this handler doesn't reload one) and
// advertises the capabilities this domain's handlers actually serve.
func (s *Server) handleInitialize(raw json.RawMessage) (*initializeResult, error) {
	var p initializeParams
	_ = json.Unmarshal(raw, &p)

	return &initializeResult{
		ServerInfo: serverInfo{Name: "i18n-ls", Version: "0.1.0"},
		Capabilities: map[string]any{
			"textDocumentSync": map[string]any{
				"openClose": true,
				"change":    2, // incremental
			},
			"completionProvider": map[string]any{},
			"hoverProvider":      true,
			"definitionProvider": true,
			"referencesProvider": true,
			"renameProvider":     true,
			"codeActionProvider": true,
		},
	}, nil
}

func (s *Server) setDocument(path string, content []byte) {
	s.docsMu.Lock()
	s.docs[path] = content
	s.docsMu.Unlock()
}

func (s *Server) document(path string) ([]byte, bool) {
	s.docsMu.RLock()
	defer s.docsMu.RUnlock()
	content, ok := s.docs[path]
	return content, ok
}

func (s *Server) forgetDocument(path string) {
	s.docsMu.Lock()
	delete(s.docs, path)
	s.docsMu.Unlock()
}

func (s *Server) setCurrentLanguage(lang string) {
	s.currentLangMu.Lock()
	s.currentLang = lang
	s.currentLangMu.Unlock()
}

func (s *Server) getCurrentLanguage() string {
	s.currentLangMu.RLock()
	defer s.currentLangMu.RUnlock()
	return s.currentLang
}

// notifyDecorationsChanged sends the parameterless
// i18n/decorationsChanged notification spec.md §6 names, telling
// clients to re-fetch decorations rather than pushing the (possibly
// large) decoration set itself.
func (s *Server) notifyDecorationsChanged() {
	if s.conn == nil {
		return
	}
	if err := s.conn.notify("i18n/decorationsChanged", nil); err != nil {
		debug.LogIndexing("failed to send decorationsChanged notification: %v", err)
	}
}

