// Package mcp exposes the custom i18n.* commands spec.md §6 names as
// MCP tools, generalising the teacher's internal/mcp/server.go —
// mcp.NewServer plus one AddTool call per tool, each backed by a
// narrow JSON-Schema input and a handler that unmarshals
// req.Params.Arguments itself rather than relying on the SDK's
// generic binding — to this domain's eight-tool surface over
// *internal/workspace.Indexer and *internal/index.Index instead of
// the teacher's code-search tool catalog.
package mcp

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/i18n-ls/internal/debug"
	"github.com/standardbeagle/i18n-ls/internal/index"
	"github.com/standardbeagle/i18n-ls/internal/workspace"
)

// Server wires the i18n.* tool surface to a live workspace indexer.
// It holds no state besides those two references: every tool call
// reads the graph's current snapshot through ix, or mutates a
// translation file directly on disk plus the in-memory graph.
type Server struct {
	idx *workspace.Indexer
	ix  *index.Index

	server *mcp.Server
}

// New builds the MCP tool server for idx. Call Run to start serving
// over stdio.
func New(idx *workspace.Indexer) *Server {
	s := &Server{
		idx: idx,
		ix:  index.New(idx.Graph()),
	}
	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    "i18n-ls-mcp-server",
		Version: "0.1.0",
	}, nil)
	s.registerTools()
	return s
}

// Run blocks serving tool calls over stdio until ctx is cancelled or
// the transport closes.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name:        "i18n.editTranslation",
		Description: "Set a translation key's value for one language, creating the key if it doesn't exist yet.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"lang":  {Type: "string", Description: "Language tag, e.g. \"en\""},
				"key":   {Type: "string", Description: "Dotted translation key"},
				"value": {Type: "string", Description: "New value"},
			},
			Required: []string{"lang", "key", "value"},
		},
	}, s.handleEditTranslation)

	s.server.AddTool(&mcp.Tool{
		Name:        "i18n.deleteUnusedKeys",
		Description: "Remove every key in the translation file at uri that has no resolved usage anywhere in the workspace.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{"uri": {Type: "string"}},
			Required:   []string{"uri"},
		},
	}, s.handleDeleteUnusedKeys)

	s.server.AddTool(&mcp.Tool{
		Name:        "i18n.getKeyAtPosition",
		Description: "Resolve the translation key (namespace and key) at a byte offset in a source file, if any.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"uri":      {Type: "string"},
				"position": {Type: "integer", Description: "Byte offset into the file"},
			},
			Required: []string{"uri", "position"},
		},
	}, s.handleGetKeyAtPosition)

	s.server.AddTool(&mcp.Tool{
		Name:        "i18n.getTranslationValue",
		Description: "Look up a key's value in one language.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"lang": {Type: "string"},
				"key":  {Type: "string"},
			},
			Required: []string{"lang", "key"},
		},
	}, s.handleGetTranslationValue)

	s.server.AddTool(&mcp.Tool{
		Name:        "i18n.getDecorations",
		Description: "Get the inline decoration value (optionally truncated) for every resolved usage in a source file.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"uri":      {Type: "string"},
				"language": {Type: "string"},
				"maxWidth": {Type: "integer"},
			},
			Required: []string{"uri"},
		},
	}, s.handleGetDecorations)

	s.server.AddTool(&mcp.Tool{
		Name:        "i18n.setCurrentLanguage",
		Description: "Set the language decorations prefer, for the rest of this session.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{"language": {Type: "string"}},
		},
	}, s.handleSetCurrentLanguage)

	s.server.AddTool(&mcp.Tool{
		Name:        "i18n.getCurrentLanguage",
		Description: "Get the language decorations currently prefer.",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, s.handleGetCurrentLanguage)

	s.server.AddTool(&mcp.Tool{
		Name:        "i18n.getAvailableLanguages",
		Description: "List every language tag the workspace has at least one translation file for.",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, s.handleGetAvailableLanguages)
}

func errorResult(operation string, err error) (*mcp.CallToolResult, error) {
	debug.Log("mcp", "%s failed: %v", operation, err)
	return jsonResult(map[string]any{"success": false, "error": err.Error()})
}

func jsonResult(data any) (*mcp.CallToolResult, error) {
	text, err := marshalCompact(data)
	if err != nil {
		return nil, fmt.Errorf("marshal response: %w", err)
	}
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}, nil
}
