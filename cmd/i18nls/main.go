// Package main wires a workspace.Indexer to whichever front end the
// caller asked for, generalising the teacher's cmd/lci/main.go
// urfave/cli scaffolding (flag layout, signal handling, cold-start
// progress wiring) from a single-protocol daemon to two subcommands
// sharing one indexer: "serve" (LSP over stdio) and "mcp" (MCP tool
// server over stdio).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/i18n-ls/internal/config"
	"github.com/standardbeagle/i18n-ls/internal/debug"
	"github.com/standardbeagle/i18n-ls/internal/mcp"
	"github.com/standardbeagle/i18n-ls/internal/server"
	"github.com/standardbeagle/i18n-ls/internal/workspace"
)

const version = "0.1.0"

func rootFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "root",
			Aliases: []string{"r"},
			Usage:   "Workspace root directory",
			Value:   ".",
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "Write a debug log to a file in the system temp directory",
		},
	}
}

// cliProgress adapts workspace.ProgressReporter onto stderr so a
// user running either subcommand from a terminal sees cold-start
// progress without it polluting the protocol's own stdout stream.
type cliProgress struct{}

func (cliProgress) Begin(total int)        { fmt.Fprintf(os.Stderr, "indexing: 0/%d\n", total) }
func (cliProgress) Report(indexed, total int) {
	if total > 0 && indexed%50 == 0 {
		fmt.Fprintf(os.Stderr, "indexing: %d/%d\n", indexed, total)
	}
}
func (cliProgress) End() { fmt.Fprintln(os.Stderr, "indexing: done") }

func buildIndexer(c *cli.Context) (*workspace.Indexer, func(), error) {
	if c.Bool("debug") {
		debug.EnableDebug = "true"
		if path, err := debug.InitDebugLogFile(); err == nil {
			fmt.Fprintf(os.Stderr, "debug log: %s\n", path)
		}
	}

	root := c.String("root")
	absRoot, err := absPath(root)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve root %q: %w", root, err)
	}

	cfg, err := config.Load(absRoot)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	idx, err := workspace.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("construct indexer: %w", err)
	}

	ctx, cancel := signalContext()
	if err := idx.ColdStart(ctx, cliProgress{}); err != nil {
		cancel()
		return nil, nil, fmt.Errorf("cold start: %w", err)
	}

	stop, err := idx.Watch(ctx)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("start watcher: %w", err)
	}

	cleanup := func() {
		stop()
		cancel()
		_ = debug.CloseDebugLog()
	}
	return idx, cleanup, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx, cancel
}

func absPath(root string) (string, error) {
	if root == "" {
		root = "."
	}
	return filepath.Abs(root)
}

func main() {
	app := &cli.App{
		Name:                   "i18nls",
		Usage:                  "Language server and MCP tool server for JS/TS i18n call-site and translation indexing",
		Version:                version,
		UseShortOptionHandling: true,
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Run the LSP server over stdio",
				Flags: rootFlags(),
				Action: func(c *cli.Context) error {
					idx, cleanup, err := buildIndexer(c)
					if err != nil {
						return err
					}
					defer cleanup()

					srv := server.New(idx)
					ctx, cancel := signalContext()
					defer cancel()
					return srv.Serve(ctx, os.Stdin, os.Stdout)
				},
			},
			{
				Name:  "mcp",
				Usage: "Run the MCP tool server over stdio",
				Flags: rootFlags(),
				Action: func(c *cli.Context) error {
					idx, cleanup, err := buildIndexer(c)
					if err != nil {
						return err
					}
					defer cleanup()

					ctx, cancel := signalContext()
					defer cancel()
					return mcp.New(idx).Run(ctx)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "i18nls:", err)
		os.Exit(1)
	}
}
