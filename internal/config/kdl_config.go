package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

const TuningFileName = ".js-i18n-tuning.kdl"

// loadTuning reads the optional `.js-i18n-tuning.kdl` sidecar. It is
// deliberately separate from `.js-i18n.json` (spec.md §6's wire
// format): tuning knobs are an operator concern, not a project-level
// i18n convention, and KDL's node/argument shape reads better for a
// short list of scalars than JSON does.
func loadTuning(root string) (*Indexing, error) {
	path := filepath.Join(root, TuningFileName)
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	doc, err := kdl.Parse(strings.NewReader(string(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", TuningFileName, err)
	}

	tuning := &Indexing{
		NumThreads:      defaultNumThreads(),
		WatchMode:       true,
		WatchDebounceMs: 300,
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "num_threads":
			if v, ok := firstIntArg(n); ok && v > 0 {
				tuning.NumThreads = v
			}
		case "watch_mode":
			if b, ok := firstBoolArg(n); ok {
				tuning.WatchMode = b
			}
		case "watch_debounce_ms":
			if v, ok := firstIntArg(n); ok && v >= 0 {
				tuning.WatchDebounceMs = v
			}
		}
	}

	return tuning, nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}
