// Package scope implements component D of the workspace index: it
// consumes the flat capture stream component C produces, groups
// captures that belong to the same declaration or call by
// containment, and resolves each call against the lexical Scopes bound
// so far — generalising the teacher's ScopeManager in
// internal/symbollinker/extractor.go from general-purpose symbol
// scoping to i18n-specific scope data: {local_name, namespace,
// key_prefix, flavour}. There is no push/pop walk over the tree: each
// binding records its enclosing function region, and a lookup picks
// the smallest region containing the call (innermost wins; see
// stack.go).
package scope

import (
	"regexp"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/i18n-ls/internal/config"
	"github.com/standardbeagle/i18n-ls/internal/errors"
	"github.com/standardbeagle/i18n-ls/internal/types"
)

// enclosingFunctionKinds lists the tree-sitter node kinds that
// delimit a lexical region for scope purposes. Anything else
// (if-statements, for-loops) shares its enclosing function's scope,
// matching ordinary JS/TS function-scoping semantics closely enough
// for the common useTranslation()-at-the-top-of-a-component idiom.
var enclosingFunctionKinds = map[string]bool{
	"function_declaration": true,
	"function_expression":  true,
	"arrow_function":       true,
	"generator_function":   true,
	"method_definition":    true,
	"program":              true,
}

// knownHookNames are the identifiers recognised as translation-hook
// calls when destructured, per spec.md §4.D step 1's "known library
// object" idea extended to hook functions.
var knownHookNames = map[string]types.LibraryFlavour{
	"useTranslation":  types.FlavourReactI18next,
	"getTranslations": types.FlavourNextIntl,
	"getFixedT":       types.FlavourI18next,
	"withTranslation": types.FlavourReactI18next,
}

// knownModuleObjects are bare identifiers that denote the i18next
// singleton when used in a member-expression call (`i18n.t(...)`,
// `i18next.t(...)`), independent of any local destructuring.
var knownModuleObjects = map[string]types.LibraryFlavour{
	"i18n":    types.FlavourI18next,
	"i18next": types.FlavourI18next,
}

type group struct {
	anchorName string // "get_trans_fn" or "call_trans_fn"
	anchor     types.Capture
	members    []types.Capture
}

// Resolver turns a file's capture stream into resolved KeyUsages,
// reading key_separator/namespace_separator/default_namespace from
// the active config so a reload (component F's dependency on
// I18nConfig) naturally invalidates resolution.
type Resolver struct {
	cfg *config.Config
}

func NewResolver(cfg *config.Config) *Resolver {
	return &Resolver{cfg: cfg}
}

// Resolve implements spec.md §4.D. It returns one KeyUsage per
// call_trans_fn capture group (including calls with an empty or
// non-literal key, resolved_key == "", used only for completion) and
// any scope-ambiguous diagnostics encountered along the way.
func (r *Resolver) Resolve(fileID types.FileID, caps []types.Capture) ([]types.KeyUsage, []*errors.IndexError) {
	groups := groupCaptures(caps)

	stack := newScopeStack()
	var usages []types.KeyUsage
	var diags []*errors.IndexError

	for _, g := range groups {
		switch g.anchorName {
		case "get_trans_fn":
			r.bindScope(stack, g)
		case "call_trans_fn":
			usage, diag := r.resolveCall(fileID, stack, g)
			usages = append(usages, usage)
			if diag != nil {
				diags = append(diags, diag)
			}
		}
	}
	return usages, diags
}

// groupCaptures groups the flat capture stream by containment inside
// the nearest get_trans_fn/call_trans_fn anchor, then sorts groups by
// anchor start offset so scope bindings are processed in source order
// before the calls that depend on them.
func groupCaptures(caps []types.Capture) []group {
	var anchors []int
	for i, c := range caps {
		if c.Name == "get_trans_fn" || (c.Name == "call_trans_fn" && !isHookCall(caps, c)) {
			anchors = append(anchors, i)
		}
	}

	groups := make([]group, len(anchors))
	for gi, ai := range anchors {
		groups[gi] = group{anchorName: caps[ai].Name, anchor: caps[ai]}
	}

	for _, c := range caps {
		best := -1
		for gi, ai := range anchors {
			a := caps[ai]
			if c.Span.Start >= a.Span.Start && c.Span.End <= a.Span.End {
				if best == -1 || a.Span.Len() < groups[best].anchor.Span.Len() {
					best = gi
				}
			}
		}
		if best >= 0 {
			groups[best].members = append(groups[best].members, c)
		}
	}

	// Stable-sort by anchor start; len(groups) is small per file so an
	// insertion sort avoids pulling in sort for a handful of elements.
	for i := 1; i < len(groups); i++ {
		for j := i; j > 0 && groups[j-1].anchor.Span.Start > groups[j].anchor.Span.Start; j-- {
			groups[j-1], groups[j] = groups[j], groups[j-1]
		}
	}
	return groups
}

// isHookCall reports whether a call_trans_fn match is itself a
// translation-hook call (useTranslation(...) and the like), which the
// bare-call pattern also matches; its captures belong to the enclosing
// get_trans_fn binding, not to a usage.
func isHookCall(caps []types.Capture, call types.Capture) bool {
	for _, c := range caps {
		if c.Name == "call_trans_fn_name" && c.Span.Start == call.Span.Start && c.Span.End <= call.Span.End {
			if _, ok := knownHookNames[c.Text]; ok {
				return true
			}
		}
	}
	return false
}

func member(g group, name string) *types.Capture {
	for i := range g.members {
		if g.members[i].Name == name {
			return &g.members[i]
		}
	}
	return nil
}

func membersNamed(g group, name string) []types.Capture {
	var out []types.Capture
	for _, m := range g.members {
		if m.Name == name {
			out = append(out, m)
		}
	}
	return out
}

// bindScope handles a get_trans_fn group: it resolves the enclosing
// lexical region from the anchor node's ancestry and pushes a Scope
// binding the destructured local name to the hook's namespace/prefix.
func (r *Resolver) bindScope(stack *scopeStack, g group) {
	nameCap := member(g, "get_trans_fn_name")
	if nameCap == nil {
		return
	}

	hookCap := member(g, "hook_name")
	flavour := types.FlavourUnknown
	if hookCap != nil {
		if f, ok := knownHookNames[hookCap.Text]; ok {
			flavour = f
		}
	}

	var namespace *string
	if ns := member(g, "namespace"); ns != nil {
		v := ns.Text
		namespace = &v
	} else if items := membersNamed(g, "namespace_item"); len(items) > 0 {
		v := items[0].Text
		namespace = &v
	}

	var keyPrefix *string
	if kp := member(g, "key_prefix"); kp != nil {
		if opt := member(g, "option_key"); opt == nil || opt.Text == "keyPrefix" {
			v := kp.Text
			keyPrefix = &v
		}
	}

	region := enclosingRegion(g.anchor)
	stack.push(region, types.Scope{
		Range:     region,
		LocalName: nameCap.Text,
		Namespace: namespace,
		KeyPrefix: keyPrefix,
		Flavour:   flavour,
	})
}

// resolveCall handles a call_trans_fn group per spec.md §4.D steps
// 1-5, returning a KeyUsage (possibly with ResolvedKey == "") and an
// optional scope-ambiguous diagnostic.
func (r *Resolver) resolveCall(fileID types.FileID, stack *scopeStack, g group) (types.KeyUsage, *errors.IndexError) {
	calleeCap := member(g, "call_trans_fn_name")
	localName := ""
	if calleeCap != nil {
		localName = calleeCap.Text
	}
	memberObj := member(g, "member_object")

	sc, ok := stack.lookup(g.anchor.Span, localName)
	if !ok && memberObj != nil {
		if flavour, known := knownModuleObjects[memberObj.Text]; known {
			sc = &types.Scope{Flavour: flavour}
			ok = true
		}
	}

	ambiguous := false
	var diag *errors.IndexError
	if !ok {
		if r.cfg.DefaultNamespace != nil && isLikelyTransFn(localName) {
			sc = &types.Scope{Namespace: r.cfg.DefaultNamespace}
			ok = true
		} else {
			ambiguous = true
			diag = errors.ScopeAmbiguous("resolve_call", fileID, "").WithFile(fileID, "")
		}
	}

	keyCap := member(g, "trans_key")
	dynamic := keyCap == nil
	resolvedKey := ""
	if keyCap != nil {
		resolvedKey = keyCap.Text
		if ok && sc.KeyPrefix != nil {
			resolvedKey = *sc.KeyPrefix + r.cfg.KeySeparator + resolvedKey
		}
	}
	var namespace *string
	if explicit := member(g, "explicit_namespace"); explicit != nil {
		if opt := member(g, "option_key"); opt == nil || opt.Text == "ns" || opt.Text == "namespace" {
			v := explicit.Text
			namespace = &v
		}
	}
	if namespace == nil && !dynamic && r.cfg.NamespaceSeparator != nil {
		if ns, key, found := splitNamespace(resolvedKey, *r.cfg.NamespaceSeparator); found {
			namespace = &ns
			resolvedKey = key
		}
	}
	if namespace == nil && ok {
		namespace = sc.Namespace
	}
	if namespace == nil && r.cfg.DefaultNamespace != nil {
		namespace = r.cfg.DefaultNamespace
	}

	flavour := types.FlavourUnknown
	if ok {
		flavour = sc.Flavour
	}

	// The literal token is only safe to rewrite in place when it reads
	// exactly as the final resolved key: a key_prefix or namespace
	// split makes the literal shorter than resolvedKey, and
	// KeyLiteralSpan stays the Span zero value (length 0, the "don't
	// touch source" signal RenameKey checks for).
	var keyLiteralSpan types.Span
	if keyCap != nil && keyCap.Text == resolvedKey {
		keyLiteralSpan = keyCap.Span
	}

	usage := types.KeyUsage{
		FileID:         fileID,
		Span:           g.anchor.Span,
		CalleeSpan:     g.anchor.Span,
		ResolvedKey:    resolvedKey,
		Namespace:      namespace,
		Flavour:        flavour,
		PluralSuffixes: pluralSuffixesFor(g),
		Dynamic:        dynamic,
		Ambiguous:      ambiguous,
		KeyLiteralSpan: keyLiteralSpan,
	}
	if calleeCap != nil {
		usage.CalleeSpan = calleeCap.Span
	}
	return usage, diag
}

func isLikelyTransFn(name string) bool {
	return name == "t" || name == "translate"
}

func splitNamespace(key, sep string) (namespace string, rest string, found bool) {
	idx := -1
	for i := 0; i+len(sep) <= len(key); i++ {
		if key[i:i+len(sep)] == sep {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", key, false
	}
	return key[:idx], key[idx+len(sep):], true
}

// countOptionPattern spots a `count` property in a call's argument
// list text, written either as `count: n` or as the shorthand
// `{ count }`.
var countOptionPattern = regexp.MustCompile(`[{,]\s*count\s*[:,}]`)

// pluralSuffixesFor reports the plural suffix variants a usage should
// be checked against when its call options include a `count`
// property, and nil otherwise. The query engine captures the argument
// list as a whole (trans_args) rather than the `count` key itself, so
// the check is textual: a `count` property name anywhere in the
// argument list's text counts.
func pluralSuffixesFor(g group) []string {
	args := member(g, "trans_args")
	if args == nil || !countOptionPattern.MatchString(args.Text) {
		return nil
	}
	return types.PluralSuffixVariants
}

// enclosingRegion walks a captured node's ancestry to find the
// smallest enclosing function/program body, the "containing lexical
// region" spec.md §4.D's scope stack is keyed by.
func enclosingRegion(anchor types.Capture) types.Span {
	node, ok := anchor.Node.(*tree_sitter.Node)
	if !ok || node == nil {
		return types.Span{Start: 0, End: int(^uint(0) >> 1)}
	}
	cur := node
	for cur != nil {
		if enclosingFunctionKinds[cur.Kind()] {
			sp := cur.StartPosition()
			ep := cur.EndPosition()
			return types.Span{
				Start: int(cur.StartByte()), End: int(cur.EndByte()),
				StartLine: int(sp.Row) + 1, StartCol: int(sp.Column),
				EndLine: int(ep.Row) + 1, EndCol: int(ep.Column),
			}
		}
		cur = cur.Parent()
	}
	return types.Span{Start: 0, End: int(^uint(0) >> 1)}
}
